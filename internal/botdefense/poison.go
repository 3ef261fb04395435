package botdefense

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/gin-gonic/gin"
)

// serves fake session data to bots
func ServePoisonedJSON(c *gin.Context) {
	data := generateFakeSessions(cryptoRandInt(15) + 5)
	c.JSON(200, gin.H{
		"status": "success",
		"data":   data,
	})
}

// fake session structure shaped like the real API but populated with
// fabricated codes and coordinates
type fakeSession struct {
	Code      string     `json:"code"`
	CreatedAt int64      `json:"created_at"`
	ExpiresAt int64      `json:"expires_at"`
	Users     []fakeUser `json:"users"`
}

type fakeUser struct {
	ID          string  `json:"id"`
	DisplayName string  `json:"display_name"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	ExpiresAt   int64   `json:"expires_at"`
}

var fakeNames = []string{
	"wanderer", "pilgrim", "drifter", "nomad", "rover",
	"stray", "vagrant", "rambler", "roamer", "pathfinder",
}

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func generateFakeSessions(count int) []fakeSession {
	sessions := make([]fakeSession, count)
	for i := range sessions {
		created := time.Now().Add(-time.Duration(cryptoRandInt(86400)) * time.Second)

		sessions[i] = fakeSession{
			Code:      randomFakeCode(),
			CreatedAt: created.UnixMilli(),
			ExpiresAt: created.Add(24 * time.Hour).UnixMilli(),
			Users:     generateFakeUsers(cryptoRandInt(4) + 1),
		}
	}
	return sessions
}

func generateFakeUsers(count int) []fakeUser {
	users := make([]fakeUser, count)
	for i := range users {
		users[i] = fakeUser{
			ID:          randomFakeID(),
			DisplayName: fakeNames[cryptoRandInt(len(fakeNames))],
			// plausible-looking coordinates scattered over open ocean
			Lat: -40.0 + float64(cryptoRandInt(2000))/100.0,
			Lng: -170.0 + float64(cryptoRandInt(4000))/100.0,
			ExpiresAt: time.Now().
				Add(time.Duration(cryptoRandInt(900)) * time.Second).UnixMilli(),
		}
	}
	return users
}

func randomFakeCode() string {
	code := make([]byte, 6)
	for i := range code {
		code[i] = codeAlphabet[cryptoRandInt(len(codeAlphabet))]
	}
	return string(code)
}

func randomFakeID() string {
	return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x",
		cryptoRandInt(1<<31-1),
		cryptoRandInt(1<<16),
		cryptoRandInt(1<<16),
		cryptoRandInt(1<<16),
		cryptoRandInt(1<<31-1))
}

// returns a uniform random int in [0, n)
func cryptoRandInt(n int) int {
	value, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(value.Int64())
}

// slow-drips a plain text response to waste a bot's time
func Tarpit(c *gin.Context, duration, chunkDelay time.Duration) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(200)

	writer := c.Writer
	deadline := time.Now().Add(duration)

	for time.Now().Before(deadline) {
		select {
		case <-c.Request.Context().Done():
			return
		case <-time.After(chunkDelay):
		}

		if _, err := writer.Write([]byte(".")); err != nil {
			return
		}
		writer.Flush()
	}
}

// slow-drips a JSON response that never quite finishes
func TarpitJSON(c *gin.Context, duration, chunkDelay time.Duration) {
	c.Header("Content-Type", "application/json")
	c.Status(200)

	writer := c.Writer
	if _, err := writer.Write([]byte(`{"status":"success","data":[`)); err != nil {
		return
	}
	writer.Flush()

	deadline := time.Now().Add(duration)

	for time.Now().Before(deadline) {
		select {
		case <-c.Request.Context().Done():
			return
		case <-time.After(chunkDelay):
		}

		if _, err := writer.Write([]byte(" ")); err != nil {
			return
		}
		writer.Flush()
	}
}
