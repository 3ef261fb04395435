// Connects to a running server as a joiner and pushes a few location
// updates, printing everything the server sends back.
//
// Usage: go run scripts/wsprobe/main.go <code> [token]
// Example: go run scripts/wsprobe/main.go AB12CD
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"
)

type Message struct {
	Type      string          `json:"type"`
	Code      string          `json:"code"`
	UserID    string          `json:"user_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Sequence  uint64          `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

type locationUpdate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run wsprobe/main.go <code> [token]")
		fmt.Println("Example: go run wsprobe/main.go AB12CD")
		os.Exit(1)
	}

	code := os.Args[1]

	endpoint := os.Getenv("BEELINE_WS_ENDPOINT")
	if endpoint == "" {
		endpoint = "ws://localhost:8080/api/v1/ws"
	}

	query := url.Values{}
	query.Set("code", code)
	query.Set("role", "joiner")
	query.Set("display_name", "wsprobe")
	if len(os.Args) > 2 {
		query.Set("token", os.Args[2])
	}

	conn, _, err := websocket.DefaultDialer.Dial(endpoint+"?"+query.Encode(), nil)
	if err != nil {
		log.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	// print everything the server sends
	go func() {
		for {
			var msg Message
			if err := conn.ReadJSON(&msg); err != nil {
				log.Printf("read failed: %v", err)
				return
			}

			fmt.Printf("<- %s (seq %d): %s\n", msg.Type, msg.Sequence, string(msg.Payload))
		}
	}()

	// walk a fake position eastward every 5 seconds
	lat, lng := 51.5074, -0.1278

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	push := func() {
		payload, _ := json.Marshal(locationUpdate{Lat: lat, Lng: lng})

		msg := Message{
			Type:      "location_update",
			Code:      code,
			Timestamp: time.Now(),
			Payload:   payload,
		}

		if err := conn.WriteJSON(msg); err != nil {
			log.Fatalf("write failed: %v", err)
		}

		fmt.Printf("-> location_update %.4f,%.4f\n", lat, lng)
		lng += 0.0005
	}

	push()

	for {
		select {
		case <-ticker.C:
			push()

		case <-interrupt:
			fmt.Println("sending stop_sharing and closing")

			stop := Message{Type: "stop_sharing", Code: code, Timestamp: time.Now()}
			if err := conn.WriteJSON(stop); err != nil {
				log.Printf("write failed: %v", err)
			}

			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			time.Sleep(250 * time.Millisecond)
			return
		}
	}
}
