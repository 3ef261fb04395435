package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"codeberg.org/beeline/server/beeline/presence"
	"codeberg.org/beeline/server/beeline/sessions"
)

func newHandlerFixture(t *testing.T) (*presence.Store, string) {
	t.Helper()

	backend := sessions.NewMemoryStore()
	registry := sessions.NewRegistry(backend, 24*time.Hour)
	store := presence.NewStore(registry, backend, 15*time.Minute)

	session, err := registry.Create(context.Background())
	require.NoError(t, err)

	return store, session.Code
}

func newJoinerClient(code string) *Client {
	return &Client{
		ID:          "joiner-client",
		Code:        code,
		UserID:      "user-1",
		DisplayName: "Test Joiner",
		Role:        RoleJoiner,
		send:        make(chan []byte, 256),
		pushLimiter: rate.NewLimiter(rate.Limit(100), 100),
	}
}

func TestLocationUpdateHandlerStoresRecord(t *testing.T) {
	store, code := newHandlerFixture(t)
	hub := NewHub()
	client := newJoinerClient(code)

	msg, err := NewMessage(TypeLocationUpdate, code, "user-1", LocationUpdatePayload{
		Lat: 52.37,
		Lng: 4.89,
	})
	require.NoError(t, err)

	handler := LocationUpdateHandler(store)
	require.NoError(t, handler(hub, client, msg))

	records, err := store.Snapshot(context.Background(), code)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "user-1", records[0].ID)
	assert.Equal(t, "Test Joiner", records[0].DisplayName)
}

func TestLocationUpdateHandlerRejectsCreator(t *testing.T) {
	store, code := newHandlerFixture(t)
	hub := NewHub()

	client := newJoinerClient(code)
	client.Role = RoleCreator

	msg, err := NewMessage(TypeLocationUpdate, code, "user-1", LocationUpdatePayload{
		Lat: 52.37,
		Lng: 4.89,
	})
	require.NoError(t, err)

	handler := LocationUpdateHandler(store)
	assert.ErrorIs(t, handler(hub, client, msg), ErrViewerOnly)

	records, err := store.Snapshot(context.Background(), code)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLocationUpdateHandlerRejectsBadCoordinates(t *testing.T) {
	store, code := newHandlerFixture(t)
	hub := NewHub()
	client := newJoinerClient(code)
	handler := LocationUpdateHandler(store)

	tests := []struct {
		name string
		lat  float64
		lng  float64
	}{
		{name: "latitude too high", lat: 90.5, lng: 0},
		{name: "latitude too low", lat: -91, lng: 0},
		{name: "longitude too high", lat: 0, lng: 180.1},
		{name: "longitude too low", lat: 0, lng: -181},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewMessage(TypeLocationUpdate, code, "user-1", LocationUpdatePayload{
				Lat: tt.lat,
				Lng: tt.lng,
			})
			require.NoError(t, err)

			assert.ErrorIs(t, handler(hub, client, msg), ErrInvalidCoordinate)
		})
	}
}

func TestLocationUpdateHandlerRateLimited(t *testing.T) {
	store, code := newHandlerFixture(t)
	hub := NewHub()

	client := newJoinerClient(code)
	client.pushLimiter = rate.NewLimiter(rate.Limit(locationUpdatesPerSecond), 1)

	msg, err := NewMessage(TypeLocationUpdate, code, "user-1", LocationUpdatePayload{
		Lat: 1,
		Lng: 1,
	})
	require.NoError(t, err)

	handler := LocationUpdateHandler(store)
	require.NoError(t, handler(hub, client, msg))
	assert.ErrorIs(t, handler(hub, client, msg), ErrRateLimitExceeded)
}

func TestLocationUpdateHandlerUnknownSession(t *testing.T) {
	store, _ := newHandlerFixture(t)
	hub := NewHub()
	client := newJoinerClient("NOPE42")

	msg, err := NewMessage(TypeLocationUpdate, "NOPE42", "user-1", LocationUpdatePayload{
		Lat: 1,
		Lng: 1,
	})
	require.NoError(t, err)

	// the client gets an error message, the handler itself does not fail
	handler := LocationUpdateHandler(store)
	require.NoError(t, handler(hub, client, msg))

	select {
	case received := <-client.send:
		assert.Contains(t, string(received), "session_not_found")
	default:
		t.Error("expected session_not_found error message")
	}
}

func TestStopSharingHandlerRemovesRecord(t *testing.T) {
	store, code := newHandlerFixture(t)
	hub := NewHub()
	client := newJoinerClient(code)

	require.NoError(t, store.Upsert(context.Background(), code, &sessions.Record{ID: "user-1"}))

	msg := &Message{Type: TypeStopSharing, Code: code, ClientID: client.ID, UserID: "user-1"}

	handler := StopSharingHandler(store)
	require.NoError(t, handler(hub, client, msg))

	records, err := store.Snapshot(context.Background(), code)
	require.NoError(t, err)
	assert.Empty(t, records)

	// withdrawing twice is fine
	require.NoError(t, handler(hub, client, msg))
}

func TestPingHandlerRespondsWithPong(t *testing.T) {
	hub := NewHub()
	client := newJoinerClient("AB12CD")

	handler := PingHandler()
	require.NoError(t, handler(hub, client, &Message{Type: TypePing, Code: "AB12CD"}))

	select {
	case received := <-client.send:
		assert.Contains(t, string(received), TypePong)
	default:
		t.Error("expected pong response")
	}
}

func TestSnapshotPayloadFromRecords(t *testing.T) {
	expires := time.Now().Add(15 * time.Minute)

	payload := SnapshotPayloadFromRecords([]*sessions.Record{
		{ID: "user-1", Lat: 52.37, Lng: 4.89, ExpiresAt: expires, DisplayName: "Someone"},
	})

	require.Len(t, payload.Users, 1)
	assert.Equal(t, "user-1", payload.Users[0].ID)
	assert.Equal(t, expires.UnixMilli(), payload.Users[0].ExpiresAt)

	empty := SnapshotPayloadFromRecords(nil)
	assert.NotNil(t, empty.Users)
	assert.Empty(t, empty.Users)
}
