package client

import (
	"encoding/json"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsWriteWait  = 10 * time.Second

	snapshotBuffer = 16
)

// WSClient is a live connection to one session's websocket feed.
// Creators receive snapshots; joiners publish location updates.
type WSClient struct {
	endpoint    string
	code        string
	role        string
	token       string
	displayName string

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool

	snapshots chan Snapshot
	ended     chan SessionEnded
}

// creates a websocket client for the session; role is "creator" or "joiner"
func NewWSClient(endpoint, code, role, token, displayName string) *WSClient {
	return &WSClient{
		endpoint:    endpoint,
		code:        code,
		role:        role,
		token:       token,
		displayName: displayName,
		snapshots:   make(chan Snapshot, snapshotBuffer),
		ended:       make(chan SessionEnded, 1),
	}
}

// Connect establishes the websocket connection and reads the welcome
// session_state message before returning
func (c *WSClient) Connect() error {
	c.mu.Lock()

	if c.connected {
		c.mu.Unlock()
		return nil
	}

	query := url.Values{}
	query.Set("code", c.code)
	query.Set("role", c.role)
	if c.token != "" {
		query.Set("token", c.token)
	}
	if c.displayName != "" {
		query.Set("display_name", c.displayName)
	}

	conn, _, err := websocket.DefaultDialer.Dial(c.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		c.mu.Unlock()
		return fmt.Errorf("failed to connect: %w", err)
	}

	c.conn = conn

	// ping/pong handlers keep the connection alive
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait)) //nolint:errcheck // deadline reset
		return nil
	})

	conn.SetReadDeadline(time.Now().Add(wsPongWait)) //nolint:errcheck // initial deadline

	// read the welcome message to confirm the session is live
	var welcome wsMessage
	if err := conn.ReadJSON(&welcome); err != nil {
		conn.Close() //nolint:errcheck // connection cleanup
		c.mu.Unlock()
		return fmt.Errorf("failed to read welcome: %w", err)
	}

	if welcome.Type == typeError {
		conn.Close() //nolint:errcheck // connection cleanup
		c.mu.Unlock()
		return ErrSessionNotFound
	}

	c.connected = true

	go c.readPump(conn)
	go c.pingPump()

	c.mu.Unlock()
	return nil
}

// sends periodic pings to keep the connection alive
func (c *WSClient) pingPump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		<-ticker.C
		c.mu.Lock()

		if !c.connected || c.conn == nil {
			c.mu.Unlock()
			return
		}

		c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait)) //nolint:errcheck // deadline reset
		if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
			c.mu.Unlock()
			return
		}

		c.mu.Unlock()
	}
}

// continuously reads messages and routes snapshots and end notices.
// The connection is captured at start so Close on another goroutine
// only has to close it to unblock the read.
func (c *WSClient) readPump(conn *websocket.Conn) {
	defer func() {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
		conn.Close() //nolint:errcheck // connection cleanup
		close(c.snapshots)
	}()

	for {
		conn.SetReadDeadline(time.Now().Add(wsPongWait)) //nolint:errcheck // deadline reset

		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}

		switch msg.Type {
		case typeSnapshot:
			var payload snapshotPayload
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				continue
			}

			// drop the oldest pending snapshot if the reader is behind;
			// only the latest one matters
			snapshot := Snapshot{Users: payload.Users, Sequence: msg.Sequence}
			select {
			case c.snapshots <- snapshot:
			default:
				select {
				case <-c.snapshots:
				default:
				}
				c.snapshots <- snapshot
			}

		case typeSessionEnded, typeServerShutdown:
			var payload sessionEndedPayload
			_ = json.Unmarshal(msg.Payload, &payload) //nolint:errcheck // reason is optional

			select {
			case c.ended <- SessionEnded{Reason: payload.Reason}:
			default:
			}

			return

		default:
			continue
		}
	}
}

// Snapshots delivers live presence snapshots; closed when the
// connection drops
func (c *WSClient) Snapshots() <-chan Snapshot {
	return c.snapshots
}

// Ended reports the server closing the session
func (c *WSClient) Ended() <-chan SessionEnded {
	return c.ended
}

// SendLocation publishes a location update over the connection
func (c *WSClient) SendLocation(lat, lng float64) error {
	payload, err := json.Marshal(locationUpdatePayload{Lat: lat, Lng: lng})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	return c.write(wsMessage{
		Type:      typeLocationUpdate,
		Code:      c.code,
		Timestamp: time.Now(),
		Payload:   payload,
	})
}

// StopSharing withdraws this client's presence record
func (c *WSClient) StopSharing() error {
	return c.write(wsMessage{
		Type:      typeStopSharing,
		Code:      c.code,
		Timestamp: time.Now(),
	})
}

func (c *WSClient) write(msg wsMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected || c.conn == nil {
		return ErrNotConnected
	}

	c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait)) //nolint:errcheck // deadline reset
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	return nil
}

// returns whether the client is connected
func (c *WSClient) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// closes the websocket connection
func (c *WSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		c.conn.Close() //nolint:errcheck // connection cleanup
	}
	c.connected = false
}
