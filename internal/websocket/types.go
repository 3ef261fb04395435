package websocket

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

// message type constants for websocket communication
const (
	// is sent to creators whenever the session's presence set changes
	TypeSnapshot = "snapshot"

	// is sent by joiners to publish or refresh their location
	TypeLocationUpdate = "location_update"

	// is sent by joiners to withdraw their presence record
	TypeStopSharing = "stop_sharing"

	// is sent to a connecting client with session info
	TypeSessionState = "session_state"

	// is sent when the session is ended or expires
	TypeSessionEnded = "session_ended"

	// is sent when an error occurs
	TypeError = "error"

	// is sent by clients to keep the connection alive
	TypePing = "ping"

	// is sent by server in response to ping
	TypePong = "pong"

	// is sent by server before shutdown
	TypeServerShutdown = "server_shutdown"
)

// client connection constants
const (
	// time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// maximum message size allowed from peer
	maxMessageSize = 8 * 1024 // 8 KB

	// location updates allowed per second, with a small burst for
	// reconnect catch-up
	locationUpdatesPerSecond = 1
	locationUpdateBurst      = 3
)

// hub connection limit constants
const (
	maxConnectionsPerUser = 5
	maxConnectionsPerIP   = 10
)

// client roles
const (
	RoleCreator = "creator"
	RoleJoiner  = "joiner"
)

// errors
var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrInvalidMessage    = errors.New("invalid message format")
	ErrConnectionClosed  = errors.New("connection closed")
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	ErrInvalidCoordinate = errors.New("coordinate out of range")
	ErrViewerOnly        = errors.New("creators cannot publish presence")
)

// represents a websocket message with typed payload
type Message struct {
	Type      string          `json:"type"`
	Code      string          `json:"code"`
	ClientID  string          `json:"-"` // internal only, not sent to clients
	UserID    string          `json:"user_id,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Sequence  uint64          `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

// contains a joiner's published location
type LocationUpdatePayload struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// one presence record as seen by creators
type SnapshotUser struct {
	ID          string  `json:"id"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	ExpiresAt   int64   `json:"expires_at"` // Unix milliseconds
	DisplayName string  `json:"display_name,omitempty"`
	ProfilePic  string  `json:"profile_pic,omitempty"`
	Email       string  `json:"email,omitempty"`
}

// contains the full current presence set for a session
type SnapshotPayload struct {
	Users []SnapshotUser `json:"users"`
}

// contains session info sent to a connecting client
type SessionStatePayload struct {
	Code      string `json:"code"`
	YourRole  string `json:"your_role"`
	ExpiresAt int64  `json:"expires_at"` // Unix milliseconds
}

// contains session termination information
type SessionEndedPayload struct {
	Reason string `json:"reason,omitempty"`
}

// contains information about server shutdown
type ServerShutdownPayload struct {
	Reason string `json:"reason"`
}

// represents a websocket client connection
type Client struct {
	// unique identifier for this client
	ID string

	// session code this client is connected to
	Code string

	// user ID (a pseudo-identity for anonymous joiners)
	UserID string

	// display name for this client
	DisplayName string

	// profile picture URL, empty for anonymous joiners
	ProfilePic string

	// role in the session (creator, joiner)
	Role string

	// whether this client has an authenticated user account
	IsAuthenticated bool

	// IP address of the client (for connection tracking)
	IPAddress string

	// session expiry sent in session_state on connect
	SessionExpiresAt time.Time

	// websocket connection
	conn *websocket.Conn

	// hub reference for message dispatch
	hub *Hub

	// buffered channel of outbound messages
	send chan []byte

	// rate limiting for location updates
	pushLimiter *rate.Limiter

	// mutex for thread-safe operations
	mu sync.RWMutex

	// flag indicating if client is closed
	closed bool
}

// maintains the set of active clients and fans messages out per session
type Hub struct {
	// registered clients by session code and client ID
	sessions map[string]map[string]*Client

	// register requests from clients
	Register chan *Client

	// unregister requests from clients
	Unregister chan *Client

	// inbound messages from clients
	Broadcast chan *Message

	// mutex for thread-safe access to sessions
	mu sync.RWMutex

	// message handlers for different message types
	handlers map[string]MessageHandler

	// flag indicating if hub is running
	running bool

	// channel to signal shutdown
	shutdown chan struct{}

	// connection tracking: user ID -> count of connections
	userConnections map[string]int

	// connection tracking: IP address -> count of connections
	ipConnections map[string]int

	// sequence numbers per session for message ordering
	sessionSequences map[string]uint64

	// callback for client disconnect (e.g., cancel snapshot subscription)
	onClientDisconnect func(client *Client)

	// callback after a client is registered and session_state is sent
	onClientRegistered func(client *Client)
}

// processes a specific message type
type MessageHandler func(hub *Hub, client *Client, msg *Message) error
