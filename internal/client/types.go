// Package client provides REST and websocket clients for the beeline
// server, used by the terminal frontend and the tracker.
package client

import (
	"encoding/json"
	"errors"
	"time"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrCodeTaken       = errors.New("session code already in use")
	ErrInvalidCode     = errors.New("invalid session code")
	ErrNotConnected    = errors.New("not connected")
)

// Session mirrors the server's session representation
type Session struct {
	Code      string `json:"code"`
	CreatedAt int64  `json:"created_at"`
	ExpiresAt int64  `json:"expires_at"`
}

// User is one presence record
type User struct {
	ID          string  `json:"id"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	ExpiresAt   int64   `json:"expires_at"`
	DisplayName string  `json:"display_name,omitempty"`
	ProfilePic  string  `json:"profile_pic,omitempty"`
	Email       string  `json:"email,omitempty"`
}

// UserUpdate publishes or refreshes a presence record
type UserUpdate struct {
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	DisplayName string  `json:"display_name,omitempty"`
	ProfilePic  string  `json:"profile_pic,omitempty"`
	Email       string  `json:"email,omitempty"`
}

type usersResponse struct {
	Users []User `json:"users"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// wire-level websocket message
type wsMessage struct {
	Type      string          `json:"type"`
	Code      string          `json:"code"`
	Timestamp time.Time       `json:"timestamp"`
	Sequence  uint64          `json:"seq,omitempty"`
	Payload   json.RawMessage `json:"payload"`
}

// websocket message types, mirroring the server
const (
	typeSnapshot       = "snapshot"
	typeLocationUpdate = "location_update"
	typeStopSharing    = "stop_sharing"
	typeSessionState   = "session_state"
	typeSessionEnded   = "session_ended"
	typeError          = "error"
	typePing           = "ping"
	typePong           = "pong"
	typeServerShutdown = "server_shutdown"
)

type snapshotPayload struct {
	Users []User `json:"users"`
}

type locationUpdatePayload struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type sessionEndedPayload struct {
	Reason string `json:"reason,omitempty"`
}

// Snapshot is one delivery from the server's live feed
type Snapshot struct {
	Users    []User
	Sequence uint64
}

// SessionEnded reports why the server closed the session
type SessionEnded struct {
	Reason string
}
