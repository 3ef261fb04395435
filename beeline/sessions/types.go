package sessions

import (
	"context"
	"time"
)

// length of a human-typable share code
const CodeLength = 6

// represents a code-addressed location sharing session
type Session struct {
	Code      string    `json:"code"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// reports whether the session is still within its lifetime
func (s *Session) Live(now time.Time) bool {
	return now.Before(s.ExpiresAt)
}

// represents one user's last reported location with its own expiry
type Record struct {
	ID          string    `json:"id"`
	Lat         float64   `json:"lat"`
	Lng         float64   `json:"lng"`
	ExpiresAt   time.Time `json:"expires_at"`
	ProfilePic  string    `json:"profile_pic,omitempty"`
	DisplayName string    `json:"display_name,omitempty"`
	Email       string    `json:"email,omitempty"`
}

// reports whether the record's TTL has passed
func (r *Record) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// store interface for session and presence record persistence.
// keys are the share code for sessions and (code, user id) for records.
type Store interface {
	// session operations
	CreateSession(ctx context.Context, session *Session) error
	GetSession(ctx context.Context, code string) (*Session, error)
	DeleteSession(ctx context.Context, code string) error
	ListCodes(ctx context.Context) ([]string, error)

	// presence record operations
	PutRecord(ctx context.Context, code string, record *Record) error
	GetRecord(ctx context.Context, code, id string) (*Record, error)
	ListRecords(ctx context.Context, code string) ([]*Record, error)
	DeleteRecord(ctx context.Context, code, id string) error

	Close() error
}
