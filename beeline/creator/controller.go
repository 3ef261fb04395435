// Package creator drives the owning side of a session: mint or resume
// a code, follow the live presence feed, and tear the session down.
package creator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"codeberg.org/beeline/server/internal/client"
	"codeberg.org/beeline/server/internal/logger"
)

var (
	ErrNoSession     = errors.New("no active session")
	ErrActiveSession = errors.New("session already active")
	ErrSessionGone   = errors.New("session no longer exists")
)

// SessionAPI is the slice of the server API the controller needs;
// *client.RESTClient satisfies it
type SessionAPI interface {
	CreateSession(ctx context.Context, code string) (*client.Session, error)
	GetSession(ctx context.Context, code string) (*client.Session, error)
	DeleteSession(ctx context.Context, code string) error
}

// Feed is a live snapshot subscription for one session;
// *client.WSClient satisfies it
type Feed interface {
	Connect() error
	Snapshots() <-chan client.Snapshot
	Ended() <-chan client.SessionEnded
	Close()
}

// DialFunc opens a feed for a session code
type DialFunc func(code string) Feed

// Controller owns at most one session at a time
type Controller struct {
	api  SessionAPI
	dial DialFunc

	mu      sync.Mutex
	session *client.Session
	feed    Feed
}

func NewController(api SessionAPI, dial DialFunc) *Controller {
	return &Controller{
		api:  api,
		dial: dial,
	}
}

// Create mints a fresh session on the server and opens its feed
func (c *Controller) Create(ctx context.Context) (*client.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return nil, ErrActiveSession
	}

	session, err := c.api.CreateSession(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	if err := c.attach(session); err != nil {
		// roll the fresh session back rather than leak it
		if derr := c.api.DeleteSession(ctx, session.Code); derr != nil {
			logger.Warn("failed to roll back session", "code", session.Code, "error", derr)
		}
		return nil, err
	}

	return session, nil
}

// Resume revalidates a previously saved code against the server and
// reopens its feed. Saved local state is never trusted on its own.
func (c *Controller) Resume(ctx context.Context, code string) (*client.Session, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return nil, ErrActiveSession
	}

	session, err := c.api.GetSession(ctx, code)
	if err != nil {
		if errors.Is(err, client.ErrSessionNotFound) {
			return nil, ErrSessionGone
		}
		return nil, fmt.Errorf("failed to resume session: %w", err)
	}

	if err := c.attach(session); err != nil {
		return nil, err
	}

	return session, nil
}

// opens the feed; caller holds c.mu
func (c *Controller) attach(session *client.Session) error {
	feed := c.dial(session.Code)
	if err := feed.Connect(); err != nil {
		return fmt.Errorf("failed to open session feed: %w", err)
	}

	c.session = session
	c.feed = feed

	return nil
}

// Session returns the active session, if any
func (c *Controller) Session() (*client.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return nil, false
	}

	return c.session, true
}

// Snapshots delivers live presence snapshots; nil when no session is
// active
func (c *Controller) Snapshots() <-chan client.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.feed == nil {
		return nil
	}

	return c.feed.Snapshots()
}

// Ended reports the server closing the session out from under us;
// nil when no session is active
func (c *Controller) Ended() <-chan client.SessionEnded {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.feed == nil {
		return nil
	}

	return c.feed.Ended()
}

// End destroys the session on the server, then closes the feed and
// resets local state
func (c *Controller) End(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return ErrNoSession
	}

	code := c.session.Code
	if err := c.api.DeleteSession(ctx, code); err != nil && !errors.Is(err, client.ErrSessionNotFound) {
		return fmt.Errorf("failed to end session: %w", err)
	}

	c.detach()
	return nil
}

// Close drops the feed without destroying the session; the code can
// be resumed later
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.detach()
}

// caller holds c.mu
func (c *Controller) detach() {
	if c.feed != nil {
		c.feed.Close()
		c.feed = nil
	}
	c.session = nil
}
