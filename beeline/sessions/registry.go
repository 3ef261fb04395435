package sessions

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// how many fresh codes to try before giving up on creation. With a
// 36^6 code space collisions are rare; the retry exists so a collision
// is an inconvenience rather than a user-visible failure.
const maxCodeAttempts = 5

// issues, validates, and destroys code-addressed sessions
type Registry struct {
	store    Store
	lifetime time.Duration
	now      func() time.Time
}

func NewRegistry(store Store, lifetime time.Duration) *Registry {
	return &Registry{
		store:    store,
		lifetime: lifetime,
		now:      time.Now,
	}
}

// creates a session under a freshly issued random code, retrying on
// the rare collision with a live session
func (r *Registry) Create(ctx context.Context) (*Session, error) {
	var lastErr error

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code, err := NewCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate share code: %w", err)
		}

		session, err := r.CreateWithCode(ctx, code)
		if err == nil {
			return session, nil
		}

		if !errors.Is(err, ErrCodeTaken) {
			return nil, err
		}

		lastErr = err
	}

	return nil, fmt.Errorf("exhausted code attempts: %w", lastErr)
}

// creates a session under a caller-chosen code. A code held by an
// expired-but-unswept session is reusable: the stale session is
// destroyed and creation retried once.
func (r *Registry) CreateWithCode(ctx context.Context, code string) (*Session, error) {
	if !ValidCode(code) {
		return nil, ErrInvalidCode
	}

	now := r.now()
	session := &Session{
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(r.lifetime),
	}

	err := r.store.CreateSession(ctx, session)
	if err == nil {
		return session, nil
	}

	if !errors.Is(err, ErrCodeTaken) {
		return nil, err
	}

	existing, getErr := r.store.GetSession(ctx, code)
	if getErr == nil && !existing.Live(now) {
		if delErr := r.store.DeleteSession(ctx, code); delErr != nil {
			return nil, delErr
		}

		if createErr := r.store.CreateSession(ctx, session); createErr == nil {
			return session, nil
		}
	}

	return nil, ErrCodeTaken
}

// retrieves a live session by code
func (r *Registry) Get(ctx context.Context, code string) (*Session, error) {
	session, err := r.store.GetSession(ctx, code)
	if err != nil {
		return nil, err
	}

	if !session.Live(r.now()) {
		return nil, ErrSessionNotFound
	}

	return session, nil
}

// reports whether a live session exists under code. This is the
// pre-flight check joiners run before pushing presence.
func (r *Registry) Exists(ctx context.Context, code string) (bool, error) {
	_, err := r.Get(ctx, code)

	if errors.Is(err, ErrSessionNotFound) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}

// deletes the session and all its presence records. Idempotent:
// destroying an absent session is not an error.
func (r *Registry) Destroy(ctx context.Context, code string) error {
	return r.store.DeleteSession(ctx, code)
}
