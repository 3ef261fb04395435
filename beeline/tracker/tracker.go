// Package tracker runs the joiner side of a session: validate the
// code, take a first fix, then keep the presence record fresh on a
// fixed cadence until the user stops sharing.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"codeberg.org/beeline/server/internal/client"
	"codeberg.org/beeline/server/internal/location"
	"codeberg.org/beeline/server/internal/logger"
)

const (
	defaultPushInterval  = 5 * time.Second
	defaultSampleTimeout = 10 * time.Second

	removeTimeout = 2 * time.Second
)

var (
	ErrInvalidCode         = errors.New("invalid session code")
	ErrLocationUnavailable = errors.New("location unavailable")
	ErrAlreadySharing      = errors.New("already sharing")
)

// State is one phase of the tracking loop
type State int

const (
	StateIdle State = iota
	StateValidating
	StateAwaitingFirstFix
	StateSharing
	StateStopped
	StateError
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateAwaitingFirstFix:
		return "awaiting_first_fix"
	case StateSharing:
		return "sharing"
	case StateStopped:
		return "stopped"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// SessionService is the slice of the server API the tracker needs;
// *client.RESTClient satisfies it
type SessionService interface {
	SessionExists(ctx context.Context, code string) (bool, error)
	UpsertUser(ctx context.Context, code, id string, update client.UserUpdate) error
	RemoveUser(ctx context.Context, code, id string) error
}

// Identity is who the joiner appears as in snapshots
type Identity struct {
	ID          string
	DisplayName string
	Email       string
	AvatarURL   string
}

// IdentityProvider resolves the signed-in user, if any
type IdentityProvider interface {
	CurrentUser() (Identity, bool)
}

// Config wires the tracker's collaborators
type Config struct {
	Service  SessionService
	Locator  location.Locator
	Identity IdentityProvider // optional; anonymous pseudo-id when nil

	PushInterval  time.Duration // defaults to 5s
	SampleTimeout time.Duration // defaults to 10s

	// called on each transient push failure; the loop continues
	// regardless
	OnPushError func(err error)

	// observes every state transition
	OnStateChange func(state State)
}

// Tracker is one joiner's tracking loop. Start and Stop may be called
// from different goroutines.
type Tracker struct {
	cfg Config

	mu        sync.Mutex
	state     State
	code      string
	identity  Identity
	lastErr   error
	stop      chan struct{}
	done      chan struct{}
	stopWatch func()
}

func New(cfg Config) *Tracker {
	if cfg.PushInterval <= 0 {
		cfg.PushInterval = defaultPushInterval
	}
	if cfg.SampleTimeout <= 0 {
		cfg.SampleTimeout = defaultSampleTimeout
	}

	return &Tracker{
		cfg:   cfg,
		state: StateIdle,
	}
}

// State returns the current phase of the loop
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// LastError returns the error recorded by the most recent failed
// Start attempt
func (t *Tracker) LastError() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastErr
}

// Identity returns the identity the tracker is publishing under;
// stable for the lifetime of one sharing run
func (t *Tracker) Identity() Identity {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.identity
}

func (t *Tracker) setState(state State) {
	t.mu.Lock()
	t.state = state
	t.mu.Unlock()

	if t.cfg.OnStateChange != nil {
		t.cfg.OnStateChange(state)
	}
}

// records a failed attempt and returns the loop to idle; both
// failure states are recoverable by calling Start again
func (t *Tracker) fail(err error) error {
	t.mu.Lock()
	t.lastErr = err
	t.mu.Unlock()

	t.setState(StateError)
	t.setState(StateIdle)

	return err
}

// Start validates the code, takes a first fix and begins sharing.
// It returns once the first presence record has landed; the periodic
// push loop then runs until Stop.
func (t *Tracker) Start(ctx context.Context, code string) error {
	// claim the in-progress state under the same lock as the guard so
	// concurrent Start calls cannot both pass it
	t.mu.Lock()
	if t.state == StateValidating || t.state == StateAwaitingFirstFix || t.state == StateSharing {
		t.mu.Unlock()
		return ErrAlreadySharing
	}
	t.lastErr = nil
	t.state = StateValidating
	t.mu.Unlock()

	if t.cfg.OnStateChange != nil {
		t.cfg.OnStateChange(StateValidating)
	}

	exists, err := t.cfg.Service.SessionExists(ctx, code)
	if err != nil {
		return t.fail(fmt.Errorf("failed to validate code: %w", err))
	}
	if !exists {
		return t.fail(ErrInvalidCode)
	}

	t.setState(StateAwaitingFirstFix)

	fix, err := t.sample(ctx)
	if err != nil {
		return t.fail(fmt.Errorf("%w: %w", ErrLocationUnavailable, err))
	}

	identity := t.resolveIdentity()

	t.mu.Lock()
	t.code = code
	t.identity = identity
	t.mu.Unlock()

	if err := t.push(ctx, fix); err != nil {
		if errors.Is(err, client.ErrSessionNotFound) {
			return t.fail(ErrInvalidCode)
		}
		return t.fail(fmt.Errorf("failed to publish first fix: %w", err))
	}

	stop := make(chan struct{})
	done := make(chan struct{})

	// the hardware watch only keeps the position source warm; its
	// fixes are discarded and pushes ride the timer below
	stopWatch := t.cfg.Locator.Watch(
		func(location.Position) {},
		func(err error) {
			logger.Warn("position watch error", "error", err)
		},
	)

	t.mu.Lock()
	t.stop = stop
	t.done = done
	t.stopWatch = stopWatch
	t.mu.Unlock()

	t.setState(StateSharing)

	go t.run(stop, done)

	return nil
}

// the periodic push loop; exits only when stop closes
func (t *Tracker) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(t.cfg.PushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		ctx, cancel := context.WithTimeout(context.Background(), t.cfg.SampleTimeout)
		fix, err := t.cfg.Locator.Current(ctx)
		if err == nil {
			err = t.push(ctx, fix)
		}
		cancel()

		if err != nil {
			logger.Warn("presence push failed", "error", err)
			if t.cfg.OnPushError != nil {
				t.cfg.OnPushError(err)
			}
		}
	}
}

// Stop tears down the watch and the push loop, then withdraws the
// presence record. No further upsert is attempted once Stop returns.
func (t *Tracker) Stop() {
	t.mu.Lock()
	if t.state != StateSharing {
		t.mu.Unlock()
		return
	}

	stop := t.stop
	done := t.done
	stopWatch := t.stopWatch
	code := t.code
	id := t.identity.ID

	t.stop = nil
	t.done = nil
	t.stopWatch = nil
	t.mu.Unlock()

	close(stop)
	<-done
	stopWatch()

	t.setState(StateStopped)

	// best effort; the record's own TTL backstops a failed remove
	ctx, cancel := context.WithTimeout(context.Background(), removeTimeout)
	defer cancel()

	if err := t.cfg.Service.RemoveUser(ctx, code, id); err != nil {
		logger.Warn("failed to remove presence record", "error", err)
	}
}

func (t *Tracker) sample(ctx context.Context) (location.Position, error) {
	sampleCtx, cancel := context.WithTimeout(ctx, t.cfg.SampleTimeout)
	defer cancel()

	return t.cfg.Locator.Current(sampleCtx)
}

func (t *Tracker) push(ctx context.Context, fix location.Position) error {
	t.mu.Lock()
	code := t.code
	identity := t.identity
	t.mu.Unlock()

	return t.cfg.Service.UpsertUser(ctx, code, identity.ID, client.UserUpdate{
		Lat:         fix.Lat,
		Lng:         fix.Lng,
		DisplayName: identity.DisplayName,
		ProfilePic:  identity.AvatarURL,
		Email:       identity.Email,
	})
}

// resolves the publishing identity: the signed-in user when the
// provider has one, otherwise a pseudo-id held for this run
func (t *Tracker) resolveIdentity() Identity {
	var identity Identity
	if t.cfg.Identity != nil {
		if user, ok := t.cfg.Identity.CurrentUser(); ok {
			identity = user
		}
	}

	if identity.ID == "" {
		identity.ID = uuid.NewString()
	}

	if identity.DisplayName == "" {
		if identity.Email != "" {
			identity.DisplayName = strings.SplitN(identity.Email, "@", 2)[0]
		} else {
			identity.DisplayName = "Anonymous"
		}
	}

	if identity.AvatarURL == "" {
		identity.AvatarURL = "https://ui-avatars.com/api/?name=" + url.QueryEscape(identity.DisplayName)
	}

	return identity
}
