package presence

import (
	"context"
	"time"

	"codeberg.org/beeline/server/internal/logger"
)

// Sweeper periodically removes expired presence records and ends
// sessions whose lifetime has lapsed. Subscribers never depend on it
// for correctness because reads filter expired records themselves; the
// sweeper only reclaims storage and closes out dead sessions.
type Sweeper struct {
	store        *Store
	interval     time.Duration
	onSessionEnd func(code string)
}

// onSessionEnd runs after an expired session has been destroyed, so
// the caller can disconnect its clients. May be nil.
func NewSweeper(store *Store, interval time.Duration, onSessionEnd func(code string)) *Sweeper {
	return &Sweeper{
		store:        store,
		interval:     interval,
		onSessionEnd: onSessionEnd,
	}
}

// runs the sweep loop until ctx is cancelled
func (s *Sweeper) Start(ctx context.Context) {
	logger.Info("presence sweeper started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("presence sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// performs a single pass over every known session
func (s *Sweeper) Sweep(ctx context.Context) {
	codes, err := s.store.Codes(ctx)
	if err != nil {
		logger.ErrorErr(err, "sweep failed to list sessions")
		return
	}

	now := s.store.now()
	swept := 0
	ended := 0

	for _, code := range codes {
		session, err := s.store.RawSession(ctx, code)
		if err != nil {
			continue
		}

		if !session.Live(now) {
			if err := s.store.DestroySession(ctx, code); err != nil {
				logger.ErrorErr(err, "failed to destroy expired session", "code", code)
				continue
			}

			ended++

			if s.onSessionEnd != nil {
				s.onSessionEnd(code)
			}

			continue
		}

		removed, err := s.store.SweepSession(ctx, code)
		if err != nil {
			logger.ErrorErr(err, "failed to sweep session", "code", code)
			continue
		}

		swept += removed
	}

	if swept > 0 || ended > 0 {
		logger.Info("sweep complete", "records_removed", swept, "sessions_ended", ended)
	}
}
