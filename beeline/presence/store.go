package presence

import (
	"context"
	"errors"
	"sync"
	"time"

	"codeberg.org/beeline/server/beeline/sessions"
	"codeberg.org/beeline/server/internal/logger"
)

// cancels a subscription. After it returns, the subscriber's callback
// is guaranteed not to run again.
type CancelFunc func()

// receives the full filtered snapshot for a session on every change
type SnapshotFunc func(records []*sessions.Record)

// Store is the sole mutation path for presence records and the fan-out
// point for live snapshots. All writes go through the backing
// sessions.Store; subscribers see a view with expired records already
// filtered out, independent of when the sweeper physically deletes
// them.
type Store struct {
	registry *sessions.Registry
	backend  sessions.Store
	ttl      time.Duration
	now      func() time.Time

	// mu serializes mutations so every subscriber observes snapshots
	// in mutation order (a refresh is never followed by a snapshot
	// exposing the older, shorter expiry)
	mu     sync.Mutex
	subs   map[string]map[uint64]*subscription
	nextID uint64
}

type subscription struct {
	mu        sync.Mutex
	cancelled bool
	fn        SnapshotFunc
}

// deliver runs the callback unless the subscription has been
// cancelled. Holding sub.mu for the duration is what makes Cancel's
// no-further-callback guarantee synchronous: Cancel blocks on any
// in-flight delivery before flipping the flag.
func (s *subscription) deliver(records []*sessions.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelled {
		return
	}

	s.fn(records)
}

func NewStore(registry *sessions.Registry, backend sessions.Store, ttl time.Duration) *Store {
	return &Store{
		registry: registry,
		backend:  backend,
		ttl:      ttl,
		now:      time.Now,
		subs:     make(map[string]map[uint64]*subscription),
	}
}

// returns the record TTL applied to every upsert
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// inserts or refreshes one user's presence record. The record's expiry
// is recomputed as now + TTL; an existing later expiry is never
// shortened. Fails with sessions.ErrSessionNotFound when no live
// session is addressed by code.
func (s *Store) Upsert(ctx context.Context, code string, record *sessions.Record) error {
	live, err := s.registry.Exists(ctx, code)
	if err != nil {
		return err
	}

	if !live {
		return sessions.ErrSessionNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	copied := *record
	copied.ExpiresAt = now.Add(s.ttl)

	// refresh only ever moves the expiry forward
	existing, err := s.backend.GetRecord(ctx, code, record.ID)
	if err == nil && existing.ExpiresAt.After(copied.ExpiresAt) {
		copied.ExpiresAt = existing.ExpiresAt
	}

	if err := s.backend.PutRecord(ctx, code, &copied); err != nil {
		return err
	}

	s.notifyLocked(ctx, code)
	return nil
}

// deletes one user's presence record. Idempotent: removing an absent
// record, or a record in an absent session, is not an error.
func (s *Store) Remove(ctx context.Context, code, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.DeleteRecord(ctx, code, id); err != nil {
		if errors.Is(err, sessions.ErrSessionNotFound) {
			return nil
		}
		return err
	}

	s.notifyLocked(ctx, code)
	return nil
}

// returns the current set of non-expired records for a live session
func (s *Store) Snapshot(ctx context.Context, code string) ([]*sessions.Record, error) {
	live, err := s.registry.Exists(ctx, code)
	if err != nil {
		return nil, err
	}

	if !live {
		return nil, sessions.ErrSessionNotFound
	}

	return s.filteredRecords(ctx, code)
}

// registers a live snapshot callback for a session. The callback fires
// once with the current snapshot before Subscribe returns, then again
// after every change to the session's record set. The returned cancel
// is synchronous: once it returns, no further callback runs.
func (s *Store) Subscribe(code string, fn SnapshotFunc) CancelFunc {
	sub := &subscription{fn: fn}

	s.mu.Lock()

	if s.subs[code] == nil {
		s.subs[code] = make(map[uint64]*subscription)
	}

	s.nextID++
	id := s.nextID
	s.subs[code][id] = sub

	// initial delivery, still under the store lock so a concurrent
	// mutation cannot slip an older snapshot in after this one
	records, err := s.filteredRecords(context.Background(), code)
	if err != nil {
		records = nil
	}
	sub.deliver(records)

	s.mu.Unlock()

	return func() {
		sub.mu.Lock()
		sub.cancelled = true
		sub.mu.Unlock()

		s.mu.Lock()
		if subs, ok := s.subs[code]; ok {
			delete(subs, id)
			if len(subs) == 0 {
				delete(s.subs, code)
			}
		}
		s.mu.Unlock()
	}
}

// physically deletes expired records for one session, notifying
// subscribers if anything was removed. Safe to run concurrently with
// upserts: a refreshed record is simply no longer expired.
func (s *Store) SweepSession(ctx context.Context, code string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.backend.ListRecords(ctx, code)
	if err != nil {
		return 0, err
	}

	now := s.now()
	removed := 0

	for _, record := range records {
		if !record.Expired(now) {
			continue
		}

		if err := s.backend.DeleteRecord(ctx, code, record.ID); err != nil {
			logger.ErrorErr(err, "failed to delete expired record",
				"code", code,
				"id", record.ID,
			)
			continue
		}

		removed++
	}

	if removed > 0 {
		s.notifyLocked(ctx, code)
	}

	return removed, nil
}

// destroys a whole session and tells its subscribers the set is empty
func (s *Store) DestroySession(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.registry.Destroy(ctx, code); err != nil {
		return err
	}

	for _, sub := range s.subs[code] {
		sub.deliver(nil)
	}

	return nil
}

// lists the codes of every persisted session; used by the sweeper
func (s *Store) Codes(ctx context.Context) ([]string, error) {
	return s.backend.ListCodes(ctx)
}

// returns the persisted session, bypassing liveness filtering
func (s *Store) RawSession(ctx context.Context, code string) (*sessions.Session, error) {
	return s.backend.GetSession(ctx, code)
}

// must be called with s.mu held
func (s *Store) notifyLocked(ctx context.Context, code string) {
	subs := s.subs[code]
	if len(subs) == 0 {
		return
	}

	records, err := s.filteredRecords(ctx, code)
	if err != nil {
		if errors.Is(err, sessions.ErrSessionNotFound) {
			records = nil
		} else {
			logger.ErrorErr(err, "failed to build snapshot", "code", code)
			return
		}
	}

	for _, sub := range subs {
		sub.deliver(records)
	}
}

func (s *Store) filteredRecords(ctx context.Context, code string) ([]*sessions.Record, error) {
	records, err := s.backend.ListRecords(ctx, code)
	if err != nil {
		return nil, err
	}

	now := s.now()
	filtered := make([]*sessions.Record, 0, len(records))

	for _, record := range records {
		if record.Expired(now) {
			continue
		}
		filtered = append(filtered, record)
	}

	return filtered, nil
}
