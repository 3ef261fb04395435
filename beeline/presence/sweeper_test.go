package presence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/beeline/server/beeline/sessions"
)

func TestSweepRemovesExpiredRecords(t *testing.T) {
	store, registry := newTestStore(t)
	ctx := context.Background()
	code := createSession(t, registry)

	require.NoError(t, store.Upsert(ctx, code, &sessions.Record{ID: "stale"}))
	require.NoError(t, store.Upsert(ctx, code, &sessions.Record{ID: "fresh"}))

	base := time.Now()
	store.now = func() time.Time { return base.Add(testTTL + time.Minute) }
	require.NoError(t, store.Upsert(ctx, code, &sessions.Record{ID: "fresh"}))

	sweeper := NewSweeper(store, time.Minute, nil)
	sweeper.Sweep(ctx)

	records, err := store.Snapshot(ctx, code)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "fresh", records[0].ID)
}

func TestSweepEndsExpiredSessions(t *testing.T) {
	backend := sessions.NewMemoryStore()
	registry := sessions.NewRegistry(backend, time.Hour)
	store := NewStore(registry, backend, testTTL)
	ctx := context.Background()

	session, err := registry.Create(ctx)
	require.NoError(t, err)

	var mu sync.Mutex
	var ended []string

	sweeper := NewSweeper(store, time.Minute, func(code string) {
		mu.Lock()
		ended = append(ended, code)
		mu.Unlock()
	})

	// session still live, nothing ends
	sweeper.Sweep(ctx)
	mu.Lock()
	assert.Empty(t, ended)
	mu.Unlock()

	base := time.Now()
	store.now = func() time.Time { return base.Add(2 * time.Hour) }

	sweeper.Sweep(ctx)

	mu.Lock()
	assert.Equal(t, []string{session.Code}, ended)
	mu.Unlock()

	_, err = registry.Get(ctx, session.Code)
	assert.ErrorIs(t, err, sessions.ErrSessionNotFound)
}

func TestSweepDoesNotAffectSnapshotCorrectness(t *testing.T) {
	store, registry := newTestStore(t)
	ctx := context.Background()
	code := createSession(t, registry)

	require.NoError(t, store.Upsert(ctx, code, &sessions.Record{ID: "stale"}))

	base := time.Now()
	store.now = func() time.Time { return base.Add(testTTL + time.Minute) }

	// the expired record is invisible before the sweeper ever runs
	before, err := store.Snapshot(ctx, code)
	require.NoError(t, err)
	assert.Empty(t, before)

	sweeper := NewSweeper(store, time.Minute, nil)
	sweeper.Sweep(ctx)

	after, err := store.Snapshot(ctx, code)
	require.NoError(t, err)
	assert.Empty(t, after)
}

func TestSweeperStartStopsOnCancel(t *testing.T) {
	store, _ := newTestStore(t)
	sweeper := NewSweeper(store, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		sweeper.Start(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after context cancellation")
	}
}
