package sessions

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSession(code string) *Session {
	now := time.Now()

	return &Session{
		Code:      code,
		CreatedAt: now,
		ExpiresAt: now.Add(24 * time.Hour),
	}
}

func TestMemoryStoreSessionLifecycle(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateSession(ctx, testSession("AB12CD")))

	got, err := store.GetSession(ctx, "AB12CD")
	require.NoError(t, err)
	assert.Equal(t, "AB12CD", got.Code)

	err = store.CreateSession(ctx, testSession("AB12CD"))
	assert.ErrorIs(t, err, ErrCodeTaken)

	require.NoError(t, store.DeleteSession(ctx, "AB12CD"))

	_, err = store.GetSession(ctx, "AB12CD")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStoreRecordOps(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateSession(ctx, testSession("AB12CD")))

	record := &Record{
		ID:          "u1",
		Lat:         51.5,
		Lng:         -0.1,
		ExpiresAt:   time.Now().Add(15 * time.Minute),
		DisplayName: "Test User",
	}

	require.NoError(t, store.PutRecord(ctx, "AB12CD", record))

	got, err := store.GetRecord(ctx, "AB12CD", "u1")
	require.NoError(t, err)
	assert.Equal(t, 51.5, got.Lat)
	assert.Equal(t, -0.1, got.Lng)

	records, err := store.ListRecords(ctx, "AB12CD")
	require.NoError(t, err)
	assert.Len(t, records, 1)

	// delete twice: idempotent
	require.NoError(t, store.DeleteRecord(ctx, "AB12CD", "u1"))
	require.NoError(t, store.DeleteRecord(ctx, "AB12CD", "u1"))

	records, err = store.ListRecords(ctx, "AB12CD")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestMemoryStorePutRecordUnknownSession(t *testing.T) {
	store := NewMemoryStore()

	err := store.PutRecord(context.Background(), "ZZZZZZ", &Record{ID: "u1"})
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateSession(ctx, testSession("AB12CD")))
	require.NoError(t, store.PutRecord(ctx, "AB12CD", &Record{ID: "u1", Lat: 1}))

	got, err := store.GetRecord(ctx, "AB12CD", "u1")
	require.NoError(t, err)

	// mutating the returned record must not touch the stored one
	got.Lat = 99

	again, err := store.GetRecord(ctx, "AB12CD", "u1")
	require.NoError(t, err)
	assert.Equal(t, 1.0, again.Lat)
}

func TestMemoryStoreListCodes(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateSession(ctx, testSession("AAAAAA")))
	require.NoError(t, store.CreateSession(ctx, testSession("BBBBBB")))

	codes, err := store.ListCodes(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"AAAAAA", "BBBBBB"}, codes)
}

func TestMemoryStoreConcurrentUpserts(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.CreateSession(ctx, testSession("AB12CD")))

	var wg sync.WaitGroup

	for i := range 10 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			record := &Record{
				ID:        string(rune('a' + n)),
				Lat:       float64(n),
				Lng:       float64(-n),
				ExpiresAt: time.Now().Add(15 * time.Minute),
			}
			assert.NoError(t, store.PutRecord(ctx, "AB12CD", record))
		}(i)
	}

	wg.Wait()

	records, err := store.ListRecords(ctx, "AB12CD")
	require.NoError(t, err)
	assert.Len(t, records, 10)
}
