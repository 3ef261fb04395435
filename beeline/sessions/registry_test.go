package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCodeFormat(t *testing.T) {
	seen := make(map[string]bool)

	for range 100 {
		code, err := NewCode()
		require.NoError(t, err)
		assert.True(t, ValidCode(code), "generated code %q should be valid", code)
		seen[code] = true
	}

	// 100 draws from a 36^6 space should not collide
	assert.Greater(t, len(seen), 95)
}

func TestValidCode(t *testing.T) {
	tests := []struct {
		name  string
		code  string
		valid bool
	}{
		{name: "uppercase alphanumeric", code: "AB12CD", valid: true},
		{name: "all digits", code: "123456", valid: true},
		{name: "lowercase rejected", code: "ab12cd", valid: false},
		{name: "too short", code: "AB12C", valid: false},
		{name: "too long", code: "AB12CDE", valid: false},
		{name: "punctuation rejected", code: "AB-2CD", valid: false},
		{name: "empty", code: "", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidCode(tt.code))
		})
	}
}

func TestNormalizeCode(t *testing.T) {
	assert.Equal(t, "AB12CD", NormalizeCode("  ab12cd "))
}

func TestRegistryCreateAndExists(t *testing.T) {
	registry := NewRegistry(NewMemoryStore(), 24*time.Hour)
	ctx := context.Background()

	session, err := registry.Create(ctx)
	require.NoError(t, err)
	require.NotNil(t, session)
	assert.True(t, ValidCode(session.Code))
	assert.Equal(t, session.CreatedAt.Add(24*time.Hour), session.ExpiresAt)

	exists, err := registry.Exists(ctx, session.Code)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRegistryExistsUnknownCode(t *testing.T) {
	registry := NewRegistry(NewMemoryStore(), 24*time.Hour)

	exists, err := registry.Exists(context.Background(), "ZZZZZZ")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRegistryCreateWithCodeCollision(t *testing.T) {
	registry := NewRegistry(NewMemoryStore(), 24*time.Hour)
	ctx := context.Background()

	_, err := registry.CreateWithCode(ctx, "AB12CD")
	require.NoError(t, err)

	_, err = registry.CreateWithCode(ctx, "AB12CD")
	assert.ErrorIs(t, err, ErrCodeTaken)
}

func TestRegistryCreateWithInvalidCode(t *testing.T) {
	registry := NewRegistry(NewMemoryStore(), 24*time.Hour)

	_, err := registry.CreateWithCode(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestRegistryExpiredSessionNotLive(t *testing.T) {
	registry := NewRegistry(NewMemoryStore(), 24*time.Hour)
	ctx := context.Background()

	session, err := registry.CreateWithCode(ctx, "AB12CD")
	require.NoError(t, err)

	// advance the registry clock past the session lifetime
	registry.now = func() time.Time {
		return session.ExpiresAt.Add(time.Minute)
	}

	exists, err := registry.Exists(ctx, "AB12CD")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRegistryCodeReusableAfterExpiry(t *testing.T) {
	registry := NewRegistry(NewMemoryStore(), 24*time.Hour)
	ctx := context.Background()

	first, err := registry.CreateWithCode(ctx, "AB12CD")
	require.NoError(t, err)

	registry.now = func() time.Time {
		return first.ExpiresAt.Add(time.Minute)
	}

	// the expired session still occupies the code in the store, but
	// creation reclaims it
	second, err := registry.CreateWithCode(ctx, "AB12CD")
	require.NoError(t, err)
	assert.True(t, second.ExpiresAt.After(first.ExpiresAt))
}

func TestRegistryDestroyIdempotent(t *testing.T) {
	registry := NewRegistry(NewMemoryStore(), 24*time.Hour)
	ctx := context.Background()

	session, err := registry.Create(ctx)
	require.NoError(t, err)

	require.NoError(t, registry.Destroy(ctx, session.Code))

	exists, err := registry.Exists(ctx, session.Code)
	require.NoError(t, err)
	assert.False(t, exists)

	// second destroy is not an error
	require.NoError(t, registry.Destroy(ctx, session.Code))
}

func TestRegistryDestroyRemovesRecords(t *testing.T) {
	store := NewMemoryStore()
	registry := NewRegistry(store, 24*time.Hour)
	ctx := context.Background()

	session, err := registry.CreateWithCode(ctx, "AB12CD")
	require.NoError(t, err)

	record := &Record{
		ID:        "u1",
		Lat:       51.5,
		Lng:       -0.1,
		ExpiresAt: time.Now().Add(15 * time.Minute),
	}
	require.NoError(t, store.PutRecord(ctx, session.Code, record))

	require.NoError(t, registry.Destroy(ctx, session.Code))

	_, err = store.ListRecords(ctx, session.Code)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
