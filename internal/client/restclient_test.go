package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *RESTClient {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewRESTClient(server.URL, "")
}

func TestCreateSession(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/sessions", r.URL.Path)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(Session{ //nolint:errcheck // test response
			Code:      "AB12CD",
			CreatedAt: time.Now().UnixMilli(),
			ExpiresAt: time.Now().Add(24 * time.Hour).UnixMilli(),
		})
	})

	session, err := client.CreateSession(t.Context(), "")
	require.NoError(t, err)
	assert.Equal(t, "AB12CD", session.Code)
	assert.Greater(t, session.ExpiresAt, session.CreatedAt)
}

func TestCreateSessionPinnedCode(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "AB12CD", body["code"])

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(Session{Code: "AB12CD"}) //nolint:errcheck // test response
	})

	session, err := client.CreateSession(t.Context(), "AB12CD")
	require.NoError(t, err)
	assert.Equal(t, "AB12CD", session.Code)
}

func TestCreateSessionCodeTaken(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(errorResponse{ //nolint:errcheck // test response
			Error:   "code_taken",
			Message: "session code is already in use",
		})
	})

	_, err := client.CreateSession(t.Context(), "AB12CD")
	assert.ErrorIs(t, err, ErrCodeTaken)
}

func TestCreateSessionInvalidCode(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(errorResponse{ //nolint:errcheck // test response
			Error:   "invalid_code",
			Message: "session code must be 6 alphanumeric characters",
		})
	})

	_, err := client.CreateSession(t.Context(), "nope")
	assert.ErrorIs(t, err, ErrInvalidCode)
}

func TestGetSessionNotFound(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(errorResponse{Error: "session_not_found"}) //nolint:errcheck // test response
	})

	_, err := client.GetSession(t.Context(), "ZZ99ZZ")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionExists(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/sessions/AB12CD" {
			json.NewEncoder(w).Encode(Session{Code: "AB12CD"}) //nolint:errcheck // test response
			return
		}

		w.WriteHeader(http.StatusNotFound)
	})

	exists, err := client.SessionExists(t.Context(), "AB12CD")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = client.SessionExists(t.Context(), "ZZ99ZZ")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUpsertUser(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v1/sessions/AB12CD/users/user-1", r.URL.Path)

		var update UserUpdate
		require.NoError(t, json.NewDecoder(r.Body).Decode(&update))
		assert.InDelta(t, 51.5, update.Lat, 0.001)
		assert.InDelta(t, -0.12, update.Lng, 0.001)

		json.NewEncoder(w).Encode(User{ID: "user-1", Lat: update.Lat, Lng: update.Lng}) //nolint:errcheck // test response
	})

	err := client.UpsertUser(t.Context(), "AB12CD", "user-1", UserUpdate{
		Lat:         51.5,
		Lng:         -0.12,
		DisplayName: "Alice",
	})
	require.NoError(t, err)
}

func TestSnapshotUsers(t *testing.T) {
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/sessions/AB12CD/users", r.URL.Path)

		json.NewEncoder(w).Encode(usersResponse{Users: []User{ //nolint:errcheck // test response
			{ID: "user-1", Lat: 51.5, Lng: -0.12},
			{ID: "user-2", Lat: 48.8, Lng: 2.35},
		}})
	})

	users, err := client.SnapshotUsers(t.Context(), "AB12CD")
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "user-1", users[0].ID)
	assert.Equal(t, "user-2", users[1].ID)
}

func TestRemoveUser(t *testing.T) {
	var called bool
	client := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v1/sessions/AB12CD/users/user-1", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, client.RemoveUser(t.Context(), "AB12CD", "user-1"))
	assert.True(t, called)
}

func TestAuthorizationHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(Session{Code: "AB12CD"}) //nolint:errcheck // test response
	}))
	defer server.Close()

	client := NewRESTClient(server.URL, "test-token")
	_, err := client.GetSession(t.Context(), "AB12CD")
	require.NoError(t, err)
}
