package sessions

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/beeline/server/beeline/presence"
	beesessions "codeberg.org/beeline/server/beeline/sessions"
)

type fixture struct {
	router   *gin.Engine
	registry *beesessions.Registry
	store    *presence.Store

	mu    sync.Mutex
	ended []string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	gin.SetMode(gin.TestMode)

	backend := beesessions.NewMemoryStore()
	registry := beesessions.NewRegistry(backend, 24*time.Hour)
	store := presence.NewStore(registry, backend, 15*time.Minute)

	f := &fixture{
		registry: registry,
		store:    store,
	}

	router := gin.New()
	group := router.Group("/api/v1")

	// rate limiting middleware is exercised separately, routes are
	// registered directly here
	group.POST("/sessions", CreateSessionHandler(registry))
	group.GET("/sessions/:code", GetSessionHandler(registry))
	group.DELETE("/sessions/:code", EndSessionHandler(store, func(code, reason string) {
		f.mu.Lock()
		f.ended = append(f.ended, code)
		f.mu.Unlock()
	}))
	group.GET("/sessions/:code/users", ListUsersHandler(store))
	group.PUT("/sessions/:code/users/:id", UpsertUserHandler(store))
	group.DELETE("/sessions/:code/users/:id", RemoveUserHandler(store))

	f.router = router
	return f
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestCreateSession(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Code, beesessions.CodeLength)
	assert.Greater(t, resp.ExpiresAt, resp.CreatedAt)
}

func TestCreateSessionWithPinnedCode(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/sessions", CreateSessionRequest{Code: "ab12cd"})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "AB12CD", resp.Code)

	// the same code again conflicts
	w = f.do(t, http.MethodPost, "/api/v1/sessions", CreateSessionRequest{Code: "AB12CD"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateSessionInvalidCode(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/sessions", CreateSessionRequest{Code: "nope"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.registry.CreateWithCode(t.Context(), "AB12CD")
	require.NoError(t, err)

	w := f.do(t, http.MethodGet, "/api/v1/sessions/AB12CD", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// lookup is case-insensitive
	w = f.do(t, http.MethodGet, "/api/v1/sessions/ab12cd", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/sessions/XY98ZW", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpsertAndListUsers(t *testing.T) {
	f := newFixture(t)

	_, err := f.registry.CreateWithCode(t.Context(), "AB12CD")
	require.NoError(t, err)

	w := f.do(t, http.MethodPut, "/api/v1/sessions/AB12CD/users/user-1", UpsertUserRequest{
		Lat:         52.37,
		Lng:         4.89,
		DisplayName: "Someone",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodGet, "/api/v1/sessions/AB12CD/users", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp UsersResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Users, 1)
	assert.Equal(t, "user-1", resp.Users[0].ID)
	assert.InDelta(t, 52.37, resp.Users[0].Lat, 1e-9)
	assert.NotZero(t, resp.Users[0].ExpiresAt)
}

func TestUpsertUserUnknownSession(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPut, "/api/v1/sessions/XY98ZW/users/user-1", UpsertUserRequest{
		Lat: 1,
		Lng: 1,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpsertUserRejectsBadCoordinates(t *testing.T) {
	f := newFixture(t)

	_, err := f.registry.CreateWithCode(t.Context(), "AB12CD")
	require.NoError(t, err)

	w := f.do(t, http.MethodPut, "/api/v1/sessions/AB12CD/users/user-1", UpsertUserRequest{
		Lat: 120,
		Lng: 0,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRemoveUserIsIdempotent(t *testing.T) {
	f := newFixture(t)

	_, err := f.registry.CreateWithCode(t.Context(), "AB12CD")
	require.NoError(t, err)

	w := f.do(t, http.MethodPut, "/api/v1/sessions/AB12CD/users/user-1", UpsertUserRequest{Lat: 1, Lng: 1})
	require.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodDelete, "/api/v1/sessions/AB12CD/users/user-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = f.do(t, http.MethodDelete, "/api/v1/sessions/AB12CD/users/user-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestEndSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.registry.CreateWithCode(t.Context(), "AB12CD")
	require.NoError(t, err)

	w := f.do(t, http.MethodDelete, "/api/v1/sessions/AB12CD", nil)
	require.Equal(t, http.StatusOK, w.Code)

	f.mu.Lock()
	assert.Equal(t, []string{"AB12CD"}, f.ended)
	f.mu.Unlock()

	w = f.do(t, http.MethodGet, "/api/v1/sessions/AB12CD", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// the code is free again
	w = f.do(t, http.MethodPost, "/api/v1/sessions", CreateSessionRequest{Code: "AB12CD"})
	assert.Equal(t, http.StatusCreated, w.Code)
}
