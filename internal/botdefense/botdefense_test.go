package botdefense

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDefense(config *Config) (*Defense, *gin.Engine) {
	gin.SetMode(gin.TestMode)

	defense := New(config, NewStore(config))

	router := gin.New()
	router.Use(defense.Middleware())
	router.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "healthy"}) })
	router.GET("/api/v1/sessions/:code", func(c *gin.Context) { c.JSON(200, gin.H{"code": c.Param("code")}) })

	return defense, router
}

func fastConfig() *Config {
	config := DefaultConfig()
	config.TarpitDuration = 10 * time.Millisecond
	config.TarpitChunkDelay = time.Millisecond

	return config
}

// a request that looks like a real browser
func browserRequest(path string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 Chrome/120.0")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en-GB")
	req.Header.Set("Accept-Encoding", "gzip")

	return req
}

func TestBrowserRequestPasses(t *testing.T) {
	_, router := newTestDefense(fastConfig())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, browserRequest("/api/v1/sessions/AB12CD"))

	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), "AB12CD")
}

func TestExemptPathSkipsChecks(t *testing.T) {
	_, router := newTestDefense(fastConfig())

	// curl against /health stays allowed
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("User-Agent", "curl/8.4.0")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestHoneypotTrapsIP(t *testing.T) {
	defense, router := newTestDefense(fastConfig())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, browserRequest("/api/v1/sessions/all"))

	// poisoned or tarpitted, never the real handler
	assert.NotContains(t, w.Body.String(), `"code":"all"`)

	trapped, reason, err := defense.store.IsTrapped(t.Context(), "192.0.2.1")
	require.NoError(t, err)
	assert.True(t, trapped)
	assert.Equal(t, ReasonHoneypot, reason)
}

func TestTrappedIPNeverReachesHandlers(t *testing.T) {
	defense, router := newTestDefense(fastConfig())

	require.NoError(t, defense.store.TrapIP(t.Context(), "192.0.2.1", ReasonBotPattern))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, browserRequest("/api/v1/sessions/AB12CD"))

	assert.NotContains(t, w.Body.String(), `"code":"AB12CD"`)
}

func TestBotUserAgentTrapped(t *testing.T) {
	defense, router := newTestDefense(fastConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/AB12CD", nil)
	req.Header.Set("User-Agent", "python-requests/2.31.0")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	trapped, _, err := defense.store.IsTrapped(t.Context(), "192.0.2.1")
	require.NoError(t, err)
	assert.True(t, trapped)
}

func TestRateLimitTriggers(t *testing.T) {
	config := fastConfig()
	config.RateLimit = 3

	_, router := newTestDefense(config)

	var last *httptest.ResponseRecorder
	for range 4 {
		last = httptest.NewRecorder()
		router.ServeHTTP(last, browserRequest("/api/v1/sessions/AB12CD"))
	}

	assert.Equal(t, 429, last.Code)
	assert.Equal(t, "60", last.Header().Get("Retry-After"))
}

func TestDisabledDefensePassesEverything(t *testing.T) {
	config := fastConfig()
	config.Enabled = false

	_, router := newTestDefense(config)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/AB12CD", nil)
	req.Header.Set("User-Agent", "curl/8.4.0")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
}

func TestDetectBotScoring(t *testing.T) {
	tests := []struct {
		name      string
		userAgent string
		headers   map[string]string
		botLike   bool
	}{
		{
			name:      "full browser",
			userAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 Firefox/121.0",
			headers: map[string]string{
				"Accept":          "text/html",
				"Accept-Language": "en",
				"Accept-Encoding": "gzip",
			},
			botLike: false,
		},
		{
			name:      "empty user agent",
			userAgent: "",
			botLike:   true,
		},
		{
			name:      "scripted client",
			userAgent: "go-http-client/2.0",
			botLike:   true,
		},
		{
			name:      "headless browser",
			userAgent: "Mozilla/5.0 HeadlessChrome/120.0 AppleWebKit/537.36",
			botLike:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.userAgent != "" {
				req.Header.Set("User-Agent", tt.userAgent)
			}
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}

			signals := DetectBot(req)
			if tt.botLike {
				assert.GreaterOrEqual(t, signals.Score, BotScoreThreshold)
			} else {
				assert.Less(t, signals.Score, BotScoreThreshold)
			}
		})
	}
}

func TestSuspiciousPaths(t *testing.T) {
	assert.True(t, IsSuspiciousPath("/index.php"))
	assert.True(t, IsSuspiciousPath("/api/../etc/passwd"))
	assert.False(t, IsSuspiciousPath("/api/v1/sessions/AB12CD"))
}

func TestPoisonedSessionsLookReal(t *testing.T) {
	sessions := generateFakeSessions(10)
	require.Len(t, sessions, 10)

	for _, session := range sessions {
		assert.Len(t, session.Code, 6)

		// codes stay on the restricted alphabet, so fixed test codes
		// containing 0/1/I/O are never generated
		for i := 0; i < len(session.Code); i++ {
			assert.Contains(t, codeAlphabet, string(session.Code[i]))
		}

		assert.Greater(t, session.ExpiresAt, session.CreatedAt)
		assert.NotEmpty(t, session.Users)

		for _, user := range session.Users {
			assert.NotEmpty(t, user.ID)
			assert.GreaterOrEqual(t, user.Lat, -90.0)
			assert.LessOrEqual(t, user.Lat, 90.0)
			assert.GreaterOrEqual(t, user.Lng, -180.0)
			assert.LessOrEqual(t, user.Lng, 180.0)
		}
	}

	// it has to serialize like the real API shape
	_, err := json.Marshal(sessions)
	require.NoError(t, err)
}

func TestStorePrune(t *testing.T) {
	config := fastConfig()
	config.TrapTTL = time.Millisecond

	store := NewStore(config)
	require.NoError(t, store.TrapIP(t.Context(), "192.0.2.7", ReasonHoneypot))

	time.Sleep(5 * time.Millisecond)
	store.prune()

	trapped, _, err := store.IsTrapped(t.Context(), "192.0.2.7")
	require.NoError(t, err)
	assert.False(t, trapped)
}
