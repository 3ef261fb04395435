package botdefense

import (
	"strings"
	"time"
)

// holds bot defense configuration
type Config struct {
	// whether bot defense is active
	Enabled bool

	// max requests per window before triggering
	RateLimit int

	// time window for rate limiting
	RateLimitWindow time.Duration

	// how long an IP stays trapped
	TrapTTL time.Duration

	// how long to slow-drip responses
	TarpitDuration time.Duration

	// delay between each byte sent during tarpitting
	TarpitChunkDelay time.Duration

	// paths that only bots would access
	HoneypotPaths []string

	// paths that bypass bot defense (health checks, websockets)
	ExemptPaths []string
}

// returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Enabled:          true,
		RateLimit:        200,
		RateLimitWindow:  time.Minute,
		TrapTTL:          24 * time.Hour,
		TarpitDuration:   60 * time.Second,
		TarpitChunkDelay: time.Second,
		HoneypotPaths: []string{
			// wordpress
			"/wp-admin",
			"/wp-login.php",
			"/wp-content",
			"/xmlrpc.php",

			// config/secrets
			"/.env",
			"/.git",
			"/config.php",
			"/config.json",
			"/secrets.json",
			"/.aws/credentials",

			// admin panels
			"/admin",
			"/administrator",
			"/phpmyadmin",
			"/cpanel",

			// backups
			"/backup",
			"/backup.sql",
			"/db.sql",

			// debug/internal
			"/debug",
			"/server-status",
			"/.htaccess",

			// api probing
			"/api/internal",
			"/api/admin",
			"/api/v1/internal",

			// beeline-specific honeypots: endpoints that sound like
			// bulk location dumps but have never existed
			"/api/v1/sessions/all",
			"/api/v1/sessions/export",
			"/api/v1/users/dump",
			"/api/v1/locations",
		},
		ExemptPaths: []string{
			"/health",
			"/healthz",
			"/ready",
			"/api/v1/ws", // websocket connections are persistent, not burst requests
		},
	}
}

// checks if a path is a honeypot (prefix match)
func (c *Config) IsHoneypotPath(path string) bool {
	for _, hp := range c.HoneypotPaths {
		if path == hp || strings.HasPrefix(path, hp+"/") {
			return true
		}
	}

	return false
}

// checks if a path bypasses bot defense
func (c *Config) IsExemptPath(path string) bool {
	for _, ep := range c.ExemptPaths {
		if path == ep || strings.HasPrefix(path, ep+"/") {
			return true
		}
	}
	return false
}
