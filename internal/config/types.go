package config

import "time"

// store backend selectors
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

type Config struct {
	Port         string
	Environment  string
	StoreBackend string
	RedisURL     string
	DatabaseURL  string

	// lifecycle tunables; zero means the server default
	SessionLifetime time.Duration
	PresenceTTL     time.Duration
	SweepInterval   time.Duration

	// identity collaborator (optional: anonymous-only mode when unset)
	JWTSecret          string
	SessionSecret      string
	GoogleClientID     string
	GoogleClientSecret string
	BaseURL            string

	AllowedOrigins []string

	// trap-and-tarpit middleware for scrapers and probers
	BotDefense bool
}

// reports whether the OAuth identity provider is configured
func (c *Config) AuthEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}
