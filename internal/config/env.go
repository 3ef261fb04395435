package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// loads configuration from environment variables
func LoadEnvironmentVariables() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		_ = err // not an error - production environments may not have a .env file
	}

	cfg := &Config{
		Port:               os.Getenv("PORT"),
		Environment:        os.Getenv("ENVIRONMENT"),
		StoreBackend:       os.Getenv("STORE_BACKEND"),
		RedisURL:           os.Getenv("REDIS_URL"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		SessionSecret:      os.Getenv("SESSION_SECRET"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		BaseURL:            os.Getenv("BASE_URL"),
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	if cfg.StoreBackend == "" {
		cfg.StoreBackend = BackendMemory
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:" + cfg.Port
	}

	var err error
	if cfg.SessionLifetime, err = parseDuration("SESSION_LIFETIME"); err != nil {
		return nil, err
	}
	if cfg.PresenceTTL, err = parseDuration("PRESENCE_TTL"); err != nil {
		return nil, err
	}
	if cfg.SweepInterval, err = parseDuration("SWEEP_INTERVAL"); err != nil {
		return nil, err
	}

	// bot defense defaults on in production and can be forced either way
	switch os.Getenv("BOT_DEFENSE") {
	case "true", "1":
		cfg.BotDefense = true
	case "false", "0":
		cfg.BotDefense = false
	default:
		cfg.BotDefense = cfg.Environment == "production"
	}

	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, strings.TrimSpace(origin))
		}
	}

	switch cfg.StoreBackend {
	case BackendMemory:
		// no external dependencies
	case BackendRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("REDIS_URL environment variable is required for the redis backend")
		}
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL environment variable is required for the postgres backend")
		}
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q (expected memory, redis, or postgres)", cfg.StoreBackend)
	}

	if cfg.AuthEnabled() {
		if cfg.JWTSecret == "" {
			return nil, fmt.Errorf("JWT_SECRET environment variable is required when OAuth is configured")
		}

		if cfg.SessionSecret == "" {
			return nil, fmt.Errorf("SESSION_SECRET environment variable is required when OAuth is configured")
		}
	}

	return cfg, nil
}

// reads an optional duration variable; empty means "use the default"
func parseDuration(key string) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, nil
	}

	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration like 24h or 15m: %w", key, err)
	}

	return value, nil
}
