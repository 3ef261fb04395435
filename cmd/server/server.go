package main

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	apiws "codeberg.org/beeline/server/api/websocket"
	"codeberg.org/beeline/server/beeline/presence"
	"codeberg.org/beeline/server/beeline/sessions"
	"codeberg.org/beeline/server/internal/botdefense"
	"codeberg.org/beeline/server/internal/config"
	"codeberg.org/beeline/server/internal/logger"
	ws "codeberg.org/beeline/server/internal/websocket"
)

const (
	// how often the sweeper reclaims expired records and sessions
	defaultSweepInterval = 60 * time.Second

	// how long a session lives after creation
	defaultSessionLifetime = 24 * time.Hour

	// how long a presence record stays visible without a refresh
	defaultPresenceTTL = 15 * time.Minute
)

func orDefault(value, fallback time.Duration) time.Duration {
	if value > 0 {
		return value
	}
	return fallback
}

// creates and configures a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	ctx := context.Background()

	backend, err := newBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	registry := sessions.NewRegistry(backend, orDefault(cfg.SessionLifetime, defaultSessionLifetime))
	presenceStore := presence.NewStore(registry, backend, orDefault(cfg.PresenceTTL, defaultPresenceTTL))
	hub := ws.NewHub()
	bridge := apiws.NewSnapshotBridge(presenceStore, hub)

	// register websocket message handlers
	hub.RegisterHandler(ws.TypeLocationUpdate, ws.LocationUpdateHandler(presenceStore))
	hub.RegisterHandler(ws.TypeStopSharing, ws.StopSharingHandler(presenceStore))
	hub.RegisterHandler(ws.TypePing, ws.PingHandler())

	// creators get a snapshot feed for the lifetime of their connection
	hub.OnClientRegistered(bridge.OnClientRegistered)
	hub.OnClientDisconnect(bridge.OnClientDisconnect)

	// expired sessions are destroyed by the sweeper; attached clients
	// are told before their connections close
	sweeper := presence.NewSweeper(presenceStore, orDefault(cfg.SweepInterval, defaultSweepInterval), func(code string) {
		hub.EndSession(code, "session expired")
	})

	botDefenseConfig := botdefense.DefaultConfig()
	botDefenseConfig.Enabled = cfg.BotDefense
	botDefense := botdefense.New(botDefenseConfig, botdefense.NewStore(botDefenseConfig))

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	server := &Server{
		config:     cfg,
		backend:    backend,
		registry:   registry,
		presence:   presenceStore,
		sweeper:    sweeper,
		bridge:     bridge,
		hub:        hub,
		botDefense: botDefense,
		router:     router,
	}

	RegisterRoutes(router, server)

	return server, nil
}

// selects the storage backend from configuration
func newBackend(ctx context.Context, cfg *config.Config) (sessions.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		logger.Info("using in-memory session store")
		return sessions.NewMemoryStore(), nil

	case config.BackendRedis:
		logger.Info("using redis session store")

		store, err := sessions.NewRedisStore(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}

		return store, nil

	case config.BackendPostgres:
		logger.Info("using postgres session store")

		store, err := sessions.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}

		return store, nil

	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.StoreBackend)
	}
}
