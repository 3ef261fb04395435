package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/beeline/server/internal/auth"
	"codeberg.org/beeline/server/internal/config"
	"codeberg.org/beeline/server/internal/logger"
)

// @title Beeline API
// @version 1.0
// @description Ephemeral location sharing sessions
// @description
// @description Features:
// @description - Short human-typable session codes
// @description - TTL-bound presence records with live snapshot fan-out
// @description - Anonymous joiners with pseudo-identities
// @description - Optional Google OAuth for named presence

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authenticated requests. Format: Bearer {token}

func main() {
	logger.Info("starting beeline server")

	// load configuration from environment
	cfg, err := config.LoadEnvironmentVariables()
	if err != nil {
		logger.Fatal("failed to load configuration", "error", err)
	}

	// initialize OAuth providers when configured
	if cfg.AuthEnabled() {
		if err := auth.InitializeProviders(); err != nil {
			logger.Fatal("failed to initialize OAuth providers", "error", err)
		}
	} else {
		logger.Info("OAuth not configured, running with anonymous identities only")
	}

	// create server with all dependencies
	srv, err := NewServer(cfg)
	if err != nil {
		logger.Fatal("failed to create server", "error", err)
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      srv.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// start server in goroutine
	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", "error", err)
		}
	}()

	// start websocket hub
	go srv.hub.Run()

	// start presence sweeper with cancellable context
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	go srv.sweeper.Start(sweepCtx)

	// prune expired bot traps on the same lifecycle
	srv.botDefense.StartCacheCleaner(sweepCtx, time.Hour)

	// wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// stop the sweeper
	sweepCancel()

	logger.Info("shutting down server")

	// notify websocket clients and close connections first
	srv.hub.Shutdown()

	// cancel any remaining snapshot subscriptions
	srv.bridge.Close()

	// graceful shutdown with 10 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	// close the storage backend
	if err := srv.backend.Close(); err != nil {
		logger.ErrorErr(err, "failed to close store")
	}

	logger.Info("server stopped")
}
