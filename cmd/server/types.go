package main

import (
	"github.com/gin-gonic/gin"

	"codeberg.org/beeline/server/beeline/presence"
	"codeberg.org/beeline/server/beeline/sessions"
	"codeberg.org/beeline/server/internal/botdefense"
	"codeberg.org/beeline/server/internal/config"
	ws "codeberg.org/beeline/server/internal/websocket"

	apiws "codeberg.org/beeline/server/api/websocket"
)

// holds all dependencies and state for the API server
type Server struct {
	config   *config.Config
	backend  sessions.Store
	registry *sessions.Registry
	presence *presence.Store
	sweeper  *presence.Sweeper
	bridge   *apiws.SnapshotBridge
	hub      *ws.Hub

	botDefense *botdefense.Defense
	router     *gin.Engine
}
