package main

import (
	"github.com/gin-gonic/gin"

	"codeberg.org/beeline/server/api/rest/auth"
	"codeberg.org/beeline/server/api/rest/health"
	"codeberg.org/beeline/server/api/rest/sessions"
	"codeberg.org/beeline/server/api/websocket"
)

// sets up all API routes and middleware
func RegisterRoutes(router *gin.Engine, server *Server) {
	router.Use(server.botDefense.Middleware())
	router.Use(CORSMiddleware(server.config))
	router.GET("/health", health.Handler)

	v1 := router.Group("/api/v1")

	{
		v1.GET("/ping", health.PingHandler)

		if server.config.AuthEnabled() {
			auth.RegisterRoutes(v1)
		}

		sessions.RegisterRoutes(v1, server.registry, server.presence, func(code, reason string) {
			server.hub.EndSession(code, reason)
		})

		websocket.RegisterRoutes(v1, server.hub, server.registry)
	}
}
