package websocket

import (
	"github.com/gin-gonic/gin"

	"codeberg.org/beeline/server/beeline/sessions"
	ws "codeberg.org/beeline/server/internal/websocket"
)

func RegisterRoutes(router *gin.RouterGroup, hub *ws.Hub, registry *sessions.Registry) {
	router.GET("/ws", WebSocketHandler(hub, registry))
}
