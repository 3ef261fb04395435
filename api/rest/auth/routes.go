package auth

import (
	"github.com/gin-gonic/gin"

	"codeberg.org/beeline/server/internal/auth"
)

// registers all authentication routes
func RegisterRoutes(router *gin.RouterGroup) {
	authGroup := router.Group("/auth")
	{
		authGroup.GET("/:provider", BeginAuthHandler())
		authGroup.GET("/:provider/callback", CallbackHandler())
		authGroup.POST("/logout", LogoutHandler())
		authGroup.GET("/me", auth.AuthMiddleware(), GetCurrentUserHandler())
	}
}
