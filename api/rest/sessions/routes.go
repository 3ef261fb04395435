package sessions

import (
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"codeberg.org/beeline/server/beeline/presence"
	"codeberg.org/beeline/server/beeline/sessions"
	"codeberg.org/beeline/server/internal/logger"
)

// session creation is rate limited per IP to keep the code space from
// being farmed
const createRateFormat = "10-M"

func createRateLimiter() gin.HandlerFunc {
	rate, err := limiter.NewRateFromFormatted(createRateFormat)
	if err != nil {
		logger.Fatal("invalid session create rate format", "format", createRateFormat)
	}

	return mgin.NewMiddleware(limiter.New(memory.NewStore(), rate))
}

// registers all session and presence routes
func RegisterRoutes(router *gin.RouterGroup, registry *sessions.Registry, store *presence.Store, ender SessionEnder) {
	sessionsGroup := router.Group("/sessions")
	{
		sessionsGroup.POST("", createRateLimiter(), CreateSessionHandler(registry))
		sessionsGroup.GET("/:code", GetSessionHandler(registry))
		sessionsGroup.DELETE("/:code", EndSessionHandler(store, ender))

		sessionsGroup.GET("/:code/users", ListUsersHandler(store))
		sessionsGroup.PUT("/:code/users/:id", UpsertUserHandler(store))
		sessionsGroup.DELETE("/:code/users/:id", RemoveUserHandler(store))
	}
}
