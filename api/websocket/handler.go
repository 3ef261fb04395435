package websocket

import (
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"codeberg.org/beeline/server/beeline/sessions"
	"codeberg.org/beeline/server/internal/auth"
	"codeberg.org/beeline/server/internal/errors"
	"codeberg.org/beeline/server/internal/logger"
	ws "codeberg.org/beeline/server/internal/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     ws.CheckOrigin,
}

// handles websocket connections for live presence sessions
func WebSocketHandler(hub *ws.Hub, registry *sessions.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		var params ConnectParams
		if err := c.ShouldBindQuery(&params); err != nil {
			errors.BadRequest(c, "invalid parameters", err)
			return
		}

		role := params.Role
		if role == "" {
			role = ws.RoleJoiner
		}

		if role != ws.RoleCreator && role != ws.RoleJoiner {
			errors.BadRequest(c, "role must be creator or joiner", nil)
			return
		}

		code := sessions.NormalizeCode(params.Code)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()

		session, err := registry.Get(ctx, code)
		if err != nil {
			errors.SessionNotFound(c)
			return
		}

		// try JWT authentication; anonymous joiners get a pseudo-identity
		var userID, displayName, profilePic, email string

		if params.Token != "" {
			claims, err := auth.ValidateJWT(params.Token)
			if err == nil {
				userID = claims.UserID
				displayName = claims.DisplayName
				profilePic = claims.AvatarURL
				email = claims.Email
			}
		}

		isAuthenticated := userID != ""

		if userID == "" {
			userID = uuid.NewString()
		}

		if params.DisplayName != "" {
			displayName = params.DisplayName
		}

		if displayName == "" {
			displayName = displayNameFallback(email)
		}

		if profilePic == "" {
			profilePic = avatarFallback(displayName)
		}

		// check connection limits before accepting new connection
		ipAddress := c.ClientIP()
		canAccept, reason := hub.CanAcceptConnection(userID, ipAddress)

		if !canAccept {
			errors.TooManyRequests(c, reason)
			return
		}

		clientID, err := ws.GenerateClientID()
		if err != nil {
			errors.InternalError(c, "failed to generate client ID", err)
			return
		}

		// upgrade HTTP connection to websocket
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.ErrorErr(err, "failed to upgrade connection",
				"code", code,
				"ip", ipAddress,
			)

			return
		}

		// track IP connection only after successful upgrade
		hub.TrackIPConnection(ipAddress)

		client := ws.NewClient(clientID, code, userID, displayName, profilePic, role, ipAddress, session.ExpiresAt, isAuthenticated, conn, hub)

		hub.Register <- client

		go client.WritePump()
		go client.ReadPump()

		logger.Info("websocket connection established",
			"client_id", clientID,
			"code", code,
			"role", role,
			"user_id", userID,
			"ip", ipAddress,
		)
	}
}

// derives a display name from the email local part when nothing better
// is available
func displayNameFallback(email string) string {
	if email != "" {
		if at := strings.Index(email, "@"); at > 0 {
			return email[:at]
		}
	}

	return "Anonymous"
}

func avatarFallback(displayName string) string {
	return "https://ui-avatars.com/api/?name=" + url.QueryEscape(displayName)
}
