package sessions

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"codeberg.org/beeline/server/beeline/presence"
	"codeberg.org/beeline/server/beeline/sessions"
	"codeberg.org/beeline/server/internal/errors"
	"codeberg.org/beeline/server/internal/logger"
)

// called when a session is ended over REST so connected clients can be
// notified and disconnected
type SessionEnder func(code, reason string)

func toSessionResponse(session *sessions.Session) SessionResponse {
	return SessionResponse{
		Code:      session.Code,
		CreatedAt: session.CreatedAt.UnixMilli(),
		ExpiresAt: session.ExpiresAt.UnixMilli(),
	}
}

func toUsersResponse(records []*sessions.Record) UsersResponse {
	users := make([]UserRecord, 0, len(records))

	for _, record := range records {
		users = append(users, UserRecord{
			ID:          record.ID,
			Lat:         record.Lat,
			Lng:         record.Lng,
			ExpiresAt:   record.ExpiresAt.UnixMilli(),
			DisplayName: record.DisplayName,
			ProfilePic:  record.ProfilePic,
			Email:       record.Email,
		})
	}

	return UsersResponse{Users: users}
}

// CreateSessionHandler godoc
// @Summary Create a session
// @Description Create a new session with a fresh code, or with the requested code if it is free
// @Tags sessions
// @Accept json
// @Produce json
// @Param request body CreateSessionRequest false "Optional pinned code"
// @Success 201 {object} SessionResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /api/v1/sessions [post]
func CreateSessionHandler(registry *sessions.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateSessionRequest

		// an empty body means a fresh random code
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				errors.ValidationError(c, err)
				return
			}
		}

		var (
			session *sessions.Session
			err     error
		)

		if req.Code != "" {
			session, err = registry.CreateWithCode(c.Request.Context(), sessions.NormalizeCode(req.Code))
		} else {
			session, err = registry.Create(c.Request.Context())
		}

		switch {
		case err == nil:
		case stderrors.Is(err, sessions.ErrInvalidCode):
			errors.InvalidCode(c)
			return
		case stderrors.Is(err, sessions.ErrCodeTaken):
			errors.CodeTaken(c)
			return
		default:
			errors.InternalError(c, "failed to create session", err)
			return
		}

		logger.Info("session created", "code", session.Code)

		c.JSON(http.StatusCreated, toSessionResponse(session))
	}
}

// GetSessionHandler godoc
// @Summary Get a session
// @Description Look up a live session by its code
// @Tags sessions
// @Produce json
// @Param code path string true "Session code"
// @Success 200 {object} SessionResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/sessions/{code} [get]
func GetSessionHandler(registry *sessions.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := sessions.NormalizeCode(c.Param("code"))

		session, err := registry.Get(c.Request.Context(), code)
		if err != nil {
			errors.SessionNotFound(c)
			return
		}

		c.JSON(http.StatusOK, toSessionResponse(session))
	}
}

// EndSessionHandler godoc
// @Summary End a session
// @Description Destroy a session and all of its presence records
// @Tags sessions
// @Produce json
// @Param code path string true "Session code"
// @Success 200 {object} MessageResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/sessions/{code} [delete]
func EndSessionHandler(store *presence.Store, ender SessionEnder) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := sessions.NormalizeCode(c.Param("code"))

		if err := store.DestroySession(c.Request.Context(), code); err != nil {
			errors.InternalError(c, "failed to end session", err)
			return
		}

		// disconnect any websocket clients still attached
		if ender != nil {
			ender(code, "session ended by creator")
		}

		logger.Info("session ended", "code", code)

		c.JSON(http.StatusOK, MessageResponse{Message: "session ended"})
	}
}

// ListUsersHandler godoc
// @Summary Snapshot a session's users
// @Description List the non-expired presence records of a session
// @Tags sessions
// @Produce json
// @Param code path string true "Session code"
// @Success 200 {object} UsersResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/sessions/{code}/users [get]
func ListUsersHandler(store *presence.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := sessions.NormalizeCode(c.Param("code"))

		records, err := store.Snapshot(c.Request.Context(), code)
		if err != nil {
			if stderrors.Is(err, sessions.ErrSessionNotFound) {
				errors.SessionNotFound(c)
				return
			}

			errors.InternalError(c, "failed to load session users", err)
			return
		}

		c.JSON(http.StatusOK, toUsersResponse(records))
	}
}

// UpsertUserHandler godoc
// @Summary Publish a presence record
// @Description Insert or refresh one user's presence record. The server stamps the expiry.
// @Tags sessions
// @Accept json
// @Produce json
// @Param code path string true "Session code"
// @Param id path string true "User ID"
// @Param request body UpsertUserRequest true "Location"
// @Success 200 {object} UserRecord
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /api/v1/sessions/{code}/users/{id} [put]
func UpsertUserHandler(store *presence.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := sessions.NormalizeCode(c.Param("code"))
		userID := c.Param("id")

		var req UpsertUserRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			errors.ValidationError(c, err)
			return
		}

		record := &sessions.Record{
			ID:          userID,
			Lat:         req.Lat,
			Lng:         req.Lng,
			DisplayName: req.DisplayName,
			ProfilePic:  req.ProfilePic,
			Email:       req.Email,
		}

		if err := store.Upsert(c.Request.Context(), code, record); err != nil {
			if stderrors.Is(err, sessions.ErrSessionNotFound) {
				errors.SessionNotFound(c)
				return
			}

			errors.InternalError(c, "failed to store presence record", err)
			return
		}

		c.JSON(http.StatusOK, UserRecord{
			ID:          userID,
			Lat:         req.Lat,
			Lng:         req.Lng,
			DisplayName: req.DisplayName,
			ProfilePic:  req.ProfilePic,
			Email:       req.Email,
		})
	}
}

// RemoveUserHandler godoc
// @Summary Withdraw a presence record
// @Description Delete one user's presence record. Idempotent.
// @Tags sessions
// @Produce json
// @Param code path string true "Session code"
// @Param id path string true "User ID"
// @Success 200 {object} MessageResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /api/v1/sessions/{code}/users/{id} [delete]
func RemoveUserHandler(store *presence.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := sessions.NormalizeCode(c.Param("code"))
		userID := c.Param("id")

		if err := store.Remove(c.Request.Context(), code, userID); err != nil {
			errors.InternalError(c, "failed to remove presence record", err)
			return
		}

		c.JSON(http.StatusOK, MessageResponse{Message: "presence record removed"})
	}
}
