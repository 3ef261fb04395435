package websocket

import (
	"context"
	"errors"
	"time"

	"codeberg.org/beeline/server/beeline/presence"
	"codeberg.org/beeline/server/beeline/sessions"
	"codeberg.org/beeline/server/internal/logger"
)

// handles location update messages from joiners
func LocationUpdateHandler(store *presence.Store) MessageHandler {
	return func(hub *Hub, client *Client, msg *Message) error {
		// check rate limit
		if !client.checkLocationRateLimit() {
			client.SendError("too_many_requests", "too many location updates. maximum 1 per second.", "")
			return ErrRateLimitExceeded
		}

		// creators observe, they never publish
		if !client.CanPublish() {
			client.SendError("forbidden", "creators cannot publish a location", "")
			return ErrViewerOnly
		}

		// parse payload
		var payload LocationUpdatePayload
		if err := msg.UnmarshalPayload(&payload); err != nil {
			client.SendError("validation_error", "failed to parse location update", err.Error())
			return err
		}

		// validate coordinates
		if payload.Lat < -90 || payload.Lat > 90 || payload.Lng < -180 || payload.Lng > 180 {
			client.SendError("bad_request", "latitude must be in [-90, 90] and longitude in [-180, 180]", "")
			return ErrInvalidCoordinate
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		record := &sessions.Record{
			ID:          client.UserID,
			Lat:         payload.Lat,
			Lng:         payload.Lng,
			DisplayName: client.DisplayName,
			ProfilePic:  client.ProfilePic,
		}

		if err := store.Upsert(ctx, client.Code, record); err != nil {
			if errors.Is(err, sessions.ErrSessionNotFound) {
				client.SendError("session_not_found", "this session no longer exists", "")
				return nil
			}

			logger.ErrorErr(err, "failed to store location update",
				"client_id", client.ID,
				"code", client.Code,
			)
			return err
		}

		return nil
	}
}

// handles stop sharing messages from joiners
func StopSharingHandler(store *presence.Store) MessageHandler {
	return func(hub *Hub, client *Client, msg *Message) error {
		if !client.CanPublish() {
			client.SendError("forbidden", "creators have no presence record to withdraw", "")
			return ErrViewerOnly
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := store.Remove(ctx, client.Code, client.UserID); err != nil {
			logger.ErrorErr(err, "failed to remove presence record",
				"client_id", client.ID,
				"code", client.Code,
			)
			return err
		}

		logger.Info("presence withdrawn",
			"client_id", client.ID,
			"code", client.Code,
			"user_id", client.UserID,
		)

		return nil
	}
}

// handles ping messages from clients (keep-alive)
func PingHandler() MessageHandler {
	return func(_ *Hub, client *Client, _ *Message) error {
		// respond with pong
		pongMsg, err := NewMessage(TypePong, client.Code, client.UserID, nil)
		if err != nil {
			return err
		}
		client.Send(pongMsg) //nolint:errcheck,gosec // best-effort pong
		return nil
	}
}

// converts presence records into the wire snapshot payload
func SnapshotPayloadFromRecords(records []*sessions.Record) SnapshotPayload {
	users := make([]SnapshotUser, 0, len(records))

	for _, record := range records {
		users = append(users, SnapshotUser{
			ID:          record.ID,
			Lat:         record.Lat,
			Lng:         record.Lng,
			ExpiresAt:   record.ExpiresAt.UnixMilli(),
			DisplayName: record.DisplayName,
			ProfilePic:  record.ProfilePic,
			Email:       record.Email,
		})
	}

	return SnapshotPayload{Users: users}
}
