package websocket

import (
	"context"
	"sync"
	"time"

	"codeberg.org/beeline/server/beeline/presence"
	"codeberg.org/beeline/server/beeline/sessions"
	"codeberg.org/beeline/server/internal/logger"
	ws "codeberg.org/beeline/server/internal/websocket"
)

const initialSnapshotTimeout = 5 * time.Second

// SnapshotBridge feeds live presence snapshots to creator connections.
// One store subscription runs per session and fans out through the
// hub's creator broadcast, which stamps the per-session sequence; the
// subscription is cancelled when the last creator disconnects.
type SnapshotBridge struct {
	store *presence.Store
	hub   *ws.Hub

	mu   sync.Mutex
	subs map[string]*sessionSub
}

type sessionSub struct {
	refs   int
	cancel presence.CancelFunc
}

func NewSnapshotBridge(store *presence.Store, hub *ws.Hub) *SnapshotBridge {
	return &SnapshotBridge{
		store: store,
		hub:   hub,
		subs:  make(map[string]*sessionSub),
	}
}

// hooked into the hub's registered callback; creators start receiving
// snapshots immediately, joiners are ignored
func (b *SnapshotBridge) OnClientRegistered(client *ws.Client) {
	if client.Role != ws.RoleCreator {
		return
	}

	b.mu.Lock()
	if sub, ok := b.subs[client.Code]; ok {
		sub.refs++
		b.mu.Unlock()

		// the session feed is already live; this creator still needs
		// its own initial snapshot
		b.sendInitialSnapshot(client)
		return
	}

	sub := &sessionSub{refs: 1}
	b.subs[client.Code] = sub
	b.mu.Unlock()

	code := client.Code
	cancel := b.store.Subscribe(code, func(records []*sessions.Record) {
		msg, err := ws.NewMessage(ws.TypeSnapshot, code, "", ws.SnapshotPayloadFromRecords(records))
		if err != nil {
			logger.ErrorErr(err, "failed to build snapshot message", "code", code)
			return
		}

		b.hub.BroadcastToCreators(code, msg)
	})

	// the creator may have disconnected while the subscription was
	// being set up; cancel instead of leaking it
	b.mu.Lock()
	sub.cancel = cancel
	stale := sub.refs <= 0
	b.mu.Unlock()

	if stale {
		cancel()
	}
}

// hooked into the hub's disconnect callback
func (b *SnapshotBridge) OnClientDisconnect(client *ws.Client) {
	if client.Role != ws.RoleCreator {
		return
	}

	b.mu.Lock()
	sub, ok := b.subs[client.Code]
	if ok {
		sub.refs--
		if sub.refs > 0 {
			sub = nil
		} else {
			delete(b.subs, client.Code)
		}
	}
	b.mu.Unlock()

	if sub != nil && sub.cancel != nil {
		sub.cancel()
	}
}

// cancels every live subscription, used on shutdown
func (b *SnapshotBridge) Close() {
	b.mu.Lock()
	subs := b.subs
	b.subs = make(map[string]*sessionSub)
	b.mu.Unlock()

	for _, sub := range subs {
		if sub.cancel != nil {
			sub.cancel()
		}
	}
}

func (b *SnapshotBridge) sendInitialSnapshot(client *ws.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), initialSnapshotTimeout)
	defer cancel()

	records, err := b.store.Snapshot(ctx, client.Code)
	if err != nil {
		logger.ErrorErr(err, "failed to load initial snapshot",
			"client_id", client.ID,
			"code", client.Code,
		)
		return
	}

	msg, err := ws.NewMessage(ws.TypeSnapshot, client.Code, "", ws.SnapshotPayloadFromRecords(records))
	if err != nil {
		logger.ErrorErr(err, "failed to build snapshot message", "code", client.Code)
		return
	}

	if err := b.hub.SendSequenced(client, msg); err != nil {
		logger.Debug("snapshot send failed, client likely gone",
			"client_id", client.ID,
			"code", client.Code,
		)
	}
}
