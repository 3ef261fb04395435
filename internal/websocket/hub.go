package websocket

import (
	"time"

	"codeberg.org/beeline/server/internal/logger"
)

func NewHub() *Hub {
	return &Hub{
		sessions:         make(map[string]map[string]*Client),
		Register:         make(chan *Client),
		Unregister:       make(chan *Client),
		Broadcast:        make(chan *Message, 256),
		handlers:         make(map[string]MessageHandler),
		running:          false,
		shutdown:         make(chan struct{}),
		userConnections:  make(map[string]int),
		ipConnections:    make(map[string]int),
		sessionSequences: make(map[string]uint64),
	}
}

// registers a handler for a specific message type
func (h *Hub) RegisterHandler(messageType string, handler MessageHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[messageType] = handler
}

// sets callback to be called when a client disconnects
func (h *Hub) OnClientDisconnect(callback func(client *Client)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onClientDisconnect = callback
}

// sets callback to be called after a client is registered and session_state is sent
func (h *Hub) OnClientRegistered(callback func(client *Client)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onClientRegistered = callback
}

// starts the hub's main loop
func (h *Hub) Run() {
	h.running = true
	defer func() {
		h.running = false
	}()

	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case message := <-h.Broadcast:
			h.handleMessage(message)

		case <-h.shutdown:
			h.closeAllConnections()
			return
		}
	}
}

// adds a client to the hub and sends it the session state
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()

	if h.sessions[client.Code] == nil {
		h.sessions[client.Code] = make(map[string]*Client)
	}

	h.sessions[client.Code][client.ID] = client

	if client.UserID != "" {
		h.userConnections[client.UserID]++
	}

	callback := h.onClientRegistered

	h.mu.Unlock()

	logger.Info("client registered",
		"client_id", client.ID,
		"code", client.Code,
		"role", client.Role,
		"display_name", client.DisplayName,
		"user_id", client.UserID,
	)

	sessionStateMsg, err := NewMessage(TypeSessionState, client.Code, client.UserID, SessionStatePayload{
		Code:      client.Code,
		YourRole:  client.Role,
		ExpiresAt: client.SessionExpiresAt.UnixMilli(),
	})
	if err == nil {
		if sendErr := client.Send(sessionStateMsg); sendErr != nil {
			logger.ErrorErr(sendErr, "failed to send session state",
				"client_id", client.ID,
				"code", client.Code,
			)
		}
	}

	// call registered callback (e.g., to start the creator's snapshot feed)
	if callback != nil {
		go callback(client)
	}
}

// removes a client from the hub
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()

	// capture callback reference under lock
	callback := h.onClientDisconnect

	sessionClients, exists := h.sessions[client.Code]
	if !exists {
		h.mu.Unlock()
		return
	}

	if _, exists := sessionClients[client.ID]; !exists {
		h.mu.Unlock()
		return
	}

	delete(sessionClients, client.ID)
	client.Close()

	if client.UserID != "" {
		h.userConnections[client.UserID]--

		if h.userConnections[client.UserID] <= 0 {
			delete(h.userConnections, client.UserID)
		}
	}

	if client.IPAddress != "" {
		h.ipConnections[client.IPAddress]--

		if h.ipConnections[client.IPAddress] <= 0 {
			delete(h.ipConnections, client.IPAddress)
		}
	}

	logger.Info("client unregistered",
		"client_id", client.ID,
		"code", client.Code,
	)

	if len(sessionClients) == 0 {
		delete(h.sessions, client.Code)
		delete(h.sessionSequences, client.Code)

		logger.Info("session has no more clients, removed",
			"code", client.Code,
		)
	}

	h.mu.Unlock()

	// call disconnect callback outside lock (may cancel subscriptions
	// or delete presence records)
	if callback != nil {
		callback(client)
	}
}

// processes an incoming message
func (h *Hub) handleMessage(msg *Message) {
	h.mu.RLock()

	sessionClients, exists := h.sessions[msg.Code]
	if !exists {
		h.mu.RUnlock()
		logger.Warn("session not found for message",
			"code", msg.Code,
			"message_type", msg.Type,
		)
		return
	}

	sender, exists := sessionClients[msg.ClientID]
	h.mu.RUnlock()

	if !exists {
		logger.Warn("sender client not found for message",
			"client_id", msg.ClientID,
			"code", msg.Code,
			"message_type", msg.Type,
		)
		return
	}

	h.mu.RLock()
	handler, exists := h.handlers[msg.Type]
	h.mu.RUnlock()

	if exists {
		// run handler asynchronously to avoid blocking the hub
		go func() {
			if err := handler(h, sender, msg); err != nil {
				logger.ErrorErr(err, "handler error",
					"message_type", msg.Type,
					"client_id", sender.ID,
					"code", msg.Code,
				)

				sender.SendError("server_error", "failed to process message", err.Error())
			}
		}()
	} else {
		logger.Warn("unhandled message type received",
			"message_type", msg.Type,
			"client_id", sender.ID,
			"code", msg.Code,
		)

		sender.SendError("bad_request", "unsupported message type", "message type not recognized")
	}
}

// sends a message to all clients in a session
func (h *Hub) BroadcastToSession(code string, msg *Message, excludeClientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.broadcastToSession(code, msg, excludeClientID)
}

// sends a message only to the session's creators
func (h *Hub) BroadcastToCreators(code string, msg *Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sessionClients, exists := h.sessions[code]
	if !exists {
		return
	}

	h.sessionSequences[code]++
	msg.Sequence = h.sessionSequences[code]

	for clientID, client := range sessionClients {
		if client.Role != RoleCreator {
			continue
		}

		if err := client.Send(msg); err != nil {
			logger.ErrorErr(err, "failed to send message to client",
				"client_id", clientID,
				"code", code,
			)
		}
	}
}

// sends a message to a single client with the session's next sequence
// number, so targeted sends stay ordered against broadcasts
func (h *Hub) SendSequenced(client *Client, msg *Message) error {
	h.mu.Lock()
	h.sessionSequences[client.Code]++
	msg.Sequence = h.sessionSequences[client.Code]
	h.mu.Unlock()

	return client.Send(msg)
}

// the internal broadcast function (must be called with lock held)
func (h *Hub) broadcastToSession(code string, msg *Message, excludeClientID string) {
	sessionClients, exists := h.sessions[code]
	if !exists {
		return
	}

	// assign sequence number to message
	h.sessionSequences[code]++
	msg.Sequence = h.sessionSequences[code]

	for clientID, client := range sessionClients {
		if clientID == excludeClientID {
			continue
		}

		if err := client.Send(msg); err != nil {
			logger.ErrorErr(err, "failed to send message to client",
				"client_id", clientID,
				"code", code,
			)
		}
	}
}

// returns all clients in a session
func (h *Hub) GetSessionClients(code string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sessionClients, exists := h.sessions[code]
	if !exists {
		return []*Client{}
	}

	clients := make([]*Client, 0, len(sessionClients))

	for _, client := range sessionClients {
		clients = append(clients, client)
	}

	return clients
}

// returns the number of clients in a session
func (h *Hub) GetClientCount(code string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sessionClients, exists := h.sessions[code]
	if !exists {
		return 0
	}

	return len(sessionClients)
}

func (h *Hub) GetSessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// checks if a session has any active websocket connections
func (h *Hub) IsSessionActive(code string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	sessionClients, exists := h.sessions[code]
	return exists && len(sessionClients) > 0
}

func (h *Hub) Shutdown() {
	if h.running {
		close(h.shutdown)
	}
}

func (h *Hub) closeAllConnections() {
	h.mu.Lock()

	logger.Info("notifying clients of server shutdown")

	// send shutdown notification to all clients first
	for code, sessionClients := range h.sessions {
		shutdownMsg, err := NewMessage(TypeServerShutdown, code, "", ServerShutdownPayload{
			Reason: "server is shutting down for maintenance",
		})
		if err != nil {
			logger.ErrorErr(err, "failed to create shutdown message")
			continue
		}

		for _, client := range sessionClients {
			if err := client.Send(shutdownMsg); err != nil {
				logger.ErrorErr(err, "failed to send shutdown notification",
					"client_id", client.ID,
					"code", code,
				)
			}
		}
	}

	h.mu.Unlock()

	// give clients time to receive the shutdown message
	time.Sleep(500 * time.Millisecond)

	h.mu.Lock()
	defer h.mu.Unlock()

	logger.Info("closing all websocket connections")

	for code, sessionClients := range h.sessions {
		for clientID, client := range sessionClients {
			client.Close()
			logger.Debug("closed client",
				"client_id", clientID,
				"code", code,
			)
		}
	}

	// clear all sessions and connection tracking
	h.sessions = make(map[string]map[string]*Client)
	h.userConnections = make(map[string]int)
	h.ipConnections = make(map[string]int)
	h.sessionSequences = make(map[string]uint64)
}

// checks if a new connection should be allowed based on limits
func (h *Hub) CanAcceptConnection(userID, ipAddress string) (bool, string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	// check per-user limit (only for authenticated users)
	if userID != "" {
		count := h.userConnections[userID]
		if count >= maxConnectionsPerUser {
			return false, "Maximum connections per user exceeded"
		}
	}

	// check per-IP limit
	count := h.ipConnections[ipAddress]
	if count >= maxConnectionsPerIP {
		return false, "Maximum connections per IP address exceeded"
	}

	return true, ""
}

// increments the connection count for an IP address
func (h *Hub) TrackIPConnection(ipAddress string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ipConnections[ipAddress]++
}

// decrements the connection count for an IP address
func (h *Hub) UntrackIPConnection(ipAddress string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ipConnections[ipAddress]--

	if h.ipConnections[ipAddress] <= 0 {
		delete(h.ipConnections, ipAddress)
	}
}

// broadcasts session_ended to all clients and closes their connections
func (h *Hub) EndSession(code string, reason string) {
	h.mu.Lock()

	sessionClients, exists := h.sessions[code]
	if !exists {
		h.mu.Unlock()
		return
	}

	logger.Info("ending session, notifying clients",
		"code", code,
		"client_count", len(sessionClients),
	)

	sessionEndedMsg, err := NewMessage(TypeSessionEnded, code, "", SessionEndedPayload{
		Reason: reason,
	})
	if err != nil {
		logger.ErrorErr(err, "failed to create session_ended message",
			"code", code,
		)
		h.mu.Unlock()
		return
	}

	h.broadcastToSession(code, sessionEndedMsg, "")

	h.mu.Unlock()

	// give clients time to receive the message
	time.Sleep(100 * time.Millisecond)

	h.mu.Lock()
	defer h.mu.Unlock()

	// close all connections for this session
	sessionClients, exists = h.sessions[code]
	if !exists {
		return
	}

	for clientID, client := range sessionClients {
		// update connection tracking
		if client.UserID != "" {
			h.userConnections[client.UserID]--
			if h.userConnections[client.UserID] <= 0 {
				delete(h.userConnections, client.UserID)
			}
		}
		if client.IPAddress != "" {
			h.ipConnections[client.IPAddress]--
			if h.ipConnections[client.IPAddress] <= 0 {
				delete(h.ipConnections, client.IPAddress)
			}
		}

		client.Close()
		logger.Debug("closed client due to session end",
			"client_id", clientID,
			"code", code,
		)
	}

	// remove session from hub
	delete(h.sessions, code)
	delete(h.sessionSequences, code)

	logger.Info("session ended and removed",
		"code", code,
	)
}
