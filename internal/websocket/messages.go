package websocket

import (
	"encoding/json"
	"os"
	"time"
)

// builds an outbound message with a marshalled payload
func NewMessage(messageType, code, userID string, payload any) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Message{
		Type:      messageType,
		Code:      code,
		UserID:    userID,
		Timestamp: time.Now(),
		Payload:   payloadBytes,
	}, nil
}

// decodes the message payload into dest
func (m *Message) UnmarshalPayload(dest any) error {
	if len(m.Payload) == 0 {
		return ErrInvalidMessage
	}

	return json.Unmarshal(m.Payload, dest)
}

// hides internal error details from clients in production
func sanitizeErrorString(details string) string {
	if os.Getenv("ENVIRONMENT") == "production" {
		return ""
	}

	return details
}
