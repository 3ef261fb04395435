package sessions

import "errors"

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrCodeTaken       = errors.New("share code already in use")
	ErrInvalidCode     = errors.New("invalid share code")
	ErrRecordNotFound  = errors.New("presence record not found")
)
