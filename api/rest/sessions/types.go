package sessions

// CreateSessionRequest optionally pins the session code, e.g. when a
// creator resumes a session they still hold a code for
type CreateSessionRequest struct {
	Code string `json:"code,omitempty"`
}

// SessionResponse describes one session
type SessionResponse struct {
	Code      string `json:"code"`
	CreatedAt int64  `json:"created_at"` // Unix milliseconds
	ExpiresAt int64  `json:"expires_at"` // Unix milliseconds
}

// UpsertUserRequest publishes or refreshes one user's presence record
type UpsertUserRequest struct {
	Lat         float64 `json:"lat" binding:"gte=-90,lte=90"`
	Lng         float64 `json:"lng" binding:"gte=-180,lte=180"`
	DisplayName string  `json:"display_name,omitempty"`
	ProfilePic  string  `json:"profile_pic,omitempty"`
	Email       string  `json:"email,omitempty"`
}

// UserRecord is one presence record in a snapshot
type UserRecord struct {
	ID          string  `json:"id"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	ExpiresAt   int64   `json:"expires_at"` // Unix milliseconds
	DisplayName string  `json:"display_name,omitempty"`
	ProfilePic  string  `json:"profile_pic,omitempty"`
	Email       string  `json:"email,omitempty"`
}

// UsersResponse is the snapshot of a session's presence records
type UsersResponse struct {
	Users []UserRecord `json:"users"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
