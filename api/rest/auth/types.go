package auth

// User describes the authenticated identity returned to clients
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// AuthResponse is returned after a successful OAuth callback
type AuthResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// UserResponse wraps the current user's profile
type UserResponse struct {
	User User `json:"user"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
