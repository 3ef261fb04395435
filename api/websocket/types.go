package websocket

type ConnectParams struct {
	Code        string `form:"code" binding:"required"`
	Role        string `form:"role"`                           // "creator" or "joiner", defaults to joiner
	Token       string `form:"token"`                          // jwt token for authenticated users
	DisplayName string `form:"display_name" binding:"max=100"` // optional display name for anonymous joiners
}
