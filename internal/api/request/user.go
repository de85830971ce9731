package request

// SignupRequest represents the request body for creating an account
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest carries login credentials. Username holds the email, matching
// the OAuth2 password-grant form field name.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
