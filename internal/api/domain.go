package api

import "errors"

// Sentinel errors shared across services and repositories. Handlers map
// them onto the HTTP error taxonomy (401/404/409/400, default 500).
var (
	ErrNotFound        = errors.New("resource not found")
	ErrConflict        = errors.New("resource already exists")
	ErrUnauthenticated = errors.New("authentication failed")
	ErrValidation      = errors.New("validation failed")
)

// LoginRequest represents the expected JSON body for user login.
type LoginRequest struct {
	Email    string `json:"email" example:"user@example.com"`
	Password string `json:"password" example:"password123"`
}

// LoginResponse represents the successful JSON response after login.
type LoginResponse struct {
	AccessToken  string `json:"access_token" example:"eyJhbGciOiJI..."`
	RefreshToken string `json:"refresh_token" example:"4f1trt8s..."`
}

// RegisterRequest represents the expected JSON body for user registration.
type RegisterRequest struct {
	Username string `json:"username" example:"testuser"`
	Email    string `json:"email" example:"newuser@example.com"`
	Password string `json:"password" example:"Str0ngP@ss!"`
}

// RefreshTokenRequest represents the expected JSON body for refreshing tokens.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" example:"4f1trt8s..."`
}

// LogoutRequest represents the expected JSON body for logout.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ChangePasswordRequest represents the expected JSON body for changing the
// authenticated user's password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" example:"currentPassword123"`
	NewPassword string `json:"new_password" example:"NewStr0ngP@ss!"`
}

// Response represents a generic API success envelope.
type Response struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message,omitempty" example:"Operation successful"`
}
