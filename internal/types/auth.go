package types

import "github.com/golang-jwt/jwt/v5"

// Claims is the payload carried by access tokens. A validated token yields
// the per-request authenticated principal; it is never persisted.
type Claims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// UserAuth is the credential view of an account used by the auth flow.
type UserAuth struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	// Password holds the bcrypt hash, never the plaintext.
	Password string `json:"-"`
}
