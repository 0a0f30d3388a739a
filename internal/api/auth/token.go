package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/teachmeskills/todo-api/config"
	"github.com/teachmeskills/todo-api/internal/types"
)

// Typed rejection reasons for token validation. Every one of them maps to
// HTTP 401; a rejected token is never retried.
var (
	ErrMalformedToken   = errors.New("malformed token")
	ErrSignatureInvalid = errors.New("invalid token signature")
	ErrIssuerMismatch   = errors.New("invalid token issuer")
	ErrAudienceMismatch = errors.New("invalid token audience")
	ErrTokenExpired     = errors.New("token has expired")
)

// ValidateToken verifies a raw bearer token against the process-wide JWT
// settings and returns its claims. Pure function of token + settings +
// current time; no side effects.
//
// Signature uses HMAC-SHA256 with the UTF-8 bytes of cfg.SecretKey. Issuer
// and audience are exact matches. Expiry is checked with zero leeway: a
// token one second past exp is already rejected.
func ValidateToken(tokenString string, cfg config.JWTConfig) (*types.Claims, error) {
	claims := &types.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(cfg.SecretKey), nil
	})

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrMalformedToken
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrSignatureInvalid):
			return nil, ErrSignatureInvalid
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		default:
			return nil, fmt.Errorf("%w: %s", ErrMalformedToken, err)
		}
	}
	if !token.Valid {
		return nil, ErrSignatureInvalid
	}

	// golang-jwt only checks exp when the claim parses; enforce presence too.
	if claims.ExpiresAt == nil || time.Now().Unix() > claims.ExpiresAt.Unix() {
		return nil, ErrTokenExpired
	}
	if claims.Issuer != cfg.Issuer {
		return nil, ErrIssuerMismatch
	}
	if !verifyAudience(claims.Audience, cfg.Audience) {
		return nil, ErrAudienceMismatch
	}
	return claims, nil
}

func verifyAudience(claimsAudience jwt.ClaimStrings, expectedAudience string) bool {
	if expectedAudience == "" {
		return true
	}
	for _, aud := range claimsAudience {
		if aud == expectedAudience {
			return true
		}
	}
	return false
}

// GenerateAccessToken mints a signed access token for the given user with
// the configured issuer, audience and TTL.
func GenerateAccessToken(user *types.UserAuth, cfg config.JWTConfig) (string, error) {
	now := time.Now()
	claims := &types.Claims{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Audience:  jwt.ClaimStrings{cfg.Audience},
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.AccessTokenTTL)),
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(cfg.SecretKey))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}
