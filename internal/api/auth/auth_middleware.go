package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/teachmeskills/todo-api/config"
	"github.com/teachmeskills/todo-api/internal/api"
)

// Define typed context keys
type contextKey string

const UserIDKey contextKey = "userID"
const UserRoleKey contextKey = "userRole"

// Authenticate is middleware to validate JWT access tokens. On success the
// authenticated principal (user id, role) is attached to the request
// context; any rejection short-circuits with 401.
func Authenticate(logger *slog.Logger, jwtCfg config.JWTConfig) func(next http.Handler) http.Handler {
	if jwtCfg.SecretKey == "" {
		logger.Error("FATAL: JWT Secret Key is not configured!")
		panic("JWT Secret Key cannot be empty")
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := logger.With(slog.String("middleware", "Authenticate"))

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				l.WarnContext(ctx, "Missing Authorization header")
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Authorization header required")
				return
			}

			headerParts := strings.Split(authHeader, " ")
			if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
				l.WarnContext(ctx, "Invalid Authorization header format")
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
				return
			}

			claims, err := ValidateToken(headerParts[1], jwtCfg)
			if err != nil {
				l.WarnContext(ctx, "Token validation failed", slog.Any("error", err))
				api.ErrorResponse(w, r, http.StatusUnauthorized, rejectionMessage(err))
				return
			}

			ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, UserRoleKey, claims.Role)
			l.DebugContext(ctx, "Authentication successful, claims added to context", slog.String("userID", claims.UserID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func rejectionMessage(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "Token has expired"
	case errors.Is(err, ErrSignatureInvalid):
		return "Invalid token signature"
	case errors.Is(err, ErrIssuerMismatch):
		return "Invalid token issuer"
	case errors.Is(err, ErrAudienceMismatch):
		return "Invalid token audience"
	case errors.Is(err, ErrMalformedToken):
		return "Malformed token"
	default:
		return "Invalid or expired token"
	}
}

// Helper functions to get claims from context
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

func GetUserRoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(UserRoleKey).(string)
	return role, ok
}

// RequireRole enforces a per-route role policy. Runs AFTER Authenticate;
// a principal without the required role gets 403.
func RequireRole(logger *slog.Logger, requiredRole string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			role, ok := GetUserRoleFromContext(ctx)
			if !ok {
				logger.ErrorContext(ctx, "Role claim missing from context")
				api.ErrorResponse(w, r, http.StatusForbidden, "Access denied")
				return
			}
			if role != requiredRole {
				logger.WarnContext(ctx, "Role check failed",
					slog.String("required_role", requiredRole),
					slog.String("actual_role", role))
				api.ErrorResponse(w, r, http.StatusForbidden, "Access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
