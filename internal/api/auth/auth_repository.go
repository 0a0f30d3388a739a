package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/teachmeskills/todo-api/app/observability/metrics"
	"github.com/teachmeskills/todo-api/internal/api"
	"github.com/teachmeskills/todo-api/internal/types"
)

// Ensure PostgresAuthRepo implements the AuthRepo interface
var _ AuthRepo = (*PostgresAuthRepo)(nil)

// AuthRepo defines the persistence operations the auth service needs.
type AuthRepo interface {
	Register(ctx context.Context, username, email, hashedPassword string) (string, error)
	GetUserByEmail(ctx context.Context, email string) (*types.UserAuth, error)
	GetUserByID(ctx context.Context, userID string) (*types.UserAuth, error)
	UpdatePassword(ctx context.Context, userID, newHashedPassword string) error
	StoreRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error
	ValidateRefreshTokenAndGetUserID(ctx context.Context, refreshToken string) (string, error)
	InvalidateRefreshToken(ctx context.Context, refreshToken string) error
	InvalidateAllUserRefreshTokens(ctx context.Context, userID string) error
}

type PostgresAuthRepo struct {
	logger *slog.Logger
	pgpool api.PGPool
}

func NewPostgresAuthRepo(pgxpool api.PGPool, logger *slog.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{
		logger: logger,
		pgpool: pgxpool,
	}
}

const uniqueViolationCode = "23505"

// Register inserts a new user and returns its generated ID.
func (r *PostgresAuthRepo) Register(ctx context.Context, username, email, hashedPassword string) (string, error) {
	query := `
        INSERT INTO users (username, email, password_hash, role)
        VALUES ($1, $2, $3, 'user')
        RETURNING id
    `
	start := time.Now()
	var userID string
	err := r.pgpool.QueryRow(ctx, query, username, email, hashedPassword).Scan(&userID)
	metrics.Get().DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return "", fmt.Errorf("username or email already taken: %w", api.ErrConflict)
		}
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		r.logger.ErrorContext(ctx, "Failed to register user", slog.Any("error", err))
		return "", fmt.Errorf("failed to register user: %w", err)
	}
	return userID, nil
}

// GetUserByEmail retrieves a user's credential view by email.
func (r *PostgresAuthRepo) GetUserByEmail(ctx context.Context, email string) (*types.UserAuth, error) {
	query := `
        SELECT id, username, email, role, password_hash
        FROM users
        WHERE email = $1
    `
	var user types.UserAuth
	err := r.pgpool.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Username, &user.Email, &user.Role, &user.Password,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, api.ErrNotFound
		}
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		r.logger.ErrorContext(ctx, "Failed to get user by email", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

// GetUserByID retrieves a user's credential view by ID.
func (r *PostgresAuthRepo) GetUserByID(ctx context.Context, userID string) (*types.UserAuth, error) {
	query := `
        SELECT id, username, email, role, password_hash
        FROM users
        WHERE id = $1
    `
	var user types.UserAuth
	err := r.pgpool.QueryRow(ctx, query, userID).Scan(
		&user.ID, &user.Username, &user.Email, &user.Role, &user.Password,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, api.ErrNotFound
		}
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		r.logger.ErrorContext(ctx, "Failed to get user by ID", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}
	return &user, nil
}

// UpdatePassword replaces the stored password hash for a user.
func (r *PostgresAuthRepo) UpdatePassword(ctx context.Context, userID, newHashedPassword string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`
	tag, err := r.pgpool.Exec(ctx, query, userID, newHashedPassword)
	if err != nil {
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		r.logger.ErrorContext(ctx, "Failed to update password", slog.Any("error", err))
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return api.ErrNotFound
	}
	return nil
}

// StoreRefreshToken persists a refresh token with its expiry.
func (r *PostgresAuthRepo) StoreRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	query := `
        INSERT INTO refresh_tokens (user_id, token, expires_at)
        VALUES ($1, $2, $3)
    `
	_, err := r.pgpool.Exec(ctx, query, userID, token, expiresAt)
	if err != nil {
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		r.logger.ErrorContext(ctx, "Failed to store refresh token", slog.Any("error", err))
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

// ValidateRefreshTokenAndGetUserID resolves a live refresh token to its user.
func (r *PostgresAuthRepo) ValidateRefreshTokenAndGetUserID(ctx context.Context, refreshToken string) (string, error) {
	query := `
        SELECT user_id FROM refresh_tokens
        WHERE token = $1 AND revoked_at IS NULL AND expires_at > now()
    `
	var userID string
	err := r.pgpool.QueryRow(ctx, query, refreshToken).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", api.ErrUnauthenticated
		}
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		r.logger.ErrorContext(ctx, "Failed to validate refresh token", slog.Any("error", err))
		return "", fmt.Errorf("failed to validate refresh token: %w", err)
	}
	return userID, nil
}

// InvalidateRefreshToken revokes a single refresh token.
func (r *PostgresAuthRepo) InvalidateRefreshToken(ctx context.Context, refreshToken string) error {
	query := `UPDATE refresh_tokens SET revoked_at = now() WHERE token = $1 AND revoked_at IS NULL`
	_, err := r.pgpool.Exec(ctx, query, refreshToken)
	if err != nil {
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		r.logger.ErrorContext(ctx, "Failed to invalidate refresh token", slog.Any("error", err))
		return fmt.Errorf("failed to invalidate refresh token: %w", err)
	}
	return nil
}

// InvalidateAllUserRefreshTokens revokes every live refresh token of a user.
func (r *PostgresAuthRepo) InvalidateAllUserRefreshTokens(ctx context.Context, userID string) error {
	query := `UPDATE refresh_tokens SET revoked_at = now() WHERE user_id = $1 AND revoked_at IS NULL`
	_, err := r.pgpool.Exec(ctx, query, userID)
	if err != nil {
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		r.logger.ErrorContext(ctx, "Failed to invalidate user refresh tokens", slog.Any("error", err))
		return fmt.Errorf("failed to invalidate user refresh tokens: %w", err)
	}
	return nil
}
