package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/teachmeskills/todo-api/app/mail"
	"github.com/teachmeskills/todo-api/app/observability/metrics"
	"github.com/teachmeskills/todo-api/config"
	"github.com/teachmeskills/todo-api/internal/api"
	"github.com/teachmeskills/todo-api/internal/types"
)

var _ AuthService = (*AuthServiceImpl)(nil)

// AuthService covers account registration, credential verification and
// token lifecycle.
type AuthService interface {
	Register(ctx context.Context, username, email, password string) error
	Login(ctx context.Context, email, password string) (string, string, error) // accessToken, refreshToken, error
	RefreshSession(ctx context.Context, refreshToken string) (string, string, error)
	Logout(ctx context.Context, refreshToken string) error
	UpdatePassword(ctx context.Context, userID, oldPassword, newPassword string) error
}

type AuthServiceImpl struct {
	logger *slog.Logger
	repo   AuthRepo
	cfg    *config.Config
	mailer mail.Sender
}

func NewAuthService(repo AuthRepo, cfg *config.Config, mailer mail.Sender, logger *slog.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{
		logger: logger,
		repo:   repo,
		cfg:    cfg,
		mailer: mailer,
	}
}

// Register creates a new account with a bcrypt-hashed password and sends a
// welcome mail in the background. Mail failure is logged and never fails
// the registration.
func (s *AuthServiceImpl) Register(ctx context.Context, username, email, password string) error {
	l := s.logger.With(slog.String("service", "Register"))

	if username == "" || email == "" {
		return fmt.Errorf("username and email are required: %w", api.ErrValidation)
	}
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters: %w", api.ErrValidation)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	userID, err := s.repo.Register(ctx, username, email, string(hashed))
	if err != nil {
		return err
	}
	metrics.Get().AuthRequestsTotal.Add(ctx, 1)
	l.InfoContext(ctx, "User registered", slog.String("user_id", userID))

	// Detached from the request: SMTP latency must not stall registration,
	// and the send outlives the request context.
	mailCtx := context.WithoutCancel(ctx)
	go func() {
		if err := s.mailer.Send(mailCtx, email, "Welcome to Todo API",
			fmt.Sprintf("Hi %s,\n\nYour account has been created.\n", username)); err != nil {
			l.WarnContext(mailCtx, "Failed to send welcome mail", slog.Any("error", err))
		}
	}()
	return nil
}

// Login verifies credentials and issues an access/refresh token pair.
func (s *AuthServiceImpl) Login(ctx context.Context, email, password string) (string, string, error) {
	l := s.logger.With(slog.String("service", "Login"))
	metrics.Get().AuthRequestsTotal.Add(ctx, 1)

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		metrics.Get().AuthFailuresTotal.Add(ctx, 1)
		if errors.Is(err, api.ErrNotFound) {
			// Same error for unknown email and wrong password
			return "", "", fmt.Errorf("invalid credentials: %w", api.ErrUnauthenticated)
		}
		return "", "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		metrics.Get().AuthFailuresTotal.Add(ctx, 1)
		l.WarnContext(ctx, "Password mismatch", slog.String("user_id", user.ID))
		return "", "", fmt.Errorf("invalid credentials: %w", api.ErrUnauthenticated)
	}

	return s.issueTokens(ctx, user)
}

// RefreshSession rotates a refresh token and issues a new token pair.
// The presented token is invalidated whether or not rotation succeeds.
func (s *AuthServiceImpl) RefreshSession(ctx context.Context, refreshToken string) (string, string, error) {
	userID, err := s.repo.ValidateRefreshTokenAndGetUserID(ctx, refreshToken)
	if err != nil {
		metrics.Get().AuthFailuresTotal.Add(ctx, 1)
		return "", "", err
	}
	if err := s.repo.InvalidateRefreshToken(ctx, refreshToken); err != nil {
		return "", "", err
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return "", "", err
	}
	return s.issueTokens(ctx, user)
}

// Logout invalidates the presented refresh token.
func (s *AuthServiceImpl) Logout(ctx context.Context, refreshToken string) error {
	if err := s.repo.InvalidateRefreshToken(ctx, refreshToken); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	return nil
}

// UpdatePassword verifies the old password before storing the new hash and
// revokes all outstanding refresh tokens.
func (s *AuthServiceImpl) UpdatePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return fmt.Errorf("password must be at least 8 characters: %w", api.ErrValidation)
	}

	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return fmt.Errorf("old password is incorrect: %w", api.ErrUnauthenticated)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, userID, string(hashed)); err != nil {
		return err
	}
	return s.repo.InvalidateAllUserRefreshTokens(ctx, userID)
}

func (s *AuthServiceImpl) issueTokens(ctx context.Context, user *types.UserAuth) (string, string, error) {
	accessToken, err := GenerateAccessToken(user, s.cfg.JWT)
	if err != nil {
		return "", "", err
	}

	refreshToken, err := generateRefreshToken()
	if err != nil {
		return "", "", err
	}
	expiresAt := time.Now().Add(s.cfg.JWT.RefreshTokenTTL)
	if err := s.repo.StoreRefreshToken(ctx, user.ID, refreshToken, expiresAt); err != nil {
		return "", "", err
	}
	return accessToken, refreshToken, nil
}

func generateRefreshToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
