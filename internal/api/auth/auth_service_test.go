package auth

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"github.com/teachmeskills/todo-api/config"
	"github.com/teachmeskills/todo-api/internal/api"
	"github.com/teachmeskills/todo-api/internal/types"
)

// MockAuthRepo is a mock implementation of the AuthRepo interface
type MockAuthRepo struct {
	mock.Mock
}

func (m *MockAuthRepo) Register(ctx context.Context, username, email, hashedPassword string) (string, error) {
	args := m.Called(ctx, username, email, hashedPassword)
	return args.String(0), args.Error(1)
}

func (m *MockAuthRepo) GetUserByEmail(ctx context.Context, email string) (*types.UserAuth, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.UserAuth), args.Error(1)
}

func (m *MockAuthRepo) GetUserByID(ctx context.Context, userID string) (*types.UserAuth, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.UserAuth), args.Error(1)
}

func (m *MockAuthRepo) UpdatePassword(ctx context.Context, userID, newHashedPassword string) error {
	args := m.Called(ctx, userID, newHashedPassword)
	return args.Error(0)
}

func (m *MockAuthRepo) StoreRefreshToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	args := m.Called(ctx, userID, token, expiresAt)
	return args.Error(0)
}

func (m *MockAuthRepo) ValidateRefreshTokenAndGetUserID(ctx context.Context, refreshToken string) (string, error) {
	args := m.Called(ctx, refreshToken)
	return args.String(0), args.Error(1)
}

func (m *MockAuthRepo) InvalidateRefreshToken(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func (m *MockAuthRepo) InvalidateAllUserRefreshTokens(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockMailer records sent messages
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(ctx context.Context, to, subject, body string) error {
	args := m.Called(ctx, to, subject, body)
	return args.Error(0)
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.JWT = testJWTConfig()
	return cfg
}

func TestServiceRegister(t *testing.T) {
	logger := slog.Default()

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		mockMailer := new(MockMailer)
		service := NewAuthService(mockRepo, testConfig(), mockMailer, logger)
		ctx := context.Background()

		mailSent := make(chan struct{})
		mockRepo.On("Register", ctx, "newuser", "new@example.com", mock.AnythingOfType("string")).Return("new-user-id", nil).Once()
		// The welcome mail is sent on a detached context in the background
		mockMailer.On("Send", mock.Anything, "new@example.com", mock.AnythingOfType("string"), mock.AnythingOfType("string")).
			Return(nil).Once().
			Run(func(mock.Arguments) { close(mailSent) })

		err := service.Register(ctx, "newuser", "new@example.com", "password123")

		assert.NoError(t, err)
		select {
		case <-mailSent:
		case <-time.After(time.Second):
			t.Fatal("welcome mail was never sent")
		}
		mockRepo.AssertExpectations(t)
		mockMailer.AssertExpectations(t)
	})

	t.Run("MailFailureDoesNotFailRegistration", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		mockMailer := new(MockMailer)
		service := NewAuthService(mockRepo, testConfig(), mockMailer, logger)
		ctx := context.Background()

		mailSent := make(chan struct{})
		mockRepo.On("Register", ctx, "newuser", "new@example.com", mock.AnythingOfType("string")).Return("new-user-id", nil).Once()
		mockMailer.On("Send", mock.Anything, "new@example.com", mock.AnythingOfType("string"), mock.AnythingOfType("string")).
			Return(errors.New("smtp down")).Once().
			Run(func(mock.Arguments) { close(mailSent) })

		err := service.Register(ctx, "newuser", "new@example.com", "password123")

		assert.NoError(t, err)
		select {
		case <-mailSent:
		case <-time.After(time.Second):
			t.Fatal("welcome mail was never attempted")
		}
		mockRepo.AssertExpectations(t)
	})

	t.Run("EmailExists", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, testConfig(), new(MockMailer), logger)
		ctx := context.Background()

		mockRepo.On("Register", ctx, "existinguser", "existing@example.com", mock.AnythingOfType("string")).Return("", api.ErrConflict).Once()

		err := service.Register(ctx, "existinguser", "existing@example.com", "password123")

		assert.ErrorIs(t, err, api.ErrConflict)
		mockRepo.AssertExpectations(t)
	})

	t.Run("ShortPassword", func(t *testing.T) {
		service := NewAuthService(new(MockAuthRepo), testConfig(), new(MockMailer), logger)

		err := service.Register(context.Background(), "user", "user@example.com", "short")

		assert.ErrorIs(t, err, api.ErrValidation)
	})
}

func TestServiceLogin(t *testing.T) {
	logger := slog.Default()

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, testConfig(), new(MockMailer), logger)
		ctx := context.Background()
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)

		user := &types.UserAuth{
			ID:       "user123",
			Username: "testuser",
			Email:    "test@example.com",
			Role:     "user",
			Password: string(hashedPassword),
		}

		mockRepo.On("GetUserByEmail", ctx, user.Email).Return(user, nil).Once()
		mockRepo.On("StoreRefreshToken", ctx, user.ID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil).Once()

		accessToken, refreshToken, err := service.Login(ctx, user.Email, "password123")

		assert.NoError(t, err)
		assert.NotEmpty(t, accessToken)
		assert.NotEmpty(t, refreshToken)

		// The issued access token must pass our own validator
		claims, verr := ValidateToken(accessToken, testJWTConfig())
		assert.NoError(t, verr)
		assert.Equal(t, user.ID, claims.UserID)
		mockRepo.AssertExpectations(t)
	})

	t.Run("UserNotFound", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, testConfig(), new(MockMailer), logger)
		ctx := context.Background()

		mockRepo.On("GetUserByEmail", ctx, "nobody@example.com").Return(nil, api.ErrNotFound).Once()

		accessToken, refreshToken, err := service.Login(ctx, "nobody@example.com", "password123")

		assert.ErrorIs(t, err, api.ErrUnauthenticated)
		assert.Empty(t, accessToken)
		assert.Empty(t, refreshToken)
		mockRepo.AssertExpectations(t)
	})

	t.Run("InvalidPassword", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, testConfig(), new(MockMailer), logger)
		ctx := context.Background()
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("correctpassword"), bcrypt.DefaultCost)

		user := &types.UserAuth{ID: "user123", Email: "test@example.com", Password: string(hashedPassword)}
		mockRepo.On("GetUserByEmail", ctx, user.Email).Return(user, nil).Once()

		_, _, err := service.Login(ctx, user.Email, "wrongpassword")

		assert.ErrorIs(t, err, api.ErrUnauthenticated)
		mockRepo.AssertExpectations(t)
	})
}

func TestServiceRefreshSession(t *testing.T) {
	logger := slog.Default()

	t.Run("RotatesToken", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, testConfig(), new(MockMailer), logger)
		ctx := context.Background()

		user := &types.UserAuth{ID: "user123", Username: "testuser", Email: "test@example.com", Role: "user"}

		mockRepo.On("ValidateRefreshTokenAndGetUserID", ctx, "old-refresh").Return(user.ID, nil).Once()
		mockRepo.On("InvalidateRefreshToken", ctx, "old-refresh").Return(nil).Once()
		mockRepo.On("GetUserByID", ctx, user.ID).Return(user, nil).Once()
		mockRepo.On("StoreRefreshToken", ctx, user.ID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil).Once()

		accessToken, refreshToken, err := service.RefreshSession(ctx, "old-refresh")

		assert.NoError(t, err)
		assert.NotEmpty(t, accessToken)
		assert.NotEqual(t, "old-refresh", refreshToken)
		mockRepo.AssertExpectations(t)
	})

	t.Run("UnknownToken", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, testConfig(), new(MockMailer), logger)
		ctx := context.Background()

		mockRepo.On("ValidateRefreshTokenAndGetUserID", ctx, "bogus").Return("", api.ErrUnauthenticated).Once()

		_, _, err := service.RefreshSession(ctx, "bogus")

		assert.ErrorIs(t, err, api.ErrUnauthenticated)
		mockRepo.AssertExpectations(t)
	})
}

func TestServiceLogout(t *testing.T) {
	logger := slog.Default()

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, testConfig(), new(MockMailer), logger)
		ctx := context.Background()

		mockRepo.On("InvalidateRefreshToken", ctx, "valid-refresh-token").Return(nil).Once()

		err := service.Logout(ctx, "valid-refresh-token")

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Error", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, testConfig(), new(MockMailer), logger)
		ctx := context.Background()
		expectedError := errors.New("database error")

		mockRepo.On("InvalidateRefreshToken", ctx, "invalid-refresh-token").Return(expectedError).Once()

		err := service.Logout(ctx, "invalid-refresh-token")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), expectedError.Error())
		mockRepo.AssertExpectations(t)
	})
}

func TestServiceUpdatePassword(t *testing.T) {
	logger := slog.Default()

	t.Run("Success", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, testConfig(), new(MockMailer), logger)
		ctx := context.Background()
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("oldpassword"), bcrypt.DefaultCost)

		user := &types.UserAuth{ID: "user123", Password: string(hashedPassword)}
		mockRepo.On("GetUserByID", ctx, user.ID).Return(user, nil).Once()
		mockRepo.On("UpdatePassword", ctx, user.ID, mock.AnythingOfType("string")).Return(nil).Once()
		mockRepo.On("InvalidateAllUserRefreshTokens", ctx, user.ID).Return(nil).Once()

		err := service.UpdatePassword(ctx, user.ID, "oldpassword", "newpassword123")

		assert.NoError(t, err)
		mockRepo.AssertExpectations(t)
	})

	t.Run("WrongOldPassword", func(t *testing.T) {
		mockRepo := new(MockAuthRepo)
		service := NewAuthService(mockRepo, testConfig(), new(MockMailer), logger)
		ctx := context.Background()
		hashedPassword, _ := bcrypt.GenerateFromPassword([]byte("oldpassword"), bcrypt.DefaultCost)

		user := &types.UserAuth{ID: "user123", Password: string(hashedPassword)}
		mockRepo.On("GetUserByID", ctx, user.ID).Return(user, nil).Once()

		err := service.UpdatePassword(ctx, user.ID, "not-the-old-password", "newpassword123")

		assert.ErrorIs(t, err, api.ErrUnauthenticated)
		mockRepo.AssertExpectations(t)
	})
}
