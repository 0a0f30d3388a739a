package router

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teachmeskills/todo-api/config"
	_ "github.com/teachmeskills/todo-api/docs"
	"github.com/teachmeskills/todo-api/internal/api"
	"github.com/teachmeskills/todo-api/internal/api/auth"
	"github.com/teachmeskills/todo-api/internal/api/todo"
	"github.com/teachmeskills/todo-api/internal/types"
)

// stubAuthService satisfies auth.AuthService without touching a database.
type stubAuthService struct{}

func (stubAuthService) Register(ctx context.Context, username, email, password string) error {
	return nil
}

func (stubAuthService) Login(ctx context.Context, email, password string) (string, string, error) {
	return "access", "refresh", nil
}

func (stubAuthService) RefreshSession(ctx context.Context, refreshToken string) (string, string, error) {
	return "access", "refresh", nil
}

func (stubAuthService) Logout(ctx context.Context, refreshToken string) error {
	return nil
}

func (stubAuthService) UpdatePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	return nil
}

// stubTodoService satisfies todo.Service; List panics so the pipeline's
// error translation can be exercised end to end.
type stubTodoService struct {
	panicOnList bool
}

func (s stubTodoService) Create(ctx context.Context, userID uuid.UUID, req types.CreateTodoRequest) (*types.Todo, error) {
	return &types.Todo{ID: uuid.New(), UserID: userID, Title: req.Title}, nil
}

func (s stubTodoService) Get(ctx context.Context, userID, todoID uuid.UUID) (*types.Todo, error) {
	return nil, api.ErrNotFound
}

func (s stubTodoService) List(ctx context.Context, userID uuid.UUID, done *bool) ([]*types.Todo, error) {
	if s.panicOnList {
		panic("list blew up")
	}
	return nil, nil
}

func (s stubTodoService) Update(ctx context.Context, userID, todoID uuid.UUID, req types.UpdateTodoRequest) (*types.Todo, error) {
	return nil, api.ErrNotFound
}

func (s stubTodoService) Complete(ctx context.Context, userID, todoID uuid.UUID) (*types.Todo, error) {
	return nil, api.ErrNotFound
}

func (s stubTodoService) Delete(ctx context.Context, userID, todoID uuid.UUID) error {
	return api.ErrNotFound
}

func testAppConfig() *config.Config {
	return &config.Config{
		Mode: "test",
		JWT: config.JWTConfig{
			Issuer:          "todo-api",
			Audience:        "todo-api-clients",
			SecretKey:       "router-test-secret",
			AccessTokenTTL:  15 * time.Minute,
			RefreshTokenTTL: 7 * 24 * time.Hour,
		},
	}
}

func newTestRouter(t *testing.T, todoSvc todo.Service) (http.Handler, *config.Config) {
	t.Helper()
	logger := slog.Default()
	appCfg := testAppConfig()
	return SetupRouter(&Config{
		Logger:      logger,
		AppConfig:   appCfg,
		AuthHandler: auth.NewHandler(stubAuthService{}, logger),
		TodoHandler: todo.NewHandler(todoSvc, logger),
	}), appCfg
}

func bearerFor(t *testing.T, cfg *config.Config, role string) string {
	t.Helper()
	token, err := auth.GenerateAccessToken(&types.UserAuth{
		ID:       uuid.NewString(),
		Username: "pipeline",
		Email:    "pipeline@example.com",
		Role:     role,
	}, cfg.JWT)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestPipelinePublicEndpoints(t *testing.T) {
	r, _ := newTestRouter(t, stubTodoService{})

	t.Run("Ping", func(t *testing.T) {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "pong", rr.Body.String())
	})

	t.Run("SwaggerJSONNoAuth", func(t *testing.T) {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/swagger/v1/swagger.json", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		var doc map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &doc))
		assert.Contains(t, doc, "paths")
	})

	t.Run("LoginNoAuth", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login",
			jsonBody(t, api.LoginRequest{Email: "a@b.c", Password: "password123"}))
		req.Header.Set("Content-Type", "application/json")
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestPipelineAuthentication(t *testing.T) {
	r, cfg := newTestRouter(t, stubTodoService{})

	t.Run("MissingToken", func(t *testing.T) {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/todos", nil))

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		var body api.ErrorBody
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, http.StatusUnauthorized, body.StatusCode)
	})

	t.Run("WrongIssuer", func(t *testing.T) {
		foreign := *cfg
		foreign.JWT.Issuer = "app"
		req := httptest.NewRequest(http.MethodGet, "/api/v1/todos", nil)
		req.Header.Set("Authorization", bearerFor(t, &foreign, "user"))
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})

	t.Run("ValidToken", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/todos", nil)
		req.Header.Set("Authorization", bearerFor(t, cfg, "user"))
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, "[]", rr.Body.String())
	})
}

func TestPipelineAuthorization(t *testing.T) {
	r, cfg := newTestRouter(t, stubTodoService{})
	target := "/api/v1/admin/todos?user_id=" + uuid.NewString()

	t.Run("UserForbidden", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.Header.Set("Authorization", bearerFor(t, cfg, "user"))
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("AdminAllowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.Header.Set("Authorization", bearerFor(t, cfg, "admin"))
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestPipelineErrorTranslation(t *testing.T) {
	r, cfg := newTestRouter(t, stubTodoService{panicOnList: true})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/todos", nil)
	req.Header.Set("Authorization", bearerFor(t, cfg, "user"))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var body api.ErrorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, http.StatusInternalServerError, body.StatusCode)
	assert.Equal(t, "Internal server error", body.Message)
	assert.NotContains(t, rr.Body.String(), "list blew up")
}

func TestPipelineRequestLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	r := SetupRouter(&Config{
		Logger:      logger,
		AppConfig:   testAppConfig(),
		AuthHandler: auth.NewHandler(stubAuthService{}, logger),
		TodoHandler: todo.NewHandler(stubTodoService{}, logger),
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/ping", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Request completed", entry["msg"])
	// RequestID runs ahead of the request logger in the pipeline
	assert.NotEmpty(t, entry["req_id"])
}

func TestPipelineCORS(t *testing.T) {
	r, _ := newTestRouter(t, stubTodoService{})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))
}

func TestPipelineRedirectHTTPS(t *testing.T) {
	logger := slog.Default()
	appCfg := testAppConfig()
	appCfg.Server.RedirectHTTPS = true
	r := SetupRouter(&Config{
		Logger:      logger,
		AppConfig:   appCfg,
		AuthHandler: auth.NewHandler(stubAuthService{}, logger),
		TodoHandler: todo.NewHandler(stubTodoService{}, logger),
	})

	req := httptest.NewRequest(http.MethodGet, "http://example.com/ping", nil)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusPermanentRedirect, rr.Code)
	assert.Equal(t, "https://example.com/ping", rr.Header().Get("Location"))
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}
