package auth

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/teachmeskills/todo-api/internal/api"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	Register(w http.ResponseWriter, r *http.Request)
	Login(w http.ResponseWriter, r *http.Request)
	RefreshSession(w http.ResponseWriter, r *http.Request)
	Logout(w http.ResponseWriter, r *http.Request)
	UpdatePassword(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	logger  *slog.Logger
	service AuthService
}

func NewHandler(service AuthService, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		logger:  logger,
		service: service,
	}
}

// Register godoc
// @Summary      Register a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body body api.RegisterRequest true "Registration payload"
// @Success      201 {object} api.Response
// @Failure      400 {object} api.ErrorBody
// @Failure      409 {object} api.ErrorBody
// @Router       /auth/register [post]
func (h *HandlerImpl) Register(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "Register")
	defer span.End()
	l := h.logger.With(slog.String("handler", "Register"))

	var req api.RegisterRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.Register(ctx, req.Username, req.Email, req.Password); err != nil {
		l.ErrorContext(ctx, "Service failed to register user", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Registration failed")
		api.ErrorResponseFromErr(w, r, err)
		return
	}

	l.InfoContext(ctx, "User registered", slog.String("email", req.Email))
	api.WriteJSONResponse(w, r, http.StatusCreated, api.Response{Success: true, Message: "Account created"})
}

// Login godoc
// @Summary      Log in with email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body body api.LoginRequest true "Login payload"
// @Success      200 {object} api.LoginResponse
// @Failure      401 {object} api.ErrorBody
// @Router       /auth/login [post]
func (h *HandlerImpl) Login(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "Login")
	defer span.End()
	l := h.logger.With(slog.String("handler", "Login"))

	var req api.LoginRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	accessToken, refreshToken, err := h.service.Login(ctx, req.Email, req.Password)
	if err != nil {
		l.WarnContext(ctx, "Login failed", slog.Any("error", err))
		span.SetStatus(codes.Error, "Login failed")
		api.ErrorResponseFromErr(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, api.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

// RefreshSession godoc
// @Summary      Rotate a refresh token for a new token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body body api.RefreshTokenRequest true "Refresh payload"
// @Success      200 {object} api.LoginResponse
// @Failure      401 {object} api.ErrorBody
// @Router       /auth/refresh [post]
func (h *HandlerImpl) RefreshSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "RefreshSession")
	defer span.End()
	l := h.logger.With(slog.String("handler", "RefreshSession"))

	var req api.RefreshTokenRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	accessToken, refreshToken, err := h.service.RefreshSession(ctx, req.RefreshToken)
	if err != nil {
		l.WarnContext(ctx, "Session refresh failed", slog.Any("error", err))
		span.SetStatus(codes.Error, "Refresh failed")
		api.ErrorResponseFromErr(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, api.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

// Logout godoc
// @Summary      Invalidate a refresh token
// @Tags         auth
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body body api.LogoutRequest true "Logout payload"
// @Success      200 {object} api.Response
// @Router       /auth/logout [post]
func (h *HandlerImpl) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "Logout")
	defer span.End()
	l := h.logger.With(slog.String("handler", "Logout"))

	var req api.LogoutRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.Logout(ctx, req.RefreshToken); err != nil {
		l.ErrorContext(ctx, "Logout failed", slog.Any("error", err))
		span.SetStatus(codes.Error, "Logout failed")
		api.ErrorResponseFromErr(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, api.Response{Success: true, Message: "Logged out"})
}

// UpdatePassword godoc
// @Summary      Change the authenticated user's password
// @Tags         auth
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body body api.ChangePasswordRequest true "Password change payload"
// @Success      200 {object} api.Response
// @Failure      401 {object} api.ErrorBody
// @Router       /auth/password [put]
func (h *HandlerImpl) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("AuthHandler").Start(r.Context(), "UpdatePassword")
	defer span.End()
	l := h.logger.With(slog.String("handler", "UpdatePassword"))

	userID, ok := GetUserIDFromContext(ctx)
	if !ok || userID == "" {
		l.ErrorContext(ctx, "User ID not found in context")
		span.SetStatus(codes.Error, "Unauthorized - User ID missing")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req api.ChangePasswordRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.service.UpdatePassword(ctx, userID, req.OldPassword, req.NewPassword); err != nil {
		l.WarnContext(ctx, "Password update failed", slog.Any("error", err))
		span.SetStatus(codes.Error, "Password update failed")
		api.ErrorResponseFromErr(w, r, err)
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, api.Response{Success: true, Message: "Password updated"})
}
