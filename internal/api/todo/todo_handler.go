package todo

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/teachmeskills/todo-api/internal/api"
	"github.com/teachmeskills/todo-api/internal/api/auth"
	"github.com/teachmeskills/todo-api/internal/types"
)

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	CreateTodoHandler(w http.ResponseWriter, r *http.Request)
	GetTodoHandler(w http.ResponseWriter, r *http.Request)
	ListTodosHandler(w http.ResponseWriter, r *http.Request)
	UpdateTodoHandler(w http.ResponseWriter, r *http.Request)
	CompleteTodoHandler(w http.ResponseWriter, r *http.Request)
	DeleteTodoHandler(w http.ResponseWriter, r *http.Request)
	AdminListTodosHandler(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	logger  *slog.Logger
	service Service
}

func NewHandler(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		logger:  logger,
		service: service,
	}
}

// principal pulls the authenticated user id out of the request context.
func (h *HandlerImpl) principal(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userIDStr, ok := auth.GetUserIDFromContext(r.Context())
	if !ok || userIDStr == "" {
		h.logger.ErrorContext(r.Context(), "User ID not found in context")
		api.ErrorResponse(w, r, http.StatusUnauthorized, "Authentication required")
		return uuid.Nil, false
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Invalid user ID format", slog.String("userID_str", userIDStr))
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid user ID format")
		return uuid.Nil, false
	}
	return userID, true
}

func todoIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	todoID, err := uuid.Parse(chi.URLParam(r, "todoID"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid todo ID format")
		return uuid.Nil, false
	}
	return todoID, true
}

// CreateTodoHandler godoc
// @Summary      Create a to-do
// @Tags         todos
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        body body types.CreateTodoRequest true "To-do payload"
// @Success      201 {object} types.Todo
// @Failure      400 {object} api.ErrorBody
// @Router       /todos [post]
func (h *HandlerImpl) CreateTodoHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TodoHandler").Start(r.Context(), "CreateTodo")
	defer span.End()
	l := h.logger.With(slog.String("handler", "CreateTodoHandler"))

	userID, ok := h.principal(w, r)
	if !ok {
		span.SetStatus(codes.Error, "Unauthorized")
		return
	}
	span.SetAttributes(attribute.String("user.id", userID.String()))

	var req types.CreateTodoRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	todo, err := h.service.Create(ctx, userID, req)
	if err != nil {
		l.ErrorContext(ctx, "Service failed to create todo", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create todo")
		api.ErrorResponseFromErr(w, r, err)
		return
	}

	span.SetAttributes(attribute.String("todo.id", todo.ID.String()))
	api.WriteJSONResponse(w, r, http.StatusCreated, todo)
}

// GetTodoHandler godoc
// @Summary      Fetch a single to-do
// @Tags         todos
// @Security     BearerAuth
// @Produce      json
// @Param        todoID path string true "To-do ID"
// @Success      200 {object} types.Todo
// @Failure      404 {object} api.ErrorBody
// @Router       /todos/{todoID} [get]
func (h *HandlerImpl) GetTodoHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TodoHandler").Start(r.Context(), "GetTodo")
	defer span.End()

	userID, ok := h.principal(w, r)
	if !ok {
		span.SetStatus(codes.Error, "Unauthorized")
		return
	}
	todoID, ok := todoIDParam(w, r)
	if !ok {
		span.SetStatus(codes.Error, "Invalid todo ID")
		return
	}
	span.SetAttributes(attribute.String("todo.id", todoID.String()))

	todo, err := h.service.Get(ctx, userID, todoID)
	if err != nil {
		span.SetStatus(codes.Error, "Failed to get todo")
		api.ErrorResponseFromErr(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, todo)
}

// ListTodosHandler godoc
// @Summary      List the authenticated user's to-dos
// @Tags         todos
// @Security     BearerAuth
// @Produce      json
// @Param        done query bool false "Filter by completion state"
// @Success      200 {array} types.Todo
// @Router       /todos [get]
func (h *HandlerImpl) ListTodosHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TodoHandler").Start(r.Context(), "ListTodos")
	defer span.End()

	userID, ok := h.principal(w, r)
	if !ok {
		span.SetStatus(codes.Error, "Unauthorized")
		return
	}

	var done *bool
	if raw := r.URL.Query().Get("done"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid value for done filter")
			return
		}
		done = &parsed
	}

	todos, err := h.service.List(ctx, userID, done)
	if err != nil {
		h.logger.ErrorContext(ctx, "Service failed to list todos", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to list todos")
		api.ErrorResponseFromErr(w, r, err)
		return
	}
	if todos == nil {
		todos = []*types.Todo{}
	}
	api.WriteJSONResponse(w, r, http.StatusOK, todos)
}

// UpdateTodoHandler godoc
// @Summary      Update a to-do
// @Tags         todos
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        todoID path string true "To-do ID"
// @Param        body body types.UpdateTodoRequest true "Fields to update"
// @Success      200 {object} types.Todo
// @Failure      404 {object} api.ErrorBody
// @Router       /todos/{todoID} [put]
func (h *HandlerImpl) UpdateTodoHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TodoHandler").Start(r.Context(), "UpdateTodo")
	defer span.End()
	l := h.logger.With(slog.String("handler", "UpdateTodoHandler"))

	userID, ok := h.principal(w, r)
	if !ok {
		span.SetStatus(codes.Error, "Unauthorized")
		return
	}
	todoID, ok := todoIDParam(w, r)
	if !ok {
		span.SetStatus(codes.Error, "Invalid todo ID")
		return
	}

	var req types.UpdateTodoRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request", slog.Any("error", err))
		span.SetStatus(codes.Error, "Bad request")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	todo, err := h.service.Update(ctx, userID, todoID, req)
	if err != nil {
		l.ErrorContext(ctx, "Service failed to update todo", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to update todo")
		api.ErrorResponseFromErr(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, todo)
}

// CompleteTodoHandler godoc
// @Summary      Mark a to-do as done
// @Tags         todos
// @Security     BearerAuth
// @Produce      json
// @Param        todoID path string true "To-do ID"
// @Success      200 {object} types.Todo
// @Failure      404 {object} api.ErrorBody
// @Router       /todos/{todoID}/complete [patch]
func (h *HandlerImpl) CompleteTodoHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TodoHandler").Start(r.Context(), "CompleteTodo")
	defer span.End()

	userID, ok := h.principal(w, r)
	if !ok {
		span.SetStatus(codes.Error, "Unauthorized")
		return
	}
	todoID, ok := todoIDParam(w, r)
	if !ok {
		span.SetStatus(codes.Error, "Invalid todo ID")
		return
	}

	todo, err := h.service.Complete(ctx, userID, todoID)
	if err != nil {
		span.SetStatus(codes.Error, "Failed to complete todo")
		api.ErrorResponseFromErr(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, todo)
}

// AdminListTodosHandler godoc
// @Summary      List any user's to-dos (admin only)
// @Tags         admin
// @Security     BearerAuth
// @Produce      json
// @Param        user_id query string true "Target user ID"
// @Success      200 {array} types.Todo
// @Failure      403 {object} api.ErrorBody
// @Router       /admin/todos [get]
func (h *HandlerImpl) AdminListTodosHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TodoHandler").Start(r.Context(), "AdminListTodos")
	defer span.End()

	targetID, err := uuid.Parse(r.URL.Query().Get("user_id"))
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "Invalid or missing user_id")
		return
	}
	span.SetAttributes(attribute.String("target_user.id", targetID.String()))

	todos, err := h.service.List(ctx, targetID, nil)
	if err != nil {
		span.SetStatus(codes.Error, "Failed to list todos")
		api.ErrorResponseFromErr(w, r, err)
		return
	}
	if todos == nil {
		todos = []*types.Todo{}
	}
	api.WriteJSONResponse(w, r, http.StatusOK, todos)
}

// DeleteTodoHandler godoc
// @Summary      Delete a to-do
// @Tags         todos
// @Security     BearerAuth
// @Param        todoID path string true "To-do ID"
// @Success      204
// @Failure      404 {object} api.ErrorBody
// @Router       /todos/{todoID} [delete]
func (h *HandlerImpl) DeleteTodoHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("TodoHandler").Start(r.Context(), "DeleteTodo")
	defer span.End()

	userID, ok := h.principal(w, r)
	if !ok {
		span.SetStatus(codes.Error, "Unauthorized")
		return
	}
	todoID, ok := todoIDParam(w, r)
	if !ok {
		span.SetStatus(codes.Error, "Invalid todo ID")
		return
	}

	if err := h.service.Delete(ctx, userID, todoID); err != nil {
		span.SetStatus(codes.Error, "Failed to delete todo")
		api.ErrorResponseFromErr(w, r, err)
		return
	}
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}
