package todo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/teachmeskills/todo-api/app/observability/metrics"
	"github.com/teachmeskills/todo-api/internal/api"
	"github.com/teachmeskills/todo-api/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service defines the to-do operations exposed to handlers. Every method
// that reads or mutates a single to-do enforces ownership: a to-do that
// exists but belongs to someone else is reported as not found, so the API
// never reveals foreign IDs.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, req types.CreateTodoRequest) (*types.Todo, error)
	Get(ctx context.Context, userID, todoID uuid.UUID) (*types.Todo, error)
	List(ctx context.Context, userID uuid.UUID, done *bool) ([]*types.Todo, error)
	Update(ctx context.Context, userID, todoID uuid.UUID, req types.UpdateTodoRequest) (*types.Todo, error)
	Complete(ctx context.Context, userID, todoID uuid.UUID) (*types.Todo, error)
	Delete(ctx context.Context, userID, todoID uuid.UUID) error
}

type ServiceImpl struct {
	logger *slog.Logger
	repo   Repository
	cache  *cache.Cache
}

func NewService(repo Repository, todoCache *cache.Cache, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
		cache:  todoCache,
	}
}

func cacheKey(todoID uuid.UUID) string {
	return "todo:" + todoID.String()
}

// cachePut stores a private copy so callers mutating the returned todo can
// never corrupt the cached entry under concurrent readers.
func (s *ServiceImpl) cachePut(todoID uuid.UUID, todo *types.Todo) {
	cp := *todo
	s.cache.Set(cacheKey(todoID), &cp, cache.DefaultExpiration)
}

// Create inserts a new to-do owned by userID.
func (s *ServiceImpl) Create(ctx context.Context, userID uuid.UUID, req types.CreateTodoRequest) (*types.Todo, error) {
	if req.Title == "" {
		return nil, fmt.Errorf("title is required: %w", api.ErrValidation)
	}

	now := time.Now()
	todo := types.Todo{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Done:        false,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateTodo(ctx, todo); err != nil {
		return nil, err
	}
	metrics.Get().TodoOperationsTotal.Add(ctx, 1)
	s.cachePut(todo.ID, &todo)
	s.logger.InfoContext(ctx, "Todo created",
		slog.String("todo_id", todo.ID.String()), slog.String("user_id", userID.String()))
	return &todo, nil
}

// Get fetches a single to-do through the read cache.
func (s *ServiceImpl) Get(ctx context.Context, userID, todoID uuid.UUID) (*types.Todo, error) {
	if cached, found := s.cache.Get(cacheKey(todoID)); found {
		todo := *cached.(*types.Todo)
		if todo.UserID != userID {
			return nil, api.ErrNotFound
		}
		return &todo, nil
	}

	todo, err := s.ownedTodo(ctx, userID, todoID)
	if err != nil {
		return nil, err
	}
	s.cachePut(todoID, todo)
	return todo, nil
}

// List returns the user's to-dos, optionally filtered on completion state.
func (s *ServiceImpl) List(ctx context.Context, userID uuid.UUID, done *bool) ([]*types.Todo, error) {
	return s.repo.GetUserTodos(ctx, userID, done)
}

// Update applies the non-nil fields of req to an owned to-do.
func (s *ServiceImpl) Update(ctx context.Context, userID, todoID uuid.UUID, req types.UpdateTodoRequest) (*types.Todo, error) {
	todo, err := s.ownedTodo(ctx, userID, todoID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		if *req.Title == "" {
			return nil, fmt.Errorf("title must not be empty: %w", api.ErrValidation)
		}
		todo.Title = *req.Title
	}
	if req.Description != nil {
		todo.Description = *req.Description
	}
	if req.Done != nil {
		todo.Done = *req.Done
	}
	if req.DueDate != nil {
		todo.DueDate = req.DueDate
	}
	todo.UpdatedAt = time.Now()

	if err := s.repo.UpdateTodo(ctx, *todo); err != nil {
		return nil, err
	}
	metrics.Get().TodoOperationsTotal.Add(ctx, 1)
	s.cachePut(todoID, todo)
	return todo, nil
}

// Complete marks an owned to-do as done.
func (s *ServiceImpl) Complete(ctx context.Context, userID, todoID uuid.UUID) (*types.Todo, error) {
	done := true
	return s.Update(ctx, userID, todoID, types.UpdateTodoRequest{Done: &done})
}

// Delete removes an owned to-do and drops it from the cache.
func (s *ServiceImpl) Delete(ctx context.Context, userID, todoID uuid.UUID) error {
	if _, err := s.ownedTodo(ctx, userID, todoID); err != nil {
		return err
	}
	if err := s.repo.DeleteTodo(ctx, todoID); err != nil {
		return err
	}
	metrics.Get().TodoOperationsTotal.Add(ctx, 1)
	s.cache.Delete(cacheKey(todoID))
	return nil
}

// ownedTodo loads a to-do and enforces ownership. Foreign to-dos look like
// missing ones to the caller.
func (s *ServiceImpl) ownedTodo(ctx context.Context, userID, todoID uuid.UUID) (*types.Todo, error) {
	todo, err := s.repo.GetTodo(ctx, todoID)
	if err != nil {
		return nil, err
	}
	if todo.UserID != userID {
		s.logger.WarnContext(ctx, "Ownership check failed",
			slog.String("todo_id", todoID.String()), slog.String("user_id", userID.String()))
		return nil, api.ErrNotFound
	}
	return &todo, nil
}
