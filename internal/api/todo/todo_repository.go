package todo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/teachmeskills/todo-api/app/observability/metrics"
	"github.com/teachmeskills/todo-api/internal/api"
	"github.com/teachmeskills/todo-api/internal/types"
)

// Ensure RepositoryImpl implements the Repository interface
var _ Repository = (*RepositoryImpl)(nil)

// Repository defines the interface for to-do persistence operations
type Repository interface {
	CreateTodo(ctx context.Context, todo types.Todo) error
	GetTodo(ctx context.Context, todoID uuid.UUID) (types.Todo, error)
	GetUserTodos(ctx context.Context, userID uuid.UUID, done *bool) ([]*types.Todo, error)
	UpdateTodo(ctx context.Context, todo types.Todo) error
	DeleteTodo(ctx context.Context, todoID uuid.UUID) error
}

// RepositoryImpl struct holds the logger and database connection pool
type RepositoryImpl struct {
	logger *slog.Logger
	pgpool api.PGPool
}

func NewRepository(pgxpool api.PGPool, logger *slog.Logger) *RepositoryImpl {
	return &RepositoryImpl{
		logger: logger,
		pgpool: pgxpool,
	}
}

// CreateTodo inserts a new to-do into the todos table
func (r *RepositoryImpl) CreateTodo(ctx context.Context, todo types.Todo) error {
	query := `
        INSERT INTO todos (
            id, user_id, title, description, done, due_date, created_at, updated_at
        ) VALUES (
            $1, $2, $3, $4, $5, $6, $7, $8
        )
    `
	start := time.Now()
	_, err := r.pgpool.Exec(ctx, query,
		todo.ID, todo.UserID, todo.Title, todo.Description, todo.Done, todo.DueDate,
		todo.CreatedAt, todo.UpdatedAt,
	)
	metrics.Get().DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		r.logger.ErrorContext(ctx, "Failed to create todo", slog.Any("error", err))
		return fmt.Errorf("failed to create todo: %w", err)
	}
	return nil
}

// GetTodo retrieves a to-do by its ID
func (r *RepositoryImpl) GetTodo(ctx context.Context, todoID uuid.UUID) (types.Todo, error) {
	query := `
        SELECT id, user_id, title, description, done, due_date, created_at, updated_at
        FROM todos
        WHERE id = $1
    `
	row := r.pgpool.QueryRow(ctx, query, todoID)
	var todo types.Todo
	err := row.Scan(
		&todo.ID, &todo.UserID, &todo.Title, &todo.Description, &todo.Done, &todo.DueDate,
		&todo.CreatedAt, &todo.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return types.Todo{}, api.ErrNotFound
		}
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		r.logger.ErrorContext(ctx, "Failed to get todo", slog.Any("error", err))
		return types.Todo{}, fmt.Errorf("failed to get todo: %w", err)
	}
	return todo, nil
}

// GetUserTodos retrieves all to-dos owned by a user, optionally filtered by
// completion state.
func (r *RepositoryImpl) GetUserTodos(ctx context.Context, userID uuid.UUID, done *bool) ([]*types.Todo, error) {
	query := `
        SELECT id, user_id, title, description, done, due_date, created_at, updated_at
        FROM todos
        WHERE user_id = $1 AND ($2::boolean IS NULL OR done = $2)
        ORDER BY created_at DESC
    `
	start := time.Now()
	rows, err := r.pgpool.Query(ctx, query, userID, done)
	metrics.Get().DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds())
	if err != nil {
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		r.logger.ErrorContext(ctx, "Failed to query todos", slog.Any("error", err))
		return nil, fmt.Errorf("failed to query todos: %w", err)
	}
	defer rows.Close()

	var todos []*types.Todo
	for rows.Next() {
		var todo types.Todo
		err := rows.Scan(
			&todo.ID, &todo.UserID, &todo.Title, &todo.Description, &todo.Done, &todo.DueDate,
			&todo.CreatedAt, &todo.UpdatedAt,
		)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan todo row", slog.Any("error", err))
			return nil, fmt.Errorf("failed to scan todo row: %w", err)
		}
		todos = append(todos, &todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed iterating todo rows: %w", err)
	}
	return todos, nil
}

// UpdateTodo replaces the mutable fields of a to-do
func (r *RepositoryImpl) UpdateTodo(ctx context.Context, todo types.Todo) error {
	query := `
        UPDATE todos
        SET title = $2, description = $3, done = $4, due_date = $5, updated_at = $6
        WHERE id = $1
    `
	tag, err := r.pgpool.Exec(ctx, query,
		todo.ID, todo.Title, todo.Description, todo.Done, todo.DueDate, todo.UpdatedAt,
	)
	if err != nil {
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		r.logger.ErrorContext(ctx, "Failed to update todo", slog.Any("error", err))
		return fmt.Errorf("failed to update todo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return api.ErrNotFound
	}
	return nil
}

// DeleteTodo removes a to-do by ID
func (r *RepositoryImpl) DeleteTodo(ctx context.Context, todoID uuid.UUID) error {
	query := `DELETE FROM todos WHERE id = $1`
	tag, err := r.pgpool.Exec(ctx, query, todoID)
	if err != nil {
		metrics.Get().DbQueryErrorsTotal.Add(ctx, 1)
		r.logger.ErrorContext(ctx, "Failed to delete todo", slog.Any("error", err))
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return api.ErrNotFound
	}
	return nil
}
