package types

import (
	"time"

	"github.com/google/uuid"
)

// Todo is a single to-do item owned by one user.
type Todo struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Done        bool       `json:"done"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreateTodoRequest is the expected JSON body for creating a to-do.
type CreateTodoRequest struct {
	Title       string     `json:"title" example:"Buy groceries"`
	Description string     `json:"description,omitempty" example:"Milk, eggs, bread"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

// UpdateTodoRequest is the expected JSON body for updating a to-do.
// Nil fields are left unchanged.
type UpdateTodoRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Done        *bool      `json:"done,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}
