package todo

import (
	"context"

	"github.com/rezkam/tasks/internal/domain"
)

// Repository defines storage operations for tasks and their todo collections.
//
// Every call is atomic: it either fully applies or leaves prior state intact.
// Reads return committed state only, never a partially applied write.
// Serialization of writers to the same task is the Service's job; repositories
// backstop it by rejecting duplicate ids and positions with domain.ErrConflict.
type Repository interface {
	// === Task Operations ===

	// CreateTask persists a new task with an empty todo collection.
	// Returns domain.ErrDuplicateID if the ID is already used.
	CreateTask(ctx context.Context, task *domain.Task) (*domain.Task, error)

	// FindTask retrieves a task by ID.
	// Returns domain.ErrTaskNotFound if the task doesn't exist.
	FindTask(ctx context.Context, id string) (*domain.Task, error)

	// FindTasksByOwner lists an owner's tasks, oldest first.
	FindTasksByOwner(ctx context.Context, ownerID string) ([]*domain.Task, error)

	// DeleteTask removes a task together with its todo collection.
	// Returns domain.ErrTaskNotFound if the task doesn't exist.
	DeleteTask(ctx context.Context, id string) error

	// === Todo Operations ===

	// FindTodos returns the task's items ordered by position ascending.
	// Returns domain.ErrTaskNotFound if the task doesn't exist.
	FindTodos(ctx context.Context, taskID string) ([]domain.TodoItem, error)

	// InsertTodo appends an item to the item's task.
	// Returns domain.ErrTaskNotFound if the task doesn't exist,
	// domain.ErrPositionTaken or domain.ErrDuplicateID on a racing insert.
	InsertTodo(ctx context.Context, item domain.TodoItem) error

	// UpdateTodo overwrites the mutable fields (text, done, updated_at) of an item.
	// Returns domain.ErrTodoNotFound if the item doesn't exist in that task.
	UpdateTodo(ctx context.Context, item domain.TodoItem) error

	// DeleteTodo removes an item from a task.
	// Returns domain.ErrTodoNotFound if the item doesn't exist in that task.
	DeleteTodo(ctx context.Context, taskID, id string) error

	// Close releases the underlying resources.
	Close() error
}
