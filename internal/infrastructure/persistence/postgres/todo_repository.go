package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/rezkam/tasks/internal/domain"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"

	positionConstraint = "uq_todo_items_task_position"
)

// checkRowsAffected validates that an UPDATE/DELETE operation affected a row.
func checkRowsAffected(tag pgconn.CommandTag, notFound error, entityID string) error {
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", notFound, entityID)
	}
	return nil
}

func pgErrorCode(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// isForeignKeyViolation checks if an error is a PostgreSQL FK violation.
func isForeignKeyViolation(err error) bool {
	pgErr, ok := pgErrorCode(err)
	return ok && pgErr.Code == pgForeignKeyViolation
}

// uniqueViolation reports the violated constraint of a unique violation.
func uniqueViolation(err error) (string, bool) {
	pgErr, ok := pgErrorCode(err)
	if !ok || pgErr.Code != pgUniqueViolation {
		return "", false
	}
	return pgErr.ConstraintName, true
}

func parseID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", domain.ErrInvalidID, err)
	}
	return parsed, nil
}

// === Task Operations ===

// CreateTask inserts a task row.
func (s *Store) CreateTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	id, err := parseID(task.ID)
	if err != nil {
		return nil, err
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO tasks (id, owner_id, title, video_id, created_at) VALUES ($1, $2, $3, $4, $5)`,
		id, task.OwnerID, task.Title, task.VideoID, task.CreatedAt.UTC())
	if err != nil {
		if _, ok := uniqueViolation(err); ok {
			return nil, fmt.Errorf("%w: task %s", domain.ErrDuplicateID, task.ID)
		}
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	created := *task
	return &created, nil
}

// FindTask retrieves a task by its ID.
func (s *Store) FindTask(ctx context.Context, id string) (*domain.Task, error) {
	taskID, err := parseID(id)
	if err != nil {
		return nil, err
	}

	row := s.db.QueryRow(ctx,
		`SELECT id, owner_id, title, video_id, created_at FROM tasks WHERE id = $1`, taskID)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrTaskNotFound, id)
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// FindTasksByOwner lists an owner's tasks, oldest first.
func (s *Store) FindTasksByOwner(ctx context.Context, ownerID string) ([]*domain.Task, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, owner_id, title, video_id, created_at FROM tasks
		 WHERE owner_id = $1 ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	tasks, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*domain.Task, error) {
		return scanTask(row)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// DeleteTask removes a task; its items are removed by ON DELETE CASCADE.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	taskID, err := parseID(id)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, taskID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return checkRowsAffected(tag, domain.ErrTaskNotFound, id)
}

// === Todo Operations ===

// FindTodos returns the task's items ordered by position.
// Uses REPEATABLE READ so the existence check and the item list come from
// one snapshot.
func (s *Store) FindTodos(ctx context.Context, taskID string) ([]domain.TodoItem, error) {
	id, err := parseID(taskID)
	if err != nil {
		return nil, err
	}

	var items []domain.TodoItem
	err = s.executeInTransaction(ctx, "find_todos", pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	}, func(tx *Store) error {
		if err := tx.taskExists(ctx, id, false); err != nil {
			return err
		}

		rows, err := tx.db.Query(ctx,
			`SELECT id, task_id, text, done, position, created_at, updated_at FROM todo_items
			 WHERE task_id = $1 ORDER BY position`, id)
		if err != nil {
			return fmt.Errorf("failed to list todos: %w", err)
		}

		items, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.TodoItem, error) {
			return scanTodo(row)
		})
		if err != nil {
			return fmt.Errorf("failed to list todos: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// InsertTodo appends an item while holding the task row lock.
func (s *Store) InsertTodo(ctx context.Context, item domain.TodoItem) error {
	taskID, err := parseID(item.TaskID)
	if err != nil {
		return err
	}
	id, err := parseID(item.ID)
	if err != nil {
		return err
	}

	return s.executeInTransaction(ctx, "insert_todo", pgx.TxOptions{}, func(tx *Store) error {
		if err := tx.taskExists(ctx, taskID, true); err != nil {
			return err
		}

		_, err := tx.db.Exec(ctx,
			`INSERT INTO todo_items (id, task_id, text, done, position, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			id, taskID, item.Text, item.Done, item.Position, item.CreatedAt.UTC(), item.UpdatedAt.UTC())
		if err != nil {
			if constraint, ok := uniqueViolation(err); ok {
				if strings.Contains(constraint, positionConstraint) {
					return fmt.Errorf("%w: %d", domain.ErrPositionTaken, item.Position)
				}
				return fmt.Errorf("%w: %s", domain.ErrDuplicateID, item.ID)
			}
			if isForeignKeyViolation(err) {
				return fmt.Errorf("%w: %s", domain.ErrTaskNotFound, item.TaskID)
			}
			return fmt.Errorf("failed to insert todo: %w", err)
		}
		return nil
	})
}

// UpdateTodo overwrites text, done and updated_at of an item.
func (s *Store) UpdateTodo(ctx context.Context, item domain.TodoItem) error {
	taskID, err := parseID(item.TaskID)
	if err != nil {
		return err
	}
	id, err := parseID(item.ID)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE todo_items SET text = $3, done = $4, updated_at = $5
		 WHERE task_id = $1 AND id = $2`,
		taskID, id, item.Text, item.Done, item.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to update todo: %w", err)
	}
	return checkRowsAffected(tag, domain.ErrTodoNotFound, item.ID)
}

// DeleteTodo removes an item from a task. Remaining positions are untouched.
func (s *Store) DeleteTodo(ctx context.Context, taskID, id string) error {
	tid, err := parseID(taskID)
	if err != nil {
		return err
	}
	iid, err := parseID(id)
	if err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx, `DELETE FROM todo_items WHERE task_id = $1 AND id = $2`, tid, iid)
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	return checkRowsAffected(tag, domain.ErrTodoNotFound, id)
}

// taskExists returns domain.ErrTaskNotFound for a missing task.
// With lock set the task row stays locked until the transaction ends.
func (s *Store) taskExists(ctx context.Context, id uuid.UUID, lock bool) error {
	query := `SELECT 1 FROM tasks WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}

	var one int
	if err := s.db.QueryRow(ctx, query, id).Scan(&one); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %s", domain.ErrTaskNotFound, id)
		}
		return fmt.Errorf("failed to check task: %w", err)
	}
	return nil
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var (
		id        uuid.UUID
		task      domain.Task
		createdAt time.Time
	)
	if err := row.Scan(&id, &task.OwnerID, &task.Title, &task.VideoID, &createdAt); err != nil {
		return nil, err
	}
	task.ID = id.String()
	task.CreatedAt = createdAt.UTC()
	return &task, nil
}

func scanTodo(row pgx.Row) (domain.TodoItem, error) {
	var (
		id, taskID uuid.UUID
		item       domain.TodoItem
	)
	if err := row.Scan(&id, &taskID, &item.Text, &item.Done, &item.Position, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return domain.TodoItem{}, err
	}
	item.ID = id.String()
	item.TaskID = taskID.String()
	item.CreatedAt = item.CreatedAt.UTC()
	item.UpdatedAt = item.UpdatedAt.UTC()
	return item, nil
}
