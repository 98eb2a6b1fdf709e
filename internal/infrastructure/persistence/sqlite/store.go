package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/rezkam/tasks/internal/application/todo"
	"github.com/rezkam/tasks/internal/domain"
)

//go:embed migrations/*.sql
var embedMigrations embed.FS

const (
	// Fixed width so that text order equals time order.
	timeLayout   = "2006-01-02T15:04:05.000000000Z07:00"
	busyTimeout  = 5 * time.Second
	positionCols = "todo_items.task_id, todo_items.position"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

var _ todo.Repository = (*Store)(nil)

// Store is a single-file SQLite implementation of todo.Repository.
// The schema matches the PostgreSQL one; writes to a collection run in an
// IMMEDIATE transaction so other processes sharing the file are serialized.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the database at path and applies migrations.
func NewStore(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer at a time; SQLite serializes writers anyway and a single
	// connection keeps the pragmas in effect.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func dsn(path string) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busyTimeout.Milliseconds()))
	q.Add("_pragma", "journal_mode(WAL)")
	q.Set("_txlock", "immediate")
	return "file:" + path + "?" + q.Encode()
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	migrations, err := fs.Sub(embedMigrations, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, migrations)
	if err != nil {
		return fmt.Errorf("failed to create migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	for _, r := range results {
		slog.DebugContext(ctx, "applied migration",
			"version", r.Source.Version,
			"duration_ms", r.Duration.Milliseconds())
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) withTx(ctx context.Context, fn func(tx querier) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				err = fmt.Errorf("transaction failed: %w (rollback error: %v)", err, rbErr)
			}
			return
		}
		err = tx.Commit()
	}()

	return fn(tx)
}

func parseID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidID, err)
	}
	return nil
}

// constraintCode returns the extended result code of a constraint violation.
func constraintCode(err error) (int, string, bool) {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return 0, "", false
	}
	switch code := sqliteErr.Code(); code {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return code, sqliteErr.Error(), true
	default:
		return code, "", false
	}
}

// === Task Operations ===

// CreateTask inserts a task row.
func (s *Store) CreateTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if err := parseID(task.ID); err != nil {
		return nil, err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, owner_id, title, video_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		task.ID, task.OwnerID, task.Title, task.VideoID, formatTime(task.CreatedAt))
	if err != nil {
		if _, _, ok := constraintCode(err); ok {
			return nil, fmt.Errorf("%w: task %s", domain.ErrDuplicateID, task.ID)
		}
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	created := *task
	return &created, nil
}

// FindTask retrieves a task by its ID.
func (s *Store) FindTask(ctx context.Context, id string) (*domain.Task, error) {
	if err := parseID(id); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, owner_id, title, video_id, created_at FROM tasks WHERE id = ?`, id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrTaskNotFound, id)
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

// FindTasksByOwner lists an owner's tasks, oldest first.
func (s *Store) FindTasksByOwner(ctx context.Context, ownerID string) ([]*domain.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, owner_id, title, video_id, created_at FROM tasks
		 WHERE owner_id = ? ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// DeleteTask removes a task; its items are removed by ON DELETE CASCADE.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	if err := parseID(id); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return checkRowsAffected(res, domain.ErrTaskNotFound, id)
}

// === Todo Operations ===

// FindTodos returns the task's items ordered by position.
func (s *Store) FindTodos(ctx context.Context, taskID string) ([]domain.TodoItem, error) {
	if err := parseID(taskID); err != nil {
		return nil, err
	}

	var items []domain.TodoItem
	err := s.withTx(ctx, func(tx querier) error {
		if err := taskExists(ctx, tx, taskID); err != nil {
			return err
		}

		rows, err := tx.QueryContext(ctx,
			`SELECT id, task_id, text, done, position, created_at, updated_at FROM todo_items
			 WHERE task_id = ? ORDER BY position`, taskID)
		if err != nil {
			return fmt.Errorf("failed to list todos: %w", err)
		}
		defer rows.Close()

		items = make([]domain.TodoItem, 0)
		for rows.Next() {
			item, err := scanTodo(rows)
			if err != nil {
				return fmt.Errorf("failed to scan todo: %w", err)
			}
			items = append(items, item)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// InsertTodo appends an item to its task.
func (s *Store) InsertTodo(ctx context.Context, item domain.TodoItem) error {
	if err := parseID(item.TaskID); err != nil {
		return err
	}
	if err := parseID(item.ID); err != nil {
		return err
	}

	return s.withTx(ctx, func(tx querier) error {
		if err := taskExists(ctx, tx, item.TaskID); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO todo_items (id, task_id, text, done, position, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			item.ID, item.TaskID, item.Text, item.Done, item.Position,
			formatTime(item.CreatedAt), formatTime(item.UpdatedAt))
		if err != nil {
			code, msg, ok := constraintCode(err)
			switch {
			case ok && code == sqlite3.SQLITE_CONSTRAINT_UNIQUE && strings.Contains(msg, positionCols):
				return fmt.Errorf("%w: %d", domain.ErrPositionTaken, item.Position)
			case ok && code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
				return fmt.Errorf("%w: %s", domain.ErrTaskNotFound, item.TaskID)
			case ok:
				return fmt.Errorf("%w: %s", domain.ErrDuplicateID, item.ID)
			}
			return fmt.Errorf("failed to insert todo: %w", err)
		}
		return nil
	})
}

// UpdateTodo overwrites text, done and updated_at of an item.
func (s *Store) UpdateTodo(ctx context.Context, item domain.TodoItem) error {
	if err := parseID(item.TaskID); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE todo_items SET text = ?, done = ?, updated_at = ? WHERE task_id = ? AND id = ?`,
		item.Text, item.Done, formatTime(item.UpdatedAt), item.TaskID, item.ID)
	if err != nil {
		return fmt.Errorf("failed to update todo: %w", err)
	}
	return checkRowsAffected(res, domain.ErrTodoNotFound, item.ID)
}

// DeleteTodo removes an item from a task.
func (s *Store) DeleteTodo(ctx context.Context, taskID, id string) error {
	if err := parseID(taskID); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM todo_items WHERE task_id = ? AND id = ?`, taskID, id)
	if err != nil {
		return fmt.Errorf("failed to delete todo: %w", err)
	}
	return checkRowsAffected(res, domain.ErrTodoNotFound, id)
}

func taskExists(ctx context.Context, q querier, id string) error {
	var one int
	if err := q.QueryRowContext(ctx, `SELECT 1 FROM tasks WHERE id = ?`, id).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", domain.ErrTaskNotFound, id)
		}
		return fmt.Errorf("failed to check task: %w", err)
	}
	return nil
}

func checkRowsAffected(res sql.Result, notFound error, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", notFound, id)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*domain.Task, error) {
	var (
		task      domain.Task
		createdAt string
	)
	if err := row.Scan(&task.ID, &task.OwnerID, &task.Title, &task.VideoID, &createdAt); err != nil {
		return nil, err
	}
	var err error
	if task.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &task, nil
}

func scanTodo(row scanner) (domain.TodoItem, error) {
	var (
		item                 domain.TodoItem
		createdAt, updatedAt string
	)
	if err := row.Scan(&item.ID, &item.TaskID, &item.Text, &item.Done, &item.Position, &createdAt, &updatedAt); err != nil {
		return domain.TodoItem{}, err
	}
	var err error
	if item.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.TodoItem{}, err
	}
	if item.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return domain.TodoItem{}, err
	}
	return item, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}
