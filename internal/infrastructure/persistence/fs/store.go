package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rezkam/tasks/internal/application/todo"
	"github.com/rezkam/tasks/internal/domain"
	"github.com/rezkam/tasks/internal/infrastructure/persistence/document"
)

const (
	lockFileName    = ".tasks.lock"
	lockRetryDelay  = 10 * time.Millisecond
	maxConcurrency  = 20
	documentSuffix  = ".json"
	tempFilePattern = ".task-*.tmp"
)

var _ todo.Repository = (*Store)(nil)

// Store is a filesystem-based implementation of todo.Repository.
// Each task and its collection live in one JSON document named <task-id>.json.
//
// Documents are replaced with write-to-temp + rename, so readers never see a
// half-written file and need no lock. Writers are serialized in-process by a
// mutex and across processes by an advisory lock on a file in baseDir.
type Store struct {
	baseDir string
	mu      sync.Mutex
	flock   *flock.Flock
}

// NewStore creates a new filesystem store rooted at baseDir.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &Store{
		baseDir: baseDir,
		flock:   flock.New(filepath.Join(baseDir, lockFileName)),
	}, nil
}

func (s *Store) path(id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidID, err)
	}
	return filepath.Join(s.baseDir, id+documentSuffix), nil
}

// CreateTask writes a new task document with an empty collection.
func (s *Store) CreateTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	path, err := s.path(task.ID)
	if err != nil {
		return nil, err
	}

	err = s.withWriteLock(ctx, func() error {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: task %s", domain.ErrDuplicateID, task.ID)
		}
		return s.write(path, document.New(task))
	})
	if err != nil {
		return nil, err
	}

	created := *task
	return &created, nil
}

// FindTask reads a task document.
func (s *Store) FindTask(_ context.Context, id string) (*domain.Task, error) {
	doc, err := s.load(id)
	if err != nil {
		return nil, err
	}
	return doc.DomainTask(), nil
}

// FindTasksByOwner scans the directory and loads documents in parallel.
func (s *Store) FindTasksByOwner(ctx context.Context, ownerID string) ([]*domain.Task, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}

	var mu sync.Mutex
	tasks := make([]*domain.Task, 0)

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, documentSuffix) {
			continue
		}

		g.Go(func() error {
			doc, err := s.load(strings.TrimSuffix(name, documentSuffix))
			if err != nil {
				// Deleted between ReadDir and load.
				if errors.Is(err, domain.ErrNotFound) {
					return nil
				}
				return err
			}
			if doc.Task.OwnerID == ownerID {
				mu.Lock()
				tasks = append(tasks, doc.DomainTask())
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	slices.SortFunc(tasks, func(a, b *domain.Task) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return tasks, nil
}

// DeleteTask removes the task document.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}

	return s.withWriteLock(ctx, func() error {
		if err := os.Remove(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return domain.ErrTaskNotFound
			}
			return fmt.Errorf("failed to remove file: %w", err)
		}
		return nil
	})
}

// FindTodos returns the task's items ordered by position.
func (s *Store) FindTodos(_ context.Context, taskID string) ([]domain.TodoItem, error) {
	doc, err := s.load(taskID)
	if err != nil {
		return nil, err
	}
	return doc.Items(), nil
}

// InsertTodo appends an item to its task document.
func (s *Store) InsertTodo(ctx context.Context, item domain.TodoItem) error {
	return s.modify(ctx, item.TaskID, domain.ErrTaskNotFound, func(doc *document.Document) error {
		return doc.Insert(item)
	})
}

// UpdateTodo overwrites text, done and updated_at of an item.
func (s *Store) UpdateTodo(ctx context.Context, item domain.TodoItem) error {
	return s.modify(ctx, item.TaskID, domain.ErrTodoNotFound, func(doc *document.Document) error {
		return doc.Update(item)
	})
}

// DeleteTodo removes an item from its task document.
func (s *Store) DeleteTodo(ctx context.Context, taskID, id string) error {
	return s.modify(ctx, taskID, domain.ErrTodoNotFound, func(doc *document.Document) error {
		return doc.Delete(id)
	})
}

// Close is a no-op; locks are only held for the duration of a write.
func (s *Store) Close() error {
	return nil
}

// modify loads, changes and rewrites a document under the write lock.
// missing is returned when the document doesn't exist.
func (s *Store) modify(ctx context.Context, taskID string, missing error, fn func(*document.Document) error) error {
	path, err := s.path(taskID)
	if err != nil {
		return err
	}

	return s.withWriteLock(ctx, func() error {
		doc, err := s.load(taskID)
		if err != nil {
			if errors.Is(err, domain.ErrTaskNotFound) {
				return missing
			}
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}
		return s.write(path, doc)
	})
}

func (s *Store) withWriteLock(ctx context.Context, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	locked, err := s.flock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to acquire file lock: %w", err)
	}
	if !locked {
		return fmt.Errorf("failed to acquire file lock: %s", s.flock.Path())
	}
	defer func() { _ = s.flock.Unlock() }()

	return fn()
}

func (s *Store) load(id string) (*document.Document, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	doc, err := document.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("task %s: %w", id, err)
	}
	return doc, nil
}

// write replaces path atomically.
func (s *Store) write(path string, doc *document.Document) error {
	data, err := doc.Encode()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.baseDir, tempFilePattern)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace file: %w", err)
	}
	return nil
}
