package todo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/rezkam/tasks/internal/domain"
)

const instrumentationName = "github.com/rezkam/tasks/internal/application/todo"

// Default configuration values.
const (
	DefaultMutationTimeout = 5 * time.Second
)

// Config holds configuration for the Service.
type Config struct {
	// MutationTimeout bounds how long a mutation may wait for its task's
	// lock plus the storage round trips. Zero uses DefaultMutationTimeout.
	MutationTimeout time.Duration
}

// Service is the task store: it locates a task's todo collection and is the
// only writer of collections. Mutations of one task are serialized; mutations
// of different tasks run independently. Reads are served from committed
// storage state without waiting for writers.
//
// The service offers no change notification. Every mutation has completed in
// storage when its call returns, and callers observe changes by listing again.
type Service struct {
	repo   Repository
	locks  *taskLocks
	config Config

	tracer    trace.Tracer
	mutations metric.Int64Counter
	duration  metric.Float64Histogram
}

// NewService creates a new todo service.
// Applies application defaults for zero or invalid config values.
func NewService(repo Repository, config Config) *Service {
	if config.MutationTimeout <= 0 {
		config.MutationTimeout = DefaultMutationTimeout
	}

	meter := otel.Meter(instrumentationName)
	mutations, err := meter.Int64Counter("todo.mutations",
		metric.WithDescription("Number of todo mutations by operation and outcome"))
	if err != nil {
		slog.Warn("failed to create todo.mutations counter", "error", err)
		mutations = noop.Int64Counter{}
	}
	duration, err := meter.Float64Histogram("todo.mutation.duration",
		metric.WithDescription("Duration of todo mutations including lock wait"),
		metric.WithUnit("ms"))
	if err != nil {
		slog.Warn("failed to create todo.mutation.duration histogram", "error", err)
		duration = noop.Float64Histogram{}
	}

	return &Service{
		repo:      repo,
		locks:     newTaskLocks(),
		config:    config,
		tracer:    otel.Tracer(instrumentationName),
		mutations: mutations,
		duration:  duration,
	}
}

// === Task Operations ===

// CreateTask creates a task owned by ownerID together with its empty collection.
func (s *Service) CreateTask(ctx context.Context, ownerID, titleStr, videoID string) (*domain.Task, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, domain.ErrOwnerRequired
	}

	title, err := domain.NewTitle(titleStr)
	if err != nil {
		return nil, err
	}

	idObj, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate id: %w", err)
	}

	task := &domain.Task{
		ID:        idObj.String(),
		OwnerID:   ownerID,
		Title:     title.String(),
		VideoID:   strings.TrimSpace(videoID),
		CreatedAt: time.Now().UTC(),
	}

	created, err := s.repo.CreateTask(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return created, nil
}

// GetTask retrieves a task by ID.
func (s *Service) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	if id == "" {
		return nil, domain.ErrTaskNotFound
	}

	return s.repo.FindTask(ctx, id)
}

// ListTasks returns the tasks owned by ownerID.
func (s *Service) ListTasks(ctx context.Context, ownerID string) ([]*domain.Task, error) {
	ownerID = strings.TrimSpace(ownerID)
	if ownerID == "" {
		return nil, domain.ErrOwnerRequired
	}

	tasks, err := s.repo.FindTasksByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, nil
}

// DeleteTask deletes a task and its collection.
// Waits for in-flight mutations of the task to finish first.
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrTaskNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.MutationTimeout)
	defer cancel()

	unlock, err := s.locks.lock(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to lock task %s: %w", id, err)
	}
	defer unlock()

	return s.repo.DeleteTask(ctx, id)
}

// === Collection Operations ===

// Collection is a handle to one task's todo collection.
// It holds no state besides the task ID; every call goes to storage.
type Collection struct {
	svc    *Service
	taskID string
}

// Collection returns a handle to the task's todo collection.
// Returns domain.ErrTaskNotFound if the task doesn't exist.
func (s *Service) Collection(ctx context.Context, taskID string) (*Collection, error) {
	if _, err := s.GetTask(ctx, taskID); err != nil {
		return nil, err
	}

	return &Collection{svc: s, taskID: taskID}, nil
}

// TaskID returns the owning task's ID.
func (c *Collection) TaskID() string {
	return c.taskID
}

// List returns a point-in-time snapshot of the items ordered by position.
// It does not wait for in-flight mutations.
func (c *Collection) List(ctx context.Context) ([]domain.TodoItem, error) {
	ctx, span := c.svc.tracer.Start(ctx, "todo.List",
		trace.WithAttributes(attribute.String("task.id", c.taskID)))
	defer span.End()

	items, err := c.svc.repo.FindTodos(ctx, c.taskID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("todo.count", len(items)))
	return items, nil
}

// Add appends a new item with the given text.
// Whitespace-only text fails with domain.ErrTextRequired and changes nothing.
func (c *Collection) Add(ctx context.Context, text string) (*domain.TodoItem, error) {
	if _, err := domain.NewText(text); err != nil {
		c.svc.record(ctx, "add", err, time.Now())
		return nil, err
	}

	var created domain.TodoItem
	err := c.svc.mutate(ctx, c.taskID, "add", func(ctx context.Context, coll *domain.TodoCollection, now time.Time) error {
		idObj, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate id: %w", err)
		}

		item, err := coll.Add(idObj.String(), text, now)
		if err != nil {
			return err
		}

		if err := c.svc.repo.InsertTodo(ctx, item); err != nil {
			return fmt.Errorf("failed to insert todo: %w", err)
		}

		created = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &created, nil
}

// Toggle flips the done flag of the item.
func (c *Collection) Toggle(ctx context.Context, id string) (*domain.TodoItem, error) {
	return c.update(ctx, "toggle", id, func(coll *domain.TodoCollection, now time.Time) (domain.TodoItem, error) {
		return coll.Toggle(id, now)
	})
}

// SetDone sets the done flag of the item.
func (c *Collection) SetDone(ctx context.Context, id string, done bool) (*domain.TodoItem, error) {
	return c.update(ctx, "set_done", id, func(coll *domain.TodoCollection, now time.Time) (domain.TodoItem, error) {
		return coll.SetDone(id, done, now)
	})
}

// EditText replaces the item's text. ID and position are kept.
func (c *Collection) EditText(ctx context.Context, id, text string) (*domain.TodoItem, error) {
	if _, err := domain.NewText(text); err != nil {
		c.svc.record(ctx, "edit_text", err, time.Now())
		return nil, err
	}

	return c.update(ctx, "edit_text", id, func(coll *domain.TodoCollection, now time.Time) (domain.TodoItem, error) {
		return coll.EditText(id, text, now)
	})
}

// Update applies a partial update (text and/or done) as one mutation.
func (c *Collection) Update(ctx context.Context, id string, params domain.UpdateTodoParams) (*domain.TodoItem, error) {
	if err := params.Validate(); err != nil {
		c.svc.record(ctx, "update", err, time.Now())
		return nil, err
	}

	return c.update(ctx, "update", id, func(coll *domain.TodoCollection, now time.Time) (domain.TodoItem, error) {
		return coll.Update(id, params, now)
	})
}

// Delete removes the item. The positions of the remaining items are unchanged.
func (c *Collection) Delete(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrTodoNotFound
	}

	return c.svc.mutate(ctx, c.taskID, "delete", func(ctx context.Context, coll *domain.TodoCollection, _ time.Time) error {
		if _, err := coll.Delete(id); err != nil {
			return err
		}

		if err := c.svc.repo.DeleteTodo(ctx, c.taskID, id); err != nil {
			return fmt.Errorf("failed to delete todo: %w", err)
		}
		return nil
	})
}

func (c *Collection) update(ctx context.Context, op, id string, apply func(*domain.TodoCollection, time.Time) (domain.TodoItem, error)) (*domain.TodoItem, error) {
	if id == "" {
		return nil, domain.ErrTodoNotFound
	}

	var updated domain.TodoItem
	err := c.svc.mutate(ctx, c.taskID, op, func(ctx context.Context, coll *domain.TodoCollection, now time.Time) error {
		before, _ := coll.Find(id)

		item, err := apply(coll, now)
		if err != nil {
			return err
		}

		if item != before {
			if err := c.svc.repo.UpdateTodo(ctx, item); err != nil {
				return fmt.Errorf("failed to update todo: %w", err)
			}
		}

		updated = item
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

// mutate runs fn while holding the task's lock, against a collection loaded
// from storage after the lock was acquired.
func (s *Service) mutate(ctx context.Context, taskID, op string, fn func(context.Context, *domain.TodoCollection, time.Time) error) (err error) {
	start := time.Now()

	ctx, span := s.tracer.Start(ctx, "todo."+op,
		trace.WithAttributes(attribute.String("task.id", taskID)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		s.record(ctx, op, err, start)
	}()

	ctx, cancel := context.WithTimeout(ctx, s.config.MutationTimeout)
	defer cancel()

	unlock, err := s.locks.lock(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to lock task %s: %w", taskID, err)
	}
	defer unlock()

	items, err := s.repo.FindTodos(ctx, taskID)
	if err != nil {
		return err
	}

	return fn(ctx, domain.NewTodoCollection(taskID, items), time.Now().UTC())
}

func (s *Service) record(ctx context.Context, op string, err error, start time.Time) {
	attrs := metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("outcome", outcome(err)),
	)
	s.mutations.Add(ctx, 1, attrs)
	s.duration.Record(ctx, float64(time.Since(start).Microseconds())/1000, attrs)
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}
