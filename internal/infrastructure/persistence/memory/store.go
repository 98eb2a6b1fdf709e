// Package memory provides a process-local implementation of todo.Repository.
// State lives for the lifetime of the process; it is the default backend for
// development and the reference implementation for the compliance suite.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/rezkam/tasks/internal/application/todo"
	"github.com/rezkam/tasks/internal/domain"
)

var _ todo.Repository = (*Store)(nil)

type taskRecord struct {
	task  domain.Task
	todos []domain.TodoItem // ordered by position
}

// Store is an in-memory implementation of todo.Repository.
// Reads take a shared lock and return copies, so a reader sees either the
// state before or after a write, never a write in progress.
type Store struct {
	mu    sync.RWMutex
	tasks map[string]*taskRecord
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{tasks: make(map[string]*taskRecord)}
}

// CreateTask stores a new task with an empty collection.
func (s *Store) CreateTask(_ context.Context, task *domain.Task) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; exists {
		return nil, domain.ErrDuplicateID
	}

	s.tasks[task.ID] = &taskRecord{task: *task}
	created := *task
	return &created, nil
}

// FindTask retrieves a task by ID.
func (s *Store) FindTask(_ context.Context, id string) (*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	task := rec.task
	return &task, nil
}

// FindTasksByOwner lists an owner's tasks, oldest first.
func (s *Store) FindTasksByOwner(_ context.Context, ownerID string) ([]*domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]*domain.Task, 0)
	for _, rec := range s.tasks {
		if rec.task.OwnerID == ownerID {
			task := rec.task
			tasks = append(tasks, &task)
		}
	}
	slices.SortFunc(tasks, compareTasks)
	return tasks, nil
}

// DeleteTask removes a task and its collection.
func (s *Store) DeleteTask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(s.tasks, id)
	return nil
}

// FindTodos returns a copy of the task's items ordered by position.
func (s *Store) FindTodos(_ context.Context, taskID string) ([]domain.TodoItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.tasks[taskID]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return slices.Clone(rec.todos), nil
}

// InsertTodo appends an item to its task.
func (s *Store) InsertTodo(_ context.Context, item domain.TodoItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.tasks[item.TaskID]
	if !ok {
		return domain.ErrTaskNotFound
	}
	for _, existing := range rec.todos {
		if existing.ID == item.ID {
			return domain.ErrDuplicateID
		}
		if existing.Position == item.Position {
			return domain.ErrPositionTaken
		}
	}

	i, _ := slices.BinarySearchFunc(rec.todos, item.Position, func(t domain.TodoItem, pos int) int {
		return t.Position - pos
	})
	rec.todos = slices.Insert(rec.todos, i, item)
	return nil
}

// UpdateTodo overwrites text, done and updated_at of an item.
func (s *Store) UpdateTodo(_ context.Context, item domain.TodoItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.tasks[item.TaskID]
	if !ok {
		return domain.ErrTodoNotFound
	}
	i := indexOf(rec.todos, item.ID)
	if i < 0 {
		return domain.ErrTodoNotFound
	}
	rec.todos[i].Text = item.Text
	rec.todos[i].Done = item.Done
	rec.todos[i].UpdatedAt = item.UpdatedAt
	return nil
}

// DeleteTodo removes an item from its task.
func (s *Store) DeleteTodo(_ context.Context, taskID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.tasks[taskID]
	if !ok {
		return domain.ErrTodoNotFound
	}
	i := indexOf(rec.todos, id)
	if i < 0 {
		return domain.ErrTodoNotFound
	}
	rec.todos = slices.Delete(rec.todos, i, i+1)
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

func indexOf(todos []domain.TodoItem, id string) int {
	return slices.IndexFunc(todos, func(t domain.TodoItem) bool { return t.ID == id })
}

func compareTasks(a, b *domain.Task) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	if a.ID < b.ID {
		return -1
	}
	if a.ID > b.ID {
		return 1
	}
	return 0
}
