package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/rezkam/tasks/internal/application/todo"
	"github.com/rezkam/tasks/internal/domain"
	"github.com/rezkam/tasks/internal/infrastructure/persistence/document"
)

const (
	objectSuffix    = ".json"
	ownerMetadata   = "owner_id"
	maxConcurrency  = 20
	maxWriteRetries = 3
)

var _ todo.Repository = (*Store)(nil)

// Store is a GCS-based implementation of todo.Repository.
// Each task is one JSON object. Writes are conditioned on the generation
// that was read, so two writers can't silently overwrite each other.
type Store struct {
	client *storage.Client
	bucket string
	prefix string
	owns   bool
}

// NewStore creates a new GCS store.
// It assumes the client is authenticated (e.g. via GOOGLE_APPLICATION_CREDENTIALS).
func NewStore(ctx context.Context, bucketName, prefix string, opts ...option.ClientOption) (*Store, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	store := NewStoreWithClient(client, bucketName, prefix)
	store.owns = true
	return store, nil
}

// NewStoreWithClient wraps an existing client. The caller keeps ownership of it.
func NewStoreWithClient(client *storage.Client, bucketName, prefix string) *Store {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Store{client: client, bucket: bucketName, prefix: prefix}
}

func (s *Store) object(id string) (*storage.ObjectHandle, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidID, err)
	}
	return s.client.Bucket(s.bucket).Object(s.prefix + id + objectSuffix), nil
}

// CreateTask writes the task object only if none exists yet.
func (s *Store) CreateTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	obj, err := s.object(task.ID)
	if err != nil {
		return nil, err
	}

	err = s.write(ctx, obj.If(storage.Conditions{DoesNotExist: true}), document.New(task))
	if err != nil {
		if isPreconditionFailed(err) {
			return nil, fmt.Errorf("%w: task %s", domain.ErrDuplicateID, task.ID)
		}
		return nil, err
	}

	created := *task
	return &created, nil
}

// FindTask reads a task object.
func (s *Store) FindTask(ctx context.Context, id string) (*domain.Task, error) {
	doc, _, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return doc.DomainTask(), nil
}

// FindTasksByOwner lists the prefix, filters on object metadata and loads
// matching objects in parallel.
func (s *Store) FindTasksByOwner(ctx context.Context, ownerID string) ([]*domain.Task, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: s.prefix})

	var ids []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		if !strings.HasSuffix(attrs.Name, objectSuffix) || attrs.Metadata[ownerMetadata] != ownerID {
			continue
		}
		ids = append(ids, strings.TrimSuffix(strings.TrimPrefix(attrs.Name, s.prefix), objectSuffix))
	}

	var mu sync.Mutex
	tasks := make([]*domain.Task, 0, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrency)

	for _, id := range ids {
		g.Go(func() error {
			doc, _, err := s.load(gctx, id)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return nil
				}
				return err
			}
			mu.Lock()
			tasks = append(tasks, doc.DomainTask())
			mu.Unlock()
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

// DeleteTask removes the task object.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	obj, err := s.object(id)
	if err != nil {
		return err
	}
	if err := obj.Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return domain.ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// FindTodos returns the task's items ordered by position.
func (s *Store) FindTodos(ctx context.Context, taskID string) ([]domain.TodoItem, error) {
	doc, _, err := s.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return doc.Items(), nil
}

// InsertTodo appends an item to its task object.
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

// DeleteTodo removes an item from its task object.
func (s *Store) DeleteTodo(ctx context.Context, taskID, id string) error {
	return s.modify(ctx, taskID, domain.ErrTodoNotFound, func(doc *document.Document) error {
		return doc.Delete(id)
	})
}

// Close closes the client if the store created it.
func (s *Store) Close() error {
	if !s.owns {
		return nil
	}
	return s.client.Close()
}

// modify is a read-modify-write conditioned on the generation that was read.
// A lost race is retried against the fresh object, so a concurrent insert at
// the same position surfaces as ErrPositionTaken rather than a lost write.
func (s *Store) modify(ctx context.Context, taskID string, missing error, fn func(*document.Document) error) error {
	obj, err := s.object(taskID)
	if err != nil {
		return err
	}

	for range maxWriteRetries {
		doc, generation, err := s.load(ctx, taskID)
		if err != nil {
			if errors.Is(err, domain.ErrTaskNotFound) {
				return missing
			}
			return err
		}
		if err := fn(doc); err != nil {
			return err
		}

		err = s.write(ctx, obj.If(storage.Conditions{GenerationMatch: generation}), doc)
		if err == nil {
			return nil
		}
		if !isPreconditionFailed(err) {
			return err
		}
	}

	return fmt.Errorf("%w: task %s changed concurrently", domain.ErrConflict, taskID)
}

func (s *Store) load(ctx context.Context, id string) (*document.Document, int64, error) {
	obj, err := s.object(id)
	if err != nil {
		return nil, 0, err
	}

	r, err := obj.NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return nil, 0, domain.ErrTaskNotFound
		}
		return nil, 0, fmt.Errorf("failed to read object: %w", err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read object: %w", err)
	}

	doc, err := document.Decode(data)
	if err != nil {
		return nil, 0, fmt.Errorf("task %s: %w", id, err)
	}
	return doc, r.Attrs.Generation, nil
}

func (s *Store) write(ctx context.Context, obj *storage.ObjectHandle, doc *document.Document) error {
	data, err := doc.Encode()
	if err != nil {
		return err
	}

	w := obj.NewWriter(ctx)
	w.ContentType = "application/json"
	w.Metadata = map[string]string{ownerMetadata: doc.Task.OwnerID}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("failed to write object: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to write object: %w", err)
	}
	return nil
}

func isPreconditionFailed(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusPreconditionFailed
}
