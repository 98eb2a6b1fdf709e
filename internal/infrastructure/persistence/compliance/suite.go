package compliance

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/tasks/internal/application/todo"
	"github.com/rezkam/tasks/internal/domain"
)

// RunRepositoryComplianceTest runs a standard set of tests against a todo.Repository implementation.
// setup is a function that returns a fresh (clean) Repository instance for the test.
// cleanup is called after the test to clean up resources (if any).
func RunRepositoryComplianceTest(t *testing.T, setup func(t *testing.T) (todo.Repository, func())) {
	t.Run("CreateAndFindTask", func(t *testing.T) {
		repo, teardown := setup(t)
		defer teardown()
		ctx := context.Background()

		task := newTask("owner-1", "Hello World!")
		task.VideoID = "BQqzfHQkREo"

		created, err := repo.CreateTask(ctx, task)
		require.NoError(t, err)
		assert.Equal(t, task.ID, created.ID)

		fetched, err := repo.FindTask(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, task.ID, fetched.ID)
		assert.Equal(t, "owner-1", fetched.OwnerID)
		assert.Equal(t, "Hello World!", fetched.Title)
		assert.Equal(t, "BQqzfHQkREo", fetched.VideoID)
		assert.True(t, task.CreatedAt.Equal(fetched.CreatedAt), "created_at %v != %v", task.CreatedAt, fetched.CreatedAt)

		todos, err := repo.FindTodos(ctx, task.ID)
		require.NoError(t, err)
		assert.Empty(t, todos)
	})

	t.Run("FindNonExistentTask", func(t *testing.T) {
		repo, teardown := setup(t)
		defer teardown()
		ctx := context.Background()

		_, err := repo.FindTask(ctx, uuid.NewString())
		require.ErrorIs(t, err, domain.ErrTaskNotFound)

		_, err = repo.FindTodos(ctx, uuid.NewString())
		require.ErrorIs(t, err, domain.ErrTaskNotFound)

		_, err = repo.FindTask(ctx, "non-existent-id")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("CreateDuplicateTask", func(t *testing.T) {
		repo, teardown := setup(t)
		defer teardown()
		ctx := context.Background()

		task := newTask("owner-1", "first")
		_, err := repo.CreateTask(ctx, task)
		require.NoError(t, err)

		_, err = repo.CreateTask(ctx, task)
		require.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("FindTasksByOwner", func(t *testing.T) {
		repo, teardown := setup(t)
		defer teardown()
		ctx := context.Background()

		owner := uuid.NewString()
		first := newTask(owner, "first")
		second := newTask(owner, "second")
		second.CreatedAt = first.CreatedAt.Add(time.Second)
		other := newTask(uuid.NewString(), "other")

		for _, task := range []*domain.Task{second, other, first} {
			_, err := repo.CreateTask(ctx, task)
			require.NoError(t, err)
		}

		tasks, err := repo.FindTasksByOwner(ctx, owner)
		require.NoError(t, err)
		require.Len(t, tasks, 2)
		assert.Equal(t, first.ID, tasks[0].ID)
		assert.Equal(t, second.ID, tasks[1].ID)

		none, err := repo.FindTasksByOwner(ctx, uuid.NewString())
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("InsertAndFindTodosOrdered", func(t *testing.T) {
		repo, teardown := setup(t)
		defer teardown()
		ctx := context.Background()

		task := mustCreateTask(t, repo)

		// Inserted out of order; reads must come back by position.
		for _, pos := range []int{2, 0, 5} {
			require.NoError(t, repo.InsertTodo(ctx, newTodo(task.ID, pos)))
		}

		todos, err := repo.FindTodos(ctx, task.ID)
		require.NoError(t, err)
		require.Len(t, todos, 3)
		assert.Equal(t, []int{0, 2, 5}, positions(todos))
		assert.Equal(t, "item 0", todos[0].Text)
		assert.False(t, todos[0].Done)
		assert.Equal(t, task.ID, todos[0].TaskID)
	})

	t.Run("InsertTodoUnknownTask", func(t *testing.T) {
		repo, teardown := setup(t)
		defer teardown()

		err := repo.InsertTodo(context.Background(), newTodo(uuid.NewString(), 0))
		require.ErrorIs(t, err, domain.ErrTaskNotFound)
	})

	t.Run("InsertTodoRejectsTakenPosition", func(t *testing.T) {
		repo, teardown := setup(t)
		defer teardown()
		ctx := context.Background()

		task := mustCreateTask(t, repo)
		require.NoError(t, repo.InsertTodo(ctx, newTodo(task.ID, 0)))

		err := repo.InsertTodo(ctx, newTodo(task.ID, 0))
		require.ErrorIs(t, err, domain.ErrConflict)

		todos, err := repo.FindTodos(ctx, task.ID)
		require.NoError(t, err)
		assert.Len(t, todos, 1)
	})

	t.Run("InsertTodoRejectsDuplicateID", func(t *testing.T) {
		repo, teardown := setup(t)
		defer teardown()
		ctx := context.Background()

		task := mustCreateTask(t, repo)
		item := newTodo(task.ID, 0)
		require.NoError(t, repo.InsertTodo(ctx, item))

		item.Position = 1
		err := repo.InsertTodo(ctx, item)
		require.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("UpdateTodo", func(t *testing.T) {
		repo, teardown := setup(t)
		defer teardown()
		ctx := context.Background()

		task := mustCreateTask(t, repo)
		item := newTodo(task.ID, 3)
		require.NoError(t, repo.InsertTodo(ctx, item))

		item.Done = true
		item.Text = "edited"
		item.UpdatedAt = item.UpdatedAt.Add(time.Minute)
		require.NoError(t, repo.UpdateTodo(ctx, item))

		todos, err := repo.FindTodos(ctx, task.ID)
		require.NoError(t, err)
		require.Len(t, todos, 1)
		assert.Equal(t, item.ID, todos[0].ID)
		assert.True(t, todos[0].Done)
		assert.Equal(t, "edited", todos[0].Text)
		assert.Equal(t, 3, todos[0].Position)
		assert.True(t, item.UpdatedAt.Equal(todos[0].UpdatedAt))
		assert.True(t, item.CreatedAt.Equal(todos[0].CreatedAt))
	})

	t.Run("UpdateNonExistentTodo", func(t *testing.T) {
		repo, teardown := setup(t)
		defer teardown()

		task := mustCreateTask(t, repo)
		err := repo.UpdateTodo(context.Background(), newTodo(task.ID, 0))
		require.ErrorIs(t, err, domain.ErrTodoNotFound)
	})

	t.Run("DeleteTodoKeepsPositions", func(t *testing.T) {
		repo, teardown := setup(t)
		defer teardown()
		ctx := context.Background()

		task := mustCreateTask(t, repo)
		var items []domain.TodoItem
		for pos := range 3 {
			item := newTodo(task.ID, pos)
			require.NoError(t, repo.InsertTodo(ctx, item))
			items = append(items, item)
		}

		require.NoError(t, repo.DeleteTodo(ctx, task.ID, items[1].ID))

		todos, err := repo.FindTodos(ctx, task.ID)
		require.NoError(t, err)
		assert.Equal(t, []int{0, 2}, positions(todos))

		err = repo.DeleteTodo(ctx, task.ID, items[1].ID)
		require.ErrorIs(t, err, domain.ErrTodoNotFound)
	})

	t.Run("DeleteTodoOfOtherTask", func(t *testing.T) {
		repo, teardown := setup(t)
		defer teardown()
		ctx := context.Background()

		owner := mustCreateTask(t, repo)
		other := mustCreateTask(t, repo)
		item := newTodo(owner.ID, 0)
		require.NoError(t, repo.InsertTodo(ctx, item))

		err := repo.DeleteTodo(ctx, other.ID, item.ID)
		require.ErrorIs(t, err, domain.ErrTodoNotFound)

		todos, err := repo.FindTodos(ctx, owner.ID)
		require.NoError(t, err)
		assert.Len(t, todos, 1)
	})

	t.Run("DeleteTaskRemovesCollection", func(t *testing.T) {
		repo, teardown := setup(t)
		defer teardown()
		ctx := context.Background()

		task := mustCreateTask(t, repo)
		require.NoError(t, repo.InsertTodo(ctx, newTodo(task.ID, 0)))

		require.NoError(t, repo.DeleteTask(ctx, task.ID))

		_, err := repo.FindTask(ctx, task.ID)
		require.ErrorIs(t, err, domain.ErrTaskNotFound)
		_, err = repo.FindTodos(ctx, task.ID)
		require.ErrorIs(t, err, domain.ErrTaskNotFound)

		err = repo.DeleteTask(ctx, task.ID)
		require.ErrorIs(t, err, domain.ErrTaskNotFound)
	})

	t.Run("ServiceRoundTrip", func(t *testing.T) {
		repo, teardown := setup(t)
		defer teardown()
		ctx := context.Background()

		svc := todo.NewService(repo, todo.Config{})
		task, err := svc.CreateTask(ctx, "owner-1", "Hello World!", "")
		require.NoError(t, err)
		coll, err := svc.Collection(ctx, task.ID)
		require.NoError(t, err)

		a, err := coll.Add(ctx, "A")
		require.NoError(t, err)
		_, err = coll.Add(ctx, "B")
		require.NoError(t, err)

		_, err = coll.Toggle(ctx, a.ID)
		require.NoError(t, err)
		items, err := coll.List(ctx)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.True(t, items[0].Done)
		assert.False(t, items[1].Done)

		require.NoError(t, coll.Delete(ctx, a.ID))
		items, err = coll.List(ctx)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "B", items[0].Text)
		assert.Equal(t, 1, items[0].Position)
		assert.False(t, items[0].Done)
	})

	t.Run("ServiceConcurrentAdds", func(t *testing.T) {
		repo, teardown := setup(t)
		defer teardown()
		ctx := context.Background()

		svc := todo.NewService(repo, todo.Config{MutationTimeout: 30 * time.Second})
		task, err := svc.CreateTask(ctx, "owner-1", "concurrent", "")
		require.NoError(t, err)
		coll, err := svc.Collection(ctx, task.ID)
		require.NoError(t, err)

		const writers = 8
		var wg sync.WaitGroup
		errs := make(chan error, writers)
		for i := range writers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := coll.Add(ctx, fmt.Sprintf("todo %d", i))
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		items, err := coll.List(ctx)
		require.NoError(t, err)
		require.Len(t, items, writers)
		ids := make(map[string]bool)
		for i, item := range items {
			ids[item.ID] = true
			assert.Equal(t, i, item.Position)
		}
		assert.Len(t, ids, writers)
	})
}

func newTask(ownerID, title string) *domain.Task {
	return &domain.Task{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Title:     title,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func mustCreateTask(t *testing.T, repo todo.Repository) *domain.Task {
	t.Helper()

	task, err := repo.CreateTask(context.Background(), newTask(uuid.NewString(), "task"))
	require.NoError(t, err)
	return task
}

func newTodo(taskID string, position int) domain.TodoItem {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return domain.TodoItem{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		Text:      fmt.Sprintf("item %d", position),
		Position:  position,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func positions(todos []domain.TodoItem) []int {
	out := make([]int, len(todos))
	for i, t := range todos {
		out[i] = t.Position
	}
	return out
}
