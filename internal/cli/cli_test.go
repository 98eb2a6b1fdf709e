package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/tasks/internal/application/todo"
	"github.com/rezkam/tasks/internal/domain"
	"github.com/rezkam/tasks/internal/infrastructure/persistence/memory"
)

// run executes todoctl against store and returns trimmed stdout.
func run(t *testing.T, store *memory.Store, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd(func(context.Context) (todo.Repository, error) { return store, nil })
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return strings.TrimSpace(out.String()), err
}

func mustRun(t *testing.T, store *memory.Store, args ...string) string {
	t.Helper()
	out, err := run(t, store, args...)
	require.NoError(t, err, out)
	return out
}

func TestTodoctl_Workflow(t *testing.T) {
	store := memory.NewStore()

	taskID := mustRun(t, store, "task", "create", "--owner", "user-1", "--title", "Lecture 3")
	require.NotEmpty(t, taskID)

	first := mustRun(t, store, "todo", "add", taskID, "read", "chapter", "3")
	second := mustRun(t, store, "todo", "add", taskID, "exercises")

	mustRun(t, store, "todo", "toggle", taskID, first)
	mustRun(t, store, "todo", "edit", taskID, second, "exercises", "1-5")

	list := mustRun(t, store, "todo", "list", taskID)
	lines := strings.Split(list, "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "[x]")
	assert.Contains(t, lines[1], "read chapter 3")
	assert.Contains(t, lines[2], "[ ]")
	assert.Contains(t, lines[2], "exercises 1-5")

	mustRun(t, store, "todo", "done", "--undo", taskID, first)
	mustRun(t, store, "todo", "rm", taskID, second)

	items, err := store.FindTodos(context.Background(), taskID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, first, items[0].ID)
	assert.False(t, items[0].Done)

	tasks := mustRun(t, store, "task", "list", "--owner", "user-1")
	assert.Contains(t, tasks, "Lecture 3")

	mustRun(t, store, "task", "delete", taskID)
	_, err = store.FindTask(context.Background(), taskID)
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestTodoctl_Errors(t *testing.T) {
	store := memory.NewStore()
	taskID := mustRun(t, store, "task", "create", "--owner", "user-1", "--title", "T")

	_, err := run(t, store, "todo", "add", taskID, "   ")
	assert.ErrorIs(t, err, domain.ErrTextRequired)

	_, err = run(t, store, "todo", "toggle", taskID, "missing")
	assert.ErrorIs(t, err, domain.ErrTodoNotFound)

	_, err = run(t, store, "todo", "list", "missing")
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)

	_, err = run(t, store, "task", "create", "--owner", "user-1")
	assert.Error(t, err, "title flag is required")
}
