package fs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/tasks/internal/application/todo"
	"github.com/rezkam/tasks/internal/domain"
	"github.com/rezkam/tasks/internal/infrastructure/persistence/compliance"
)

func TestFSStore_Compliance(t *testing.T) {
	compliance.RunRepositoryComplianceTest(t, func(t *testing.T) (todo.Repository, func()) {
		store, err := NewStore(t.TempDir())
		require.NoError(t, err)

		return store, func() {}
	})
}

func TestFSStore_StatePersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewStore(dir)
	require.NoError(t, err)

	task := &domain.Task{ID: uuid.NewString(), OwnerID: "owner", Title: "persisted", CreatedAt: time.Now().UTC()}
	_, err = first.CreateTask(ctx, task)
	require.NoError(t, err)
	require.NoError(t, first.InsertTodo(ctx, domain.TodoItem{ID: uuid.NewString(), TaskID: task.ID, Text: "A"}))

	second, err := NewStore(dir)
	require.NoError(t, err)

	todos, err := second.FindTodos(ctx, task.ID)
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.Equal(t, "A", todos[0].Text)
}

func TestFSStore_WritesLeaveNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir)
	require.NoError(t, err)

	task := &domain.Task{ID: uuid.NewString(), OwnerID: "owner", Title: "t", CreatedAt: time.Now().UTC()}
	_, err = store.CreateTask(ctx, task)
	require.NoError(t, err)
	for pos := range 5 {
		require.NoError(t, store.InsertTodo(ctx, domain.TodoItem{ID: uuid.NewString(), TaskID: task.ID, Text: "x", Position: pos}))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, entry := range entries {
		assert.False(t, strings.HasSuffix(entry.Name(), ".tmp"), "leftover temp file %s", entry.Name())
	}
}

func TestFSStore_CorruptDocumentIsAnError(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	id := uuid.NewString()
	require.NoError(t, os.WriteFile(filepath.Join(dir, id+".json"), []byte("{not json"), 0o644))

	_, err = store.FindTodos(context.Background(), id)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestFSStore_RejectsPathLikeIDs(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.FindTask(context.Background(), "../etc/passwd")
	require.ErrorIs(t, err, domain.ErrInvalidID)
}
