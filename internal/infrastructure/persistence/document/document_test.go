package document

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/tasks/internal/domain"
)

func newDoc(t *testing.T) *Document {
	t.Helper()
	return New(&domain.Task{ID: "task-1", OwnerID: "owner", Title: "Video", CreatedAt: time.Now()})
}

func TestDocument_InsertKeepsPositionOrder(t *testing.T) {
	doc := newDoc(t)

	require.NoError(t, doc.Insert(domain.TodoItem{ID: "c", Text: "C", Position: 5}))
	require.NoError(t, doc.Insert(domain.TodoItem{ID: "a", Text: "A", Position: 0}))
	require.NoError(t, doc.Insert(domain.TodoItem{ID: "b", Text: "B", Position: 2}))

	items := doc.Items()
	require.Len(t, items, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{items[0].ID, items[1].ID, items[2].ID})
	for _, item := range items {
		assert.Equal(t, "task-1", item.TaskID)
	}
}

func TestDocument_InsertConflicts(t *testing.T) {
	doc := newDoc(t)
	require.NoError(t, doc.Insert(domain.TodoItem{ID: "a", Text: "A", Position: 0}))

	err := doc.Insert(domain.TodoItem{ID: "a", Text: "again", Position: 1})
	assert.ErrorIs(t, err, domain.ErrDuplicateID)

	err = doc.Insert(domain.TodoItem{ID: "b", Text: "B", Position: 0})
	assert.ErrorIs(t, err, domain.ErrPositionTaken)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestDocument_UpdateAndDelete(t *testing.T) {
	doc := newDoc(t)
	require.NoError(t, doc.Insert(domain.TodoItem{ID: "a", Text: "A", Position: 0}))

	later := time.Now().Add(time.Minute)
	require.NoError(t, doc.Update(domain.TodoItem{ID: "a", Text: "A2", Done: true, Position: 9, UpdatedAt: later}))

	items := doc.Items()
	assert.Equal(t, "A2", items[0].Text)
	assert.True(t, items[0].Done)
	assert.Equal(t, 0, items[0].Position, "position is immutable")

	require.NoError(t, doc.Delete("a"))
	assert.Empty(t, doc.Items())

	assert.ErrorIs(t, doc.Delete("a"), domain.ErrTodoNotFound)
	assert.ErrorIs(t, doc.Update(domain.TodoItem{ID: "a"}), domain.ErrNotFound)
}

func TestDocument_EncodeDecode(t *testing.T) {
	doc := newDoc(t)
	require.NoError(t, doc.Insert(domain.TodoItem{ID: "a", Text: "A", Position: 0}))

	data, err := doc.Encode()
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "owner", decoded.DomainTask().OwnerID)
	assert.Len(t, decoded.Items(), 1)

	_, err = Decode([]byte("{"))
	assert.Error(t, err)
}
