package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func TestTodoCollection_AddAppendsWithIncreasingPositions(t *testing.T) {
	c := NewTodoCollection("task-1", nil)

	a, err := c.Add("a", "A", testNow)
	require.NoError(t, err)
	b, err := c.Add("b", "B", testNow)
	require.NoError(t, err)

	assert.Equal(t, 0, a.Position)
	assert.Equal(t, 1, b.Position)
	assert.False(t, a.Done)
	assert.Equal(t, "task-1", b.TaskID)

	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "A", items[0].Text)
	assert.Equal(t, "B", items[1].Text)
}

func TestTodoCollection_AddTrimsText(t *testing.T) {
	c := NewTodoCollection("task-1", nil)

	item, err := c.Add("a", "  buy milk \n", testNow)
	require.NoError(t, err)
	assert.Equal(t, "buy milk", item.Text)
}

func TestTodoCollection_AddRejectsEmptyText(t *testing.T) {
	for _, text := range []string{"", " ", "\t\n"} {
		c := NewTodoCollection("task-1", []TodoItem{{ID: "x", Text: "X", Position: 0}})

		_, err := c.Add("a", text, testNow)

		require.ErrorIs(t, err, ErrTextRequired)
		assert.ErrorIs(t, err, ErrValidation)
		assert.Equal(t, 1, c.Len(), "collection must be unchanged for %q", text)
	}
}

func TestTodoCollection_AddRejectsDuplicateID(t *testing.T) {
	c := NewTodoCollection("task-1", nil)
	_, err := c.Add("a", "A", testNow)
	require.NoError(t, err)

	_, err = c.Add("a", "again", testNow)

	require.ErrorIs(t, err, ErrDuplicateID)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, 1, c.Len())
}

func TestTodoCollection_ToggleRoundTrip(t *testing.T) {
	c := NewTodoCollection("task-1", nil)
	_, err := c.Add("a", "A", testNow)
	require.NoError(t, err)

	once, err := c.Toggle("a", testNow)
	require.NoError(t, err)
	assert.True(t, once.Done)

	twice, err := c.Toggle("a", testNow)
	require.NoError(t, err)
	assert.False(t, twice.Done)
	assert.Equal(t, 0, twice.Position)
}

func TestTodoCollection_SetDoneIsIdempotent(t *testing.T) {
	c := NewTodoCollection("task-1", nil)
	_, err := c.Add("a", "A", testNow)
	require.NoError(t, err)

	later := testNow.Add(time.Minute)
	first, err := c.SetDone("a", true, later)
	require.NoError(t, err)
	second, err := c.SetDone("a", true, later.Add(time.Minute))
	require.NoError(t, err)

	assert.True(t, second.Done)
	assert.Equal(t, first.UpdatedAt, second.UpdatedAt, "no-op must not touch UpdatedAt")
}

func TestTodoCollection_EditTextKeepsIdentity(t *testing.T) {
	c := NewTodoCollection("task-1", nil)
	_, err := c.Add("a", "A", testNow)
	require.NoError(t, err)
	_, err = c.Add("b", "B", testNow)
	require.NoError(t, err)

	edited, err := c.EditText("b", "Bee", testNow)
	require.NoError(t, err)
	assert.Equal(t, "b", edited.ID)
	assert.Equal(t, 1, edited.Position)
	assert.Equal(t, "Bee", edited.Text)

	_, err = c.EditText("b", "   ", testNow)
	require.ErrorIs(t, err, ErrTextRequired)
	item, _ := c.Find("b")
	assert.Equal(t, "Bee", item.Text)
}

func TestTodoCollection_DeleteKeepsSurvivorPositions(t *testing.T) {
	c := NewTodoCollection("task-1", nil)
	for _, id := range []string{"a", "b", "c"} {
		_, err := c.Add(id, id, testNow)
		require.NoError(t, err)
	}

	removed, err := c.Delete("b")
	require.NoError(t, err)
	assert.Equal(t, "b", removed.ID)

	items := c.Items()
	require.Len(t, items, 2)
	assert.Equal(t, 0, items[0].Position)
	assert.Equal(t, 2, items[1].Position)

	next, err := c.Add("d", "d", testNow)
	require.NoError(t, err)
	assert.Equal(t, 3, next.Position)
}

func TestTodoCollection_UnknownIDIsNotFound(t *testing.T) {
	c := NewTodoCollection("task-1", []TodoItem{{ID: "a", Text: "A"}})

	_, toggleErr := c.Toggle("missing", testNow)
	_, setErr := c.SetDone("missing", true, testNow)
	_, editErr := c.EditText("missing", "x", testNow)
	_, deleteErr := c.Delete("missing")

	for _, err := range []error{toggleErr, setErr, editErr, deleteErr} {
		require.ErrorIs(t, err, ErrTodoNotFound)
		assert.True(t, errors.Is(err, ErrNotFound))
	}
	items := c.Items()
	require.Len(t, items, 1)
	assert.False(t, items[0].Done)
}

func TestTodoCollection_RoundTripScenario(t *testing.T) {
	c := NewTodoCollection("task-1", nil)

	a, err := c.Add("a", "A", testNow)
	require.NoError(t, err)
	_, err = c.Add("b", "B", testNow)
	require.NoError(t, err)

	_, err = c.Toggle(a.ID, testNow)
	require.NoError(t, err)
	items := c.Items()
	assert.True(t, items[0].Done)
	assert.False(t, items[1].Done)

	_, err = c.Delete(a.ID)
	require.NoError(t, err)
	items = c.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "B", items[0].Text)
	assert.Equal(t, 1, items[0].Position)
	assert.False(t, items[0].Done)
}

func TestNewTodoCollection_SortsByPosition(t *testing.T) {
	c := NewTodoCollection("task-1", []TodoItem{
		{ID: "c", Position: 7},
		{ID: "a", Position: 0},
		{ID: "b", Position: 3},
	})

	items := c.Items()
	assert.Equal(t, []string{"a", "b", "c"}, []string{items[0].ID, items[1].ID, items[2].ID})
	assert.Equal(t, 8, c.NextPosition())
}

func TestTodoCollection_ItemsIsSnapshot(t *testing.T) {
	c := NewTodoCollection("task-1", nil)
	_, err := c.Add("a", "A", testNow)
	require.NoError(t, err)

	snapshot := c.Items()
	snapshot[0].Text = "mutated"

	item, ok := c.Find("a")
	require.True(t, ok)
	assert.Equal(t, "A", item.Text)
}
