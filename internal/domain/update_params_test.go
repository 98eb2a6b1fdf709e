package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateTodoParams_Validate(t *testing.T) {
	text := func(s string) *string { return &s }
	done := true

	tests := []struct {
		name    string
		params  UpdateTodoParams
		wantErr error
	}{
		{"empty", UpdateTodoParams{}, ErrNothingToUpdate},
		{"whitespace text", UpdateTodoParams{Text: text("  ")}, ErrTextRequired},
		{"done only", UpdateTodoParams{Done: &done}, nil},
		{"text only", UpdateTodoParams{Text: text("eggs")}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, errors.Is(err, ErrValidation))
		})
	}
}

func TestTodoCollection_Update(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(time.Minute)

	c := NewTodoCollection("task-1", nil)
	_, err := c.Add("a", "milk", t0)
	require.NoError(t, err)

	text := "oat milk"
	done := true
	item, err := c.Update("a", UpdateTodoParams{Text: &text, Done: &done}, t1)
	require.NoError(t, err)
	assert.Equal(t, "oat milk", item.Text)
	assert.True(t, item.Done)
	assert.Equal(t, 0, item.Position)
	assert.Equal(t, t1, item.UpdatedAt)

	unchanged, err := c.Update("a", UpdateTodoParams{Done: &done}, t1.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, t1, unchanged.UpdatedAt, "no-op update keeps the timestamp")

	empty := " "
	_, err = c.Update("a", UpdateTodoParams{Text: &empty, Done: &done}, t1)
	assert.ErrorIs(t, err, ErrTextRequired)
	got, _ := c.Find("a")
	assert.Equal(t, "oat milk", got.Text, "rejected update changes nothing")

	_, err = c.Update("missing", UpdateTodoParams{Done: &done}, t1)
	assert.ErrorIs(t, err, ErrTodoNotFound)
}
