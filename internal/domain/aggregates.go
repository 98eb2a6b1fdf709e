package domain

import (
	"slices"
	"time"
)

// Task is the parent entity that owns exactly one TodoCollection.
// The collection is created empty alongside the task and destroyed with it.
type Task struct {
	ID      string
	OwnerID string
	Title   string

	// VideoID is an optional external video reference shown with the task.
	VideoID string

	CreatedAt time.Time
}

// TodoItem is one checklist entry of a task.
//
// ID and Position are assigned once at insertion and never change afterwards.
// Position defines display order; deleting an item does not renumber the rest.
type TodoItem struct {
	ID       string
	TaskID   string
	Text     string
	Done     bool
	Position int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TodoCollection is the aggregate holding the ordered items of one task.
// It enforces id uniqueness and append-only positioning; persistence is the
// caller's concern. A TodoCollection is not safe for concurrent use.
type TodoCollection struct {
	taskID string
	items  []TodoItem
}

// NewTodoCollection builds a collection from persisted items.
// The input is copied and sorted by position.
func NewTodoCollection(taskID string, items []TodoItem) *TodoCollection {
	c := &TodoCollection{
		taskID: taskID,
		items:  slices.Clone(items),
	}
	slices.SortFunc(c.items, func(a, b TodoItem) int {
		return a.Position - b.Position
	})
	return c
}

// TaskID returns the owning task's identifier.
func (c *TodoCollection) TaskID() string {
	return c.taskID
}

// Len returns the number of items.
func (c *TodoCollection) Len() int {
	return len(c.items)
}

// Items returns a snapshot of the items ordered by position ascending.
// Mutating the returned slice does not affect the collection.
func (c *TodoCollection) Items() []TodoItem {
	return slices.Clone(c.items)
}

// Find returns the item with the given id.
func (c *TodoCollection) Find(id string) (TodoItem, bool) {
	i := c.indexOf(id)
	if i < 0 {
		return TodoItem{}, false
	}
	return c.items[i], true
}

// NextPosition returns the position the next added item will receive:
// the current max position + 1, or 0 when the collection is empty.
func (c *TodoCollection) NextPosition() int {
	if len(c.items) == 0 {
		return 0
	}
	return c.items[len(c.items)-1].Position + 1
}

// Add appends a new undone item with the given id.
// Returns ErrTextRequired/ErrTextTooLong without changing the collection
// if text is invalid, and ErrDuplicateID if id is already present.
func (c *TodoCollection) Add(id, text string, now time.Time) (TodoItem, error) {
	t, err := NewText(text)
	if err != nil {
		return TodoItem{}, err
	}
	if c.indexOf(id) >= 0 {
		return TodoItem{}, ErrDuplicateID
	}

	item := TodoItem{
		ID:        id,
		TaskID:    c.taskID,
		Text:      t.String(),
		Done:      false,
		Position:  c.NextPosition(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	c.items = append(c.items, item)
	return item, nil
}

// Toggle flips the done flag of the item.
func (c *TodoCollection) Toggle(id string, now time.Time) (TodoItem, error) {
	i := c.indexOf(id)
	if i < 0 {
		return TodoItem{}, ErrTodoNotFound
	}
	c.items[i].Done = !c.items[i].Done
	c.items[i].UpdatedAt = now
	return c.items[i], nil
}

// SetDone sets the done flag of the item to the given value.
// Unlike Toggle, repeating the call leaves the item unchanged.
func (c *TodoCollection) SetDone(id string, done bool, now time.Time) (TodoItem, error) {
	i := c.indexOf(id)
	if i < 0 {
		return TodoItem{}, ErrTodoNotFound
	}
	if c.items[i].Done != done {
		c.items[i].Done = done
		c.items[i].UpdatedAt = now
	}
	return c.items[i], nil
}

// EditText replaces the text of the item. ID and position are kept.
func (c *TodoCollection) EditText(id, text string, now time.Time) (TodoItem, error) {
	t, err := NewText(text)
	if err != nil {
		return TodoItem{}, err
	}
	i := c.indexOf(id)
	if i < 0 {
		return TodoItem{}, ErrTodoNotFound
	}
	c.items[i].Text = t.String()
	c.items[i].UpdatedAt = now
	return c.items[i], nil
}

// Delete removes the item and returns it. Remaining positions are untouched.
func (c *TodoCollection) Delete(id string) (TodoItem, error) {
	i := c.indexOf(id)
	if i < 0 {
		return TodoItem{}, ErrTodoNotFound
	}
	removed := c.items[i]
	c.items = slices.Delete(c.items, i, i+1)
	return removed, nil
}

func (c *TodoCollection) indexOf(id string) int {
	return slices.IndexFunc(c.items, func(item TodoItem) bool {
		return item.ID == id
	})
}
