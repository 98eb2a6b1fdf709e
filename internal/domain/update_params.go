package domain

import "time"

// UpdateTodoParams is a partial update of one item. Nil fields are left as is.
type UpdateTodoParams struct {
	Text *string
	Done *bool
}

// Validate rejects an update that sets nothing or sets invalid text.
func (p UpdateTodoParams) Validate() error {
	if p.Text == nil && p.Done == nil {
		return ErrNothingToUpdate
	}
	if p.Text != nil {
		if _, err := NewText(*p.Text); err != nil {
			return err
		}
	}
	return nil
}

// Update applies p to the item as a single change.
// UpdatedAt moves only if a field actually changed.
func (c *TodoCollection) Update(id string, p UpdateTodoParams, now time.Time) (TodoItem, error) {
	if err := p.Validate(); err != nil {
		return TodoItem{}, err
	}
	i := c.indexOf(id)
	if i < 0 {
		return TodoItem{}, ErrTodoNotFound
	}

	item := &c.items[i]
	changed := false
	if p.Text != nil {
		if text, _ := NewText(*p.Text); item.Text != text.String() {
			item.Text = text.String()
			changed = true
		}
	}
	if p.Done != nil && item.Done != *p.Done {
		item.Done = *p.Done
		changed = true
	}
	if changed {
		item.UpdatedAt = now
	}
	return *item, nil
}
