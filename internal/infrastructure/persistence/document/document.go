// Package document is the JSON layout shared by the blob-style backends
// (fs, gcs): one document per task holding the task and its ordered items.
package document

import (
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/rezkam/tasks/internal/domain"
)

// Document is one task with its todo collection.
type Document struct {
	Task  TaskRecord   `json:"task"`
	Todos []TodoRecord `json:"todos"`
}

// TaskRecord is the persisted form of domain.Task.
type TaskRecord struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	VideoID   string    `json:"video_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TodoRecord is the persisted form of domain.TodoItem.
type TodoRecord struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Done      bool      `json:"done"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New returns a document for a new task with an empty collection.
func New(task *domain.Task) *Document {
	return &Document{
		Task: TaskRecord{
			ID:        task.ID,
			OwnerID:   task.OwnerID,
			Title:     task.Title,
			VideoID:   task.VideoID,
			CreatedAt: task.CreatedAt.UTC(),
		},
		Todos: []TodoRecord{},
	}
}

// Decode parses a document.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal document: %w", err)
	}
	return &doc, nil
}

// Encode serializes the document.
func (d *Document) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal document: %w", err)
	}
	return data, nil
}

// DomainTask converts the task record.
func (d *Document) DomainTask() *domain.Task {
	return &domain.Task{
		ID:        d.Task.ID,
		OwnerID:   d.Task.OwnerID,
		Title:     d.Task.Title,
		VideoID:   d.Task.VideoID,
		CreatedAt: d.Task.CreatedAt.UTC(),
	}
}

// Items converts the todo records, ordered by position.
func (d *Document) Items() []domain.TodoItem {
	items := make([]domain.TodoItem, 0, len(d.Todos))
	for _, rec := range d.Todos {
		items = append(items, domain.TodoItem{
			ID:        rec.ID,
			TaskID:    d.Task.ID,
			Text:      rec.Text,
			Done:      rec.Done,
			Position:  rec.Position,
			CreatedAt: rec.CreatedAt.UTC(),
			UpdatedAt: rec.UpdatedAt.UTC(),
		})
	}
	slices.SortFunc(items, func(a, b domain.TodoItem) int { return a.Position - b.Position })
	return items
}

// Insert adds an item, keeping records ordered by position.
func (d *Document) Insert(item domain.TodoItem) error {
	for _, rec := range d.Todos {
		if rec.ID == item.ID {
			return domain.ErrDuplicateID
		}
		if rec.Position == item.Position {
			return domain.ErrPositionTaken
		}
	}

	d.Todos = append(d.Todos, TodoRecord{
		ID:        item.ID,
		Text:      item.Text,
		Done:      item.Done,
		Position:  item.Position,
		CreatedAt: item.CreatedAt.UTC(),
		UpdatedAt: item.UpdatedAt.UTC(),
	})
	slices.SortFunc(d.Todos, func(a, b TodoRecord) int { return a.Position - b.Position })
	return nil
}

// Update overwrites text, done and updated_at of an item.
func (d *Document) Update(item domain.TodoItem) error {
	i := d.indexOf(item.ID)
	if i < 0 {
		return domain.ErrTodoNotFound
	}
	d.Todos[i].Text = item.Text
	d.Todos[i].Done = item.Done
	d.Todos[i].UpdatedAt = item.UpdatedAt.UTC()
	return nil
}

// Delete removes an item.
func (d *Document) Delete(id string) error {
	i := d.indexOf(id)
	if i < 0 {
		return domain.ErrTodoNotFound
	}
	d.Todos = slices.Delete(d.Todos, i, i+1)
	return nil
}

func (d *Document) indexOf(id string) int {
	return slices.IndexFunc(d.Todos, func(rec TodoRecord) bool { return rec.ID == id })
}
