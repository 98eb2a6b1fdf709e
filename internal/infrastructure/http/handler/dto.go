package handler

import (
	"time"

	"github.com/rezkam/tasks/internal/domain"
)

// TaskDTO is the wire form of a task.
type TaskDTO struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	VideoID   string    `json:"video_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TodoDTO is the wire form of a todo item.
type TodoDTO struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	Text      string    `json:"text"`
	Done      bool      `json:"done"`
	Position  int       `json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type createTaskRequest struct {
	OwnerID string `json:"owner_id"`
	Title   string `json:"title"`
	VideoID string `json:"video_id"`
}

type addTodoRequest struct {
	Text string `json:"text"`
}

type updateTodoRequest struct {
	Text *string `json:"text"`
	Done *bool   `json:"done"`
}

type taskResponse struct {
	Task TaskDTO `json:"task"`
}

type listTasksResponse struct {
	Tasks []TaskDTO `json:"tasks"`
}

type todoResponse struct {
	Todo TodoDTO `json:"todo"`
}

type listTodosResponse struct {
	Todos []TodoDTO `json:"todos"`
}

type emptyResponse struct{}

// MapTaskToDTO converts a domain task to its wire form.
func MapTaskToDTO(t *domain.Task) TaskDTO {
	return TaskDTO{
		ID:        t.ID,
		OwnerID:   t.OwnerID,
		Title:     t.Title,
		VideoID:   t.VideoID,
		CreatedAt: t.CreatedAt.UTC(),
	}
}

// MapTodoToDTO converts a domain item to its wire form.
func MapTodoToDTO(item domain.TodoItem) TodoDTO {
	return TodoDTO{
		ID:        item.ID,
		TaskID:    item.TaskID,
		Text:      item.Text,
		Done:      item.Done,
		Position:  item.Position,
		CreatedAt: item.CreatedAt.UTC(),
		UpdatedAt: item.UpdatedAt.UTC(),
	}
}

// Lists are never encoded as null.
func mapTasks(tasks []*domain.Task) []TaskDTO {
	out := make([]TaskDTO, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, MapTaskToDTO(t))
	}
	return out
}

func mapTodos(items []domain.TodoItem) []TodoDTO {
	out := make([]TodoDTO, 0, len(items))
	for _, item := range items {
		out = append(out, MapTodoToDTO(item))
	}
	return out
}
