package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rezkam/tasks/internal/application/todo"
	"github.com/rezkam/tasks/internal/domain"
	"github.com/rezkam/tasks/internal/infrastructure/http/response"
)

// collection resolves the {taskId} path parameter, writing the error on failure.
func (h *TodoHandler) collection(w http.ResponseWriter, r *http.Request) (*todo.Collection, bool) {
	coll, err := h.todoService.Collection(r.Context(), chi.URLParam(r, "taskId"))
	if err != nil {
		response.FromDomainError(w, r, err)
		return nil, false
	}
	return coll, true
}

// AddTodo handles POST /tasks/{taskId}/todos.
func (h *TodoHandler) AddTodo(w http.ResponseWriter, r *http.Request) {
	var req addTodoRequest
	if !decode(w, r, &req) {
		return
	}

	coll, ok := h.collection(w, r)
	if !ok {
		return
	}

	item, err := coll.Add(r.Context(), req.Text)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to add todo via HTTP",
			"task_id", coll.TaskID(),
			"error", err)
		response.FromDomainError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "todo added via HTTP",
		"task_id", coll.TaskID(),
		"todo_id", item.ID,
		"position", item.Position)

	response.Created(w, todoResponse{Todo: MapTodoToDTO(*item)})
}

// ListTodos handles GET /tasks/{taskId}/todos.
func (h *TodoHandler) ListTodos(w http.ResponseWriter, r *http.Request) {
	coll, ok := h.collection(w, r)
	if !ok {
		return
	}

	items, err := coll.List(r.Context())
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.OK(w, listTodosResponse{Todos: mapTodos(items)})
}

// UpdateTodo handles PATCH /tasks/{taskId}/todos/{todoId}.
// The body may carry done, text or both; they are applied together.
func (h *TodoHandler) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	var req updateTodoRequest
	if !decode(w, r, &req) {
		return
	}

	coll, ok := h.collection(w, r)
	if !ok {
		return
	}

	todoID := chi.URLParam(r, "todoId")
	item, err := coll.Update(r.Context(), todoID, domain.UpdateTodoParams{Text: req.Text, Done: req.Done})
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to update todo via HTTP",
			"task_id", coll.TaskID(),
			"todo_id", todoID,
			"error", err)
		response.FromDomainError(w, r, err)
		return
	}

	response.OK(w, todoResponse{Todo: MapTodoToDTO(*item)})
}

// ToggleTodo handles POST /tasks/{taskId}/todos/{todoId}/toggle.
func (h *TodoHandler) ToggleTodo(w http.ResponseWriter, r *http.Request) {
	coll, ok := h.collection(w, r)
	if !ok {
		return
	}

	item, err := coll.Toggle(r.Context(), chi.URLParam(r, "todoId"))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.OK(w, todoResponse{Todo: MapTodoToDTO(*item)})
}

// DeleteTodo handles DELETE /tasks/{taskId}/todos/{todoId}.
func (h *TodoHandler) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	coll, ok := h.collection(w, r)
	if !ok {
		return
	}

	todoID := chi.URLParam(r, "todoId")
	if err := coll.Delete(r.Context(), todoID); err != nil {
		slog.ErrorContext(r.Context(), "failed to delete todo via HTTP",
			"task_id", coll.TaskID(),
			"todo_id", todoID,
			"error", err)
		response.FromDomainError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "todo deleted via HTTP",
		"task_id", coll.TaskID(),
		"todo_id", todoID)

	response.OK(w, emptyResponse{})
}
