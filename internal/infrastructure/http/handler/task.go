package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rezkam/tasks/internal/infrastructure/http/response"
)

// CreateTask handles POST /tasks.
func (h *TodoHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if !decode(w, r, &req) {
		return
	}

	task, err := h.todoService.CreateTask(r.Context(), req.OwnerID, req.Title, req.VideoID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to create task via HTTP",
			"owner_id", req.OwnerID,
			"error", err)
		response.FromDomainError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "task created via HTTP",
		"task_id", task.ID,
		"owner_id", task.OwnerID)

	response.Created(w, taskResponse{Task: MapTaskToDTO(task)})
}

// ListTasks handles GET /tasks?owner_id=.
func (h *TodoHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.todoService.ListTasks(r.Context(), r.URL.Query().Get("owner_id"))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.OK(w, listTasksResponse{Tasks: mapTasks(tasks)})
}

// GetTask handles GET /tasks/{taskId}.
func (h *TodoHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.todoService.GetTask(r.Context(), chi.URLParam(r, "taskId"))
	if err != nil {
		response.FromDomainError(w, r, err)
		return
	}

	response.OK(w, taskResponse{Task: MapTaskToDTO(task)})
}

// DeleteTask handles DELETE /tasks/{taskId}.
func (h *TodoHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskId")

	if err := h.todoService.DeleteTask(r.Context(), taskID); err != nil {
		slog.ErrorContext(r.Context(), "failed to delete task via HTTP",
			"task_id", taskID,
			"error", err)
		response.FromDomainError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "task deleted via HTTP", "task_id", taskID)
	response.OK(w, emptyResponse{})
}
