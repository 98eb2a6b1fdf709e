// Package handler adapts HTTP requests to todo.Service calls.
package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rezkam/tasks/internal/application/todo"
	mw "github.com/rezkam/tasks/internal/infrastructure/http/middleware"
	"github.com/rezkam/tasks/internal/infrastructure/http/openapi"
	"github.com/rezkam/tasks/internal/infrastructure/http/response"
)

// BasePath is where the API router is expected to be mounted.
const BasePath = "/api"

// TodoHandler serves the task and todo endpoints.
type TodoHandler struct {
	todoService *todo.Service
}

// NewTodoHandler creates a new HTTP API handler.
func NewTodoHandler(todoService *todo.Service) *TodoHandler {
	return &TodoHandler{todoService: todoService}
}

// NewOpenAPIRouter creates the API router with request validation against
// the embedded OpenAPI document. Production code and tests both use it.
func NewOpenAPIRouter(todoService *todo.Service) (http.Handler, error) {
	h := NewTodoHandler(todoService)

	spec, err := openapi.Spec()
	if err != nil {
		return nil, fmt.Errorf("failed to load OpenAPI spec: %w", err)
	}

	r := chi.NewRouter()
	r.Use(mw.NewValidator(spec, mw.ValidationConfig{BasePath: BasePath, MultiError: true}))
	h.Routes(r)

	return r, nil
}

// Routes registers the endpoints on r.
func (h *TodoHandler) Routes(r chi.Router) {
	r.Route("/tasks", func(r chi.Router) {
		r.Post("/", h.CreateTask)
		r.Get("/", h.ListTasks)

		r.Route("/{taskId}", func(r chi.Router) {
			r.Get("/", h.GetTask)
			r.Delete("/", h.DeleteTask)

			r.Route("/todos", func(r chi.Router) {
				r.Post("/", h.AddTodo)
				r.Get("/", h.ListTodos)
				r.Patch("/{todoId}", h.UpdateTodo)
				r.Delete("/{todoId}", h.DeleteTodo)
				r.Post("/{todoId}/toggle", h.ToggleTodo)
			})
		})
	})
}

// decode reads a JSON body into v, writing a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		response.BadRequest(w, "invalid JSON")
		return false
	}
	return true
}
