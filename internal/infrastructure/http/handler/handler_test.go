package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/tasks/internal/application/todo"
	httpserver "github.com/rezkam/tasks/internal/infrastructure/http"
	"github.com/rezkam/tasks/internal/infrastructure/http/handler"
	"github.com/rezkam/tasks/internal/infrastructure/persistence/memory"
)

type testAPI struct {
	t       *testing.T
	handler http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	svc := todo.NewService(memory.NewStore(), todo.Config{})
	apiHandler, err := handler.NewOpenAPIRouter(svc)
	require.NoError(t, err)

	srv := httpserver.NewAPIServer(apiHandler, httpserver.ServerConfig{})
	return &testAPI{t: t, handler: srv.Handler()}
}

func (a *testAPI) do(method, path, body string) *httptest.ResponseRecorder {
	a.t.Helper()

	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, r)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Details []struct {
			Field string `json:"field"`
		} `json:"details"`
	} `json:"error"`
}

type todoBody struct {
	Todo handler.TodoDTO `json:"todo"`
}

func (a *testAPI) createTask(owner, title string) handler.TaskDTO {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/tasks", `{"owner_id":"`+owner+`","title":"`+title+`"}`)
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decodeBody[struct {
		Task handler.TaskDTO `json:"task"`
	}](a.t, w).Task
}

func (a *testAPI) addTodo(taskID, text string) handler.TodoDTO {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/tasks/"+taskID+"/todos", `{"text":"`+text+`"}`)
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decodeBody[todoBody](a.t, w).Todo
}

func (a *testAPI) listTodos(taskID string) []handler.TodoDTO {
	a.t.Helper()
	w := a.do(http.MethodGet, "/api/tasks/"+taskID+"/todos", "")
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	return decodeBody[struct {
		Todos []handler.TodoDTO `json:"todos"`
	}](a.t, w).Todos
}

func TestTodos_RoundTrip(t *testing.T) {
	api := newTestAPI(t)
	task := api.createTask("user-1", "Watch lecture")

	a := api.addTodo(task.ID, "take notes")
	b := api.addTodo(task.ID, "  do exercises  ")
	assert.Equal(t, 0, a.Position)
	assert.Equal(t, 1, b.Position)
	assert.Equal(t, "do exercises", b.Text)
	assert.False(t, a.Done)
	assert.Equal(t, task.ID, a.TaskID)

	w := api.do(http.MethodPatch, "/api/tasks/"+task.ID+"/todos/"+a.ID, `{"done":true}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, decodeBody[todoBody](t, w).Todo.Done)

	w = api.do(http.MethodDelete, "/api/tasks/"+task.ID+"/todos/"+a.ID, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{}`, w.Body.String())

	todos := api.listTodos(task.ID)
	require.Len(t, todos, 1)
	assert.Equal(t, b.ID, todos[0].ID)
	assert.Equal(t, 1, todos[0].Position, "survivors keep their position")
}

func TestListTodos_EmptyIsArray(t *testing.T) {
	api := newTestAPI(t)
	task := api.createTask("user-1", "Empty")

	w := api.do(http.MethodGet, "/api/tasks/"+task.ID+"/todos", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"todos":[]}`, w.Body.String())
}

func TestAddTodo_Validation(t *testing.T) {
	api := newTestAPI(t)
	task := api.createTask("user-1", "Task")

	tests := []struct {
		name string
		body string
	}{
		{"whitespace text", `{"text":"   "}`},
		{"empty text", `{"text":""}`},
		{"missing text", `{}`},
		{"wrong type", `{"text":42}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(http.MethodPost, "/api/tasks/"+task.ID+"/todos", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}

	assert.Empty(t, api.listTodos(task.ID), "rejected adds change nothing")
}

func TestAddTodo_WhitespaceReportsTextField(t *testing.T) {
	api := newTestAPI(t)
	task := api.createTask("user-1", "Task")

	w := api.do(http.MethodPost, "/api/tasks/"+task.ID+"/todos", `{"text":"  "}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	body := decodeBody[errorBody](t, w)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	require.Len(t, body.Error.Details, 1)
	assert.Equal(t, "text", body.Error.Details[0].Field)
}

func TestNotFound(t *testing.T) {
	api := newTestAPI(t)
	task := api.createTask("user-1", "Task")
	item := api.addTodo(task.ID, "milk")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"add to unknown task", http.MethodPost, "/api/tasks/nope/todos", `{"text":"x"}`},
		{"list unknown task", http.MethodGet, "/api/tasks/nope/todos", ""},
		{"get unknown task", http.MethodGet, "/api/tasks/nope", ""},
		{"patch unknown todo", http.MethodPatch, "/api/tasks/" + task.ID + "/todos/nope", `{"done":true}`},
		{"toggle unknown todo", http.MethodPost, "/api/tasks/" + task.ID + "/todos/nope/toggle", ""},
		{"delete unknown todo", http.MethodDelete, "/api/tasks/" + task.ID + "/todos/nope", ""},
		{"todo under another task", http.MethodDelete, "/api/tasks/nope/todos/" + item.ID, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := api.do(tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
			assert.Equal(t, "NOT_FOUND", decodeBody[errorBody](t, w).Error.Code)
		})
	}

	assert.Len(t, api.listTodos(task.ID), 1)
}

func TestUpdateTodo(t *testing.T) {
	api := newTestAPI(t)
	task := api.createTask("user-1", "Task")
	item := api.addTodo(task.ID, "milk")
	path := "/api/tasks/" + task.ID + "/todos/" + item.ID

	t.Run("empty patch is rejected", func(t *testing.T) {
		w := api.do(http.MethodPatch, path, `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("text and done together", func(t *testing.T) {
		w := api.do(http.MethodPatch, path, `{"text":"oat milk","done":true}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		got := decodeBody[todoBody](t, w).Todo
		assert.Equal(t, "oat milk", got.Text)
		assert.True(t, got.Done)
		assert.Equal(t, item.ID, got.ID)
		assert.Equal(t, item.Position, got.Position)
	})

	t.Run("invalid text leaves done untouched", func(t *testing.T) {
		w := api.do(http.MethodPatch, path, `{"text":"  ","done":false}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.True(t, api.listTodos(task.ID)[0].Done)
	})
}

func TestToggleTodo(t *testing.T) {
	api := newTestAPI(t)
	task := api.createTask("user-1", "Task")
	item := api.addTodo(task.ID, "milk")
	path := "/api/tasks/" + task.ID + "/todos/" + item.ID + "/toggle"

	w := api.do(http.MethodPost, path, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.True(t, api.listTodos(task.ID)[0].Done)

	w = api.do(http.MethodPost, path, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, api.listTodos(task.ID)[0].Done)
}

func TestTasks(t *testing.T) {
	api := newTestAPI(t)
	first := api.createTask("user-1", "First")
	api.createTask("user-1", "Second")
	api.createTask("user-2", "Other")

	w := api.do(http.MethodGet, "/api/tasks?owner_id=user-1", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	tasks := decodeBody[struct {
		Tasks []handler.TaskDTO `json:"tasks"`
	}](t, w).Tasks
	require.Len(t, tasks, 2)
	assert.Equal(t, "First", tasks[0].Title)

	w = api.do(http.MethodGet, "/api/tasks", "")
	assert.Equal(t, http.StatusBadRequest, w.Code, "owner_id is required")

	api.addTodo(first.ID, "milk")
	w = api.do(http.MethodDelete, "/api/tasks/"+first.ID, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = api.do(http.MethodGet, "/api/tasks/"+first.ID+"/todos", "")
	assert.Equal(t, http.StatusNotFound, w.Code, "collection goes with its task")
}

func TestCreateTask_Validation(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodPost, "/api/tasks", `{"owner_id":"user-1","title":"   "}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody[errorBody](t, w)
	require.Len(t, body.Error.Details, 1)
	assert.Equal(t, "title", body.Error.Details[0].Field)
}

func TestUnknownRoute(t *testing.T) {
	api := newTestAPI(t)

	w := api.do(http.MethodGet, "/api/projects", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
