package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/upb/qms-dashboard/internal/authz"
	"github.com/upb/qms-dashboard/internal/session"
	"github.com/upb/qms-dashboard/middleware"
	"github.com/upb/qms-dashboard/services/progress"
)

// MockTaskCancelRecorder is a mock implementation of TaskCancelRecorder
type MockTaskCancelRecorder struct {
	mock.Mock
}

func (m *MockTaskCancelRecorder) LogTaskCancelled(ctx context.Context, snap progress.Snapshot) error {
	args := m.Called(ctx, snap)
	return args.Error(0)
}

func testPlan() progress.Plan {
	return progress.Plan{
		Kind: "test",
		Steps: []progress.Step{
			{Percent: 40, Message: "Working..."},
			{Percent: 100, Message: "Done"},
		},
		Finish: func(ctx context.Context) (any, error) {
			return map[string]string{"status": "ok"}, nil
		},
	}
}

func startTask(t *testing.T, env *testEnv, owner *session.Snapshot) *progress.Task {
	t.Helper()
	plan := testPlan()
	plan.Owner = owner.ID
	task := env.runner.Start(context.Background(), plan)
	env.tasks.Add(task)
	return task
}

func taskParams(id string) map[string]string {
	return map[string]string{"id": id}
}

// streamServer serves task streams to requests carrying snap
func streamServer(h *TaskHandler, snap *session.Snapshot) *httptest.Server {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithSession(req.Context(), snap)))
		})
	})
	r.Get("/tasks/{id}/stream", h.HandleStreamTask)
	return httptest.NewServer(r)
}

func TestTaskHandler_HandleGetTask(t *testing.T) {
	env := newTestEnv(t, 0)
	h := NewTaskHandler(env.tasks, nil, nil, zap.NewNop())
	owner := env.sessionFor(t, authz.RoleAdmin)

	t.Run("finished task with history", func(t *testing.T) {
		task := startTask(t, env, owner)
		waitTask(t, env.tasks, task.ID())

		w := httptest.NewRecorder()
		h.HandleGetTask(w, newRequest(http.MethodGet, "/api/v1/tasks/"+task.ID(), nil, owner, taskParams(task.ID())))

		require.Equal(t, http.StatusOK, w.Code)
		data := decodeData(t, w)
		assert.Equal(t, task.ID(), data["task_id"])
		assert.Equal(t, "complete", data["state"])
		assert.Equal(t, float64(100), data["percent"])

		history := data["history"].([]interface{})
		states := make([]string, len(history))
		for i, entry := range history {
			states[i], _ = entry.(map[string]interface{})["state"].(string)
		}
		assert.Equal(t, []string{"idle", "running", "running", "running", "complete"}, states)
	})

	foreign := startTask(t, env, env.sessionFor(t, authz.RoleAuditor))
	waitTask(t, env.tasks, foreign.ID())

	tests := []struct {
		name string
		id   string
		snap *session.Snapshot
	}{
		{name: "malformed id", id: "not-a-uuid", snap: owner},
		{name: "unknown id", id: "9b2f7c1e-3c4d-4e5f-8a9b-0c1d2e3f4a5b", snap: owner},
		{name: "task of another session", id: foreign.ID(), snap: owner},
		{name: "no session", id: foreign.ID()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.HandleGetTask(w, newRequest(http.MethodGet, "/api/v1/tasks/"+tt.id, nil, tt.snap, taskParams(tt.id)))
			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.NotContains(t, w.Body.String(), "history")
		})
	}
}

func TestTaskHandler_HandleCancelTask(t *testing.T) {
	env := newTestEnv(t, time.Hour)
	recorder := new(MockTaskCancelRecorder)
	h := NewTaskHandler(env.tasks, recorder, nil, zap.NewNop())
	owner := env.sessionFor(t, authz.RoleAuditor)

	task := startTask(t, env, owner)
	recorder.On("LogTaskCancelled", mock.Anything, mock.MatchedBy(func(s progress.Snapshot) bool {
		return s.TaskID == task.ID() && s.State == progress.StateCancelled
	})).Return(nil).Once()

	t.Run("another session cannot cancel", func(t *testing.T) {
		w := httptest.NewRecorder()
		h.HandleCancelTask(w, newRequest(http.MethodDelete, "/api/v1/tasks/"+task.ID(), nil,
			env.sessionFor(t, authz.RoleAdmin), taskParams(task.ID())))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, progress.StateRunning, task.Snapshot().State)
	})

	w := httptest.NewRecorder()
	h.HandleCancelTask(w, newRequest(http.MethodDelete, "/api/v1/tasks/"+task.ID(), nil, owner, taskParams(task.ID())))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cancelled", decodeData(t, w)["state"])

	w = httptest.NewRecorder()
	h.HandleCancelTask(w, newRequest(http.MethodDelete, "/api/v1/tasks/"+task.ID(), nil, owner, taskParams(task.ID())))
	assert.Equal(t, http.StatusConflict, w.Code)

	recorder.AssertExpectations(t)
}

func TestTaskHandler_HandleStreamTask(t *testing.T) {
	env := newTestEnv(t, 20*time.Millisecond)
	h := NewTaskHandler(env.tasks, nil, nil, zap.NewNop())
	owner := env.sessionFor(t, authz.RoleAuditor)

	server := streamServer(h, owner)
	defer server.Close()

	task := startTask(t, env, owner)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/tasks/" + task.ID() + "/stream"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var received []progress.Snapshot
	for {
		var snap progress.Snapshot
		if err := conn.ReadJSON(&snap); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error: %v", err)
			break
		}
		received = append(received, snap)
	}

	require.NotEmpty(t, received)
	last := received[len(received)-1]
	assert.Equal(t, progress.StateComplete, last.State)
	assert.Equal(t, 100, last.Percent)
	for i := 1; i < len(received); i++ {
		assert.GreaterOrEqual(t, received[i].Percent, received[i-1].Percent)
	}
}

func TestTaskHandler_StreamRejectsForeignOrigin(t *testing.T) {
	env := newTestEnv(t, 0)
	h := NewTaskHandler(env.tasks, nil, []string{"http://dashboard.local"}, zap.NewNop())
	owner := env.sessionFor(t, authz.RoleAuditor)

	server := streamServer(h, owner)
	defer server.Close()

	task := startTask(t, env, owner)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/tasks/" + task.ID() + "/stream"

	header := http.Header{}
	header.Set("Origin", "http://evil.example")
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestTaskHandler_StreamRejectsOtherSession(t *testing.T) {
	env := newTestEnv(t, time.Hour)
	h := NewTaskHandler(env.tasks, nil, nil, zap.NewNop())

	server := streamServer(h, env.sessionFor(t, authz.RoleAdmin))
	defer server.Close()

	task := startTask(t, env, env.sessionFor(t, authz.RoleAuditor))
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/tasks/" + task.ID() + "/stream"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAllowOrigin(t *testing.T) {
	tests := []struct {
		name    string
		origin  string
		allowed []string
		want    bool
	}{
		{name: "no origin", origin: "", want: true},
		{name: "same host", origin: "http://example.com", want: true},
		{name: "listed", origin: "http://dashboard.local", allowed: []string{"http://dashboard.local"}, want: true},
		{name: "wildcard", origin: "http://anything", allowed: []string{"*"}, want: true},
		{name: "foreign", origin: "http://evil.example", allowed: []string{"http://dashboard.local"}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "http://example.com/stream", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, allowOrigin(req, tt.allowed))
		})
	}
}
