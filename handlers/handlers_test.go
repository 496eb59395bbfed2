package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/upb/qms-dashboard/internal/authz"
	"github.com/upb/qms-dashboard/internal/session"
	"github.com/upb/qms-dashboard/middleware"
	"github.com/upb/qms-dashboard/repositories"
	"github.com/upb/qms-dashboard/repositories/memory"
	"github.com/upb/qms-dashboard/services/activity"
	"github.com/upb/qms-dashboard/services/defaults"
	"github.com/upb/qms-dashboard/services/deletion"
	"github.com/upb/qms-dashboard/services/dispatch"
	"github.com/upb/qms-dashboard/services/export"
	"github.com/upb/qms-dashboard/services/progress"
)

// testEnv wires the real services over seeded memory repositories
type testEnv struct {
	repos      *repositories.Repositories
	sessions   *session.MemoryStore
	tokens     *session.Tokens
	runner     *progress.Runner
	tasks      *progress.Registry
	sink       *export.MemorySink
	deletions  *deletion.Service
	activity   *activity.Service
	dispatcher *dispatch.Dispatcher
}

func newTestEnv(t *testing.T, stepDelay time.Duration) *testEnv {
	t.Helper()
	logger := zap.NewNop()

	sink, err := export.NewMemorySink(10)
	require.NoError(t, err)

	env := &testEnv{
		repos:     memory.NewRepositories(memory.NewStore(true, time.Now()), 50),
		sessions:  session.NewMemoryStore(),
		tokens:    session.NewTokens("test-secret", time.Hour),
		runner:    progress.NewRunner(stepDelay, logger),
		tasks:     progress.NewRegistry(20, time.Minute),
		sink:      sink,
		deletions: deletion.NewService(20, time.Minute, logger),
	}
	env.activity = activity.NewService(env.repos.Activity, logger, activity.DefaultConfig())
	require.NoError(t, env.activity.Start())

	h := defaults.NewHandlers(defaults.Deps{
		Reports:       env.repos.Reports,
		Runner:        env.runner,
		Tasks:         env.tasks,
		Sink:          env.sink,
		Confirmations: env.deletions,
	}, logger)
	env.dispatcher = dispatch.NewDispatcher(dispatch.DefaultTable(h), logger, dispatch.WithRecorder(env.activity))

	t.Cleanup(func() {
		env.runner.Shutdown()
		_ = env.activity.Stop(time.Second)
	})
	return env
}

func (e *testEnv) sessionFor(t *testing.T, role authz.Role) *session.Snapshot {
	t.Helper()
	snap, err := e.sessions.Create(context.Background(), role)
	require.NoError(t, err)
	return snap
}

// newRequest builds a request carrying snap and chi URL params
func newRequest(method, target string, body any, snap *session.Snapshot, params map[string]string) *http.Request {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)

	ctx := req.Context()
	if snap != nil {
		ctx = middleware.WithSession(ctx, snap)
	}
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}

// decodeBody decodes a JSON response envelope
func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	return response
}

// decodeData returns the "data" member of a success envelope
func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	response := decodeBody(t, w)
	data, ok := response["data"].(map[string]interface{})
	require.True(t, ok, "response has no data object: %v", response)
	return data
}

func waitTask(t *testing.T, tasks *progress.Registry, id string) progress.Snapshot {
	t.Helper()
	task, ok := tasks.Get(id)
	require.True(t, ok, "task %s not registered", id)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snap, err := task.Wait(ctx)
	require.NoError(t, err)
	return snap
}

func toStrings(v interface{}) []string {
	items, _ := v.([]interface{})
	out := make([]string, len(items))
	for i, item := range items {
		out[i], _ = item.(string)
	}
	return out
}

func rawBody(s string) io.ReadCloser {
	return io.NopCloser(strings.NewReader(s))
}
