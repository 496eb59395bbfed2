package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/upb/qms-dashboard/middleware"
	"github.com/upb/qms-dashboard/services"
	"github.com/upb/qms-dashboard/services/progress"
	"github.com/upb/qms-dashboard/utils"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = 30 * time.Second
)

// TaskResponse is a task snapshot plus its transition history
type TaskResponse struct {
	progress.Snapshot
	History []progress.Snapshot `json:"history"`
}

// TaskStore looks up tasks by id
type TaskStore interface {
	Get(id string) (*progress.Task, bool)
}

// TaskCancelRecorder records cancelled tasks in the activity trail
type TaskCancelRecorder interface {
	LogTaskCancelled(ctx context.Context, snap progress.Snapshot) error
}

// TaskHandler handles progress task HTTP requests
type TaskHandler struct {
	tasks    TaskStore
	recorder TaskCancelRecorder
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewTaskHandler creates a new TaskHandler. Websocket upgrades are accepted
// from allowedOrigins; an empty list accepts same-origin requests only.
func NewTaskHandler(tasks TaskStore, recorder TaskCancelRecorder, allowedOrigins []string, logger *zap.Logger) *TaskHandler {
	h := &TaskHandler{
		tasks:    tasks,
		recorder: recorder,
		logger:   logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			return allowOrigin(r, allowedOrigins)
		},
	}
	return h
}

// HandleGetTask handles GET /api/v1/tasks/{id}
func (h *TaskHandler) HandleGetTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.lookup(w, r)
	if !ok {
		return
	}

	_ = utils.WriteOK(w, TaskResponse{Snapshot: task.Snapshot(), History: task.History()})
}

// HandleCancelTask handles DELETE /api/v1/tasks/{id}
func (h *TaskHandler) HandleCancelTask(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	task, ok := h.lookup(w, r)
	if !ok {
		return
	}

	if !task.Cancel() {
		HandleServiceError(w, services.ErrTaskFinished, h.logger)
		return
	}

	snap := task.Snapshot()
	h.logger.Info("task cancelled",
		zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
		zap.String("task_id", snap.TaskID),
		zap.String("kind", snap.Kind),
		zap.Int("percent", snap.Percent))

	if h.recorder != nil {
		if err := h.recorder.LogTaskCancelled(ctx, snap); err != nil {
			h.logger.Warn("failed to record task cancellation", zap.Error(err))
		}
	}

	_ = utils.WriteOK(w, snap)
}

// HandleStreamTask handles GET /api/v1/tasks/{id}/stream. Each transition is
// sent as a JSON text message; the connection closes after the terminal one.
func (h *TaskHandler) HandleStreamTask(w http.ResponseWriter, r *http.Request) {
	task, ok := h.lookup(w, r)
	if !ok {
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	updates, unsubscribe := task.Subscribe()
	defer unsubscribe()

	// The read loop only handles control frames and notices a closed client.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(streamPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.logger.Debug("task stream read error", zap.Error(err))
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case snap, ok := <-updates:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "task finished"))
				return
			}
			if err := conn.WriteJSON(snap); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *TaskHandler) lookup(w http.ResponseWriter, r *http.Request) (*progress.Task, bool) {
	id := chi.URLParam(r, "id")
	if err := utils.ValidateUUID(id); err != nil {
		HandleServiceError(w, services.ErrTaskNotFound, h.logger)
		return nil, false
	}

	// tasks of other sessions look the same as unknown ones
	task, ok := h.tasks.Get(id)
	snap := middleware.GetSessionFromContext(r.Context())
	if !ok || snap == nil || task.Owner() != snap.ID {
		HandleServiceError(w, services.ErrTaskNotFound, h.logger)
		return nil, false
	}
	return task, true
}

// allowOrigin accepts requests without an Origin header, same-host origins
// and origins listed in allowed. "*" allows any origin.
func allowOrigin(r *http.Request, allowed []string) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, a := range allowed {
		if a == "*" || a == origin {
			return true
		}
	}
	return origin == "http://"+r.Host || origin == "https://"+r.Host
}
