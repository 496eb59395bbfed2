package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/upb/qms-dashboard/middleware"
	"github.com/upb/qms-dashboard/services/calendar"
	"github.com/upb/qms-dashboard/services/export"
	"github.com/upb/qms-dashboard/services/progress"
	"github.com/upb/qms-dashboard/utils"
)

const maxCalendarDays = 365

// CalendarExportRequest represents a request to export the calendar
type CalendarExportRequest struct {
	Days int `json:"days" validate:"gte=0,lte=365"`
}

// CalendarResponse represents the upcoming events of the quality calendar
type CalendarResponse struct {
	From   string            `json:"from"`
	Days   int               `json:"days"`
	Events []*calendar.Event `json:"events"`
	Total  int               `json:"total"`
}

// CalendarService lists calendar events and builds export plans
type CalendarService interface {
	Upcoming(ctx context.Context, from time.Time, window time.Duration) ([]*calendar.Event, error)
	ExportPlan(from time.Time, window time.Duration, sink export.Sink) progress.Plan
}

// TaskStarter runs progress plans in the background
type TaskStarter interface {
	Start(ctx context.Context, plan progress.Plan) *progress.Task
}

// TaskRegistry keeps started tasks addressable by id
type TaskRegistry interface {
	Add(task *progress.Task)
}

// CalendarHandler handles quality calendar HTTP requests
type CalendarHandler struct {
	calendar    CalendarService
	runner      TaskStarter
	tasks       TaskRegistry
	sink        export.Sink
	defaultDays int
	now         func() time.Time
	logger      *zap.Logger
}

// NewCalendarHandler creates a new CalendarHandler. defaultWindow applies when
// a request names no day count.
func NewCalendarHandler(
	cal CalendarService,
	runner TaskStarter,
	tasks TaskRegistry,
	sink export.Sink,
	defaultWindow time.Duration,
	logger *zap.Logger,
) *CalendarHandler {
	days := int(defaultWindow / (24 * time.Hour))
	if days < 1 {
		days = 7
	}
	if days > maxCalendarDays {
		days = maxCalendarDays
	}
	return &CalendarHandler{
		calendar:    cal,
		runner:      runner,
		tasks:       tasks,
		sink:        sink,
		defaultDays: days,
		now:         time.Now,
		logger:      logger,
	}
}

// HandleUpcoming handles GET /api/v1/calendar?days=N
func (h *CalendarHandler) HandleUpcoming(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	days, err := utils.ParseIntInRange(r.URL.Query().Get("days"), "days", h.defaultDays, 1, maxCalendarDays)
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	from := h.now()
	events, err := h.calendar.Upcoming(ctx, from, window(days))
	if err != nil {
		h.logger.Error("failed to list calendar events",
			zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}
	if events == nil {
		events = []*calendar.Event{}
	}

	_ = utils.WriteOK(w, CalendarResponse{
		From:   from.Format("2006-01-02"),
		Days:   days,
		Events: events,
		Total:  len(events),
	})
}

// HandleExport handles POST /api/v1/calendar/export. The export runs as a
// progress task; the response carries its first snapshot.
func (h *CalendarHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	var req CalendarExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	days := req.Days
	if days == 0 {
		days = h.defaultDays
	}

	plan := h.calendar.ExportPlan(h.now(), window(days), h.sink)
	if snap := middleware.GetSessionFromContext(ctx); snap != nil {
		plan.Owner = snap.ID
	}
	task := h.runner.Start(ctx, plan)
	h.tasks.Add(task)

	h.logger.Info("calendar export started",
		zap.String("request_id", requestID),
		zap.String("task_id", task.ID()),
		zap.Int("days", days))

	_ = utils.WriteAccepted(w, task.Snapshot())
}

func window(days int) time.Duration {
	return time.Duration(days) * 24 * time.Hour
}
