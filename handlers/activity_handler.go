package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/upb/qms-dashboard/middleware"
	"github.com/upb/qms-dashboard/models"
	"github.com/upb/qms-dashboard/services/activity"
	"github.com/upb/qms-dashboard/utils"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 500
)

// ActivityResponse represents the recent activity trail
type ActivityResponse struct {
	Entries []*models.ActivityLog `json:"entries"`
	Total   int                   `json:"total"`
	Stats   activity.Stats        `json:"stats"`
}

// ActivityReader reads the activity trail
type ActivityReader interface {
	Recent(ctx context.Context, limit int) ([]*models.ActivityLog, error)
	GetStats() activity.Stats
}

// ActivityHandler handles activity trail HTTP requests
type ActivityHandler struct {
	activity ActivityReader
	logger   *zap.Logger
}

// NewActivityHandler creates a new ActivityHandler
func NewActivityHandler(reader ActivityReader, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{
		activity: reader,
		logger:   logger,
	}
}

// HandleListActivity handles GET /api/v1/activity?limit=N
func (h *ActivityHandler) HandleListActivity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit, err := utils.ParseIntInRange(r.URL.Query().Get("limit"), "limit", defaultActivityLimit, 1, maxActivityLimit)
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	entries, err := h.activity.Recent(ctx, limit)
	if err != nil {
		h.logger.Error("failed to list activity",
			zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}
	if entries == nil {
		entries = []*models.ActivityLog{}
	}

	_ = utils.WriteOK(w, ActivityResponse{
		Entries: entries,
		Total:   len(entries),
		Stats:   h.activity.GetStats(),
	})
}
