package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/upb/qms-dashboard/internal/authz"
	"github.com/upb/qms-dashboard/middleware"
	"github.com/upb/qms-dashboard/models"
	"github.com/upb/qms-dashboard/utils"
)

// RecordItem is one row of a resource listing. Actions holds the controls
// the session may render for the row.
type RecordItem struct {
	Resource models.ResourceType `json:"resource"`
	ID       int                 `json:"id"`
	Label    string              `json:"label"`
	Record   models.Record       `json:"record"`
	Actions  []authz.Action      `json:"actions"`
}

// RecordListResponse represents a resource listing
type RecordListResponse struct {
	Resource models.ResourceType `json:"resource"`
	Items    []RecordItem        `json:"items"`
	Total    int                 `json:"total"`
}

// RecordLister lists the records of a resource
type RecordLister interface {
	ListRecords(ctx context.Context, resource models.ResourceType) ([]models.Record, error)
}

// GeneratedReportLister lists generated reports
type GeneratedReportLister interface {
	ListGenerated(ctx context.Context) ([]*models.Report, error)
}

// RecordHandler handles record listing HTTP requests
type RecordHandler struct {
	records RecordLister
	reports GeneratedReportLister
	logger  *zap.Logger
}

// NewRecordHandler creates a new RecordHandler
func NewRecordHandler(records RecordLister, reports GeneratedReportLister, logger *zap.Logger) *RecordHandler {
	return &RecordHandler{
		records: records,
		reports: reports,
		logger:  logger,
	}
}

// HandleListRecords handles GET /api/v1/{resource}
func (h *RecordHandler) HandleListRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	resource := models.ResourceType(chi.URLParam(r, middleware.ResourceParam))
	if !resource.Valid() {
		_ = utils.WriteNotFound(w, "unknown resource")
		return
	}

	records, err := h.records.ListRecords(ctx, resource)
	if err != nil {
		h.logger.Error("failed to list records",
			zap.String("request_id", requestID),
			zap.String("resource", string(resource)),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, listResponse(ctx, resource, records))
}

// HandleListGeneratedReports handles GET /api/v1/reports/generated
func (h *RecordHandler) HandleListGeneratedReports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	reports, err := h.reports.ListGenerated(ctx)
	if err != nil {
		h.logger.Error("failed to list generated reports",
			zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	records := make([]models.Record, len(reports))
	for i, report := range reports {
		records[i] = report
	}
	_ = utils.WriteOK(w, listResponse(ctx, models.ResourceReports, records))
}

func listResponse(ctx context.Context, resource models.ResourceType, records []models.Record) RecordListResponse {
	actions := middleware.GetPermissionsFromContext(ctx).Actions(resource)
	items := make([]RecordItem, len(records))
	for i, record := range records {
		items[i] = RecordItem{
			Resource: resource,
			ID:       record.RecordID(),
			Label:    record.Label(),
			Record:   record,
			Actions:  actionsFor(record, actions),
		}
	}
	return RecordListResponse{Resource: resource, Items: items, Total: len(items)}
}

// actionsFor narrows the allowed actions to those defined for the record.
// Generated reports have no run control.
func actionsFor(record models.Record, allowed []authz.Action) []authz.Action {
	if _, ok := record.(*models.Report); !ok {
		return allowed
	}
	out := make([]authz.Action, 0, len(allowed))
	for _, a := range allowed {
		if a != authz.ActionRun {
			out = append(out, a)
		}
	}
	return out
}
