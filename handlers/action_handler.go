package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/upb/qms-dashboard/internal/authz"
	"github.com/upb/qms-dashboard/middleware"
	"github.com/upb/qms-dashboard/models"
	"github.com/upb/qms-dashboard/services"
	"github.com/upb/qms-dashboard/services/dispatch"
	"github.com/upb/qms-dashboard/utils"
)

// ActionResponse is the result of a dispatched action plus the modals it opened
type ActionResponse struct {
	Result *dispatch.Result `json:"result"`
	Modals []dispatch.Modal `json:"modals"`
}

// RecordFinder resolves a record of a resource by id
type RecordFinder interface {
	FindRecord(ctx context.Context, resource models.ResourceType, id int) (models.Record, error)
}

// GeneratedReportFinder resolves a generated report by id
type GeneratedReportFinder interface {
	GetGenerated(ctx context.Context, id int) (*models.Report, error)
}

// ActionDispatcher runs an action request under a permission matrix
type ActionDispatcher interface {
	Dispatch(ctx context.Context, matrix authz.Matrix, req dispatch.Request) (*dispatch.Result, error)
}

// ActionHandler handles action dispatch HTTP requests
type ActionHandler struct {
	records    RecordFinder
	reports    GeneratedReportFinder
	dispatcher ActionDispatcher
	logger     *zap.Logger
}

// NewActionHandler creates a new ActionHandler
func NewActionHandler(records RecordFinder, reports GeneratedReportFinder, dispatcher ActionDispatcher, logger *zap.Logger) *ActionHandler {
	return &ActionHandler{
		records:    records,
		reports:    reports,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// HandleDispatch handles POST /api/v1/{resource}/{id}/actions/{action}
func (h *ActionHandler) HandleDispatch(w http.ResponseWriter, r *http.Request) {
	resource := models.ResourceType(chi.URLParam(r, middleware.ResourceParam))
	if !resource.Valid() {
		_ = utils.WriteNotFound(w, "unknown resource")
		return
	}

	h.dispatch(w, r, resource, func(ctx context.Context, id int) (models.Record, error) {
		return h.records.FindRecord(ctx, resource, id)
	})
}

// HandleDispatchGenerated handles POST /api/v1/reports/generated/{id}/actions/{action}
func (h *ActionHandler) HandleDispatchGenerated(w http.ResponseWriter, r *http.Request) {
	h.dispatch(w, r, models.ResourceReports, func(ctx context.Context, id int) (models.Record, error) {
		report, err := h.reports.GetGenerated(ctx, id)
		if err != nil {
			return nil, err
		}
		return report, nil
	})
}

func (h *ActionHandler) dispatch(w http.ResponseWriter, r *http.Request, resource models.ResourceType, find func(context.Context, int) (models.Record, error)) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	snap := middleware.GetSessionFromContext(ctx)
	if snap == nil {
		_ = utils.WriteUnauthorized(w, "")
		return
	}

	action := authz.Action(chi.URLParam(r, "action"))
	if !action.Valid() {
		HandleServiceError(w, services.ErrInvalidAction, h.logger)
		return
	}

	id, err := utils.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		_ = utils.WriteBadRequest(w, err.Error(), nil)
		return
	}

	record, err := find(ctx, id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	modals := dispatch.NewRecordingSink()
	result, err := h.dispatcher.Dispatch(ctx, snap.Permissions, dispatch.Request{
		Resource: resource,
		Action:   action,
		Record:   record,
		Modals:   modals,
	})
	if err != nil {
		h.logger.Warn("dispatch failed",
			zap.String("request_id", requestID),
			zap.String("resource", string(resource)),
			zap.String("action", string(action)),
			zap.Int("record_id", id),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	response := ActionResponse{Result: result, Modals: modals.Modals()}

	if result.Outcome == dispatch.OutcomeForbidden {
		h.logger.Info("action denied",
			zap.String("request_id", requestID),
			zap.String("role", string(snap.Role)),
			zap.String("resource", string(resource)),
			zap.String("action", string(action)),
			zap.Int("record_id", id))
		_ = utils.WriteJSON(w, http.StatusForbidden, utils.ErrorResponse{
			Error:   "forbidden",
			Message: result.Notice,
			Details: map[string]interface{}{
				"result": result,
				"modals": response.Modals,
			},
		})
		return
	}

	_ = utils.WriteOK(w, response)
}
