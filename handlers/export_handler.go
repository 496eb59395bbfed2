package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/upb/qms-dashboard/internal/authz"
	"github.com/upb/qms-dashboard/middleware"
	"github.com/upb/qms-dashboard/models"
	"github.com/upb/qms-dashboard/services"
	"github.com/upb/qms-dashboard/services/export"
	"github.com/upb/qms-dashboard/utils"
)

// PayloadStore returns payloads saved by completed downloads and exports
type PayloadStore interface {
	Get(filename string) (*export.Payload, bool)
}

// ExportHandler handles CSV exports and saved file downloads
type ExportHandler struct {
	records  RecordLister
	payloads PayloadStore
	now      func() time.Time
	logger   *zap.Logger
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(records RecordLister, payloads PayloadStore, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{
		records:  records,
		payloads: payloads,
		now:      time.Now,
		logger:   logger,
	}
}

// HandleExport handles GET /api/v1/exports/{resource}?mode=loose|strict
func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	resource := models.ResourceType(chi.URLParam(r, middleware.ResourceParam))
	if !resource.Valid() {
		_ = utils.WriteNotFound(w, "unknown resource")
		return
	}

	mode, err := export.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	records, err := h.records.ListRecords(ctx, resource)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	payload, err := export.NewPayload(string(resource)+" export", mode, records, h.now())
	if err != nil {
		HandleServiceError(w, services.WrapInternal("failed to encode export", err), h.logger)
		return
	}

	h.logger.Info("resource exported",
		zap.String("request_id", requestID),
		zap.String("resource", string(resource)),
		zap.String("mode", string(mode)),
		zap.Int("records", len(records)),
		zap.Int("bytes", payload.Size))

	if err := utils.WriteAttachment(w, payload.FileName, payload.MimeType, payload.Content); err != nil {
		h.logger.Error("failed to write export", zap.Error(err))
	}
}

// HandleDownload handles GET /api/v1/downloads/{file}. The session must hold
// download permission on the resource the file was read from.
func (h *ExportHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "file")

	payload, ok := h.payloads.Get(name)
	if !ok {
		HandleServiceError(w, services.ErrDownloadNotFound, h.logger)
		return
	}

	if !middleware.GetPermissionsFromContext(ctx).Allows(payload.Resource, authz.ActionDownload) {
		h.logger.Warn("download denied",
			zap.String("request_id", middleware.GetRequestIDFromContext(ctx)),
			zap.String("file", name),
			zap.String("resource", string(payload.Resource)),
			zap.String("role", string(middleware.GetRoleFromContext(ctx))))
		HandleServiceError(w, services.ErrInsufficientPermissions, h.logger)
		return
	}

	if err := utils.WriteAttachment(w, payload.FileName, payload.MimeType, payload.Content); err != nil {
		h.logger.Error("failed to write download", zap.Error(err))
	}
}
