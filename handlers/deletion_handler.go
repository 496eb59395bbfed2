package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/upb/qms-dashboard/internal/authz"
	"github.com/upb/qms-dashboard/middleware"
	"github.com/upb/qms-dashboard/services"
	"github.com/upb/qms-dashboard/services/defaults"
	"github.com/upb/qms-dashboard/services/deletion"
	"github.com/upb/qms-dashboard/utils"
)

// DeletionService completes or discards pending deletes
type DeletionService interface {
	Get(token string) (*defaults.Confirmation, error)
	Confirm(ctx context.Context, token string, req deletion.ConfirmRequest) (*deletion.Receipt, error)
	Cancel(ctx context.Context, token string) error
}

// DeletionHandler handles the second phase of two-phase deletes
type DeletionHandler struct {
	deletions DeletionService
	logger    *zap.Logger
}

// NewDeletionHandler creates a new DeletionHandler
func NewDeletionHandler(deletions DeletionService, logger *zap.Logger) *DeletionHandler {
	return &DeletionHandler{
		deletions: deletions,
		logger:    logger,
	}
}

// HandleGetConfirmation handles GET /api/v1/deletions/{token}
func (h *DeletionHandler) HandleGetConfirmation(w http.ResponseWriter, r *http.Request) {
	c, ok := h.pending(w, r)
	if !ok {
		return
	}
	_ = utils.WriteOK(w, c)
}

// HandleConfirm handles POST /api/v1/deletions/{token}/confirm
func (h *DeletionHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	c, ok := h.pending(w, r)
	if !ok {
		return
	}

	var req deletion.ConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	receipt, err := h.deletions.Confirm(ctx, c.Token, req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	h.logger.Info("delete confirmed",
		zap.String("request_id", requestID),
		zap.String("resource", string(receipt.Resource)),
		zap.Int("record_id", receipt.RecordID))

	_ = utils.WriteOK(w, receipt)
}

// HandleCancel handles DELETE /api/v1/deletions/{token}
func (h *DeletionHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	c, ok := h.pending(w, r)
	if !ok {
		return
	}

	if err := h.deletions.Cancel(r.Context(), c.Token); err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	utils.WriteNoContent(w)
}

// pending loads the confirmation named by the {token} URL parameter and
// checks that the session may still delete its record.
func (h *DeletionHandler) pending(w http.ResponseWriter, r *http.Request) (*defaults.Confirmation, bool) {
	snap := middleware.GetSessionFromContext(r.Context())
	if snap == nil {
		_ = utils.WriteUnauthorized(w, "")
		return nil, false
	}

	token := chi.URLParam(r, "token")
	if err := utils.ValidateUUID(token); err != nil {
		HandleServiceError(w, services.ErrConfirmationNotFound, h.logger)
		return nil, false
	}

	c, err := h.deletions.Get(token)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return nil, false
	}

	if !snap.Permissions.Allows(c.Resource, authz.ActionDelete) {
		_ = utils.WriteForbidden(w, "Your role is not permitted to delete "+string(c.Resource)+" records.")
		return nil, false
	}
	return c, true
}
