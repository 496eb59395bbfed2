package defaults

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/upb/qms-dashboard/internal/session"
	"github.com/upb/qms-dashboard/models"
	"github.com/upb/qms-dashboard/repositories"
	"github.com/upb/qms-dashboard/services"
	"github.com/upb/qms-dashboard/services/export"
	"github.com/upb/qms-dashboard/services/progress"
)

// Confirmations holds delete confirmations until they are confirmed or expire
type Confirmations interface {
	Hold(ctx context.Context, c *Confirmation) error
}

// Deps are the collaborators of the default handlers
type Deps struct {
	Reports         repositories.ReportRepository
	Runner          *progress.Runner
	Tasks           *progress.Registry // optional
	Sink            export.Sink
	Confirmations   Confirmations // optional
	ConfirmationTTL time.Duration
	Now             func() time.Time
}

// Handlers implements the default behavior of every record action
type Handlers struct {
	deps   Deps
	logger *zap.Logger
}

// NewHandlers creates the default handlers
func NewHandlers(deps Deps, logger *zap.Logger) *Handlers {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.ConfirmationTTL <= 0 {
		deps.ConfirmationTTL = DefaultConfirmationTTL
	}
	return &Handlers{deps: deps, logger: logger}
}

// View returns the detail view of record
func (h *Handlers) View(ctx context.Context, record models.Record) (any, error) {
	switch r := record.(type) {
	case *models.Audit:
		return AuditViewOf(r), nil
	case *models.CAPA:
		return CAPAViewOf(r, h.deps.Now()), nil
	case *models.ReportTemplate:
		return TemplateView(ctx, h.deps.Reports, r)
	case *models.Report:
		return r, nil
	}
	return nil, services.ErrInvalidResource
}

// Edit returns the edit form of record
func (h *Handlers) Edit(ctx context.Context, record models.Record) (any, error) {
	return EditFormOf(record)
}

// Delete starts a two-phase delete and returns its confirmation
func (h *Handlers) Delete(ctx context.Context, record models.Record) (any, error) {
	confirmation, err := ConfirmDelete(record)
	if err != nil {
		return nil, err
	}
	confirmation.ExpiresAt = h.deps.Now().Add(h.deps.ConfirmationTTL)

	if h.deps.Confirmations != nil {
		if err := h.deps.Confirmations.Hold(ctx, confirmation); err != nil {
			return nil, err
		}
	}

	h.logger.Debug("delete confirmation issued",
		zap.String("resource", string(confirmation.Resource)),
		zap.Int("record_id", confirmation.RecordID),
		zap.Bool("approval_required", confirmation.ApprovalRequired),
	)
	return confirmation, nil
}

// Download starts a download task for record
func (h *Handlers) Download(ctx context.Context, record models.Record) (any, error) {
	return h.start(ctx, DownloadPlan(record, h.deps.Sink, h.deps.Now)), nil
}

// Run starts report generation from a report template
func (h *Handlers) Run(ctx context.Context, record models.Record) (any, error) {
	tpl, ok := record.(*models.ReportTemplate)
	if !ok {
		return nil, services.ErrRecordMismatch
	}
	return h.start(ctx, ReportRunPlan(tpl, h.deps.Now)), nil
}

// start runs plan as a task owned by the session in ctx, if any
func (h *Handlers) start(ctx context.Context, plan progress.Plan) progress.Snapshot {
	if snap, ok := session.FromContext(ctx); ok {
		plan.Owner = snap.ID
	}
	task := h.deps.Runner.Start(ctx, plan)
	if h.deps.Tasks != nil {
		h.deps.Tasks.Add(task)
	}
	return task.Snapshot()
}
