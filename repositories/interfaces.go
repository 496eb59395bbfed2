package repositories

import (
	"context"
	"fmt"

	"github.com/upb/qms-dashboard/models"
	"github.com/upb/qms-dashboard/services"
)

// AuditRepository handles facility audit data operations
type AuditRepository interface {
	// List retrieves all audits ordered by scheduled date
	List(ctx context.Context) ([]*models.Audit, error)

	// GetByID retrieves an audit by ID
	GetByID(ctx context.Context, id int) (*models.Audit, error)
}

// CAPARepository handles corrective/preventive action data operations
type CAPARepository interface {
	// List retrieves all CAPAs ordered by due date
	List(ctx context.Context) ([]*models.CAPA, error)

	// GetByID retrieves a CAPA by ID
	GetByID(ctx context.Context, id int) (*models.CAPA, error)

	// ListBySourceAudit retrieves the CAPAs raised from an audit
	ListBySourceAudit(ctx context.Context, auditID int) ([]*models.CAPA, error)
}

// ReportRepository handles report templates and generated reports
type ReportRepository interface {
	// ListTemplates retrieves all report templates
	ListTemplates(ctx context.Context) ([]*models.ReportTemplate, error)

	// GetTemplate retrieves a report template by ID
	GetTemplate(ctx context.Context, id int) (*models.ReportTemplate, error)

	// ListGenerated retrieves generated reports, newest first
	ListGenerated(ctx context.Context) ([]*models.Report, error)

	// GetGenerated retrieves a generated report by ID
	GetGenerated(ctx context.Context, id int) (*models.Report, error)

	// ListByTemplate retrieves the most recent reports generated from a template
	ListByTemplate(ctx context.Context, templateID, limit int) ([]*models.Report, error)
}

// ActivityRepository handles activity trail data operations
type ActivityRepository interface {
	// Insert inserts a new activity entry
	Insert(ctx context.Context, log *models.ActivityLog) error

	// ListRecent retrieves the newest entries, newest first
	ListRecent(ctx context.Context, limit int) ([]*models.ActivityLog, error)
}

// HealthChecker reports whether a backing store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Repositories groups every repository the application uses
type Repositories struct {
	Audits   AuditRepository
	CAPAs    CAPARepository
	Reports  ReportRepository
	Activity ActivityRepository
	Health   HealthChecker
}

// ListRecords returns every record of resource. Reports resolve to templates.
func (r *Repositories) ListRecords(ctx context.Context, resource models.ResourceType) ([]models.Record, error) {
	switch resource {
	case models.ResourceAudit:
		audits, err := r.Audits.List(ctx)
		if err != nil {
			return nil, err
		}
		return toRecords(audits), nil
	case models.ResourceCAPA:
		capas, err := r.CAPAs.List(ctx)
		if err != nil {
			return nil, err
		}
		return toRecords(capas), nil
	case models.ResourceReports:
		templates, err := r.Reports.ListTemplates(ctx)
		if err != nil {
			return nil, err
		}
		return toRecords(templates), nil
	}
	return nil, services.ErrInvalidResource
}

// FindRecord returns the record of resource with id. Reports resolve to templates.
func (r *Repositories) FindRecord(ctx context.Context, resource models.ResourceType, id int) (models.Record, error) {
	var (
		record models.Record
		err    error
	)
	switch resource {
	case models.ResourceAudit:
		record, err = asRecord(r.Audits.GetByID(ctx, id))
	case models.ResourceCAPA:
		record, err = asRecord(r.CAPAs.GetByID(ctx, id))
	case models.ResourceReports:
		record, err = asRecord(r.Reports.GetTemplate(ctx, id))
	default:
		return nil, services.ErrInvalidResource
	}
	if err != nil {
		return nil, fmt.Errorf("find %s %d: %w", resource, id, err)
	}
	return record, nil
}

func toRecords[T models.Record](items []T) []models.Record {
	out := make([]models.Record, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}

func asRecord[T models.Record](item T, err error) (models.Record, error) {
	if err != nil {
		return nil, err
	}
	return item, nil
}
