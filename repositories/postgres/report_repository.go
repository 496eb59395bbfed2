package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/upb/qms-dashboard/models"
	"github.com/upb/qms-dashboard/repositories"
	"github.com/upb/qms-dashboard/services"
)

const (
	templateColumns = `id, name, description, category, format, frequency, status`
	reportColumns   = `id, name, template_id, format, generated_at, generated_by, size_bytes`
)

// ReportRepository implements the repositories.ReportRepository interface
type ReportRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *DB, logger *zap.Logger) repositories.ReportRepository {
	return &ReportRepository{
		db:     db,
		logger: logger,
	}
}

// ListTemplates retrieves all report templates
func (r *ReportRepository) ListTemplates(ctx context.Context) ([]*models.ReportTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM report_templates ORDER BY id`

	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query report templates: %w", err)
	}
	defer rows.Close()

	var templates []*models.ReportTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report template: %w", err)
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating report template rows: %w", err)
	}

	return templates, nil
}

// GetTemplate retrieves a report template by ID
func (r *ReportRepository) GetTemplate(ctx context.Context, id int) (*models.ReportTemplate, error) {
	query := `SELECT ` + templateColumns + ` FROM report_templates WHERE id = $1`

	t, err := scanTemplate(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, services.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get report template: %w", err)
	}
	return t, nil
}

// ListGenerated retrieves generated reports, newest first
func (r *ReportRepository) ListGenerated(ctx context.Context) ([]*models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports ORDER BY generated_at DESC`
	return r.queryReports(ctx, query)
}

// GetGenerated retrieves a generated report by ID
func (r *ReportRepository) GetGenerated(ctx context.Context, id int) (*models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE id = $1`

	rep, err := scanReport(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, services.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get report: %w", err)
	}
	return rep, nil
}

// ListByTemplate retrieves the most recent reports generated from a template
func (r *ReportRepository) ListByTemplate(ctx context.Context, templateID, limit int) ([]*models.Report, error) {
	query := `SELECT ` + reportColumns + ` FROM reports WHERE template_id = $1 ORDER BY generated_at DESC LIMIT $2`
	return r.queryReports(ctx, query, templateID, limit)
}

// queryReports is a helper method to query multiple generated reports
func (r *ReportRepository) queryReports(ctx context.Context, query string, args ...interface{}) ([]*models.Report, error) {
	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []*models.Report
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating report rows: %w", err)
	}

	return reports, nil
}

func scanTemplate(row rowScanner) (*models.ReportTemplate, error) {
	t := &models.ReportTemplate{}
	if err := row.Scan(&t.ID, &t.Name, &t.Description, &t.Category, &t.Format, &t.Frequency, &t.Status); err != nil {
		return nil, err
	}
	return t, nil
}

func scanReport(row rowScanner) (*models.Report, error) {
	rep := &models.Report{}
	if err := row.Scan(&rep.ID, &rep.Name, &rep.TemplateID, &rep.Format, &rep.GeneratedAt, &rep.GeneratedBy, &rep.SizeBytes); err != nil {
		return nil, err
	}
	return rep, nil
}
