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

const auditColumns = `id, facility, type, auditor, scheduled_date, status, priority, score, findings`

// AuditRepository implements the repositories.AuditRepository interface
type AuditRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *DB, logger *zap.Logger) repositories.AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// List retrieves all audits ordered by scheduled date
func (r *AuditRepository) List(ctx context.Context) ([]*models.Audit, error) {
	query := `SELECT ` + auditColumns + ` FROM audits ORDER BY scheduled_date, id`

	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query audits: %w", err)
	}
	defer rows.Close()

	var audits []*models.Audit
	for rows.Next() {
		a, err := scanAudit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit: %w", err)
		}
		audits = append(audits, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating audit rows: %w", err)
	}

	return audits, nil
}

// GetByID retrieves an audit by ID
func (r *AuditRepository) GetByID(ctx context.Context, id int) (*models.Audit, error) {
	query := `SELECT ` + auditColumns + ` FROM audits WHERE id = $1`

	a, err := scanAudit(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, services.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get audit: %w", err)
	}
	return a, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAudit(row rowScanner) (*models.Audit, error) {
	a := &models.Audit{}
	err := row.Scan(
		&a.ID,
		&a.Facility,
		&a.Type,
		&a.Auditor,
		&a.Date,
		&a.Status,
		&a.Priority,
		&a.Score,
		&a.Findings,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}
