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

const capaColumns = `id, title, facility, owner, due_date, status, priority, source_audit_id`

// CAPARepository implements the repositories.CAPARepository interface
type CAPARepository struct {
	db     *DB
	logger *zap.Logger
}

// NewCAPARepository creates a new CAPA repository
func NewCAPARepository(db *DB, logger *zap.Logger) repositories.CAPARepository {
	return &CAPARepository{
		db:     db,
		logger: logger,
	}
}

// List retrieves all CAPAs ordered by due date
func (r *CAPARepository) List(ctx context.Context) ([]*models.CAPA, error) {
	query := `SELECT ` + capaColumns + ` FROM capas ORDER BY due_date, id`
	return r.queryCAPAs(ctx, query)
}

// GetByID retrieves a CAPA by ID
func (r *CAPARepository) GetByID(ctx context.Context, id int) (*models.CAPA, error) {
	query := `SELECT ` + capaColumns + ` FROM capas WHERE id = $1`

	c, err := scanCAPA(GetExecutor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, services.ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to get CAPA: %w", err)
	}
	return c, nil
}

// ListBySourceAudit retrieves the CAPAs raised from an audit
func (r *CAPARepository) ListBySourceAudit(ctx context.Context, auditID int) ([]*models.CAPA, error) {
	query := `SELECT ` + capaColumns + ` FROM capas WHERE source_audit_id = $1 ORDER BY due_date, id`
	return r.queryCAPAs(ctx, query, auditID)
}

// queryCAPAs is a helper method to query multiple CAPAs
func (r *CAPARepository) queryCAPAs(ctx context.Context, query string, args ...interface{}) ([]*models.CAPA, error) {
	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query CAPAs: %w", err)
	}
	defer rows.Close()

	var capas []*models.CAPA
	for rows.Next() {
		c, err := scanCAPA(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan CAPA: %w", err)
		}
		capas = append(capas, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating CAPA rows: %w", err)
	}

	return capas, nil
}

func scanCAPA(row rowScanner) (*models.CAPA, error) {
	c := &models.CAPA{}
	err := row.Scan(
		&c.ID,
		&c.Title,
		&c.Facility,
		&c.Owner,
		&c.DueDate,
		&c.Status,
		&c.Priority,
		&c.SourceAuditID,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}
