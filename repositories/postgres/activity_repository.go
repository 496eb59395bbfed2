package postgres

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/upb/qms-dashboard/models"
	"github.com/upb/qms-dashboard/repositories"
)

// ActivityRepository implements the repositories.ActivityRepository interface
type ActivityRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *DB, logger *zap.Logger) repositories.ActivityRepository {
	return &ActivityRepository{
		db:     db,
		logger: logger,
	}
}

// Insert inserts a new activity entry
func (r *ActivityRepository) Insert(ctx context.Context, log *models.ActivityLog) error {
	query := `
		INSERT INTO activity_logs (
			id, kind, session_id, role, resource, action, record_id,
			outcome, details, request_id, timestamp
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
		)
	`

	var details interface{}
	if len(log.Details) > 0 {
		details = []byte(log.Details)
	}

	_, err := GetExecutor(ctx, r.db).ExecContext(ctx, query,
		log.ID,
		log.Kind,
		log.SessionID,
		log.Role,
		log.Resource,
		log.Action,
		log.RecordID,
		log.Outcome,
		details,
		log.RequestID,
		log.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to insert activity log: %w", err)
	}

	r.logger.Debug("activity log inserted", zap.String("id", log.ID.String()), zap.String("kind", string(log.Kind)))
	return nil
}

// ListRecent retrieves the newest entries, newest first
func (r *ActivityRepository) ListRecent(ctx context.Context, limit int) ([]*models.ActivityLog, error) {
	query := `
		SELECT id, kind, COALESCE(session_id, ''), COALESCE(role, ''), COALESCE(resource, ''),
		       COALESCE(action, ''), record_id, COALESCE(outcome, ''), details,
		       COALESCE(request_id, ''), timestamp
		FROM activity_logs
		ORDER BY timestamp DESC
		LIMIT $1
	`

	rows, err := GetExecutor(ctx, r.db).QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity logs: %w", err)
	}
	defer rows.Close()

	var logs []*models.ActivityLog
	for rows.Next() {
		log := &models.ActivityLog{}
		var details []byte
		err := rows.Scan(
			&log.ID,
			&log.Kind,
			&log.SessionID,
			&log.Role,
			&log.Resource,
			&log.Action,
			&log.RecordID,
			&log.Outcome,
			&details,
			&log.RequestID,
			&log.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan activity log: %w", err)
		}
		log.Details = details
		logs = append(logs, log)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating activity log rows: %w", err)
	}

	return logs, nil
}
