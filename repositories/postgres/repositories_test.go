package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/upb/qms-dashboard/models"
	"github.com/upb/qms-dashboard/services"
)

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return Wrap(sqlDB, zap.NewNop()), mock
}

func TestAuditRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuditRepository(db, zap.NewNop())

	date := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "facility", "type", "auditor", "scheduled_date", "status", "priority", "score", "findings"}).
		AddRow(1, "Main Hospital", "Infection Control", "Dr. Ames", date, "Completed", "High", 92, 3).
		AddRow(2, "Northside Clinic", "Medication Safety", "J. Park", date, "Scheduled", "Low", nil, 0)

	mock.ExpectQuery(regexp.QuoteMeta("FROM audits ORDER BY scheduled_date, id")).WillReturnRows(rows)

	audits, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, audits, 2)
	require.NotNil(t, audits[0].Score)
	assert.Equal(t, 92, *audits[0].Score)
	assert.Nil(t, audits[1].Score)
	assert.Equal(t, models.AuditStatusScheduled, audits[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepository_GetByID(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewAuditRepository(db, zap.NewNop())

		mock.ExpectQuery(regexp.QuoteMeta("FROM audits WHERE id = $1")).
			WithArgs(42).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(context.Background(), 42)
		assert.ErrorIs(t, err, services.ErrRecordNotFound)
	})

	t.Run("driver error is wrapped", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewAuditRepository(db, zap.NewNop())

		mock.ExpectQuery(regexp.QuoteMeta("FROM audits WHERE id = $1")).
			WithArgs(1).
			WillReturnError(errors.New("connection reset"))

		_, err := repo.GetByID(context.Background(), 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to get audit")
		assert.False(t, errors.Is(err, services.ErrRecordNotFound))
	})
}

func TestCAPARepository_ListBySourceAudit(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCAPARepository(db, zap.NewNop())

	due := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "title", "facility", "owner", "due_date", "status", "priority", "source_audit_id"}).
		AddRow(2, "Hand Hygiene Retraining", "Main Hospital", "K. Lee", due, "Open", "High", 2)

	mock.ExpectQuery(regexp.QuoteMeta("FROM capas WHERE source_audit_id = $1")).
		WithArgs(2).
		WillReturnRows(rows)

	capas, err := repo.ListBySourceAudit(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, capas, 1)
	require.NotNil(t, capas[0].SourceAuditID)
	assert.Equal(t, 2, *capas[0].SourceAuditID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepository_ListByTemplate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReportRepository(db, zap.NewNop())

	at := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "name", "template_id", "format", "generated_at", "generated_by", "size_bytes"}).
		AddRow(7, "CAPA Status Report - June", 2, "xlsx", at, "admin", 20480)

	mock.ExpectQuery(regexp.QuoteMeta("FROM reports WHERE template_id = $1 ORDER BY generated_at DESC LIMIT $2")).
		WithArgs(2, 3).
		WillReturnRows(rows)

	reports, err := repo.ListByTemplate(context.Background(), 2, 3)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, models.ReportFormat("xlsx"), reports[0].Format)
	assert.Equal(t, int64(20480), reports[0].SizeBytes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepository_GetTemplateNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReportRepository(db, zap.NewNop())

	mock.ExpectQuery(regexp.QuoteMeta("FROM report_templates WHERE id = $1")).
		WithArgs(9).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetTemplate(context.Background(), 9)
	assert.ErrorIs(t, err, services.ErrRecordNotFound)
}

func TestActivityRepository_Insert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewActivityRepository(db, zap.NewNop())

	entry := models.NewActivityLog(models.ActivityActionDispatched).
		WithSession("sess-1", "auditor").
		WithAction(models.ResourceCAPA, "edit", "handled").
		WithRecord(3).
		WithDetails(map[string]string{"label": "Fall Risk"})

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO activity_logs")).
		WithArgs(entry.ID, entry.Kind, "sess-1", "auditor", models.ResourceCAPA, "edit", entry.RecordID, "handled",
			sqlmock.AnyArg(), "", entry.Timestamp).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Insert(context.Background(), entry))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepository_ListRecent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewActivityRepository(db, zap.NewNop())

	id := uuid.New()
	at := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "kind", "session_id", "role", "resource", "action", "record_id", "outcome", "details", "request_id", "timestamp"}).
		AddRow(id.String(), "role_switched", "sess-1", "auditor", "", "", nil, "", nil, "req-1", at)

	mock.ExpectQuery(regexp.QuoteMeta("FROM activity_logs")).
		WithArgs(10).
		WillReturnRows(rows)

	logs, err := repo.ListRecent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, id, logs[0].ID)
	assert.Equal(t, models.ActivityRoleSwitched, logs[0].Kind)
	assert.Nil(t, logs[0].RecordID)
	assert.Empty(t, logs[0].Details)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDB_HealthCheck(t *testing.T) {
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer sqlDB.Close()
	db := Wrap(sqlDB, zap.NewNop())

	mock.ExpectPing()
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	assert.NoError(t, db.HealthCheck(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetExecutor_UsesTransactionFromContext(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()

	tx, err := db.Begin()
	require.NoError(t, err)

	assert.Equal(t, db.DB, GetExecutor(context.Background(), db))
	assert.Equal(t, tx, GetExecutor(WithTx(context.Background(), tx), db))
}

func TestDB_WithTransaction(t *testing.T) {
	t.Run("commits on success", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE audits").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := db.WithTransaction(context.Background(), func(ctx context.Context) error {
			_, err := GetExecutor(ctx, db).ExecContext(ctx, "UPDATE audits SET status = $1", "Completed")
			return err
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		boom := errors.New("boom")
		err := db.WithTransaction(context.Background(), func(ctx context.Context) error { return boom })
		assert.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("begin failure", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

		err := db.WithTransaction(context.Background(), func(ctx context.Context) error { return nil })
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to begin transaction")
	})
}

func TestDB_InitSchema(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS audits").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, db.InitSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
