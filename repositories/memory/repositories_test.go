package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upb/qms-dashboard/models"
	"github.com/upb/qms-dashboard/services"
)

var refTime = time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)

func TestStore_SeededRepositories(t *testing.T) {
	repos := NewRepositories(NewStore(true, refTime), 10)
	ctx := context.Background()

	audits, err := repos.Audits.List(ctx)
	require.NoError(t, err)
	assert.Len(t, audits, 6)
	for i := 1; i < len(audits); i++ {
		assert.False(t, audits[i].Date.Before(audits[i-1].Date), "audits sorted by date")
	}

	capas, err := repos.CAPAs.List(ctx)
	require.NoError(t, err)
	assert.Len(t, capas, 5)

	templates, err := repos.Reports.ListTemplates(ctx)
	require.NoError(t, err)
	assert.Len(t, templates, 4)

	assert.NoError(t, repos.Health.HealthCheck(ctx))
}

func TestStore_Unseeded(t *testing.T) {
	repos := NewRepositories(NewStore(false, refTime), 10)

	audits, err := repos.Audits.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, audits)
}

func TestAuditRepository_GetByIDReturnsCopy(t *testing.T) {
	repos := NewRepositories(NewStore(true, refTime), 10)
	ctx := context.Background()

	a, err := repos.Audits.GetByID(ctx, 1)
	require.NoError(t, err)
	a.Status = models.AuditStatusCancelled

	again, err := repos.Audits.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, models.AuditStatusCompleted, again.Status)

	_, err = repos.Audits.GetByID(ctx, 999)
	assert.ErrorIs(t, err, services.ErrRecordNotFound)
}

func TestCAPARepository_ListBySourceAudit(t *testing.T) {
	repos := NewRepositories(NewStore(true, refTime), 10)

	capas, err := repos.CAPAs.ListBySourceAudit(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, capas, 1)
	assert.Equal(t, "Medication Storage Temperature Monitoring", capas[0].Title)

	_, err = repos.CAPAs.GetByID(context.Background(), 42)
	assert.True(t, services.IsNotFoundError(err))
}

func TestReportRepository_Generated(t *testing.T) {
	repos := NewRepositories(NewStore(true, refTime), 10)
	ctx := context.Background()

	reports, err := repos.Reports.ListGenerated(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 3)
	assert.Equal(t, 1, reports[0].ID, "newest first")

	byTemplate, err := repos.Reports.ListByTemplate(ctx, 1, 1)
	require.NoError(t, err)
	require.Len(t, byTemplate, 1)
	assert.Equal(t, 1, byTemplate[0].ID)

	rep, err := repos.Reports.GetGenerated(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.TemplateID)
}

func TestRepositories_FindRecord(t *testing.T) {
	repos := NewRepositories(NewStore(true, refTime), 10)
	ctx := context.Background()

	tests := []struct {
		resource models.ResourceType
		id       int
		label    string
	}{
		{models.ResourceAudit, 3, "Northside Clinic"},
		{models.ResourceCAPA, 4, "Fall Risk Assessment Update"},
		{models.ResourceReports, 2, "CAPA Status Report"},
	}

	for _, tt := range tests {
		t.Run(string(tt.resource), func(t *testing.T) {
			record, err := repos.FindRecord(ctx, tt.resource, tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.resource, record.Resource())
			assert.Equal(t, tt.label, record.Label())
		})
	}

	_, err := repos.FindRecord(ctx, models.ResourceAudit, 404)
	assert.True(t, services.IsNotFoundError(err))

	_, err = repos.FindRecord(ctx, "invoices", 1)
	assert.ErrorIs(t, err, services.ErrInvalidResource)
}

func TestRepositories_ListRecords(t *testing.T) {
	repos := NewRepositories(NewStore(true, refTime), 10)

	records, err := repos.ListRecords(context.Background(), models.ResourceCAPA)
	require.NoError(t, err)
	assert.Len(t, records, 5)
	for _, r := range records {
		assert.Equal(t, models.ResourceCAPA, r.Resource())
	}
}

func TestActivityRepository_RingBuffer(t *testing.T) {
	repo := NewActivityRepository(3)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		require.NoError(t, repo.Insert(ctx, models.NewActivityLog(models.ActivityActionDispatched).WithRecord(i)))
	}

	recent, err := repo.ListRecent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, 5, *recent[0].RecordID)
	assert.Equal(t, 4, *recent[1].RecordID)
	assert.Equal(t, 3, *recent[2].RecordID)

	limited, err := repo.ListRecent(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestActivityRepository_PartiallyFilled(t *testing.T) {
	repo := NewActivityRepository(10)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, models.NewActivityLog(models.ActivityRoleSwitched)))

	recent, err := repo.ListRecent(ctx, 5)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, models.ActivityRoleSwitched, recent[0].Kind)
}
