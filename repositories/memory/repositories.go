package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/upb/qms-dashboard/models"
	"github.com/upb/qms-dashboard/repositories"
	"github.com/upb/qms-dashboard/services"
)

// Store holds every record in memory. Records are copied on the way out so
// callers cannot mutate the store.
type Store struct {
	mu        sync.RWMutex
	audits    []*models.Audit
	capas     []*models.CAPA
	templates []*models.ReportTemplate
	reports   []*models.Report
}

// NewStore creates a store, optionally seeded with sample data dated around now
func NewStore(seed bool, now time.Time) *Store {
	s := &Store{}
	if seed {
		s.audits = SeedAudits(now)
		s.capas = SeedCAPAs(now)
		s.templates = SeedTemplates()
		s.reports = SeedReports(now)
	}
	return s
}

// NewRepositories creates the repository set backed by a memory store
func NewRepositories(store *Store, activityRetain int) *repositories.Repositories {
	return &repositories.Repositories{
		Audits:   &AuditRepository{store: store},
		CAPAs:    &CAPARepository{store: store},
		Reports:  &ReportRepository{store: store},
		Activity: NewActivityRepository(activityRetain),
		Health:   store,
	}
}

// HealthCheck always succeeds
func (s *Store) HealthCheck(ctx context.Context) error {
	return nil
}

// AddAudit stores an audit
func (s *Store) AddAudit(a *models.Audit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.audits = append(s.audits, &cp)
}

// AddCAPA stores a CAPA
func (s *Store) AddCAPA(c *models.CAPA) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.capas = append(s.capas, &cp)
}

// AddTemplate stores a report template
func (s *Store) AddTemplate(t *models.ReportTemplate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *t
	s.templates = append(s.templates, &cp)
}

// AddReport stores a generated report
func (s *Store) AddReport(r *models.Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *r
	s.reports = append(s.reports, &cp)
}

// AuditRepository implements repositories.AuditRepository
type AuditRepository struct {
	store *Store
}

// List retrieves all audits ordered by scheduled date
func (r *AuditRepository) List(ctx context.Context) ([]*models.Audit, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]*models.Audit, len(r.store.audits))
	for i, a := range r.store.audits {
		cp := *a
		out[i] = &cp
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// GetByID retrieves an audit by ID
func (r *AuditRepository) GetByID(ctx context.Context, id int) (*models.Audit, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, a := range r.store.audits {
		if a.ID == id {
			cp := *a
			return &cp, nil
		}
	}
	return nil, services.ErrRecordNotFound
}

// CAPARepository implements repositories.CAPARepository
type CAPARepository struct {
	store *Store
}

// List retrieves all CAPAs ordered by due date
func (r *CAPARepository) List(ctx context.Context) ([]*models.CAPA, error) {
	return r.filter(func(*models.CAPA) bool { return true }), nil
}

// GetByID retrieves a CAPA by ID
func (r *CAPARepository) GetByID(ctx context.Context, id int) (*models.CAPA, error) {
	found := r.filter(func(c *models.CAPA) bool { return c.ID == id })
	if len(found) == 0 {
		return nil, services.ErrRecordNotFound
	}
	return found[0], nil
}

// ListBySourceAudit retrieves the CAPAs raised from an audit
func (r *CAPARepository) ListBySourceAudit(ctx context.Context, auditID int) ([]*models.CAPA, error) {
	return r.filter(func(c *models.CAPA) bool {
		return c.SourceAuditID != nil && *c.SourceAuditID == auditID
	}), nil
}

func (r *CAPARepository) filter(keep func(*models.CAPA) bool) []*models.CAPA {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]*models.CAPA, 0, len(r.store.capas))
	for _, c := range r.store.capas {
		if keep(c) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out
}

// ReportRepository implements repositories.ReportRepository
type ReportRepository struct {
	store *Store
}

// ListTemplates retrieves all report templates
func (r *ReportRepository) ListTemplates(ctx context.Context) ([]*models.ReportTemplate, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]*models.ReportTemplate, len(r.store.templates))
	for i, t := range r.store.templates {
		cp := *t
		out[i] = &cp
	}
	return out, nil
}

// GetTemplate retrieves a report template by ID
func (r *ReportRepository) GetTemplate(ctx context.Context, id int) (*models.ReportTemplate, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, t := range r.store.templates {
		if t.ID == id {
			cp := *t
			return &cp, nil
		}
	}
	return nil, services.ErrRecordNotFound
}

// ListGenerated retrieves generated reports, newest first
func (r *ReportRepository) ListGenerated(ctx context.Context) ([]*models.Report, error) {
	return r.generated(func(*models.Report) bool { return true }, 0), nil
}

// GetGenerated retrieves a generated report by ID
func (r *ReportRepository) GetGenerated(ctx context.Context, id int) (*models.Report, error) {
	found := r.generated(func(rep *models.Report) bool { return rep.ID == id }, 1)
	if len(found) == 0 {
		return nil, services.ErrRecordNotFound
	}
	return found[0], nil
}

// ListByTemplate retrieves the most recent reports generated from a template
func (r *ReportRepository) ListByTemplate(ctx context.Context, templateID, limit int) ([]*models.Report, error) {
	return r.generated(func(rep *models.Report) bool { return rep.TemplateID == templateID }, limit), nil
}

func (r *ReportRepository) generated(keep func(*models.Report) bool, limit int) []*models.Report {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]*models.Report, 0, len(r.store.reports))
	for _, rep := range r.store.reports {
		if keep(rep) {
			cp := *rep
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].GeneratedAt.After(out[j].GeneratedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
