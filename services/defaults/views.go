package defaults

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/upb/qms-dashboard/models"
	"github.com/upb/qms-dashboard/repositories"
)

// ChecklistResult is the outcome of one audit checklist item
type ChecklistResult string

const (
	ResultCompliant     ChecklistResult = "compliant"
	ResultNonCompliant  ChecklistResult = "non_compliant"
	ResultNotApplicable ChecklistResult = "n/a"
	ResultPending       ChecklistResult = "pending"
)

var checklistItems = []string{
	"Policies and procedures are current",
	"Staff training records are complete",
	"Hand hygiene compliance observed",
	"Medication storage within limits",
	"Patient identification verified",
	"Incident reports filed on time",
	"Equipment maintenance logs current",
	"Emergency exits and signage clear",
}

// ChecklistItem is one line of an audit checklist
type ChecklistItem struct {
	Item   string          `json:"item"`
	Result ChecklistResult `json:"result"`
}

// ChecklistSummary counts checklist results. ComplianceRate is the share of
// compliant items among the assessed ones, as a percentage.
type ChecklistSummary struct {
	Compliant      int     `json:"compliant"`
	NonCompliant   int     `json:"non_compliant"`
	NotApplicable  int     `json:"not_applicable"`
	Pending        int     `json:"pending"`
	ComplianceRate float64 `json:"compliance_rate"`
}

// AuditView is the detail view of an audit
type AuditView struct {
	Audit     *models.Audit    `json:"audit"`
	Checklist []ChecklistItem  `json:"checklist"`
	Summary   ChecklistSummary `json:"summary"`
}

// AuditViewOf builds the view of a. The checklist is derived from the audit
// itself, so the same audit always yields the same view.
func AuditViewOf(a *models.Audit) *AuditView {
	started := a.Status == models.AuditStatusInProgress || a.Status == models.AuditStatusCompleted
	half := len(checklistItems) / 2

	items := make([]ChecklistItem, len(checklistItems))
	var summary ChecklistSummary
	for k, name := range checklistItems {
		var result ChecklistResult
		switch {
		case !started, a.Status == models.AuditStatusInProgress && k >= half:
			result = ResultPending
			summary.Pending++
		case (a.ID+k)%5 == 0:
			result = ResultNotApplicable
			summary.NotApplicable++
		case summary.NonCompliant < a.Findings:
			result = ResultNonCompliant
			summary.NonCompliant++
		default:
			result = ResultCompliant
			summary.Compliant++
		}
		items[k] = ChecklistItem{Item: name, Result: result}
	}

	if assessed := summary.Compliant + summary.NonCompliant; assessed > 0 {
		rate := float64(summary.Compliant) / float64(assessed) * 100
		summary.ComplianceRate = math.Round(rate*10) / 10
	}

	return &AuditView{Audit: a, Checklist: items, Summary: summary}
}

// CorrectiveAction is one step of a CAPA
type CorrectiveAction struct {
	Description string    `json:"description"`
	Owner       string    `json:"owner"`
	DueDate     time.Time `json:"due_date"`
	Done        bool      `json:"done"`
}

// TimelineEvent is a dated entry in a CAPA's history
type TimelineEvent struct {
	Date  time.Time `json:"date"`
	Event string    `json:"event"`
}

// CAPAView is the detail view of a CAPA
type CAPAView struct {
	CAPA     *models.CAPA       `json:"capa"`
	Actions  []CorrectiveAction `json:"actions"`
	Timeline []TimelineEvent    `json:"timeline"`
	Progress int                `json:"progress"`
	Overdue  bool               `json:"overdue"`
}

// CAPAViewOf builds the view of c as of now
func CAPAViewOf(c *models.CAPA, now time.Time) *CAPAView {
	var done int
	switch c.Status {
	case models.CAPAStatusInProgress:
		done = 1
	case models.CAPAStatusPendingVerification:
		done = 2
	case models.CAPAStatusClosed:
		done = 3
	}

	actions := []CorrectiveAction{
		{Description: "Root cause analysis", DueDate: c.DueDate.AddDate(0, 0, -14)},
		{Description: "Implement corrective measures", DueDate: c.DueDate.AddDate(0, 0, -7)},
		{Description: "Verify effectiveness", DueDate: c.DueDate},
	}
	for i := range actions {
		actions[i].Owner = c.Owner
		actions[i].Done = i < done
	}

	opened := c.DueDate.AddDate(0, 0, -30)
	timeline := []TimelineEvent{{Date: opened, Event: "CAPA opened"}}
	if c.SourceAuditID != nil {
		timeline[0].Event = fmt.Sprintf("CAPA opened from audit #%d", *c.SourceAuditID)
	}
	for _, a := range actions[:done] {
		timeline = append(timeline, TimelineEvent{Date: a.DueDate, Event: a.Description + " completed"})
	}
	if c.Status == models.CAPAStatusClosed {
		timeline = append(timeline, TimelineEvent{Date: c.DueDate, Event: "CAPA closed"})
	}

	return &CAPAView{
		CAPA:     c,
		Actions:  actions,
		Timeline: timeline,
		Progress: done * 100 / len(actions),
		Overdue:  c.IsOverdue(now),
	}
}

// recentReportsLimit bounds the generated reports shown with a template
const recentReportsLimit = 3

// ReportTemplateView is the detail view of a report template
type ReportTemplateView struct {
	Template      *models.ReportTemplate `json:"template"`
	RecentReports []*models.Report       `json:"recent_reports"`
}

// TemplateView builds the view of t with its most recent generated reports
func TemplateView(ctx context.Context, reports repositories.ReportRepository, t *models.ReportTemplate) (*ReportTemplateView, error) {
	recent, err := reports.ListByTemplate(ctx, t.ID, recentReportsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent reports: %w", err)
	}
	if recent == nil {
		recent = []*models.Report{}
	}
	return &ReportTemplateView{Template: t, RecentReports: recent}, nil
}
