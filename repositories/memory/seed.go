package memory

import (
	"time"

	"github.com/upb/qms-dashboard/models"
)

func intPtr(v int) *int { return &v }

// SeedAudits returns the sample audits, scheduled relative to now
func SeedAudits(now time.Time) []*models.Audit {
	day := truncateDay(now)
	return []*models.Audit{
		{ID: 1, Facility: "St. Mary's General Hospital", Type: "Infection Control", Auditor: "Sarah Johnson", Date: day.AddDate(0, 0, -21), Status: models.AuditStatusCompleted, Priority: models.PriorityHigh, Score: intPtr(92), Findings: 3},
		{ID: 2, Facility: "Riverside Medical Center", Type: "Medication Management", Auditor: "Michael Chen", Date: day.AddDate(0, 0, -2), Status: models.AuditStatusInProgress, Priority: models.PriorityCritical, Findings: 5},
		{ID: 3, Facility: "Northside Clinic", Type: "Patient Safety", Auditor: "Emily Davis", Date: day.AddDate(0, 0, 3), Status: models.AuditStatusScheduled, Priority: models.PriorityMedium},
		{ID: 4, Facility: "Westview Rehabilitation", Type: "Documentation Review", Auditor: "Robert Wilson", Date: day.AddDate(0, 0, 6), Status: models.AuditStatusScheduled, Priority: models.PriorityLow},
		{ID: 5, Facility: "Eastside Surgical Center", Type: "Surgical Safety", Auditor: "Sarah Johnson", Date: day.AddDate(0, 0, -45), Status: models.AuditStatusCompleted, Priority: models.PriorityHigh, Score: intPtr(78), Findings: 8},
		{ID: 6, Facility: "Lakeside Pediatrics", Type: "Emergency Preparedness", Auditor: "Michael Chen", Date: day.AddDate(0, 0, 12), Status: models.AuditStatusCancelled, Priority: models.PriorityMedium},
	}
}

// SeedCAPAs returns the sample CAPAs, due relative to now
func SeedCAPAs(now time.Time) []*models.CAPA {
	day := truncateDay(now)
	return []*models.CAPA{
		{ID: 1, Title: "Hand Hygiene Compliance Improvement", Facility: "St. Mary's General Hospital", Owner: "Dr. Lisa Park", DueDate: day.AddDate(0, 0, 5), Status: models.CAPAStatusInProgress, Priority: models.PriorityHigh, SourceAuditID: intPtr(1)},
		{ID: 2, Title: "Medication Storage Temperature Monitoring", Facility: "Riverside Medical Center", Owner: "James Miller", DueDate: day.AddDate(0, 0, -3), Status: models.CAPAStatusOpen, Priority: models.PriorityCritical, SourceAuditID: intPtr(2)},
		{ID: 3, Title: "Surgical Checklist Retraining", Facility: "Eastside Surgical Center", Owner: "Dr. Anna Lopez", DueDate: day.AddDate(0, 0, -10), Status: models.CAPAStatusPendingVerification, Priority: models.PriorityHigh, SourceAuditID: intPtr(5)},
		{ID: 4, Title: "Fall Risk Assessment Update", Facility: "Westview Rehabilitation", Owner: "Karen White", DueDate: day.AddDate(0, 0, 20), Status: models.CAPAStatusOpen, Priority: models.PriorityMedium},
		{ID: 5, Title: "Sharps Disposal Signage", Facility: "Northside Clinic", Owner: "Tom Brown", DueDate: day.AddDate(0, 0, -30), Status: models.CAPAStatusClosed, Priority: models.PriorityLow},
	}
}

// SeedTemplates returns the sample report templates
func SeedTemplates() []*models.ReportTemplate {
	return []*models.ReportTemplate{
		{ID: 1, Name: "Monthly Compliance Summary", Description: "Compliance scores and findings across all facilities", Category: "Compliance", Format: models.ReportFormatPDF, Frequency: "Monthly", Status: models.TemplateStatusActive},
		{ID: 2, Name: "CAPA Status Report", Description: "Open, overdue and closed corrective actions", Category: "CAPA", Format: models.ReportFormatXLSX, Frequency: "Weekly", Status: models.TemplateStatusActive},
		{ID: 3, Name: "Audit Findings Export", Description: "Raw findings, one row per finding", Category: "Audit", Format: models.ReportFormatCSV, Frequency: "On Demand", Status: models.TemplateStatusDraft},
		{ID: 4, Name: "Annual Accreditation Readiness", Description: "Readiness against accreditation standards", Category: "Accreditation", Format: models.ReportFormatPDF, Frequency: "Annually", Status: models.TemplateStatusArchived},
	}
}

// SeedReports returns the sample generated reports
func SeedReports(now time.Time) []*models.Report {
	return []*models.Report{
		{ID: 1, Name: "Monthly Compliance Summary", TemplateID: 1, Format: models.ReportFormatPDF, GeneratedAt: now.Add(-24 * time.Hour), GeneratedBy: "admin", SizeBytes: 2_457_600},
		{ID: 2, Name: "CAPA Status Report", TemplateID: 2, Format: models.ReportFormatXLSX, GeneratedAt: now.Add(-72 * time.Hour), GeneratedBy: "auditor", SizeBytes: 1_153_434},
		{ID: 3, Name: "Monthly Compliance Summary", TemplateID: 1, Format: models.ReportFormatPDF, GeneratedAt: now.Add(-31 * 24 * time.Hour), GeneratedBy: "admin", SizeBytes: 2_306_867},
	}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
