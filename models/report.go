package models

import (
	"strconv"
	"time"
)

// ReportFormat is the output format of a report
type ReportFormat string

const (
	ReportFormatPDF  ReportFormat = "pdf"
	ReportFormatXLSX ReportFormat = "xlsx"
	ReportFormatCSV  ReportFormat = "csv"
)

// ReportFormats returns the supported output formats
func ReportFormats() []string {
	return []string{string(ReportFormatPDF), string(ReportFormatXLSX), string(ReportFormatCSV)}
}

// MimeType returns the content type used when a report in this format is downloaded
func (f ReportFormat) MimeType() string {
	switch f {
	case ReportFormatPDF:
		return "application/pdf"
	case ReportFormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv"
	}
}

// TemplateStatus is the lifecycle state of a report template
type TemplateStatus string

const (
	TemplateStatusActive   TemplateStatus = "Active"
	TemplateStatusDraft    TemplateStatus = "Draft"
	TemplateStatusArchived TemplateStatus = "Archived"
)

// TemplateStatuses returns the statuses a template may be edited to
func TemplateStatuses() []string {
	return []string{string(TemplateStatusActive), string(TemplateStatusDraft), string(TemplateStatusArchived)}
}

// ReportTemplate describes a report that can be run on demand or on a schedule
type ReportTemplate struct {
	ID          int            `json:"id" db:"id"`
	Name        string         `json:"name" db:"name"`
	Description string         `json:"description,omitempty" db:"description"`
	Category    string         `json:"category,omitempty" db:"category"`
	Format      ReportFormat   `json:"format" db:"format"`
	Frequency   string         `json:"frequency,omitempty" db:"frequency"`
	Status      TemplateStatus `json:"status,omitempty" db:"status"`
}

// TableName returns the table name for the ReportTemplate model
func (ReportTemplate) TableName() string {
	return "report_templates"
}

func (t *ReportTemplate) RecordID() int          { return t.ID }
func (t *ReportTemplate) Resource() ResourceType { return ResourceReports }
func (t *ReportTemplate) Label() string          { return t.Name }

// Fields returns the exported columns of the template
func (t *ReportTemplate) Fields() []Field {
	return []Field{
		{Key: "id", Value: strconv.Itoa(t.ID)},
		{Key: "name", Value: t.Name},
		{Key: "description", Value: t.Description},
		{Key: "category", Value: t.Category},
		{Key: "format", Value: string(t.Format)},
		{Key: "frequency", Value: t.Frequency},
		{Key: "status", Value: string(t.Status)},
	}
}

// Report is a generated report produced from a template
type Report struct {
	ID          int          `json:"id" db:"id"`
	Name        string       `json:"name" db:"name"`
	TemplateID  int          `json:"template_id" db:"template_id"`
	Format      ReportFormat `json:"format" db:"format"`
	GeneratedAt time.Time    `json:"generated_at" db:"generated_at"`
	GeneratedBy string       `json:"generated_by" db:"generated_by"`
	SizeBytes   int64        `json:"size_bytes" db:"size_bytes"`
}

// TableName returns the table name for the Report model
func (Report) TableName() string {
	return "reports"
}

func (r *Report) RecordID() int          { return r.ID }
func (r *Report) Resource() ResourceType { return ResourceReports }
func (r *Report) Label() string          { return r.Name }

// Fields returns the exported columns of the report
func (r *Report) Fields() []Field {
	return []Field{
		{Key: "id", Value: strconv.Itoa(r.ID)},
		{Key: "name", Value: r.Name},
		{Key: "template_id", Value: strconv.Itoa(r.TemplateID)},
		{Key: "format", Value: string(r.Format)},
		{Key: "generated_at", Value: r.GeneratedAt.UTC().Format(time.RFC3339)},
		{Key: "generated_by", Value: r.GeneratedBy},
		{Key: "size_bytes", Value: strconv.FormatInt(r.SizeBytes, 10)},
	}
}
