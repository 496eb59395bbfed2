package defaults

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/upb/qms-dashboard/models"
	"github.com/upb/qms-dashboard/services/export"
	"github.com/upb/qms-dashboard/services/progress"
)

// Plan kinds
const (
	KindReportRun = "report_run"
	KindDownload  = "download"
)

// ReportComplete is the status message of the last report generation step
const ReportComplete = "Report generation complete!"

var reportSteps = []progress.Step{
	{Percent: 10, Message: "Initializing report generation..."},
	{Percent: 25, Message: "Gathering audit data..."},
	{Percent: 40, Message: "Analyzing compliance metrics..."},
	{Percent: 55, Message: "Processing CAPA records..."},
	{Percent: 70, Message: "Generating charts and visualizations..."},
	{Percent: 85, Message: "Formatting report..."},
	{Percent: 95, Message: "Finalizing document..."},
	{Percent: 100, Message: ReportComplete},
}

// ReportResult describes a simulated generated report
type ReportResult struct {
	ReportID    string              `json:"report_id"`
	TemplateID  int                 `json:"template_id"`
	Name        string              `json:"name"`
	FileName    string              `json:"file_name"`
	Format      models.ReportFormat `json:"format"`
	SizeBytes   int64               `json:"size_bytes"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// ReportRunPlan simulates generating a report from t. now supplies the
// generation time.
func ReportRunPlan(t *models.ReportTemplate, now func() time.Time) progress.Plan {
	steps := make([]progress.Step, len(reportSteps))
	copy(steps, reportSteps)

	return progress.Plan{
		Kind:  KindReportRun,
		Steps: steps,
		Finish: func(ctx context.Context) (any, error) {
			at := now()
			format := t.Format
			if format == "" {
				format = models.ReportFormatPDF
			}
			return &ReportResult{
				ReportID:    fmt.Sprintf("RPT-%d-%d", at.Unix(), t.ID),
				TemplateID:  t.ID,
				Name:        t.Name,
				FileName:    export.FileName(t.Name, string(format), at),
				Format:      format,
				SizeBytes:   simulatedSize(format, t.ID),
				GeneratedAt: at,
			}, nil
		},
	}
}

func simulatedSize(format models.ReportFormat, id int) int64 {
	base := int64(2_400_000)
	switch format {
	case models.ReportFormatXLSX:
		base = 1_150_000
	case models.ReportFormatCSV:
		base = 240_000
	}
	return base + int64(id)*4096
}

// DownloadResult describes a file produced by a download task
type DownloadResult struct {
	ID        string    `json:"id"`
	FileName  string    `json:"file_name"`
	MimeType  string    `json:"mime_type"`
	SizeBytes int       `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// DownloadPlan renders record as CSV. The file reaches sink only when the
// task completes, so a cancelled download leaves nothing to fetch.
func DownloadPlan(record models.Record, sink export.Sink, now func() time.Time) progress.Plan {
	var payload *export.Payload

	return progress.Plan{
		Kind: KindDownload,
		Steps: []progress.Step{
			{Percent: 25, Message: "Preparing download..."},
			{Percent: 50, Message: "Collecting record data..."},
			{Percent: 75, Message: "Generating file..."},
			{Percent: 100, Message: "Download ready"},
		},
		Finish: func(ctx context.Context) (any, error) {
			base := fmt.Sprintf("%s %d %s", record.Resource(), record.RecordID(), record.Label())
			p, err := export.NewPayload(base, export.ModeStrict, []models.Record{record}, now())
			if err != nil {
				return nil, err
			}
			p.Resource = record.Resource()
			payload = p

			return &DownloadResult{
				ID:        uuid.NewString(),
				FileName:  p.FileName,
				MimeType:  p.MimeType,
				SizeBytes: p.Size,
				CreatedAt: p.CreatedAt,
			}, nil
		},
		Publish: func(ctx context.Context) error {
			if err := sink.Save(ctx, payload); err != nil {
				return fmt.Errorf("failed to save download: %w", err)
			}
			return nil
		},
	}
}
