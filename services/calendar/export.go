package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/upb/qms-dashboard/models"
	"github.com/upb/qms-dashboard/services/export"
	"github.com/upb/qms-dashboard/services/progress"
)

// KindCalendarExport is the plan kind of calendar exports
const KindCalendarExport = "calendar_export"

// ExportResult describes a finished calendar export
type ExportResult struct {
	FileName  string    `json:"file_name"`
	MimeType  string    `json:"mime_type"`
	Events    int       `json:"events"`
	SizeBytes int       `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// eventRecord adapts an Event to models.Record for the CSV encoder
type eventRecord struct{ e *Event }

func (r eventRecord) RecordID() int                 { return r.e.RecordID }
func (r eventRecord) Resource() models.ResourceType { return r.e.Resource }
func (r eventRecord) Label() string                 { return r.e.Title }
func (r eventRecord) Fields() []models.Field        { return r.e.Fields() }

// ExportPlan exports the events between from and from+window as CSV into
// sink. Calendar files are filed under the audit resource.
func (s *Service) ExportPlan(from time.Time, window time.Duration, sink export.Sink) progress.Plan {
	var (
		events  []*Event
		payload *export.Payload
	)

	return progress.Plan{
		Kind: KindCalendarExport,
		Steps: []progress.Step{
			{Percent: 30, Message: "Collecting calendar events...", Work: func(ctx context.Context) error {
				var err error
				events, err = s.Upcoming(ctx, from, window)
				return err
			}},
			{Percent: 70, Message: "Building calendar file...", Work: func(ctx context.Context) error {
				records := make([]models.Record, len(events))
				for i, e := range events {
					records[i] = eventRecord{e}
				}
				p, err := export.NewPayload("quality calendar", export.ModeStrict, records, from)
				if err != nil {
					return err
				}
				p.Resource = models.ResourceAudit
				payload = p
				return nil
			}},
			{Percent: 100, Message: "Calendar export complete!"},
		},
		Finish: func(ctx context.Context) (any, error) {
			return &ExportResult{
				FileName:  payload.FileName,
				MimeType:  payload.MimeType,
				Events:    len(events),
				SizeBytes: payload.Size,
				CreatedAt: payload.CreatedAt,
			}, nil
		},
		Publish: func(ctx context.Context) error {
			if err := sink.Save(ctx, payload); err != nil {
				return fmt.Errorf("failed to save calendar export: %w", err)
			}
			return nil
		},
	}
}
