package calendar

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/upb/qms-dashboard/models"
	"github.com/upb/qms-dashboard/repositories"
)

// EventKind distinguishes calendar entries
type EventKind string

const (
	EventAudit   EventKind = "audit"
	EventCAPADue EventKind = "capa_due"
)

// Event is one dated entry of the quality calendar
type Event struct {
	Date     time.Time           `json:"date"`
	Kind     EventKind           `json:"kind"`
	Resource models.ResourceType `json:"resource"`
	RecordID int                 `json:"record_id"`
	Title    string              `json:"title"`
	Facility string              `json:"facility"`
	Status   string              `json:"status"`
	Priority models.Priority     `json:"priority"`
	Overdue  bool                `json:"overdue"`
}

// Fields returns the exported columns of the event
func (e *Event) Fields() []models.Field {
	return []models.Field{
		{Key: "date", Value: e.Date.Format("2006-01-02")},
		{Key: "kind", Value: string(e.Kind)},
		{Key: "record_id", Value: strconv.Itoa(e.RecordID)},
		{Key: "title", Value: e.Title},
		{Key: "facility", Value: e.Facility},
		{Key: "status", Value: e.Status},
		{Key: "priority", Value: string(e.Priority)},
	}
}

// Service builds the calendar from scheduled audits and CAPA due dates
type Service struct {
	audits repositories.AuditRepository
	capas  repositories.CAPARepository
	logger *zap.Logger
}

// NewService creates a calendar service
func NewService(audits repositories.AuditRepository, capas repositories.CAPARepository, logger *zap.Logger) *Service {
	return &Service{audits: audits, capas: capas, logger: logger}
}

// Upcoming returns active audits and open CAPA due dates between the start of
// from's day and from+window, sorted by date.
func (s *Service) Upcoming(ctx context.Context, from time.Time, window time.Duration) ([]*Event, error) {
	start := startOfDay(from)
	end := from.Add(window)

	audits, err := s.audits.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list audits: %w", err)
	}
	capas, err := s.capas.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list CAPAs: %w", err)
	}

	events := make([]*Event, 0)
	for _, a := range audits {
		if !a.IsActive() || a.Date.Before(start) || a.Date.After(end) {
			continue
		}
		events = append(events, auditEvent(a))
	}
	for _, c := range capas {
		if !c.IsOpen() || c.DueDate.Before(start) || c.DueDate.After(end) {
			continue
		}
		events = append(events, capaEvent(c, from))
	}

	sortEvents(events)
	return events, nil
}

// Overdue returns open CAPAs whose due date has passed
func (s *Service) Overdue(ctx context.Context, now time.Time) ([]*Event, error) {
	capas, err := s.capas.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list CAPAs: %w", err)
	}

	events := make([]*Event, 0)
	for _, c := range capas {
		if c.IsOverdue(now) {
			events = append(events, capaEvent(c, now))
		}
	}
	sortEvents(events)
	return events, nil
}

func auditEvent(a *models.Audit) *Event {
	return &Event{
		Date:     a.Date,
		Kind:     EventAudit,
		Resource: models.ResourceAudit,
		RecordID: a.ID,
		Title:    a.Type + " audit",
		Facility: a.Facility,
		Status:   string(a.Status),
		Priority: a.Priority,
	}
}

func capaEvent(c *models.CAPA, now time.Time) *Event {
	return &Event{
		Date:     c.DueDate,
		Kind:     EventCAPADue,
		Resource: models.ResourceCAPA,
		RecordID: c.ID,
		Title:    c.Title,
		Facility: c.Facility,
		Status:   string(c.Status),
		Priority: c.Priority,
		Overdue:  c.IsOverdue(now),
	}
}

func sortEvents(events []*Event) {
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Date.Equal(events[j].Date) {
			return events[i].Date.Before(events[j].Date)
		}
		if events[i].Kind != events[j].Kind {
			return events[i].Kind < events[j].Kind
		}
		return events[i].RecordID < events[j].RecordID
	})
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
