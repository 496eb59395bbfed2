package calendar

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Reminder receives the summary of each reminder run
type Reminder interface {
	LogReminder(ctx context.Context, details map[string]interface{}) error
}

// Scheduler runs the reminder job on a cron schedule
type Scheduler struct {
	service  *Service
	cron     *cron.Cron
	window   time.Duration
	reminder Reminder
	now      func() time.Time
	logger   *zap.Logger
}

// NewScheduler parses spec (standard five-field cron) and registers the
// reminder job. reminder may be nil.
func NewScheduler(service *Service, spec string, window time.Duration, reminder Reminder, logger *zap.Logger) (*Scheduler, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
	}

	s := &Scheduler{
		service:  service,
		cron:     cron.New(cron.WithParser(parser)),
		window:   window,
		reminder: reminder,
		now:      time.Now,
		logger:   logger,
	}
	s.cron.Schedule(schedule, cron.FuncJob(func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			s.logger.Error("reminder run failed", zap.Error(err))
		}
	}))
	return s, nil
}

// Start begins running the schedule in the background
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("calendar reminders scheduled", zap.Duration("window", s.window))
}

// Stop stops the schedule and waits for a running job to finish or ctx to end
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// ReminderSummary is the result of one reminder run
type ReminderSummary struct {
	Upcoming []*Event `json:"upcoming"`
	Overdue  []*Event `json:"overdue"`
}

// RunOnce logs upcoming audits and overdue CAPAs and records the run
func (s *Scheduler) RunOnce(ctx context.Context) (*ReminderSummary, error) {
	now := s.now()

	upcoming, err := s.service.Upcoming(ctx, now, s.window)
	if err != nil {
		return nil, err
	}
	overdue, err := s.service.Overdue(ctx, now)
	if err != nil {
		return nil, err
	}

	audits := 0
	for _, e := range upcoming {
		if e.Kind == EventAudit {
			audits++
			s.logger.Info("upcoming audit",
				zap.Int("audit_id", e.RecordID),
				zap.String("facility", e.Facility),
				zap.Time("date", e.Date))
		}
	}
	for _, e := range overdue {
		s.logger.Warn("overdue CAPA",
			zap.Int("capa_id", e.RecordID),
			zap.String("title", e.Title),
			zap.Time("due_date", e.Date))
	}

	if s.reminder != nil {
		details := map[string]interface{}{
			"upcoming_audits": audits,
			"upcoming_events": len(upcoming),
			"overdue_capas":   len(overdue),
		}
		if err := s.reminder.LogReminder(ctx, details); err != nil {
			s.logger.Warn("failed to record reminder", zap.Error(err))
		}
	}

	return &ReminderSummary{Upcoming: upcoming, Overdue: overdue}, nil
}
