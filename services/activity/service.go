package activity

import (
	"context"
	"fmt"
	"sync"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/upb/qms-dashboard/internal/authz"
	"github.com/upb/qms-dashboard/internal/session"
	"github.com/upb/qms-dashboard/models"
	"github.com/upb/qms-dashboard/repositories"
	"github.com/upb/qms-dashboard/services/defaults"
	"github.com/upb/qms-dashboard/services/dispatch"
	"github.com/upb/qms-dashboard/services/progress"
)

// Service writes the activity trail asynchronously
type Service struct {
	repo        repositories.ActivityRepository
	logger      *zap.Logger
	eventChan   chan *models.ActivityLog
	workerCount int
	bufferSize  int
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	started     bool
	stopped     bool
	mu          sync.Mutex
}

// Config holds configuration for the Service
type Config struct {
	BufferSize  int // Size of the event buffer channel
	WorkerCount int // Number of concurrent workers
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		BufferSize:  1000,
		WorkerCount: 2,
	}
}

// NewService creates a new Service instance
func NewService(repo repositories.ActivityRepository, logger *zap.Logger, config Config) *Service {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultConfig().BufferSize
	}
	if config.WorkerCount <= 0 {
		config.WorkerCount = DefaultConfig().WorkerCount
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Service{
		repo:        repo,
		logger:      logger,
		eventChan:   make(chan *models.ActivityLog, config.BufferSize),
		workerCount: config.WorkerCount,
		bufferSize:  config.BufferSize,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Start starts the background workers
func (s *Service) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("activity service already started")
	}

	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.started = true
	s.logger.Info("started activity service",
		zap.Int("worker_count", s.workerCount),
		zap.Int("buffer_size", s.bufferSize))

	return nil
}

// Stop waits for queued entries to be written, up to timeout
func (s *Service) Stop(timeout time.Duration) error {
	s.mu.Lock()
	if !s.started || s.stopped {
		s.mu.Unlock()
		return fmt.Errorf("activity service not running")
	}
	s.stopped = true
	// Senders check stopped under mu, so nothing sends after close.
	close(s.eventChan)
	s.mu.Unlock()

	s.logger.Info("stopping activity service", zap.Int("pending_events", len(s.eventChan)))

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("activity service stopped gracefully")
		s.cancel()
		return nil
	case <-time.After(timeout):
		s.cancel()
		return fmt.Errorf("activity service stop timeout after %v", timeout)
	}
}

// LogEvent queues entry without blocking; it is dropped when the buffer is full
func (s *Service) LogEvent(entry *models.ActivityLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || s.stopped {
		return fmt.Errorf("activity service not running")
	}

	select {
	case s.eventChan <- entry:
		return nil
	default:
		s.logger.Warn("activity channel full, dropping event",
			zap.String("kind", string(entry.Kind)),
			zap.String("session_id", entry.SessionID))
		return fmt.Errorf("activity buffer full")
	}
}

// LogEventBlocking waits until entry is queued or ctx is cancelled
func (s *Service) LogEventBlocking(ctx context.Context, entry *models.ActivityLog) error {
	for {
		s.mu.Lock()
		if !s.started || s.stopped {
			s.mu.Unlock()
			return fmt.Errorf("activity service not running")
		}
		select {
		case s.eventChan <- entry:
			s.mu.Unlock()
			return nil
		default:
		}
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.ctx.Done():
			return fmt.Errorf("activity service stopped")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func (s *Service) worker(id int) {
	defer s.wg.Done()

	s.logger.Debug("activity worker started", zap.Int("worker_id", id))

	for entry := range s.eventChan {
		if err := s.processEvent(entry); err != nil {
			s.logger.Error("failed to write activity entry",
				zap.Int("worker_id", id),
				zap.Error(err),
				zap.String("kind", string(entry.Kind)))
		}
	}

	s.logger.Debug("activity worker stopped", zap.Int("worker_id", id))
}

func (s *Service) processEvent(entry *models.ActivityLog) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.repo.Insert(ctx, entry); err != nil {
		return fmt.Errorf("failed to insert activity log: %w", err)
	}
	return nil
}

// Recent returns the newest entries
func (s *Service) Recent(ctx context.Context, limit int) ([]*models.ActivityLog, error) {
	return s.repo.ListRecent(ctx, limit)
}

// GetStats returns statistics about the service
func (s *Service) GetStats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Stats{
		BufferSize:    s.bufferSize,
		PendingEvents: len(s.eventChan),
		WorkerCount:   s.workerCount,
		Started:       s.started && !s.stopped,
	}
}

// Stats represents activity service statistics
type Stats struct {
	BufferSize    int  `json:"buffer_size"`
	PendingEvents int  `json:"pending_events"`
	WorkerCount   int  `json:"worker_count"`
	Started       bool `json:"started"`
}

// Convenience methods for logging common events

// newEntry starts an entry stamped with the session and request in ctx
func newEntry(ctx context.Context, kind models.ActivityKind) *models.ActivityLog {
	entry := models.NewActivityLog(kind)
	if snap, ok := session.FromContext(ctx); ok {
		entry.WithSession(snap.ID, string(snap.Role))
	}
	return entry.WithRequest(chimw.GetReqID(ctx))
}

// RecordDispatch logs a dispatched action
func (s *Service) RecordDispatch(ctx context.Context, e dispatch.Event) {
	outcome := string(e.Outcome)
	if e.Err != nil {
		outcome = "error"
	}
	entry := newEntry(ctx, models.ActivityActionDispatched).
		WithAction(e.Resource, string(e.Action), outcome).
		WithRecord(e.RecordID)

	details := map[string]interface{}{"label": e.Label}
	if e.Err != nil {
		details["error"] = e.Err.Error()
	}
	entry.WithDetails(details)

	_ = s.LogEvent(entry)
}

// LogRoleSwitch logs a session changing role
func (s *Service) LogRoleSwitch(ctx context.Context, sessionID string, from, to authz.Role) error {
	entry := newEntry(ctx, models.ActivityRoleSwitched).
		WithSession(sessionID, string(to)).
		WithDetails(map[string]interface{}{
			"from":  from,
			"to":    to,
			"known": to.Known(),
		})
	return s.LogEvent(entry)
}

// LogDeletion logs a confirmed or cancelled delete
func (s *Service) LogDeletion(ctx context.Context, kind models.ActivityKind, c *defaults.Confirmation, details map[string]interface{}) error {
	if details == nil {
		details = map[string]interface{}{}
	}
	details["label"] = c.Label
	details["approval_required"] = c.ApprovalRequired

	entry := newEntry(ctx, kind).
		WithAction(c.Resource, string(authz.ActionDelete), string(kind)).
		WithRecord(c.RecordID).
		WithDetails(details)
	return s.LogEvent(entry)
}

// LogTaskCancelled logs a progress task cancelled by the user
func (s *Service) LogTaskCancelled(ctx context.Context, snap progress.Snapshot) error {
	entry := newEntry(ctx, models.ActivityTaskCancelled).
		WithDetails(map[string]interface{}{
			"task_id": snap.TaskID,
			"kind":    snap.Kind,
			"percent": snap.Percent,
		})
	return s.LogEvent(entry)
}

// LogReminder logs a scheduled reminder run
func (s *Service) LogReminder(ctx context.Context, details map[string]interface{}) error {
	return s.LogEvent(models.NewActivityLog(models.ActivityReminder).WithDetails(details))
}

var _ dispatch.Recorder = (*Service)(nil)
