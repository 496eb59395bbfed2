package deletion

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/upb/qms-dashboard/models"
	"github.com/upb/qms-dashboard/services"
	"github.com/upb/qms-dashboard/services/defaults"
	"github.com/upb/qms-dashboard/utils"
)

// ConfirmRequest is the second phase of a delete. Justification and approver
// are required when the confirmation asked for approval.
type ConfirmRequest struct {
	Justification string `json:"justification" validate:"required_if=Required true,max=2000"`
	ApprovedBy    string `json:"approved_by" validate:"required_if=Required true,max=255"`
	Required      bool   `json:"-"`
}

// Receipt acknowledges a confirmed delete. Deletion is simulated; no record
// is removed.
type Receipt struct {
	Token         string              `json:"token"`
	Resource      models.ResourceType `json:"resource"`
	RecordID      int                 `json:"record_id"`
	Justification string              `json:"justification,omitempty"`
	ApprovedBy    string              `json:"approved_by,omitempty"`
	DeletedAt     time.Time           `json:"deleted_at"`
	Simulated     bool                `json:"simulated"`
}

// Recorder receives confirmed and cancelled deletes
type Recorder interface {
	LogDeletion(ctx context.Context, kind models.ActivityKind, c *defaults.Confirmation, details map[string]interface{}) error
}

// Metrics counts deletes by result
type Metrics interface {
	ObserveDeletion(resource, result string)
}

// Service keeps pending delete confirmations until they are confirmed,
// cancelled, or expire.
type Service struct {
	pending  *lru.LRU[string, *defaults.Confirmation]
	ttl      time.Duration
	recorder Recorder
	metrics  Metrics
	now      func() time.Time
	logger   *zap.Logger
}

// Option configures a Service
type Option func(*Service)

// WithRecorder sets the activity recorder
func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithMetrics sets the deletion metrics
func WithMetrics(m Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a service holding at most size confirmations for ttl
func NewService(size int, ttl time.Duration, logger *zap.Logger, opts ...Option) *Service {
	if size <= 0 {
		size = 1
	}
	if ttl <= 0 {
		ttl = defaults.DefaultConfirmationTTL
	}
	s := &Service{
		pending: lru.NewLRU[string, *defaults.Confirmation](size, nil, ttl),
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hold stores c until it is confirmed or expires
func (s *Service) Hold(ctx context.Context, c *defaults.Confirmation) error {
	s.pending.Add(c.Token, c)
	return nil
}

// Request builds the confirmation of record and holds it
func (s *Service) Request(ctx context.Context, record models.Record) (*defaults.Confirmation, error) {
	c, err := defaults.ConfirmDelete(record)
	if err != nil {
		return nil, err
	}
	c.ExpiresAt = s.now().Add(s.ttl)
	if err := s.Hold(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns the pending confirmation for token
func (s *Service) Get(token string) (*defaults.Confirmation, error) {
	c, ok := s.pending.Get(token)
	if !ok || s.now().After(c.ExpiresAt) {
		return nil, services.ErrConfirmationNotFound
	}
	return c, nil
}

// Confirm completes a pending delete. The token is consumed; a second confirm
// with the same token fails with not found.
func (s *Service) Confirm(ctx context.Context, token string, req ConfirmRequest) (*Receipt, error) {
	c, err := s.Get(token)
	if err != nil {
		return nil, err
	}

	req.Required = c.RequiresJustification
	if err := utils.ValidateStruct(req); err != nil {
		return nil, services.NewValidationError("justification required", utils.GetValidationFields(err))
	}

	if !s.pending.Remove(token) {
		return nil, services.ErrConfirmationNotFound
	}

	receipt := &Receipt{
		Token:         token,
		Resource:      c.Resource,
		RecordID:      c.RecordID,
		Justification: req.Justification,
		ApprovedBy:    req.ApprovedBy,
		DeletedAt:     s.now(),
		Simulated:     true,
	}

	s.logger.Info("delete confirmed",
		zap.String("resource", string(c.Resource)),
		zap.Int("record_id", c.RecordID),
		zap.Bool("approval_required", c.ApprovalRequired),
	)
	s.observe(ctx, models.ActivityDeleteConfirmed, c, map[string]interface{}{
		"justification": req.Justification,
		"approved_by":   req.ApprovedBy,
		"simulated":     true,
	})
	return receipt, nil
}

// Cancel discards a pending delete
func (s *Service) Cancel(ctx context.Context, token string) error {
	c, ok := s.pending.Peek(token)
	if !ok || !s.pending.Remove(token) {
		return services.ErrConfirmationNotFound
	}
	s.observe(ctx, models.ActivityDeleteCancelled, c, nil)
	return nil
}

// Pending returns the number of confirmations awaiting an answer
func (s *Service) Pending() int {
	return s.pending.Len()
}

func (s *Service) observe(ctx context.Context, kind models.ActivityKind, c *defaults.Confirmation, details map[string]interface{}) {
	result := "confirmed"
	if kind == models.ActivityDeleteCancelled {
		result = "cancelled"
	}
	if s.metrics != nil {
		s.metrics.ObserveDeletion(string(c.Resource), result)
	}
	if s.recorder != nil {
		if err := s.recorder.LogDeletion(ctx, kind, c, details); err != nil {
			s.logger.Warn("failed to record deletion", zap.Error(err))
		}
	}
}

var _ defaults.Confirmations = (*Service)(nil)
