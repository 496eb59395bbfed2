package dispatch

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/upb/qms-dashboard/internal/authz"
	"github.com/upb/qms-dashboard/models"
	"github.com/upb/qms-dashboard/services"
	"github.com/upb/qms-dashboard/services/defaults"
)

// HandlerFunc performs an action on a record
type HandlerFunc func(ctx context.Context, record models.Record) (any, error)

// Key identifies a dispatch table entry
type Key struct {
	Resource models.ResourceType
	Action   authz.Action
}

// Table maps (resource, action) pairs to their default handler
type Table map[Key]HandlerFunc

// DefaultTable binds the default handlers. Run exists only for reports.
func DefaultTable(h *defaults.Handlers) Table {
	t := Table{}
	for _, resource := range models.AllResources() {
		t[Key{resource, authz.ActionView}] = h.View
		t[Key{resource, authz.ActionEdit}] = h.Edit
		t[Key{resource, authz.ActionDelete}] = h.Delete
		t[Key{resource, authz.ActionDownload}] = h.Download
	}
	t[Key{models.ResourceReports, authz.ActionRun}] = h.Run
	return t
}

// Overrides are caller-supplied handlers. A nil field falls back to the table.
type Overrides struct {
	OnView     HandlerFunc
	OnEdit     HandlerFunc
	OnDelete   HandlerFunc
	OnDownload HandlerFunc
	OnRun      HandlerFunc
}

// For returns the override registered for action
func (o Overrides) For(action authz.Action) HandlerFunc {
	switch action {
	case authz.ActionView:
		return o.OnView
	case authz.ActionEdit:
		return o.OnEdit
	case authz.ActionDelete:
		return o.OnDelete
	case authz.ActionDownload:
		return o.OnDownload
	case authz.ActionRun:
		return o.OnRun
	}
	return nil
}

// Request is one action invoked on one record
type Request struct {
	Resource  models.ResourceType
	Action    authz.Action
	Record    models.Record
	Overrides Overrides
	Modals    ModalSink // optional
}

// Outcome is how a dispatch ended
type Outcome string

const (
	OutcomeHandled        Outcome = "handled"
	OutcomeForbidden      Outcome = "forbidden"
	OutcomeNotImplemented Outcome = "not_implemented"
)

// Result is the result of a dispatch
type Result struct {
	Outcome  Outcome             `json:"outcome"`
	Resource models.ResourceType `json:"resource"`
	Action   authz.Action        `json:"action"`
	RecordID int                 `json:"record_id"`
	Value    any                 `json:"value,omitempty"`
	Notice   string              `json:"notice,omitempty"`
}

// Event describes a finished dispatch for the activity trail
type Event struct {
	Resource models.ResourceType
	Action   authz.Action
	RecordID int
	Label    string
	Outcome  Outcome
	Err      error
}

// Recorder receives every dispatch
type Recorder interface {
	RecordDispatch(ctx context.Context, e Event)
}

// Metrics counts dispatch outcomes
type Metrics interface {
	ObserveDispatch(resource, action, outcome string)
}

// NoticeModalID is the modal opened for forbidden and not implemented actions
const NoticeModalID = "notice"

// modalActions open a modal with the default handler's value
var modalActions = map[authz.Action]bool{
	authz.ActionView:   true,
	authz.ActionEdit:   true,
	authz.ActionDelete: true,
}

// Dispatcher routes action requests
type Dispatcher struct {
	table    Table
	recorder Recorder
	metrics  Metrics
	logger   *zap.Logger
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithRecorder sets the dispatch recorder
func WithRecorder(r Recorder) Option {
	return func(d *Dispatcher) { d.recorder = r }
}

// WithMetrics sets the dispatch metrics
func WithMetrics(m Metrics) Option {
	return func(d *Dispatcher) { d.metrics = m }
}

// NewDispatcher creates a dispatcher over table
func NewDispatcher(table Table, logger *zap.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{table: table, logger: logger}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ModalID is the id of the modal a default handler opens
func ModalID(resource models.ResourceType, action authz.Action, recordID int) string {
	return fmt.Sprintf("%s-%s-%d", resource, action, recordID)
}

// Dispatch runs req under matrix. A missing handler or a denied action is not
// an error: the result carries the outcome and a notice modal is opened.
// Handler errors are returned unchanged.
func (d *Dispatcher) Dispatch(ctx context.Context, matrix authz.Matrix, req Request) (*Result, error) {
	if !req.Resource.Valid() {
		return nil, services.ErrInvalidResource
	}
	if !req.Action.Valid() {
		return nil, services.ErrInvalidAction
	}
	if req.Record == nil {
		return nil, services.ErrMissingRecord
	}
	if req.Record.Resource() != req.Resource {
		return nil, services.ErrRecordMismatch
	}

	modals := req.Modals
	if modals == nil {
		modals = discardSink{}
	}

	result := &Result{
		Resource: req.Resource,
		Action:   req.Action,
		RecordID: req.Record.RecordID(),
	}

	handler := req.Overrides.For(req.Action)
	isDefault := handler == nil
	if isDefault {
		handler = d.table[Key{req.Resource, req.Action}]
	}

	switch {
	case handler == nil:
		result.Outcome = OutcomeNotImplemented
		result.Notice = fmt.Sprintf("%s is not available for %s records.", title(req.Action), req.Resource)
		modals.Open(NoticeModalID, Notice{Title: "Not available", Message: result.Notice})
		d.finish(ctx, req, result, nil)
		return result, nil

	case !matrix.Allows(req.Resource, req.Action):
		result.Outcome = OutcomeForbidden
		result.Notice = fmt.Sprintf("Your role is not permitted to %s %s records.", req.Action, req.Resource)
		modals.Open(NoticeModalID, Notice{Title: "Access denied", Message: result.Notice})
		d.finish(ctx, req, result, nil)
		return result, nil
	}

	value, err := handler(ctx, req.Record)
	if err != nil {
		d.finish(ctx, req, result, err)
		return nil, err
	}

	result.Outcome = OutcomeHandled
	result.Value = value
	if isDefault && modalActions[req.Action] {
		modals.Open(ModalID(req.Resource, req.Action, result.RecordID), value)
	}
	d.finish(ctx, req, result, nil)
	return result, nil
}

func (d *Dispatcher) finish(ctx context.Context, req Request, result *Result, err error) {
	outcome := string(result.Outcome)
	if err != nil {
		outcome = "error"
		d.logger.Warn("action handler failed",
			zap.String("resource", string(req.Resource)),
			zap.String("action", string(req.Action)),
			zap.Int("record_id", result.RecordID),
			zap.Error(err),
		)
	} else {
		d.logger.Debug("action dispatched",
			zap.String("resource", string(req.Resource)),
			zap.String("action", string(req.Action)),
			zap.Int("record_id", result.RecordID),
			zap.String("outcome", outcome),
		)
	}

	if d.metrics != nil {
		d.metrics.ObserveDispatch(string(req.Resource), string(req.Action), outcome)
	}
	if d.recorder != nil {
		d.recorder.RecordDispatch(ctx, Event{
			Resource: req.Resource,
			Action:   req.Action,
			RecordID: result.RecordID,
			Label:    req.Record.Label(),
			Outcome:  result.Outcome,
			Err:      err,
		})
	}
}

func title(a authz.Action) string {
	s := string(a)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
