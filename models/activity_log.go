package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ActivityKind represents the kind of activity being recorded
type ActivityKind string

const (
	ActivityActionDispatched ActivityKind = "action_dispatched"
	ActivityRoleSwitched     ActivityKind = "role_switched"
	ActivityDeleteConfirmed  ActivityKind = "delete_confirmed"
	ActivityDeleteCancelled  ActivityKind = "delete_cancelled"
	ActivityTaskCancelled    ActivityKind = "task_cancelled"
	ActivityReminder         ActivityKind = "reminder"
)

// ActivityLog represents one entry of the activity trail
type ActivityLog struct {
	ID        uuid.UUID       `json:"id" db:"id"`
	Kind      ActivityKind    `json:"kind" db:"kind"`
	SessionID string          `json:"session_id,omitempty" db:"session_id"`
	Role      string          `json:"role,omitempty" db:"role"`
	Resource  ResourceType    `json:"resource,omitempty" db:"resource"`
	Action    string          `json:"action,omitempty" db:"action"`
	RecordID  *int            `json:"record_id,omitempty" db:"record_id"`
	Outcome   string          `json:"outcome,omitempty" db:"outcome"`
	Details   json.RawMessage `json:"details,omitempty" db:"details"` // JSONB for flexible metadata
	RequestID string          `json:"request_id,omitempty" db:"request_id"`
	Timestamp time.Time       `json:"timestamp" db:"timestamp"`
}

// TableName returns the table name for the ActivityLog model
func (ActivityLog) TableName() string {
	return "activity_logs"
}

// NewActivityLog creates a new ActivityLog instance
func NewActivityLog(kind ActivityKind) *ActivityLog {
	return &ActivityLog{
		ID:        uuid.New(),
		Kind:      kind,
		Timestamp: time.Now(),
	}
}

// WithSession sets the session and the role active at the time
func (a *ActivityLog) WithSession(sessionID, role string) *ActivityLog {
	a.SessionID = sessionID
	a.Role = role
	return a
}

// WithAction sets the resource, action and outcome
func (a *ActivityLog) WithAction(resource ResourceType, action, outcome string) *ActivityLog {
	a.Resource = resource
	a.Action = action
	a.Outcome = outcome
	return a
}

// WithRecord sets the record ID
func (a *ActivityLog) WithRecord(recordID int) *ActivityLog {
	a.RecordID = &recordID
	return a
}

// WithDetails sets the details
func (a *ActivityLog) WithDetails(details interface{}) *ActivityLog {
	if data, err := json.Marshal(details); err == nil {
		a.Details = data
	}
	return a
}

// WithRequest sets request metadata
func (a *ActivityLog) WithRequest(requestID string) *ActivityLog {
	a.RequestID = requestID
	return a
}
