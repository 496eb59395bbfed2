package models

import (
	"strconv"
	"time"
)

// AuditStatus is the lifecycle state of a facility audit
type AuditStatus string

const (
	AuditStatusScheduled  AuditStatus = "Scheduled"
	AuditStatusInProgress AuditStatus = "In Progress"
	AuditStatusCompleted  AuditStatus = "Completed"
	AuditStatusCancelled  AuditStatus = "Cancelled"
)

// AuditStatuses returns the statuses an audit may be edited to
func AuditStatuses() []string {
	return []string{
		string(AuditStatusScheduled),
		string(AuditStatusInProgress),
		string(AuditStatusCompleted),
		string(AuditStatusCancelled),
	}
}

// Audit is a facility audit
type Audit struct {
	ID       int         `json:"id" db:"id"`
	Facility string      `json:"facility" db:"facility"`
	Type     string      `json:"type" db:"type"`
	Auditor  string      `json:"auditor" db:"auditor"`
	Date     time.Time   `json:"date" db:"scheduled_date"`
	Status   AuditStatus `json:"status" db:"status"`
	Priority Priority    `json:"priority" db:"priority"`
	Score    *int        `json:"score,omitempty" db:"score"` // Set once completed
	Findings int         `json:"findings" db:"findings"`
}

// TableName returns the table name for the Audit model
func (Audit) TableName() string {
	return "audits"
}

func (a *Audit) RecordID() int          { return a.ID }
func (a *Audit) Resource() ResourceType { return ResourceAudit }
func (a *Audit) Label() string          { return a.Facility }

// Fields returns the exported columns of the audit
func (a *Audit) Fields() []Field {
	return []Field{
		{Key: "id", Value: strconv.Itoa(a.ID)},
		{Key: "facility", Value: a.Facility},
		{Key: "type", Value: a.Type},
		{Key: "auditor", Value: a.Auditor},
		{Key: "date", Value: formatDate(a.Date)},
		{Key: "status", Value: string(a.Status)},
		{Key: "priority", Value: string(a.Priority)},
		{Key: "score", Value: formatIntPtr(a.Score)},
		{Key: "findings", Value: strconv.Itoa(a.Findings)},
	}
}

// IsCompleted returns true once the audit has been completed
func (a *Audit) IsCompleted() bool {
	return a.Status == AuditStatusCompleted
}

// IsActive returns true for audits that still appear on the calendar
func (a *Audit) IsActive() bool {
	return a.Status == AuditStatusScheduled || a.Status == AuditStatusInProgress
}
