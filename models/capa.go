package models

import (
	"strconv"
	"time"
)

// CAPAStatus is the lifecycle state of a corrective/preventive action
type CAPAStatus string

const (
	CAPAStatusOpen                CAPAStatus = "Open"
	CAPAStatusInProgress          CAPAStatus = "In Progress"
	CAPAStatusPendingVerification CAPAStatus = "Pending Verification"
	CAPAStatusClosed              CAPAStatus = "Closed"
)

// CAPAStatuses returns the statuses a CAPA may be edited to
func CAPAStatuses() []string {
	return []string{
		string(CAPAStatusOpen),
		string(CAPAStatusInProgress),
		string(CAPAStatusPendingVerification),
		string(CAPAStatusClosed),
	}
}

// CAPA is a tracked remediation record tied to a finding
type CAPA struct {
	ID            int        `json:"id" db:"id"`
	Title         string     `json:"title" db:"title"`
	Facility      string     `json:"facility" db:"facility"`
	Owner         string     `json:"owner" db:"owner"`
	DueDate       time.Time  `json:"due_date" db:"due_date"`
	Status        CAPAStatus `json:"status" db:"status"`
	Priority      Priority   `json:"priority" db:"priority"`
	SourceAuditID *int       `json:"source_audit_id,omitempty" db:"source_audit_id"`
}

// TableName returns the table name for the CAPA model
func (CAPA) TableName() string {
	return "capas"
}

func (c *CAPA) RecordID() int          { return c.ID }
func (c *CAPA) Resource() ResourceType { return ResourceCAPA }
func (c *CAPA) Label() string          { return c.Title }

// Fields returns the exported columns of the CAPA
func (c *CAPA) Fields() []Field {
	return []Field{
		{Key: "id", Value: strconv.Itoa(c.ID)},
		{Key: "title", Value: c.Title},
		{Key: "facility", Value: c.Facility},
		{Key: "owner", Value: c.Owner},
		{Key: "due_date", Value: formatDate(c.DueDate)},
		{Key: "status", Value: string(c.Status)},
		{Key: "priority", Value: string(c.Priority)},
		{Key: "source_audit_id", Value: formatIntPtr(c.SourceAuditID)},
	}
}

// IsOpen returns true until the CAPA is closed
func (c *CAPA) IsOpen() bool {
	return c.Status != CAPAStatusClosed
}

// IsOverdue returns true when an open CAPA is past its due date
func (c *CAPA) IsOverdue(now time.Time) bool {
	return c.IsOpen() && !c.DueDate.IsZero() && c.DueDate.Before(now)
}
