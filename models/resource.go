package models

import (
	"strconv"
	"time"
)

// ResourceType is the category of domain record an action applies to
type ResourceType string

const (
	ResourceAudit   ResourceType = "audit"
	ResourceCAPA    ResourceType = "capa"
	ResourceReports ResourceType = "reports"
)

// AllResources returns every resource type in display order
func AllResources() []ResourceType {
	return []ResourceType{ResourceAudit, ResourceCAPA, ResourceReports}
}

// Valid reports whether r is a known resource type
func (r ResourceType) Valid() bool {
	switch r {
	case ResourceAudit, ResourceCAPA, ResourceReports:
		return true
	}
	return false
}

// Field is a single ordered key/value pair of a record, used by exports
type Field struct {
	Key   string
	Value string
}

// Record is the polymorphic domain record handled by the action dispatcher.
// Implementations: *Audit, *CAPA, *ReportTemplate, *Report.
type Record interface {
	RecordID() int
	Resource() ResourceType
	// Label is the identifying field shown to users (facility, title or name)
	Label() string
	Fields() []Field
}

// Priority is shared by audits and CAPAs
type Priority string

const (
	PriorityLow      Priority = "Low"
	PriorityMedium   Priority = "Medium"
	PriorityHigh     Priority = "High"
	PriorityCritical Priority = "Critical"
)

// Priorities returns the allowed priority values
func Priorities() []string {
	return []string{string(PriorityLow), string(PriorityMedium), string(PriorityHigh), string(PriorityCritical)}
}

const dateLayout = "2006-01-02"

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func formatIntPtr(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
