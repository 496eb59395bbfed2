package defaults

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/upb/qms-dashboard/models"
	"github.com/upb/qms-dashboard/services"
)

// DefaultConfirmationTTL is how long a confirmation stays valid when no TTL is configured
const DefaultConfirmationTTL = 5 * time.Minute

// Confirmation is the first phase of a delete. Nothing is removed until it is
// confirmed with its token.
type Confirmation struct {
	Token                 string              `json:"token"`
	Resource              models.ResourceType `json:"resource"`
	RecordID              int                 `json:"record_id"`
	Label                 string              `json:"label"`
	Message               string              `json:"message"`
	Consequences          []string            `json:"consequences"`
	ApprovalRequired      bool                `json:"approval_required"`
	RequiresJustification bool                `json:"requires_justification"`
	ExpiresAt             time.Time           `json:"expires_at"`
}

func newConfirmation(record models.Record, noun string, approval bool, consequences []string) *Confirmation {
	return &Confirmation{
		Token:                 uuid.NewString(),
		Resource:              record.Resource(),
		RecordID:              record.RecordID(),
		Label:                 record.Label(),
		Message:               fmt.Sprintf("Are you sure you want to delete %s %q?", noun, record.Label()),
		Consequences:          consequences,
		ApprovalRequired:      approval,
		RequiresJustification: approval,
		ExpiresAt:             time.Now().Add(DefaultConfirmationTTL),
	}
}

// AuditDelete builds the delete confirmation of an audit. Completed audits
// need approval.
func AuditDelete(a *models.Audit) *Confirmation {
	consequences := []string{"The audit will be removed from the schedule"}
	if a.Findings > 0 {
		consequences = append(consequences, fmt.Sprintf("%d recorded findings will be discarded", a.Findings))
	}
	if a.IsCompleted() {
		consequences = append(consequences, "The completed audit report and score will be archived")
	}
	return newConfirmation(a, "audit", a.IsCompleted(), consequences)
}

// CAPADelete builds the delete confirmation of a CAPA. CAPAs always need approval.
func CAPADelete(c *models.CAPA) *Confirmation {
	consequences := []string{
		"Corrective action history will be lost",
		"Verification evidence will be removed",
	}
	if c.SourceAuditID != nil {
		consequences = append(consequences, fmt.Sprintf("The link to audit #%d will be removed", *c.SourceAuditID))
	}
	return newConfirmation(c, "CAPA", true, consequences)
}

// TemplateDelete builds the delete confirmation of a report template. Active
// templates need approval.
func TemplateDelete(t *models.ReportTemplate) *Confirmation {
	active := t.Status == models.TemplateStatusActive
	consequences := []string{"Scheduled generation from this template will stop"}
	if active {
		consequences = append(consequences, "Recipients of this active template will stop receiving reports")
	}
	return newConfirmation(t, "report template", active, consequences)
}

// ReportDelete builds the delete confirmation of a generated report
func ReportDelete(r *models.Report) *Confirmation {
	return newConfirmation(r, "report", false, []string{"The generated file will no longer be downloadable"})
}

// ConfirmDelete builds the delete confirmation of any record
func ConfirmDelete(record models.Record) (*Confirmation, error) {
	switch r := record.(type) {
	case *models.Audit:
		return AuditDelete(r), nil
	case *models.CAPA:
		return CAPADelete(r), nil
	case *models.ReportTemplate:
		return TemplateDelete(r), nil
	case *models.Report:
		return ReportDelete(r), nil
	}
	return nil, services.ErrInvalidResource
}
