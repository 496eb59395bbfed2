package defaults

import (
	"strconv"

	"github.com/upb/qms-dashboard/models"
	"github.com/upb/qms-dashboard/services"
)

// Input types of edit form fields
const (
	InputText     = "text"
	InputTextarea = "textarea"
	InputDate     = "date"
	InputNumber   = "number"
	InputSelect   = "select"
)

// EditField is one editable attribute of a record
type EditField struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Value    string   `json:"value"`
	Options  []string `json:"options,omitempty"`
	Required bool     `json:"required"`
}

// EditForm describes how a record is edited. Submitting it is not supported;
// edits are never persisted.
type EditForm struct {
	Resource models.ResourceType `json:"resource"`
	RecordID int                 `json:"record_id"`
	Title    string              `json:"title"`
	Fields   []EditField         `json:"fields"`
}

var frequencies = []string{"On Demand", "Weekly", "Monthly", "Quarterly", "Annually"}

// EditFormOf builds the edit form of record
func EditFormOf(record models.Record) (*EditForm, error) {
	form := &EditForm{
		Resource: record.Resource(),
		RecordID: record.RecordID(),
		Title:    "Edit " + record.Label(),
	}

	switch r := record.(type) {
	case *models.Audit:
		form.Fields = []EditField{
			{Name: "facility", Label: "Facility", Type: InputText, Value: r.Facility, Required: true},
			{Name: "type", Label: "Audit Type", Type: InputText, Value: r.Type, Required: true},
			{Name: "auditor", Label: "Auditor", Type: InputText, Value: r.Auditor, Required: true},
			{Name: "date", Label: "Scheduled Date", Type: InputDate, Value: r.Date.Format("2006-01-02"), Required: true},
			{Name: "status", Label: "Status", Type: InputSelect, Value: string(r.Status), Options: models.AuditStatuses(), Required: true},
			{Name: "priority", Label: "Priority", Type: InputSelect, Value: string(r.Priority), Options: models.Priorities(), Required: true},
			{Name: "findings", Label: "Findings", Type: InputNumber, Value: strconv.Itoa(r.Findings)},
		}
	case *models.CAPA:
		form.Fields = []EditField{
			{Name: "title", Label: "Title", Type: InputText, Value: r.Title, Required: true},
			{Name: "owner", Label: "Owner", Type: InputText, Value: r.Owner, Required: true},
			{Name: "due_date", Label: "Due Date", Type: InputDate, Value: r.DueDate.Format("2006-01-02"), Required: true},
			{Name: "status", Label: "Status", Type: InputSelect, Value: string(r.Status), Options: models.CAPAStatuses(), Required: true},
			{Name: "priority", Label: "Priority", Type: InputSelect, Value: string(r.Priority), Options: models.Priorities(), Required: true},
		}
	case *models.ReportTemplate:
		form.Fields = []EditField{
			{Name: "name", Label: "Name", Type: InputText, Value: r.Name, Required: true},
			{Name: "description", Label: "Description", Type: InputTextarea, Value: r.Description},
			{Name: "format", Label: "Format", Type: InputSelect, Value: string(r.Format), Options: models.ReportFormats(), Required: true},
			{Name: "frequency", Label: "Frequency", Type: InputSelect, Value: r.Frequency, Options: frequencies},
			{Name: "status", Label: "Status", Type: InputSelect, Value: string(r.Status), Options: models.TemplateStatuses(), Required: true},
		}
	case *models.Report:
		form.Fields = []EditField{
			{Name: "name", Label: "Name", Type: InputText, Value: r.Name, Required: true},
		}
	default:
		return nil, services.ErrInvalidResource
	}
	return form, nil
}
