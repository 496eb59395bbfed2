package authz

import "github.com/upb/qms-dashboard/models"

// Role identifies the capability set of a session. Any string is
// representable; only the KnownRoles grant permissions.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleAuditor      Role = "auditor"
	RoleOtherAuditor Role = "other_auditor"
)

// KnownRoles returns the roles that have a defined matrix
func KnownRoles() []Role {
	return []Role{RoleAdmin, RoleAuditor, RoleOtherAuditor}
}

// Known reports whether r has a defined matrix
func (r Role) Known() bool {
	switch r {
	case RoleAdmin, RoleAuditor, RoleOtherAuditor:
		return true
	}
	return false
}

// Action is a user-initiated operation on a record
type Action string

const (
	ActionView     Action = "view"
	ActionEdit     Action = "edit"
	ActionDelete   Action = "delete"
	ActionDownload Action = "download"
	ActionRun      Action = "run"
)

// AllActions returns every action in display order
func AllActions() []Action {
	return []Action{ActionView, ActionEdit, ActionDelete, ActionDownload, ActionRun}
}

// Valid reports whether a is a known action
func (a Action) Valid() bool {
	switch a {
	case ActionView, ActionEdit, ActionDelete, ActionDownload, ActionRun:
		return true
	}
	return false
}

// MatrixActions returns the actions that have a matrix column for resource.
// Download has no column of its own and is authorized through view.
func MatrixActions(resource models.ResourceType) []Action {
	switch resource {
	case models.ResourceAudit, models.ResourceCAPA:
		return []Action{ActionView, ActionEdit, ActionDelete}
	case models.ResourceReports:
		return []Action{ActionView, ActionEdit, ActionDelete, ActionRun}
	}
	return nil
}
