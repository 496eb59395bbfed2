package authz

import "github.com/upb/qms-dashboard/models"

// Matrix maps (resource, action) to a permission bit. A matrix returned by
// ResolvePermissions holds an entry for every defined pair.
type Matrix map[models.ResourceType]map[Action]bool

type grants map[models.ResourceType][]Action

var roleGrants = map[Role]grants{
	RoleAdmin: {
		models.ResourceAudit:   {ActionView, ActionEdit, ActionDelete},
		models.ResourceCAPA:    {ActionView, ActionEdit, ActionDelete},
		models.ResourceReports: {ActionView, ActionEdit, ActionDelete, ActionRun},
	},
	RoleAuditor: {
		models.ResourceAudit:   {ActionView, ActionEdit},
		models.ResourceCAPA:    {ActionView, ActionEdit},
		models.ResourceReports: {ActionView, ActionRun},
	},
	RoleOtherAuditor: {
		models.ResourceAudit:   {ActionView},
		models.ResourceCAPA:    {ActionView},
		models.ResourceReports: {ActionView},
	},
}

// ResolvePermissions returns a fresh matrix for role. Unknown roles get a
// fully populated matrix with every entry false.
func ResolvePermissions(role Role) Matrix {
	m := denyAll()
	for resource, actions := range roleGrants[role] {
		for _, action := range actions {
			m[resource][action] = true
		}
	}
	return m
}

func denyAll() Matrix {
	m := make(Matrix, len(models.AllResources()))
	for _, resource := range models.AllResources() {
		row := make(map[Action]bool)
		for _, action := range MatrixActions(resource) {
			row[action] = false
		}
		m[resource] = row
	}
	return m
}

// Allows reports whether action on resource is permitted. Download is
// authorized by the view entry; undefined pairs are denied.
func (m Matrix) Allows(resource models.ResourceType, action Action) bool {
	if action == ActionDownload {
		action = ActionView
	}
	row, ok := m[resource]
	if !ok {
		return false
	}
	return row[action]
}

// Actions returns the allowed actions for resource in display order,
// including download when view is allowed.
func (m Matrix) Actions(resource models.ResourceType) []Action {
	allowed := make([]Action, 0, len(AllActions()))
	for _, action := range AllActions() {
		if m.Allows(resource, action) {
			allowed = append(allowed, action)
		}
	}
	return allowed
}

// Clone returns a deep copy of m
func (m Matrix) Clone() Matrix {
	out := make(Matrix, len(m))
	for resource, row := range m {
		r := make(map[Action]bool, len(row))
		for action, allowed := range row {
			r[action] = allowed
		}
		out[resource] = r
	}
	return out
}

// Equal reports whether two matrices hold the same entries
func (m Matrix) Equal(other Matrix) bool {
	if len(m) != len(other) {
		return false
	}
	for resource, row := range m {
		otherRow, ok := other[resource]
		if !ok || len(row) != len(otherRow) {
			return false
		}
		for action, allowed := range row {
			if v, ok := otherRow[action]; !ok || v != allowed {
				return false
			}
		}
	}
	return true
}
