package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upb/qms-dashboard/models"
)

func TestResolvePermissions_KnownRoles(t *testing.T) {
	tests := []struct {
		role   Role
		expect Matrix
	}{
		{
			role: RoleAdmin,
			expect: Matrix{
				models.ResourceAudit:   {ActionView: true, ActionEdit: true, ActionDelete: true},
				models.ResourceCAPA:    {ActionView: true, ActionEdit: true, ActionDelete: true},
				models.ResourceReports: {ActionView: true, ActionEdit: true, ActionDelete: true, ActionRun: true},
			},
		},
		{
			role: RoleAuditor,
			expect: Matrix{
				models.ResourceAudit:   {ActionView: true, ActionEdit: true, ActionDelete: false},
				models.ResourceCAPA:    {ActionView: true, ActionEdit: true, ActionDelete: false},
				models.ResourceReports: {ActionView: true, ActionEdit: false, ActionDelete: false, ActionRun: true},
			},
		},
		{
			role: RoleOtherAuditor,
			expect: Matrix{
				models.ResourceAudit:   {ActionView: true, ActionEdit: false, ActionDelete: false},
				models.ResourceCAPA:    {ActionView: true, ActionEdit: false, ActionDelete: false},
				models.ResourceReports: {ActionView: true, ActionEdit: false, ActionDelete: false, ActionRun: false},
			},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.expect, ResolvePermissions(tt.role))
		})
	}
}

func TestResolvePermissions_UnknownRoleDeniesEverything(t *testing.T) {
	for _, role := range []Role{"", "guest", "ADMIN", "superuser", "admin "} {
		t.Run(string(role), func(t *testing.T) {
			m := ResolvePermissions(role)
			for _, resource := range models.AllResources() {
				require.Contains(t, m, resource)
				for _, action := range AllActions() {
					assert.False(t, m.Allows(resource, action), "%s/%s", resource, action)
				}
			}
		})
	}
}

func TestResolvePermissions_FullyPopulated(t *testing.T) {
	roles := append(KnownRoles(), "nobody")
	for _, role := range roles {
		m := ResolvePermissions(role)
		assert.Len(t, m, len(models.AllResources()))
		for _, resource := range models.AllResources() {
			row := m[resource]
			assert.Len(t, row, len(MatrixActions(resource)), "%s/%s", role, resource)
			for _, action := range MatrixActions(resource) {
				_, ok := row[action]
				assert.True(t, ok, "%s missing %s/%s", role, resource, action)
			}
		}
	}
}

func TestResolvePermissions_ReturnsFreshCopy(t *testing.T) {
	m := ResolvePermissions(RoleAdmin)
	m[models.ResourceAudit][ActionDelete] = false

	assert.True(t, ResolvePermissions(RoleAdmin).Allows(models.ResourceAudit, ActionDelete))
}

func TestMatrix_Allows(t *testing.T) {
	auditor := ResolvePermissions(RoleAuditor)

	t.Run("download follows view", func(t *testing.T) {
		assert.True(t, auditor.Allows(models.ResourceAudit, ActionDownload))
		assert.False(t, ResolvePermissions("x").Allows(models.ResourceAudit, ActionDownload))
	})

	t.Run("run is undefined on audit and capa", func(t *testing.T) {
		admin := ResolvePermissions(RoleAdmin)
		assert.False(t, admin.Allows(models.ResourceAudit, ActionRun))
		assert.False(t, admin.Allows(models.ResourceCAPA, ActionRun))
	})

	t.Run("unknown resource", func(t *testing.T) {
		assert.False(t, auditor.Allows("invoices", ActionView))
	})

	t.Run("nil matrix", func(t *testing.T) {
		var m Matrix
		assert.False(t, m.Allows(models.ResourceAudit, ActionView))
	})
}

func TestMatrix_Actions(t *testing.T) {
	assert.Equal(t,
		[]Action{ActionView, ActionEdit, ActionDownload},
		ResolvePermissions(RoleAuditor).Actions(models.ResourceCAPA))
	assert.Equal(t,
		[]Action{ActionView, ActionDownload, ActionRun},
		ResolvePermissions(RoleAuditor).Actions(models.ResourceReports))
	assert.Equal(t,
		[]Action{ActionView, ActionDownload},
		ResolvePermissions(RoleOtherAuditor).Actions(models.ResourceCAPA))
	assert.Empty(t, ResolvePermissions("guest").Actions(models.ResourceAudit))
}

func TestMatrix_CloneAndEqual(t *testing.T) {
	m := ResolvePermissions(RoleAuditor)
	c := m.Clone()
	assert.True(t, m.Equal(c))

	c[models.ResourceAudit][ActionDelete] = true
	assert.False(t, m.Equal(c))
	assert.False(t, m.Allows(models.ResourceAudit, ActionDelete))
}

func TestRole_Known(t *testing.T) {
	for _, r := range KnownRoles() {
		assert.True(t, r.Known())
	}
	assert.False(t, Role("guest").Known())
}

func TestAction_Valid(t *testing.T) {
	for _, a := range AllActions() {
		assert.True(t, a.Valid())
	}
	assert.False(t, Action("approve").Valid())
}
