package session

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upb/qms-dashboard/internal/authz"
	"github.com/upb/qms-dashboard/models"
	"github.com/upb/qms-dashboard/services"
)

func TestState_SwitchRole(t *testing.T) {
	s := NewState("sess-1", authz.RoleAdmin)
	assert.Equal(t, authz.RoleAdmin, s.Current().Role)
	assert.True(t, s.Current().Permissions.Allows(models.ResourceCAPA, authz.ActionDelete))

	snap := s.SwitchRole(authz.RoleOtherAuditor)
	assert.Equal(t, authz.RoleOtherAuditor, snap.Role)
	assert.Same(t, snap, s.Current())
	assert.False(t, s.Current().Permissions.Allows(models.ResourceCAPA, authz.ActionDelete))
	assert.Equal(t, "sess-1", snap.ID)
}

func TestState_SwitchRoleIdempotent(t *testing.T) {
	s := NewState("sess-1", authz.RoleAdmin)

	first := s.SwitchRole(authz.RoleAuditor)
	second := s.SwitchRole(authz.RoleAuditor)

	assert.Equal(t, first.Role, second.Role)
	assert.True(t, first.Permissions.Equal(second.Permissions))
	assert.Equal(t, authz.ResolvePermissions(authz.RoleAuditor), second.Permissions)
}

func TestState_SwitchRoleAcceptsAnyString(t *testing.T) {
	s := NewState("sess-1", authz.RoleAdmin)
	snap := s.SwitchRole("visitor")

	assert.Equal(t, authz.Role("visitor"), snap.Role)
	assert.Empty(t, snap.Permissions.Actions(models.ResourceAudit))
}

func TestState_ConcurrentReadersSeeConsistentPairs(t *testing.T) {
	s := NewState("sess-1", authz.RoleAdmin)
	roles := []authz.Role{authz.RoleAdmin, authz.RoleAuditor, authz.RoleOtherAuditor, "guest"}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				s.SwitchRole(roles[(i+j)%len(roles)])
			}
		}(i)
	}

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				snap := s.Current()
				assert.True(t, snap.Permissions.Equal(authz.ResolvePermissions(snap.Role)))
			}
		}()
	}
	wg.Wait()
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	created, err := store.Create(ctx, authz.RoleAdmin)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, 1, store.Len())

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, authz.RoleAdmin, got.Role)

	switched, err := store.SwitchRole(ctx, created.ID, authz.RoleAuditor)
	require.NoError(t, err)
	assert.Equal(t, authz.RoleAuditor, switched.Role)

	got, err = store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, authz.RoleAuditor, got.Role)
	assert.Equal(t, created.CreatedAt, got.CreatedAt)

	assert.NoError(t, store.Ping(ctx))
}

func TestMemoryStore_NotFound(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Get(ctx, "missing")
	assert.True(t, services.IsNotFoundError(err))

	_, err = store.SwitchRole(ctx, "missing", authz.RoleAdmin)
	assert.ErrorIs(t, err, services.ErrSessionNotFound)
}
