package session

import (
	"sync/atomic"
	"time"

	"github.com/upb/qms-dashboard/internal/authz"
)

// Snapshot is the immutable (role, permissions) pair of a session.
// Permissions must not be modified by callers.
type Snapshot struct {
	ID          string       `json:"id"`
	Role        authz.Role   `json:"role"`
	Permissions authz.Matrix `json:"permissions"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

func newSnapshot(id string, role authz.Role, createdAt, updatedAt time.Time) *Snapshot {
	return &Snapshot{
		ID:          id,
		Role:        role,
		Permissions: authz.ResolvePermissions(role),
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}
}

// State is the in-process role state of one session
type State struct {
	id        string
	createdAt time.Time
	current   atomic.Pointer[Snapshot]
}

// NewState creates a session state holding role
func NewState(id string, role authz.Role) *State {
	now := time.Now()
	s := &State{id: id, createdAt: now}
	s.current.Store(newSnapshot(id, role, now, now))
	return s
}

// ID returns the session id
func (s *State) ID() string {
	return s.id
}

// Current returns the active snapshot
func (s *State) Current() *Snapshot {
	return s.current.Load()
}

// SwitchRole replaces the active role and its matrix in one atomic store.
// Any string is accepted; unknown roles resolve to a deny-all matrix.
func (s *State) SwitchRole(role authz.Role) *Snapshot {
	next := newSnapshot(s.id, role, s.createdAt, time.Now())
	s.current.Store(next)
	return next
}
