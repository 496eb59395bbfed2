package session

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/upb/qms-dashboard/internal/authz"
	"github.com/upb/qms-dashboard/services"
)

// Store persists session role state
type Store interface {
	Create(ctx context.Context, role authz.Role) (*Snapshot, error)
	Get(ctx context.Context, id string) (*Snapshot, error)
	SwitchRole(ctx context.Context, id string, role authz.Role) (*Snapshot, error)
	Ping(ctx context.Context) error
}

// MemoryStore keeps sessions for the lifetime of the process
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*State
}

// NewMemoryStore creates an empty in-memory session store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*State)}
}

// Create registers a new session with role
func (m *MemoryStore) Create(ctx context.Context, role authz.Role) (*Snapshot, error) {
	state := NewState(uuid.NewString(), role)

	m.mu.Lock()
	m.sessions[state.ID()] = state
	m.mu.Unlock()

	return state.Current(), nil
}

// Get returns the current snapshot of session id
func (m *MemoryStore) Get(ctx context.Context, id string) (*Snapshot, error) {
	state, err := m.state(id)
	if err != nil {
		return nil, err
	}
	return state.Current(), nil
}

// SwitchRole switches the role of session id
func (m *MemoryStore) SwitchRole(ctx context.Context, id string, role authz.Role) (*Snapshot, error) {
	state, err := m.state(id)
	if err != nil {
		return nil, err
	}
	return state.SwitchRole(role), nil
}

// Ping always succeeds
func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Len returns the number of sessions
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *MemoryStore) state(id string) (*State, error) {
	m.mu.RLock()
	state, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, services.ErrSessionNotFound
	}
	return state, nil
}
