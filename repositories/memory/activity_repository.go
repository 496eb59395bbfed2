package memory

import (
	"context"
	"sync"

	"github.com/upb/qms-dashboard/models"
)

// ActivityRepository keeps the newest activity entries in a ring buffer
type ActivityRepository struct {
	mu      sync.RWMutex
	entries []*models.ActivityLog
	next    int
	full    bool
}

// NewActivityRepository creates a repository retaining at most retain entries
func NewActivityRepository(retain int) *ActivityRepository {
	if retain <= 0 {
		retain = 1
	}
	return &ActivityRepository{entries: make([]*models.ActivityLog, retain)}
}

// Insert inserts a new activity entry, overwriting the oldest when full
func (r *ActivityRepository) Insert(ctx context.Context, log *models.ActivityLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[r.next] = log
	r.next = (r.next + 1) % len(r.entries)
	if r.next == 0 {
		r.full = true
	}
	return nil
}

// ListRecent retrieves the newest entries, newest first
func (r *ActivityRepository) ListRecent(ctx context.Context, limit int) ([]*models.ActivityLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := r.next
	if r.full {
		count = len(r.entries)
	}
	if limit <= 0 || limit > count {
		limit = count
	}

	out := make([]*models.ActivityLog, 0, limit)
	for i := 0; i < limit; i++ {
		idx := (r.next - 1 - i + len(r.entries)) % len(r.entries)
		out = append(out, r.entries[idx])
	}
	return out, nil
}
