package progress

import (
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
)

// RegistryStats holds registry counters
type RegistryStats struct {
	Size    int     `json:"size"`
	Hits    uint64  `json:"hits"`
	Misses  uint64  `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// Registry keeps recent tasks addressable by id. Entries expire after the
// retention period; when full, the least recently used task is evicted and
// cancelled if it is still running.
type Registry struct {
	tasks  *lru.LRU[string, *Task]
	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewRegistry creates a registry holding at most size tasks for retention
func NewRegistry(size int, retention time.Duration) *Registry {
	if size <= 0 {
		size = 1
	}
	return &Registry{
		tasks: lru.NewLRU[string, *Task](size, func(_ string, t *Task) {
			t.Cancel()
		}, retention),
	}
}

// Add registers task
func (r *Registry) Add(task *Task) {
	r.tasks.Add(task.ID(), task)
}

// Get looks up a task by id
func (r *Registry) Get(id string) (*Task, bool) {
	task, ok := r.tasks.Get(id)
	if !ok {
		r.misses.Add(1)
		return nil, false
	}
	r.hits.Add(1)
	return task, true
}

// Len returns the number of retained tasks
func (r *Registry) Len() int {
	return r.tasks.Len()
}

// Stats returns registry statistics
func (r *Registry) Stats() RegistryStats {
	hits, misses := r.hits.Load(), r.misses.Load()
	stats := RegistryStats{Size: r.tasks.Len(), Hits: hits, Misses: misses}
	if total := hits + misses; total > 0 {
		stats.HitRate = float64(hits) / float64(total)
	}
	return stats
}
