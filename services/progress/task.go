package progress

import (
	"context"
	"sync"
	"time"
)

// State is the lifecycle state of a task
type State string

const (
	StateIdle      State = "idle"
	StateRunning   State = "running"
	StateComplete  State = "complete"
	StateFailed    State = "failed"
	StateCancelled State = "cancelled"
)

// Terminal reports whether no further transitions can happen from s
func (s State) Terminal() bool {
	return s == StateComplete || s == StateFailed || s == StateCancelled
}

// Snapshot is one observed state of a task
type Snapshot struct {
	TaskID    string    `json:"task_id"`
	Kind      string    `json:"kind"`
	State     State     `json:"state"`
	Percent   int       `json:"percent"`
	Message   string    `json:"message,omitempty"`
	Result    any       `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Task is a running or finished plan. Each task owns its own state; tasks
// never share mutable state with each other.
type Task struct {
	id    string
	kind  string
	owner string

	mu          sync.Mutex
	current     Snapshot
	history     []Snapshot
	subscribers map[chan Snapshot]struct{}
	cancel      context.CancelFunc
	done        chan struct{}
	onChange    func(Snapshot)
}

func newTask(id, kind, owner string, onChange func(Snapshot)) *Task {
	t := &Task{
		id:          id,
		kind:        kind,
		owner:       owner,
		subscribers: make(map[chan Snapshot]struct{}),
		done:        make(chan struct{}),
		cancel:      func() {},
		onChange:    onChange,
	}
	t.current = Snapshot{TaskID: id, Kind: kind, State: StateIdle, UpdatedAt: time.Now()}
	t.history = []Snapshot{t.current}
	return t
}

// ID returns the task id
func (t *Task) ID() string { return t.id }

// Kind returns the plan kind the task runs
func (t *Task) Kind() string { return t.kind }

// Owner returns the session id that started the task
func (t *Task) Owner() string { return t.owner }

// Snapshot returns the latest state of the task
func (t *Task) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// History returns every state the task has been in, oldest first
func (t *Task) History() []Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Snapshot, len(t.history))
	copy(out, t.history)
	return out
}

// Done is closed once the task reaches a terminal state
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the task finishes or ctx ends and returns the latest snapshot
func (t *Task) Wait(ctx context.Context) (Snapshot, error) {
	select {
	case <-t.done:
		return t.Snapshot(), nil
	case <-ctx.Done():
		return t.Snapshot(), ctx.Err()
	}
}

// Cancel stops the task between steps and discards any completion still in
// flight. It returns false if the task had already finished.
func (t *Task) Cancel() bool {
	return t.transition(StateCancelled, -1, "Cancelled", nil, "")
}

// Subscribe returns a channel receiving the current snapshot followed by
// every later transition. The channel is closed after the terminal snapshot
// or when the returned function is called.
func (t *Task) Subscribe() (<-chan Snapshot, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch := make(chan Snapshot, 32)
	ch <- t.current
	if t.current.State.Terminal() {
		close(ch)
		return ch, func() {}
	}
	t.subscribers[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			if _, ok := t.subscribers[ch]; ok {
				delete(t.subscribers, ch)
				close(ch)
			}
		})
	}
}

// transition moves the task to state. A negative percent keeps the current
// percent. Transitions out of a terminal state are ignored and return false.
func (t *Task) transition(state State, percent int, message string, result any, errMsg string) bool {
	ok, _ := t.transitionAfter(nil, state, percent, message, result, errMsg)
	return ok
}

// transitionAfter runs guard under the task lock and transitions only if it
// succeeds. A Cancel racing with it lands either before guard runs or after
// the transition.
func (t *Task) transitionAfter(guard func() error, state State, percent int, message string, result any, errMsg string) (bool, error) {
	t.mu.Lock()
	if t.current.State.Terminal() {
		t.mu.Unlock()
		return false, nil
	}
	if guard != nil {
		if err := guard(); err != nil {
			t.mu.Unlock()
			return false, err
		}
	}

	if percent < 0 || percent < t.current.Percent {
		percent = t.current.Percent
	}
	next := Snapshot{
		TaskID:    t.id,
		Kind:      t.kind,
		State:     state,
		Percent:   percent,
		Message:   message,
		Result:    result,
		Error:     errMsg,
		UpdatedAt: time.Now(),
	}
	t.current = next
	t.history = append(t.history, next)

	for ch := range t.subscribers {
		select {
		case ch <- next:
		default:
			// slow subscriber; it can still read Snapshot()
		}
	}
	if state.Terminal() {
		for ch := range t.subscribers {
			close(ch)
			delete(t.subscribers, ch)
		}
		t.cancel()
		close(t.done)
	}
	onChange := t.onChange
	t.mu.Unlock()

	if onChange != nil {
		onChange(next)
	}
	return true, nil
}
