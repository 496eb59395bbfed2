package progress

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Observer is notified of every task transition
type Observer interface {
	TaskTransition(kind string, state State)
}

// Runner executes plans as independent cancellable tasks. Each step waits
// for the configured delay before it runs.
type Runner struct {
	delay    time.Duration
	logger   *zap.Logger
	observer Observer
	root     context.Context
	stop     context.CancelFunc
	running  atomic.Int64
}

// Option configures a Runner
type Option func(*Runner)

// WithObserver sets the transition observer
func WithObserver(o Observer) Option {
	return func(r *Runner) { r.observer = o }
}

// NewRunner creates a runner with a fixed delay per step
func NewRunner(delay time.Duration, logger *zap.Logger, opts ...Option) *Runner {
	root, stop := context.WithCancel(context.Background())
	r := &Runner{
		delay:  delay,
		logger: logger,
		root:   root,
		stop:   stop,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// StepDelay returns the delay applied before each step
func (r *Runner) StepDelay() time.Duration {
	return r.delay
}

// Start runs plan in the background and returns its task. The task outlives
// ctx (typically a request context) but keeps its values; it ends when it
// completes, is cancelled, or the runner shuts down.
func (r *Runner) Start(ctx context.Context, plan Plan) *Task {
	task := newTask(uuid.NewString(), plan.Kind, plan.Owner, r.notify)

	if err := plan.Validate(); err != nil {
		r.logger.Error("invalid progress plan", zap.String("kind", plan.Kind), zap.Error(err))
		task.transition(StateFailed, -1, "Failed", nil, err.Error())
		return task
	}

	taskCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stopAfter := context.AfterFunc(r.root, cancel)

	task.mu.Lock()
	task.cancel = func() {
		stopAfter()
		cancel()
	}
	task.mu.Unlock()

	task.transition(StateRunning, 0, "Starting...", nil, "")
	r.running.Add(1)
	go r.run(taskCtx, task, plan)
	return task
}

// Shutdown cancels every task still running
func (r *Runner) Shutdown() {
	r.stop()
}

// Running returns the number of task goroutines still executing
func (r *Runner) Running() int64 {
	return r.running.Load()
}

func (r *Runner) run(ctx context.Context, task *Task, plan Plan) {
	defer r.running.Add(-1)
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("progress task panicked",
				zap.String("task_id", task.ID()),
				zap.Any("panic", rec),
			)
			task.transition(StateFailed, -1, "Failed", nil, fmt.Sprint(rec))
		}
	}()

	for i, step := range plan.Steps {
		if !r.wait(ctx) {
			task.transition(StateCancelled, -1, "Cancelled", nil, "")
			return
		}

		if step.Work != nil {
			if err := step.Work(ctx); err != nil {
				r.fail(ctx, task, i, err)
				return
			}
		}
		if !task.transition(StateRunning, step.Percent, step.Message, nil, "") {
			return
		}
	}

	result, err := plan.Finish(ctx)
	if err != nil {
		r.fail(ctx, task, len(plan.Steps), err)
		return
	}
	if result == nil {
		r.fail(ctx, task, len(plan.Steps), fmt.Errorf("plan %s produced no result", plan.Kind))
		return
	}

	var publish func() error
	if plan.Publish != nil {
		publish = func() error { return plan.Publish(ctx) }
	}

	last := plan.Steps[len(plan.Steps)-1]
	ok, err := task.transitionAfter(publish, StateComplete, 100, last.Message, result, "")
	if err != nil {
		r.fail(ctx, task, len(plan.Steps), err)
		return
	}
	if ok {
		r.logger.Debug("progress task complete",
			zap.String("task_id", task.ID()),
			zap.String("kind", task.Kind()),
		)
	}
}

// wait sleeps for the step delay and reports false if ctx ended first
func (r *Runner) wait(ctx context.Context) bool {
	if r.delay <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(r.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// fail aborts the task; failed steps are not retried
func (r *Runner) fail(ctx context.Context, task *Task, step int, err error) {
	if ctx.Err() != nil {
		task.transition(StateCancelled, -1, "Cancelled", nil, "")
		return
	}
	r.logger.Warn("progress task failed",
		zap.String("task_id", task.ID()),
		zap.String("kind", task.Kind()),
		zap.Int("step", step),
		zap.Error(err),
	)
	task.transition(StateFailed, -1, "Failed", nil, err.Error())
}

func (r *Runner) notify(s Snapshot) {
	if r.observer != nil {
		r.observer.TaskTransition(s.Kind, s.State)
	}
}
