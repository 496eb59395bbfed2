package progress

import (
	"context"
	"fmt"
)

// Step is one stage of a plan. Work may be nil for a pure status update.
type Step struct {
	Percent int
	Message string
	Work    func(ctx context.Context) error
}

// Plan describes a simulated long-running operation. Owner names the session
// that started it. Publish, if set, runs together with the move to complete
// and never runs for a cancelled or failed task.
type Plan struct {
	Kind    string
	Owner   string
	Steps   []Step
	Finish  func(ctx context.Context) (any, error)
	Publish func(ctx context.Context) error
}

// Validate checks that percentages rise monotonically to exactly 100 and
// that the plan produces a result.
func (p Plan) Validate() error {
	if p.Kind == "" {
		return fmt.Errorf("plan kind is required")
	}
	if len(p.Steps) == 0 {
		return fmt.Errorf("plan %s has no steps", p.Kind)
	}
	if p.Finish == nil {
		return fmt.Errorf("plan %s has no finish", p.Kind)
	}

	prev := 0
	for i, step := range p.Steps {
		if step.Percent < prev || step.Percent > 100 {
			return fmt.Errorf("plan %s step %d: percent %d out of order", p.Kind, i, step.Percent)
		}
		prev = step.Percent
	}
	if prev != 100 {
		return fmt.Errorf("plan %s ends at %d, not 100", p.Kind, prev)
	}
	return nil
}

// Messages returns the status message of every step in order
func (p Plan) Messages() []string {
	out := make([]string, len(p.Steps))
	for i, step := range p.Steps {
		out[i] = step.Message
	}
	return out
}
