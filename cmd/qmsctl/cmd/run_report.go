package cmd

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/upb/qms-dashboard/internal/authz"
	"github.com/upb/qms-dashboard/models"
	"github.com/upb/qms-dashboard/services/defaults"
	"github.com/upb/qms-dashboard/services/dispatch"
	"github.com/upb/qms-dashboard/services/export"
	"github.com/upb/qms-dashboard/services/progress"
)

var (
	reportRole      string
	reportStepDelay time.Duration
	reportTimeout   time.Duration
)

func newRunReportCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "run-report <template-id>",
		Short: "Run a report template and follow its progress",
		Long: `Dispatch the run action on a report template as the given role and
print every progress update until the task finishes.

Examples:
  qmsctl run-report 1
  qmsctl run-report 2 --role=auditor --step-delay=200ms`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid template id %q", args[0])
			}
			return runReport(cmd, id)
		},
	}
	c.Flags().StringVar(&reportRole, "role", string(authz.RoleAdmin), "Role to dispatch as")
	c.Flags().DurationVar(&reportStepDelay, "step-delay", 500*time.Millisecond, "Pause between progress steps")
	c.Flags().DurationVar(&reportTimeout, "timeout", time.Minute, "Give up waiting after this long")
	return c
}

func runReport(cmd *cobra.Command, id int) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(cmd.Context(), reportTimeout)
	defer cancel()

	repos := sampleRepositories()
	record, err := repos.FindRecord(ctx, models.ResourceReports, id)
	if err != nil {
		return err
	}

	runner := progress.NewRunner(reportStepDelay, logger)
	defer runner.Shutdown()
	tasks := progress.NewRegistry(1, time.Minute)
	sink, err := export.NewMemorySink(1)
	if err != nil {
		return err
	}

	handlers := defaults.NewHandlers(defaults.Deps{
		Reports: repos.Reports,
		Runner:  runner,
		Tasks:   tasks,
		Sink:    sink,
	}, logger)
	dispatcher := dispatch.NewDispatcher(dispatch.DefaultTable(handlers), logger)

	role := authz.Role(reportRole)
	result, err := dispatcher.Dispatch(ctx, authz.ResolvePermissions(role), dispatch.Request{
		Resource: models.ResourceReports,
		Action:   authz.ActionRun,
		Record:   record,
	})
	if err != nil {
		return err
	}
	if result.Outcome != dispatch.OutcomeHandled {
		return errors.New(result.Notice)
	}

	snap, ok := result.Value.(progress.Snapshot)
	if !ok {
		return fmt.Errorf("unexpected run result %T", result.Value)
	}
	task, ok := tasks.Get(snap.TaskID)
	if !ok {
		return fmt.Errorf("task %s not found", snap.TaskID)
	}

	logger.Debug("following report task",
		zap.String("task_id", task.ID()),
		zap.String("role", string(role)),
		zap.String("template", record.Label()))

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "running %q as %s (task %s)\n", record.Label(), role, task.ID())

	updates, unsubscribe := task.Subscribe()
	defer unsubscribe()
	for {
		select {
		case s, open := <-updates:
			if !open {
				return finalReport(cmd, task.Snapshot())
			}
			if s.State == progress.StateRunning {
				fmt.Fprintf(out, "[%3d%%] %s\n", s.Percent, s.Message)
			}
		case <-ctx.Done():
			task.Cancel()
			return fmt.Errorf("report did not finish: %w", ctx.Err())
		}
	}
}

func finalReport(cmd *cobra.Command, s progress.Snapshot) error {
	switch s.State {
	case progress.StateComplete:
		fmt.Fprintln(cmd.OutOrStdout(), "complete")
		return nil
	case progress.StateFailed:
		return fmt.Errorf("report failed: %s", s.Error)
	}
	return fmt.Errorf("report ended %s", s.State)
}
