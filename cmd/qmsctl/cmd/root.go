package cmd

import (
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/upb/qms-dashboard/internal/observability"
	"github.com/upb/qms-dashboard/repositories"
	"github.com/upb/qms-dashboard/repositories/memory"
)

var (
	logLevel string
	verbose  bool
)

// NewRootCmd builds the qmsctl command tree
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "qmsctl",
		Short: "QMS dashboard operator CLI",
		Long: `Inspect role permissions, export quality records and run report
templates against the seeded sample store without starting the server.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&logLevel, "log-level", "error", "Log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Shorthand for --log-level=debug")

	root.AddCommand(newMatrixCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newRunReportCmd())
	return root
}

func Execute() {
	err := NewRootCmd().Execute()
	if err != nil {
		os.Exit(1)
	}
}

func newLogger() (*zap.Logger, error) {
	level := logLevel
	if verbose {
		level = "debug"
	}
	return observability.NewLogger(level, "text")
}

func sampleRepositories() *repositories.Repositories {
	return memory.NewRepositories(memory.NewStore(true, time.Now()), 0)
}
