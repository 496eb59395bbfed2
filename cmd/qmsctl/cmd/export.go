package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/upb/qms-dashboard/models"
	"github.com/upb/qms-dashboard/services/export"
)

var (
	exportMode string
	exportOut  string
)

func newExportCmd() *cobra.Command {
	c := &cobra.Command{
		Use:   "export <resource>",
		Short: "Export the records of a resource as CSV",
		Long: `Export audit, capa or reports records from the sample store.

Examples:
  qmsctl export audit
  qmsctl export capa --mode=strict
  qmsctl export reports --out=.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, models.ResourceType(args[0]))
		},
	}
	c.Flags().StringVar(&exportMode, "mode", "loose", "CSV dialect (loose or strict)")
	c.Flags().StringVar(&exportOut, "out", "", "Directory to write the export file to (default stdout)")
	return c
}

func runExport(cmd *cobra.Command, resource models.ResourceType) error {
	if !resource.Valid() {
		return fmt.Errorf("unknown resource %q", resource)
	}
	mode, err := export.ParseMode(exportMode)
	if err != nil {
		return fmt.Errorf("invalid mode %q: %w", exportMode, err)
	}

	records, err := sampleRepositories().ListRecords(cmd.Context(), resource)
	if err != nil {
		return err
	}
	payload, err := export.NewPayload(string(resource)+"_export", mode, records, time.Now())
	if err != nil {
		return err
	}

	if exportOut == "" {
		_, err = cmd.OutOrStdout().Write(payload.Content)
		return err
	}

	path := filepath.Join(exportOut, payload.FileName)
	if err := os.WriteFile(path, payload.Content, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d records (%d bytes) to %s\n", len(records), payload.Size, path)
	return nil
}
