package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/fnol-triage/internal/export"
	"github.com/joseph-ayodele/fnol-triage/internal/repository"
)

var (
	exportXLSX  string
	exportRoute string
	exportSince string
	exportLimit int
)

func init() {
	f := exportCmd.Flags()
	f.StringVar(&exportXLSX, "xlsx", "triage.xlsx", "output XLSX path")
	f.StringVar(&exportRoute, "route", "", "only results with this route")
	f.StringVar(&exportSince, "since", "", "only results created at or after this date (YYYY-MM-DD)")
	f.IntVar(&exportLimit, "limit", 1000, "maximum number of rows")
}

// exportCmd exports stored results from DB_URL
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored triage results to XLSX",
	Long: `Export triage results stored in the configured database (DB_DRIVER / DB_URL).

Examples:
  fnol export --xlsx investigations.xlsx --route Investigation
  fnol export --since 2024-03-01`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	filter := repository.ListFilter{Route: exportRoute, Limit: exportLimit}
	if exportSince != "" {
		t, err := time.Parse("2006-01-02", exportSince)
		if err != nil {
			return fmt.Errorf("invalid --since date, use YYYY-MM-DD: %w", err)
		}
		filter.Since = t
	}

	env, err := loadEnv()
	if err != nil {
		return err
	}
	db, err := repository.Open(ctx, repository.ConfigFromApp(env.cfg.Database), env.logger)
	if err != nil {
		return err
	}
	defer db.Close()

	svc := export.NewService(repository.NewTriageResultRepository(db, env.logger), env.x.Names(), env.logger)
	b, err := svc.ExportStoredXLSX(ctx, filter)
	if err != nil {
		return err
	}
	if err := os.WriteFile(exportXLSX, b, 0o644); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	cmd.Printf("workbook: %s\n", exportXLSX)
	return nil
}
