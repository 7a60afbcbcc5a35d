package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/fnol-triage/internal/report"
	"github.com/joseph-ayodele/fnol-triage/internal/routing"
)

var (
	triageOut string
	noWrite   bool
)

func init() {
	triageCmd.Flags().StringVar(&triageOut, "out", "", "output directory for <file>.json (default OUTPUT_DIR)")
	triageCmd.Flags().BoolVar(&noWrite, "no-write", false, "print the result without writing it to disk")
}

// triageCmd processes one document
var triageCmd = &cobra.Command{
	Use:   "triage <file>",
	Short: "Triage a single FNOL document",
	Long: `Triage a single FNOL document and print the result as JSON.

The result is also written to <out>/<file name>.json unless --no-write is given.

Examples:
  fnol triage claims/acord-2024-113.pdf
  fnol triage --out results --rules rules.yaml scan.png
  fnol triage --no-write claim.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runTriage,
}

func runTriage(cmd *cobra.Command, args []string) error {
	path := args[0]
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("file not found: %s", path)
	}

	env, err := loadEnv()
	if err != nil {
		return err
	}
	out := env.cfg.Triage.OutputDir
	if triageOut != "" {
		out = triageOut
	}
	if noWrite {
		out = ""
	}

	w, err := report.NewWriter(out, env.x.Names(), routing.Routes(), cmd.OutOrStdout(), env.logger)
	if err != nil {
		return err
	}
	res, err := env.processor().ProcessFile(cmd.Context(), path)
	if err != nil {
		return err
	}
	_, err = w.Write(res)
	return err
}
