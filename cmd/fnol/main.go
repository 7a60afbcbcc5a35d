// Command fnol triages First Notice of Loss documents from the command line.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/fnol-triage/internal/common"
	"github.com/joseph-ayodele/fnol-triage/internal/extract"
	"github.com/joseph-ayodele/fnol-triage/internal/ocr"
	"github.com/joseph-ayodele/fnol-triage/internal/pipeline"
	"github.com/joseph-ayodele/fnol-triage/internal/routing"
	"github.com/joseph-ayodele/fnol-triage/internal/rules"
	"github.com/joseph-ayodele/fnol-triage/internal/textsource"
)

var (
	// rulesFile overrides RULES_FILE
	rulesFile string
	logLevel  string
	version   = "dev"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "fnol",
	Short: "Triage First Notice of Loss documents",
	Long: `fnol extracts claim fields from FNOL documents (PDF, text or scanned images),
reports which mandatory fields are missing and recommends a handling route.

Process settings (OCR binaries, database, queue sizes) come from the environment;
see the daemon documentation for the full list.`,
	Version:      version,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rulesFile, "rules", "", "YAML rules file (overrides RULES_FILE)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug|info|warn|error (overrides LOG_LEVEL)")
	rootCmd.AddCommand(triageCmd, batchCmd, exportCmd, rulesCmd)
}

// appEnv is everything a subcommand needs after configuration is loaded.
type appEnv struct {
	cfg    *common.Config
	logger *slog.Logger
	rules  rules.Rules
	x      *extract.FieldExtractor
	eng    *routing.Engine
}

func loadEnv() (*appEnv, error) {
	cfg, err := common.LoadConfig()
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if _, err := common.ParseLogLevel(cfg.Log.Level); err != nil {
		return nil, err
	}
	logger := common.NewLogger(cfg.Log)
	slog.SetDefault(logger)

	path := cfg.Triage.RulesFile
	if rulesFile != "" {
		path = rulesFile
	}
	r, err := rules.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}
	x, eng, err := r.Build()
	if err != nil {
		return nil, err
	}
	return &appEnv{cfg: cfg, logger: logger, rules: r, x: x, eng: eng}, nil
}

func (e *appEnv) processor(opts ...pipeline.ProcessorOption) *pipeline.Processor {
	ocrx := ocr.NewExtractor(ocr.FromAppConfig(e.cfg.OCR), e.logger)
	text := pipeline.NewTextStage(textsource.NewOCRAdapter(ocrx, e.logger), e.logger)
	return pipeline.NewProcessor(e.logger, text, pipeline.NewTriageStage(e.x, e.eng, e.logger), opts...)
}
