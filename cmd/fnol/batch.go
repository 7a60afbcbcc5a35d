package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/fnol-triage/internal/async"
	"github.com/joseph-ayodele/fnol-triage/internal/entity"
	"github.com/joseph-ayodele/fnol-triage/internal/export"
	"github.com/joseph-ayodele/fnol-triage/internal/ingest"
	"github.com/joseph-ayodele/fnol-triage/internal/pipeline"
	"github.com/joseph-ayodele/fnol-triage/internal/report"
	"github.com/joseph-ayodele/fnol-triage/internal/repository"
	"github.com/joseph-ayodele/fnol-triage/internal/routing"
)

var (
	batchDir     string
	batchXLSX    string
	batchOut     string
	batchInmem   bool
	batchForce   bool
	batchWorkers int
	showHidden   bool
)

func init() {
	f := batchCmd.Flags()
	f.StringVar(&batchDir, "dir", "", "directory to process FNOL documents from (required)")
	f.StringVar(&batchXLSX, "xlsx", "", "output XLSX path (default <parent of dir>/triage.xlsx)")
	f.StringVar(&batchOut, "out", "", "also write one <file>.json per document to this directory")
	f.BoolVar(&batchInmem, "inmem", false, "use an in-memory SQLite database")
	f.BoolVar(&batchForce, "force", false, "reprocess documents whose content was already triaged")
	f.IntVar(&batchWorkers, "workers", 0, "worker count (default QUEUE_WORKERS)")
	f.BoolVar(&showHidden, "hidden", false, "include hidden files and directories")
	_ = batchCmd.MarkFlagRequired("dir")
}

// batchCmd processes a directory with the worker pool
var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Triage every document under a directory",
	Long: `Walk a directory, triage every supported document with a worker pool,
store the results and export them to an XLSX workbook.

Documents whose content hash is already stored are skipped unless --force is given.

Examples:
  fnol batch --dir inbox
  fnol batch --dir inbox --inmem --xlsx /tmp/triage.xlsx --out results`,
	Args: cobra.NoArgs,
	RunE: runBatch,
}

type batchCollector struct {
	mu      sync.Mutex
	results []*entity.ClaimResult
	failed  int
}

func (c *batchCollector) add(j entity.TriageJob) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if j.Result == nil {
		c.failed++
		return
	}
	c.results = append(c.results, j.Result)
}

func runBatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	env, err := loadEnv()
	if err != nil {
		return err
	}
	logger := env.logger
	xlsxPath := batchXLSX
	if xlsxPath == "" {
		xlsxPath = filepath.Join(filepath.Dir(filepath.Clean(batchDir)), "triage.xlsx")
	}

	dbCfg := repository.ConfigFromApp(env.cfg.Database)
	if batchInmem {
		dbCfg = repository.Config{Driver: repository.DriverSQLite, DSN: "file::memory:"}
	}
	db, err := repository.Open(ctx, dbCfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()
	repo := repository.NewTriageResultRepository(db, logger)

	var writer *report.Writer
	if batchOut != "" {
		if writer, err = report.NewWriter(batchOut, env.x.Names(), routing.Routes(), nil, logger); err != nil {
			return err
		}
	}

	workers := env.cfg.Queue.Workers
	if batchWorkers > 0 {
		workers = batchWorkers
	}
	collected := &batchCollector{}
	q := async.NewProcessorQueue(env.processor(pipeline.WithSink(repo)), logger,
		async.WithWorkers(workers),
		async.WithQueueSize(env.cfg.Queue.Size),
		async.WithProcessTimeout(env.cfg.Queue.ProcessTimeout),
		async.WithResultHandler(collected.add),
	)

	start := time.Now()
	files, stats, err := ingest.NewFSIngestor(repo, logger).IngestDirectory(ctx, batchDir, !showHidden)
	if err != nil {
		q.Shutdown(context.Background())
		return err
	}
	skipped := 0
	for _, f := range files {
		if f.Err != "" {
			continue
		}
		if f.Deduplicated && !batchForce {
			skipped++
			continue
		}
		if _, err := q.Enqueue(ctx, async.Job{File: f.File, HashHex: f.HashHex}); err != nil {
			logger.Error("batch.enqueue.failed", "path", f.File.SourcePath, "err", err)
		}
	}
	q.Shutdown(context.Background())

	sort.Slice(collected.results, func(i, j int) bool {
		return collected.results[i].InputFile < collected.results[j].InputFile
	})
	if writer != nil {
		for _, r := range collected.results {
			if _, err := writer.Write(r); err != nil {
				logger.Error("batch.report.failed", "file", r.InputFile, "err", err)
			}
		}
	}

	b, err := export.NewService(repo, env.x.Names(), logger).ExportResultsXLSX(ctx, collected.results)
	if err != nil {
		return err
	}
	if err := os.WriteFile(xlsxPath, b, 0o644); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "scanned %d, matched %d, processed %d, failed %d, skipped %d in %s\n",
		stats.Scanned, stats.Matched, len(collected.results), collected.failed+int(stats.Failed), skipped,
		time.Since(start).Round(time.Millisecond))
	byRoute := map[string]int{}
	for _, r := range collected.results {
		byRoute[r.RecommendedRoute]++
	}
	for _, route := range routing.Routes() {
		if n := byRoute[route]; n > 0 {
			fmt.Fprintf(out, "  %-18s %d\n", route, n)
		}
	}
	fmt.Fprintf(out, "workbook: %s\n", xlsxPath)
	return nil
}
