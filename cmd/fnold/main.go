// Command fnold is the FNOL triage daemon: gRPC TriageService, inbox watcher
// and Prometheus metrics over a shared worker pool.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joseph-ayodele/fnol-triage/internal/async"
	"github.com/joseph-ayodele/fnol-triage/internal/common"
	"github.com/joseph-ayodele/fnol-triage/internal/entity"
	"github.com/joseph-ayodele/fnol-triage/internal/ingest"
	"github.com/joseph-ayodele/fnol-triage/internal/metrics"
	"github.com/joseph-ayodele/fnol-triage/internal/ocr"
	"github.com/joseph-ayodele/fnol-triage/internal/pipeline"
	"github.com/joseph-ayodele/fnol-triage/internal/report"
	"github.com/joseph-ayodele/fnol-triage/internal/repository"
	"github.com/joseph-ayodele/fnol-triage/internal/routing"
	"github.com/joseph-ayodele/fnol-triage/internal/rules"
	"github.com/joseph-ayodele/fnol-triage/internal/server"
	"github.com/joseph-ayodele/fnol-triage/internal/textsource"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("fnold.exit", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := common.LoadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := common.NewLogger(cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, err := rules.Load(cfg.Triage.RulesFile)
	if err != nil {
		return err
	}
	x, eng, err := r.Build()
	if err != nil {
		return err
	}

	// DB
	db, err := repository.Open(ctx, repository.ConfigFromApp(cfg.Database), logger)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := repository.HealthCheck(ctx, db, 3*time.Second, logger); err != nil {
		return err
	}
	results := repository.NewTriageResultRepository(db, logger)

	// pipeline
	m := metrics.New(true)
	ocrx := ocr.NewExtractor(ocr.FromAppConfig(cfg.OCR), logger)
	proc := pipeline.NewProcessor(logger,
		pipeline.NewTextStage(textsource.NewOCRAdapter(ocrx, logger), logger),
		pipeline.NewTriageStage(x, eng, logger),
		pipeline.WithSink(results),
		pipeline.WithObserver(m),
	)

	writer, err := report.NewWriter(cfg.Triage.OutputDir, x.Names(), routing.Routes(), nil, logger)
	if err != nil {
		return err
	}
	queue := async.NewProcessorQueue(proc, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.ProcessTimeout),
		async.WithResultHandler(func(j entity.TriageJob) {
			if j.Result == nil {
				return
			}
			if _, err := writer.Write(j.Result); err != nil {
				logger.Error("fnold.report.failed", "job_id", j.ID, "err", err)
			}
		}),
	)

	// gRPC
	fileRoot := cfg.Triage.FileRoot
	if fileRoot == "" {
		fileRoot = cfg.Triage.InboxDir
	}
	svc := server.NewTriageService(proc, results, logger, server.WithFileRoot(fileRoot))
	grpcServer, hs := server.NewGRPCServer(svc, logger)
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		queue.Shutdown(context.Background())
		return err
	}
	errCh := make(chan error, 2)
	go func() {
		logger.Info("fnold.grpc.serving", "addr", lis.Addr().String())
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- err
		}
	}()

	// metrics
	var metricsServer *http.Server
	if cfg.Server.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		metricsServer = &http.Server{Addr: cfg.Server.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			logger.Info("fnold.metrics.serving", "addr", cfg.Server.MetricsAddr)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	// inbox
	if cfg.Triage.InboxDir != "" {
		if err := watchInbox(ctx, cfg.Triage.InboxDir, ingest.NewFSIngestor(results, logger), queue, logger); err != nil {
			logger.Error("fnold.inbox.failed", "dir", cfg.Triage.InboxDir, "err", err)
		}
	}

	select {
	case <-ctx.Done():
		logger.Info("fnold.shutdown", "reason", "signal")
	case err = <-errCh:
		logger.Error("fnold.shutdown", "reason", "server error", "err", err)
	}

	hs.Shutdown()
	grpcServer.GracefulStop()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if metricsServer != nil {
		_ = metricsServer.Shutdown(shutdownCtx)
	}
	queue.Shutdown(shutdownCtx)
	logger.Info("fnold.stopped", "jobs", queue.Counts())
	return err
}

// watchInbox feeds new or changed documents under dir into the queue until ctx is done.
func watchInbox(ctx context.Context, dir string, ing ingest.Ingestor, q async.Queue, logger *slog.Logger) error {
	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:       []string{dir},
		InitialScan: true,
		SkipHidden:  true,
		Debounce:    500 * time.Millisecond,
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	go func() {
		for {
			select {
			case path, ok := <-events:
				if !ok {
					return
				}
				r, err := ing.IngestPath(ctx, path)
				if err != nil {
					logger.Warn("fnold.inbox.ingest.failed", "path", path, "err", err)
					continue
				}
				if r.Deduplicated {
					logger.Info("fnold.inbox.duplicate", "path", path, "existing_id", r.ExistingID)
					continue
				}
				if _, err := q.Enqueue(ctx, async.Job{File: r.File, HashHex: r.HashHex}); err != nil {
					logger.Warn("fnold.inbox.enqueue.failed", "path", path, "err", err)
				}
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				logger.Warn("fnold.inbox.watch.error", "err", err)
			}
		}
	}()
	return nil
}
