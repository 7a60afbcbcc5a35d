package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/fnol-triage/internal/common"
	"github.com/joseph-ayodele/fnol-triage/internal/entity"
)

// Stage names reported to observers on failure.
const (
	StageText  = "text"
	StageStore = "store"
)

// ResultSink persists triage results.
type ResultSink interface {
	Save(ctx context.Context, res *entity.ClaimResult) error
}

// Observer receives per-document outcomes, e.g. for metrics.
type Observer interface {
	ObserveResult(res *entity.ClaimResult, elapsed time.Duration)
	ObserveFailure(stage string)
}

// Processor coordinates text acquisition then triage, and hands results to the sink.
type Processor struct {
	Logger   *slog.Logger
	Text     *TextStage
	Triage   *TriageStage
	Sink     ResultSink // optional
	Observer Observer   // optional
}

func NewProcessor(logger *slog.Logger, text *TextStage, triage *TriageStage, opts ...ProcessorOption) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{Logger: logger, Text: text, Triage: triage}
	for _, o := range opts {
		o(p)
	}
	return p
}

type ProcessorOption func(*Processor)

func WithSink(s ResultSink) ProcessorOption { return func(p *Processor) { p.Sink = s } }

func WithObserver(o Observer) ProcessorOption { return func(p *Processor) { p.Observer = o } }

// ProcessFile acquires the text of path and triages it. If the text cannot be
// acquired no result is produced.
func (p *Processor) ProcessFile(ctx context.Context, path string) (*entity.ClaimResult, error) {
	start := time.Now()
	jobID := common.JobIDFromContext(ctx)

	txt, err := p.Text.Run(ctx, path)
	if err != nil {
		p.fail(StageText)
		p.Logger.Error("pipeline.text.failed", "path", path, "job_id", jobID, "err", err)
		return nil, err
	}
	p.Logger.Info("pipeline.text.ok",
		"path", path,
		"job_id", jobID,
		"method", txt.Method,
		"pages", txt.Pages,
		"chars", len(txt.Text),
	)

	hash, ok := common.ContentHashFromContext(ctx)
	if !ok {
		if hash, err = HashFile(path); err != nil {
			p.fail(StageText)
			return nil, err
		}
	}

	res := p.Triage.Run(filepath.Base(path), txt.Text)
	res.SourcePath = path
	res.ContentHash = hash
	res.Text = &entity.TextInfo{
		SourceType: txt.SourceType,
		Method:     txt.Method,
		Pages:      txt.Pages,
		Warnings:   txt.Warnings,
	}
	return res, p.finish(ctx, res, start)
}

// ProcessText triages already-acquired text. inputFile names the result.
func (p *Processor) ProcessText(ctx context.Context, inputFile, text string) (*entity.ClaimResult, error) {
	start := time.Now()
	res := p.Triage.Run(inputFile, text)
	if hash, ok := common.ContentHashFromContext(ctx); ok {
		res.ContentHash = hash
	} else {
		res.ContentHash = HashText(text)
	}
	return res, p.finish(ctx, res, start)
}

func (p *Processor) finish(ctx context.Context, res *entity.ClaimResult, start time.Time) error {
	if p.Sink != nil {
		if err := p.Sink.Save(ctx, res); err != nil {
			p.fail(StageStore)
			p.Logger.Error("pipeline.store.failed", "file", res.InputFile, "id", res.ID, "err", err)
			return fmt.Errorf("save result: %w", err)
		}
	}
	elapsed := time.Since(start)
	if p.Observer != nil {
		p.Observer.ObserveResult(res, elapsed)
	}
	p.Logger.Info("pipeline.route.ok",
		"file", res.InputFile,
		"id", res.ID,
		"job_id", common.JobIDFromContext(ctx),
		"route", res.RecommendedRoute,
		"rule", res.Rule,
		"missing", len(res.MissingFields),
		"elapsed_ms", elapsed.Milliseconds(),
	)
	return nil
}

func (p *Processor) fail(stage string) {
	if p.Observer != nil {
		p.Observer.ObserveFailure(stage)
	}
}

// HashFile returns the hex sha256 of the file contents.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashText returns the hex sha256 of text.
func HashText(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
