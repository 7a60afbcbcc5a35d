package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/fnol-triage/constants"
	"github.com/joseph-ayodele/fnol-triage/internal/common"
	"github.com/joseph-ayodele/fnol-triage/internal/textsource"
)

// TextStage is Stage 1: acquire and normalize the document text.
type TextStage struct {
	TextExtractor textsource.TextExtractor
	Logger        *slog.Logger
}

func NewTextStage(tx textsource.TextExtractor, logger *slog.Logger) *TextStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &TextStage{TextExtractor: tx, Logger: logger}
}

// Run returns the document text, or ErrNoText when nothing usable came back.
// A failure here means the triage stage must not run.
func (s *TextStage) Run(ctx context.Context, path string) (textsource.TextExtractionResult, error) {
	ext := filepath.Ext(path)
	if !constants.AllowedExt(ext) {
		return textsource.TextExtractionResult{}, fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, ext)
	}

	res, err := s.TextExtractor.Extract(ctx, path)
	if err != nil {
		return res, fmt.Errorf("extract text: %w", err)
	}
	if strings.TrimSpace(res.Text) == "" {
		return res, fmt.Errorf("%s: %w", filepath.Base(path), common.ErrNoText)
	}
	if res.Confidence > 0 && res.Confidence < 0.6 {
		s.Logger.Warn("pipeline.text.low_confidence", "path", path, "confidence", res.Confidence)
	}
	return res, nil
}
