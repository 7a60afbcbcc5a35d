package pipeline

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/fnol-triage/internal/entity"
	"github.com/joseph-ayodele/fnol-triage/internal/extract"
	"github.com/joseph-ayodele/fnol-triage/internal/routing"
)

// TriageStage is Stage 2: text -> fields -> missing list -> route.
type TriageStage struct {
	Extractor *extract.FieldExtractor
	Analyzer  *extract.MissingAnalyzer
	Engine    *routing.Engine
	Logger    *slog.Logger
}

func NewTriageStage(x *extract.FieldExtractor, eng *routing.Engine, logger *slog.Logger) *TriageStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &TriageStage{
		Extractor: x,
		Analyzer:  extract.NewMissingAnalyzer(x.OptionalFields()),
		Engine:    eng,
		Logger:    logger,
	}
}

// Run triages text and returns a new result named after inputFile.
func (s *TriageStage) Run(inputFile, text string) *entity.ClaimResult {
	fields := s.Extractor.ExtractFields(text)
	missing := s.Analyzer.Missing(fields)
	d := s.Engine.Route(fields, missing)

	if defaulted := fields.Defaulted(); len(defaulted) > 0 {
		// vehicle defaults can hide a property or injury claim
		s.Logger.Warn("pipeline.triage.defaulted", "file", inputFile, "fields", defaulted)
	}

	return &entity.ClaimResult{
		ID:               uuid.New(),
		InputFile:        inputFile,
		ExtractedFields:  fields,
		MissingFields:    missing,
		RecommendedRoute: d.Route,
		Reasoning:        d.Reasoning,
		Rule:             d.Rule.String(),
		CreatedAt:        time.Now().UTC(),
	}
}
