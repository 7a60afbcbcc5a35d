package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/fnol-triage/internal/extract"
)

// ClaimResult is the triage outcome for one FNOL document.
type ClaimResult struct {
	ID               uuid.UUID         `json:"id"`
	InputFile        string            `json:"inputFile"`
	SourcePath       string            `json:"sourcePath,omitempty"`
	ContentHash      string            `json:"contentHash,omitempty"`
	ExtractedFields  *extract.FieldMap `json:"extractedFields"`
	MissingFields    []string          `json:"missingFields"`
	RecommendedRoute string            `json:"recommendedRoute"`
	Reasoning        string            `json:"reasoning"`
	Rule             string            `json:"rule,omitempty"`
	Text             *TextInfo         `json:"text,omitempty"`
	CreatedAt        time.Time         `json:"createdAt"`
}

// TextInfo describes how the document text was acquired.
type TextInfo struct {
	SourceType string   `json:"sourceType"`
	Method     string   `json:"method"`
	Pages      int      `json:"pages"`
	Warnings   []string `json:"warnings,omitempty"`
}

// ResultRecord is the externally published shape of a triage result.
type ResultRecord struct {
	InputFile        string            `json:"inputFile"`
	ExtractedFields  *extract.FieldMap `json:"extractedFields"`
	MissingFields    []string          `json:"missingFields"`
	RecommendedRoute string            `json:"recommendedRoute"`
	Reasoning        string            `json:"reasoning"`
}

// Record projects the result onto the published record.
func (r *ClaimResult) Record() ResultRecord {
	missing := r.MissingFields
	if missing == nil {
		missing = []string{}
	}
	return ResultRecord{
		InputFile:        r.InputFile,
		ExtractedFields:  r.ExtractedFields,
		MissingFields:    missing,
		RecommendedRoute: r.RecommendedRoute,
		Reasoning:        r.Reasoning,
	}
}
