package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/fnol-triage/constants"
)

// SourceFile is an ingested FNOL document on disk.
type SourceFile struct {
	ID           uuid.UUID `json:"id"`
	SourcePath   string    `json:"source_path"`
	ContentHash  []byte    `json:"content_hash"`
	Filename     string    `json:"filename"`
	FileExt      string    `json:"file_ext"`
	FileSize     int64     `json:"file_size"`
	DiscoveredAt time.Time `json:"discovered_at"`
}

// TriageJob tracks one document through the pipeline.
type TriageJob struct {
	ID           uuid.UUID           `json:"id"`
	File         SourceFile          `json:"file"`
	Status       constants.JobStatus `json:"status"`
	StartedAt    time.Time           `json:"started_at"`
	FinishedAt   *time.Time          `json:"finished_at,omitempty"`
	ErrorMessage *string             `json:"error_message,omitempty"`
	Result       *ClaimResult        `json:"result,omitempty"`
}
