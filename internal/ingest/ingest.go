package ingest

import (
	"context"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/fnol-triage/internal/entity"
)

// IngestionResult is the per-file ingest outcome.
type IngestionResult struct {
	File         entity.SourceFile
	HashHex      string
	Deduplicated bool
	ExistingID   uuid.UUID // result already stored for the same content; set when Deduplicated
	Err          string
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned      uint32
	Matched      uint32
	Succeeded    uint32
	Deduplicated uint32
	Failed       uint32
}

// HashLookup finds a previously stored triage result by content hash.
type HashLookup interface {
	GetByHash(ctx context.Context, hash string) (*entity.ClaimResult, error)
}

// Ingestor is the behavior the CLI and daemon depend on.
type Ingestor interface {
	// IngestPath a single path.
	IngestPath(ctx context.Context, path string) (IngestionResult, error)
	// IngestDirectory ingests all matching files under root.
	IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]IngestionResult, DirStats, error)
}
