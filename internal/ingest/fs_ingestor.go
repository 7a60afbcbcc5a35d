package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/fnol-triage/constants"
	"github.com/joseph-ayodele/fnol-triage/internal/common"
	"github.com/joseph-ayodele/fnol-triage/internal/entity"
)

// FSIngestor reads FNOL documents from the local filesystem.
type FSIngestor struct {
	Seen   HashLookup // optional; nil disables deduplication
	logger *slog.Logger
}

func NewFSIngestor(seen HashLookup, logger *slog.Logger) *FSIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &FSIngestor{Seen: seen, logger: logger}
}

// IngestPath hashes path and reports whether a result for the same content is already stored.
func (i *FSIngestor) IngestPath(ctx context.Context, path string) (IngestionResult, error) {
	var out IngestionResult

	abs, err := filepath.Abs(path)
	if err != nil {
		return out, fmt.Errorf("abs path: %w", err)
	}

	ext := constants.NormalizeExt(filepath.Ext(abs))
	if ext == "" || !constants.AllowedExt(ext) {
		i.logger.Warn("ingest.ext.unsupported", "path", abs, "ext", ext)
		return out, fmt.Errorf("%w: %q", common.ErrUnsupportedFormat, ext)
	}

	f, err := os.Open(abs)
	if err != nil {
		return out, err
	}
	defer func() {
		if err := f.Close(); err != nil {
			i.logger.Warn("ingest.close.failed", "path", abs, "err", err)
		}
	}()

	info, err := f.Stat()
	if err != nil {
		return out, err
	}
	if info.IsDir() {
		return out, fmt.Errorf("%w: %s is a directory", common.ErrInvalidInput, abs)
	}

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return out, fmt.Errorf("hash: %w", err)
	}
	sum := h.Sum(nil)

	out = IngestionResult{
		File: entity.SourceFile{
			ID:           uuid.New(),
			SourcePath:   abs,
			ContentHash:  sum,
			Filename:     filepath.Base(abs),
			FileExt:      ext,
			FileSize:     info.Size(),
			DiscoveredAt: time.Now().UTC(),
		},
		HashHex: hex.EncodeToString(sum),
	}

	if i.Seen != nil {
		prev, err := i.Seen.GetByHash(ctx, out.HashHex)
		switch {
		case err == nil:
			out.Deduplicated = true
			out.ExistingID = prev.ID
		case !errors.Is(err, common.ErrNotFound):
			return out, fmt.Errorf("lookup hash: %w", err)
		}
	}

	i.logger.Debug("ingest.file.ok",
		"path", abs,
		"hash", out.HashHex,
		"size", info.Size(),
		"deduplicated", out.Deduplicated,
	)
	return out, nil
}

// IngestDirectory walks root, skips hidden entries if requested,
// and calls IngestPath for each file. Returns per-file results + aggregate stats.
func (i *FSIngestor) IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]IngestionResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, fmt.Errorf("%w: root path is required", common.ErrInvalidInput)
	}

	var results []IngestionResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			results = append(results, IngestionResult{File: entity.SourceFile{SourcePath: path}, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			return nil
		}
		if !constants.AllowedExt(filepath.Ext(path)) {
			return nil
		}
		stats.Matched++

		r, err := i.IngestPath(ctx, path)
		if err != nil {
			results = append(results, IngestionResult{File: entity.SourceFile{SourcePath: path}, Err: err.Error()})
			stats.Failed++
			return nil
		}

		results = append(results, r)
		stats.Succeeded++
		if r.Deduplicated {
			stats.Deduplicated++
		}
		return nil
	})

	i.logger.Info("ingest.dir.done",
		"root", root,
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"deduplicated", stats.Deduplicated,
		"failed", stats.Failed,
	)
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	return results, stats, nil
}
