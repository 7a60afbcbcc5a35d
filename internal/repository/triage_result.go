package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/fnol-triage/internal/common"
	"github.com/joseph-ayodele/fnol-triage/internal/entity"
	"github.com/joseph-ayodele/fnol-triage/internal/extract"
)

// ListFilter narrows List. Zero values mean "no constraint"; Limit defaults to 100.
type ListFilter struct {
	Route string
	Since time.Time
	Limit int
}

const defaultListLimit = 100

type TriageResultRepository interface {
	// Save stores res. A result whose content hash is already stored replaces
	// the stored one and res.ID is updated to the existing ID.
	Save(ctx context.Context, res *entity.ClaimResult) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.ClaimResult, error)
	GetByHash(ctx context.Context, hash string) (*entity.ClaimResult, error)
	List(ctx context.Context, f ListFilter) ([]*entity.ClaimResult, error)
	CountByRoute(ctx context.Context) (map[string]int64, error)
}

type triageResultRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewTriageResultRepository(db *DB, logger *slog.Logger) TriageResultRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &triageResultRepo{db: db, logger: logger}
}

const resultColumns = `id, input_file, source_path, content_hash, route, reasoning, rule, extracted_json, missing_json, created_at`

func (r *triageResultRepo) Save(ctx context.Context, res *entity.ClaimResult) error {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	if res.CreatedAt.IsZero() {
		res.CreatedAt = time.Now().UTC()
	}
	extracted, err := json.Marshal(res.ExtractedFields)
	if err != nil {
		return fmt.Errorf("marshal extracted fields: %w", err)
	}
	missing := res.MissingFields
	if missing == nil {
		missing = []string{}
	}
	missingJSON, err := json.Marshal(missing)
	if err != nil {
		return fmt.Errorf("marshal missing fields: %w", err)
	}

	q := r.db.rebind(`INSERT INTO triage_result (` + resultColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (content_hash) DO UPDATE SET
			input_file = excluded.input_file,
			source_path = excluded.source_path,
			route = excluded.route,
			reasoning = excluded.reasoning,
			rule = excluded.rule,
			extracted_json = excluded.extracted_json,
			missing_json = excluded.missing_json,
			created_at = excluded.created_at
		RETURNING id`)

	var id string
	err = r.db.SQL.QueryRowContext(ctx, q,
		res.ID.String(),
		res.InputFile,
		nullString(res.SourcePath),
		nullString(res.ContentHash),
		res.RecommendedRoute,
		res.Reasoning,
		res.Rule,
		string(extracted),
		string(missingJSON),
		res.CreatedAt.UTC(),
	).Scan(&id)
	if err != nil {
		r.logger.Error("failed to save triage result", "input_file", res.InputFile, "error", err)
		return fmt.Errorf("%w: save triage result: %v", common.ErrDatabase, err)
	}
	stored, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("%w: stored id %q: %v", common.ErrDatabase, id, err)
	}
	res.ID = stored
	return nil
}

func (r *triageResultRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.ClaimResult, error) {
	q := r.db.rebind(`SELECT ` + resultColumns + ` FROM triage_result WHERE id = ?`)
	return r.getOne(ctx, q, id.String())
}

func (r *triageResultRepo) GetByHash(ctx context.Context, hash string) (*entity.ClaimResult, error) {
	q := r.db.rebind(`SELECT ` + resultColumns + ` FROM triage_result WHERE content_hash = ?`)
	return r.getOne(ctx, q, hash)
}

func (r *triageResultRepo) getOne(ctx context.Context, q string, arg any) (*entity.ClaimResult, error) {
	res, err := scanResult(r.db.SQL.QueryRowContext(ctx, q, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("triage result %v: %w", arg, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	return res, nil
}

func (r *triageResultRepo) List(ctx context.Context, f ListFilter) ([]*entity.ClaimResult, error) {
	var (
		where []string
		args  []any
	)
	if f.Route != "" {
		where = append(where, "route = ?")
		args = append(args, f.Route)
	}
	if !f.Since.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, f.Since.UTC())
	}
	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	q := `SELECT ` + resultColumns + ` FROM triage_result`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.SQL.QueryContext(ctx, r.db.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list triage results: %v", common.ErrDatabase, err)
	}
	defer func() { _ = rows.Close() }()

	var out []*entity.ClaimResult
	for rows.Next() {
		res, err := scanResult(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
	}
	return out, nil
}

func (r *triageResultRepo) CountByRoute(ctx context.Context) (map[string]int64, error) {
	rows, err := r.db.SQL.QueryContext(ctx, `SELECT route, COUNT(*) FROM triage_result GROUP BY route`)
	if err != nil {
		return nil, fmt.Errorf("%w: count by route: %v", common.ErrDatabase, err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]int64)
	for rows.Next() {
		var (
			route string
			n     int64
		)
		if err := rows.Scan(&route, &n); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrDatabase, err)
		}
		out[route] = n
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResult(row rowScanner) (*entity.ClaimResult, error) {
	var (
		id, inputFile, route, reasoning, rule string
		sourcePath, contentHash              sql.NullString
		extracted, missing                   string
		createdAt                            time.Time
	)
	if err := row.Scan(&id, &inputFile, &sourcePath, &contentHash, &route, &reasoning, &rule, &extracted, &missing, &createdAt); err != nil {
		return nil, err
	}
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse id %q: %w", id, err)
	}
	fields := &extract.FieldMap{}
	if err := json.Unmarshal([]byte(extracted), fields); err != nil {
		return nil, fmt.Errorf("decode extracted_json: %w", err)
	}
	var missingFields []string
	if err := json.Unmarshal([]byte(missing), &missingFields); err != nil {
		return nil, fmt.Errorf("decode missing_json: %w", err)
	}
	return &entity.ClaimResult{
		ID:               uid,
		InputFile:        inputFile,
		SourcePath:       sourcePath.String,
		ContentHash:      contentHash.String,
		ExtractedFields:  fields,
		MissingFields:    missingFields,
		RecommendedRoute: route,
		Reasoning:        reasoning,
		Rule:             rule,
		CreatedAt:        createdAt.UTC(),
	}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
