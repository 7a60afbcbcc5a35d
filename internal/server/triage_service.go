package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/fnol-triage/internal/common"
	"github.com/joseph-ayodele/fnol-triage/internal/entity"
	"github.com/joseph-ayodele/fnol-triage/internal/repository"
	"github.com/joseph-ayodele/fnol-triage/internal/routing"
)

const (
	// MaxTextChars bounds inline text submitted to Triage.
	MaxTextChars = 1 << 20
	// DefaultListLimit applies when ListResults is called without a limit.
	DefaultListLimit = 100
	maxListLimit     = 1000
)

// Triager runs the pipeline.
type Triager interface {
	ProcessText(ctx context.Context, inputFile, text string) (*entity.ClaimResult, error)
	ProcessFile(ctx context.Context, path string) (*entity.ClaimResult, error)
}

type TriageService struct {
	triager   Triager
	results   repository.TriageResultRepository // optional; GetResult and ListResults need it
	fileRoots []string                          // TriageFile only reads below these; empty disables TriageFile
	logger    *slog.Logger
}

type ServiceOption func(*TriageService)

// WithFileRoot allows TriageFile to read documents under dir.
func WithFileRoot(dir string) ServiceOption {
	return func(s *TriageService) {
		if dir == "" {
			return
		}
		root, err := filepath.Abs(dir)
		if err != nil {
			return
		}
		s.fileRoots = append(s.fileRoots, root)
		if resolved, err := filepath.EvalSymlinks(root); err == nil && resolved != root {
			s.fileRoots = append(s.fileRoots, resolved)
		}
	}
}

func NewTriageService(t Triager, results repository.TriageResultRepository, logger *slog.Logger, opts ...ServiceOption) *TriageService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &TriageService{triager: t, results: results, logger: logger}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Triage runs field extraction and routing over inline text: {inputFile, text}.
func (s *TriageService) Triage(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	text := stringField(req, "text")
	inputFile := strings.TrimSpace(stringField(req, "inputFile"))
	if inputFile == "" {
		inputFile = "inline.txt"
	}

	v := common.NewValidator().
		Field("text", text, common.Required, common.MaxLength(MaxTextChars)).
		Field("inputFile", inputFile, common.MaxLength(255))
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}

	res, err := s.triager.ProcessText(ctx, inputFile, text)
	if err != nil {
		s.logger.Error("triage.text.failed", "input_file", inputFile, "request_id", common.RequestIDFromContext(ctx), "err", err)
		return nil, common.ToStatus(err)
	}
	return resultToStruct(res)
}

// TriageFile runs the full pipeline on a file below the configured file root: {path}.
func (s *TriageService) TriageFile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	path := strings.TrimSpace(stringField(req, "path"))
	v := common.NewValidator().Field("path", path, common.Required, common.MaxLength(4096))
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}
	if len(s.fileRoots) == 0 {
		return nil, status.Error(codes.FailedPrecondition, "file triage not configured")
	}
	abs, err := filepath.Abs(path)
	if err != nil || !s.underRoot(abs) {
		s.logger.Warn("triage.file.denied", "path", path, "request_id", common.RequestIDFromContext(ctx))
		return nil, status.Error(codes.PermissionDenied, "path is outside the file root")
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, common.ToStatus(fmt.Errorf("file not found: %w", err))
	}
	if resolved, err := filepath.EvalSymlinks(abs); err != nil || !s.underRoot(resolved) {
		s.logger.Warn("triage.file.denied", "path", path, "request_id", common.RequestIDFromContext(ctx))
		return nil, status.Error(codes.PermissionDenied, "path is outside the file root")
	}
	path = abs

	res, err := s.triager.ProcessFile(ctx, path)
	if err != nil {
		s.logger.Error("triage.file.failed", "path", path, "request_id", common.RequestIDFromContext(ctx), "err", err)
		return nil, common.ToStatus(err)
	}
	return resultToStruct(res)
}

func (s *TriageService) underRoot(abs string) bool {
	for _, root := range s.fileRoots {
		rel, err := filepath.Rel(root, abs)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// GetResult loads a stored result: {id}.
func (s *TriageService) GetResult(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.results == nil {
		return nil, status.Error(codes.FailedPrecondition, "result store not configured")
	}
	id := strings.TrimSpace(stringField(req, "id"))
	v := common.NewValidator().Field("id", id, common.Required, common.UUID)
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}

	res, err := s.results.GetByID(ctx, uuid.MustParse(id))
	if err != nil {
		return nil, common.ToStatus(err)
	}
	return resultToStruct(res)
}

// ListResults lists stored results, newest first: {route, since, limit}.
func (s *TriageService) ListResults(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if s.results == nil {
		return nil, status.Error(codes.FailedPrecondition, "result store not configured")
	}
	route := strings.TrimSpace(stringField(req, "route"))
	since := strings.TrimSpace(stringField(req, "since"))
	limit := int64(req.GetFields()["limit"].GetNumberValue())

	v := common.NewValidator().
		Field("route", route, common.OneOf(routing.Routes()...)).
		Field("limit", limit, common.Range(0, maxListLimit))
	if err := common.ValidateAndReturnError(v); err != nil {
		return nil, err
	}
	f := repository.ListFilter{Route: route, Limit: int(limit)}
	if f.Limit == 0 {
		f.Limit = DefaultListLimit
	}
	if since != "" {
		t, err := time.Parse(time.RFC3339, since)
		if err != nil {
			return nil, common.InvalidArgumentErrorf("since must be RFC3339: %v", err)
		}
		f.Since = t
	}

	recs, err := s.results.List(ctx, f)
	if err != nil {
		s.logger.Error("triage.list.failed", "err", err)
		return nil, common.ToStatus(err)
	}
	items := make([]any, 0, len(recs))
	for _, r := range recs {
		m, err := resultToMap(r)
		if err != nil {
			return nil, common.InternalErrorf("encode result: %v", err)
		}
		items = append(items, m)
	}
	counts, err := s.results.CountByRoute(ctx)
	if err != nil {
		return nil, common.ToStatus(err)
	}
	byRoute := make(map[string]any, len(counts))
	for route, n := range counts {
		byRoute[route] = n
	}
	out, err := structpb.NewStruct(map[string]any{"results": items, "count": len(items), "totalByRoute": byRoute})
	if err != nil {
		return nil, common.InternalErrorf("encode results: %v", err)
	}
	return out, nil
}

func stringField(req *structpb.Struct, key string) string {
	return req.GetFields()[key].GetStringValue()
}

// resultToMap goes through the JSON form so extracted fields keep null for absent values.
func resultToMap(res *entity.ClaimResult) (map[string]any, error) {
	cp := *res
	if cp.MissingFields == nil {
		cp.MissingFields = []string{}
	}
	b, err := json.Marshal(&cp)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func resultToStruct(res *entity.ClaimResult) (*structpb.Struct, error) {
	m, err := resultToMap(res)
	if err != nil {
		return nil, common.InternalErrorf("encode result: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, common.InternalErrorf("encode result: %v", err)
	}
	return out, nil
}
