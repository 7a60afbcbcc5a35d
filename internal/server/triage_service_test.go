package server

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/fnol-triage/internal/ocr"
	"github.com/joseph-ayodele/fnol-triage/internal/pipeline"
	"github.com/joseph-ayodele/fnol-triage/internal/repository"
	"github.com/joseph-ayodele/fnol-triage/internal/routing"
	"github.com/joseph-ayodele/fnol-triage/internal/rules"
	"github.com/joseph-ayodele/fnol-triage/internal/textsource"
)

const investigationText = `POLICY NUMBER: PA-1001
Policyholder Name: John Smith
DATE OF LOSS: 2024-03-14
LOCATION OF LOSS: Maple Ave
DESCRIPTION OF ACCIDENT: inconsistent account of events
CLAIMANT NAME: John Smith
VIN: 1HGCM82633A004352
ESTIMATE AMOUNT: $12,500
CLAIM TYPE: vehicle`

type harness struct {
	client TriageServiceClient
	health healthpb.HealthClient
	root   string
}

// newHarness serves TriageService over bufconn. fileRoot "" disables TriageFile.
func newHarness(t *testing.T, withStore bool, fileRoot string) harness {
	t.Helper()
	ctx := context.Background()

	x, eng, err := rules.Default().Build()
	require.NoError(t, err)
	tx := textsource.NewOCRAdapter(ocr.NewExtractor(ocr.Config{}, nil), nil)

	var repo repository.TriageResultRepository
	var opts []pipeline.ProcessorOption
	if withStore {
		db, err := repository.Open(ctx, repository.Config{Driver: repository.DriverSQLite, DSN: "file::memory:"}, nil)
		require.NoError(t, err)
		t.Cleanup(db.Close)
		repo = repository.NewTriageResultRepository(db, nil)
		opts = append(opts, pipeline.WithSink(repo))
	}
	proc := pipeline.NewProcessor(nil, pipeline.NewTextStage(tx, nil), pipeline.NewTriageStage(x, eng, nil), opts...)

	lis := bufconn.Listen(1 << 20)
	srv, _ := NewGRPCServer(NewTriageService(proc, repo, nil, WithFileRoot(fileRoot)), nil)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return harness{client: NewTriageServiceClient(conn), health: healthpb.NewHealthClient(conn), root: fileRoot}
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	require.NoError(t, err)
	return s
}

func TestTriageInlineText(t *testing.T) {
	h := newHarness(t, false, "")

	out, err := h.client.Triage(context.Background(), mustStruct(t, map[string]any{"text": "POLICY NUMBER: ABC-123"}))
	require.NoError(t, err)
	m := out.AsMap()
	assert.Equal(t, "inline.txt", m["inputFile"])
	assert.Equal(t, routing.RouteManualReview, m["recommendedRoute"])
	fields := m["extractedFields"].(map[string]any)
	assert.Equal(t, "ABC-123", fields["policyNumber"])
	assert.Nil(t, fields["claimant"])
	assert.Contains(t, m["missingFields"], "policyholderName")
}

func TestTriageValidation(t *testing.T) {
	h := newHarness(t, false, t.TempDir())

	_, err := h.client.Triage(context.Background(), mustStruct(t, map[string]any{"text": "   "}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = h.client.TriageFile(context.Background(), mustStruct(t, map[string]any{}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = h.client.TriageFile(context.Background(), mustStruct(t, map[string]any{"path": filepath.Join(h.root, "nope.txt")}))
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestTriageFileStoresAndLists(t *testing.T) {
	h := newHarness(t, true, t.TempDir())
	ctx := context.Background()

	p := filepath.Join(h.root, "claim-7.txt")
	require.NoError(t, os.WriteFile(p, []byte(investigationText), 0o644))

	out, err := h.client.TriageFile(ctx, mustStruct(t, map[string]any{"path": p}))
	require.NoError(t, err)
	m := out.AsMap()
	assert.Equal(t, "claim-7.txt", m["inputFile"])
	assert.Equal(t, routing.RouteInvestigation, m["recommendedRoute"])
	assert.Contains(t, m["reasoning"], "inconsistent")
	id := m["id"].(string)

	got, err := h.client.GetResult(ctx, mustStruct(t, map[string]any{"id": id}))
	require.NoError(t, err)
	assert.Equal(t, routing.RouteInvestigation, got.AsMap()["recommendedRoute"])

	_, err = h.client.GetResult(ctx, mustStruct(t, map[string]any{"id": uuid.NewString()}))
	assert.Equal(t, codes.NotFound, status.Code(err))
	_, err = h.client.GetResult(ctx, mustStruct(t, map[string]any{"id": "x"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	list, err := h.client.ListResults(ctx, mustStruct(t, map[string]any{"route": routing.RouteInvestigation}))
	require.NoError(t, err)
	assert.Equal(t, float64(1), list.AsMap()["count"])
	assert.Equal(t, map[string]any{routing.RouteInvestigation: float64(1)}, list.AsMap()["totalByRoute"])

	_, err = h.client.ListResults(ctx, mustStruct(t, map[string]any{"route": "Teleport"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	_, err = h.client.ListResults(ctx, mustStruct(t, map[string]any{"since": "yesterday"}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestResultsWithoutStore(t *testing.T) {
	h := newHarness(t, false, "")
	_, err := h.client.ListResults(context.Background(), mustStruct(t, map[string]any{}))
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestHealth(t *testing.T) {
	h := newHarness(t, false, "")
	resp, err := h.health.Check(context.Background(), &healthpb.HealthCheckRequest{Service: TriageServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestTriageFileStaysUnderRoot(t *testing.T) {
	h := newHarness(t, false, t.TempDir())
	ctx := context.Background()

	outside := filepath.Join(t.TempDir(), "secret.txt")
	require.NoError(t, os.WriteFile(outside, []byte(investigationText), 0o644))

	_, err := h.client.TriageFile(ctx, mustStruct(t, map[string]any{"path": outside}))
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	rel, err := filepath.Rel(h.root, outside)
	require.NoError(t, err)
	_, err = h.client.TriageFile(ctx, mustStruct(t, map[string]any{"path": h.root + string(filepath.Separator) + rel}))
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	link := filepath.Join(h.root, "link.txt")
	require.NoError(t, os.Symlink(outside, link))
	_, err = h.client.TriageFile(ctx, mustStruct(t, map[string]any{"path": link}))
	assert.Equal(t, codes.PermissionDenied, status.Code(err))

	inside := filepath.Join(h.root, "claim.txt")
	require.NoError(t, os.WriteFile(inside, []byte(investigationText), 0o644))
	out, err := h.client.TriageFile(ctx, mustStruct(t, map[string]any{"path": inside}))
	require.NoError(t, err)
	assert.Equal(t, routing.RouteInvestigation, out.AsMap()["recommendedRoute"])
}

func TestTriageFileWithoutRoot(t *testing.T) {
	h := newHarness(t, false, "")
	p := filepath.Join(t.TempDir(), "claim.txt")
	require.NoError(t, os.WriteFile(p, []byte(investigationText), 0o644))

	_, err := h.client.TriageFile(context.Background(), mustStruct(t, map[string]any{"path": p}))
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}
