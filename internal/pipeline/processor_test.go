package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/fnol-triage/constants"
	"github.com/joseph-ayodele/fnol-triage/internal/common"
	"github.com/joseph-ayodele/fnol-triage/internal/entity"
	"github.com/joseph-ayodele/fnol-triage/internal/ocr"
	"github.com/joseph-ayodele/fnol-triage/internal/rules"
	"github.com/joseph-ayodele/fnol-triage/internal/routing"
	"github.com/joseph-ayodele/fnol-triage/internal/textsource"
)

const fastTrackText = `POLICY NUMBER: PA-1001
Policyholder Name: John Smith
DATE OF LOSS: 2024-03-14
LOCATION OF LOSS: Maple Ave
DESCRIPTION OF ACCIDENT: minor fender bender
CLAIMANT NAME: John Smith
VIN: 1HGCM82633A004352
ESTIMATE AMOUNT: $12,500
CLAIM TYPE: property`

type memSink struct {
	mu    sync.Mutex
	saved []*entity.ClaimResult
	err   error
}

func (s *memSink) Save(_ context.Context, res *entity.ClaimResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, res)
	return nil
}

type countingObserver struct {
	routes   map[string]int
	failures map[string]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{routes: map[string]int{}, failures: map[string]int{}}
}

func (o *countingObserver) ObserveResult(res *entity.ClaimResult, _ time.Duration) {
	o.routes[res.RecommendedRoute]++
}

func (o *countingObserver) ObserveFailure(stage string) { o.failures[stage]++ }

func staticText(text string, err error) textsource.TextExtractor {
	return textsource.TextExtractorFunc(func(context.Context, string) (textsource.TextExtractionResult, error) {
		return textsource.TextExtractionResult{Text: text, Pages: 1, SourceType: constants.TXT, Method: "txt"}, err
	})
}

func newProcessor(t *testing.T, tx textsource.TextExtractor, opts ...ProcessorOption) *Processor {
	t.Helper()
	x, eng, err := rules.Default().Build()
	require.NoError(t, err)
	return NewProcessor(nil, NewTextStage(tx, nil), NewTriageStage(x, eng, nil), opts...)
}

func tempFile(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte("fnol"), 0o644))
	return p
}

func TestProcessFileRoutesAndStores(t *testing.T) {
	sink := &memSink{}
	obs := newCountingObserver()
	p := newProcessor(t, staticText(fastTrackText, nil), WithSink(sink), WithObserver(obs))
	path := tempFile(t, "claim-1.txt")

	res, err := p.ProcessFile(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "claim-1.txt", res.InputFile)
	assert.Equal(t, path, res.SourcePath)
	assert.Empty(t, res.MissingFields)
	assert.Equal(t, routing.RouteFastTrack, res.RecommendedRoute)
	assert.Equal(t, "Damage below fast-track threshold", res.Reasoning)
	assert.Equal(t, "fast_track", res.Rule)
	assert.Equal(t, "property", res.ExtractedFields.GetOrEmpty(constants.FieldClaimType))
	assert.Len(t, res.ContentHash, 64)
	require.NotNil(t, res.Text)
	assert.Equal(t, "txt", res.Text.Method)

	require.Len(t, sink.saved, 1)
	assert.Same(t, res, sink.saved[0])
	assert.Equal(t, 1, obs.routes[routing.RouteFastTrack])
}

func TestProcessFileUsesContextHash(t *testing.T) {
	p := newProcessor(t, staticText(fastTrackText, nil))
	ctx := common.WithContentHash(context.Background(), "precomputed")

	res, err := p.ProcessFile(ctx, tempFile(t, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "precomputed", res.ContentHash)
}

func TestProcessFileTextFailureStopsPipeline(t *testing.T) {
	cases := map[string]struct {
		tx   textsource.TextExtractor
		file string
		want error
	}{
		"extractor error": {staticText("", common.ErrDatabase), "a.pdf", common.ErrDatabase},
		"blank text":      {staticText("  \n ", nil), "a.pdf", common.ErrNoText},
		"unsupported ext": {staticText(fastTrackText, nil), "a.docx", common.ErrUnsupportedFormat},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			sink := &memSink{}
			obs := newCountingObserver()
			p := newProcessor(t, tc.tx, WithSink(sink), WithObserver(obs))

			res, err := p.ProcessFile(context.Background(), tempFile(t, tc.file))
			assert.ErrorIs(t, err, tc.want)
			assert.Nil(t, res)
			assert.Empty(t, sink.saved)
			assert.Equal(t, 1, obs.failures[StageText])
		})
	}
}

func TestProcessFileSinkFailure(t *testing.T) {
	obs := newCountingObserver()
	p := newProcessor(t, staticText(fastTrackText, nil), WithSink(&memSink{err: errors.New("disk full")}), WithObserver(obs))

	_, err := p.ProcessFile(context.Background(), tempFile(t, "a.txt"))
	require.Error(t, err)
	assert.Equal(t, 1, obs.failures[StageStore])
	assert.Empty(t, obs.routes)
}

func TestProcessTextPolicyOnly(t *testing.T) {
	p := newProcessor(t, nil)

	res, err := p.ProcessText(context.Background(), "inline.txt", "POLICY NUMBER: ABC-123")
	require.NoError(t, err)
	assert.Equal(t, routing.RouteManualReview, res.RecommendedRoute)
	assert.Contains(t, res.Reasoning, "Mandatory fields missing: policyholderName")
	assert.Equal(t, HashText("POLICY NUMBER: ABC-123"), res.ContentHash)
	assert.Nil(t, res.Text)
}

func TestProcessTextDeterministic(t *testing.T) {
	p := newProcessor(t, nil)
	a, err := p.ProcessText(context.Background(), "x", fastTrackText)
	require.NoError(t, err)
	b, err := p.ProcessText(context.Background(), "x", fastTrackText)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, a.Record(), b.Record())
}

func TestHashFile(t *testing.T) {
	h, err := HashFile(tempFile(t, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, HashText("fnol"), h)

	_, err = HashFile(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestProcessFileLabelValueOnNextLine(t *testing.T) {
	p := newProcessor(t, textsource.NewOCRAdapter(ocr.NewExtractor(ocr.Config{}, nil), nil))
	path := filepath.Join(t.TempDir(), "claim.txt")
	require.NoError(t, os.WriteFile(path, []byte("POLICY NUMBER: PA-1001\r\nNAME OF INSURED: \r\nJane Doe\r\n"), 0o644))

	res, err := p.ProcessFile(context.Background(), path)
	require.NoError(t, err)

	got, ok := res.ExtractedFields.Get(constants.FieldPolicyholderName)
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", got)
	assert.Equal(t, "PA-1001", res.ExtractedFields.GetOrEmpty(constants.FieldPolicyNumber))
}
