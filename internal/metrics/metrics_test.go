package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/fnol-triage/internal/entity"
	"github.com/joseph-ayodele/fnol-triage/internal/pipeline"
)

var _ pipeline.Observer = (*Metrics)(nil)

func TestObserve(t *testing.T) {
	m := New(false)
	m.ObserveResult(&entity.ClaimResult{RecommendedRoute: "Manual Review", MissingFields: []string{"claimant", "vin"}}, 250*time.Millisecond)
	m.ObserveResult(&entity.ClaimResult{RecommendedRoute: "Manual Review", MissingFields: []string{"claimant"}}, time.Second)
	m.ObserveResult(&entity.ClaimResult{RecommendedRoute: "Fast-track"}, time.Second)
	m.ObserveFailure(pipeline.StageText)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.processed.WithLabelValues("Manual Review")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.processed.WithLabelValues("Fast-track")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.missing.WithLabelValues("claimant")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failed.WithLabelValues("text")))

	n, err := testutil.GatherAndCount(m.Registry(), "fnol_processing_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestHandler(t *testing.T) {
	m := New(true)
	m.ObserveFailure(pipeline.StageStore)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `fnol_documents_failed_total{stage="store"} 1`))
	assert.Contains(t, body, "go_goroutines")
}
