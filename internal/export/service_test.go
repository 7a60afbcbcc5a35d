package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/fnol-triage/internal/entity"
	"github.com/joseph-ayodele/fnol-triage/internal/extract"
	"github.com/joseph-ayodele/fnol-triage/internal/repository"
)

var names = []string{"policyNumber", "claimant"}

func result(file, route, policy string) *entity.ClaimResult {
	m := extract.NewFieldMap(names...)
	if policy != "" {
		m.Set("policyNumber", policy)
	}
	return &entity.ClaimResult{
		InputFile:        file,
		ExtractedFields:  m,
		MissingFields:    []string{"claimant"},
		RecommendedRoute: route,
		Reasoning:        "Mandatory fields missing: claimant",
		CreatedAt:        time.Now(),
	}
}

func readRows(t *testing.T, b []byte) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(b))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.Equal(t, []string{SheetName}, f.GetSheetList())
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	return rows
}

func TestExportResultsXLSX(t *testing.T) {
	s := NewService(nil, names, nil)
	b, err := s.ExportResultsXLSX(context.Background(), []*entity.ClaimResult{
		result("a.pdf", "Manual Review", "PA-1"),
		result("b.txt", "Manual Review", ""),
	})
	require.NoError(t, err)

	rows := readRows(t, b)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Input File", "Route", "Reasoning", "Missing Fields", "policyNumber", "claimant"}, rows[0])
	assert.Equal(t, []string{"a.pdf", "Manual Review", "Mandatory fields missing: claimant", "claimant", "PA-1"}, rows[1])
	assert.Equal(t, "b.txt", rows[2][0])
}

func TestExportStoredXLSX(t *testing.T) {
	ctx := context.Background()
	db, err := repository.Open(ctx, repository.Config{Driver: repository.DriverSQLite, DSN: "file::memory:"}, nil)
	require.NoError(t, err)
	defer db.Close()
	repo := repository.NewTriageResultRepository(db, nil)

	a := result("a.pdf", "Fast-track", "PA-1")
	a.ContentHash = "a"
	b := result("b.pdf", "Investigation", "PA-2")
	b.ContentHash = "b"
	require.NoError(t, repo.Save(ctx, a))
	require.NoError(t, repo.Save(ctx, b))

	out, err := NewService(repo, names, nil).ExportStoredXLSX(ctx, repository.ListFilter{Route: "Investigation"})
	require.NoError(t, err)
	rows := readRows(t, out)
	require.Len(t, rows, 2)
	assert.Equal(t, "b.pdf", rows[1][0])

	_, err = NewService(nil, names, nil).ExportStoredXLSX(ctx, repository.ListFilter{})
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 3))
	assert.Equal(t, "ab…", truncate("abcd", 3))
	assert.Equal(t, "abcd", truncate("abcd", 0))
}
