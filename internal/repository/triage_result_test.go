package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/fnol-triage/internal/common"
	"github.com/joseph-ayodele/fnol-triage/internal/entity"
	"github.com/joseph-ayodele/fnol-triage/internal/extract"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), Config{Driver: DriverSQLite, DSN: "file::memory:"}, nil)
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

func newResult(file, hash, route string, created time.Time) *entity.ClaimResult {
	m := extract.NewFieldMap("policyNumber", "claimant")
	m.Set("policyNumber", "PA-"+file)
	return &entity.ClaimResult{
		ID:               uuid.New(),
		InputFile:        file,
		SourcePath:       "/inbox/" + file,
		ContentHash:      hash,
		ExtractedFields:  m,
		MissingFields:    []string{"claimant"},
		RecommendedRoute: route,
		Reasoning:        "Mandatory fields missing: claimant",
		Rule:             "missing_fields",
		CreatedAt:        created,
	}
}

func TestSaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewTriageResultRepository(openTestDB(t), nil)
	now := time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)

	res := newResult("a.pdf", "hash-a", "Manual Review", now)
	require.NoError(t, repo.Save(ctx, res))

	got, err := repo.GetByID(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, res.InputFile, got.InputFile)
	assert.Equal(t, res.SourcePath, got.SourcePath)
	assert.Equal(t, res.RecommendedRoute, got.RecommendedRoute)
	assert.Equal(t, []string{"claimant"}, got.MissingFields)
	assert.Equal(t, []string{"policyNumber", "claimant"}, got.ExtractedFields.Names())
	assert.Equal(t, "PA-a.pdf", got.ExtractedFields.GetOrEmpty("policyNumber"))
	_, present := got.ExtractedFields.Get("claimant")
	assert.False(t, present)
	assert.True(t, now.Equal(got.CreatedAt))

	byHash, err := repo.GetByHash(ctx, "hash-a")
	require.NoError(t, err)
	assert.Equal(t, res.ID, byHash.ID)
}

func TestGetMissing(t *testing.T) {
	repo := NewTriageResultRepository(openTestDB(t), nil)

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
	_, err = repo.GetByHash(context.Background(), "nope")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestSaveSameHashReplaces(t *testing.T) {
	ctx := context.Background()
	repo := NewTriageResultRepository(openTestDB(t), nil)
	now := time.Now().UTC()

	first := newResult("a.pdf", "same", "Manual Review", now)
	require.NoError(t, repo.Save(ctx, first))

	second := newResult("a-renamed.pdf", "same", "Fast-track", now.Add(time.Minute))
	require.NoError(t, repo.Save(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	got, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fast-track", got.RecommendedRoute)
	assert.Equal(t, "a-renamed.pdf", got.InputFile)

	counts, err := repo.CountByRoute(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"Fast-track": 1}, counts)
}

func TestSaveWithoutHashAlwaysInserts(t *testing.T) {
	ctx := context.Background()
	repo := NewTriageResultRepository(openTestDB(t), nil)

	a := newResult("a.txt", "", "Manual Review", time.Now())
	b := newResult("b.txt", "", "Manual Review", time.Now())
	b.ID = uuid.Nil
	b.CreatedAt = time.Time{}
	require.NoError(t, repo.Save(ctx, a))
	require.NoError(t, repo.Save(ctx, b))
	assert.NotEqual(t, uuid.Nil, b.ID)
	assert.False(t, b.CreatedAt.IsZero())

	all, err := repo.List(ctx, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestListFilters(t *testing.T) {
	ctx := context.Background()
	repo := NewTriageResultRepository(openTestDB(t), nil)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Save(ctx, newResult("1.pdf", "h1", "Fast-track", base)))
	require.NoError(t, repo.Save(ctx, newResult("2.pdf", "h2", "Investigation", base.Add(time.Hour))))
	require.NoError(t, repo.Save(ctx, newResult("3.pdf", "h3", "Fast-track", base.Add(2*time.Hour))))

	all, err := repo.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "3.pdf", all[0].InputFile)

	fast, err := repo.List(ctx, ListFilter{Route: "Fast-track"})
	require.NoError(t, err)
	assert.Len(t, fast, 2)

	recent, err := repo.List(ctx, ListFilter{Since: base.Add(30 * time.Minute)})
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	limited, err := repo.List(ctx, ListFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "3.pdf", limited[0].InputFile)

	counts, err := repo.CountByRoute(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"Fast-track": 2, "Investigation": 1}, counts)
}

func TestHealthCheck(t *testing.T) {
	db := openTestDB(t)
	assert.NoError(t, HealthCheck(context.Background(), db, time.Second, nil))
}

func TestRebind(t *testing.T) {
	pg := &DB{Driver: DriverPostgres}
	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2", pg.rebind("SELECT a FROM t WHERE x = ? AND y = ?"))
	lite := &DB{Driver: DriverSQLite}
	assert.Equal(t, "x = ?", lite.rebind("x = ?"))
}

func TestOpenUnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "mysql"}, nil)
	assert.Error(t, err)
}
