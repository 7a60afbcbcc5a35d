package async

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/fnol-triage/constants"
	"github.com/joseph-ayodele/fnol-triage/internal/common"
	"github.com/joseph-ayodele/fnol-triage/internal/entity"
)

type fakeProcessor struct {
	mu     sync.Mutex
	hashes map[string]string
	jobIDs map[string]string
	delay  time.Duration
}

func (f *fakeProcessor) ProcessFile(ctx context.Context, path string) (*entity.ClaimResult, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	h, _ := common.ContentHashFromContext(ctx)
	f.mu.Lock()
	f.hashes[path] = h
	f.jobIDs[path] = common.JobIDFromContext(ctx)
	f.mu.Unlock()
	if path == "bad.pdf" {
		return nil, common.ErrNoText
	}
	return &entity.ClaimResult{InputFile: path, RecommendedRoute: "Fast-track", ContentHash: h}, nil
}

func newFake() *fakeProcessor {
	return &fakeProcessor{hashes: map[string]string{}, jobIDs: map[string]string{}}
}

func job(path, hash string) Job {
	return Job{File: entity.SourceFile{SourcePath: path}, HashHex: hash}
}

func TestQueueProcessesAndDrains(t *testing.T) {
	proc := newFake()
	var mu sync.Mutex
	var finished []entity.TriageJob
	q := NewProcessorQueue(proc, nil, WithWorkers(2), WithQueueSize(1), WithResultHandler(func(j entity.TriageJob) {
		mu.Lock()
		finished = append(finished, j)
		mu.Unlock()
	}))

	okID, err := q.Enqueue(context.Background(), job("good.pdf", "h1"))
	require.NoError(t, err)
	badID, err := q.Enqueue(context.Background(), job("bad.pdf", ""))
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := q.Enqueue(context.Background(), job("more.pdf", ""))
		require.NoError(t, err)
	}

	q.Shutdown(context.Background())
	assert.Len(t, finished, 7)

	ok, found := q.Job(okID)
	require.True(t, found)
	assert.Equal(t, constants.JobStatusRouted, ok.Status)
	require.NotNil(t, ok.Result)
	assert.Equal(t, "h1", ok.Result.ContentHash)
	assert.NotNil(t, ok.FinishedAt)
	assert.Equal(t, okID.String(), proc.jobIDs["good.pdf"])

	bad, _ := q.Job(badID)
	assert.Equal(t, constants.JobStatusFailed, bad.Status)
	require.NotNil(t, bad.ErrorMessage)
	assert.Contains(t, *bad.ErrorMessage, "no text")

	assert.Equal(t, map[constants.JobStatus]int{constants.JobStatusRouted: 6, constants.JobStatusFailed: 1}, q.Counts())
}

func TestEnqueueAfterShutdown(t *testing.T) {
	q := NewProcessorQueue(newFake(), nil)
	q.Shutdown(context.Background())
	q.Shutdown(context.Background())

	_, err := q.Enqueue(context.Background(), job("a.pdf", ""))
	assert.ErrorIs(t, err, ErrQueueClosed)
}

func TestEnqueueKeepsCallerID(t *testing.T) {
	q := NewProcessorQueue(newFake(), nil, WithWorkers(1))
	defer q.Shutdown(context.Background())

	id := uuid.New()
	got, err := q.Enqueue(context.Background(), Job{ID: id, File: entity.SourceFile{SourcePath: "a.pdf"}})
	require.NoError(t, err)
	assert.Equal(t, id, got)
	_, found := q.Job(uuid.New())
	assert.False(t, found)
}

func TestEnqueueFullQueueRespectsContext(t *testing.T) {
	proc := newFake()
	proc.delay = 200 * time.Millisecond
	q := NewProcessorQueue(proc, nil, WithWorkers(1), WithQueueSize(1))
	defer q.Shutdown(context.Background())

	// one job in the worker, one in the buffer
	_, err := q.Enqueue(context.Background(), job("a.pdf", ""))
	require.NoError(t, err)
	time.Sleep(20 * time.Millisecond)
	_, err = q.Enqueue(context.Background(), job("b.pdf", ""))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = q.Enqueue(ctx, job("c.pdf", ""))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestEnqueueBlocksUntilWorkersFreeSlots(t *testing.T) {
	proc := newFake()
	proc.delay = 20 * time.Millisecond
	var mu sync.Mutex
	done := 0
	q := NewProcessorQueue(proc, nil, WithWorkers(1), WithQueueSize(1), WithResultHandler(func(entity.TriageJob) {
		mu.Lock()
		done++
		mu.Unlock()
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	start := time.Now()
	for i := 0; i < 6; i++ {
		_, err := q.Enqueue(ctx, job("claim.pdf", ""))
		require.NoError(t, err, "enqueue %d", i)
	}
	q.Shutdown(ctx)

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, 6, done)
	assert.Equal(t, map[constants.JobStatus]int{constants.JobStatusRouted: 6}, q.Counts())
}

func TestShutdownWaitsForBlockedEnqueue(t *testing.T) {
	proc := newFake()
	proc.delay = 30 * time.Millisecond
	q := NewProcessorQueue(proc, nil, WithWorkers(1), WithQueueSize(1))

	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		go func() {
			_, err := q.Enqueue(context.Background(), job("claim.pdf", ""))
			errs <- err
		}()
	}
	time.Sleep(10 * time.Millisecond)
	q.Shutdown(context.Background())

	accepted := 0
	for i := 0; i < 4; i++ {
		err := <-errs
		if err == nil {
			accepted++
			continue
		}
		assert.ErrorIs(t, err, ErrQueueClosed)
	}
	assert.Equal(t, accepted, q.Counts()[constants.JobStatusRouted])
}
