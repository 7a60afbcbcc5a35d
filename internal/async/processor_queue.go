package async

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/fnol-triage/constants"
	"github.com/joseph-ayodele/fnol-triage/internal/common"
	"github.com/joseph-ayodele/fnol-triage/internal/entity"
)

// FileProcessor triages one document on disk.
type FileProcessor interface {
	ProcessFile(ctx context.Context, path string) (*entity.ClaimResult, error)
}

// ResultHandler is called once per job after it reaches a terminal status.
type ResultHandler func(job entity.TriageJob)

type ProcessorQueue struct {
	proc     FileProcessor
	logger   *slog.Logger
	workers  int
	timeout  time.Duration
	onResult ResultHandler

	ch      chan Job
	wg      sync.WaitGroup
	sending sync.WaitGroup
	once    sync.Once

	mu     sync.Mutex
	closed bool
	jobs   map[uuid.UUID]*entity.TriageJob
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}
func WithResultHandler(h ResultHandler) Option {
	return func(q *ProcessorQueue) { q.onResult = h }
}

func NewProcessorQueue(proc FileProcessor, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		proc:    proc,
		logger:  logger,
		workers: 4,
		timeout: 2 * time.Minute,
		ch:      make(chan Job, 256),
		jobs:    make(map[uuid.UUID]*entity.TriageJob),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Debug("queue.worker.started", "worker_id", workerID)
				for job := range q.ch {
					q.run(workerID, job)
				}
				q.logger.Debug("queue.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) run(workerID int, job Job) {
	q.setStatus(job.ID, constants.JobStatusRunning, nil, nil)

	ctx := common.WithJobID(context.Background(), job.ID.String())
	if job.TraceID != "" {
		ctx = common.WithRequestID(ctx, job.TraceID)
	}
	if job.HashHex != "" {
		ctx = common.WithContentHash(ctx, job.HashHex)
	}
	ctx, cancel := common.WithTimeout(ctx, q.timeout)
	res, err := q.proc.ProcessFile(ctx, job.File.SourcePath)
	cancel()

	if err != nil {
		q.logger.Error("queue.job.failed", "worker_id", workerID, "job_id", job.ID, "path", job.File.SourcePath, "err", err)
		q.setStatus(job.ID, constants.JobStatusFailed, nil, err)
		return
	}
	q.logger.Info("queue.job.ok", "worker_id", workerID, "job_id", job.ID, "route", res.RecommendedRoute)
	q.setStatus(job.ID, constants.JobStatusRouted, res, nil)
}

func (q *ProcessorQueue) setStatus(id uuid.UUID, s constants.JobStatus, res *entity.ClaimResult, err error) {
	q.mu.Lock()
	j, ok := q.jobs[id]
	if !ok {
		q.mu.Unlock()
		return
	}
	j.Status = s
	terminal := s == constants.JobStatusRouted || s == constants.JobStatusFailed
	if terminal {
		now := time.Now().UTC()
		j.FinishedAt = &now
		j.Result = res
		if err != nil {
			msg := err.Error()
			j.ErrorMessage = &msg
		}
	}
	snapshot := *j
	q.mu.Unlock()

	if terminal && q.onResult != nil {
		q.onResult(snapshot)
	}
}

// Enqueue blocks while the queue is full, until ctx is done.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) (uuid.UUID, error) {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now().UTC()
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.logger.Warn("queue.enqueue.closed", "path", job.File.SourcePath)
		return uuid.Nil, ErrQueueClosed
	}
	q.jobs[job.ID] = &entity.TriageJob{
		ID:        job.ID,
		File:      job.File,
		Status:    constants.JobStatusQueued,
		StartedAt: job.SubmittedAt,
	}
	// Send without mu held: workers take mu in setStatus. Shutdown waits on sending before closing ch.
	q.sending.Add(1)
	q.mu.Unlock()
	defer q.sending.Done()

	select {
	case q.ch <- job:
	default:
		q.logger.Warn("queue.full", "job_id", job.ID)
		select {
		case q.ch <- job:
		case <-ctx.Done():
			q.mu.Lock()
			delete(q.jobs, job.ID)
			q.mu.Unlock()
			return uuid.Nil, fmt.Errorf("enqueue: %w", ctx.Err())
		}
	}
	q.logger.Debug("queue.job.queued", "job_id", job.ID, "path", job.File.SourcePath)
	return job.ID, nil
}

// Job returns a snapshot of the tracked job.
func (q *ProcessorQueue) Job(id uuid.UUID) (entity.TriageJob, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	j, ok := q.jobs[id]
	if !ok {
		return entity.TriageJob{}, false
	}
	return *j, true
}

// Counts returns the number of tracked jobs per status.
func (q *ProcessorQueue) Counts() map[constants.JobStatus]int {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make(map[constants.JobStatus]int)
	for _, j := range q.jobs {
		out[j.Status]++
	}
	return out
}

// Shutdown stops accepting jobs and waits for queued ones to finish or ctx to end.
func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()
	q.sending.Wait()
	close(q.ch)

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("queue.shutdown.interrupted")
	case <-done:
		q.logger.Info("queue.shutdown.ok")
	}
}
