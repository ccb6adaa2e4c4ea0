package async

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/mediscan/constants"
	"github.com/joseph-ayodele/mediscan/internal/common"
	"github.com/joseph-ayodele/mediscan/internal/entity"
	"github.com/joseph-ayodele/mediscan/internal/extract"
	"github.com/joseph-ayodele/mediscan/internal/pipeline"
	"github.com/joseph-ayodele/mediscan/internal/repository"
)

// Analyzer is satisfied by *pipeline.Processor.
type Analyzer interface {
	Analyze(ctx context.Context, doc extract.Document) (*pipeline.Analysis, error)
}

// AnalysisQueue runs Analyze and appends the record for each job on a
// fixed pool of workers.
type AnalysisQueue struct {
	analyzer Analyzer
	store    repository.RecordStore
	logger   *slog.Logger
	workers  int
	timeout  time.Duration
	onDone   func(job entity.AnalysisJob)

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	// closeMu guards closed and the channel send; mu guards jobs.
	closeMu sync.RWMutex
	closed  bool
	mu      sync.Mutex
	jobs    map[uuid.UUID]*entity.AnalysisJob
}

type Option func(*AnalysisQueue)

func WithWorkers(n int) Option {
	return func(q *AnalysisQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *AnalysisQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *AnalysisQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

// WithOnDone registers a callback invoked with every finished job.
func WithOnDone(fn func(job entity.AnalysisJob)) Option {
	return func(q *AnalysisQueue) { q.onDone = fn }
}

func NewAnalysisQueue(analyzer Analyzer, store repository.RecordStore, logger *slog.Logger, opts ...Option) *AnalysisQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &AnalysisQueue{
		analyzer: analyzer,
		store:    store,
		logger:   logger,
		workers:  4,
		timeout:  3 * time.Minute,
		ch:       make(chan Job, 256),
		jobs:     make(map[uuid.UUID]*entity.AnalysisJob),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *AnalysisQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("queue.worker.started", "worker_id", workerID)
				for job := range q.ch {
					q.process(workerID, job)
				}
				q.logger.Info("queue.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *AnalysisQueue) process(workerID int, job Job) {
	q.update(job.ID, func(j *entity.AnalysisJob) {
		now := time.Now().UTC()
		j.Status = constants.JobStatusRunning
		j.StartedAt = &now
	})

	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()
	if job.TraceID != "" {
		ctx = common.WithRequestID(ctx, job.TraceID)
	}

	a, err := q.analyzer.Analyze(ctx, extract.Document{Name: filepath.Base(job.Path), Path: job.Path})
	if err == nil {
		err = q.store.Append(ctx, a.Record)
	}

	final := q.update(job.ID, func(j *entity.AnalysisJob) {
		now := time.Now().UTC()
		j.FinishedAt = &now
		if err != nil {
			j.Status = constants.JobStatusFailed
			j.ErrorMessage = err.Error()
			return
		}
		j.Status = constants.JobStatusSucceeded
		j.Medicines = len(a.MedicineInfo)
		j.RecordSource = a.RecordSource
	})

	if err != nil {
		q.logger.Error("queue.job.failed", "worker_id", workerID, "job_id", job.ID, "path", job.Path, "err", err)
	} else {
		q.logger.Info("queue.job.ok", "worker_id", workerID, "job_id", job.ID, "path", job.Path, "medicines", final.Medicines)
	}
	if q.onDone != nil {
		q.onDone(final)
	}
}

// update applies fn to the tracked job under the lock and returns a copy.
func (q *AnalysisQueue) update(id uuid.UUID, fn func(j *entity.AnalysisJob)) entity.AnalysisJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	j := q.jobs[id]
	fn(j)
	return *j
}

// Enqueue registers the job as QUEUED and hands it to a worker, blocking
// when the buffer is full.
func (q *AnalysisQueue) Enqueue(ctx context.Context, job Job) (uuid.UUID, error) {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now().UTC()
	}

	q.closeMu.RLock()
	defer q.closeMu.RUnlock()
	if q.closed {
		q.logger.Warn("queue.enqueue.closed", "path", job.Path)
		return uuid.Nil, ErrQueueClosed
	}
	q.mu.Lock()
	q.jobs[job.ID] = &entity.AnalysisJob{
		ID:       job.ID,
		Path:     job.Path,
		Status:   constants.JobStatusQueued,
		QueuedAt: job.SubmittedAt,
	}
	q.mu.Unlock()

	select {
	case q.ch <- job:
		q.logger.Info("queue.enqueue.ok", "job_id", job.ID, "path", job.Path)
	default:
		q.logger.Warn("queue.enqueue.backpressure", "job_id", job.ID, "path", job.Path)
		select {
		case q.ch <- job:
		case <-ctx.Done():
			q.mu.Lock()
			delete(q.jobs, job.ID)
			q.mu.Unlock()
			return uuid.Nil, ctx.Err()
		}
	}
	return job.ID, nil
}

// Status returns a snapshot of a job.
func (q *AnalysisQueue) Status(id uuid.UUID) (entity.AnalysisJob, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	j, ok := q.jobs[id]
	if !ok {
		return entity.AnalysisJob{}, false
	}
	return *j, true
}

// Jobs returns snapshots of every tracked job.
func (q *AnalysisQueue) Jobs() []entity.AnalysisJob {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]entity.AnalysisJob, 0, len(q.jobs))
	for _, j := range q.jobs {
		out = append(out, *j)
	}
	return out
}

// Shutdown stops accepting jobs and waits for the queue to drain.
func (q *AnalysisQueue) Shutdown(ctx context.Context) {
	q.closeMu.Lock()
	if q.closed {
		q.closeMu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.closeMu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("queue.shutdown.interrupted")
	case <-done:
		q.logger.Info("queue.shutdown.drained")
	}
}
