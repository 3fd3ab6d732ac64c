package batch

import (
	"context"
	"os"
	"sync"
	"time"

	"log/slog"

	"github.com/jarnaud/docfields/constants"
	"github.com/jarnaud/docfields/internal/engine"
	"github.com/jarnaud/docfields/internal/fields"
)

type Job struct {
	Path   string
	Module constants.Module
}

// FileResult pairs one input file with its extraction outcome. ReadErr is
// only set when the file could not be read at all; the engine itself never
// fails.
type FileResult struct {
	Path    string
	ReadErr string
	Result  fields.ExtractionResult
}

type Queue struct {
	eng     *engine.Engine
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	mu      sync.Mutex
	closed  bool
	results []FileResult
}

type Option func(*Queue)

func WithWorkers(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *Queue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewQueue(eng *engine.Engine, logger *slog.Logger, opts ...Option) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &Queue{
		eng:     eng,
		logger:  logger,
		workers: 4,
		timeout: 3 * time.Minute,
		ch:      make(chan Job, 256),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *Queue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("worker started", "worker_id", workerID)

				for job := range q.ch {
					ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
					q.process(ctx, job, workerID)
					cancel()
				}

				q.logger.Info("worker stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *Queue) process(ctx context.Context, job Job, workerID int) {
	data, err := os.ReadFile(job.Path)
	if err != nil {
		q.logger.Error("read failed", "worker_id", workerID, "path", job.Path, "error", err)
		q.record(FileResult{Path: job.Path, ReadErr: err.Error()})
		return
	}
	res := q.eng.Extract(ctx, engine.Request{Bytes: data, Filename: job.Path, Module: job.Module})
	q.logger.Info("processed file", "worker_id", workerID, "path", job.Path,
		"confidence", res.Confidence, "totals_ok", res.TotalsOK)
	q.record(FileResult{Path: job.Path, Result: res})
}

func (q *Queue) record(r FileResult) {
	q.mu.Lock()
	q.results = append(q.results, r)
	q.mu.Unlock()
}

// Enqueue submits a job. It must not be called concurrently with Shutdown.
func (q *Queue) Enqueue(_ context.Context, job Job) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		q.logger.Warn("cannot enqueue: queue is shutting down", "path", job.Path)
		return nil
	}
	q.mu.Unlock()
	select {
	case q.ch <- job:
		q.logger.Info("queued file for processing", "path", job.Path)
	default:
		q.logger.Warn("queue full, applying backpressure", "path", job.Path)
		q.ch <- job
	}
	return nil
}

// Shutdown closes intake and waits for the workers to drain, bounded by ctx.
func (q *Queue) Shutdown(ctx context.Context) {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("shutdown interrupted by context")
	case <-done:
		q.logger.Info("queue drained, shutdown complete")
	}
}

// Results returns everything processed so far. Call after Shutdown for the
// complete run.
func (q *Queue) Results() []FileResult {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]FileResult, len(q.results))
	copy(out, q.results)
	return out
}
