package analyzer

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"

	apperrors "go-creative-analyzer/internal/errors"
	"go-creative-analyzer/internal/logger"
	"go-creative-analyzer/pkg/models"
)

// ErrPoolClosed is returned when submitting to a closed pool
var ErrPoolClosed = apperrors.NewInternalError("worker pool is closed", nil)

// WorkerPool runs analysis jobs on a fixed set of goroutines, keeping slow
// inference off the request handling goroutines.
type WorkerPool struct {
	workers  int
	jobQueue chan func()
	wg       sync.WaitGroup
	once     sync.Once

	mu     sync.RWMutex
	closed bool

	totalJobs     atomic.Int64
	completedJobs atomic.Int64
	activeWorkers atomic.Int64
}

// PoolStats is a snapshot of pool counters
type PoolStats struct {
	Workers       int   `json:"workers"`
	TotalJobs     int64 `json:"total_jobs"`
	CompletedJobs int64 `json:"completed_jobs"`
	ActiveWorkers int64 `json:"active_workers"`
	QueuedJobs    int   `json:"queued_jobs"`
}

// NewWorkerPool creates a new worker pool with the specified number of workers
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	return &WorkerPool{
		workers:  workers,
		jobQueue: make(chan func(), workers*2),
	}
}

// Start initializes and starts all workers in the pool
func (wp *WorkerPool) Start() {
	wp.once.Do(func() {
		for i := 0; i < wp.workers; i++ {
			go wp.worker()
		}
	})
}

// worker processes jobs from the job queue
func (wp *WorkerPool) worker() {
	for job := range wp.jobQueue {
		wp.run(job)
	}
}

func (wp *WorkerPool) run(job func()) {
	wp.activeWorkers.Add(1)
	defer func() {
		if r := recover(); r != nil {
			logger.WithField("panic", r).
				WithField("stack", string(debug.Stack())).
				Error("Worker job panicked")
		}
		wp.activeWorkers.Add(-1)
		wp.completedJobs.Add(1)
		wp.wg.Done()
	}()
	job()
}

// Submit adds a job to the worker pool queue. It reports false when the
// pool is closed.
func (wp *WorkerPool) Submit(job func()) bool {
	return wp.SubmitContext(context.Background(), job) == nil
}

// SubmitContext queues job, giving up when ctx ends before a queue slot frees
func (wp *WorkerPool) SubmitContext(ctx context.Context, job func()) error {
	wp.mu.RLock()
	defer wp.mu.RUnlock()

	if wp.closed {
		return ErrPoolClosed
	}

	wp.wg.Add(1)
	select {
	case wp.jobQueue <- job:
		wp.totalJobs.Add(1)
		return nil
	case <-ctx.Done():
		wp.wg.Done()
		return ctx.Err()
	}
}

// Wait waits for all submitted jobs to complete
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// Close stops accepting jobs and lets queued ones drain
func (wp *WorkerPool) Close() {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if wp.closed {
		return
	}
	wp.closed = true
	close(wp.jobQueue)
}

// GetStats returns a snapshot of the pool counters
func (wp *WorkerPool) GetStats() PoolStats {
	return PoolStats{
		Workers:       wp.workers,
		TotalJobs:     wp.totalJobs.Load(),
		CompletedJobs: wp.completedJobs.Load(),
		ActiveWorkers: wp.activeWorkers.Load(),
		QueuedJobs:    len(wp.jobQueue),
	}
}

// Future is the pending result of a submitted analysis
type Future struct {
	done   chan struct{}
	result *models.Analysis
	err    error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

func (f *Future) complete(result *models.Analysis, err error) {
	f.result, f.err = result, err
	close(f.done)
}

// Done is closed once the result is available
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Await blocks until the analysis finishes or ctx ends
func (f *Future) Await(ctx context.Context) (*models.Analysis, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// SubmitAnalysis runs fn on the pool and returns a Future of its result.
// A panic in fn resolves the Future with an internal error.
func (wp *WorkerPool) SubmitAnalysis(ctx context.Context, fn func(context.Context) (*models.Analysis, error)) *Future {
	f := newFuture()
	err := wp.SubmitContext(ctx, func() {
		var (
			result *models.Analysis
			err    error
		)
		defer func() {
			if r := recover(); r != nil {
				err = apperrors.NewInternalError(fmt.Sprintf("analysis panicked: %v", r), nil)
				result = nil
			}
			f.complete(result, err)
		}()
		result, err = fn(ctx)
	})
	if err != nil {
		f.complete(nil, err)
	}
	return f
}
