package analyzer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "go-creative-analyzer/internal/errors"
	"go-creative-analyzer/pkg/models"
)

func TestNewWorkerPool_ZeroWorkers(t *testing.T) {
	pool := NewWorkerPool(0)
	if pool == nil {
		t.Fatal("Expected non-nil WorkerPool")
	}
	if pool.GetStats().Workers <= 0 {
		t.Error("Expected worker count to default to NumCPU")
	}
}

func TestWorkerPool_Submit(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Start()
	defer pool.Close()

	var counter int
	var mu sync.Mutex

	for i := 0; i < 5; i++ {
		pool.Submit(func() {
			mu.Lock()
			counter++
			mu.Unlock()
		})
	}

	pool.Wait()

	if counter != 5 {
		t.Errorf("Expected counter to be 5, got %d", counter)
	}
}

func TestWorkerPool_StartOnce(t *testing.T) {
	pool := NewWorkerPool(2)

	// Start should be idempotent
	pool.Start()
	pool.Start()
	defer pool.Close()

	var executed bool
	pool.Submit(func() {
		executed = true
	})

	pool.Wait()

	if !executed {
		t.Error("Expected job to be executed")
	}
}

func TestWorkerPool_CloseAndResubmit(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Start()

	var executed bool
	pool.Submit(func() {
		executed = true
	})

	pool.Wait()
	pool.Close()
	pool.Close()

	if !executed {
		t.Error("Expected job to be executed before close")
	}
	if pool.Submit(func() {}) {
		t.Error("Expected submit after close to be rejected")
	}
}

func TestWorkerPool_AtomicCounters(t *testing.T) {
	pool := NewWorkerPool(4)
	pool.Start()
	defer pool.Close()

	const numJobs = 5
	for i := 0; i < numJobs; i++ {
		pool.Submit(func() {
			for j := 0; j < 1000; j++ {
				_ = j * j
			}
		})
	}

	pool.Wait()

	stats := pool.GetStats()
	if stats.TotalJobs != numJobs {
		t.Errorf("Expected %d total jobs, got %d", numJobs, stats.TotalJobs)
	}
	if stats.CompletedJobs != numJobs {
		t.Errorf("Expected %d completed jobs, got %d", numJobs, stats.CompletedJobs)
	}
	if stats.ActiveWorkers != 0 {
		t.Errorf("Expected 0 active workers after completion, got %d", stats.ActiveWorkers)
	}
}

func TestWorkerPool_PanickingJob(t *testing.T) {
	pool := NewWorkerPool(1)
	pool.Start()
	defer pool.Close()

	pool.Submit(func() { panic("bad input") })

	var executed bool
	pool.Submit(func() { executed = true })
	pool.Wait()

	if !executed {
		t.Error("Expected worker to survive a panicking job")
	}
}

func TestWorkerPool_SubmitContextCancelled(t *testing.T) {
	// Not started, so the queue fills up
	pool := NewWorkerPool(1)
	for i := 0; i < 2; i++ {
		if err := pool.SubmitContext(context.Background(), func() {}); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := pool.SubmitContext(ctx, func() {}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}

	pool.Start()
	pool.Wait()
	pool.Close()
}

func TestFuture_AwaitResult(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Start()
	defer pool.Close()

	f := pool.SubmitAnalysis(context.Background(), func(context.Context) (*models.Analysis, error) {
		return &models.Analysis{Width: 7}, nil
	})

	a, err := f.Await(context.Background())
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if a.Width != 7 {
		t.Errorf("Expected width 7, got %d", a.Width)
	}
	select {
	case <-f.Done():
	default:
		t.Error("Expected Done to be closed")
	}
}

func TestFuture_PanicBecomesError(t *testing.T) {
	pool := NewWorkerPool(1)
	pool.Start()
	defer pool.Close()

	f := pool.SubmitAnalysis(context.Background(), func(context.Context) (*models.Analysis, error) {
		panic("corrupt raster")
	})

	_, err := f.Await(context.Background())
	if !apperrors.IsType(err, apperrors.ErrorTypeInternal) {
		t.Errorf("Expected internal error, got %v", err)
	}
}

func TestFuture_AwaitCancelled(t *testing.T) {
	pool := NewWorkerPool(1)
	pool.Start()
	defer pool.Close()

	release := make(chan struct{})
	f := pool.SubmitAnalysis(context.Background(), func(context.Context) (*models.Analysis, error) {
		<-release
		return &models.Analysis{}, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := f.Await(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
	close(release)
}

func TestFuture_ClosedPool(t *testing.T) {
	pool := NewWorkerPool(1)
	pool.Close()

	f := pool.SubmitAnalysis(context.Background(), func(context.Context) (*models.Analysis, error) {
		return &models.Analysis{}, nil
	})
	if _, err := f.Await(context.Background()); err != ErrPoolClosed {
		t.Errorf("Expected ErrPoolClosed, got %v", err)
	}
}
