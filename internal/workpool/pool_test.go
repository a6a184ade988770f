package workpool_test

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/signalnine/studyscope/internal/workpool"
)

func TestPool(t *testing.T) {
	var count atomic.Int32
	jobs := make([]workpool.Job, 10)
	for i := range jobs {
		jobs[i] = func(ctx context.Context) error {
			count.Add(1)
			return nil
		}
	}
	errs := workpool.Run(context.Background(), 3, jobs)
	if err := workpool.FirstError(errs); err != nil {
		t.Errorf("expected no errors, got %v", err)
	}
	if count.Load() != 10 {
		t.Errorf("expected 10 jobs, got %d", count.Load())
	}
}

func TestPoolErrorsAlignWithJobs(t *testing.T) {
	jobs := []workpool.Job{
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error { return fmt.Errorf("fail") },
		func(ctx context.Context) error { return nil },
	}
	errs := workpool.Run(context.Background(), 2, jobs)
	if len(errs) != 3 {
		t.Fatalf("expected 3 results, got %d", len(errs))
	}
	if errs[0] != nil || errs[2] != nil {
		t.Errorf("unexpected errors: %v", errs)
	}
	if errs[1] == nil {
		t.Error("expected error for job 1")
	}
}

func TestPoolRespectsLimit(t *testing.T) {
	var running, peak atomic.Int32
	jobs := make([]workpool.Job, 8)
	for i := range jobs {
		jobs[i] = func(ctx context.Context) error {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
			return nil
		}
	}
	workpool.Run(context.Background(), 2, jobs)
	if peak.Load() > 2 {
		t.Errorf("peak concurrency %d exceeds limit 2", peak.Load())
	}
}

func TestPoolCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	jobs := []workpool.Job{
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error { return nil },
	}
	errs := workpool.Run(ctx, 1, jobs)
	for i, err := range errs {
		if err != context.Canceled {
			t.Errorf("job %d: got %v, want context.Canceled", i, err)
		}
	}
}
