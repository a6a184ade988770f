package workpool

import (
	"context"
	"sync"
)

type Job func(ctx context.Context) error

// Run executes jobs with at most maxWorkers concurrently. The returned slice
// is aligned with jobs: errs[i] is the result of jobs[i]. Jobs not yet
// started when ctx is cancelled are skipped and report ctx.Err().
func Run(ctx context.Context, maxWorkers int, jobs []Job) []error {
	if maxWorkers < 1 {
		maxWorkers = 1
	}

	errs := make([]error, len(jobs))
	var wg sync.WaitGroup
	sem := make(chan struct{}, maxWorkers)

	for i, job := range jobs {
		acquired := false
		if ctx.Err() == nil {
			select {
			case sem <- struct{}{}:
				acquired = true
			case <-ctx.Done():
			}
		}
		if !acquired {
			for j := i; j < len(jobs); j++ {
				errs[j] = ctx.Err()
			}
			break
		}
		wg.Add(1)
		go func(i int, j Job) {
			defer wg.Done()
			defer func() { <-sem }()
			errs[i] = j(ctx)
		}(i, job)
	}
	wg.Wait()
	return errs
}

// FirstError returns the first non-nil error in errs.
func FirstError(errs []error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
