// Package verifypool bounds how many transaction verifications (ring
// signature, range proof, balance equation) run concurrently, so a burst of
// large transactions can't spin up unbounded goroutines and starve the rest
// of the node.
package verifypool

import (
	"context"
	"runtime"
	"sync"
)

// DefaultWorkers matches the node's default concurrency budget: twice the
// CPU count, enough to keep the pool busy across I/O stalls inside a single
// verification (decoy lookups, UTXO reads) without oversubscribing CPU-bound
// curve arithmetic.
func DefaultWorkers() int {
	return 2 * runtime.NumCPU()
}

// Pool runs verification jobs with bounded concurrency via a semaphore
// channel, the same pattern the RPC batch handler this is modeled on uses
// for fan-out, but gated instead of unbounded.
type Pool struct {
	sem chan struct{}
}

// New creates a pool that runs at most workers jobs concurrently. workers
// <= 0 falls back to DefaultWorkers.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	return &Pool{sem: make(chan struct{}, workers)}
}

// Job is a single verification unit: it returns an error (nil for valid) or
// reports ctx cancellation.
type Job func(ctx context.Context) error

// Run executes jobs with bounded concurrency and returns their errors in the
// same order, short-circuiting further dispatch (not already-running jobs)
// once ctx is cancelled.
func (p *Pool) Run(ctx context.Context, jobs []Job) []error {
	results := make([]error, len(jobs))
	var wg sync.WaitGroup

	for i, job := range jobs {
		select {
		case <-ctx.Done():
			results[i] = ctx.Err()
			continue
		default:
		}

		wg.Add(1)
		p.sem <- struct{}{}
		go func(idx int, j Job) {
			defer wg.Done()
			defer func() { <-p.sem }()
			results[idx] = j(ctx)
		}(i, job)
	}
	wg.Wait()
	return results
}

// AllOK reports whether every result in results is nil.
func AllOK(results []error) bool {
	for _, err := range results {
		if err != nil {
			return false
		}
	}
	return true
}
