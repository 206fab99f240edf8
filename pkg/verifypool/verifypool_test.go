package verifypool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunExecutesAllJobs(t *testing.T) {
	pool := New(4)
	var ran int32
	jobs := make([]Job, 20)
	for i := range jobs {
		jobs[i] = func(ctx context.Context) error {
			atomic.AddInt32(&ran, 1)
			return nil
		}
	}
	results := pool.Run(context.Background(), jobs)
	if !AllOK(results) {
		t.Fatal("expected all jobs to succeed")
	}
	if ran != 20 {
		t.Fatalf("expected 20 jobs to run, got %d", ran)
	}
}

func TestRunBoundsConcurrency(t *testing.T) {
	pool := New(2)
	var inFlight, maxInFlight int32
	jobs := make([]Job, 10)
	for i := range jobs {
		jobs[i] = func(ctx context.Context) error {
			cur := atomic.AddInt32(&inFlight, 1)
			for {
				max := atomic.LoadInt32(&maxInFlight)
				if cur <= max || atomic.CompareAndSwapInt32(&maxInFlight, max, cur) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return nil
		}
	}
	pool.Run(context.Background(), jobs)
	if maxInFlight > 2 {
		t.Fatalf("expected at most 2 concurrent jobs, observed %d", maxInFlight)
	}
}

func TestRunPropagatesJobErrors(t *testing.T) {
	pool := New(2)
	boom := errors.New("boom")
	jobs := []Job{
		func(ctx context.Context) error { return nil },
		func(ctx context.Context) error { return boom },
	}
	results := pool.Run(context.Background(), jobs)
	if results[0] != nil {
		t.Fatal("first job should have succeeded")
	}
	if results[1] != boom {
		t.Fatalf("expected boom, got %v", results[1])
	}
	if AllOK(results) {
		t.Fatal("AllOK must be false when any job failed")
	}
}

func TestRunRespectsCancellation(t *testing.T) {
	pool := New(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	jobs := []Job{
		func(ctx context.Context) error { return nil },
	}
	results := pool.Run(ctx, jobs)
	if results[0] != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", results[0])
	}
}
