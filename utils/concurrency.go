package utils

import (
	"context"
	"sync"
	"time"
)

// WorkerPool runs jobs on at most maxWorkers goroutines and spaces job starts
// at least interval apart.
type WorkerPool struct {
	sem      chan struct{}
	interval time.Duration
	wg       sync.WaitGroup

	mu   sync.Mutex
	next time.Time
}

// NewWorkerPool creates a WorkerPool. maxWorkers below 1 is treated as 1.
func NewWorkerPool(maxWorkers int, interval time.Duration) *WorkerPool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &WorkerPool{
		sem:      make(chan struct{}, maxWorkers),
		interval: interval,
	}
}

// Submit blocks until a worker slot is free, then runs job in the background.
// It returns ctx.Err() without running job if ctx ends first.
func (wp *WorkerPool) Submit(ctx context.Context, job func()) error {
	select {
	case wp.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	wp.wg.Add(1)
	go func() {
		defer wp.wg.Done()
		defer func() { <-wp.sem }()

		wp.pace()
		job()
	}()
	return nil
}

// Wait blocks until all submitted jobs have completed.
func (wp *WorkerPool) Wait() {
	wp.wg.Wait()
}

// pace reserves the next start slot and sleeps until it arrives.
func (wp *WorkerPool) pace() {
	if wp.interval <= 0 {
		return
	}

	wp.mu.Lock()
	now := time.Now()
	start := wp.next
	if start.Before(now) {
		start = now
	}
	wp.next = start.Add(wp.interval)
	wp.mu.Unlock()

	time.Sleep(time.Until(start))
}
