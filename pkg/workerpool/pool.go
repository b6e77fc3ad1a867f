// Package workerpool runs tasks on a fixed set of worker goroutines. The
// worker count is a hard cap on how many tasks execute at once: tasks are
// never run on overflow goroutines, and Submit blocks while every worker is
// busy.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("workerpool: pool closed")

// Task is a unit of work. It receives the context passed to Submit.
type Task func(ctx context.Context)

type job struct {
	ctx  context.Context
	task Task
}

// Pool manages a fixed set of workers.
type Pool struct {
	workers int

	// Unbuffered, so a successful send means a worker has taken the job.
	jobs chan job

	active atomic.Int32
	peak   atomic.Int32
	panics atomic.Int64

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// New starts a pool with the given number of workers. Values below 1 are
// raised to 1.
func New(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{
		workers: workers,
		jobs:    make(chan job),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

// Submit hands task to an idle worker, blocking until one is free.
// It returns ctx.Err() if ctx is done first and ErrClosed after Close.
func (p *Pool) Submit(ctx context.Context, task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case p.jobs <- job{ctx: ctx, task: task}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for j := range p.jobs {
		p.run(j)
	}
}

func (p *Pool) run(j job) {
	n := p.active.Add(1)
	for {
		peak := p.peak.Load()
		if n <= peak || p.peak.CompareAndSwap(peak, n) {
			break
		}
	}
	defer func() {
		p.active.Add(-1)
		if r := recover(); r != nil {
			p.panics.Add(1)
		}
	}()
	if j.task != nil {
		j.task(j.ctx)
	}
}

// Active returns the number of tasks executing right now.
func (p *Pool) Active() int { return int(p.active.Load()) }

// Peak returns the highest number of tasks that executed at once.
func (p *Pool) Peak() int { return int(p.peak.Load()) }

// Panics returns how many tasks panicked. A panicking task does not take its
// worker down.
func (p *Pool) Panics() int64 { return p.panics.Load() }

// Cap returns the worker count.
func (p *Pool) Cap() int { return p.workers }

// Close stops accepting tasks and waits for running ones to finish.
// It is safe to call more than once.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}

// IsClosed reports whether Close has been called.
func (p *Pool) IsClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

// Each runs fn for every item on p and waits for all submitted tasks to
// finish. Items that could not be submitted because ctx ended or the pool
// closed are skipped; the first such error is returned.
func Each[T any](ctx context.Context, p *Pool, items []T, fn func(ctx context.Context, item T)) error {
	var wg sync.WaitGroup
	var submitErr error
	for _, item := range items {
		item := item
		wg.Add(1)
		err := p.Submit(ctx, func(ctx context.Context) {
			defer wg.Done()
			fn(ctx, item)
		})
		if err != nil {
			wg.Done()
			submitErr = fmt.Errorf("workerpool: submit: %w", err)
			break
		}
	}
	wg.Wait()
	return submitErr
}
