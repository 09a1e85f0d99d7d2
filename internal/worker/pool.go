// Package worker runs fire-and-forget instrument reads off the control
// loop. Results come back on a buffered channel that the loop drains
// without blocking, so the loop stays the only writer of telemetry state.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

var (
	// ErrPoolClosed is returned by Submit after Stop.
	ErrPoolClosed = errors.New("worker pool is closed")
	// ErrPoolNotStarted is returned by Submit before Start.
	ErrPoolNotStarted = errors.New("worker pool not started")
	// ErrPoolBusy is returned by Submit when the task queue is full.
	ErrPoolBusy = errors.New("worker pool queue full")
)

// Task is one unit of background work. Fn has no deadline; a hung task
// simply never reports.
type Task struct {
	Name string
	Fn   func() (float64, error)
}

// Result is what a finished Task produced.
type Result struct {
	Name  string
	Value float64
	Err   error
	Took  time.Duration
}

// Pool is a fixed set of goroutines fed from a bounded queue.
type Pool struct {
	taskCh   chan Task
	resultCh chan Result
	done     chan struct{}
	wg       sync.WaitGroup

	mu      sync.Mutex
	started bool
	stopped bool
	workers int
}

// NewPool creates a pool whose task and result queues hold queueSize items.
func NewPool(queueSize int) *Pool {
	if queueSize <= 0 {
		queueSize = 1
	}
	return &Pool{
		taskCh:   make(chan Task, queueSize),
		resultCh: make(chan Result, queueSize),
		done:     make(chan struct{}),
	}
}

// Start launches n workers.
func (p *Pool) Start(n int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return errors.New("worker pool already started")
	}
	if n <= 0 {
		n = 1
	}
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			p.run(id)
		}(i)
	}
	p.workers = n
	p.started = true
	return nil
}

func (p *Pool) run(id int) {
	for task := range p.taskCh {
		r := execute(task)
		select {
		case p.resultCh <- r:
		case <-p.done:
			log.Printf("worker %d: dropping result of %s after stop", id, r.Name)
		}
	}
}

func execute(task Task) (r Result) {
	start := time.Now()
	r.Name = task.Name
	defer func() {
		if v := recover(); v != nil {
			r.Err = fmt.Errorf("task %s panicked: %v", task.Name, v)
		}
		r.Took = time.Since(start)
	}()
	r.Value, r.Err = task.Fn()
	return r
}

// Submit queues a task without blocking. The send happens under the lock
// so it cannot race with Stop closing the queue.
func (p *Pool) Submit(task Task) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.started {
		return ErrPoolNotStarted
	}
	if p.stopped {
		return ErrPoolClosed
	}
	select {
	case p.taskCh <- task:
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrPoolBusy, task.Name)
	}
}

// Poll returns every result that is ready, without blocking.
func (p *Pool) Poll() []Result {
	var out []Result
	for {
		select {
		case r := <-p.resultCh:
			out = append(out, r)
		default:
			return out
		}
	}
}

// Stop closes the queue and waits for running tasks until ctx is done.
// Results finished after Stop are discarded.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.started || p.stopped {
		p.stopped = true
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	close(p.taskCh)
	close(p.done)
	p.mu.Unlock()

	finished := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(finished)
	}()
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("worker pool stop: %w", ctx.Err())
	}
}

// Workers returns how many goroutines were started.
func (p *Pool) Workers() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.workers
}
