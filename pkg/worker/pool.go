/*
Package worker runs file handling tasks on a fixed set of goroutines with
optional rate limiting.

The traverser hands each admitted file to a consumer; consumers that do
real work per file (hashing, parsing) submit it here and settle the file's
acknowledgement from inside the task.

Basic usage:

	pool, err := worker.NewPool(worker.Config{
		Workers:   4,
		RateLimit: 100, // tasks/sec, 0 for unlimited
	})
	if err != nil {
		return err
	}

	if err := pool.Start(ctx); err != nil {
		return err
	}
	defer pool.Stop()

	pool.Submit(worker.Task{
		ID: 1,
		Execute: func(ctx context.Context) (worker.Result, error) {
			return worker.Result{ID: 1, Data: "processed"}, nil
		},
	})

	results, err := pool.Wait()
*/
package worker

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/time/rate"
)

var (
	// ErrNotStarted is returned when the pool is used before Start.
	ErrNotStarted = errors.New("pool not started")

	// ErrClosed is returned by Submit once Wait or Stop has been called.
	ErrClosed = errors.New("pool no longer accepts tasks")
)

// Task is a unit of work for the pool.
type Task struct {
	// ID identifies the task in results and errors.
	ID int

	// Execute performs the work. The context is cancelled on Stop.
	Execute func(context.Context) (Result, error)
}

// Result is the output of one successful task.
type Result struct {
	// ID matches the task that produced it.
	ID int

	// Data is the task payload.
	Data interface{}

	// order is the submission sequence number
	order int
}

// Config holds the pool configuration.
type Config struct {
	// Workers is the number of concurrent workers.
	Workers int

	// RateLimit caps task starts per second (0 for unlimited).
	RateLimit int
}

// Pool defines the worker pool surface.
type Pool interface {
	// Start launches the workers.
	Start(context.Context) error

	// Submit queues a task. It blocks while the queue is full.
	Submit(Task) error

	// Wait stops accepting tasks, waits for queued ones and returns the
	// results in submission order. Task failures are aggregated into the
	// returned error; results of successful tasks are still returned.
	Wait() ([]Result, error)

	// GetStats returns current statistics.
	GetStats() Stats

	// Status returns the current status.
	Status() Status

	// Stop cancels running tasks and shuts the workers down.
	Stop() error
}

type queuedTask struct {
	Task
	order int
}

type pool struct {
	config  Config
	tasks   chan queuedTask
	limiter *rate.Limiter
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc

	mu      sync.RWMutex
	started bool
	closed  bool
	stopped bool

	resultsMu sync.Mutex
	results   []Result
	errs      *multierror.Error

	startTime     time.Time
	nextOrder     atomic.Int64
	activeWorkers atomic.Int32
	completed     atomic.Int64
	failed        atomic.Int64
}

// NewPool creates a pool with the given configuration.
func NewPool(config Config) (Pool, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	var limiter *rate.Limiter
	if config.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), 1)
	}

	return &pool{
		config:  config,
		tasks:   make(chan queuedTask, config.Workers*2),
		limiter: limiter,
	}, nil
}

func validateConfig(config Config) error {
	if config.Workers <= 0 {
		return fmt.Errorf("number of workers must be positive")
	}
	if config.RateLimit < 0 {
		return fmt.Errorf("rate limit must be non-negative")
	}
	return nil
}

func (p *pool) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return fmt.Errorf("pool already started")
	}

	p.ctx, p.cancel = context.WithCancel(ctx)
	p.started = true
	p.startTime = time.Now()

	for i := 0; i < p.config.Workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	return nil
}

func (p *pool) Submit(task Task) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.started {
		return ErrNotStarted
	}
	if p.closed {
		return ErrClosed
	}

	order := int(p.nextOrder.Add(1) - 1)

	// The read lock keeps Wait and Stop from closing the queue under us.
	select {
	case <-p.ctx.Done():
		return fmt.Errorf("pool is shutting down: %w", p.ctx.Err())
	case p.tasks <- queuedTask{Task: task, order: order}:
		return nil
	}
}

func (p *pool) Wait() ([]Result, error) {
	if err := p.close(); err != nil {
		return nil, err
	}

	p.wg.Wait()

	p.resultsMu.Lock()
	defer p.resultsMu.Unlock()

	results := append([]Result(nil), p.results...)
	sort.Slice(results, func(i, j int) bool {
		return results[i].order < results[j].order
	})

	return results, p.errs.ErrorOrNil()
}

func (p *pool) Stop() error {
	p.mu.RLock()
	started, stopped, cancel := p.started, p.stopped, p.cancel
	p.mu.RUnlock()

	if !started || stopped {
		return nil
	}

	// Cancel first so a Submit blocked on a full queue releases its lock.
	cancel()

	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()

	if err := p.close(); err != nil {
		return err
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(500 * time.Millisecond):
		return fmt.Errorf("shutdown timed out")
	}
}

// close stops the queue from accepting tasks. Safe to call repeatedly.
func (p *pool) close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.started {
		return ErrNotStarted
	}
	if !p.closed {
		close(p.tasks)
		p.closed = true
	}
	return nil
}

func (p *pool) GetStats() Stats {
	return Stats{
		ActiveWorkers:  int(p.activeWorkers.Load()),
		QueuedTasks:    len(p.tasks),
		CompletedTasks: int(p.completed.Load()),
		FailedTasks:    int(p.failed.Load()),
		Status:         p.Status(),
		Uptime:         p.uptime(),
	}
}

func (p *pool) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()

	switch {
	case !p.started || p.stopped:
		return StatusStopped
	case p.closed && p.activeWorkers.Load() == 0 && len(p.tasks) == 0:
		return StatusStopped
	case p.closed:
		return StatusShuttingDown
	case p.activeWorkers.Load() > 0 || len(p.tasks) > 0:
		return StatusProcessing
	default:
		return StatusIdle
	}
}

func (p *pool) uptime() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.started {
		return 0
	}
	return time.Since(p.startTime)
}

func (p *pool) worker() {
	defer p.wg.Done()

	for task := range p.tasks {
		p.activeWorkers.Add(1)
		p.run(task)
		p.activeWorkers.Add(-1)
	}
}

func (p *pool) run(task queuedTask) {
	if p.limiter != nil {
		if err := p.limiter.Wait(p.ctx); err != nil {
			p.record(Result{}, fmt.Errorf("task %d: rate limiter: %w", task.ID, err))
			return
		}
	}

	result, err := task.Execute(p.ctx)
	result.order = task.order
	if err != nil {
		err = fmt.Errorf("task %d failed: %w", task.ID, err)
	}
	p.record(result, err)
}

func (p *pool) record(result Result, err error) {
	p.resultsMu.Lock()
	defer p.resultsMu.Unlock()

	if err != nil {
		p.failed.Add(1)
		p.errs = multierror.Append(p.errs, err)
		return
	}

	p.completed.Add(1)
	p.results = append(p.results, result)
}
