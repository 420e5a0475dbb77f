// Package worker runs fire-and-forget background tasks on a fixed pool of
// goroutines fed by a bounded queue.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sharonlnl728/content-audit-platform/internal/config"
	"github.com/sharonlnl728/content-audit-platform/internal/logging"
	"github.com/sharonlnl728/content-audit-platform/internal/metrics"
)

// Task is a unit of background work. Its error is logged, never retried.
type Task func(ctx context.Context) error

// Submitter is what request-path code depends on.
type Submitter interface {
	Submit(name string, task Task) bool
}

type job struct {
	name string
	run  Task
}

// Pool is a bounded task queue drained by a fixed number of workers.
type Pool struct {
	queue          chan job
	enqueueTimeout time.Duration
	log            *logging.Logger
	metrics        *metrics.AuditMetrics

	// mu guards closed and the queue channel's close.
	mu     sync.RWMutex
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ Submitter = (*Pool)(nil)

// NewPool starts cfg.Workers goroutines. Non-positive sizes fall back to one
// worker and a queue of one.
func NewPool(cfg config.WorkerConfig, log *logging.Logger, m *metrics.AuditMetrics) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	size := cfg.QueueSize
	if size <= 0 {
		size = 1
	}
	if log == nil {
		log = logging.Nop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		queue:          make(chan job, size),
		enqueueTimeout: time.Duration(cfg.EnqueueTimeoutMs) * time.Millisecond,
		log:            log.With("worker"),
		metrics:        m,
		ctx:            ctx,
		cancel:         cancel,
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.loop()
	}
	return p
}

// Submit queues task. When the queue is full it waits up to the enqueue
// timeout and then drops the task. It reports whether the task was accepted.
func (p *Pool) Submit(name string, task Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.drop(name, "pool_closed")
		return false
	}

	j := job{name: name, run: task}
	select {
	case p.queue <- j:
		p.metrics.SetQueueDepth(len(p.queue))
		return true
	default:
	}

	if p.enqueueTimeout <= 0 {
		p.drop(name, "queue_full")
		return false
	}

	timer := time.NewTimer(p.enqueueTimeout)
	defer timer.Stop()
	select {
	case p.queue <- j:
		p.metrics.SetQueueDepth(len(p.queue))
		return true
	case <-timer.C:
		p.drop(name, "queue_full")
		return false
	}
}

// Shutdown stops intake and waits for queued tasks to finish. If ctx expires
// first, running tasks see their context cancelled and ctx.Err() is returned.
func (p *Pool) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		return fmt.Errorf("worker shutdown: %w", ctx.Err())
	}
}

func (p *Pool) loop() {
	defer p.wg.Done()
	for j := range p.queue {
		p.metrics.SetQueueDepth(len(p.queue))
		p.run(j)
	}
}

func (p *Pool) run(j job) {
	start := time.Now()
	err := p.safeRun(j)
	fields := map[string]any{
		"task":       j.name,
		"latency_ms": float64(time.Since(start).Microseconds()) / 1000,
	}
	if err != nil {
		p.metrics.PersistTask("failed")
		p.log.Error("task_failed", err, fields)
		return
	}
	p.metrics.PersistTask("ok")
}

func (p *Pool) safeRun(j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	if j.run == nil {
		return errors.New("nil task")
	}
	return j.run(p.ctx)
}

func (p *Pool) drop(name, reason string) {
	p.metrics.PersistTask("dropped")
	p.log.Warn("task_dropped", map[string]any{"task": name, "reason": reason})
}
