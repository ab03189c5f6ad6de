// Package dispatch runs notification delivery jobs on a small in-process
// worker pool so slow email, webhook or push endpoints never hold up a request.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/taskmaster/kanban/internal/infrastructure/logger"
	"github.com/taskmaster/kanban/internal/infrastructure/metrics"
	"github.com/taskmaster/kanban/internal/ports"
)

// Delivery outcomes reported to metrics.
const (
	OutcomeSent    = "sent"
	OutcomeFailed  = "failed"
	OutcomePanic   = "panic"
	OutcomeDropped = "dropped"
)

// Config holds dispatcher settings
type Config struct {
	// Workers is the number of goroutines draining the queue. Defaults to 1.
	Workers int
	// QueueSize bounds the number of pending jobs.
	QueueSize int
	// JobTimeout bounds a single delivery attempt.
	JobTimeout time.Duration
}

// Dispatcher is a bounded job queue drained by a fixed set of workers.
type Dispatcher struct {
	jobs    chan ports.DeliveryJob
	cfg     Config
	logger  *logger.Logger
	metrics *metrics.Metrics

	mu     sync.RWMutex
	closed bool

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a dispatcher and starts its workers.
func New(cfg Config, appLogger *logger.Logger, m *metrics.Metrics) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 5 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	d := &Dispatcher{
		jobs:    make(chan ports.DeliveryJob, cfg.QueueSize),
		cfg:     cfg,
		logger:  appLogger.WithComponent("dispatcher"),
		metrics: m,
		ctx:     ctx,
		cancel:  cancel,
	}

	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}

	d.logger.Infow("Dispatcher started", "workers", cfg.Workers, "queue_size", cfg.QueueSize)
	return d
}

// Dispatch queues a job without blocking.
func (d *Dispatcher) Dispatch(job ports.DeliveryJob) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.metrics.ObserveDelivery(job.Channel, OutcomeDropped)
		return ports.ErrQueueClosed
	}

	select {
	case d.jobs <- job:
		d.metrics.SetQueueDepth(len(d.jobs))
		return nil
	default:
		d.metrics.ObserveDelivery(job.Channel, OutcomeDropped)
		return fmt.Errorf("%w: capacity %d reached", ports.ErrQueueFull, cap(d.jobs))
	}
}

// Shutdown stops accepting jobs and waits for the queued ones to finish. If
// ctx expires first, in-flight jobs are cancelled and the rest are dropped.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.jobs)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		d.logger.Info("Dispatcher drained")
		return nil
	case <-ctx.Done():
		d.cancel()
		<-done
		return fmt.Errorf("dispatcher shutdown: %w", ctx.Err())
	}
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()

	for job := range d.jobs {
		d.metrics.SetQueueDepth(len(d.jobs))
		if d.ctx.Err() != nil {
			d.metrics.ObserveDelivery(job.Channel, OutcomeDropped)
			continue
		}
		d.run(id, job)
	}
}

func (d *Dispatcher) run(workerID int, job ports.DeliveryJob) {
	ctx, cancel := context.WithTimeout(d.ctx, d.cfg.JobTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			d.metrics.ObserveDelivery(job.Channel, OutcomePanic)
			d.logger.Errorw("Delivery job panicked",
				"worker", workerID,
				"channel", job.Channel,
				"job", job.Description,
				"panic", r,
			)
		}
	}()

	err := job.Run(ctx)
	d.logger.LogDelivery(job.Channel, job.Description, err)
	if err != nil {
		d.metrics.ObserveDelivery(job.Channel, OutcomeFailed)
		return
	}
	d.metrics.ObserveDelivery(job.Channel, OutcomeSent)
}
