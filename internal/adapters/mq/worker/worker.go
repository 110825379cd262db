// Package worker drains queued decision events into the decision log.
package worker

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/valuematrix/internal/domain/model"
	"github.com/okian/valuematrix/pkg/logger"
	"github.com/okian/valuematrix/pkg/metrics"
)

// Writer persists decision events.
type Writer interface {
	Append(ctx context.Context, events ...model.DecisionEvent) error
}

// Source is where workers read events from.
type Source interface {
	Dequeue() <-chan model.DecisionEvent
}

// Worker writes events from a Source until it is closed.
type Worker struct {
	source  Source
	writer  Writer
	name    string
	retries int
	backoff time.Duration
	logger  logger.Logger

	processed atomic.Int64
	failed    atomic.Int64
	done      chan struct{}
}

// NewWorker creates a worker.
func NewWorker(source Source, writer Writer, opts ...Option) *Worker {
	w := &Worker{
		source:  source,
		writer:  writer,
		name:    "worker",
		retries: defaultRetries,
		backoff: defaultBackoff,
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.Get().Named(w.name)
	}
	return w
}

// Run processes events until the source is closed and drained or ctx is done.
func (w *Worker) Run(ctx context.Context) {
	defer close(w.done)
	events := w.source.Dequeue()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			metrics.RecordQueueDequeue()
			if err := w.process(ctx, ev); err != nil {
				w.failed.Add(1)
				w.logger.Error(ctx, "decision not persisted",
					logger.String("session_id", ev.SessionID),
					logger.Int("sequence", ev.Decision.Sequence),
					logger.Error(err),
				)
				continue
			}
			w.processed.Add(1)
		}
	}
}

// Done is closed when Run returns.
func (w *Worker) Done() <-chan struct{} { return w.done }

func (w *Worker) process(ctx context.Context, ev model.DecisionEvent) error { //nolint:gocritic // hugeParam: read from a value channel
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	var err error
	delay := w.backoff
	for attempt := 1; attempt <= w.retries; attempt++ {
		if err = w.writer.Append(ctx, ev); err == nil {
			return nil
		}
		if attempt == w.retries {
			break
		}
		metrics.RecordWorkerRetry()
		w.logger.Warn(ctx, "decision write failed, retrying",
			logger.Int("attempt", attempt),
			logger.Duration("backoff", delay),
			logger.Error(err),
		)
		if delay > 0 {
			t := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return fmt.Errorf("retry aborted: %w", ctx.Err())
			case <-t.C:
			}
			delay *= 2
		}
	}
	metrics.RecordWorkerError()
	metrics.RecordErrorByComponent("worker", "write_failed")
	return fmt.Errorf("write %s/%d after %d attempts: %w", ev.SessionID, ev.Decision.Sequence, w.retries, err)
}

// Queue is the queue a Pool drains and closes.
type Queue interface {
	Source
	Close() error
}

// Pool runs a fixed set of workers over one queue.
type Pool struct {
	workers []*Worker
	queue   Queue
	logger  logger.Logger
	once    sync.Once
	started atomic.Bool
}

// NewPool creates count workers over queue. opts apply to every worker.
func NewPool(count int, q Queue, writer Writer, opts ...Option) *Pool {
	if count < 1 {
		count = 1
	}
	p := &Pool{
		workers: make([]*Worker, count),
		queue:   q,
		logger:  logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewWorker(q, writer, wopts...)
	}
	return p
}

// Start runs every worker in its own goroutine.
func (p *Pool) Start(ctx context.Context) {
	p.started.Store(true)
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	metrics.UpdateWorkerActiveCount(len(p.workers))
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Processed returns the number of events persisted by all workers.
func (p *Pool) Processed() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.processed.Load()
	}
	return n
}

// Failed returns the number of events given up on.
func (p *Pool) Failed() int64 {
	var n int64
	for _, w := range p.workers {
		n += w.failed.Load()
	}
	return n
}

// Shutdown closes the queue and waits for workers to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	var closeErr error
	p.once.Do(func() { closeErr = p.queue.Close() })
	if closeErr != nil {
		p.logger.Error(ctx, "error closing queue", logger.Error(closeErr))
	}
	if !p.started.Load() {
		return nil
	}

	for i, w := range p.workers {
		select {
		case <-w.Done():
		case <-ctx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			return fmt.Errorf("shutdown timed out: %w", ctx.Err())
		}
	}
	metrics.UpdateWorkerActiveCount(0)
	return nil
}
