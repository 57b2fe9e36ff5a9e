package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Job is one unit of background work, typically an export job whose ID
// keys the record the handler loads and updates.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler runs a job to completion or returns the error that gets it retried.
type Handler func(context.Context, Job) error

// QueueConfig tunes the worker pool. Zero values pick sane defaults.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

func (cfg QueueConfig) withDefaults() QueueConfig {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return cfg
}

// Queue fans jobs out to an in-process worker pool. Failed jobs are
// requeued after a delay until MaxRetries is spent; there is no
// persistence, a restart drops whatever was in flight.
type Queue struct {
	name    string
	handler Handler
	cfg     QueueConfig
	log     *zap.SugaredLogger

	pending chan Job
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewQueue builds a queue that feeds jobs to handler.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
	cfg = cfg.withDefaults()
	return &Queue{
		name:    name,
		handler: handler,
		cfg:     cfg,
		log:     cfg.Logger.Sugar().With("queue", name),
		pending: make(chan Job, cfg.BufferSize),
	}
}

// Start launches the workers. Calling Start twice is a no-op.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	q.started = true
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.run()
	}
	q.log.Infow("queue started", "workers", q.cfg.Workers)
}

// Stop cancels the workers and blocks until they exit.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.log.Infow("queue stopped")
}

// Enqueue hands a job to the pool, blocking while the buffer is full.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	ctx, started := q.ctx, q.started
	q.mu.Unlock()

	if !started {
		return fmt.Errorf("queue %s not started", q.name)
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	select {
	case q.pending <- job:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("queue %s stopped: %w", q.name, ctx.Err())
	}
}

func (q *Queue) run() {
	defer q.wg.Done()
	for {
		select {
		case job := <-q.pending:
			if err := q.handler(q.ctx, job); err != nil {
				q.retryLater(job, err)
			}
		case <-q.ctx.Done():
			return
		}
	}
}

// retryLater schedules one more attempt after the configured delay. The
// timer goroutine respects shutdown so Stop never hangs on a retry.
func (q *Queue) retryLater(job Job, cause error) {
	job.Attempt++
	if job.Attempt > q.cfg.MaxRetries {
		q.log.Errorw("job dropped after final attempt", "job_id", job.ID, "type", job.Type, "error", cause)
		return
	}
	q.log.Warnw("job failed, scheduling retry", "job_id", job.ID, "type", job.Type, "attempt", job.Attempt, "error", cause)

	go func() {
		timer := time.NewTimer(q.cfg.RetryDelay)
		defer timer.Stop()
		select {
		case <-timer.C:
			if err := q.Enqueue(job); err != nil {
				q.log.Errorw("requeue failed", "job_id", job.ID, "error", err)
			}
		case <-q.ctx.Done():
		}
	}()
}
