// Package worker runs the pool that pulls ready jobs off the queue and hands
// them to the pipeline, owning the per-attempt lifecycle around it: marking
// the job started, enforcing the hard timeout, exposing mid-flight
// cancellation and scheduling automatic retries after transient failures.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/scriptsensei/videoforge/internal/job"
	"github.com/scriptsensei/videoforge/internal/metrics"
	"github.com/scriptsensei/videoforge/internal/pipeline"
	"github.com/scriptsensei/videoforge/internal/push"
	"github.com/scriptsensei/videoforge/internal/queue"
)

const (
	// DefaultWorkers is the number of concurrent pipeline attempts.
	DefaultWorkers = 3
	// DefaultHardTimeout is the absolute per-attempt deadline, enforced
	// through the attempt context.
	DefaultHardTimeout = 30 * time.Minute
	// DefaultStopGrace matches the pipeline's cooperative budget, so a
	// healthy attempt can finish before shutdown interrupts it.
	DefaultStopGrace = pipeline.DefaultSoftTimeout
)

// Runner executes one pipeline attempt. The pipeline driver is the production
// implementation.
type Runner interface {
	Run(ctx context.Context, j *job.Job) error
}

// Deps bundles the collaborators a Pool needs.
type Deps struct {
	Store     job.Store
	Queue     *queue.Queue
	Scheduler *queue.RetryScheduler
	Runner    Runner
	Emitter   push.Emitter
	Logger    *slog.Logger
}

// Pool consumes the queue with a fixed number of workers.
type Pool struct {
	deps          Deps
	workers       int
	hardTimeout   time.Duration
	retryCooldown time.Duration
	stopGrace     time.Duration

	takeCtx    context.Context
	takeCancel context.CancelFunc
	wg         sync.WaitGroup
	stopOnce   sync.Once

	cancelMu     sync.Mutex
	cancels      map[string]context.CancelCauseFunc
	interrupting bool
}

// Option configures a Pool.
type Option func(*Pool)

// WithWorkers overrides the worker count.
func WithWorkers(n int) Option {
	return func(p *Pool) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithHardTimeout overrides the absolute attempt deadline.
func WithHardTimeout(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.hardTimeout = d
		}
	}
}

// WithRetryCooldown overrides the delay before a failed job is re-offered.
func WithRetryCooldown(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.retryCooldown = d
		}
	}
}

// WithStopGrace overrides how long Stop lets in-flight attempts drain before
// interrupting them.
func WithStopGrace(d time.Duration) Option {
	return func(p *Pool) {
		if d > 0 {
			p.stopGrace = d
		}
	}
}

// NewPool creates a Pool. Call Start to begin consuming the queue.
func NewPool(deps Deps, opts ...Option) *Pool {
	p := &Pool{
		deps:          deps,
		workers:       DefaultWorkers,
		hardTimeout:   DefaultHardTimeout,
		retryCooldown: queue.DefaultRetryCooldown,
		stopGrace:     DefaultStopGrace,
		cancels:       make(map[string]context.CancelCauseFunc),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.takeCtx, p.takeCancel = context.WithCancel(context.Background())
	return p
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.loop(i)
	}
	p.deps.Logger.Info("worker pool started", slog.Int("workers", p.workers))
}

// Stop halts the pool: no further jobs are taken and in-flight attempts get
// the grace window to finish on their own. Attempts still running after the
// grace are interrupted; the driver parks them back in PENDING with the
// retry budget untouched, so the next startup recovery scan re-offers them.
// The call returns once every worker has exited.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.takeCancel()

		drained := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(drained)
		}()
		select {
		case <-drained:
		case <-time.After(p.stopGrace):
			p.cancelMu.Lock()
			p.interrupting = true
			for _, cancel := range p.cancels {
				cancel(pipeline.ErrInterrupted)
			}
			p.cancelMu.Unlock()
		}
	})
	p.wg.Wait()
	p.deps.Logger.Info("worker pool stopped")
}

// CancelRunning aborts the running attempt for the job, if any. Returns false
// when the job is not currently being processed; the caller then cancels it
// at the store level instead.
func (p *Pool) CancelRunning(jobID string) bool {
	p.cancelMu.Lock()
	defer p.cancelMu.Unlock()

	cancel, ok := p.cancels[jobID]
	if !ok {
		return false
	}
	cancel(pipeline.ErrCancelled)
	return true
}

func (p *Pool) loop(id int) {
	defer p.wg.Done()
	logger := p.deps.Logger.With(slog.Int("worker", id))

	for {
		jobID, err := p.deps.Queue.Take(p.takeCtx)
		if err != nil {
			if !errors.Is(err, queue.ErrClosed) && !errors.Is(err, context.Canceled) {
				logger.Error("take failed", slog.Any("error", err))
			}
			return
		}
		metrics.QueueDepth.Set(float64(p.deps.Queue.Len()))
		p.process(jobID, logger)
	}
}

// process runs one attempt for the job and decides about retrying afterwards.
func (p *Pool) process(jobID string, logger *slog.Logger) {
	ctx := context.Background()

	j, err := p.deps.Store.Get(ctx, jobID)
	if err != nil {
		logger.Warn("queued job not found", slog.String("job_id", jobID), slog.Any("error", err))
		return
	}
	// A job cancelled while waiting in the queue is still delivered; skip it.
	if j.Status != job.StatusPending {
		logger.Info("skipping non-pending job",
			slog.String("job_id", jobID), slog.String("status", string(j.Status)))
		return
	}

	// The cancel func is registered before MarkStarted so an API cancel has
	// no window in which the job looks running yet cannot be reached.
	attemptCtx, cancelCause := context.WithCancelCause(context.Background())
	deadlineCtx, cancelDeadline := context.WithTimeout(attemptCtx, p.hardTimeout)

	p.cancelMu.Lock()
	p.cancels[jobID] = cancelCause
	if p.interrupting {
		cancelCause(pipeline.ErrInterrupted)
	}
	p.cancelMu.Unlock()

	unregister := func() {
		p.cancelMu.Lock()
		delete(p.cancels, jobID)
		p.cancelMu.Unlock()
		cancelDeadline()
		cancelCause(nil)
	}

	started, err := p.deps.Store.MarkStarted(ctx, jobID)
	if err != nil {
		unregister()
		logger.Error("mark started failed", slog.String("job_id", jobID), slog.Any("error", err))
		return
	}
	p.deps.Emitter.EmitStarted(jobID, "Video generation started")

	metrics.ActiveWorkers.Inc()
	runErr := p.deps.Runner.Run(deadlineCtx, started)
	metrics.ActiveWorkers.Dec()
	unregister()

	if runErr == nil || errors.Is(runErr, pipeline.ErrCancelled) || errors.Is(runErr, pipeline.ErrInterrupted) {
		return
	}
	if pipeline.Retryable(runErr) {
		p.maybeRetry(ctx, jobID, logger)
	}
}

// maybeRetry moves a failed job back to PENDING and parks it with the retry
// scheduler, provided attempts remain.
func (p *Pool) maybeRetry(ctx context.Context, jobID string, logger *slog.Logger) {
	j, err := p.deps.Store.Get(ctx, jobID)
	if err != nil {
		logger.Error("load failed job", slog.String("job_id", jobID), slog.Any("error", err))
		return
	}
	if !j.CanRetry() {
		logger.Warn("retries exhausted",
			slog.String("job_id", jobID), slog.Int("attempts", j.RetryCount+1))
		return
	}
	if err := j.ResetForRetry(); err != nil {
		logger.Error("reset for retry failed", slog.String("job_id", jobID), slog.Any("error", err))
		return
	}
	if err := p.deps.Store.Update(ctx, j); err != nil {
		logger.Error("persist retry failed", slog.String("job_id", jobID), slog.Any("error", err))
		return
	}

	p.deps.Scheduler.Schedule(jobID, j.Priority, p.retryCooldown)
	metrics.JobRetriesTotal.Inc()
	logger.Info("retry scheduled",
		slog.String("job_id", jobID),
		slog.Int("retry", j.RetryCount),
		slog.Duration("cooldown", p.retryCooldown))
}
