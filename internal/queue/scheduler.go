package queue

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/scriptsensei/videoforge/internal/job"
)

// DefaultRetryCooldown is how long a failed job waits before it is offered
// to the queue again.
const DefaultRetryCooldown = 60 * time.Second

// parked is one job waiting out its retry cooldown.
type parked struct {
	jobID   string
	class   job.Priority
	readyAt time.Time
}

// RetryScheduler holds delayed re-offers in a bucket scanned on a timer, so
// the main queue carries only jobs that are ready to run.
type RetryScheduler struct {
	queue    *Queue
	logger   *slog.Logger
	interval time.Duration

	mu     sync.Mutex
	bucket []parked

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// SchedulerOption configures a RetryScheduler.
type SchedulerOption func(*RetryScheduler)

// WithScanInterval overrides how often the bucket is scanned for due jobs.
func WithScanInterval(d time.Duration) SchedulerOption {
	return func(s *RetryScheduler) {
		if d > 0 {
			s.interval = d
		}
	}
}

// NewRetryScheduler creates a scheduler feeding the given queue.
// Call Start to begin scanning.
func NewRetryScheduler(q *Queue, logger *slog.Logger, opts ...SchedulerOption) *RetryScheduler {
	s := &RetryScheduler{
		queue:    q,
		logger:   logger,
		interval: time.Second,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule parks a job until the delay elapses, then offers it to the queue.
func (s *RetryScheduler) Schedule(jobID string, class job.Priority, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bucket = append(s.bucket, parked{
		jobID:   jobID,
		class:   class,
		readyAt: time.Now().Add(delay),
	})
}

// Len returns the number of parked jobs.
func (s *RetryScheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bucket)
}

// Start launches the scan loop.
func (s *RetryScheduler) Start() {
	go s.run()
}

// Stop halts the scan loop and waits for it to exit. Jobs still parked are
// dropped; they remain PENDING in the store and are re-offered by the next
// startup recovery scan.
func (s *RetryScheduler) Stop() {
	s.once.Do(func() { close(s.stop) })
	<-s.done
}

func (s *RetryScheduler) run() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			s.mu.Lock()
			dropped := len(s.bucket)
			s.bucket = nil
			s.mu.Unlock()
			if dropped > 0 {
				s.logger.Info("retry scheduler stopped with parked jobs", slog.Int("dropped", dropped))
			}
			return
		case <-ticker.C:
			s.offerDue(time.Now())
		}
	}
}

// offerDue re-offers every parked job whose cooldown has elapsed.
func (s *RetryScheduler) offerDue(now time.Time) {
	s.mu.Lock()
	var due []parked
	remaining := s.bucket[:0]
	for _, p := range s.bucket {
		if p.readyAt.After(now) {
			remaining = append(remaining, p)
		} else {
			due = append(due, p)
		}
	}
	s.bucket = remaining
	s.mu.Unlock()

	for _, p := range due {
		if err := s.queue.Offer(p.jobID, p.class); err != nil {
			if errors.Is(err, ErrClosed) {
				s.logger.Warn("queue closed, dropping retry offer",
					slog.String("job_id", p.jobID))
				continue
			}
			s.logger.Error("failed to re-offer job",
				slog.String("job_id", p.jobID),
				slog.Any("error", err))
		} else {
			s.logger.Info("job re-offered after cooldown",
				slog.String("job_id", p.jobID),
				slog.String("priority", string(p.class)))
		}
	}
}
