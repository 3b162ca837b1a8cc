package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/scriptsensei/videoforge/internal/job"
)

// DefaultEvictionInterval is how often the janitor scans for expired jobs.
const DefaultEvictionInterval = time.Hour

// Janitor periodically evicts terminal jobs older than the retention TTL,
// backing up the per-record store TTL for deployments where keys outlive
// their expiry (e.g. after a restore).
type Janitor struct {
	store    job.Store
	ttl      time.Duration
	interval time.Duration
	logger   *slog.Logger

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// JanitorOption configures a Janitor.
type JanitorOption func(*Janitor)

// WithEvictionInterval overrides the scan interval.
func WithEvictionInterval(d time.Duration) JanitorOption {
	return func(j *Janitor) {
		if d > 0 {
			j.interval = d
		}
	}
}

// NewJanitor creates a Janitor removing terminal jobs older than ttl.
// Call Start to begin scanning.
func NewJanitor(store job.Store, ttl time.Duration, logger *slog.Logger, opts ...JanitorOption) *Janitor {
	j := &Janitor{
		store:    store,
		ttl:      ttl,
		interval: DefaultEvictionInterval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// Start launches the eviction loop.
func (j *Janitor) Start() {
	go j.run()
}

// Stop halts the eviction loop and waits for it to exit.
func (j *Janitor) Stop() {
	j.once.Do(func() { close(j.stop) })
	<-j.done
}

func (j *Janitor) run() {
	defer close(j.done)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-j.stop:
			return
		case <-ticker.C:
			j.evict()
		}
	}
}

func (j *Janitor) evict() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	removed, err := j.store.EvictOlderThan(ctx, j.ttl)
	if err != nil {
		j.logger.Error("eviction scan failed", slog.Any("error", err))
		return
	}
	if removed > 0 {
		j.logger.Info("evicted expired jobs", slog.Int("count", removed))
	}
}
