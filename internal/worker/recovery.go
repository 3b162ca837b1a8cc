package worker

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/scriptsensei/videoforge/internal/job"
	"github.com/scriptsensei/videoforge/internal/queue"
)

// Recover re-offers PENDING jobs found in the store, oldest first. The queue
// is not durable, so this runs once at startup before the pool starts taking.
// Jobs that were mid-attempt during a crash stay STARTED or PROCESSING in the
// store until the retention janitor evicts them; only PENDING work is safe to
// re-run without operator review.
func Recover(ctx context.Context, store job.Store, q *queue.Queue, logger *slog.Logger) (int, error) {
	pending, err := store.ListByStatus(ctx, job.StatusPending, 0)
	if err != nil {
		return 0, fmt.Errorf("worker: list pending jobs: %w", err)
	}

	recovered := 0
	for _, j := range pending {
		if err := q.Offer(j.ID, j.Priority); err != nil {
			return recovered, fmt.Errorf("worker: re-offer job %s: %w", j.ID, err)
		}
		recovered++
	}

	if recovered > 0 {
		logger.Info("recovered pending jobs", slog.Int("count", recovered))
	}
	return recovered, nil
}
