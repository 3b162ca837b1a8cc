package job

import (
	"context"
	"errors"
	"time"
)

// ErrJobNotFound is returned when a job cannot be found by ID.
var ErrJobNotFound = errors.New("job: job not found")

// ErrStoreUnavailable is returned when the backing store cannot be reached.
var ErrStoreUnavailable = errors.New("job: store unavailable")

// Store defines the interface for durable job persistence.
// It acts as a port in the hexagonal architecture pattern. Implementations
// keep the record and its user/status secondary indexes consistent within
// one logical commit.
type Store interface {
	// Create persists a fresh job and registers it in the user and status
	// indexes.
	Create(ctx context.Context, j *Job) error

	// Get retrieves a job by its unique identifier.
	// Returns ErrJobNotFound if the job does not exist.
	Get(ctx context.Context, id string) (*Job, error)

	// Update replaces the stored record. If the job's state changed, the job
	// is moved between status indexes in the same commit.
	Update(ctx context.Context, j *Job) error

	// MarkStarted moves a PENDING job to STARTED. Calling it again while the
	// attempt is running is a no-op.
	MarkStarted(ctx context.Context, id string) (*Job, error)

	// MarkProgress records a progress fraction and message, moving the job
	// to PROCESSING on the first call after MarkStarted. Progress never
	// decreases within an attempt.
	MarkProgress(ctx context.Context, id string, progress float64, message string) (*Job, error)

	// MarkSuccess finalizes the job with its result bundle.
	MarkSuccess(ctx context.Context, id string, result Result) (*Job, error)

	// MarkFailure records the failure message and optional stage trace.
	MarkFailure(ctx context.Context, id string, errMsg, trace string) (*Job, error)

	// MarkCancelled moves the job to CANCELLED. It is a no-op on jobs that
	// are already terminal.
	MarkCancelled(ctx context.Context, id string) (*Job, error)

	// MarkRequeued parks an interrupted attempt back in PENDING without
	// consuming the retry budget, so the job is picked up again after a
	// restart.
	MarkRequeued(ctx context.Context, id string) (*Job, error)

	// Delete removes the record and all its index entries.
	// Returns false when no such job existed.
	Delete(ctx context.Context, id string) (bool, error)

	// ListByUser returns the user's jobs ordered by creation time descending.
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*Job, error)

	// ListByStatus returns jobs in the given state ordered by creation time
	// ascending, so pending work is scanned oldest first.
	ListByStatus(ctx context.Context, status Status, limit int) ([]*Job, error)

	// CountsByStatus returns the number of jobs per state.
	CountsByStatus(ctx context.Context) (map[Status]int64, error)

	// EvictOlderThan removes terminal jobs created more than age ago,
	// together with their index entries, and returns how many were removed.
	EvictOlderThan(ctx context.Context, age time.Duration) (int, error)

	// Healthy reports whether the backing store answers.
	Healthy(ctx context.Context) bool
}
