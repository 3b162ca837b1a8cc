// Package video is the application service for video generation jobs:
// validated submission, lifecycle queries, cancellation, manual retries and
// artifact access. It sits between the HTTP layer and the job store, queue
// and pipeline machinery.
package video

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/scriptsensei/videoforge/internal/catalog"
	"github.com/scriptsensei/videoforge/internal/job"
	"github.com/scriptsensei/videoforge/internal/metrics"
	"github.com/scriptsensei/videoforge/internal/queue"
	"github.com/scriptsensei/videoforge/internal/ratelimit"
	"github.com/scriptsensei/videoforge/internal/storage"
)

var (
	// ErrValidation is returned when a submission fails a validation rule.
	// The wrapped message names the offending field.
	ErrValidation = errors.New("video: invalid submission")
	// ErrRateLimited is returned when the user exhausted the submission window.
	ErrRateLimited = errors.New("video: rate limit exceeded")
	// ErrShuttingDown is returned when the queue no longer accepts work.
	ErrShuttingDown = errors.New("video: service shutting down")
	// ErrInvalidState is returned when an operation does not apply to the
	// job's current state, e.g. cancelling a finished job.
	ErrInvalidState = errors.New("video: invalid job state")
	// ErrNotReady is returned when an artifact is requested before SUCCESS.
	ErrNotReady = errors.New("video: artifact not ready")
	// ErrGone is returned when a recorded artifact no longer exists on disk.
	ErrGone = errors.New("video: artifact missing")
)

// Pagination bounds for job listings.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Canceller aborts the running attempt for a job, if one is in flight.
// The worker pool is the production implementation.
type Canceller interface {
	CancelRunning(jobID string) bool
}

// Submission is one validated video generation request.
type Submission struct {
	UserID          string
	ScriptID        string
	ScriptText      string
	Locale          string
	Platform        string
	AspectRatio     job.AspectRatio
	VoiceID         string
	SourceType      job.SourceType
	Subtitles       job.SubtitlePolicy
	PriorityLevel   int
	MaxRetries      int
	DurationSeconds float64
}

// Stats is a point-in-time snapshot of the job population.
type Stats struct {
	Counts     map[job.Status]int64 `json:"counts"`
	QueueDepth int                  `json:"queue_depth"`
}

// Deps bundles the collaborators a Service needs.
type Deps struct {
	Store     job.Store
	Queue     *queue.Queue
	Limiter   *ratelimit.Limiter
	Catalog   *catalog.Catalog
	Layout    storage.Layout
	Canceller Canceller
	Logger    *slog.Logger
}

// Service implements the job-facing application operations.
type Service struct {
	deps Deps
}

// NewService creates a Service.
func NewService(deps Deps) *Service {
	return &Service{deps: deps}
}

// Submit validates the submission, creates the job and offers it to the
// queue. The rate limit window is only charged for accepted submissions.
func (s *Service) Submit(ctx context.Context, sub Submission) (*job.Job, error) {
	req, err := s.buildRequest(&sub)
	if err != nil {
		return nil, err
	}

	if !s.deps.Limiter.Check(sub.UserID) {
		metrics.RateLimitRejectionsTotal.Inc()
		return nil, fmt.Errorf("%w: user %s", ErrRateLimited, sub.UserID)
	}

	class := job.PriorityFromLevel(sub.PriorityLevel)
	j := job.New(sub.UserID, sub.ScriptID, class, sub.MaxRetries, req)

	if err := s.deps.Store.Create(ctx, j); err != nil {
		return nil, err
	}
	s.deps.Limiter.Record(sub.UserID)

	if err := s.deps.Queue.Offer(j.ID, class); err != nil {
		// Submission window stays charged; the record is rolled back so the
		// client can resubmit after the restart.
		if _, dErr := s.deps.Store.Delete(ctx, j.ID); dErr != nil {
			s.deps.Logger.Error("rollback of unqueued job failed",
				slog.String("job_id", j.ID), slog.Any("error", dErr))
		}
		return nil, fmt.Errorf("%w: %w", ErrShuttingDown, err)
	}

	metrics.JobsSubmittedTotal.WithLabelValues(string(class)).Inc()
	metrics.QueueDepth.Set(float64(s.deps.Queue.Len()))
	s.deps.Logger.Info("job submitted",
		slog.String("job_id", j.ID),
		slog.String("user_id", sub.UserID),
		slog.String("priority", string(class)))
	return j, nil
}

// buildRequest applies defaults and validates the submission, returning the
// immutable pipeline payload.
func (s *Service) buildRequest(sub *Submission) (job.Request, error) {
	if strings.TrimSpace(sub.UserID) == "" {
		return job.Request{}, fmt.Errorf("%w: user_id is required", ErrValidation)
	}
	if strings.TrimSpace(sub.ScriptText) == "" {
		return job.Request{}, fmt.Errorf("%w: script_text is required", ErrValidation)
	}

	if sub.Locale == "" {
		sub.Locale = "en-US"
	}
	if sub.AspectRatio == "" {
		sub.AspectRatio = job.AspectLandscape
	}
	if !sub.AspectRatio.IsValid() {
		return job.Request{}, fmt.Errorf("%w: unsupported aspect ratio %q", ErrValidation, sub.AspectRatio)
	}

	if sub.SourceType == "" {
		sub.SourceType = job.SourceStockImage
	}
	if !sub.SourceType.IsValid() {
		return job.Request{}, fmt.Errorf("%w: unsupported source type %q", ErrValidation, sub.SourceType)
	}

	if sub.PriorityLevel == 0 {
		sub.PriorityLevel = 5
	}
	if sub.PriorityLevel < 1 || sub.PriorityLevel > 10 {
		return job.Request{}, fmt.Errorf("%w: priority must be 1..10, got %d", ErrValidation, sub.PriorityLevel)
	}

	if sub.Subtitles.Enabled {
		if sub.Subtitles.Style == "" {
			sub.Subtitles.Style = job.SubtitleStandard
		}
		if !sub.Subtitles.Style.IsValid() {
			return job.Request{}, fmt.Errorf("%w: unsupported subtitle style %q", ErrValidation, sub.Subtitles.Style)
		}
		if sub.Subtitles.WordsPerLine < 0 || sub.Subtitles.WordsPerLine > 10 {
			return job.Request{}, fmt.Errorf("%w: words_per_line must be 1..10", ErrValidation)
		}
	}

	if sub.Platform != "" {
		p, err := s.deps.Catalog.PlatformByID(sub.Platform)
		if err != nil {
			return job.Request{}, fmt.Errorf("%w: unknown platform %q", ErrValidation, sub.Platform)
		}
		if p.MaxDuration > 0 && sub.DurationSeconds > float64(p.MaxDuration) {
			return job.Request{}, fmt.Errorf("%w: %s allows at most %d seconds",
				ErrValidation, p.Name, p.MaxDuration)
		}
	}

	if sub.DurationSeconds < 0 {
		return job.Request{}, fmt.Errorf("%w: duration must not be negative", ErrValidation)
	}

	return job.Request{
		ScriptText:      sub.ScriptText,
		Locale:          sub.Locale,
		Platform:        sub.Platform,
		AspectRatio:     sub.AspectRatio,
		VoiceID:         sub.VoiceID,
		Subtitles:       sub.Subtitles,
		SourceType:      sub.SourceType,
		DurationSeconds: sub.DurationSeconds,
	}, nil
}

// Get returns the job by ID.
func (s *Service) Get(ctx context.Context, id string) (*job.Job, error) {
	return s.deps.Store.Get(ctx, id)
}

// ListByUser returns one page of the user's jobs, newest first.
func (s *Service) ListByUser(ctx context.Context, userID string, page, pageSize int) ([]*job.Job, error) {
	if page < 1 {
		return nil, fmt.Errorf("%w: page must be at least 1", ErrValidation)
	}
	if pageSize < 1 || pageSize > MaxPageSize {
		return nil, fmt.Errorf("%w: page_size must be between 1 and %d", ErrValidation, MaxPageSize)
	}
	return s.deps.Store.ListByUser(ctx, userID, pageSize, (page-1)*pageSize)
}

// Cancel stops the job. A queued job is cancelled in the store directly; a
// running attempt is interrupted and records its own CANCELLED state while
// unwinding. Terminal jobs cannot be cancelled.
func (s *Service) Cancel(ctx context.Context, id string) (*job.Job, error) {
	j, err := s.deps.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if j.IsTerminal() {
		return nil, fmt.Errorf("%w: job is already %s", ErrInvalidState, j.Status)
	}

	if s.deps.Canceller != nil && s.deps.Canceller.CancelRunning(id) {
		s.deps.Logger.Info("running attempt interrupted", slog.String("job_id", id))
		return j, nil
	}
	return s.deps.Store.MarkCancelled(ctx, id)
}

// Retry re-queues a failed job on operator request, bypassing the automatic
// retry budget. Only jobs in FAILURE can be retried.
func (s *Service) Retry(ctx context.Context, id string) (*job.Job, error) {
	j, err := s.deps.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if j.Status != job.StatusFailure {
		return nil, fmt.Errorf("%w: only failed jobs can be retried, job is %s", ErrInvalidState, j.Status)
	}

	if err := j.ResetForRetry(); err != nil {
		return nil, err
	}
	if err := s.deps.Store.Update(ctx, j); err != nil {
		return nil, err
	}
	if err := s.deps.Queue.Offer(j.ID, j.Priority); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrShuttingDown, err)
	}

	metrics.QueueDepth.Set(float64(s.deps.Queue.Len()))
	s.deps.Logger.Info("manual retry queued",
		slog.String("job_id", id), slog.Int("retry", j.RetryCount))
	return j, nil
}

// Stats returns the job population per state plus the live queue depth.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	counts, err := s.deps.Store.CountsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{Counts: counts, QueueDepth: s.deps.Queue.Len()}, nil
}

// VideoPath returns the on-disk artifact for a finished job.
func (s *Service) VideoPath(ctx context.Context, id string) (string, error) {
	j, err := s.artifactJob(ctx, id)
	if err != nil {
		return "", err
	}
	return s.checkFile(j.Result.VideoPath)
}

// ThumbnailPath returns the on-disk thumbnail for a finished job.
func (s *Service) ThumbnailPath(ctx context.Context, id string) (string, error) {
	j, err := s.artifactJob(ctx, id)
	if err != nil {
		return "", err
	}
	if j.Result.ThumbnailPath == "" {
		return "", fmt.Errorf("%w: no thumbnail recorded", ErrGone)
	}
	return s.checkFile(j.Result.ThumbnailPath)
}

func (s *Service) artifactJob(ctx context.Context, id string) (*job.Job, error) {
	j, err := s.deps.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if j.Status != job.StatusSuccess || j.Result == nil {
		return nil, fmt.Errorf("%w: job is %s", ErrNotReady, j.Status)
	}
	return j, nil
}

// checkFile guards against artifacts evicted from disk after the record.
func (s *Service) checkFile(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("%w: %s", ErrGone, path)
	}
	return path, nil
}
