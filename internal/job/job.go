// Package job provides the Job aggregate for the video generation pipeline.
// It includes the Job entity with its state machine, the request payload the
// pipeline reruns from, and the Store interface for persistence.
package job

import (
	"errors"
	"fmt"
	"time"

	"github.com/scriptsensei/videoforge/internal/job/id"
)

// Status represents the current state of a Job.
type Status string

const (
	// StatusPending indicates the job is waiting in the queue.
	StatusPending Status = "PENDING"
	// StatusStarted indicates a worker has picked the job up.
	StatusStarted Status = "STARTED"
	// StatusProcessing indicates the pipeline is running and reporting progress.
	StatusProcessing Status = "PROCESSING"
	// StatusSuccess indicates the job finished and its artifact is ready.
	StatusSuccess Status = "SUCCESS"
	// StatusFailure indicates the job failed; it may still be retried.
	StatusFailure Status = "FAILURE"
	// StatusCancelled indicates the job was cancelled.
	StatusCancelled Status = "CANCELLED"
)

// Statuses lists every job state, in lifecycle order.
var Statuses = []Status{
	StatusPending,
	StatusStarted,
	StatusProcessing,
	StatusSuccess,
	StatusFailure,
	StatusCancelled,
}

// IsTerminal returns true for states that end an attempt for observers.
func (s Status) IsTerminal() bool {
	return s == StatusSuccess || s == StatusFailure || s == StatusCancelled
}

// ErrInvalidTransition is returned when an invalid state transition is attempted.
var ErrInvalidTransition = errors.New("job: invalid state transition")

// validTransitions defines which state transitions are allowed.
// FAILURE -> PENDING is the retry edge; STARTED/PROCESSING -> PENDING is the
// requeue edge taken when a worker shuts down mid-attempt.
var validTransitions = map[Status][]Status{
	StatusPending:    {StatusStarted, StatusCancelled, StatusFailure},
	StatusStarted:    {StatusProcessing, StatusPending, StatusFailure, StatusCancelled},
	StatusProcessing: {StatusSuccess, StatusPending, StatusFailure, StatusCancelled},
	StatusSuccess:    {},
	StatusFailure:    {StatusPending},
	StatusCancelled:  {},
}

// canTransition checks if a transition from one status to another is valid.
func canTransition(from, to Status) bool {
	allowed, ok := validTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// Priority is the coarse scheduling class derived from the 1..10 request level.
type Priority string

const (
	// PriorityHigh is served before all other classes.
	PriorityHigh Priority = "high"
	// PriorityDefault is the standard class.
	PriorityDefault Priority = "default"
	// PriorityLow is served only when no other work is ready.
	PriorityLow Priority = "low"
)

// PriorityFromLevel maps a 1..10 priority level to its class:
// 1-3 high, 4-7 default, 8-10 low.
func PriorityFromLevel(level int) Priority {
	switch {
	case level <= 3:
		return PriorityHigh
	case level <= 7:
		return PriorityDefault
	default:
		return PriorityLow
	}
}

// AspectRatio is the target frame shape of the generated video.
type AspectRatio string

const (
	// AspectLandscape is 16:9.
	AspectLandscape AspectRatio = "16:9"
	// AspectPortrait is 9:16.
	AspectPortrait AspectRatio = "9:16"
	// AspectSquare is 1:1.
	AspectSquare AspectRatio = "1:1"
	// AspectVertical is 4:5.
	AspectVertical AspectRatio = "4:5"
	// AspectClassic is 4:3. Not accepted on submission; kept for platform presets.
	AspectClassic AspectRatio = "4:3"
	// AspectCinema is 21:9. Not accepted on submission; kept for platform presets.
	AspectCinema AspectRatio = "21:9"
)

// IsValid reports whether the ratio is accepted on submission.
func (a AspectRatio) IsValid() bool {
	switch a {
	case AspectLandscape, AspectPortrait, AspectSquare, AspectVertical:
		return true
	default:
		return false
	}
}

// Dimensions returns the output resolution for the ratio.
// Unknown ratios fall back to 16:9.
func (a AspectRatio) Dimensions() (width, height int) {
	switch a {
	case AspectLandscape:
		return 1920, 1080
	case AspectPortrait:
		return 1080, 1920
	case AspectSquare:
		return 1080, 1080
	case AspectVertical:
		return 1080, 1350
	case AspectClassic:
		return 1440, 1080
	case AspectCinema:
		return 2560, 1080
	default:
		return 1920, 1080
	}
}

// Resolution returns the ratio's output resolution as "WxH".
func (a AspectRatio) Resolution() string {
	w, h := a.Dimensions()
	return fmt.Sprintf("%dx%d", w, h)
}

// Orientation returns the stock-search orientation for the ratio:
// landscape, portrait or square.
func (a AspectRatio) Orientation() string {
	w, h := a.Dimensions()
	switch {
	case w > h:
		return "landscape"
	case h > w:
		return "portrait"
	default:
		return "square"
	}
}

// SourceType selects the kind of stock visual the pipeline acquires per scene.
type SourceType string

const (
	// SourceStockImage uses a still photo per scene.
	SourceStockImage SourceType = "stock_image"
	// SourceStockVideo uses a stock clip per scene, falling back to stills.
	SourceStockVideo SourceType = "stock_video"
)

// IsValid returns true if the source type is known.
func (s SourceType) IsValid() bool {
	return s == SourceStockImage || s == SourceStockVideo
}

// SubtitleStyle selects how burned-in subtitles are rendered.
type SubtitleStyle string

const (
	// SubtitleStandard renders plain line-by-line subtitles.
	SubtitleStandard SubtitleStyle = "standard"
	// SubtitleKaraoke sweeps highlight across each line.
	SubtitleKaraoke SubtitleStyle = "karaoke"
	// SubtitleWordHighlight pops one word at a time.
	SubtitleWordHighlight SubtitleStyle = "word_highlight"
)

// IsValid returns true if the style is known.
func (s SubtitleStyle) IsValid() bool {
	return s == SubtitleStandard || s == SubtitleKaraoke || s == SubtitleWordHighlight
}

// SubtitlePolicy configures subtitle generation for one job.
type SubtitlePolicy struct {
	// Enabled turns subtitle generation and burn-in on.
	Enabled bool `json:"enabled"`
	// Style is the rendering style. Defaults to standard.
	Style SubtitleStyle `json:"style"`
	// WordsPerLine groups subtitle segments, 1..10.
	WordsPerLine int `json:"words_per_line"`
}

// Request is the immutable payload needed to run (or rerun) the pipeline.
type Request struct {
	// ScriptText is the full narration script.
	ScriptText string `json:"script_text"`
	// Locale is the narration language code, e.g. "en-US".
	Locale string `json:"locale"`
	// Platform is the target platform code, e.g. "youtube_shorts".
	Platform string `json:"platform"`
	// AspectRatio is the requested frame shape.
	AspectRatio AspectRatio `json:"aspect_ratio"`
	// VoiceID selects the narration voice; resolved by the TTS provider.
	VoiceID string `json:"voice_id"`
	// Subtitles is the subtitle policy.
	Subtitles SubtitlePolicy `json:"subtitles"`
	// SourceType selects stock clips or stills for scene visuals.
	SourceType SourceType `json:"source_type"`
	// DurationSeconds is the requested target video length.
	DurationSeconds float64 `json:"duration_seconds"`
}

// Result is the bundle recorded when a job reaches SUCCESS.
type Result struct {
	// VideoPath is the on-disk path of the final artifact.
	VideoPath string `json:"video_path"`
	// ThumbnailPath is the on-disk path of the extracted thumbnail.
	ThumbnailPath string `json:"thumbnail_path"`
	// DurationSeconds is the probed duration of the artifact.
	DurationSeconds float64 `json:"duration_seconds"`
	// FileSizeBytes is the artifact size on disk.
	FileSizeBytes int64 `json:"file_size_bytes"`
	// Resolution is the output resolution as "WxH".
	Resolution string `json:"resolution"`
	// Format is the container format, e.g. "mp4".
	Format string `json:"format"`
	// SceneCount is the number of scenes composed into the artifact.
	SceneCount int `json:"scene_count"`
}

// Job represents one video generation job.
// Jobs are value records persisted in the store; every reader works on its
// own copy, so the struct carries no locking.
type Job struct {
	// ID is the unique identifier for this job.
	ID string `json:"id"`
	// UserID is the owner of the job.
	UserID string `json:"user_id"`
	// ScriptID references the source script.
	ScriptID string `json:"script_id"`
	// Priority is the scheduling class.
	Priority Priority `json:"priority"`
	// MaxRetries caps automatic retries after pipeline failures.
	MaxRetries int `json:"max_retries"`
	// Status is the current job state.
	Status Status `json:"status"`
	// Progress is the completion fraction in [0, 1].
	Progress float64 `json:"progress"`
	// Message is the human-readable progress message.
	Message string `json:"message"`
	// Result is set when the job reaches SUCCESS.
	Result *Result `json:"result,omitempty"`
	// Error holds the failure message when the job is in FAILURE.
	Error string `json:"error,omitempty"`
	// ErrorTrace optionally holds a stage trace for the failure.
	ErrorTrace string `json:"error_trace,omitempty"`
	// RetryCount is the number of attempts already consumed.
	RetryCount int `json:"retry_count"`
	// Request is the immutable submission payload.
	Request Request `json:"request"`
	// CreatedAt is when the job was created.
	CreatedAt time.Time `json:"created_at"`
	// StartedAt is when a worker first picked the job up. Zero until then.
	StartedAt time.Time `json:"started_at,omitzero"`
	// CompletedAt is when the job entered a terminal state. Zero until then.
	CompletedAt time.Time `json:"completed_at,omitzero"`
	// UpdatedAt is when the record was last written.
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultMaxRetries is applied when a submission does not set a retry cap.
const DefaultMaxRetries = 3

// New creates a Job in PENDING with a generated ID.
func New(userID, scriptID string, priority Priority, maxRetries int, req Request) *Job {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	now := time.Now().UTC()
	return &Job{
		ID:         id.Generate(),
		UserID:     userID,
		ScriptID:   scriptID,
		Priority:   priority,
		MaxRetries: maxRetries,
		Status:     StatusPending,
		Message:    "Job queued",
		Request:    req,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// TransitionTo attempts to change the job status to the specified state.
// Returns ErrInvalidTransition if the transition is not allowed.
func (j *Job) TransitionTo(status Status) error {
	if !canTransition(j.Status, status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, j.Status, status)
	}

	j.Status = status
	j.UpdatedAt = time.Now().UTC()

	switch status {
	case StatusStarted:
		if j.StartedAt.IsZero() {
			j.StartedAt = j.UpdatedAt
		}
	case StatusSuccess, StatusFailure, StatusCancelled:
		j.CompletedAt = j.UpdatedAt
	}

	return nil
}

// IsTerminal returns true if the job is in a terminal state.
func (j *Job) IsTerminal() bool {
	return j.Status.IsTerminal()
}

// CanRetry reports whether another automatic attempt is allowed.
func (j *Job) CanRetry() bool {
	return j.RetryCount < j.MaxRetries
}

// ResetForRetry prepares a failed job for another attempt: increments the
// retry counter, clears progress, message and error fields, and moves the
// job back to PENDING.
func (j *Job) ResetForRetry() error {
	if err := j.TransitionTo(StatusPending); err != nil {
		return err
	}
	j.RetryCount++
	j.Progress = 0
	j.Message = "Retry queued"
	j.Error = ""
	j.ErrorTrace = ""
	j.Result = nil
	j.StartedAt = time.Time{}
	j.CompletedAt = time.Time{}
	return nil
}

// Requeue moves an interrupted attempt back to PENDING so the next startup
// recovery scan re-offers it. Unlike ResetForRetry it does not consume the
// retry budget: nothing failed, the worker went away.
func (j *Job) Requeue() error {
	if j.Status != StatusStarted && j.Status != StatusProcessing {
		return fmt.Errorf("%w: requeue from %s", ErrInvalidTransition, j.Status)
	}
	if err := j.TransitionTo(StatusPending); err != nil {
		return err
	}
	j.Progress = 0
	j.Message = "Requeued"
	j.StartedAt = time.Time{}
	return nil
}

// Clone returns a copy of the job safe for independent mutation.
func (j *Job) Clone() *Job {
	c := *j
	if j.Result != nil {
		r := *j.Result
		c.Result = &r
	}
	return &c
}
