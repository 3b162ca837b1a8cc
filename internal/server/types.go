// Package server provides the HTTP and websocket surface for the video
// generation API. It includes handlers, middleware, routes, and DTOs
// separated from domain types.
package server

import (
	"time"

	"github.com/scriptsensei/videoforge/internal/job"
	"github.com/scriptsensei/videoforge/internal/video"
)

// SubtitleOptions configures burned-in subtitles for one submission.
type SubtitleOptions struct {
	// Enabled turns subtitle generation on.
	Enabled bool `json:"enabled"`
	// Style is the rendering style.
	Style string `json:"style" validate:"omitempty,oneof=standard karaoke word_highlight"`
	// WordsPerLine groups subtitle segments.
	WordsPerLine int `json:"words_per_line" validate:"omitempty,min=1,max=10"`
}

// GenerateVideoRequest is the HTTP request body for submitting a video job.
type GenerateVideoRequest struct {
	// UserID is the submitting user.
	UserID string `json:"user_id" validate:"required"`
	// ScriptID references the source script, if any.
	ScriptID string `json:"script_id"`
	// ScriptText is the narration script.
	ScriptText string `json:"script_text" validate:"required"`
	// Locale is the narration language code, e.g. "en-US".
	Locale string `json:"locale"`
	// Platform is the target platform code, e.g. "youtube_shorts".
	Platform string `json:"platform"`
	// AspectRatio is the requested frame shape.
	AspectRatio string `json:"aspect_ratio" validate:"omitempty,oneof=16:9 9:16 1:1 4:5"`
	// VoiceID selects the narration voice.
	VoiceID string `json:"voice_id"`
	// SourceType selects stock clips or stills for scene visuals.
	SourceType string `json:"source_type" validate:"omitempty,oneof=stock_image stock_video"`
	// Priority is the scheduling level, 1 (highest) to 10 (lowest).
	Priority int `json:"priority" validate:"omitempty,min=1,max=10"`
	// MaxRetries caps automatic retries after pipeline failures.
	MaxRetries int `json:"max_retries" validate:"omitempty,min=1,max=10"`
	// DurationSeconds is the requested target video length.
	DurationSeconds float64 `json:"duration_seconds" validate:"omitempty,gt=0"`
	// Subtitles configures burned-in subtitles.
	Subtitles *SubtitleOptions `json:"subtitles"`
}

// GenerateVideoResponse is the HTTP response after accepting a submission.
type GenerateVideoResponse struct {
	// JobID is the identifier of the accepted job.
	JobID string `json:"job_id"`
	// Status is the initial job status.
	Status string `json:"status"`
	// Message is a human-readable acknowledgement.
	Message string `json:"message"`
	// EstimatedSeconds is a rough processing time estimate.
	EstimatedSeconds float64 `json:"estimated_seconds"`
}

// JobResponse is the HTTP view of one job.
type JobResponse struct {
	// ID is the unique identifier for the job.
	ID string `json:"id"`
	// UserID is the owner of the job.
	UserID string `json:"user_id"`
	// ScriptID references the source script.
	ScriptID string `json:"script_id,omitempty"`
	// Status is the current job status.
	Status string `json:"status"`
	// Progress is the completion fraction in [0, 1].
	Progress float64 `json:"progress"`
	// Message is the human-readable progress message.
	Message string `json:"message"`
	// Priority is the scheduling class.
	Priority string `json:"priority"`
	// RetryCount is the number of attempts already consumed.
	RetryCount int `json:"retry_count"`
	// Error contains the failure message if the job failed.
	Error string `json:"error,omitempty"`
	// ErrorTrace names the failed pipeline stage.
	ErrorTrace string `json:"error_trace,omitempty"`
	// Result is the artifact bundle once the job succeeded.
	Result *job.Result `json:"result,omitempty"`
	// CreatedAt is when the job was created.
	CreatedAt time.Time `json:"created_at"`
	// StartedAt is when a worker picked the job up.
	StartedAt *time.Time `json:"started_at,omitempty"`
	// CompletedAt is when the job reached a terminal state.
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// toJobResponse converts a domain job to its HTTP view.
func toJobResponse(j *job.Job) JobResponse {
	resp := JobResponse{
		ID:         j.ID,
		UserID:     j.UserID,
		ScriptID:   j.ScriptID,
		Status:     string(j.Status),
		Progress:   j.Progress,
		Message:    j.Message,
		Priority:   string(j.Priority),
		RetryCount: j.RetryCount,
		Error:      j.Error,
		ErrorTrace: j.ErrorTrace,
		Result:     j.Result,
		CreatedAt:  j.CreatedAt,
	}
	if !j.StartedAt.IsZero() {
		t := j.StartedAt
		resp.StartedAt = &t
	}
	if !j.CompletedAt.IsZero() {
		t := j.CompletedAt
		resp.CompletedAt = &t
	}
	return resp
}

// ListJobsResponse is the HTTP response for a job listing page.
type ListJobsResponse struct {
	// Jobs is the page of jobs, newest first.
	Jobs []JobResponse `json:"jobs"`
	// Page is the requested page number.
	Page int `json:"page"`
	// PageSize is the requested page size.
	PageSize int `json:"page_size"`
}

// StatsResponse is the HTTP response for the job statistics endpoint.
type StatsResponse struct {
	// Counts is the number of jobs per state.
	Counts map[job.Status]int64 `json:"counts"`
	// QueueDepth is the number of jobs waiting in the queue.
	QueueDepth int `json:"queue_depth"`
}

func toStatsResponse(s *video.Stats) StatsResponse {
	return StatsResponse{Counts: s.Counts, QueueDepth: s.QueueDepth}
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	// Error is the human-readable error message.
	Error string `json:"error"`
	// Code is the error code for programmatic handling.
	Code string `json:"code"`
}

// HealthResponse is the HTTP response for the health check endpoint.
type HealthResponse struct {
	// Status is the health status of the service.
	Status string `json:"status"`
	// Redis reports whether the job store answers.
	Redis bool `json:"redis"`
}
