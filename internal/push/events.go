// Package push fans job lifecycle events out to subscribed observers.
// One logical room exists per job ID; the pipeline talks to the hub through
// the producer-facing Emitter interface only.
package push

import (
	"time"

	"github.com/scriptsensei/videoforge/internal/job"
)

// EventType is the wire kind of a push event.
type EventType string

const (
	// EventStarted is sent when a worker picks the job up.
	EventStarted EventType = "processing_started"
	// EventProgress is sent after every monotonic pipeline step.
	EventProgress EventType = "progress_update"
	// EventCompleted is sent when the artifact is ready.
	EventCompleted EventType = "processing_completed"
	// EventFailed is sent when the attempt ends in failure.
	EventFailed EventType = "processing_failed"
	// EventCancelled is sent when the job is cancelled.
	EventCancelled EventType = "processing_cancelled"
)

// Terminal reports whether the event ends the stream for its job.
func (t EventType) Terminal() bool {
	return t == EventCompleted || t == EventFailed || t == EventCancelled
}

// Event is the envelope delivered to room subscribers.
type Event struct {
	// JobID is the room the event belongs to.
	JobID string `json:"job_id"`
	// Type is the event kind.
	Type EventType `json:"type"`
	// Data is the event-kind-specific payload.
	Data any `json:"data,omitempty"`
	// Timestamp is the server wall-clock time of emission.
	Timestamp time.Time `json:"timestamp"`
}

// StartedData is the payload of EventStarted.
type StartedData struct {
	Message string `json:"message"`
}

// ProgressData is the payload of EventProgress.
type ProgressData struct {
	Progress float64 `json:"progress"`
	Message  string  `json:"message"`
	Step     string  `json:"step"`
}

// CompletedData is the payload of EventCompleted.
type CompletedData struct {
	Result job.Result `json:"result"`
}

// FailedData is the payload of EventFailed.
type FailedData struct {
	Error string `json:"error"`
}

// CancelledData is the payload of EventCancelled.
type CancelledData struct {
	Message string `json:"message"`
}

// Emitter is the producer-facing side of the push channel. The pipeline
// driver depends on this interface alone; room management stays internal
// to the hub.
type Emitter interface {
	// EmitStarted announces that processing began.
	EmitStarted(jobID, message string)
	// EmitProgress reports a progress fraction with its step label.
	EmitProgress(jobID string, progress float64, message, step string)
	// EmitCompleted delivers the result bundle.
	EmitCompleted(jobID string, result job.Result)
	// EmitFailed delivers the failure message.
	EmitFailed(jobID, errMsg string)
	// EmitCancelled announces cancellation.
	EmitCancelled(jobID string)
}

// NopEmitter discards all events.
type NopEmitter struct{}

// EmitStarted implements Emitter.
func (NopEmitter) EmitStarted(string, string) {}

// EmitProgress implements Emitter.
func (NopEmitter) EmitProgress(string, float64, string, string) {}

// EmitCompleted implements Emitter.
func (NopEmitter) EmitCompleted(string, job.Result) {}

// EmitFailed implements Emitter.
func (NopEmitter) EmitFailed(string, string) {}

// EmitCancelled implements Emitter.
func (NopEmitter) EmitCancelled(string) {}
