package pipeline

import "errors"

// Attempt outcome errors. The worker pool classifies these to decide whether
// a failed attempt is retried.
var (
	// ErrScriptInvalid means the script produced no usable scenes. Retrying
	// the same script cannot succeed, so the failure is permanent.
	ErrScriptInvalid = errors.New("pipeline: script invalid")
	// ErrNarrationFailed means speech synthesis or audio probing failed.
	ErrNarrationFailed = errors.New("pipeline: narration failed")
	// ErrCompositionFailed means video assembly failed.
	ErrCompositionFailed = errors.New("pipeline: composition failed")
	// ErrTimedOut means the attempt exceeded its time budget.
	ErrTimedOut = errors.New("pipeline: attempt timed out")
	// ErrCancelled means the attempt was cancelled on request. Passed as the
	// cancel cause by whoever owns the attempt context.
	ErrCancelled = errors.New("pipeline: cancelled")
	// ErrInterrupted means the worker is shutting down mid-attempt. The job
	// goes back to PENDING with its retry budget intact.
	ErrInterrupted = errors.New("pipeline: attempt interrupted")
)

// Retryable reports whether a failed attempt may be scheduled again.
// Transient failures (narration, composition, timeout) are retryable;
// invalid scripts and cancellations are not.
func Retryable(err error) bool {
	return errors.Is(err, ErrNarrationFailed) ||
		errors.Is(err, ErrCompositionFailed) ||
		errors.Is(err, ErrTimedOut)
}
