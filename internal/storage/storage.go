// Package storage owns the on-disk layout of pipeline artifacts: the final
// video and thumbnail per job, and the per-attempt scratch directory.
package storage

import "context"

// Layout resolves job IDs to artifact locations and manages the per-attempt
// working directory. One working directory is exclusively owned by the
// attempt that created it.
type Layout interface {
	// VideoPath returns where the final artifact for a job lives.
	VideoPath(jobID string) string

	// ThumbnailPath returns where the thumbnail for a job lives.
	ThumbnailPath(jobID string) string

	// SubtitlePath returns where the styled subtitle file for a job lives.
	SubtitlePath(jobID string) string

	// EnsureOutputDir creates the job's output directory.
	EnsureOutputDir(jobID string) error

	// CreateWorkDir creates and returns the job's scratch directory.
	CreateWorkDir(ctx context.Context, jobID string) (string, error)

	// RemoveWorkDir deletes the job's scratch directory and everything in it.
	RemoveWorkDir(jobID string) error
}
