package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Local implements Layout on the local filesystem.
//
// Output layout, per job:
//
//	{outputDir}/{jobID}/{jobID}.mp4
//	{outputDir}/{jobID}/{jobID}_thumbnail.jpg
//	{outputDir}/{jobID}/{jobID}.ass
//
// Scratch layout: {workDir}/{jobID}, removed when the attempt ends.
type Local struct {
	outputDir string
	workDir   string
}

// NewLocal creates a Local layout rooted at the given directories.
// Empty paths fall back to subdirectories of os.TempDir(). Both roots are
// created if they do not exist.
func NewLocal(outputDir, workDir string) (*Local, error) {
	if outputDir == "" {
		outputDir = filepath.Join(os.TempDir(), "videoforge", "videos")
	}
	if workDir == "" {
		workDir = filepath.Join(os.TempDir(), "videoforge", "work")
	}

	for _, dir := range []string{outputDir, workDir} {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("storage: create directory %s: %w", dir, err)
		}
	}

	return &Local{outputDir: outputDir, workDir: workDir}, nil
}

// OutputDir returns the artifact root directory.
func (s *Local) OutputDir() string {
	return s.outputDir
}

// VideoPath implements Layout.
func (s *Local) VideoPath(jobID string) string {
	return filepath.Join(s.outputDir, jobID, jobID+".mp4")
}

// ThumbnailPath implements Layout.
func (s *Local) ThumbnailPath(jobID string) string {
	return filepath.Join(s.outputDir, jobID, jobID+"_thumbnail.jpg")
}

// SubtitlePath implements Layout.
func (s *Local) SubtitlePath(jobID string) string {
	return filepath.Join(s.outputDir, jobID, jobID+".ass")
}

// EnsureOutputDir implements Layout.
func (s *Local) EnsureOutputDir(jobID string) error {
	dir := filepath.Join(s.outputDir, jobID)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("storage: create output directory %s: %w", dir, err)
	}
	return nil
}

// CreateWorkDir implements Layout.
func (s *Local) CreateWorkDir(ctx context.Context, jobID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("storage: context cancelled: %w", err)
	}

	dir := filepath.Join(s.workDir, jobID)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("storage: create work directory %s: %w", dir, err)
	}
	return dir, nil
}

// RemoveWorkDir implements Layout. Removing a directory that is already gone
// is not an error.
func (s *Local) RemoveWorkDir(jobID string) error {
	dir := filepath.Join(s.workDir, jobID)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("storage: remove work directory %s: %w", dir, err)
	}
	return nil
}
