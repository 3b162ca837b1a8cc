package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Static errors for media operations.
var (
	// ErrInvalidDimensions is returned when the provided dimensions are not positive.
	ErrInvalidDimensions = errors.New("invalid dimensions: width and height must be positive")
	// ErrNoInputs is returned when no input paths are provided for joining.
	ErrNoInputs = errors.New("no input paths provided")
	// ErrInvalidDuration is returned when duration is not positive.
	ErrInvalidDuration = errors.New("invalid duration: must be positive")
	// ErrFFprobeExecution is returned when the ffprobe command fails.
	ErrFFprobeExecution = errors.New("ffprobe execution failed")
)

const (
	sceneFPS = 30
	// TransitionDuration is the crossfade length between scenes. Scene videos
	// overlap by this much in the concatenated output.
	TransitionDuration = 0.5
)

// FFmpeg implements Compositor and Prober using the ffmpeg and ffprobe CLIs.
type FFmpeg struct {
	// ffmpegPath is the path to the ffmpeg binary. Defaults to "ffmpeg".
	ffmpegPath string
	// ffprobePath is the path to the ffprobe binary. Defaults to "ffprobe".
	ffprobePath string
}

// NewFFmpeg creates a new FFmpeg processor. Empty paths default to the
// binaries found via PATH.
func NewFFmpeg(ffmpegPath, ffprobePath string) *FFmpeg {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	return &FFmpeg{ffmpegPath: ffmpegPath, ffprobePath: ffprobePath}
}

// RenderScene implements Compositor.
func (p *FFmpeg) RenderScene(ctx context.Context, scene SceneRender) error {
	if scene.Duration <= 0 {
		return fmt.Errorf("%w: got %.2f", ErrInvalidDuration, scene.Duration)
	}
	if scene.Width <= 0 || scene.Height <= 0 {
		return fmt.Errorf("%w: width=%d, height=%d", ErrInvalidDimensions, scene.Width, scene.Height)
	}

	if scene.VisualIsVideo {
		return p.renderClipScene(ctx, scene)
	}
	return p.renderImageScene(ctx, scene)
}

// renderImageScene animates a still image with a motion filter and muxes the
// narration audio.
func (p *FFmpeg) renderImageScene(ctx context.Context, scene SceneRender) error {
	args := []string{
		"-y",
		"-loop", "1", // Loop the image (required for zoompan)
		"-i", scene.VisualPath,
		"-i", scene.AudioPath,
		"-vf", motionFilter(scene.Width, scene.Height, scene.Duration),
		"-c:v", "libx264",
		"-t", fmt.Sprintf("%.2f", scene.Duration),
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-b:a", "128k",
		"-preset", "fast",
		"-crf", "23",
		"-r", fmt.Sprintf("%d", sceneFPS),
		"-shortest",
		scene.Output,
	}
	return p.runFFmpeg(ctx, args)
}

// renderClipScene trims a stock clip to the scene duration, fits it to the
// target dimensions with padding and muxes the narration audio. Short clips
// loop until the narration ends.
func (p *FFmpeg) renderClipScene(ctx context.Context, scene SceneRender) error {
	filter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=decrease,pad=%d:%d:(ow-iw)/2:(oh-ih)/2:black,setsar=1,fps=%d,format=yuv420p",
		scene.Width, scene.Height, scene.Width, scene.Height, sceneFPS)

	args := []string{
		"-y",
		"-stream_loop", "-1", // Loop the clip if it is shorter than the scene
		"-i", scene.VisualPath,
		"-i", scene.AudioPath,
		"-map", "0:v:0",
		"-map", "1:a:0",
		"-vf", filter,
		"-c:v", "libx264",
		"-t", fmt.Sprintf("%.2f", scene.Duration),
		"-c:a", "aac",
		"-b:a", "128k",
		"-preset", "fast",
		"-crf", "23",
		"-shortest",
		scene.Output,
	}
	return p.runFFmpeg(ctx, args)
}

// Concat implements Compositor. Scene videos are joined with crossfade
// transitions; if the filter graph fails, a plain re-encoding concat is the
// fallback.
func (p *FFmpeg) Concat(ctx context.Context, inputs []string, durations []float64, output string) error {
	if len(inputs) == 0 {
		return ErrNoInputs
	}
	if len(inputs) == 1 {
		return p.copyFile(inputs[0], output)
	}

	if err := p.concatWithCrossfade(ctx, inputs, durations, output); err != nil {
		if ctx.Err() != nil {
			return err
		}
		return p.concatWithDemuxer(ctx, inputs, output)
	}
	return nil
}

// concatWithCrossfade builds an xfade/acrossfade filter graph joining every
// input.
func (p *FFmpeg) concatWithCrossfade(ctx context.Context, inputs []string, durations []float64, output string) error {
	if len(durations) != len(inputs) {
		return fmt.Errorf("%w: durations must align with inputs", ErrInvalidDuration)
	}

	args := []string{"-y"}
	for _, in := range inputs {
		args = append(args, "-i", in)
	}

	var filters []string
	offset := 0.0
	videoIn := "[0:v]"
	audioIn := "[0:a]"
	for i := 1; i < len(inputs); i++ {
		offset += durations[i-1] - TransitionDuration

		videoOut := fmt.Sprintf("[v%d]", i)
		audioOut := fmt.Sprintf("[a%d]", i)
		filters = append(filters, fmt.Sprintf(
			"%s[%d:v]xfade=transition=fade:duration=%.2f:offset=%.2f%s",
			videoIn, i, TransitionDuration, offset, videoOut))
		filters = append(filters, fmt.Sprintf(
			"%s[%d:a]acrossfade=d=%.2f%s",
			audioIn, i, TransitionDuration, audioOut))
		videoIn = videoOut
		audioIn = audioOut
	}

	args = append(args,
		"-filter_complex", strings.Join(filters, ";"),
		"-map", videoIn,
		"-map", audioIn,
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-c:a", "aac",
		"-b:a", "128k",
		output,
	)
	return p.runFFmpeg(ctx, args)
}

// concatWithDemuxer joins inputs back to back, re-encoding for uniform
// streams.
func (p *FFmpeg) concatWithDemuxer(ctx context.Context, inputs []string, output string) error {
	listFile, err := p.createConcatList(inputs)
	if err != nil {
		return fmt.Errorf("create concat list: %w", err)
	}
	defer func() { _ = os.Remove(listFile) }()

	args := []string{
		"-y",
		"-f", "concat",
		"-safe", "0",
		"-i", listFile,
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-c:a", "aac",
		"-b:a", "128k",
		output,
	}
	return p.runFFmpeg(ctx, args)
}

// BurnSubtitles implements Compositor.
func (p *FFmpeg) BurnSubtitles(ctx context.Context, video, subtitlePath, output string) error {
	args := []string{
		"-y",
		"-i", video,
		"-vf", fmt.Sprintf("ass='%s'", escapeFilterPath(subtitlePath)),
		"-c:v", "libx264",
		"-preset", "fast",
		"-crf", "23",
		"-c:a", "copy",
		output,
	}
	return p.runFFmpeg(ctx, args)
}

// ExtractThumbnail implements Compositor.
func (p *FFmpeg) ExtractThumbnail(ctx context.Context, video, output string) error {
	args := []string{
		"-y",
		"-ss", "1", // Seek to 1 second
		"-i", video,
		"-frames:v", "1",
		"-vf", "scale=640:360",
		output,
	}
	return p.runFFmpeg(ctx, args)
}

// Duration implements Prober.
func (p *FFmpeg) Duration(ctx context.Context, path string) (float64, error) {
	// #nosec G204 - ffprobePath is set by the application, not user input
	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctx.Err() != nil {
			return 0, fmt.Errorf("ffprobe cancelled: %w", ctx.Err())
		}
		return 0, fmt.Errorf("%w: %w, stderr: %s", ErrFFprobeExecution, err, stderr.String())
	}

	var duration float64
	_, err = fmt.Sscanf(strings.TrimSpace(stdout.String()), "%f", &duration)
	if err != nil {
		return 0, fmt.Errorf("parse duration: %w", err)
	}

	return duration, nil
}

// motionFilter builds a zoompan filter animating a still image. The motion
// type varies per scene so back-to-back image scenes do not look identical.
func motionFilter(width, height int, duration float64) string {
	totalFrames := int(duration * sceneFPS)
	size := fmt.Sprintf("s=%dx%d", width, height)

	var zoompan string
	switch rand.IntN(5) {
	case 0: // zoom in
		zoompan = fmt.Sprintf("zoompan=z='min(zoom+0.0015,1.4)':d=%d:x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':%s", totalFrames, size)
	case 1: // zoom out
		zoompan = fmt.Sprintf("zoompan=z='if(lte(zoom,1.0),1.0,max(1.0,zoom-0.0015))':d=%d:x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':%s", totalFrames, size)
	case 2: // pan right
		zoompan = fmt.Sprintf("zoompan=z='1.3':d=%d:x='iw*(on/%d)':y='0':%s", totalFrames, totalFrames, size)
	case 3: // pan left
		zoompan = fmt.Sprintf("zoompan=z='1.3':d=%d:x='iw-iw*(on/%d)':y='0':%s", totalFrames, totalFrames, size)
	default: // zoom with diagonal pan
		zoompan = fmt.Sprintf("zoompan=z='min(zoom+0.0015,1.3)':d=%d:x='iw/2-(iw/zoom/2)+sin(on/%d*2*PI)*100':y='ih/2-(ih/zoom/2)+cos(on/%d*2*PI)*100':%s", totalFrames, totalFrames, totalFrames, size)
	}

	return zoompan + fmt.Sprintf(":fps=%d,format=yuv420p", sceneFPS)
}

// escapeFilterPath escapes a path for use inside a quoted filter argument.
func escapeFilterPath(path string) string {
	return strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`).Replace(path)
}

// createConcatList writes the file list consumed by ffmpeg's concat demuxer.
func (p *FFmpeg) createConcatList(inputs []string) (string, error) {
	f, err := os.CreateTemp("", "ffmpeg-concat-*.txt")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = f.Close() }()

	for _, path := range inputs {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("get absolute path for %s: %w", path, err)
		}
		escapedPath := strings.ReplaceAll(absPath, "'", "'\\''")
		if _, err := fmt.Fprintf(f, "file '%s'\n", escapedPath); err != nil {
			return "", fmt.Errorf("write to concat list: %w", err)
		}
	}

	return f.Name(), nil
}

// copyFile copies a file from src to dst.
func (p *FFmpeg) copyFile(src, dst string) error {
	input, err := os.ReadFile(src) // #nosec G304 - src is provided by trusted internal code
	if err != nil {
		return fmt.Errorf("read source file: %w", err)
	}
	if err := os.WriteFile(dst, input, 0600); err != nil {
		return fmt.Errorf("write destination file: %w", err)
	}
	return nil
}

// runFFmpeg executes ffmpeg with the given arguments and returns an error
// containing stderr output if the command fails.
func (p *FFmpeg) runFFmpeg(ctx context.Context, args []string) error {
	// #nosec G204 - ffmpegPath is set by the application, not user input
	cmd := exec.CommandContext(ctx, p.ffmpegPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg cancelled: %w", ctx.Err())
		}
		return &FFmpegError{
			Args:   args,
			Stderr: stderr.String(),
			Err:    err,
		}
	}

	return nil
}

// FFmpegError represents an error from running ffmpeg, including the stderr output.
type FFmpegError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *FFmpegError) Error() string {
	return fmt.Sprintf("ffmpeg error: %v\nargs: %v\nstderr: %s", e.Err, e.Args, e.Stderr)
}

func (e *FFmpegError) Unwrap() error {
	return e.Err
}
