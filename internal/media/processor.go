// Package media renders and assembles video through the ffmpeg and ffprobe
// CLIs.
package media

import "context"

// SceneRender describes one scene to render: a visual (still image or video
// clip) combined with its narration audio at the target dimensions.
type SceneRender struct {
	VisualPath    string
	VisualIsVideo bool
	AudioPath     string
	// Duration is the scene length in seconds, normally the measured
	// narration duration.
	Duration float64
	Width    int
	Height   int
	Output   string
}

// Compositor is the port the pipeline consumes for video assembly.
type Compositor interface {
	// RenderScene produces one scene video. Still images get animated motion,
	// clips are trimmed and fitted to the target dimensions.
	RenderScene(ctx context.Context, scene SceneRender) error
	// Concat joins scene videos with crossfade transitions. durations holds
	// each input's length in seconds and must align with inputs.
	Concat(ctx context.Context, inputs []string, durations []float64, output string) error
	// BurnSubtitles renders an ASS subtitle file into the video.
	BurnSubtitles(ctx context.Context, video, subtitlePath, output string) error
	// ExtractThumbnail grabs a frame at one second scaled to 640x360.
	ExtractThumbnail(ctx context.Context, video, output string) error
}

// Prober reads media metadata.
type Prober interface {
	// Duration returns the media duration in seconds.
	Duration(ctx context.Context, path string) (float64, error)
}
