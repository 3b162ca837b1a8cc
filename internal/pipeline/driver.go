// Package pipeline runs one video generation attempt end to end: script
// segmentation, narration, visual acquisition, composition, subtitles,
// thumbnail and finalization. The driver owns all job mutation during the
// attempt and reports progress through the store and the push emitter.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/scriptsensei/videoforge/internal/job"
	"github.com/scriptsensei/videoforge/internal/media"
	"github.com/scriptsensei/videoforge/internal/metrics"
	"github.com/scriptsensei/videoforge/internal/push"
	"github.com/scriptsensei/videoforge/internal/script"
	"github.com/scriptsensei/videoforge/internal/stock"
	"github.com/scriptsensei/videoforge/internal/storage"
	"github.com/scriptsensei/videoforge/internal/subtitle"
	"github.com/scriptsensei/videoforge/internal/tts"
)

// Progress floors per stage. Progress is monotonic within an attempt; each
// stage only ever raises it.
const (
	progressInit      = 0.05
	progressSegmented = 0.10
	progressNarrate   = 0.30
	progressCompose   = 0.60
	progressComposed  = 0.80
	progressSubtitles = 0.85
	progressThumbnail = 0.95
)

// Step labels carried on progress updates.
const (
	stepInitialization = "initialization"
	stepSceneParsing   = "scene_parsing"
	stepAudio          = "audio_generation"
	stepComposition    = "video_composition"
	stepThumbnail      = "thumbnail_generation"
	stepFinalization   = "finalization"
	stepCompleted      = "completed"
)

// DefaultSoftTimeout is the cooperative per-attempt budget. The attempt
// aborts at the next stage boundary once it is exceeded; the hard context
// deadline is enforced separately by the worker pool.
const DefaultSoftTimeout = 25 * time.Minute

// Deps bundles the collaborators a Driver needs.
type Deps struct {
	Store       job.Store
	Layout      storage.Layout
	Segmenter   script.Segmenter
	Synthesizer tts.Synthesizer
	Stock       stock.Provider
	Compositor  media.Compositor
	Prober      media.Prober
	Subtitles   subtitle.Generator
	Emitter     push.Emitter
	Logger      *slog.Logger
}

// Driver executes pipeline attempts.
type Driver struct {
	deps        Deps
	softTimeout time.Duration
}

// Option configures a Driver.
type Option func(*Driver)

// WithSoftTimeout overrides the cooperative attempt budget.
func WithSoftTimeout(d time.Duration) Option {
	return func(dr *Driver) {
		dr.softTimeout = d
	}
}

// NewDriver creates a Driver.
func NewDriver(deps Deps, opts ...Option) *Driver {
	d := &Driver{deps: deps, softTimeout: DefaultSoftTimeout}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run executes one attempt for the job. On success the job is marked SUCCESS
// with its result bundle; on failure or cancellation the terminal state is
// recorded and the matching event emitted. The returned error classifies the
// outcome for the caller (nil, ErrCancelled, or one of the failure kinds);
// the caller decides about retries.
func (d *Driver) Run(ctx context.Context, j *job.Job) error {
	start := time.Now()
	defer func() {
		metrics.AttemptDuration.Observe(time.Since(start).Seconds())
	}()

	softDeadline := start.Add(d.softTimeout)
	logger := d.deps.Logger.With(slog.String("job_id", j.ID), slog.Int("attempt", j.RetryCount+1))

	err := d.attempt(ctx, j, softDeadline, logger)
	if err == nil {
		metrics.JobsFinishedTotal.WithLabelValues("success").Inc()
		return nil
	}

	// Terminal bookkeeping must survive a cancelled attempt context.
	bg := context.WithoutCancel(ctx)

	if errors.Is(err, ErrCancelled) {
		if _, mErr := d.deps.Store.MarkCancelled(bg, j.ID); mErr != nil {
			logger.Error("mark cancelled failed", slog.Any("error", mErr))
		}
		d.deps.Emitter.EmitCancelled(j.ID)
		metrics.JobsFinishedTotal.WithLabelValues("cancelled").Inc()
		logger.Info("attempt cancelled")
		return err
	}

	// A shutdown interruption is not a failure: the job goes back to PENDING
	// with its retry budget intact and no terminal event is pushed.
	if errors.Is(err, ErrInterrupted) {
		if _, mErr := d.deps.Store.MarkRequeued(bg, j.ID); mErr != nil {
			logger.Error("requeue interrupted job failed", slog.Any("error", mErr))
		}
		logger.Info("attempt interrupted, job requeued")
		return err
	}

	trace := stageOf(err)
	if _, mErr := d.deps.Store.MarkFailure(bg, j.ID, err.Error(), trace); mErr != nil {
		logger.Error("mark failure failed", slog.Any("error", mErr))
	}
	d.deps.Emitter.EmitFailed(j.ID, err.Error())
	metrics.JobsFinishedTotal.WithLabelValues("failure").Inc()
	logger.Warn("attempt failed", slog.String("stage", trace), slog.Any("error", err))
	return err
}

// attempt runs the stages and returns the first classified error.
func (d *Driver) attempt(ctx context.Context, j *job.Job, softDeadline time.Time, logger *slog.Logger) error {
	req := j.Request

	if err := interrupted(ctx, softDeadline); err != nil {
		return err
	}

	// Initialize.
	stageStart := time.Now()
	workDir, err := d.deps.Layout.CreateWorkDir(ctx, j.ID)
	if err != nil {
		return fmt.Errorf("%w: create workspace: %w", ErrCompositionFailed, err)
	}
	defer func() {
		if rmErr := d.deps.Layout.RemoveWorkDir(j.ID); rmErr != nil {
			logger.Warn("remove workdir failed", slog.Any("error", rmErr))
		}
	}()
	if err := d.progress(ctx, j.ID, progressInit, "Preparing workspace", stepInitialization); err != nil {
		return err
	}
	metrics.StageDuration.WithLabelValues(stepInitialization).Observe(time.Since(stageStart).Seconds())

	if err := interrupted(ctx, softDeadline); err != nil {
		return err
	}

	// Segment.
	stageStart = time.Now()
	scenes, err := d.deps.Segmenter.Segment(ctx, req.ScriptText, req.Locale)
	if err != nil {
		if errors.Is(err, script.ErrEmptyScript) {
			return fmt.Errorf("%w: %w", ErrScriptInvalid, err)
		}
		return fmt.Errorf("%w: segment script: %w", ErrScriptInvalid, err)
	}
	if err := d.progress(ctx, j.ID, progressSegmented,
		fmt.Sprintf("Parsed script into %d scenes", len(scenes)), stepSceneParsing); err != nil {
		return err
	}
	metrics.StageDuration.WithLabelValues(stepSceneParsing).Observe(time.Since(stageStart).Seconds())

	// Narrate. The measured audio duration replaces the word-count estimate;
	// everything downstream times against the measured value.
	stageStart = time.Now()
	for i := range scenes {
		if err := interrupted(ctx, softDeadline); err != nil {
			return err
		}

		audioPath, err := d.deps.Synthesizer.Synthesize(ctx, scenes[i].Text, req.Locale, req.VoiceID, workDir)
		if err != nil {
			return fmt.Errorf("%w: scene %d: %w", ErrNarrationFailed, i, err)
		}
		measured, err := d.deps.Prober.Duration(ctx, audioPath)
		if err != nil {
			return fmt.Errorf("%w: probe scene %d audio: %w", ErrNarrationFailed, i, err)
		}

		scenes[i].AudioPath = audioPath
		scenes[i].Duration = measured

		p := progressNarrate + (progressCompose-progressNarrate)*float64(i+1)/float64(len(scenes))
		if err := d.progress(ctx, j.ID, p,
			fmt.Sprintf("Generated narration %d/%d", i+1, len(scenes)), stepAudio); err != nil {
			return err
		}
	}
	metrics.StageDuration.WithLabelValues(stepAudio).Observe(time.Since(stageStart).Seconds())

	// Acquire visuals and compose scenes.
	stageStart = time.Now()
	width, height := req.AspectRatio.Dimensions()
	orientation := req.AspectRatio.Orientation()
	preferVideo := req.SourceType == job.SourceStockVideo

	sceneVideos := make([]string, len(scenes))
	durations := make([]float64, len(scenes))
	for i := range scenes {
		if err := interrupted(ctx, softDeadline); err != nil {
			return err
		}

		asset, err := d.deps.Stock.Fetch(ctx, scenes[i].Text, orientation, preferVideo, workDir)
		if err != nil {
			if cErr := interrupted(ctx, softDeadline); cErr != nil {
				return cErr
			}
			return fmt.Errorf("%w: acquire visual for scene %d: %w", ErrCompositionFailed, i, err)
		}
		scenes[i].VisualPath = asset.Path
		scenes[i].VisualIsVideo = asset.IsVideo

		output := filepath.Join(workDir, fmt.Sprintf("scene_%03d.mp4", i))
		err = d.deps.Compositor.RenderScene(ctx, media.SceneRender{
			VisualPath:    scenes[i].VisualPath,
			VisualIsVideo: scenes[i].VisualIsVideo,
			AudioPath:     scenes[i].AudioPath,
			Duration:      scenes[i].Duration,
			Width:         width,
			Height:        height,
			Output:        output,
		})
		if err != nil {
			if cErr := interrupted(ctx, softDeadline); cErr != nil {
				return cErr
			}
			return fmt.Errorf("%w: render scene %d: %w", ErrCompositionFailed, i, err)
		}
		sceneVideos[i] = output
		durations[i] = scenes[i].Duration

		p := progressCompose + (progressComposed-progressCompose)*float64(i+1)/float64(len(scenes)+1)
		if err := d.progress(ctx, j.ID, p,
			fmt.Sprintf("Composed scene %d/%d", i+1, len(scenes)), stepComposition); err != nil {
			return err
		}
	}

	if err := interrupted(ctx, softDeadline); err != nil {
		return err
	}
	if err := d.deps.Layout.EnsureOutputDir(j.ID); err != nil {
		return fmt.Errorf("%w: prepare output dir: %w", ErrCompositionFailed, err)
	}
	videoPath := d.deps.Layout.VideoPath(j.ID)
	if err := d.deps.Compositor.Concat(ctx, sceneVideos, durations, videoPath); err != nil {
		if cErr := interrupted(ctx, softDeadline); cErr != nil {
			return cErr
		}
		return fmt.Errorf("%w: concatenate scenes: %w", ErrCompositionFailed, err)
	}
	if err := d.progress(ctx, j.ID, progressComposed, "Video composition complete", stepComposition); err != nil {
		return err
	}
	metrics.StageDuration.WithLabelValues(stepComposition).Observe(time.Since(stageStart).Seconds())

	// Subtitles. Best effort: a subtitle failure never fails the job.
	if req.Subtitles.Enabled {
		if err := interrupted(ctx, softDeadline); err != nil {
			return err
		}
		subtitleMsg := "Subtitles added"
		if err := d.addSubtitles(ctx, j, scenes, videoPath, workDir); err != nil {
			logger.Warn("subtitles skipped", slog.Any("error", err))
			subtitleMsg = "Subtitles skipped"
		}
		if err := d.progress(ctx, j.ID, progressSubtitles, subtitleMsg, stepComposition); err != nil {
			return err
		}
	}

	// Thumbnail. Best effort: falls back to a placeholder.
	if err := interrupted(ctx, softDeadline); err != nil {
		return err
	}
	stageStart = time.Now()
	thumbnailPath := d.deps.Layout.ThumbnailPath(j.ID)
	if err := d.deps.Compositor.ExtractThumbnail(ctx, videoPath, thumbnailPath); err != nil {
		logger.Warn("thumbnail extraction failed, using placeholder", slog.Any("error", err))
		if phErr := stock.ThumbnailPlaceholder(thumbnailPath); phErr != nil {
			logger.Warn("thumbnail placeholder failed", slog.Any("error", phErr))
			thumbnailPath = ""
		}
	}
	if err := d.progress(ctx, j.ID, progressThumbnail, "Thumbnail generated", stepThumbnail); err != nil {
		return err
	}
	metrics.StageDuration.WithLabelValues(stepThumbnail).Observe(time.Since(stageStart).Seconds())

	// Finalize.
	if err := interrupted(ctx, softDeadline); err != nil {
		return err
	}
	stageStart = time.Now()
	finalDuration, err := d.deps.Prober.Duration(ctx, videoPath)
	if err != nil {
		return fmt.Errorf("%w: probe final video: %w", ErrCompositionFailed, err)
	}
	info, err := os.Stat(videoPath)
	if err != nil {
		return fmt.Errorf("%w: stat final video: %w", ErrCompositionFailed, err)
	}

	result := job.Result{
		VideoPath:       videoPath,
		ThumbnailPath:   thumbnailPath,
		DurationSeconds: finalDuration,
		FileSizeBytes:   info.Size(),
		Resolution:      req.AspectRatio.Resolution(),
		Format:          "mp4",
		SceneCount:      len(scenes),
	}

	// The single 1.0 update is emitted after the terminal write so observers
	// see strictly increasing progress with nothing after the terminal event.
	if _, err := d.deps.Store.MarkSuccess(context.WithoutCancel(ctx), j.ID, result); err != nil {
		if errors.Is(err, job.ErrInvalidTransition) {
			return fmt.Errorf("%w: job left the running state", ErrCancelled)
		}
		return fmt.Errorf("%w: record result: %w", ErrCompositionFailed, err)
	}
	d.deps.Emitter.EmitProgress(j.ID, 1.0, "Video generation complete", stepCompleted)
	d.deps.Emitter.EmitCompleted(j.ID, result)
	metrics.StageDuration.WithLabelValues(stepFinalization).Observe(time.Since(stageStart).Seconds())

	logger.Info("attempt succeeded",
		slog.Float64("duration_seconds", finalDuration),
		slog.Int("scenes", len(scenes)))
	return nil
}

// addSubtitles generates per-scene segments timed against the measured audio,
// shifts them onto the final timeline, writes the styled subtitle file and
// burns it into the artifact, replacing it atomically.
func (d *Driver) addSubtitles(ctx context.Context, j *job.Job, scenes []script.Scene, videoPath, workDir string) error {
	policy := j.Request.Subtitles
	wordsPerLine := policy.WordsPerLine
	if wordsPerLine <= 0 {
		wordsPerLine = 5
	}

	var all []subtitle.Segment
	offset := 0.0
	for i, scene := range scenes {
		segments, err := d.deps.Subtitles.Generate(ctx, scene.Duration, scene.Text, wordsPerLine)
		if err != nil {
			return fmt.Errorf("generate scene %d subtitles: %w", i, err)
		}
		all = append(all, subtitle.Offset(segments, offset)...)

		// Scenes overlap by the crossfade length in the final cut.
		offset += scene.Duration
		if i < len(scenes)-1 {
			offset -= media.TransitionDuration
		}
	}

	style := subtitle.StyleFor(string(policy.Style))
	assContent := subtitle.ExportASS(all, style)

	assPath := d.deps.Layout.SubtitlePath(j.ID)
	if err := os.WriteFile(assPath, []byte(assContent), 0600); err != nil {
		return fmt.Errorf("write subtitle file: %w", err)
	}

	burned := filepath.Join(workDir, "subtitled.mp4")
	if err := d.deps.Compositor.BurnSubtitles(ctx, videoPath, assPath, burned); err != nil {
		return fmt.Errorf("burn subtitles: %w", err)
	}
	if err := os.Rename(burned, videoPath); err != nil {
		return fmt.Errorf("replace artifact: %w", err)
	}
	return nil
}

// progress records a progress step and pushes it to observers. A rejected
// transition means the record went terminal behind the attempt's back (an
// external cancel) and aborts it; a store hiccup must not.
func (d *Driver) progress(ctx context.Context, jobID string, p float64, message, step string) error {
	if _, err := d.deps.Store.MarkProgress(context.WithoutCancel(ctx), jobID, p, message); err != nil {
		if errors.Is(err, job.ErrInvalidTransition) {
			return fmt.Errorf("%w: job left the running state", ErrCancelled)
		}
		d.deps.Logger.Warn("mark progress failed",
			slog.String("job_id", jobID), slog.Any("error", err))
	}
	d.deps.Emitter.EmitProgress(jobID, p, message, step)
	return nil
}

// interrupted translates context state and the soft deadline into the
// attempt outcome: ErrCancelled or ErrInterrupted when the attempt context
// carries that cause, ErrTimedOut for deadlines (hard or soft).
func interrupted(ctx context.Context, softDeadline time.Time) error {
	if ctx.Err() != nil {
		cause := context.Cause(ctx)
		if errors.Is(cause, ErrCancelled) {
			return ErrCancelled
		}
		if errors.Is(cause, ErrInterrupted) {
			return ErrInterrupted
		}
		return fmt.Errorf("%w: %w", ErrTimedOut, ctx.Err())
	}
	if time.Now().After(softDeadline) {
		return fmt.Errorf("%w: soft deadline exceeded", ErrTimedOut)
	}
	return nil
}

// stageOf maps a classified error to the step label recorded as the failure
// trace.
func stageOf(err error) string {
	switch {
	case errors.Is(err, ErrScriptInvalid):
		return stepSceneParsing
	case errors.Is(err, ErrNarrationFailed):
		return stepAudio
	case errors.Is(err, ErrCompositionFailed):
		return stepComposition
	case errors.Is(err, ErrTimedOut):
		return "timeout"
	default:
		return "unknown"
	}
}
