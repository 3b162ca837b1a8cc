package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/scriptsensei/videoforge/internal/job"
	"github.com/scriptsensei/videoforge/internal/media"
	"github.com/scriptsensei/videoforge/internal/push"
	"github.com/scriptsensei/videoforge/internal/script"
	"github.com/scriptsensei/videoforge/internal/stock"
	"github.com/scriptsensei/videoforge/internal/storage"
	"github.com/scriptsensei/videoforge/internal/subtitle"
)

const twoSceneScript = "The quick brown fox jumps over the lazy dog today. " +
	"A second scene follows with plenty of extra narration words here."

// fakeSynth writes a dummy audio file per scene.
type fakeSynth struct {
	mu    sync.Mutex
	err   error
	hook  func()
	calls int
}

func (f *fakeSynth) Synthesize(_ context.Context, _, _, _, outputDir string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hook != nil {
		f.hook()
	}
	if f.err != nil {
		return "", f.err
	}
	f.calls++
	path := filepath.Join(outputDir, fmt.Sprintf("audio_%03d.mp3", f.calls))
	if err := os.WriteFile(path, []byte("audio"), 0600); err != nil {
		return "", err
	}
	return path, nil
}

// fakeProber reports a fixed duration for every file.
type fakeProber struct {
	duration float64
	err      error
}

func (f *fakeProber) Duration(context.Context, string) (float64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.duration, nil
}

// fakeStock hands back a constant asset path.
type fakeStock struct {
	err error
}

func (f *fakeStock) Fetch(_ context.Context, _, _ string, preferVideo bool, outputDir string) (stock.Asset, error) {
	if f.err != nil {
		return stock.Asset{}, f.err
	}
	return stock.Asset{Path: filepath.Join(outputDir, "visual.jpg"), IsVideo: preferVideo}, nil
}

// fakeCompositor creates marker files where the pipeline expects outputs.
type fakeCompositor struct {
	renderErr error
	concatErr error
	burnErr   error
	thumbErr  error
}

func (f *fakeCompositor) RenderScene(_ context.Context, r media.SceneRender) error {
	if f.renderErr != nil {
		return f.renderErr
	}
	return os.WriteFile(r.Output, []byte("scene"), 0600)
}

func (f *fakeCompositor) Concat(_ context.Context, inputs []string, _ []float64, output string) error {
	if f.concatErr != nil {
		return f.concatErr
	}
	if len(inputs) == 0 {
		return errors.New("no inputs")
	}
	return os.WriteFile(output, []byte("video"), 0600)
}

func (f *fakeCompositor) BurnSubtitles(_ context.Context, _, _, output string) error {
	if f.burnErr != nil {
		return f.burnErr
	}
	return os.WriteFile(output, []byte("burned"), 0600)
}

func (f *fakeCompositor) ExtractThumbnail(_ context.Context, _, output string) error {
	if f.thumbErr != nil {
		return f.thumbErr
	}
	return os.WriteFile(output, []byte("thumb"), 0600)
}

// eventRecorder captures emitted events in order.
type eventRecorder struct {
	mu        sync.Mutex
	progress  []push.ProgressData
	completed []job.Result
	failed    []string
	cancelled int
}

func (r *eventRecorder) EmitStarted(string, string) {}

func (r *eventRecorder) EmitProgress(_ string, progress float64, message, step string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, push.ProgressData{Progress: progress, Message: message, Step: step})
}

func (r *eventRecorder) EmitCompleted(_ string, result job.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.completed = append(r.completed, result)
}

func (r *eventRecorder) EmitFailed(_ string, errMsg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, errMsg)
}

func (r *eventRecorder) EmitCancelled(string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cancelled++
}

// fixture wires a driver against an in-process store, a real filesystem
// layout and fake collaborators.
type fixture struct {
	store    *job.RedisStore
	layout   *storage.Local
	synth    *fakeSynth
	prober   *fakeProber
	stock    *fakeStock
	comp     *fakeCompositor
	events   *eventRecorder
	workRoot string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	workRoot := t.TempDir()
	layout, err := storage.NewLocal(t.TempDir(), workRoot)
	if err != nil {
		t.Fatalf("failed to create layout: %v", err)
	}

	return &fixture{
		store:    job.NewRedisStore(client, time.Hour),
		layout:   layout,
		synth:    &fakeSynth{},
		prober:   &fakeProber{duration: 3.0},
		stock:    &fakeStock{},
		comp:     &fakeCompositor{},
		events:   &eventRecorder{},
		workRoot: workRoot,
	}
}

func (f *fixture) driver(opts ...Option) *Driver {
	return NewDriver(Deps{
		Store:       f.store,
		Layout:      f.layout,
		Segmenter:   script.NewSentenceSegmenter(),
		Synthesizer: f.synth,
		Stock:       f.stock,
		Compositor:  f.comp,
		Prober:      f.prober,
		Subtitles:   subtitle.NewTimer(),
		Emitter:     f.events,
		Logger:      slog.New(slog.DiscardHandler),
	}, opts...)
}

// startedJob creates a job and moves it to STARTED, the state a worker hands
// it to the driver in.
func startedJob(t *testing.T, f *fixture, scriptText string, subtitles bool) *job.Job {
	t.Helper()

	req := job.Request{
		ScriptText:  scriptText,
		Locale:      "en-US",
		Platform:    "youtube",
		AspectRatio: job.AspectLandscape,
		SourceType:  job.SourceStockImage,
		Subtitles: job.SubtitlePolicy{
			Enabled:      subtitles,
			Style:        job.SubtitleStandard,
			WordsPerLine: 4,
		},
		DurationSeconds: 30,
	}
	j := job.New("user-1", "script-1", job.PriorityDefault, 3, req)
	ctx := context.Background()
	if err := f.store.Create(ctx, j); err != nil {
		t.Fatalf("failed to create job: %v", err)
	}
	started, err := f.store.MarkStarted(ctx, j.ID)
	if err != nil {
		t.Fatalf("failed to mark started: %v", err)
	}
	return started
}

func (f *fixture) workDir(jobID string) string {
	return filepath.Join(f.workRoot, jobID)
}

func TestRun_Success(t *testing.T) {
	f := newFixture(t)
	j := startedJob(t, f, twoSceneScript, true)

	if err := f.driver().Run(context.Background(), j); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := f.store.Get(context.Background(), j.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != job.StatusSuccess {
		t.Fatalf("expected SUCCESS, got %s", got.Status)
	}
	if got.Progress != 1.0 {
		t.Errorf("expected progress 1.0, got %v", got.Progress)
	}
	if got.Result == nil {
		t.Fatal("expected a result bundle")
	}
	if got.Result.SceneCount != 2 {
		t.Errorf("expected 2 scenes, got %d", got.Result.SceneCount)
	}
	if got.Result.Resolution != "1920x1080" || got.Result.Format != "mp4" {
		t.Errorf("unexpected result metadata: %+v", got.Result)
	}
	if got.Result.DurationSeconds != 3.0 {
		t.Errorf("expected probed duration, got %v", got.Result.DurationSeconds)
	}
	if got.Result.FileSizeBytes <= 0 {
		t.Errorf("expected a positive artifact size, got %d", got.Result.FileSizeBytes)
	}

	// The subtitled render replaces the artifact in place.
	content, err := os.ReadFile(got.Result.VideoPath)
	if err != nil {
		t.Fatalf("failed to read artifact: %v", err)
	}
	if string(content) != "burned" {
		t.Errorf("expected subtitled artifact, got %q", content)
	}
	if _, err := os.Stat(f.layout.SubtitlePath(j.ID)); err != nil {
		t.Errorf("expected subtitle file: %v", err)
	}
	if _, err := os.Stat(got.Result.ThumbnailPath); err != nil {
		t.Errorf("expected thumbnail: %v", err)
	}
	if _, err := os.Stat(f.workDir(j.ID)); !os.IsNotExist(err) {
		t.Error("expected work directory to be removed")
	}
}

func TestRun_ProgressMonotonicAndCompleted(t *testing.T) {
	f := newFixture(t)
	j := startedJob(t, f, twoSceneScript, true)

	if err := f.driver().Run(context.Background(), j); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f.events.mu.Lock()
	defer f.events.mu.Unlock()

	if len(f.events.progress) < 5 {
		t.Fatalf("expected progress updates across stages, got %d", len(f.events.progress))
	}
	prev := 0.0
	for i, p := range f.events.progress {
		if p.Progress <= prev {
			t.Errorf("progress not strictly increasing at update %d: %v -> %v", i, prev, p.Progress)
		}
		prev = p.Progress
	}
	last := f.events.progress[len(f.events.progress)-1]
	if last.Progress != 1.0 || last.Step != "completed" {
		t.Errorf("unexpected final progress update: %+v", last)
	}
	if len(f.events.completed) != 1 {
		t.Fatalf("expected one completed event, got %d", len(f.events.completed))
	}
	if f.events.completed[0].SceneCount != 2 {
		t.Errorf("completed event missing result: %+v", f.events.completed[0])
	}
}

func TestRun_EmptyScript(t *testing.T) {
	f := newFixture(t)
	j := startedJob(t, f, "   ", false)

	err := f.driver().Run(context.Background(), j)
	if !errors.Is(err, ErrScriptInvalid) {
		t.Fatalf("expected ErrScriptInvalid, got %v", err)
	}
	if Retryable(err) {
		t.Error("invalid script must not be retryable")
	}

	got, _ := f.store.Get(context.Background(), j.ID)
	if got.Status != job.StatusFailure {
		t.Errorf("expected FAILURE, got %s", got.Status)
	}
	if got.ErrorTrace != "scene_parsing" {
		t.Errorf("expected scene_parsing trace, got %q", got.ErrorTrace)
	}
	if len(f.events.failed) != 1 {
		t.Errorf("expected one failed event, got %d", len(f.events.failed))
	}
}

func TestRun_NarrationFailure(t *testing.T) {
	f := newFixture(t)
	f.synth.err = errors.New("tts unavailable")
	j := startedJob(t, f, twoSceneScript, false)

	err := f.driver().Run(context.Background(), j)
	if !errors.Is(err, ErrNarrationFailed) {
		t.Fatalf("expected ErrNarrationFailed, got %v", err)
	}
	if !Retryable(err) {
		t.Error("narration failure must be retryable")
	}

	got, _ := f.store.Get(context.Background(), j.ID)
	if got.Status != job.StatusFailure || got.ErrorTrace != "audio_generation" {
		t.Errorf("unexpected failure record: status=%s trace=%q", got.Status, got.ErrorTrace)
	}
}

func TestRun_CompositionFailure(t *testing.T) {
	f := newFixture(t)
	f.comp.renderErr = errors.New("encoder crashed")
	j := startedJob(t, f, twoSceneScript, false)

	err := f.driver().Run(context.Background(), j)
	if !errors.Is(err, ErrCompositionFailed) {
		t.Fatalf("expected ErrCompositionFailed, got %v", err)
	}
	if !Retryable(err) {
		t.Error("composition failure must be retryable")
	}

	got, _ := f.store.Get(context.Background(), j.ID)
	if got.Status != job.StatusFailure || got.ErrorTrace != "video_composition" {
		t.Errorf("unexpected failure record: status=%s trace=%q", got.Status, got.ErrorTrace)
	}
	if _, err := os.Stat(f.workDir(j.ID)); !os.IsNotExist(err) {
		t.Error("expected work directory to be removed after failure")
	}
}

func TestRun_Cancelled(t *testing.T) {
	f := newFixture(t)
	j := startedJob(t, f, twoSceneScript, false)

	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(ErrCancelled)

	err := f.driver().Run(ctx, j)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if Retryable(err) {
		t.Error("cancellation must not be retryable")
	}

	got, _ := f.store.Get(context.Background(), j.ID)
	if got.Status != job.StatusCancelled {
		t.Errorf("expected CANCELLED, got %s", got.Status)
	}
	if f.events.cancelled != 1 {
		t.Errorf("expected one cancelled event, got %d", f.events.cancelled)
	}
}

func TestRun_Interrupted(t *testing.T) {
	f := newFixture(t)
	j := startedJob(t, f, twoSceneScript, false)

	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(ErrInterrupted)

	err := f.driver().Run(ctx, j)
	if !errors.Is(err, ErrInterrupted) {
		t.Fatalf("expected ErrInterrupted, got %v", err)
	}
	if Retryable(err) {
		t.Error("interruption must not consume the retry budget")
	}

	got, _ := f.store.Get(context.Background(), j.ID)
	if got.Status != job.StatusPending {
		t.Errorf("expected the job back in PENDING, got %s", got.Status)
	}
	if got.RetryCount != 0 {
		t.Errorf("expected retry count untouched, got %d", got.RetryCount)
	}
	if len(f.events.failed) != 0 || f.events.cancelled != 0 {
		t.Errorf("expected no terminal event, got failed=%d cancelled=%d",
			len(f.events.failed), f.events.cancelled)
	}
}

func TestRun_ExternalCancelAbortsAttempt(t *testing.T) {
	f := newFixture(t)
	j := startedJob(t, f, twoSceneScript, false)

	// The record is cancelled behind the attempt's back, without the attempt
	// context being cancelled. The next progress write detects it.
	f.synth.hook = func() {
		if _, err := f.store.MarkCancelled(context.Background(), j.ID); err != nil {
			t.Errorf("failed to cancel record: %v", err)
		}
	}

	err := f.driver().Run(context.Background(), j)
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}

	got, _ := f.store.Get(context.Background(), j.ID)
	if got.Status != job.StatusCancelled {
		t.Errorf("expected CANCELLED, got %s", got.Status)
	}
	if len(f.events.failed) != 0 {
		t.Errorf("expected no failed event after the cancel, got %d", len(f.events.failed))
	}
	if f.events.cancelled != 1 {
		t.Errorf("expected one cancelled event, got %d", f.events.cancelled)
	}
}

func TestRun_DeadlineExceeded(t *testing.T) {
	f := newFixture(t)
	j := startedJob(t, f, twoSceneScript, false)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	err := f.driver().Run(ctx, j)
	if !errors.Is(err, ErrTimedOut) {
		t.Fatalf("expected ErrTimedOut, got %v", err)
	}

	got, _ := f.store.Get(context.Background(), j.ID)
	if got.Status != job.StatusFailure || got.ErrorTrace != "timeout" {
		t.Errorf("unexpected failure record: status=%s trace=%q", got.Status, got.ErrorTrace)
	}
}

func TestRun_SoftTimeout(t *testing.T) {
	f := newFixture(t)
	j := startedJob(t, f, twoSceneScript, false)

	err := f.driver(WithSoftTimeout(-time.Second)).Run(context.Background(), j)
	if !errors.Is(err, ErrTimedOut) {
		t.Fatalf("expected ErrTimedOut, got %v", err)
	}
	if !Retryable(err) {
		t.Error("timeout must be retryable")
	}

	got, _ := f.store.Get(context.Background(), j.ID)
	if got.Status != job.StatusFailure || got.ErrorTrace != "timeout" {
		t.Errorf("unexpected failure record: status=%s trace=%q", got.Status, got.ErrorTrace)
	}
}

func TestRun_SubtitleFailureDoesNotFailJob(t *testing.T) {
	f := newFixture(t)
	f.comp.burnErr = errors.New("filter not found")
	j := startedJob(t, f, twoSceneScript, true)

	if err := f.driver().Run(context.Background(), j); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := f.store.Get(context.Background(), j.ID)
	if got.Status != job.StatusSuccess {
		t.Fatalf("expected SUCCESS despite subtitle failure, got %s", got.Status)
	}

	// The artifact keeps the plain render when burn-in fails.
	content, err := os.ReadFile(got.Result.VideoPath)
	if err != nil {
		t.Fatalf("failed to read artifact: %v", err)
	}
	if string(content) != "video" {
		t.Errorf("expected unsubtitled artifact, got %q", content)
	}

	// The progress message must not claim subtitles were added.
	f.events.mu.Lock()
	defer f.events.mu.Unlock()
	found := false
	for _, p := range f.events.progress {
		if p.Progress == 0.85 {
			found = true
			if p.Message != "Subtitles skipped" {
				t.Errorf("expected a skipped-subtitles message, got %q", p.Message)
			}
		}
	}
	if !found {
		t.Error("expected a subtitle-stage progress update")
	}
}

func TestRun_ThumbnailFallsBackToPlaceholder(t *testing.T) {
	f := newFixture(t)
	f.comp.thumbErr = errors.New("seek past end")
	j := startedJob(t, f, twoSceneScript, false)

	if err := f.driver().Run(context.Background(), j); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := f.store.Get(context.Background(), j.ID)
	if got.Status != job.StatusSuccess {
		t.Fatalf("expected SUCCESS, got %s", got.Status)
	}
	if got.Result.ThumbnailPath == "" {
		t.Fatal("expected a placeholder thumbnail path")
	}
	info, err := os.Stat(got.Result.ThumbnailPath)
	if err != nil {
		t.Fatalf("expected placeholder thumbnail on disk: %v", err)
	}
	if info.Size() == 0 {
		t.Error("expected a non-empty placeholder thumbnail")
	}
}

func TestStageOf(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("%w: boom", ErrScriptInvalid), "scene_parsing"},
		{fmt.Errorf("%w: boom", ErrNarrationFailed), "audio_generation"},
		{fmt.Errorf("%w: boom", ErrCompositionFailed), "video_composition"},
		{fmt.Errorf("%w: boom", ErrTimedOut), "timeout"},
		{errors.New("boom"), "unknown"},
	}
	for _, tc := range cases {
		if got := stageOf(tc.err); got != tc.want {
			t.Errorf("stageOf(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}
