package job

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// setupStore starts an in-process Redis and returns a store bound to it.
func setupStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisStore(client, time.Hour), mr
}

// assertIndexedOnce verifies the job appears in exactly the index matching
// its state.
func assertIndexedOnce(t *testing.T, store *RedisStore, jobID string, want Status) {
	t.Helper()
	ctx := context.Background()

	for _, st := range Statuses {
		jobs, err := store.ListByStatus(ctx, st, 0)
		if err != nil {
			t.Fatalf("unexpected error listing %s: %v", st, err)
		}
		found := false
		for _, j := range jobs {
			if j.ID == jobID {
				found = true
			}
		}
		if st == want && !found {
			t.Errorf("expected job in %s index", st)
		}
		if st != want && found {
			t.Errorf("did not expect job in %s index", st)
		}
	}
}

func TestRedisStore_CreateAndGet(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()

	j := newTestJob("u1")
	if err := store.Create(ctx, j); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.Get(ctx, j.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != j.ID || got.UserID != "u1" || got.Status != StatusPending {
		t.Errorf("round-trip mismatch: %+v", got)
	}
	if got.Request.ScriptText != j.Request.ScriptText {
		t.Error("expected request payload to round-trip")
	}
	if got.Request.Subtitles.WordsPerLine != 5 {
		t.Errorf("expected subtitle policy to round-trip, got %+v", got.Request.Subtitles)
	}

	if ttl := mr.TTL(jobKey(j.ID)); ttl <= 0 {
		t.Errorf("expected a TTL on the record, got %v", ttl)
	}
	assertIndexedOnce(t, store, j.ID, StatusPending)
}

func TestRedisStore_Get_NotFound(t *testing.T) {
	store, _ := setupStore(t)

	_, err := store.Get(context.Background(), "vid_missing")
	if !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound, got %v", err)
	}
}

func TestRedisStore_Unavailable(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()

	j := newTestJob("u1")
	if err := store.Create(ctx, j); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mr.Close()

	if _, err := store.Get(ctx, j.ID); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}
	if err := store.Create(ctx, newTestJob("u2")); !errors.Is(err, ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}
	if store.Healthy(ctx) {
		t.Error("expected Healthy to report false")
	}
}

func TestRedisStore_MarkStarted_Idempotent(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	j := newTestJob("u1")
	_ = store.Create(ctx, j)

	first, err := store.MarkStarted(ctx, j.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Status != StatusStarted {
		t.Errorf("expected status %s, got %s", StatusStarted, first.Status)
	}
	if first.StartedAt.IsZero() {
		t.Error("expected StartedAt to be set")
	}

	again, err := store.MarkStarted(ctx, j.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !again.StartedAt.Equal(first.StartedAt) {
		t.Error("expected StartedAt to be stable across repeated calls")
	}
	assertIndexedOnce(t, store, j.ID, StatusStarted)
}

func TestRedisStore_MarkProgress(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	j := newTestJob("u1")
	_ = store.Create(ctx, j)
	_, _ = store.MarkStarted(ctx, j.ID)

	got, err := store.MarkProgress(ctx, j.ID, 0.3, "Generating audio")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusProcessing {
		t.Errorf("expected first progress to move the job to %s, got %s", StatusProcessing, got.Status)
	}
	if got.Progress != 0.3 {
		t.Errorf("expected progress 0.3, got %f", got.Progress)
	}

	// Progress never decreases within an attempt.
	got, err = store.MarkProgress(ctx, j.ID, 0.2, "stale update")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Progress != 0.3 {
		t.Errorf("expected progress to stay at 0.3, got %f", got.Progress)
	}

	got, _ = store.MarkProgress(ctx, j.ID, 1.5, "overshoot")
	if got.Progress != 1 {
		t.Errorf("expected progress clamped to 1, got %f", got.Progress)
	}
	assertIndexedOnce(t, store, j.ID, StatusProcessing)
}

func TestRedisStore_MarkProgress_BeforeStart(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	j := newTestJob("u1")
	_ = store.Create(ctx, j)

	if _, err := store.MarkProgress(ctx, j.ID, 0.1, "too early"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestRedisStore_MarkSuccess(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	j := newTestJob("u1")
	_ = store.Create(ctx, j)
	_, _ = store.MarkStarted(ctx, j.ID)
	_, _ = store.MarkProgress(ctx, j.ID, 0.5, "composing")

	result := Result{
		VideoPath:       "/videos/" + j.ID + ".mp4",
		ThumbnailPath:   "/videos/" + j.ID + "_thumb.jpg",
		DurationSeconds: 14.2,
		FileSizeBytes:   1 << 20,
		Resolution:      "1080x1920",
		Format:          "mp4",
		SceneCount:      2,
	}
	got, err := store.MarkSuccess(ctx, j.ID, result)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusSuccess {
		t.Errorf("expected status %s, got %s", StatusSuccess, got.Status)
	}
	if got.Progress != 1 {
		t.Errorf("expected progress 1, got %f", got.Progress)
	}
	if got.Result == nil || got.Result.Resolution != "1080x1920" {
		t.Errorf("expected result bundle, got %+v", got.Result)
	}
	if got.CompletedAt.IsZero() {
		t.Error("expected CompletedAt to be set")
	}
	assertIndexedOnce(t, store, j.ID, StatusSuccess)
}

func TestRedisStore_MarkFailure(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	j := newTestJob("u1")
	_ = store.Create(ctx, j)
	_, _ = store.MarkStarted(ctx, j.ID)
	_, _ = store.MarkProgress(ctx, j.ID, 0.4, "narrating")

	got, err := store.MarkFailure(ctx, j.ID, "tts provider unreachable", "audio_generation")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusFailure {
		t.Errorf("expected status %s, got %s", StatusFailure, got.Status)
	}
	if got.Error != "tts provider unreachable" || got.ErrorTrace != "audio_generation" {
		t.Errorf("expected failure fields, got %q / %q", got.Error, got.ErrorTrace)
	}
	assertIndexedOnce(t, store, j.ID, StatusFailure)
}

func TestRedisStore_MarkCancelled_Idempotent(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	j := newTestJob("u1")
	_ = store.Create(ctx, j)

	got, err := store.MarkCancelled(ctx, j.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Errorf("expected status %s, got %s", StatusCancelled, got.Status)
	}

	// Second cancel and cancel-after-terminal are no-ops.
	got, err = store.MarkCancelled(ctx, j.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusCancelled {
		t.Errorf("expected status to stay %s, got %s", StatusCancelled, got.Status)
	}
	assertIndexedOnce(t, store, j.ID, StatusCancelled)
}

func TestRedisStore_MarkCancelled_KeepsSuccess(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	j := newTestJob("u1")
	_ = store.Create(ctx, j)
	_, _ = store.MarkStarted(ctx, j.ID)
	_, _ = store.MarkProgress(ctx, j.ID, 0.9, "finalizing")
	_, _ = store.MarkSuccess(ctx, j.ID, Result{VideoPath: "/v.mp4"})

	got, err := store.MarkCancelled(ctx, j.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusSuccess {
		t.Errorf("expected SUCCESS to be preserved, got %s", got.Status)
	}
}

func TestRedisStore_RetryMovesIndexes(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	j := newTestJob("u1")
	_ = store.Create(ctx, j)
	_, _ = store.MarkStarted(ctx, j.ID)
	_, _ = store.MarkProgress(ctx, j.ID, 0.4, "narrating")
	failed, _ := store.MarkFailure(ctx, j.ID, "boom", "")

	if err := failed.ResetForRetry(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Update(ctx, failed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, _ := store.Get(ctx, j.ID)
	if got.Status != StatusPending || got.RetryCount != 1 {
		t.Errorf("expected PENDING with retry count 1, got %s / %d", got.Status, got.RetryCount)
	}
	assertIndexedOnce(t, store, j.ID, StatusPending)
}

func TestRedisStore_MarkRequeued(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	j := newTestJob("u1")
	if err := store.Create(ctx, j); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.MarkStarted(ctx, j.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.MarkProgress(ctx, j.ID, 0.4, "narrating"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := store.MarkRequeued(ctx, j.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusPending {
		t.Errorf("expected PENDING, got %s", got.Status)
	}
	if got.RetryCount != 0 {
		t.Errorf("expected retry count untouched, got %d", got.RetryCount)
	}
	if got.Progress != 0 {
		t.Errorf("expected progress reset, got %v", got.Progress)
	}
	assertIndexedOnce(t, store, j.ID, StatusPending)
}

func TestRedisStore_MarkRequeued_NotRunning(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	j := newTestJob("u1")
	if err := store.Create(ctx, j); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := store.MarkRequeued(ctx, j.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestRedisStore_Delete(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	j := newTestJob("u1")
	_ = store.Create(ctx, j)

	ok, err := store.Delete(ctx, j.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Error("expected delete to report true")
	}

	if _, err := store.Get(ctx, j.ID); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected ErrJobNotFound after delete, got %v", err)
	}
	jobs, _ := store.ListByUser(ctx, "u1", 10, 0)
	if len(jobs) != 0 {
		t.Errorf("expected empty user index, got %d entries", len(jobs))
	}

	ok, err = store.Delete(ctx, j.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected second delete to report false")
	}
}

func TestRedisStore_ListByUser_Ordering(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	var ids []string
	for i := 0; i < 3; i++ {
		j := newTestJob("u1")
		j.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		_ = store.Create(ctx, j)
		ids = append(ids, j.ID)
	}
	// Another user's job must not leak into the listing.
	_ = store.Create(ctx, newTestJob("u2"))

	jobs, err := store.ListByUser(ctx, "u1", 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}
	// Newest first.
	if jobs[0].ID != ids[2] || jobs[2].ID != ids[0] {
		t.Errorf("expected creation-descending order, got %s, %s, %s", jobs[0].ID, jobs[1].ID, jobs[2].ID)
	}

	page, err := store.ListByUser(ctx, "u1", 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page) != 1 || page[0].ID != ids[1] {
		t.Errorf("expected offset paging to return the middle job, got %+v", page)
	}
}

func TestRedisStore_ListByStatus_OldestFirst(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	var ids []string
	for i := 0; i < 3; i++ {
		j := newTestJob("u1")
		j.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		_ = store.Create(ctx, j)
		ids = append(ids, j.ID)
	}

	jobs, err := store.ListByStatus(ctx, StatusPending, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0].ID != ids[0] || jobs[1].ID != ids[1] {
		t.Errorf("expected creation-ascending order, got %s, %s", jobs[0].ID, jobs[1].ID)
	}
}

func TestRedisStore_CountsByStatus(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	j1 := newTestJob("u1")
	j2 := newTestJob("u1")
	_ = store.Create(ctx, j1)
	_ = store.Create(ctx, j2)
	_, _ = store.MarkCancelled(ctx, j2.ID)

	counts, err := store.CountsByStatus(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counts[StatusPending] != 1 {
		t.Errorf("expected 1 pending, got %d", counts[StatusPending])
	}
	if counts[StatusCancelled] != 1 {
		t.Errorf("expected 1 cancelled, got %d", counts[StatusCancelled])
	}
	if counts[StatusSuccess] != 0 {
		t.Errorf("expected 0 success, got %d", counts[StatusSuccess])
	}
}

func TestRedisStore_EvictOlderThan(t *testing.T) {
	store, _ := setupStore(t)
	ctx := context.Background()

	old := newTestJob("u1")
	old.CreatedAt = time.Now().UTC().Add(-48 * time.Hour)
	_ = store.Create(ctx, old)
	_, _ = store.MarkStarted(ctx, old.ID)
	_, _ = store.MarkProgress(ctx, old.ID, 0.9, "finalizing")
	_, _ = store.MarkSuccess(ctx, old.ID, Result{VideoPath: "/v.mp4"})

	// Old but still pending: must survive.
	oldPending := newTestJob("u1")
	oldPending.CreatedAt = time.Now().UTC().Add(-48 * time.Hour)
	_ = store.Create(ctx, oldPending)

	// Fresh terminal: must survive.
	fresh := newTestJob("u1")
	_ = store.Create(ctx, fresh)
	_, _ = store.MarkCancelled(ctx, fresh.ID)

	evicted, err := store.EvictOlderThan(ctx, 24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if evicted != 1 {
		t.Errorf("expected 1 eviction, got %d", evicted)
	}

	if _, err := store.Get(ctx, old.ID); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("expected evicted job to be gone, got %v", err)
	}
	if _, err := store.Get(ctx, oldPending.ID); err != nil {
		t.Errorf("expected old pending job to survive, got %v", err)
	}
	if _, err := store.Get(ctx, fresh.ID); err != nil {
		t.Errorf("expected fresh terminal job to survive, got %v", err)
	}

	// No index may still reference the evicted job.
	for _, st := range Statuses {
		jobs, _ := store.ListByStatus(ctx, st, 0)
		for _, j := range jobs {
			if j.ID == old.ID {
				t.Errorf("evicted job still present in %s index", st)
			}
		}
	}
	users, _ := store.ListByUser(ctx, "u1", 10, 0)
	for _, j := range users {
		if j.ID == old.ID {
			t.Error("evicted job still present in user index")
		}
	}
}

func TestRedisStore_FetchSkipsExpiredRecords(t *testing.T) {
	store, mr := setupStore(t)
	ctx := context.Background()

	j1 := newTestJob("u1")
	j2 := newTestJob("u1")
	_ = store.Create(ctx, j1)
	_ = store.Create(ctx, j2)

	// Simulate the record expiring while the index entry lingers.
	mr.Del(jobKey(j1.ID))

	jobs, err := store.ListByUser(ctx, "u1", 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 1 || jobs[0].ID != j2.ID {
		t.Errorf("expected only the live record, got %+v", jobs)
	}
}
