package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/scriptsensei/videoforge/internal/job"
)

func TestQueue_PriorityOrdering(t *testing.T) {
	q := New()

	// Levels 9, 2 and 5 map to low, high and default.
	if err := q.Offer("job-a", job.PriorityFromLevel(9)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := q.Offer("job-b", job.PriorityFromLevel(2)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := q.Offer("job-c", job.PriorityFromLevel(5)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"job-b", "job-c", "job-a"}
	for _, expected := range want {
		got, err := q.Take(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != expected {
			t.Errorf("expected %s, got %s", expected, got)
		}
	}
}

func TestQueue_FIFOWithinClass(t *testing.T) {
	q := New()

	for _, id := range []string{"first", "second", "third"} {
		_ = q.Offer(id, job.PriorityDefault)
	}
	for _, expected := range []string{"first", "second", "third"} {
		got, err := q.Take(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != expected {
			t.Errorf("expected %s, got %s", expected, got)
		}
	}
}

func TestQueue_TakeBlocksUntilOffer(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	q := New()
	got := make(chan string, 1)

	go func() {
		id, err := q.Take(context.Background())
		if err != nil {
			return
		}
		got <- id
	}()

	// Give the taker a moment to block.
	time.Sleep(20 * time.Millisecond)
	select {
	case id := <-got:
		t.Fatalf("take returned %s before any offer", id)
	default:
	}

	_ = q.Offer("job-x", job.PriorityHigh)
	select {
	case id := <-got:
		if id != "job-x" {
			t.Errorf("expected job-x, got %s", id)
		}
	case <-time.After(time.Second):
		t.Fatal("take did not wake after offer")
	}
}

func TestQueue_TakeCancelledContext(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	q := New()
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() {
		_, err := q.Take(ctx)
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("take did not wake after cancel")
	}
}

func TestQueue_Close(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	q := New()

	errCh := make(chan error, 1)
	go func() {
		_, err := q.Take(context.Background())
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case err := <-errCh:
		if !errors.Is(err, ErrClosed) {
			t.Errorf("expected ErrClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("take did not wake after close")
	}

	if err := q.Offer("late", job.PriorityHigh); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed on offer after close, got %v", err)
	}
}

func TestQueue_ClosedQueueDoesNotDrain(t *testing.T) {
	q := New()
	_ = q.Offer("leftover", job.PriorityDefault)
	q.Close()

	if _, err := q.Take(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed even with items queued, got %v", err)
	}
}

func TestQueue_AtMostOnceDelivery(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	q := New()
	const n = 50
	for i := 0; i < n; i++ {
		_ = q.Offer(fmt.Sprintf("job-%d", i), job.PriorityDefault)
	}

	var mu sync.Mutex
	seen := make(map[string]int)
	var wg sync.WaitGroup

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				id, err := q.Take(ctx)
				if err != nil {
					return
				}
				mu.Lock()
				seen[id]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	total := 0
	for id, count := range seen {
		if count != 1 {
			t.Errorf("job %s delivered %d times", id, count)
		}
		total += count
	}
	if total != n {
		t.Errorf("expected %d deliveries, got %d", n, total)
	}
}

func TestQueue_Len(t *testing.T) {
	q := New()
	_ = q.Offer("a", job.PriorityHigh)
	_ = q.Offer("b", job.PriorityLow)

	if q.Len() != 2 {
		t.Errorf("expected length 2, got %d", q.Len())
	}
	_, _ = q.Take(context.Background())
	if q.Len() != 1 {
		t.Errorf("expected length 1, got %d", q.Len())
	}
}
