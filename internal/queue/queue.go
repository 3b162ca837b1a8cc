// Package queue provides the in-process priority queue that feeds ready jobs
// to the worker pool, plus the retry scheduler that parks delayed re-offers.
package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/scriptsensei/videoforge/internal/job"
)

// ErrClosed is returned by Offer and Take once the queue has been closed.
var ErrClosed = errors.New("queue: closed")

// classes lists the priority classes in service order.
var classes = []job.Priority{job.PriorityHigh, job.PriorityDefault, job.PriorityLow}

// Queue delivers ready job IDs to workers. A lower class is always served
// first; within one class, delivery is FIFO by Offer time. Each offered job
// is delivered to exactly one taker. Queue contents are not durable: pending
// jobs are recovered from the store on startup.
type Queue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	items  map[job.Priority][]string
	closed bool
}

// New creates an empty queue.
func New() *Queue {
	q := &Queue{items: make(map[job.Priority][]string, len(classes))}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Offer enqueues a job without blocking.
// Returns ErrClosed once the queue has been closed.
func (q *Queue) Offer(jobID string, class job.Priority) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrClosed
	}
	q.items[class] = append(q.items[class], jobID)
	q.cond.Signal()
	return nil
}

// Take blocks until a job is available, the context is cancelled or the
// queue is closed. A closed queue returns ErrClosed immediately, even when
// items remain; undelivered jobs stay PENDING in the store and are re-offered
// by the next startup recovery scan.
func (q *Queue) Take(ctx context.Context) (string, error) {
	stop := context.AfterFunc(ctx, func() {
		q.mu.Lock()
		q.cond.Broadcast()
		q.mu.Unlock()
	})
	defer stop()

	q.mu.Lock()
	defer q.mu.Unlock()
	for {
		if q.closed {
			return "", ErrClosed
		}
		if id, ok := q.popLocked(); ok {
			return id, nil
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		q.cond.Wait()
	}
}

// popLocked removes the head of the highest non-empty class.
func (q *Queue) popLocked() (string, bool) {
	for _, class := range classes {
		if list := q.items[class]; len(list) > 0 {
			id := list[0]
			q.items[class] = list[1:]
			return id, true
		}
	}
	return "", false
}

// Close rejects further offers and wakes every blocked taker with ErrClosed.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.cond.Broadcast()
}

// Len returns the number of queued jobs across all classes.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	n := 0
	for _, class := range classes {
		n += len(q.items[class])
	}
	return n
}
