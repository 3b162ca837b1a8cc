// Package ratelimit provides the per-user rolling-window submission cap.
package ratelimit

import (
	"sync"
	"time"
)

const (
	// DefaultLimit is the number of job creations allowed per user per window.
	DefaultLimit = 10
	// DefaultWindow is the rolling window length.
	DefaultWindow = time.Hour
)

// Limiter admits up to limit creations per user within a rolling window.
// State is held in memory only; a restart clears all windows.
type Limiter struct {
	limit  int
	window time.Duration

	mu    sync.Mutex
	users map[string]*userWindow
}

// userWindow holds one user's recent creation timestamps under its own lock.
type userWindow struct {
	mu    sync.Mutex
	times []time.Time
}

// New creates a limiter. Non-positive arguments fall back to the defaults.
func New(limit int, window time.Duration) *Limiter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Limiter{
		limit:  limit,
		window: window,
		users:  make(map[string]*userWindow),
	}
}

// user returns the window for userID, creating it on first use.
func (l *Limiter) user(userID string) *userWindow {
	l.mu.Lock()
	defer l.mu.Unlock()

	u, ok := l.users[userID]
	if !ok {
		u = &userWindow{}
		l.users[userID] = u
	}
	return u
}

// Check reports whether the user may create another job right now.
// Timestamps older than the window are trimmed on every check.
func (l *Limiter) Check(userID string) bool {
	u := l.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()

	u.trim(time.Now().Add(-l.window))
	return len(u.times) < l.limit
}

// Record appends a creation timestamp for the user.
func (l *Limiter) Record(userID string) {
	u := l.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()

	u.times = append(u.times, time.Now())
}

// Count returns how many creations the user has inside the current window.
func (l *Limiter) Count(userID string) int {
	u := l.user(userID)
	u.mu.Lock()
	defer u.mu.Unlock()

	u.trim(time.Now().Add(-l.window))
	return len(u.times)
}

func (u *userWindow) trim(cutoff time.Time) {
	keep := u.times[:0]
	for _, ts := range u.times {
		if ts.After(cutoff) {
			keep = append(keep, ts)
		}
	}
	u.times = keep
}
