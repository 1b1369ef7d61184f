// Package ratelimit implements an in-memory sliding-window request
// counter keyed by an arbitrary client key (typically IP + route).
package ratelimit

import (
	"sync"
	"time"
)

// Limiter counts requests per key over a rolling window using the
// sliding-window-counter approximation: the previous window's count is
// weighted by how much of it still overlaps the rolling window and
// added to the current count.
type Limiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	buckets map[string]*bucket

	// now is replaceable in tests.
	now func() time.Time
}

type bucket struct {
	windowStart time.Time
	current     int
	previous    int
	lastSeen    time.Time
}

func New(limit int, window time.Duration) *Limiter {
	return &Limiter{
		limit:   limit,
		window:  window,
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// Allow records a request for key and reports whether it fits under
// the limit.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{windowStart: now}
		l.buckets[key] = b
	}
	l.roll(b, now)
	b.lastSeen = now

	elapsed := now.Sub(b.windowStart)
	overlap := 1.0 - float64(elapsed)/float64(l.window)
	if overlap < 0 {
		overlap = 0
	}
	estimated := float64(b.previous)*overlap + float64(b.current)
	if estimated >= float64(l.limit) {
		return false
	}
	b.current++
	return true
}

// roll advances the bucket's fixed windows so that windowStart is
// within one window of now.
func (l *Limiter) roll(b *bucket, now time.Time) {
	elapsed := now.Sub(b.windowStart)
	switch {
	case elapsed >= 2*l.window:
		b.previous = 0
		b.current = 0
		b.windowStart = now
	case elapsed >= l.window:
		b.previous = b.current
		b.current = 0
		b.windowStart = b.windowStart.Add(l.window)
	}
}

// Prune drops buckets idle for longer than two windows. Callers run it
// periodically; the limiter never spawns its own goroutine.
func (l *Limiter) Prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-2 * l.window)
	removed := 0
	for key, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
			removed++
		}
	}
	return removed
}

// Len reports the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}
