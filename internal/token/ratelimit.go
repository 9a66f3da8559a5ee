package token

import (
	"sync"
	"time"
)

// RateLimiter decides whether a request identified by key is admitted.
// The default implementation is an in-process map; a distributed backend
// (e.g. a shared counter store) can be substituted without touching call
// sites.
type RateLimiter interface {
	Allow(key string) bool
}

// limitEntry tracks one identifier's request count in the current window.
type limitEntry struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is a process-local sliding-window rate limiter. In a
// horizontally scaled deployment it is a per-instance best-effort control,
// not a global guarantee.
type MemoryLimiter struct {
	mu      sync.Mutex
	entries map[string]*limitEntry
	max     int
	window  time.Duration
	now     func() time.Time
}

// NewMemoryLimiter creates a limiter admitting at most max requests per key
// within each window.
func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	if max < 1 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}

	return &MemoryLimiter{
		entries: make(map[string]*limitEntry),
		max:     max,
		window:  window,
		now:     time.Now,
	}
}

// Allow reports whether a request for key is admitted. On first use of a
// key, or after its window has elapsed, the counter resets to 1 and the
// request is admitted. At or above the ceiling the request is rejected
// without incrementing further.
func (l *MemoryLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	entry, ok := l.entries[key]
	if !ok || now.After(entry.resetAt) {
		l.entries[key] = &limitEntry{
			count:   1,
			resetAt: now.Add(l.window),
		}
		return true
	}

	if entry.count >= l.max {
		return false
	}

	entry.count++
	return true
}

// Sweep removes entries whose window has elapsed. It only bounds memory
// growth; Allow is correct without it. Intended to run on a fixed interval.
func (l *MemoryLimiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, entry := range l.entries {
		if now.After(entry.resetAt) {
			delete(l.entries, key)
		}
	}
}

// Len returns the number of tracked identifiers.
func (l *MemoryLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
