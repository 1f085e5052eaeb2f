// Package ratelimit is a sliding-window request limiter keyed by an arbitrary
// identifier (client IP, session id).
package ratelimit

import (
	"sync"
	"time"
)

// Limiter allows at most Max events per identifier inside any Window.
type Limiter struct {
	max    int
	window time.Duration
	now    func() time.Time

	mu        sync.Mutex
	events    map[string][]time.Time
	lastSweep time.Time
}

// Option customises a Limiter.
type Option func(*Limiter)

// WithClock injects the time source.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) {
		if now != nil {
			l.now = now
		}
	}
}

// New builds a limiter. A non-positive max disables limiting.
func New(max int, window time.Duration, opts ...Option) *Limiter {
	l := &Limiter{
		max:    max,
		window: window,
		now:    time.Now,
		events: make(map[string][]time.Time),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow records an event for id and reports whether it fits in the window.
// Rejected events are not recorded.
func (l *Limiter) Allow(id string) bool {
	if l == nil || l.max <= 0 {
		return true
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweepLocked(now)
	recent := l.pruneLocked(id, now)
	if len(recent) >= l.max {
		return false
	}
	l.events[id] = append(recent, now)
	return true
}

// Remaining reports how many events id may still make in the current window.
func (l *Limiter) Remaining(id string) int {
	if l == nil || l.max <= 0 {
		return -1
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	remaining := l.max - len(l.pruneLocked(id, l.now()))
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RetryAfter is how long id must wait before its oldest event leaves the
// window. Zero when an event would be allowed now.
func (l *Limiter) RetryAfter(id string) time.Duration {
	if l == nil || l.max <= 0 {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	recent := l.pruneLocked(id, now)
	if len(recent) < l.max {
		return 0
	}
	return recent[0].Add(l.window).Sub(now)
}

// Reset forgets id.
func (l *Limiter) Reset(id string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.events, id)
}

// Max is the configured limit.
func (l *Limiter) Max() int {
	if l == nil {
		return 0
	}
	return l.max
}

// Len reports how many identifiers hold events.
func (l *Limiter) Len() int {
	if l == nil {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// sweepLocked prunes every identifier at most once per window, so ids that
// never come back do not stay in memory.
func (l *Limiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < l.window {
		return
	}
	l.lastSweep = now
	for id := range l.events {
		l.pruneLocked(id, now)
	}
}

func (l *Limiter) pruneLocked(id string, now time.Time) []time.Time {
	start := now.Add(-l.window)
	events := l.events[id]
	keep := 0
	for keep < len(events) && !events[keep].After(start) {
		keep++
	}
	recent := events[keep:]
	if len(recent) == 0 {
		delete(l.events, id)
		return nil
	}
	l.events[id] = recent
	return recent
}
