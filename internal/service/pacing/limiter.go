package pacing

import (
	"sync"
	"time"
)

// Limiter enforces a trailing one-hour cap on emitted signals. It is safe
// for concurrent use.
type Limiter struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	stamps []time.Time
	now    func() time.Time
}

// NewLimiter creates a limiter allowing max signals per trailing hour.
func NewLimiter(max int) *Limiter {
	return &Limiter{
		max:    max,
		window: time.Hour,
		now:    time.Now,
	}
}

// Allow reports whether another signal may be emitted now and, if so,
// records it. Rejected signals are dropped, not queued.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.prune(now)
	if len(l.stamps) >= l.max {
		return false
	}
	l.stamps = append(l.stamps, now)
	return true
}

// Count returns the number of signals inside the current trailing window.
func (l *Limiter) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(l.now())
	return len(l.stamps)
}

// SetMax updates the hourly cap. Already-recorded signals keep counting
// against the new cap.
func (l *Limiter) SetMax(max int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if max > 0 {
		l.max = max
	}
}

func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.stamps) && !l.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.stamps = append(l.stamps[:0], l.stamps[i:]...)
	}
}
