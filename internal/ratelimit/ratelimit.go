package ratelimit

import (
	"errors"
	"sync"
	"time"

	"CompetitorWatch/internal/ports"
)

// ErrRateLimited signals that the per-origin quota is exhausted. It is
// retryable; callers must not treat it as a permanent failure.
var ErrRateLimited = errors.New("rate limited")

// Limiter enforces a fixed quota per rolling window, independently for each
// network origin, so one hostile origin never starves others.
type Limiter struct {
	mu     sync.Mutex
	quota  int
	window time.Duration
	hits   map[string][]time.Time
	now    func() time.Time
}

var _ ports.RateLimiter = (*Limiter)(nil)

// New builds a limiter allowing quota permits per window per origin.
func New(quota int, window time.Duration) *Limiter {
	if quota <= 0 {
		quota = 5
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{
		quota:  quota,
		window: window,
		hits:   map[string][]time.Time{},
		now:    time.Now,
	}
}

// Acquire grants a permit for the origin or returns ErrRateLimited.
func (l *Limiter) Acquire(origin string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)

	recent := l.hits[origin][:0]
	for _, t := range l.hits[origin] {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}

	if len(recent) >= l.quota {
		l.hits[origin] = recent
		return ErrRateLimited
	}

	l.hits[origin] = append(recent, now)
	return nil
}
