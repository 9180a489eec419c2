package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter admits at most `limit` starts within any rolling window.
// It bounds how often work may begin, not how much of it is in flight:
// callers admitted in an earlier window may keep running past the
// window boundary.
type Limiter struct {
	limit  int
	window time.Duration

	mu     sync.Mutex
	starts []time.Time
	now    func() time.Time
}

// NewLimiter creates a rolling-window limiter. limit must be positive;
// a zero window defaults to one second.
func NewLimiter(limit int, window time.Duration) *Limiter {
	if limit < 1 {
		limit = 1
	}
	if window <= 0 {
		window = time.Second
	}
	return &Limiter{
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

// Wait blocks until a new start is admitted or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		l.mu.Lock()
		now := l.now()
		l.prune(now)

		if len(l.starts) < l.limit {
			l.starts = append(l.starts, now)
			l.mu.Unlock()
			return nil
		}

		// Oldest admitted start leaves the window first.
		wakeAt := l.starts[0].Add(l.window)
		l.mu.Unlock()

		wait := wakeAt.Sub(now)
		if wait <= 0 {
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// prune drops starts that have aged out of the window. Caller holds mu.
func (l *Limiter) prune(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.starts) && !l.starts[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.starts = append(l.starts[:0], l.starts[i:]...)
	}
}
