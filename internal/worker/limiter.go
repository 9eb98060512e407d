package worker

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// WindowLimiter admits at most limit calls per fixed window. The window starts
// on the first call after the previous one ended; once exhausted, callers wait
// until it resets.
type WindowLimiter struct {
	mu     sync.Mutex
	clock  clockwork.Clock
	limit  int
	window time.Duration
	used   int
	reset  time.Time
}

func NewWindowLimiter(limit int, window time.Duration, clock clockwork.Clock) *WindowLimiter {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if limit < 1 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &WindowLimiter{
		clock:  clock,
		limit:  limit,
		window: window,
		reset:  clock.Now(),
	}
}

// Wait blocks until a slot is free, then takes it.
func (l *WindowLimiter) Wait(ctx context.Context) error {
	for {
		wait, ok := l.reserve()
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.clock.After(wait):
		}
	}
}

func (l *WindowLimiter) reserve() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if !now.Before(l.reset) {
		l.used = 0
		l.reset = now.Add(l.window)
	}
	if l.used < l.limit {
		l.used++
		return 0, true
	}
	return max(l.reset.Sub(now), 0), false
}

// Used is the number of calls admitted in the current window.
func (l *WindowLimiter) Used() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.used
}
