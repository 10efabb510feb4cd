package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Clock is the minimal time source the limiter needs; injectable for tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

const window = time.Minute

// Limiter is a process-wide sliding one-minute admission window. The
// purge-check-append sequence runs under a single mutex: under-counting
// would blow the upstream quota, over-counting would reject real capacity.
type Limiter struct {
	mu         sync.Mutex
	ceiling    int
	retryDelay time.Duration
	clock      Clock
	admitted   []time.Time
}

func NewLimiter(ceiling int, retryDelay time.Duration, clock Clock) *Limiter {
	if ceiling <= 0 {
		ceiling = 1
	}
	if retryDelay <= 0 {
		retryDelay = 5 * time.Second
	}
	if clock == nil {
		clock = systemClock{}
	}
	return &Limiter{
		ceiling:    ceiling,
		retryDelay: retryDelay,
		clock:      clock,
		admitted:   make([]time.Time, 0, ceiling),
	}
}

// Allow purges entries older than the window, then admits the call if the
// ceiling has not been reached. A rejected call does not mutate the window.
func (l *Limiter) Allow() bool {
	now := l.clock.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	l.purge(now)
	if len(l.admitted) >= l.ceiling {
		return false
	}
	l.admitted = append(l.admitted, now)
	return true
}

// Wait blocks until a call is admitted or ctx is done, sleeping the
// configured retry delay between attempts. Only batch/background callers
// should use this; request paths must fail fast with Allow.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		if l.Allow() {
			return nil
		}
		timer := time.NewTimer(l.retryDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Current reports the number of admissions inside the live window.
func (l *Limiter) Current() int {
	now := l.clock.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.purge(now)
	return len(l.admitted)
}

// Ceiling reports the configured per-minute maximum.
func (l *Limiter) Ceiling() int {
	return l.ceiling
}

// purge drops entries strictly older than the window; an entry exactly one
// window old still counts.
func (l *Limiter) purge(now time.Time) {
	cutoff := now.Add(-window)
	i := 0
	for i < len(l.admitted) && l.admitted[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		l.admitted = append(l.admitted[:0], l.admitted[i:]...)
	}
}
