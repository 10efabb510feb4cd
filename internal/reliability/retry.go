package reliability

import (
	"context"
	"time"
)

// LinearBackoff computes the delay before retrying a failed attempt:
// attempt × base, for 1-based attempt numbers.
func LinearBackoff(attempt int, base time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(attempt) * base
}

// Sleep waits for d unless ctx is done first, so a caller timeout aborts
// cleanly mid-backoff instead of parking the goroutine.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do runs fn up to attempts times, sleeping delay(attempt) after each
// failure. Errors rejected by retryable stop the loop immediately; the
// last error is returned once attempts are exhausted.
func Do(ctx context.Context, attempts int, delay func(int) time.Duration, retryable func(error) bool, fn func(context.Context) error) error {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if retryable != nil && !retryable(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}
		if err := Sleep(ctx, delay(attempt)); err != nil {
			return err
		}
	}
	return lastErr
}
