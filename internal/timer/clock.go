package timer

import "time"

// Clock abstracts time for deterministic elapsed-time tests. The production
// clock relies on Go's monotonic reading inside time.Time, so wall-clock
// adjustments cannot produce negative elapsed segments.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the real process clock.
func SystemClock() Clock { return systemClock{} }
