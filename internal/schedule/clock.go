package schedule

import "time"

// Clock is the single source of "now" for the scheduling core.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant. Useful in tests and previews.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }
