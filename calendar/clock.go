package calendar

import "time"

// =============================================================================
// CLOCK - Injected time source
// =============================================================================

// Clock supplies "now". Nothing in the engine calls time.Now directly; an
// aggregation pass samples its Clock once and evaluates every unit at that
// instant.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant. Used by tests and by "as of"
// requests.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time { return c.At }

// Today returns the calendar day the clock is on in loc.
func Today(clock Clock, loc *time.Location) Day {
	return CalendarDate(clock.Now(), loc)
}
