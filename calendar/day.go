/*
Package calendar provides the day-granular date model shared by the lease engine.

PURPOSE:
  Every lease comparison in this module happens on calendar dates, never on raw
  timestamps. A Day has no time-of-day and no zone. The only way to turn an
  instant into a Day is through a property's time zone (see zone.go), so a
  lease ending on June 30 ends at local midnight for that property, wherever
  the server happens to run.

USAGE:
  loc := calendar.LoadLocation("America/New_York")
  today := calendar.Today(clock, loc)
  if today.After(leaseEnd) { ... }

SEE ALSO:
  - zone.go: instant -> Day conversion, property zones
  - clock.go: injected time source
*/
package calendar

import (
	"strings"
	"time"
)

// =============================================================================
// DAY - Calendar date without time of day
// =============================================================================

// Day is a calendar date. The zero value is not a valid date; optional dates
// are modelled as *Day.
type Day struct {
	Time time.Time
}

const dayLayout = "2006-01-02"

// NewDay builds a Day. Out-of-range values normalize the way time.Date does.
func NewDay(year int, month time.Month, day int) Day {
	return Day{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DayOf takes the year/month/day of t as written, ignoring its zone.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return NewDay(y, m, d)
}

// Comparison
func (d Day) Before(other Day) bool        { return d.Time.Before(other.Time) }
func (d Day) After(other Day) bool         { return d.Time.After(other.Time) }
func (d Day) Equal(other Day) bool         { return d.Time.Equal(other.Time) }
func (d Day) BeforeOrEqual(other Day) bool { return !d.After(other) }
func (d Day) AfterOrEqual(other Day) bool  { return !d.Before(other) }

// Arithmetic
func (d Day) AddDays(n int) Day   { return Day{Time: d.Time.AddDate(0, 0, n)} }
func (d Day) AddMonths(n int) Day { return Day{Time: d.Time.AddDate(0, n, 0)} }

const secondsPerDay = 24 * 60 * 60

// DaysUntil returns the number of calendar days from d to other. Negative when
// other is earlier.
func (d Day) DaysUntil(other Day) int {
	// Unix seconds, not time.Sub: a Duration saturates past ~292 years.
	return int((other.Time.Unix() - d.Time.Unix()) / secondsPerDay)
}

// Properties
func (d Day) Year() int         { return d.Time.Year() }
func (d Day) Month() time.Month { return d.Time.Month() }
func (d Day) Day() int          { return d.Time.Day() }
func (d Day) IsZero() bool      { return d.Time.IsZero() }

func (d Day) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Time.Format(dayLayout)
}

// Ptr returns a pointer to a copy of d. Handy for optional fields.
func (d Day) Ptr() *Day { return &d }

// =============================================================================
// PARSING
// =============================================================================

// ParseDay accepts "2006-01-02" or an RFC3339 timestamp. For timestamps the
// date is taken as written; zone conversion is the caller's job.
func ParseDay(s string) (Day, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dayLayout, s); err == nil {
		return DayOf(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Day{}, err
	}
	return DayOf(t), nil
}

// ParseOptionalDay returns nil for blank or unparseable input. Lease dates
// read from storage go through here: a bad date means "no date", not a fault.
func ParseOptionalDay(s string) *Day {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	d, err := ParseDay(s)
	if err != nil {
		return nil
	}
	return &d
}

// FormatOptional renders an optional day, "" for nil.
func FormatOptional(d *Day) string {
	if d == nil {
		return ""
	}
	return d.String()
}

// StartOfMonth returns the first day of d's month.
func StartOfMonth(d Day) Day { return NewDay(d.Year(), d.Month(), 1) }

// EndOfMonth returns the last day of d's month.
func EndOfMonth(d Day) Day { return NewDay(d.Year(), d.Month()+1, 1).AddDays(-1) }
