package calendar

import (
	"strings"
	"time"

	"github.com/bradfitz/latlong"
)

// =============================================================================
// PROPERTY TIME ZONES
// =============================================================================

// Lease transitions happen at local midnight for the property. Converting an
// instant with the wrong zone would flip occupancy a day early or late.

// Floating marks a time that stands for a calendar date rather than an
// instant. CalendarDate reads such a time as written in every zone.
var Floating = time.FixedZone("floating", 0)

// IsFloating reports whether t carries the Floating location.
func IsFloating(t time.Time) bool {
	return t.Location() == Floating
}

// CalendarDate returns the date instant falls on in loc. A nil loc means UTC.
// Floating times keep their own date.
func CalendarDate(instant time.Time, loc *time.Location) Day {
	if IsFloating(instant) {
		return DayOf(instant)
	}
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := instant.In(loc).Date()
	return NewDay(y, m, d)
}

// CalendarDateIn is CalendarDate with the zone given by IANA name.
func CalendarDateIn(instant time.Time, ianaName string) Day {
	return CalendarDate(instant, LoadLocation(ianaName))
}

// LoadLocation resolves an IANA zone name. Blank or unknown names fall back
// to UTC.
func LoadLocation(ianaName string) *time.Location {
	ianaName = strings.TrimSpace(ianaName)
	if ianaName == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(ianaName)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ValidZone reports whether ianaName names a loadable zone. Blank is not valid.
func ValidZone(ianaName string) bool {
	if strings.TrimSpace(ianaName) == "" {
		return false
	}
	_, err := time.LoadLocation(ianaName)
	return err == nil
}

// ZoneForCoordinates returns the IANA zone at lat/lng, or "" when the point
// is not covered (open ocean, bad coordinates).
func ZoneForCoordinates(lat, lng float64) string {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return ""
	}
	return latlong.LookupZoneName(lat, lng)
}

// ParseInstant accepts an RFC3339 timestamp or a bare "2006-01-02" date. A
// bare date comes back as noon on that date in the Floating location, so it is
// the same day for every property whatever its offset.
func ParseInstant(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	d, err := time.ParseInLocation(dayLayout, s, Floating)
	if err != nil {
		return time.Time{}, err
	}
	return d.Add(12 * time.Hour), nil
}
