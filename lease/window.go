package lease

import (
	"strings"

	"github.com/warp/lease-engine/calendar"
)

// =============================================================================
// WINDOW - A lease date range held by one tenant
// =============================================================================

// Window is a lease [Start, End], both days inclusive.
type Window struct {
	Tenant string
	Start  calendar.Day
	End    calendar.Day
}

// NewWindow builds a window from nullable columns. It reports ok=false when
// any part is missing, the tenant is blank, or the dates are inverted.
func NewWindow(tenant *string, start, end *calendar.Day) (Window, bool) {
	if tenant == nil || start == nil || end == nil {
		return Window{}, false
	}
	name := strings.TrimSpace(*tenant)
	if name == "" || start.IsZero() || end.IsZero() || start.After(*end) {
		return Window{}, false
	}
	return Window{Tenant: name, Start: *start, End: *end}, true
}

// ActiveOn reports whether day falls inside the window.
func (w Window) ActiveOn(day calendar.Day) bool {
	return w.Tenant != "" && w.Start.BeforeOrEqual(day) && day.BeforeOrEqual(w.End)
}

// Days returns the window length in days, counting both ends.
func (w Window) Days() int {
	return w.Start.DaysUntil(w.End) + 1
}

func (w Window) String() string {
	return w.Tenant + " [" + w.Start.String() + ", " + w.End.String() + "]"
}
