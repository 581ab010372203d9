/*
Package lease is the lease lifecycle & revenue derivation engine.

PURPOSE:
  Reconciles what is stored about a unit (a status column, the current and
  incoming lease fields, a manual override with expiry) and a live maintenance
  signal into the facts dashboards need:

    - EffectiveStatus: vacant / occupied / repairs on a given day
    - RevenueResult:   recognized rent vs. expected rent
    - LeaseStatus:     upcoming / active / expiring / expired for a tenant

KEY CONCEPTS:
  StoredStatus is advisory. Leases start and end without anyone rewriting the
  row, so the persisted value goes stale. EffectiveStatus is derived on every
  call and is never written back.

  Every function here is total and pure. Missing or malformed dates make a
  lease window absent; they are never errors. "Today" is always a parameter.

SEE ALSO:
  - window.go: lease window model
  - resolver.go: occupancy rule chain
  - revenue.go: revenue figures
  - classifier.go: tenant lease badges
*/
package lease

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/lease-engine/calendar"
)

// =============================================================================
// STATUSES
// =============================================================================

// StoredStatus is the status column as persisted. It is a hint only.
type StoredStatus string

const (
	StoredVacant   StoredStatus = "vacant"
	StoredOccupied StoredStatus = "occupied"
	StoredRepairs  StoredStatus = "repairs"
)

// ParseStoredStatus maps a raw column value. Unknown values report ok=false;
// callers may still carry them, they simply never trigger the repairs override.
func ParseStoredStatus(s string) (StoredStatus, bool) {
	switch st := StoredStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case StoredVacant, StoredOccupied, StoredRepairs:
		return st, true
	default:
		return st, false
	}
}

// EffectiveStatus is the derived occupancy state of a unit on a day.
type EffectiveStatus string

const (
	StatusVacant   EffectiveStatus = "vacant"
	StatusOccupied EffectiveStatus = "occupied"
	StatusRepairs  EffectiveStatus = "repairs"
)

// EffectiveStatuses lists every EffectiveStatus in display order.
var EffectiveStatuses = []EffectiveStatus{StatusOccupied, StatusVacant, StatusRepairs}

func (s EffectiveStatus) Valid() bool {
	switch s {
	case StatusVacant, StatusOccupied, StatusRepairs:
		return true
	}
	return false
}

// =============================================================================
// UNIT - Engine input
// =============================================================================

// Unit is the engine's view of a unit row plus the maintenance signal.
// Pointer fields are nullable columns.
type Unit struct {
	StoredStatus StoredStatus
	StatusUntil  *calendar.Day
	RequiredRent *decimal.Decimal

	CurrentTenant     *string
	CurrentLeaseStart *calendar.Day
	CurrentLeaseEnd   *calendar.Day

	IncomingTenant     *string
	IncomingLeaseStart *calendar.Day
	IncomingLeaseEnd   *calendar.Day

	// HasActiveMaintenance is true iff some maintenance record for the unit is
	// pending or in progress. Computed by the caller.
	HasActiveMaintenance bool
}

// CurrentWindow returns the current lease window when it is well formed.
func (u Unit) CurrentWindow() (Window, bool) {
	return NewWindow(u.CurrentTenant, u.CurrentLeaseStart, u.CurrentLeaseEnd)
}

// IncomingWindow returns the incoming lease window when it is well formed.
func (u Unit) IncomingWindow() (Window, bool) {
	return NewWindow(u.IncomingTenant, u.IncomingLeaseStart, u.IncomingLeaseEnd)
}

// CurrentActive reports whether the current window is active on today.
func (u Unit) CurrentActive(today calendar.Day) bool {
	w, ok := u.CurrentWindow()
	return ok && w.ActiveOn(today)
}

// IncomingStarted reports whether an incoming tenant's lease has begun.
// Only the tenant and start date matter; the end date is not consulted.
func (u Unit) IncomingStarted(today calendar.Day) bool {
	return present(u.IncomingTenant) && u.IncomingLeaseStart != nil &&
		u.IncomingLeaseStart.BeforeOrEqual(today)
}

// Tenanted reports whether rent is being earned on today: the current lease
// is active or the incoming lease has started.
func (u Unit) Tenanted(today calendar.Day) bool {
	return u.CurrentActive(today) || u.IncomingStarted(today)
}

// HasConfiguredLease reports whether a tenancy is planned for the unit: a well
// formed current or incoming window, or an incoming lease that has started.
// Whether the window is active on today does not matter.
func (u Unit) HasConfiguredLease(today calendar.Day) bool {
	if _, ok := u.CurrentWindow(); ok {
		return true
	}
	if _, ok := u.IncomingWindow(); ok {
		return true
	}
	return u.IncomingStarted(today)
}

func present(s *string) bool {
	return s != nil && strings.TrimSpace(*s) != ""
}
