package lease

import "github.com/warp/lease-engine/calendar"

// =============================================================================
// EFFECTIVE STATUS RESOLVER
// =============================================================================

// Rule identifies which clause of the resolver produced a status.
type Rule string

const (
	RuleMaintenance     Rule = "active_maintenance"
	RuleCurrentLease    Rule = "current_lease"
	RuleIncomingStarted Rule = "incoming_started"
	RuleRepairsOverride Rule = "repairs_override"
	RuleDefaultVacant   Rule = "default_vacant"
)

// ResolveStatus derives a unit's occupancy on today. First match wins:
//
//  1. active maintenance                         -> repairs
//  2. current lease active today                 -> occupied
//  3. incoming lease has started                 -> occupied
//  4. stored repairs with statusUntil >= today   -> repairs
//  5. anything else                              -> vacant
//
// The stored status only matters for rule 4. A row still saying "occupied"
// after its lease ended resolves to vacant.
func ResolveStatus(u Unit, today calendar.Day) EffectiveStatus {
	status, _ := ResolveStatusWithReason(u, today)
	return status
}

// ResolveStatusWithReason is ResolveStatus plus the rule that fired.
func ResolveStatusWithReason(u Unit, today calendar.Day) (EffectiveStatus, Rule) {
	switch {
	case u.HasActiveMaintenance:
		return StatusRepairs, RuleMaintenance
	case u.CurrentActive(today):
		return StatusOccupied, RuleCurrentLease
	case u.IncomingStarted(today):
		// Promotion is computed, never persisted.
		return StatusOccupied, RuleIncomingStarted
	case u.overrideActive(today):
		return StatusRepairs, RuleRepairsOverride
	default:
		return StatusVacant, RuleDefaultVacant
	}
}

// overrideActive reports a manual, time-boxed repairs status. Without an
// expiry the override is ignored.
func (u Unit) overrideActive(today calendar.Day) bool {
	return u.StoredStatus == StoredRepairs && u.StatusUntil != nil &&
		!u.StatusUntil.IsZero() && today.BeforeOrEqual(*u.StatusUntil)
}
