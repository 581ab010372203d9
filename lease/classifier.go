package lease

import "github.com/warp/lease-engine/calendar"

// =============================================================================
// LEASE STATUS CLASSIFIER - Tenant-level badge logic
// =============================================================================

// LeaseStatus is the lifecycle position of a tenant's lease.
type LeaseStatus string

const (
	LeaseUpcoming LeaseStatus = "upcoming"
	LeaseActive   LeaseStatus = "active"
	LeaseExpiring LeaseStatus = "expiring"
	LeaseExpired  LeaseStatus = "expired"
)

// LeaseStatuses lists every LeaseStatus in lifecycle order.
var LeaseStatuses = []LeaseStatus{LeaseUpcoming, LeaseActive, LeaseExpiring, LeaseExpired}

// DefaultRenewalWindowDays is how close to its end a lease counts as expiring.
const DefaultRenewalWindowDays = 90

// ClassifyLease places [start, end] relative to today:
//
//  1. today before start                      -> upcoming
//  2. today after end                         -> expired
//  3. end within renewalWindowDays of today   -> expiring
//  4. otherwise                               -> active
//
// A negative window is treated as zero.
func ClassifyLease(start, end, today calendar.Day, renewalWindowDays int) LeaseStatus {
	if renewalWindowDays < 0 {
		renewalWindowDays = 0
	}
	switch {
	case today.Before(start):
		return LeaseUpcoming
	case today.After(end):
		return LeaseExpired
	case today.DaysUntil(end) <= renewalWindowDays:
		return LeaseExpiring
	default:
		return LeaseActive
	}
}

// ClassifyOptional classifies a lease whose dates may be missing. ok is false
// when either date is absent.
func ClassifyOptional(start, end *calendar.Day, today calendar.Day, renewalWindowDays int) (LeaseStatus, bool) {
	if start == nil || end == nil {
		return "", false
	}
	return ClassifyLease(*start, *end, today, renewalWindowDays), true
}

// DaysRemaining counts days from today to end; zero once the lease is over.
func DaysRemaining(end, today calendar.Day) int {
	if n := today.DaysUntil(end); n > 0 {
		return n
	}
	return 0
}

// =============================================================================
// BADGES
// =============================================================================

// BadgeVariant is the UI token used to render a lease status.
type BadgeVariant string

const (
	BadgeDefault     BadgeVariant = "default"
	BadgeSecondary   BadgeVariant = "secondary"
	BadgeOutline     BadgeVariant = "outline"
	BadgeDestructive BadgeVariant = "destructive"
)

// badgeVariants is the single status -> badge table.
var badgeVariants = map[LeaseStatus]BadgeVariant{
	LeaseUpcoming: BadgeSecondary,
	LeaseActive:   BadgeDefault,
	LeaseExpiring: BadgeOutline,
	LeaseExpired:  BadgeDestructive,
}

// BadgeVariantFor returns the badge for status; unknown statuses get outline.
func BadgeVariantFor(status LeaseStatus) BadgeVariant {
	if v, ok := badgeVariants[status]; ok {
		return v
	}
	return BadgeOutline
}
