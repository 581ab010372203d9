package lease

import (
	"github.com/shopspring/decimal"
	"github.com/warp/lease-engine/calendar"
)

// =============================================================================
// REVENUE CALCULATOR
// =============================================================================

// RevenueResult holds the per-unit monthly figures. Callers sum them.
type RevenueResult struct {
	// MonthlyRevenue is rent from a tenancy in force today.
	MonthlyRevenue decimal.Decimal
	// ExpectedRevenue is the planning figure: rent for any configured lease.
	ExpectedRevenue decimal.Decimal
}

// Add sums two results.
func (r RevenueResult) Add(other RevenueResult) RevenueResult {
	return RevenueResult{
		MonthlyRevenue:  r.MonthlyRevenue.Add(other.MonthlyRevenue),
		ExpectedRevenue: r.ExpectedRevenue.Add(other.ExpectedRevenue),
	}
}

// ZeroRevenue is the additive identity.
func ZeroRevenue() RevenueResult {
	return RevenueResult{MonthlyRevenue: decimal.Zero, ExpectedRevenue: decimal.Zero}
}

// ComputeRevenue derives the unit's revenue on today.
//
// This deliberately does not go through ResolveStatus: a unit under active
// maintenance resolves to repairs, but its tenant still pays rent.
func ComputeRevenue(u Unit, today calendar.Day) RevenueResult {
	result := ZeroRevenue()
	if u.RequiredRent == nil {
		return result
	}
	rent := *u.RequiredRent

	if u.Tenanted(today) {
		result.MonthlyRevenue = rent
	}
	if u.HasConfiguredLease(today) {
		result.ExpectedRevenue = rent
	}
	return result
}
