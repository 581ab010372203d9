package portfolio

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/lease-engine/calendar"
	"github.com/warp/lease-engine/lease"
)

// =============================================================================
// EVALUATOR
// =============================================================================

// Evaluator runs the lease engine over stored rows.
//
// Each public pass samples Clock exactly once. A portfolio pass that takes
// several seconds still evaluates every unit at the same instant; only the
// calendar day differs between properties in different zones.
type Evaluator struct {
	Clock             calendar.Clock
	RenewalWindowDays int
}

// NewEvaluator returns an evaluator. A nil clock means the system clock.
func NewEvaluator(clock calendar.Clock, renewalWindowDays int) *Evaluator {
	if clock == nil {
		clock = calendar.SystemClock{}
	}
	return &Evaluator{Clock: clock, RenewalWindowDays: renewalWindowDays}
}

// WithClock returns a copy that reads time from clock. Used for "as of" views.
func (e *Evaluator) WithClock(clock calendar.Clock) *Evaluator {
	cp := *e
	cp.Clock = clock
	return &cp
}

// Now samples the clock.
func (e *Evaluator) Now() time.Time {
	if e.Clock == nil {
		return time.Now()
	}
	return e.Clock.Now()
}

// EvaluateProperty derives every unit and tenant of p at instant now. It does
// no I/O and the same inputs always give the same summary.
func (e *Evaluator) EvaluateProperty(p Property, units []UnitRecord, tenants []Tenant, maintenance []MaintenanceRecord, now time.Time) PropertySummary {
	today := calendar.CalendarDate(now, p.Location())
	active := ActiveMaintenanceUnits(maintenance)

	summary := PropertySummary{
		Property:     p,
		AsOf:         now,
		Today:        today,
		TotalUnits:   len(units),
		StatusCounts: newStatusCounts(),
		LeaseCounts:  make(map[lease.LeaseStatus]int, len(lease.LeaseStatuses)),
		Revenue:      lease.ZeroRevenue(),
		Units:        make([]UnitResult, 0, len(units)),
		Tenants:      make([]TenantResult, 0, len(tenants)),
	}
	for _, s := range lease.LeaseStatuses {
		summary.LeaseCounts[s] = 0
	}

	for _, rec := range units {
		result := EvaluateUnit(rec, active[rec.ID], today)
		summary.StatusCounts[result.Status]++
		summary.Revenue = summary.Revenue.Add(result.Revenue)
		summary.Units = append(summary.Units, result)
	}

	for _, t := range tenants {
		result := e.EvaluateTenant(t, today)
		if result.Status != "" {
			summary.LeaseCounts[result.Status]++
		}
		summary.Tenants = append(summary.Tenants, result)
	}

	summary.OccupancyRate = OccupancyRate(summary.StatusCounts[lease.StatusOccupied], summary.TotalUnits)
	return summary
}

// EvaluateUnit runs the resolver and revenue calculator for one row.
func EvaluateUnit(rec UnitRecord, hasActiveMaintenance bool, today calendar.Day) UnitResult {
	u := rec.EngineUnit(hasActiveMaintenance)
	status, rule := lease.ResolveStatusWithReason(u, today)
	return UnitResult{
		Unit:                 rec,
		Status:               status,
		Rule:                 rule,
		Revenue:              lease.ComputeRevenue(u, today),
		HasActiveMaintenance: hasActiveMaintenance,
	}
}

// EvaluateTenant classifies one tenant's lease.
func (e *Evaluator) EvaluateTenant(t Tenant, today calendar.Day) TenantResult {
	result := TenantResult{Tenant: t}
	status, ok := lease.ClassifyOptional(t.LeaseStart, t.LeaseEnd, today, e.RenewalWindowDays)
	if !ok {
		return result
	}
	result.Status = status
	result.Badge = lease.BadgeVariantFor(status)
	result.DaysRemaining = lease.DaysRemaining(*t.LeaseEnd, today)
	return result
}

// =============================================================================
// STORE-BACKED PASSES
// =============================================================================

// Snapshot loads one property and evaluates it.
func (e *Evaluator) Snapshot(ctx context.Context, r Reader, propertyID string) (PropertySummary, error) {
	p, err := r.GetProperty(ctx, propertyID)
	if err != nil {
		return PropertySummary{}, err
	}
	return e.snapshotAt(ctx, r, p, e.Now())
}

// Portfolio evaluates every property at one instant.
func (e *Evaluator) Portfolio(ctx context.Context, r Reader) (PortfolioSummary, error) {
	now := e.Now()

	props, err := r.ListProperties(ctx)
	if err != nil {
		return PortfolioSummary{}, fmt.Errorf("listing properties: %w", err)
	}

	out := PortfolioSummary{
		AsOf:         now,
		Properties:   make([]PropertySummary, 0, len(props)),
		StatusCounts: newStatusCounts(),
		Revenue:      lease.ZeroRevenue(),
	}
	for _, p := range props {
		if err := ctx.Err(); err != nil {
			return PortfolioSummary{}, err
		}
		s, err := e.snapshotAt(ctx, r, p, now)
		if err != nil {
			return PortfolioSummary{}, err
		}
		out.Properties = append(out.Properties, s)
		out.TotalUnits += s.TotalUnits
		for status, n := range s.StatusCounts {
			out.StatusCounts[status] += n
		}
		out.Revenue = out.Revenue.Add(s.Revenue)
	}
	out.OccupancyRate = OccupancyRate(out.StatusCounts[lease.StatusOccupied], out.TotalUnits)
	return out, nil
}

func (e *Evaluator) snapshotAt(ctx context.Context, r Reader, p Property, now time.Time) (PropertySummary, error) {
	units, err := r.ListUnits(ctx, p.ID)
	if err != nil {
		return PropertySummary{}, fmt.Errorf("listing units for %s: %w", p.ID, err)
	}
	tenants, err := r.ListTenants(ctx, p.ID)
	if err != nil {
		return PropertySummary{}, fmt.Errorf("listing tenants for %s: %w", p.ID, err)
	}
	maintenance, err := r.ListMaintenance(ctx, p.ID)
	if err != nil {
		return PropertySummary{}, fmt.Errorf("listing maintenance for %s: %w", p.ID, err)
	}
	return e.EvaluateProperty(p, units, tenants, maintenance, now), nil
}

// =============================================================================
// HELPERS
// =============================================================================

// ExpiringLeases returns the tenants classified expiring, soonest first.
func ExpiringLeases(s PropertySummary) []TenantResult {
	var out []TenantResult
	for _, t := range s.Tenants {
		if t.Status == lease.LeaseExpiring {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DaysRemaining != out[j].DaysRemaining {
			return out[i].DaysRemaining < out[j].DaysRemaining
		}
		return out[i].Tenant.Name < out[j].Tenant.Name
	})
	return out
}

// OccupancyRate is occupied/total as a percentage rounded to two places.
// Units in repairs count toward the total. Zero units gives zero.
func OccupancyRate(occupied, total int) decimal.Decimal {
	if total <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(occupied)).
		Mul(decimal.NewFromInt(100)).
		DivRound(decimal.NewFromInt(int64(total)), 2)
}

func newStatusCounts() map[lease.EffectiveStatus]int {
	counts := make(map[lease.EffectiveStatus]int, len(lease.EffectiveStatuses))
	for _, s := range lease.EffectiveStatuses {
		counts[s] = 0
	}
	return counts
}
