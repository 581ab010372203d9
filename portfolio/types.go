/*
Package portfolio evaluates properties, units and tenants with the lease engine.

PURPOSE:
  This is the caller the engine was built for: it loads records, works out
  the maintenance signal, picks "today" in each property's time zone from a
  single clock sample, and rolls per-unit results up into the figures that
  dashboards show (occupancy rate, recognized and expected rent, expiring
  leases).

KEY CONCEPTS:
  Records (Property, UnitRecord, Tenant, MaintenanceRecord) mirror storage.
  Results (UnitResult, TenantResult, PropertySummary) are computed per call
  and never stored.

SEE ALSO:
  - evaluator.go: aggregation
  - store.go: persistence contracts
  - lease/: the pure engine
*/
package portfolio

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/lease-engine/calendar"
	"github.com/warp/lease-engine/lease"
)

// =============================================================================
// RECORDS
// =============================================================================

// Property owns units and decides their time zone.
type Property struct {
	ID        string
	Name      string
	Address   string
	TimeZone  string   // IANA name; may be blank
	Latitude  *float64 // used to infer the zone when TimeZone is blank
	Longitude *float64
	CreatedAt time.Time
}

// Location returns the property's zone: TimeZone when set and loadable, then
// the zone at its coordinates, then UTC.
func (p Property) Location() *time.Location {
	if calendar.ValidZone(p.TimeZone) {
		return calendar.LoadLocation(p.TimeZone)
	}
	if p.Latitude != nil && p.Longitude != nil {
		if zone := calendar.ZoneForCoordinates(*p.Latitude, *p.Longitude); zone != "" {
			return calendar.LoadLocation(zone)
		}
	}
	return time.UTC
}

// UnitRecord is a unit row as stored.
type UnitRecord struct {
	ID           string
	PropertyID   string
	Number       string
	StoredStatus lease.StoredStatus
	StatusUntil  *calendar.Day
	RequiredRent *decimal.Decimal

	CurrentTenant     *string
	CurrentLeaseStart *calendar.Day
	CurrentLeaseEnd   *calendar.Day

	IncomingTenant     *string
	IncomingLeaseStart *calendar.Day
	IncomingLeaseEnd   *calendar.Day

	CreatedAt time.Time
}

// EngineUnit converts the row into engine input.
func (r UnitRecord) EngineUnit(hasActiveMaintenance bool) lease.Unit {
	return lease.Unit{
		StoredStatus:         r.StoredStatus,
		StatusUntil:          r.StatusUntil,
		RequiredRent:         r.RequiredRent,
		CurrentTenant:        r.CurrentTenant,
		CurrentLeaseStart:    r.CurrentLeaseStart,
		CurrentLeaseEnd:      r.CurrentLeaseEnd,
		IncomingTenant:       r.IncomingTenant,
		IncomingLeaseStart:   r.IncomingLeaseStart,
		IncomingLeaseEnd:     r.IncomingLeaseEnd,
		HasActiveMaintenance: hasActiveMaintenance,
	}
}

// Validate checks a row before it is written. The engine itself accepts
// anything; this only guards the write path.
func (r UnitRecord) Validate() error {
	if strings.TrimSpace(r.PropertyID) == "" {
		return &ValidationError{Field: "property_id", Reason: "required"}
	}
	if strings.TrimSpace(r.Number) == "" {
		return &ValidationError{Field: "number", Reason: "required"}
	}
	if _, ok := lease.ParseStoredStatus(string(r.StoredStatus)); !ok {
		return &ValidationError{Field: "stored_status", Reason: "must be vacant, occupied or repairs"}
	}
	if r.RequiredRent != nil && r.RequiredRent.IsNegative() {
		return &ValidationError{Field: "required_rent", Reason: "must not be negative"}
	}
	return nil
}

// Tenant is a person holding a lease on a unit.
type Tenant struct {
	ID         string
	PropertyID string
	UnitID     string
	Name       string
	Email      string
	LeaseStart *calendar.Day
	LeaseEnd   *calendar.Day
	CreatedAt  time.Time
}

func (t Tenant) Validate() error {
	if strings.TrimSpace(t.PropertyID) == "" {
		return &ValidationError{Field: "property_id", Reason: "required"}
	}
	if strings.TrimSpace(t.Name) == "" {
		return &ValidationError{Field: "name", Reason: "required"}
	}
	if t.LeaseStart != nil && t.LeaseEnd != nil && t.LeaseStart.After(*t.LeaseEnd) {
		return &ValidationError{Field: "lease_end", Reason: "must not be before lease_start"}
	}
	return nil
}

// MaintenanceStatus is the workflow state of a maintenance request.
type MaintenanceStatus string

const (
	MaintenancePending    MaintenanceStatus = "pending"
	MaintenanceInProgress MaintenanceStatus = "in_progress"
	MaintenanceCompleted  MaintenanceStatus = "completed"
	MaintenanceCancelled  MaintenanceStatus = "cancelled"
)

// Active reports whether the request should put its unit into repairs.
func (s MaintenanceStatus) Active() bool {
	return s == MaintenancePending || s == MaintenanceInProgress
}

func (s MaintenanceStatus) Valid() bool {
	switch s {
	case MaintenancePending, MaintenanceInProgress, MaintenanceCompleted, MaintenanceCancelled:
		return true
	}
	return false
}

// MaintenanceRecord is a maintenance request against a unit.
type MaintenanceRecord struct {
	ID        string
	UnitID    string
	Title     string
	Status    MaintenanceStatus
	CreatedAt time.Time
}

// ActiveMaintenanceUnits returns the set of unit IDs with at least one
// pending or in-progress request.
func ActiveMaintenanceUnits(records []MaintenanceRecord) map[string]bool {
	active := make(map[string]bool)
	for _, m := range records {
		if m.Status.Active() {
			active[m.UnitID] = true
		}
	}
	return active
}

// =============================================================================
// RESULTS
// =============================================================================

// UnitResult is the derived state of one unit.
type UnitResult struct {
	Unit    UnitRecord
	Status  lease.EffectiveStatus
	Rule    lease.Rule
	Revenue lease.RevenueResult
	// HasActiveMaintenance echoes the signal the status was computed with.
	HasActiveMaintenance bool
}

// TenantResult is the derived lease state of one tenant. Status is empty
// when the tenant's lease dates are incomplete.
type TenantResult struct {
	Tenant        Tenant
	Status        lease.LeaseStatus
	Badge         lease.BadgeVariant
	DaysRemaining int
}

// PropertySummary aggregates one property at one instant.
type PropertySummary struct {
	Property      Property
	AsOf          time.Time
	Today         calendar.Day
	TotalUnits    int
	StatusCounts  map[lease.EffectiveStatus]int
	LeaseCounts   map[lease.LeaseStatus]int
	OccupancyRate decimal.Decimal // percent, two decimals
	Revenue       lease.RevenueResult
	Units         []UnitResult
	Tenants       []TenantResult
}

// PortfolioSummary aggregates every property at one instant.
type PortfolioSummary struct {
	AsOf          time.Time
	Properties    []PropertySummary
	TotalUnits    int
	StatusCounts  map[lease.EffectiveStatus]int
	OccupancyRate decimal.Decimal
	Revenue       lease.RevenueResult
}
