/*
dto.go - JSON shapes for the HTTP API

NAMING CONVENTION:
  - *DTO: response bodies
  - *Request: request bodies

DATES:
  Calendar days travel as "YYYY-MM-DD". Money travels as a decimal string
  ("1850.00") and is accepted as either a string or a JSON number.

VALIDATION:
  Write requests carry `validate` tags checked with go-playground/validator
  before anything reaches the store. The stateless evaluate endpoints are
  lenient instead: a malformed date there is treated as absent, the same way
  the engine treats it.
*/
package api

import (
	"github.com/shopspring/decimal"
	"github.com/warp/lease-engine/calendar"
	"github.com/warp/lease-engine/lease"
	"github.com/warp/lease-engine/portfolio"
)

// =============================================================================
// PROPERTIES
// =============================================================================

type PropertyDTO struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Address   string   `json:"address,omitempty"`
	TimeZone  string   `json:"time_zone"` // resolved zone actually used
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	CreatedAt string   `json:"created_at,omitempty"`
}

type CreatePropertyRequest struct {
	ID        string   `json:"id"`
	Name      string   `json:"name" validate:"required"`
	Address   string   `json:"address"`
	TimeZone  string   `json:"time_zone" validate:"omitempty,timezone"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude" validate:"omitempty,longitude"`
}

// =============================================================================
// UNITS
// =============================================================================

// UnitFields are the stored unit columns shared by create and evaluate.
type UnitFields struct {
	Number       string           `json:"number"`
	StoredStatus string           `json:"stored_status" validate:"omitempty,oneof=vacant occupied repairs"`
	StatusUntil  string           `json:"status_until" validate:"omitempty,datetime=2006-01-02"`
	RequiredRent *decimal.Decimal `json:"required_rent"`

	CurrentTenant     *string `json:"current_tenant"`
	CurrentLeaseStart string  `json:"current_lease_start" validate:"omitempty,datetime=2006-01-02"`
	CurrentLeaseEnd   string  `json:"current_lease_end" validate:"omitempty,datetime=2006-01-02"`

	IncomingTenant     *string `json:"incoming_tenant"`
	IncomingLeaseStart string  `json:"incoming_lease_start" validate:"omitempty,datetime=2006-01-02"`
	IncomingLeaseEnd   string  `json:"incoming_lease_end" validate:"omitempty,datetime=2006-01-02"`
}

// Record converts the fields into a unit row. Malformed dates become absent;
// a blank stored status means vacant.
func (f UnitFields) Record() portfolio.UnitRecord {
	status := lease.StoredStatus(f.StoredStatus)
	if f.StoredStatus == "" {
		status = lease.StoredVacant
	}
	return portfolio.UnitRecord{
		Number:             f.Number,
		StoredStatus:       status,
		StatusUntil:        calendar.ParseOptionalDay(f.StatusUntil),
		RequiredRent:       f.RequiredRent,
		CurrentTenant:      f.CurrentTenant,
		CurrentLeaseStart:  calendar.ParseOptionalDay(f.CurrentLeaseStart),
		CurrentLeaseEnd:    calendar.ParseOptionalDay(f.CurrentLeaseEnd),
		IncomingTenant:     f.IncomingTenant,
		IncomingLeaseStart: calendar.ParseOptionalDay(f.IncomingLeaseStart),
		IncomingLeaseEnd:   calendar.ParseOptionalDay(f.IncomingLeaseEnd),
	}
}

// CreateUnitRequest creates or replaces a unit. A blank number is rejected by
// the store.
type CreateUnitRequest struct {
	ID string `json:"id"`
	UnitFields
}

// UnitDTO is a stored unit plus its derived state.
type UnitDTO struct {
	ID         string `json:"id"`
	PropertyID string `json:"property_id"`
	UnitFields

	EffectiveStatus      lease.EffectiveStatus `json:"effective_status"`
	Rule                 lease.Rule            `json:"rule"`
	HasActiveMaintenance bool                  `json:"has_active_maintenance"`
	Revenue              RevenueDTO            `json:"revenue"`
}

type RevenueDTO struct {
	MonthlyRevenue  decimal.Decimal `json:"monthly_revenue"`
	ExpectedRevenue decimal.Decimal `json:"expected_revenue"`
}

// =============================================================================
// TENANTS
// =============================================================================

type CreateTenantRequest struct {
	ID         string `json:"id"`
	UnitID     string `json:"unit_id"`
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"omitempty,email"`
	LeaseStart string `json:"lease_start" validate:"omitempty,datetime=2006-01-02"`
	LeaseEnd   string `json:"lease_end" validate:"omitempty,datetime=2006-01-02"`
}

type TenantDTO struct {
	ID            string             `json:"id"`
	PropertyID    string             `json:"property_id"`
	UnitID        string             `json:"unit_id,omitempty"`
	Name          string             `json:"name"`
	Email         string             `json:"email,omitempty"`
	LeaseStart    string             `json:"lease_start,omitempty"`
	LeaseEnd      string             `json:"lease_end,omitempty"`
	LeaseStatus   lease.LeaseStatus  `json:"lease_status,omitempty"`
	Badge         lease.BadgeVariant `json:"badge,omitempty"`
	DaysRemaining int                `json:"days_remaining"`
}

// =============================================================================
// MAINTENANCE
// =============================================================================

type CreateMaintenanceRequest struct {
	ID     string `json:"id"`
	Title  string `json:"title" validate:"required"`
	Status string `json:"status" validate:"omitempty,oneof=pending in_progress completed cancelled"`
}

type MaintenanceDTO struct {
	ID        string                      `json:"id"`
	UnitID    string                      `json:"unit_id"`
	Title     string                      `json:"title"`
	Status    portfolio.MaintenanceStatus `json:"status"`
	CreatedAt string                      `json:"created_at,omitempty"`
}

// =============================================================================
// SUMMARIES
// =============================================================================

type PropertySummaryDTO struct {
	Property      PropertyDTO    `json:"property"`
	AsOf          string         `json:"as_of"`
	Today         string         `json:"today"`
	TotalUnits    int            `json:"total_units"`
	StatusCounts  map[string]int `json:"status_counts"`
	LeaseCounts   map[string]int `json:"lease_counts"`
	OccupancyRate string         `json:"occupancy_rate"`
	Revenue       RevenueDTO     `json:"revenue"`
	Units         []UnitDTO      `json:"units"`
	Tenants       []TenantDTO    `json:"tenants"`
}

type PortfolioSummaryDTO struct {
	AsOf          string               `json:"as_of"`
	TotalUnits    int                  `json:"total_units"`
	StatusCounts  map[string]int       `json:"status_counts"`
	OccupancyRate string               `json:"occupancy_rate"`
	Revenue       RevenueDTO           `json:"revenue"`
	Properties    []PropertySummaryDTO `json:"properties"`
}

// =============================================================================
// STATELESS EVALUATION
// =============================================================================

// EvaluateUnitRequest evaluates one unit without storing it. AsOf defaults to
// now and TimeZone to the server's default zone.
type EvaluateUnitRequest struct {
	UnitFields
	HasActiveMaintenance bool   `json:"has_active_maintenance"`
	AsOf                 string `json:"as_of"`
	TimeZone             string `json:"time_zone" validate:"omitempty,timezone"`
}

type UnitEvaluationDTO struct {
	Today           string                `json:"today"`
	EffectiveStatus lease.EffectiveStatus `json:"effective_status"`
	Rule            lease.Rule            `json:"rule"`
	Revenue         RevenueDTO            `json:"revenue"`
}

type EvaluateLeaseRequest struct {
	LeaseStart        string `json:"lease_start" validate:"required,datetime=2006-01-02"`
	LeaseEnd          string `json:"lease_end" validate:"required,datetime=2006-01-02"`
	AsOf              string `json:"as_of"`
	TimeZone          string `json:"time_zone" validate:"omitempty,timezone"`
	RenewalWindowDays *int   `json:"renewal_window_days" validate:"omitempty,min=0"`
}

type LeaseEvaluationDTO struct {
	Today         string             `json:"today"`
	Status        lease.LeaseStatus  `json:"status"`
	Badge         lease.BadgeVariant `json:"badge"`
	DaysRemaining int                `json:"days_remaining"`
}

// =============================================================================
// SCENARIOS & ERRORS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// FieldError is one failed validation rule.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}
