/*
scenarios.go - Demo data loaders

PURPOSE:
  Populates the store with small, realistic portfolios that exercise every
  resolver rule and lease status. Dates are laid out relative to "today" in
  each property's zone at load time, so a scenario looks the same whenever it
  is loaded.

AVAILABLE SCENARIOS:
  single-building:   One building covering every resolver rule
  lease-turnover:    Units between an ending lease and the next tenant
  multi-city:        Three zones; shows the day changing by property

HOW SCENARIOS WORK:
 1. Reset the store
 2. Create properties, units, tenants, maintenance requests
 3. Remember the scenario ID for GET /api/scenarios/current

USAGE VIA API:
	POST /api/scenarios/load
	{"scenario_id": "single-building"}

NOTE:
	Loading a scenario wipes the store. Development and demos only.
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/lease-engine/calendar"
	"github.com/warp/lease-engine/lease"
	"github.com/warp/lease-engine/portfolio"
	"go.uber.org/zap"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

type scenarioLoader func(ctx context.Context, w portfolio.Writer, now time.Time) error

type scenario struct {
	ScenarioDTO
	load scenarioLoader
}

var scenarios = []scenario{
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "single-building",
			Name:        "Single Building",
			Description: "One building with an active lease, a promoted incoming lease, a repairs hold, open maintenance and a vacancy",
		},
		load: loadSingleBuilding,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "lease-turnover",
			Name:        "Lease Turnover",
			Description: "Leases ending inside the renewal window, lapsed leases and gaps before the next tenant",
		},
		load: loadLeaseTurnover,
	},
	{
		ScenarioDTO: ScenarioDTO{
			ID:          "multi-city",
			Name:        "Multi-City Portfolio",
			Description: "New York, London and Tokyo buildings whose calendar day differs at the same instant",
		},
		load: loadMultiCity,
	},
}

// ScenarioIDs lists the loadable scenario IDs.
func ScenarioIDs() []string {
	ids := make([]string, len(scenarios))
	for i, s := range scenarios {
		ids[i] = s.ID
	}
	return ids
}

// LoadScenarioInto resets w and loads the named scenario with dates relative
// to now.
func LoadScenarioInto(ctx context.Context, w portfolio.Writer, id string, now time.Time) error {
	for _, s := range scenarios {
		if s.ID != id {
			continue
		}
		if err := w.Reset(ctx); err != nil {
			return fmt.Errorf("resetting store: %w", err)
		}
		return s.load(ctx, w, now)
	}
	return fmt.Errorf("unknown scenario %q", id)
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	dtos := make([]ScenarioDTO, len(scenarios))
	for i, s := range scenarios {
		dtos[i] = s.ScenarioDTO
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	current := h.scenario()
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s.ScenarioDTO)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario wipes the store and loads a scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decode(w, r, &req) {
		return
	}

	known := false
	for _, s := range scenarios {
		known = known || s.ID == req.ScenarioID
	}
	if !known {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	h.setCurrentScenario("")
	if err := LoadScenarioInto(r.Context(), h.Store, req.ScenarioID, h.Evaluator.Now()); err != nil {
		h.Log.Error("scenario load failed", zap.String("scenario", req.ScenarioID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}
	h.setCurrentScenario(req.ScenarioID)

	h.Log.Info("scenario loaded", zap.String("scenario", req.ScenarioID))
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "scenario_id": req.ScenarioID})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		h.storeError(w, r, "Failed to reset database", err)
		return
	}
	h.setCurrentScenario("")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// BUILDERS
// =============================================================================

// seeder accumulates the first error so loaders read as a flat script.
type seeder struct {
	ctx   context.Context
	w     portfolio.Writer
	today calendar.Day
	err   error
}

func newSeeder(ctx context.Context, w portfolio.Writer, p portfolio.Property, now time.Time) (*seeder, string) {
	s := &seeder{ctx: ctx, w: w}
	saved, err := w.SaveProperty(ctx, p)
	if err != nil {
		s.err = err
		return s, ""
	}
	s.today = calendar.CalendarDate(now, saved.Location())
	return s, saved.ID
}

// day returns today shifted by offset days.
func (s *seeder) day(offset int) *calendar.Day {
	return s.today.AddDays(offset).Ptr()
}

func (s *seeder) unit(u portfolio.UnitRecord) string {
	if s.err != nil {
		return ""
	}
	saved, err := s.w.SaveUnit(s.ctx, u)
	if err != nil {
		s.err = fmt.Errorf("unit %s: %w", u.Number, err)
		return ""
	}
	return saved.ID
}

func (s *seeder) tenant(t portfolio.Tenant) {
	if s.err != nil {
		return
	}
	if _, err := s.w.SaveTenant(s.ctx, t); err != nil {
		s.err = fmt.Errorf("tenant %s: %w", t.Name, err)
	}
}

func (s *seeder) maintenance(unitID, title string, status portfolio.MaintenanceStatus) {
	if s.err != nil {
		return
	}
	_, err := s.w.SaveMaintenance(s.ctx, portfolio.MaintenanceRecord{UnitID: unitID, Title: title, Status: status})
	if err != nil {
		s.err = fmt.Errorf("maintenance %q: %w", title, err)
	}
}

func money(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func name(s string) *string { return &s }

// =============================================================================
// SCENARIO: single-building
// =============================================================================

func loadSingleBuilding(ctx context.Context, w portfolio.Writer, now time.Time) error {
	s, pid := newSeeder(ctx, w, portfolio.Property{
		ID:       "riverside",
		Name:     "Riverside Lofts",
		Address:  "120 River St, Hoboken, NJ",
		TimeZone: "America/New_York",
	}, now)

	// Active lease mid-term.
	s.unit(portfolio.UnitRecord{
		ID: "riverside-101", PropertyID: pid, Number: "101",
		StoredStatus: lease.StoredOccupied, RequiredRent: money("2400"),
		CurrentTenant: name("Alice Moreno"), CurrentLeaseStart: s.day(-200), CurrentLeaseEnd: s.day(165),
	})
	s.tenant(portfolio.Tenant{
		PropertyID: pid, UnitID: "riverside-101", Name: "Alice Moreno", Email: "alice@example.com",
		LeaseStart: s.day(-200), LeaseEnd: s.day(165),
	})

	// Incoming lease started last week; nobody moved it to current yet.
	s.unit(portfolio.UnitRecord{
		ID: "riverside-102", PropertyID: pid, Number: "102",
		StoredStatus: lease.StoredVacant, RequiredRent: money("1950"),
		IncomingTenant: name("Bob Chen"), IncomingLeaseStart: s.day(-7), IncomingLeaseEnd: s.day(358),
	})
	s.tenant(portfolio.Tenant{
		PropertyID: pid, UnitID: "riverside-102", Name: "Bob Chen", Email: "bob@example.com",
		LeaseStart: s.day(-7), LeaseEnd: s.day(358),
	})

	// Manual repairs hold for another ten days.
	s.unit(portfolio.UnitRecord{
		ID: "riverside-103", PropertyID: pid, Number: "103",
		StoredStatus: lease.StoredRepairs, StatusUntil: s.day(10), RequiredRent: money("2100"),
	})

	// Tenanted, but with a leak being fixed.
	leak := s.unit(portfolio.UnitRecord{
		ID: "riverside-104", PropertyID: pid, Number: "104",
		StoredStatus: lease.StoredOccupied, RequiredRent: money("1800"),
		CurrentTenant: name("Dana Ruiz"), CurrentLeaseStart: s.day(-300), CurrentLeaseEnd: s.day(65),
	})
	s.tenant(portfolio.Tenant{
		PropertyID: pid, UnitID: "riverside-104", Name: "Dana Ruiz", Email: "dana@example.com",
		LeaseStart: s.day(-300), LeaseEnd: s.day(65),
	})
	s.maintenance(leak, "Kitchen leak", portfolio.MaintenanceInProgress)

	// Empty and unpriced.
	s.unit(portfolio.UnitRecord{
		ID: "riverside-105", PropertyID: pid, Number: "105",
		StoredStatus: lease.StoredVacant,
	})

	return s.err
}

// =============================================================================
// SCENARIO: lease-turnover
// =============================================================================

func loadLeaseTurnover(ctx context.Context, w portfolio.Writer, now time.Time) error {
	s, pid := newSeeder(ctx, w, portfolio.Property{
		ID:       "maple-court",
		Name:     "Maple Court",
		Address:  "8 Maple Ct, Evanston, IL",
		TimeZone: "America/Chicago",
	}, now)

	// Ends in 30 days; next tenant signed.
	s.unit(portfolio.UnitRecord{
		ID: "maple-1a", PropertyID: pid, Number: "1A",
		StoredStatus: lease.StoredOccupied, RequiredRent: money("1500"),
		CurrentTenant: name("Evan Park"), CurrentLeaseStart: s.day(-335), CurrentLeaseEnd: s.day(30),
		IncomingTenant: name("Fatima Noor"), IncomingLeaseStart: s.day(31), IncomingLeaseEnd: s.day(396),
	})
	s.tenant(portfolio.Tenant{
		PropertyID: pid, UnitID: "maple-1a", Name: "Evan Park",
		LeaseStart: s.day(-335), LeaseEnd: s.day(30),
	})
	s.tenant(portfolio.Tenant{
		PropertyID: pid, UnitID: "maple-1a", Name: "Fatima Noor",
		LeaseStart: s.day(31), LeaseEnd: s.day(396),
	})

	// Lease lapsed yesterday; stored status was never updated.
	s.unit(portfolio.UnitRecord{
		ID: "maple-1b", PropertyID: pid, Number: "1B",
		StoredStatus: lease.StoredOccupied, RequiredRent: money("1450"),
		CurrentTenant: name("Grace Liu"), CurrentLeaseStart: s.day(-366), CurrentLeaseEnd: s.day(-1),
	})
	s.tenant(portfolio.Tenant{
		PropertyID: pid, UnitID: "maple-1b", Name: "Grace Liu",
		LeaseStart: s.day(-366), LeaseEnd: s.day(-1),
	})

	// Last day of the lease is today.
	s.unit(portfolio.UnitRecord{
		ID: "maple-2a", PropertyID: pid, Number: "2A",
		StoredStatus: lease.StoredOccupied, RequiredRent: money("1600"),
		CurrentTenant: name("Hiro Sato"), CurrentLeaseStart: s.day(-364), CurrentLeaseEnd: s.day(0),
	})
	s.tenant(portfolio.Tenant{
		PropertyID: pid, UnitID: "maple-2a", Name: "Hiro Sato",
		LeaseStart: s.day(-364), LeaseEnd: s.day(0),
	})

	// Repairs hold expired last week; nothing else keeps it off the market.
	s.unit(portfolio.UnitRecord{
		ID: "maple-2b", PropertyID: pid, Number: "2B",
		StoredStatus: lease.StoredRepairs, StatusUntil: s.day(-7), RequiredRent: money("1400"),
	})

	return s.err
}

// =============================================================================
// SCENARIO: multi-city
// =============================================================================

func loadMultiCity(ctx context.Context, w portfolio.Writer, now time.Time) error {
	type building struct {
		prop   portfolio.Property
		number string
		rent   string
		tenant string
	}
	tokyoLat, tokyoLng := 35.6595, 139.7005

	buildings := []building{
		{portfolio.Property{ID: "hudson", Name: "Hudson Yards Tower", TimeZone: "America/New_York"}, "12F", "4200", "Ivy Brooks"},
		{portfolio.Property{ID: "thames", Name: "Thames Wharf", TimeZone: "Europe/London"}, "3", "2900", "Jack Evans"},
		// Zone comes from the coordinates.
		{portfolio.Property{ID: "shibuya", Name: "Shibuya Heights", Latitude: &tokyoLat, Longitude: &tokyoLng}, "804", "310000", "Kenji Mori"},
	}

	for _, b := range buildings {
		s, pid := newSeeder(ctx, w, b.prop, now)
		unitID := pid + "-" + b.number

		// Lease begins tomorrow in each building's own zone.
		s.unit(portfolio.UnitRecord{
			ID: unitID, PropertyID: pid, Number: b.number,
			StoredStatus: lease.StoredVacant, RequiredRent: money(b.rent),
			IncomingTenant: name(b.tenant), IncomingLeaseStart: s.day(1), IncomingLeaseEnd: s.day(366),
		})
		s.tenant(portfolio.Tenant{
			PropertyID: pid, UnitID: unitID, Name: b.tenant,
			LeaseStart: s.day(1), LeaseEnd: s.day(366),
		})
		s.unit(portfolio.UnitRecord{
			ID: unitID + "-b", PropertyID: pid, Number: b.number + "B",
			StoredStatus: lease.StoredOccupied, RequiredRent: money(b.rent),
			CurrentTenant: name(b.tenant + " Sr."), CurrentLeaseStart: s.day(-100), CurrentLeaseEnd: s.day(265),
		})
		if s.err != nil {
			return fmt.Errorf("%s: %w", b.prop.Name, s.err)
		}
	}
	return nil
}
