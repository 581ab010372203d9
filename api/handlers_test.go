package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/lease-engine/calendar"
	"github.com/warp/lease-engine/lease"
	"github.com/warp/lease-engine/portfolio"
	"github.com/warp/lease-engine/portfolio/store"
	"go.uber.org/zap"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// june15 is mid-afternoon in New York, already evening in London.
var june15 = time.Date(2024, 6, 15, 16, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*Handler, http.Handler) {
	return newTestServerAt(t, june15)
}

func newTestServerAt(t *testing.T, at time.Time) (*Handler, http.Handler) {
	t.Helper()
	eval := portfolio.NewEvaluator(calendar.FixedClock{At: at}, lease.DefaultRenewalWindowDays)
	h := NewHandler(store.NewMemory(), eval, zap.NewNop())
	return h, NewRouter(h, nil)
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func createProperty(t *testing.T, router http.Handler) string {
	t.Helper()
	rec := do(t, router, http.MethodPost, "/api/properties", map[string]any{
		"id":        "riverside",
		"name":      "Riverside",
		"time_zone": "America/New_York",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[PropertyDTO](t, rec).ID
}

// =============================================================================
// PROPERTIES, UNITS, TENANTS
// =============================================================================

func TestHealth(t *testing.T) {
	_, router := newTestServer(t)

	rec := do(t, router, http.MethodGet, "/api/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Content-Type"))
}

func TestCreateProperty_ResolvesZoneFromCoordinates(t *testing.T) {
	_, router := newTestServer(t)

	// GIVEN: a property with coordinates but no zone
	rec := do(t, router, http.MethodPost, "/api/properties", map[string]any{
		"name":      "Marais",
		"latitude":  48.8566,
		"longitude": 2.3522,
	})

	// THEN: the zone is looked up from the coordinates
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	dto := decodeBody[PropertyDTO](t, rec)
	assert.NotEmpty(t, dto.ID)
	assert.Equal(t, "Europe/Paris", dto.TimeZone)

	list := decodeBody[[]PropertyDTO](t, do(t, router, http.MethodGet, "/api/properties", nil))
	assert.Len(t, list, 1)
}

func TestUnitAndTenantLifecycle(t *testing.T) {
	_, router := newTestServer(t)
	pid := createProperty(t, router)

	// GIVEN: a unit whose stored status is stale and a lease that ends in 77 days
	rec := do(t, router, http.MethodPost, "/api/properties/"+pid+"/units", map[string]any{
		"id":                  "u1",
		"number":              "101",
		"stored_status":       "vacant",
		"required_rent":       "2400",
		"current_tenant":      "Alice",
		"current_lease_start": "2024-01-01",
		"current_lease_end":   "2024-08-31",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[UnitDTO](t, rec)
	assert.Equal(t, lease.StatusOccupied, created.EffectiveStatus)
	assert.Equal(t, lease.RuleCurrentLease, created.Rule)

	rec = do(t, router, http.MethodPost, "/api/properties/"+pid+"/tenants", map[string]any{
		"unit_id":     "u1",
		"name":        "Alice",
		"email":       "alice@example.com",
		"lease_start": "2024-01-01",
		"lease_end":   "2024-08-31",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tenant := decodeBody[TenantDTO](t, rec)
	assert.Equal(t, lease.LeaseExpiring, tenant.LeaseStatus)
	assert.Equal(t, lease.BadgeOutline, tenant.Badge)
	assert.Equal(t, 77, tenant.DaysRemaining)

	// WHEN: reading the property back
	units := decodeBody[[]UnitDTO](t, do(t, router, http.MethodGet, "/api/properties/"+pid+"/units", nil))
	expiring := decodeBody[[]TenantDTO](t, do(t, router, http.MethodGet, "/api/properties/"+pid+"/expiring", nil))
	summary := decodeBody[PropertySummaryDTO](t, do(t, router, http.MethodGet, "/api/properties/"+pid+"/summary", nil))

	// THEN: derived values are consistent across endpoints
	require.Len(t, units, 1)
	assert.Equal(t, "2400", units[0].Revenue.MonthlyRevenue.String())
	assert.Equal(t, "2024-08-31", units[0].CurrentLeaseEnd)
	require.Len(t, expiring, 1)
	assert.Equal(t, "Alice", expiring[0].Name)
	assert.Equal(t, "2024-06-15", summary.Today)
	assert.Equal(t, "100.00", summary.OccupancyRate)
	assert.Equal(t, 1, summary.StatusCounts["occupied"])
	assert.Equal(t, 0, summary.StatusCounts["repairs"])
	assert.Equal(t, 1, summary.LeaseCounts["expiring"])
}

func TestCreateMaintenance_TogglesRepairs(t *testing.T) {
	_, router := newTestServer(t)
	pid := createProperty(t, router)
	rec := do(t, router, http.MethodPost, "/api/properties/"+pid+"/units", map[string]any{
		"id": "u1", "number": "101", "required_rent": 1800,
		"current_tenant": "Dana", "current_lease_start": "2024-01-01", "current_lease_end": "2024-12-31",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// WHEN: a maintenance request is opened
	rec = do(t, router, http.MethodPost, "/api/units/u1/maintenance", map[string]any{"id": "m1", "title": "Leak"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, portfolio.MaintenancePending, decodeBody[MaintenanceDTO](t, rec).Status)

	// THEN: the unit is in repairs but rent is still recognized
	units := decodeBody[[]UnitDTO](t, do(t, router, http.MethodGet, "/api/properties/"+pid+"/units", nil))
	require.Len(t, units, 1)
	assert.Equal(t, lease.StatusRepairs, units[0].EffectiveStatus)
	assert.Equal(t, lease.RuleMaintenance, units[0].Rule)
	assert.True(t, units[0].HasActiveMaintenance)
	assert.Equal(t, "1800", units[0].Revenue.MonthlyRevenue.String())

	// WHEN: the request is completed
	rec = do(t, router, http.MethodPost, "/api/units/u1/maintenance", map[string]any{"id": "m1", "title": "Leak", "status": "completed"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// THEN: the lease decides again
	units = decodeBody[[]UnitDTO](t, do(t, router, http.MethodGet, "/api/properties/"+pid+"/units", nil))
	assert.Equal(t, lease.StatusOccupied, units[0].EffectiveStatus)
}

func TestAsOfQuery(t *testing.T) {
	_, router := newTestServer(t)
	pid := createProperty(t, router)
	rec := do(t, router, http.MethodPost, "/api/properties/"+pid+"/units", map[string]any{
		"number": "102", "required_rent": "1950",
		"incoming_tenant": "Bob", "incoming_lease_start": "2024-07-01", "incoming_lease_end": "2025-06-30",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	now := decodeBody[[]UnitDTO](t, do(t, router, http.MethodGet, "/api/properties/"+pid+"/units", nil))
	later := decodeBody[[]UnitDTO](t, do(t, router, http.MethodGet, "/api/properties/"+pid+"/units?as_of=2024-07-02", nil))
	instant := decodeBody[[]UnitDTO](t, do(t, router, http.MethodGet, "/api/properties/"+pid+"/units?as_of=2024-07-01T03:00:00Z", nil))

	assert.Equal(t, lease.StatusVacant, now[0].EffectiveStatus)
	assert.Equal(t, "0", now[0].Revenue.MonthlyRevenue.String())
	assert.Equal(t, "1950", now[0].Revenue.ExpectedRevenue.String())
	assert.Equal(t, lease.StatusOccupied, later[0].EffectiveStatus)
	assert.Equal(t, lease.RuleIncomingStarted, later[0].Rule)
	// 03:00 UTC on July 1 is still June 30 in New York.
	assert.Equal(t, lease.StatusVacant, instant[0].EffectiveStatus)

	rec = do(t, router, http.MethodGet, "/api/properties/"+pid+"/units?as_of=next-tuesday", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAsOfQuery_BareDateEastOfUTC12(t *testing.T) {
	// GIVEN: an Auckland property (UTC+13 in January) whose lease ends on the 15th
	_, router := newTestServer(t)
	rec := do(t, router, http.MethodPost, "/api/properties", map[string]any{
		"id": "harbour", "name": "Harbour View", "time_zone": "Pacific/Auckland",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = do(t, router, http.MethodPost, "/api/properties/harbour/units", map[string]any{
		"number": "1", "required_rent": "2400",
		"current_tenant": "Mere", "current_lease_start": "2023-01-16", "current_lease_end": "2024-01-15",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	// WHEN: asked about the last day of the lease by bare date
	last := decodeBody[PropertySummaryDTO](t, do(t, router, http.MethodGet, "/api/properties/harbour/summary?as_of=2024-01-15", nil))
	after := decodeBody[PropertySummaryDTO](t, do(t, router, http.MethodGet, "/api/properties/harbour/summary?as_of=2024-01-16", nil))

	// THEN: the property's day is the date given, not the next one
	assert.Equal(t, "2024-01-15", last.Today)
	assert.Equal(t, 1, last.StatusCounts[string(lease.StatusOccupied)])
	assert.Equal(t, "2400", last.Revenue.MonthlyRevenue.String())

	assert.Equal(t, "2024-01-16", after.Today)
	assert.Equal(t, 0, after.StatusCounts[string(lease.StatusOccupied)])
	assert.Equal(t, "0", after.Revenue.MonthlyRevenue.String())
}

// =============================================================================
// ERRORS
// =============================================================================

func TestNotFound(t *testing.T) {
	_, router := newTestServer(t)

	paths := []struct{ method, path string }{
		{http.MethodGet, "/api/properties/nope"},
		{http.MethodGet, "/api/properties/nope/summary"},
		{http.MethodGet, "/api/properties/nope/units"},
	}
	for _, p := range paths {
		rec := do(t, router, p.method, p.path, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code, p.path)
		assert.Equal(t, "not_found", decodeBody[ErrorResponse](t, rec).Code)
	}

	rec := do(t, router, http.MethodPost, "/api/units/nope/maintenance", map[string]any{"title": "Leak"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/properties/nope/units", map[string]any{"number": "1"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestValidation(t *testing.T) {
	_, router := newTestServer(t)
	pid := createProperty(t, router)

	tests := []struct {
		name string
		path string
		body any
		code string
	}{
		{"property without name", "/api/properties", map[string]any{"time_zone": "UTC"}, "validation_failed"},
		{"unknown zone", "/api/properties", map[string]any{"name": "X", "time_zone": "Mars/Olympus"}, "validation_failed"},
		{"bad unit date", "/api/properties/" + pid + "/units", map[string]any{"number": "1", "current_lease_end": "31/12/2024"}, "validation_failed"},
		{"bad stored status", "/api/properties/" + pid + "/units", map[string]any{"number": "1", "stored_status": "haunted"}, "validation_failed"},
		{"unit without number", "/api/properties/" + pid + "/units", map[string]any{"stored_status": "vacant"}, "invalid_record"},
		{"negative rent", "/api/properties/" + pid + "/units", map[string]any{"number": "1", "required_rent": "-5"}, "invalid_record"},
		{"tenant bad email", "/api/properties/" + pid + "/tenants", map[string]any{"name": "T", "email": "nope"}, "validation_failed"},
		{"lease ends before start", "/api/properties/" + pid + "/tenants", map[string]any{"name": "T", "lease_start": "2024-05-01", "lease_end": "2024-04-01"}, "invalid_record"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decodeBody[ErrorResponse](t, rec).Code)
		})
	}
}

func TestValidation_ReportsJSONFieldNames(t *testing.T) {
	_, router := newTestServer(t)

	rec := do(t, router, http.MethodPost, "/api/properties", map[string]any{})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp struct {
		Details []FieldError `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Details, 1)
	assert.Equal(t, FieldError{Field: "name", Rule: "required"}, resp.Details[0])
}

// =============================================================================
// STATELESS EVALUATION
// =============================================================================

func TestEvaluateUnit(t *testing.T) {
	_, router := newTestServer(t)

	body := map[string]any{
		"stored_status":        "vacant",
		"required_rent":        "1200",
		"incoming_tenant":      "Bob",
		"incoming_lease_start": "2024-06-15",
		"incoming_lease_end":   "not-a-date",
		"as_of":                "2024-06-15T02:00:00Z",
	}

	// WHEN: evaluated in UTC, the incoming lease has started
	rec := do(t, router, http.MethodPost, "/api/evaluate/unit", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	utc := decodeBody[UnitEvaluationDTO](t, rec)
	assert.Equal(t, "2024-06-15", utc.Today)
	assert.Equal(t, lease.StatusOccupied, utc.EffectiveStatus)
	assert.Equal(t, "1200", utc.Revenue.MonthlyRevenue.String())

	// WHEN: the same instant is still June 14 in Los Angeles
	body["time_zone"] = "America/Los_Angeles"
	la := decodeBody[UnitEvaluationDTO](t, do(t, router, http.MethodPost, "/api/evaluate/unit", body))
	assert.Equal(t, "2024-06-14", la.Today)
	assert.Equal(t, lease.StatusVacant, la.EffectiveStatus)
	assert.Equal(t, lease.RuleDefaultVacant, la.Rule)
	// Not started and no valid end: nothing is planned yet.
	assert.Equal(t, "0", la.Revenue.ExpectedRevenue.String())

	body["time_zone"] = "Nowhere/Special"
	assert.Equal(t, http.StatusBadRequest, do(t, router, http.MethodPost, "/api/evaluate/unit", body).Code)
}

func TestEvaluateLease(t *testing.T) {
	_, router := newTestServer(t)

	rec := do(t, router, http.MethodPost, "/api/evaluate/lease", map[string]any{
		"lease_start": "2024-01-01",
		"lease_end":   "2024-09-12",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decodeBody[LeaseEvaluationDTO](t, rec)
	assert.Equal(t, lease.LeaseExpiring, res.Status)
	assert.Equal(t, lease.BadgeOutline, res.Badge)
	assert.Equal(t, 89, res.DaysRemaining)

	res = decodeBody[LeaseEvaluationDTO](t, do(t, router, http.MethodPost, "/api/evaluate/lease", map[string]any{
		"lease_start":         "2024-01-01",
		"lease_end":           "2024-09-12",
		"renewal_window_days": 30,
	}))
	assert.Equal(t, lease.LeaseActive, res.Status)
	assert.Equal(t, lease.BadgeDefault, res.Badge)

	rec = do(t, router, http.MethodPost, "/api/evaluate/lease", map[string]any{"lease_start": "2024-01-01"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestScenarios_ListLoadReset(t *testing.T) {
	h, router := newTestServer(t)

	list := decodeBody[[]ScenarioDTO](t, do(t, router, http.MethodGet, "/api/scenarios", nil))
	assert.Len(t, list, len(ScenarioIDs()))

	rec := do(t, router, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "single-building"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "single-building", h.scenario())

	current := decodeBody[ScenarioDTO](t, do(t, router, http.MethodGet, "/api/scenarios/current", nil))
	assert.Equal(t, "single-building", current.ID)

	rec = do(t, router, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/scenarios/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, h.scenario())
	props := decodeBody[[]PropertyDTO](t, do(t, router, http.MethodGet, "/api/properties", nil))
	assert.Empty(t, props)
}

func TestScenario_SingleBuildingCoversEveryRule(t *testing.T) {
	_, router := newTestServer(t)
	require.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/api/scenarios/load",
		LoadScenarioRequest{ScenarioID: "single-building"}).Code)

	summary := decodeBody[PropertySummaryDTO](t, do(t, router, http.MethodGet, "/api/properties/riverside/summary", nil))

	rules := map[lease.Rule]bool{}
	for _, u := range summary.Units {
		rules[u.Rule] = true
	}
	for _, rule := range []lease.Rule{lease.RuleMaintenance, lease.RuleCurrentLease, lease.RuleIncomingStarted, lease.RuleRepairsOverride, lease.RuleDefaultVacant} {
		assert.True(t, rules[rule], "missing %s", rule)
	}
	assert.Equal(t, 5, summary.TotalUnits)
	assert.Equal(t, "40.00", summary.OccupancyRate)
	assert.Equal(t, "6150", summary.Revenue.MonthlyRevenue.String())
	assert.Equal(t, "6150", summary.Revenue.ExpectedRevenue.String())
}

func TestScenario_LeaseTurnover(t *testing.T) {
	_, router := newTestServer(t)
	require.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/api/scenarios/load",
		LoadScenarioRequest{ScenarioID: "lease-turnover"}).Code)

	summary := decodeBody[PropertySummaryDTO](t, do(t, router, http.MethodGet, "/api/properties/maple-court/summary", nil))

	assert.Equal(t, "50.00", summary.OccupancyRate)
	assert.Equal(t, "3100", summary.Revenue.MonthlyRevenue.String())
	assert.Equal(t, "4550", summary.Revenue.ExpectedRevenue.String())
	assert.Equal(t, 2, summary.LeaseCounts["expiring"])
	assert.Equal(t, 1, summary.LeaseCounts["upcoming"])
	assert.Equal(t, 1, summary.LeaseCounts["expired"])

	expiring := decodeBody[[]TenantDTO](t, do(t, router, http.MethodGet, "/api/properties/maple-court/expiring", nil))
	require.Len(t, expiring, 2)
	assert.Equal(t, "Hiro Sato", expiring[0].Name, "ends today, so listed first")
	assert.Equal(t, 0, expiring[0].DaysRemaining)
}

func TestScenario_MultiCityDayDependsOnZone(t *testing.T) {
	// GIVEN: loaded at noon UTC, when every building is on June 15, so each
	// incoming lease starts June 16
	_, router := newTestServerAt(t, time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))
	require.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/api/scenarios/load",
		LoadScenarioRequest{ScenarioID: "multi-city"}).Code)

	// WHEN: evaluated at 22:30 UTC on June 15
	rec := do(t, router, http.MethodGet, "/api/portfolio/summary?as_of=2024-06-15T22:30:00Z", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	summary := decodeBody[PortfolioSummaryDTO](t, rec)

	// THEN: Tokyo is already on June 16 so its incoming lease has started;
	// New York and London are still on June 15
	require.Len(t, summary.Properties, 3)
	byName := map[string]PropertySummaryDTO{}
	for _, p := range summary.Properties {
		byName[p.Property.ID] = p
	}
	assert.Equal(t, "Asia/Tokyo", byName["shibuya"].Property.TimeZone)
	assert.Equal(t, "2024-06-16", byName["shibuya"].Today)
	assert.Equal(t, 2, byName["shibuya"].StatusCounts["occupied"])
	assert.Equal(t, "2024-06-15", byName["hudson"].Today)
	assert.Equal(t, 1, byName["hudson"].StatusCounts["occupied"])
	assert.Equal(t, "2024-06-15", byName["thames"].Today)
	assert.Equal(t, 1, byName["thames"].StatusCounts["occupied"])

	assert.Equal(t, 6, summary.TotalUnits)
	assert.Equal(t, "66.67", summary.OccupancyRate)
}
