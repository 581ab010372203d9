/*
handlers.go - HTTP handlers for the lease engine

ENDPOINTS:
  Health:
    GET    /api/health                        Liveness + store ping

  Properties:
    GET    /api/properties                    List properties
    POST   /api/properties                    Create property
    GET    /api/properties/{id}               Get property
    GET    /api/properties/{id}/units         Units with derived status/revenue
    POST   /api/properties/{id}/units         Create unit
    GET    /api/properties/{id}/tenants       Tenants with lease status/badge
    POST   /api/properties/{id}/tenants       Create tenant
    GET    /api/properties/{id}/summary       Occupancy, revenue, counts
    GET    /api/properties/{id}/expiring      Leases inside the renewal window

  Units:
    POST   /api/units/{id}/maintenance        Open/close a maintenance request

  Portfolio:
    GET    /api/portfolio/summary             Every property at one instant

  Evaluate (nothing stored):
    POST   /api/evaluate/unit                 Resolve one unit
    POST   /api/evaluate/lease                Classify one lease

AS-OF:
  Every GET accepts ?as_of= with an RFC3339 instant or a YYYY-MM-DD date. A
  bare date is that date in every property's zone. Without it the server
  clock is sampled once per request.

ERROR HANDLING:
  - 400: malformed body, failed validation, bad as_of
  - 404: unknown property or unit
  - 500: store failures (logged)

SEE ALSO:
  - dto.go: request/response shapes
  - server.go: router and middleware
  - portfolio/evaluator.go: the aggregation these handlers expose
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/warp/lease-engine/calendar"
	"github.com/warp/lease-engine/lease"
	"github.com/warp/lease-engine/portfolio"
	"go.uber.org/zap"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     portfolio.Store
	Evaluator *portfolio.Evaluator
	Log       *zap.Logger

	// DefaultZone is used by the evaluate endpoints when no zone is given.
	DefaultZone string

	validate *validator.Validate

	mu              sync.RWMutex
	currentScenario string
}

// NewHandler wires a handler. A nil logger discards output.
func NewHandler(store portfolio.Store, evaluator *portfolio.Evaluator, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if evaluator == nil {
		evaluator = portfolio.NewEvaluator(nil, lease.DefaultRenewalWindowDays)
	}
	return &Handler{
		Store:       store,
		Evaluator:   evaluator,
		Log:         log,
		DefaultZone: "UTC",
		validate:    newValidator(),
	}
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type pinger interface {
	Ping(ctx context.Context) error
}

// Health reports liveness. Stores that can be pinged are pinged.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.Store.(pinger); ok {
		if err := p.Ping(r.Context()); err != nil {
			h.Log.Error("store ping failed", zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, "Store unavailable", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// PROPERTY HANDLERS
// =============================================================================

// ListProperties returns all properties.
func (h *Handler) ListProperties(w http.ResponseWriter, r *http.Request) {
	props, err := h.Store.ListProperties(r.Context())
	if err != nil {
		h.storeError(w, r, "Failed to list properties", err)
		return
	}
	dtos := make([]PropertyDTO, len(props))
	for i, p := range props {
		dtos[i] = toPropertyDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetProperty returns a single property.
func (h *Handler) GetProperty(w http.ResponseWriter, r *http.Request) {
	p, err := h.Store.GetProperty(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.storeError(w, r, "Failed to get property", err)
		return
	}
	writeJSON(w, http.StatusOK, toPropertyDTO(p))
}

// CreateProperty creates or replaces a property.
func (h *Handler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	var req CreatePropertyRequest
	if !h.decode(w, r, &req) {
		return
	}
	saved, err := h.Store.SaveProperty(r.Context(), portfolio.Property{
		ID:        req.ID,
		Name:      strings.TrimSpace(req.Name),
		Address:   req.Address,
		TimeZone:  req.TimeZone,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		h.storeError(w, r, "Failed to create property", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPropertyDTO(saved))
}

// =============================================================================
// UNIT HANDLERS
// =============================================================================

// ListUnits returns the property's units with their derived state.
func (h *Handler) ListUnits(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.summary(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toUnitDTOs(summary.Units))
}

// CreateUnit creates or replaces a unit and returns it evaluated as of now.
func (h *Handler) CreateUnit(w http.ResponseWriter, r *http.Request) {
	var req CreateUnitRequest
	if !h.decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	propertyID := chi.URLParam(r, "id")

	p, err := h.Store.GetProperty(ctx, propertyID)
	if err != nil {
		h.storeError(w, r, "Failed to create unit", err)
		return
	}

	rec := req.Record()
	rec.ID = req.ID
	rec.PropertyID = propertyID
	saved, err := h.Store.SaveUnit(ctx, rec)
	if err != nil {
		h.storeError(w, r, "Failed to create unit", err)
		return
	}

	maint, err := h.Store.ListMaintenance(ctx, propertyID)
	if err != nil {
		h.storeError(w, r, "Failed to create unit", err)
		return
	}
	today := calendar.CalendarDate(h.Evaluator.Now(), p.Location())
	result := portfolio.EvaluateUnit(saved, portfolio.ActiveMaintenanceUnits(maint)[saved.ID], today)

	h.Log.Info("unit saved",
		zap.String("property_id", propertyID),
		zap.String("unit_id", saved.ID),
		zap.String("effective_status", string(result.Status)))
	writeJSON(w, http.StatusCreated, toUnitDTO(result))
}

// =============================================================================
// TENANT HANDLERS
// =============================================================================

// ListTenants returns the property's tenants with lease status and badge.
func (h *Handler) ListTenants(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.summary(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toTenantDTOs(summary.Tenants))
}

// CreateTenant creates or replaces a tenant.
func (h *Handler) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req CreateTenantRequest
	if !h.decode(w, r, &req) {
		return
	}
	ctx := r.Context()
	propertyID := chi.URLParam(r, "id")

	p, err := h.Store.GetProperty(ctx, propertyID)
	if err != nil {
		h.storeError(w, r, "Failed to create tenant", err)
		return
	}
	saved, err := h.Store.SaveTenant(ctx, portfolio.Tenant{
		ID:         req.ID,
		PropertyID: propertyID,
		UnitID:     req.UnitID,
		Name:       strings.TrimSpace(req.Name),
		Email:      req.Email,
		LeaseStart: calendar.ParseOptionalDay(req.LeaseStart),
		LeaseEnd:   calendar.ParseOptionalDay(req.LeaseEnd),
	})
	if err != nil {
		h.storeError(w, r, "Failed to create tenant", err)
		return
	}

	today := calendar.CalendarDate(h.Evaluator.Now(), p.Location())
	writeJSON(w, http.StatusCreated, toTenantDTO(h.Evaluator.EvaluateTenant(saved, today)))
}

// =============================================================================
// SUMMARY HANDLERS
// =============================================================================

// GetPropertySummary returns counts, occupancy and revenue for one property.
func (h *Handler) GetPropertySummary(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.summary(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toPropertySummaryDTO(summary))
}

// GetExpiringLeases returns tenants whose lease ends inside the renewal window.
func (h *Handler) GetExpiringLeases(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.summary(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toTenantDTOs(portfolio.ExpiringLeases(summary)))
}

// GetPortfolioSummary evaluates every property at a single instant.
func (h *Handler) GetPortfolioSummary(w http.ResponseWriter, r *http.Request) {
	eval, err := h.evaluatorFor(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of (use RFC3339 or YYYY-MM-DD)", err)
		return
	}
	summary, err := eval.Portfolio(r.Context(), h.Store)
	if err != nil {
		h.storeError(w, r, "Failed to evaluate portfolio", err)
		return
	}

	dto := PortfolioSummaryDTO{
		AsOf:          summary.AsOf.UTC().Format(time.RFC3339),
		TotalUnits:    summary.TotalUnits,
		StatusCounts:  statusCounts(summary.StatusCounts),
		OccupancyRate: summary.OccupancyRate.StringFixed(2),
		Revenue:       toRevenueDTO(summary.Revenue),
		Properties:    make([]PropertySummaryDTO, len(summary.Properties)),
	}
	for i, s := range summary.Properties {
		dto.Properties[i] = toPropertySummaryDTO(s)
	}
	writeJSON(w, http.StatusOK, dto)
}

// summary evaluates the {id} property for the request, writing any error.
func (h *Handler) summary(w http.ResponseWriter, r *http.Request) (portfolio.PropertySummary, bool) {
	eval, err := h.evaluatorFor(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of (use RFC3339 or YYYY-MM-DD)", err)
		return portfolio.PropertySummary{}, false
	}
	summary, err := eval.Snapshot(r.Context(), h.Store, chi.URLParam(r, "id"))
	if err != nil {
		h.storeError(w, r, "Failed to evaluate property", err)
		return portfolio.PropertySummary{}, false
	}
	return summary, true
}

// =============================================================================
// MAINTENANCE HANDLERS
// =============================================================================

// CreateMaintenance records a maintenance request. Pending and in-progress
// requests put the unit into repairs until they are completed or cancelled.
func (h *Handler) CreateMaintenance(w http.ResponseWriter, r *http.Request) {
	var req CreateMaintenanceRequest
	if !h.decode(w, r, &req) {
		return
	}
	status := portfolio.MaintenanceStatus(req.Status)
	if status == "" {
		status = portfolio.MaintenancePending
	}

	saved, err := h.Store.SaveMaintenance(r.Context(), portfolio.MaintenanceRecord{
		ID:     req.ID,
		UnitID: chi.URLParam(r, "id"),
		Title:  req.Title,
		Status: status,
	})
	if err != nil {
		h.storeError(w, r, "Failed to save maintenance request", err)
		return
	}

	h.Log.Info("maintenance saved",
		zap.String("unit_id", saved.UnitID),
		zap.String("status", string(saved.Status)))
	writeJSON(w, http.StatusCreated, MaintenanceDTO{
		ID:        saved.ID,
		UnitID:    saved.UnitID,
		Title:     saved.Title,
		Status:    saved.Status,
		CreatedAt: formatInstant(saved.CreatedAt),
	})
}

// =============================================================================
// STATELESS EVALUATION
// =============================================================================

// EvaluateUnit resolves a unit posted in the body. Nothing is stored and
// malformed dates are treated as absent.
func (h *Handler) EvaluateUnit(w http.ResponseWriter, r *http.Request) {
	var req EvaluateUnitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	today, err := h.requestDay(req.AsOf, req.TimeZone)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of or time_zone", err)
		return
	}

	result := portfolio.EvaluateUnit(req.Record(), req.HasActiveMaintenance, today)

	writeJSON(w, http.StatusOK, UnitEvaluationDTO{
		Today:           today.String(),
		EffectiveStatus: result.Status,
		Rule:            result.Rule,
		Revenue:         toRevenueDTO(result.Revenue),
	})
}

// EvaluateLease classifies the lease posted in the body.
func (h *Handler) EvaluateLease(w http.ResponseWriter, r *http.Request) {
	var req EvaluateLeaseRequest
	if !h.decode(w, r, &req) {
		return
	}
	today, err := h.requestDay(req.AsOf, req.TimeZone)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of or time_zone", err)
		return
	}
	start, _ := calendar.ParseDay(req.LeaseStart)
	end, _ := calendar.ParseDay(req.LeaseEnd)

	window := h.Evaluator.RenewalWindowDays
	if req.RenewalWindowDays != nil {
		window = *req.RenewalWindowDays
	}
	status := lease.ClassifyLease(start, end, today, window)

	writeJSON(w, http.StatusOK, LeaseEvaluationDTO{
		Today:         today.String(),
		Status:        status,
		Badge:         lease.BadgeVariantFor(status),
		DaysRemaining: lease.DaysRemaining(end, today),
	})
}

// requestDay picks the calendar day for a stateless evaluation.
func (h *Handler) requestDay(asOf, zone string) (calendar.Day, error) {
	if zone == "" {
		zone = h.DefaultZone
	}
	if !calendar.ValidZone(zone) {
		return calendar.Day{}, fmt.Errorf("unknown time zone %q", zone)
	}
	now := h.Evaluator.Now()
	if asOf != "" {
		t, err := calendar.ParseInstant(asOf)
		if err != nil {
			return calendar.Day{}, err
		}
		now = t
	}
	return calendar.CalendarDateIn(now, zone), nil
}

// =============================================================================
// HELPERS
// =============================================================================

// evaluatorFor returns the evaluator pinned to ?as_of= when present.
func (h *Handler) evaluatorFor(r *http.Request) (*portfolio.Evaluator, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("as_of"))
	if raw == "" {
		return h.Evaluator, nil
	}
	at, err := calendar.ParseInstant(raw)
	if err != nil {
		return nil, err
	}
	return h.Evaluator.WithClock(calendar.FixedClock{At: at}), nil
}

// decode reads and validates a JSON body, writing a 400 on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]FieldError, len(verrs))
			for i, fe := range verrs {
				fields[i] = FieldError{Field: fe.Field(), Rule: fe.Tag()}
			}
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Error:   "Validation failed",
				Code:    "validation_failed",
				Details: fields,
			})
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// storeError maps store and evaluator errors onto HTTP statuses.
func (h *Handler) storeError(w http.ResponseWriter, r *http.Request, message string, err error) {
	switch {
	case portfolio.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: message, Code: "not_found", Details: err.Error()})
	case portfolio.IsClientError(err):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: message, Code: "invalid_record", Details: err.Error()})
	default:
		h.Log.Error(message,
			zap.Error(err),
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func (h *Handler) setCurrentScenario(id string) {
	h.mu.Lock()
	h.currentScenario = id
	h.mu.Unlock()
}

func (h *Handler) scenario() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.currentScenario
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toPropertyDTO(p portfolio.Property) PropertyDTO {
	return PropertyDTO{
		ID:        p.ID,
		Name:      p.Name,
		Address:   p.Address,
		TimeZone:  p.Location().String(),
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		CreatedAt: formatInstant(p.CreatedAt),
	}
}

func toUnitFields(u portfolio.UnitRecord) UnitFields {
	return UnitFields{
		Number:             u.Number,
		StoredStatus:       string(u.StoredStatus),
		StatusUntil:        calendar.FormatOptional(u.StatusUntil),
		RequiredRent:       u.RequiredRent,
		CurrentTenant:      u.CurrentTenant,
		CurrentLeaseStart:  calendar.FormatOptional(u.CurrentLeaseStart),
		CurrentLeaseEnd:    calendar.FormatOptional(u.CurrentLeaseEnd),
		IncomingTenant:     u.IncomingTenant,
		IncomingLeaseStart: calendar.FormatOptional(u.IncomingLeaseStart),
		IncomingLeaseEnd:   calendar.FormatOptional(u.IncomingLeaseEnd),
	}
}

func toUnitDTO(res portfolio.UnitResult) UnitDTO {
	return UnitDTO{
		ID:                   res.Unit.ID,
		PropertyID:           res.Unit.PropertyID,
		UnitFields:           toUnitFields(res.Unit),
		EffectiveStatus:      res.Status,
		Rule:                 res.Rule,
		HasActiveMaintenance: res.HasActiveMaintenance,
		Revenue:              toRevenueDTO(res.Revenue),
	}
}

func toUnitDTOs(results []portfolio.UnitResult) []UnitDTO {
	dtos := make([]UnitDTO, len(results))
	for i, res := range results {
		dtos[i] = toUnitDTO(res)
	}
	return dtos
}

func toTenantDTO(res portfolio.TenantResult) TenantDTO {
	t := res.Tenant
	return TenantDTO{
		ID:            t.ID,
		PropertyID:    t.PropertyID,
		UnitID:        t.UnitID,
		Name:          t.Name,
		Email:         t.Email,
		LeaseStart:    calendar.FormatOptional(t.LeaseStart),
		LeaseEnd:      calendar.FormatOptional(t.LeaseEnd),
		LeaseStatus:   res.Status,
		Badge:         res.Badge,
		DaysRemaining: res.DaysRemaining,
	}
}

func toTenantDTOs(results []portfolio.TenantResult) []TenantDTO {
	dtos := make([]TenantDTO, len(results))
	for i, res := range results {
		dtos[i] = toTenantDTO(res)
	}
	return dtos
}

func toRevenueDTO(r lease.RevenueResult) RevenueDTO {
	return RevenueDTO{
		MonthlyRevenue:  r.MonthlyRevenue.Round(2),
		ExpectedRevenue: r.ExpectedRevenue.Round(2),
	}
}

func toPropertySummaryDTO(s portfolio.PropertySummary) PropertySummaryDTO {
	leaseCounts := make(map[string]int, len(s.LeaseCounts))
	for status, n := range s.LeaseCounts {
		leaseCounts[string(status)] = n
	}
	return PropertySummaryDTO{
		Property:      toPropertyDTO(s.Property),
		AsOf:          s.AsOf.UTC().Format(time.RFC3339),
		Today:         s.Today.String(),
		TotalUnits:    s.TotalUnits,
		StatusCounts:  statusCounts(s.StatusCounts),
		LeaseCounts:   leaseCounts,
		OccupancyRate: s.OccupancyRate.StringFixed(2),
		Revenue:       toRevenueDTO(s.Revenue),
		Units:         toUnitDTOs(s.Units),
		Tenants:       toTenantDTOs(s.Tenants),
	}
}

func statusCounts(counts map[lease.EffectiveStatus]int) map[string]int {
	out := make(map[string]int, len(counts))
	for status, n := range counts {
		out[string(status)] = n
	}
	return out
}

func formatInstant(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
