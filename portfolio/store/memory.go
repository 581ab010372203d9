// Package store provides portfolio.Store implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/warp/lease-engine/portfolio"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	properties  map[string]portfolio.Property
	units       map[string]portfolio.UnitRecord
	tenants     map[string]portfolio.Tenant
	maintenance map[string]portfolio.MaintenanceRecord
	now         func() time.Time
}

// Compile-time check that Memory implements portfolio.Store
var _ portfolio.Store = (*Memory)(nil)

func NewMemory() *Memory {
	m := &Memory{now: time.Now}
	m.resetLocked()
	return m
}

func (m *Memory) resetLocked() {
	m.properties = make(map[string]portfolio.Property)
	m.units = make(map[string]portfolio.UnitRecord)
	m.tenants = make(map[string]portfolio.Tenant)
	m.maintenance = make(map[string]portfolio.MaintenanceRecord)
}

func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
	return nil
}

// =============================================================================
// PROPERTIES
// =============================================================================

func (m *Memory) SaveProperty(_ context.Context, p portfolio.Property) (portfolio.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = m.now().UTC()
	}
	m.properties[p.ID] = p
	return p, nil
}

func (m *Memory) GetProperty(_ context.Context, id string) (portfolio.Property, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.properties[id]
	if !ok {
		return portfolio.Property{}, &portfolio.NotFoundError{Kind: portfolio.ErrPropertyNotFound, ID: id}
	}
	return p, nil
}

func (m *Memory) ListProperties(_ context.Context) ([]portfolio.Property, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]portfolio.Property, 0, len(m.properties))
	for _, p := range m.properties {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name || (result[i].Name == result[j].Name && result[i].ID < result[j].ID) })
	return result, nil
}

// =============================================================================
// UNITS
// =============================================================================

func (m *Memory) SaveUnit(_ context.Context, u portfolio.UnitRecord) (portfolio.UnitRecord, error) {
	if err := u.Validate(); err != nil {
		return portfolio.UnitRecord{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.properties[u.PropertyID]; !ok {
		return portfolio.UnitRecord{}, &portfolio.NotFoundError{Kind: portfolio.ErrPropertyNotFound, ID: u.PropertyID}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = m.now().UTC()
	}
	m.units[u.ID] = u
	return u, nil
}

func (m *Memory) GetUnit(_ context.Context, id string) (portfolio.UnitRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.units[id]
	if !ok {
		return portfolio.UnitRecord{}, &portfolio.NotFoundError{Kind: portfolio.ErrUnitNotFound, ID: id}
	}
	return u, nil
}

func (m *Memory) ListUnits(_ context.Context, propertyID string) ([]portfolio.UnitRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []portfolio.UnitRecord
	for _, u := range m.units {
		if u.PropertyID == propertyID {
			result = append(result, u)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Number != result[j].Number {
			return result[i].Number < result[j].Number
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// =============================================================================
// TENANTS & MAINTENANCE
// =============================================================================

func (m *Memory) SaveTenant(_ context.Context, t portfolio.Tenant) (portfolio.Tenant, error) {
	if err := t.Validate(); err != nil {
		return portfolio.Tenant{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.properties[t.PropertyID]; !ok {
		return portfolio.Tenant{}, &portfolio.NotFoundError{Kind: portfolio.ErrPropertyNotFound, ID: t.PropertyID}
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = m.now().UTC()
	}
	m.tenants[t.ID] = t
	return t, nil
}

func (m *Memory) ListTenants(_ context.Context, propertyID string) ([]portfolio.Tenant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []portfolio.Tenant
	for _, t := range m.tenants {
		if t.PropertyID == propertyID {
			result = append(result, t)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *Memory) SaveMaintenance(_ context.Context, rec portfolio.MaintenanceRecord) (portfolio.MaintenanceRecord, error) {
	if !rec.Status.Valid() {
		return portfolio.MaintenanceRecord{}, &portfolio.ValidationError{Field: "status", Reason: "unknown maintenance status"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.units[rec.UnitID]; !ok {
		return portfolio.MaintenanceRecord{}, &portfolio.NotFoundError{Kind: portfolio.ErrUnitNotFound, ID: rec.UnitID}
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = m.now().UTC()
	}
	m.maintenance[rec.ID] = rec
	return rec, nil
}

func (m *Memory) ListMaintenance(_ context.Context, propertyID string) ([]portfolio.MaintenanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []portfolio.MaintenanceRecord
	for _, rec := range m.maintenance {
		if u, ok := m.units[rec.UnitID]; ok && u.PropertyID == propertyID {
			result = append(result, rec)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}
