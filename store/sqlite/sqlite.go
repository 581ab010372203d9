/*
Package sqlite provides a SQLite-backed implementation of portfolio.Store.

PURPOSE:
  Reference persistence for properties, units, tenants and maintenance
  requests. In production the same rows live in Postgres; only minor SQL
  dialect differences apply.

KEY TABLES:
  properties:           name, IANA time zone, optional coordinates
  units:                stored status, override expiry, rent, current and
                        incoming lease columns
  tenants:              lease start/end per tenant
  maintenance_requests: status per request (pending/in_progress/...)

DERIVED VALUES:
  There is no effective_status column. Status and revenue are computed on
  read by the lease engine and never written here.

ENCODING:
  Dates are TEXT "YYYY-MM-DD". Money is TEXT holding a decimal. Dates that do
  not parse on the way out are read as NULL: a broken lease date means "no
  lease window", not a failed request.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. With PostgreSQL, database-level
  concurrency control handles this instead.

USAGE:
  store, err := sqlite.New("./data/leases.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - portfolio/store.go: Interface definitions
  - portfolio/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/lease-engine/calendar"
	"github.com/warp/lease-engine/lease"
	"github.com/warp/lease-engine/portfolio"
)

// Store implements portfolio.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Compile-time check that Store implements portfolio.Store
var _ portfolio.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every pooled connection to ":memory:" would get its own empty database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection. Used by the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS properties (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		address TEXT,
		time_zone TEXT,
		latitude REAL,
		longitude REAL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS units (
		id TEXT PRIMARY KEY,
		property_id TEXT NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
		number TEXT NOT NULL,
		stored_status TEXT NOT NULL DEFAULT 'vacant',
		status_until TEXT,
		required_rent TEXT,
		current_tenant TEXT,
		current_lease_start TEXT,
		current_lease_end TEXT,
		incoming_tenant TEXT,
		incoming_lease_start TEXT,
		incoming_lease_end TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_units_property
		ON units(property_id, number);

	CREATE TABLE IF NOT EXISTS tenants (
		id TEXT PRIMARY KEY,
		property_id TEXT NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
		unit_id TEXT,
		name TEXT NOT NULL,
		email TEXT,
		lease_start TEXT,
		lease_end TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_tenants_property
		ON tenants(property_id);

	CREATE TABLE IF NOT EXISTS maintenance_requests (
		id TEXT PRIMARY KEY,
		unit_id TEXT NOT NULL REFERENCES units(id) ON DELETE CASCADE,
		title TEXT,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Hot path: "does this unit have pending/in_progress work"
	CREATE INDEX IF NOT EXISTS idx_maintenance_unit_status
		ON maintenance_requests(unit_id, status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// PROPERTIES
// =============================================================================

// SaveProperty inserts or updates a property.
func (s *Store) SaveProperty(ctx context.Context, p portfolio.Property) (portfolio.Property, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO properties (id, name, address, time_zone, latitude, longitude, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			address = excluded.address,
			time_zone = excluded.time_zone,
			latitude = excluded.latitude,
			longitude = excluded.longitude
	`
	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.Name, nullString(p.Address), nullString(p.TimeZone),
		nullFloat(p.Latitude), nullFloat(p.Longitude),
		p.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return portfolio.Property{}, fmt.Errorf("failed to save property: %w", err)
	}
	return p, nil
}

// GetProperty retrieves a property by ID.
func (s *Store) GetProperty(ctx context.Context, id string) (portfolio.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, address, time_zone, latitude, longitude, created_at
		FROM properties WHERE id = ?`, id)

	p, err := scanProperty(row)
	if err == sql.ErrNoRows {
		return portfolio.Property{}, &portfolio.NotFoundError{Kind: portfolio.ErrPropertyNotFound, ID: id}
	}
	return p, err
}

// ListProperties returns all properties ordered by name.
func (s *Store) ListProperties(ctx context.Context) ([]portfolio.Property, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, address, time_zone, latitude, longitude, created_at
		FROM properties ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []portfolio.Property
	for rows.Next() {
		p, err := scanProperty(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func scanProperty(row scanner) (portfolio.Property, error) {
	var p portfolio.Property
	var address, zone sql.NullString
	var lat, lng sql.NullFloat64
	var createdAt string

	if err := row.Scan(&p.ID, &p.Name, &address, &zone, &lat, &lng, &createdAt); err != nil {
		return portfolio.Property{}, err
	}
	p.Address = address.String
	p.TimeZone = zone.String
	p.Latitude = floatPtr(lat)
	p.Longitude = floatPtr(lng)
	p.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return p, nil
}

// =============================================================================
// UNITS
// =============================================================================

const unitColumns = `id, property_id, number, stored_status, status_until, required_rent,
	current_tenant, current_lease_start, current_lease_end,
	incoming_tenant, incoming_lease_start, incoming_lease_end, created_at`

// SaveUnit inserts or updates a unit.
func (s *Store) SaveUnit(ctx context.Context, u portfolio.UnitRecord) (portfolio.UnitRecord, error) {
	if err := u.Validate(); err != nil {
		return portfolio.UnitRecord{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireProperty(ctx, u.PropertyID); err != nil {
		return portfolio.UnitRecord{}, err
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO units (` + unitColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			property_id = excluded.property_id,
			number = excluded.number,
			stored_status = excluded.stored_status,
			status_until = excluded.status_until,
			required_rent = excluded.required_rent,
			current_tenant = excluded.current_tenant,
			current_lease_start = excluded.current_lease_start,
			current_lease_end = excluded.current_lease_end,
			incoming_tenant = excluded.incoming_tenant,
			incoming_lease_start = excluded.incoming_lease_start,
			incoming_lease_end = excluded.incoming_lease_end
	`
	_, err := s.db.ExecContext(ctx, query,
		u.ID, u.PropertyID, u.Number, string(u.StoredStatus),
		nullDay(u.StatusUntil), nullDecimal(u.RequiredRent),
		nullStringPtr(u.CurrentTenant), nullDay(u.CurrentLeaseStart), nullDay(u.CurrentLeaseEnd),
		nullStringPtr(u.IncomingTenant), nullDay(u.IncomingLeaseStart), nullDay(u.IncomingLeaseEnd),
		u.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return portfolio.UnitRecord{}, fmt.Errorf("failed to save unit: %w", err)
	}
	return u, nil
}

// GetUnit retrieves a unit by ID.
func (s *Store) GetUnit(ctx context.Context, id string) (portfolio.UnitRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+unitColumns+" FROM units WHERE id = ?", id)
	u, err := scanUnit(row)
	if err == sql.ErrNoRows {
		return portfolio.UnitRecord{}, &portfolio.NotFoundError{Kind: portfolio.ErrUnitNotFound, ID: id}
	}
	return u, err
}

// ListUnits returns a property's units ordered by number.
func (s *Store) ListUnits(ctx context.Context, propertyID string) ([]portfolio.UnitRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+unitColumns+" FROM units WHERE property_id = ? ORDER BY number, id", propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []portfolio.UnitRecord
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

func scanUnit(row scanner) (portfolio.UnitRecord, error) {
	var u portfolio.UnitRecord
	var status, createdAt string
	var statusUntil, rent sql.NullString
	var curTenant, curStart, curEnd sql.NullString
	var incTenant, incStart, incEnd sql.NullString

	err := row.Scan(&u.ID, &u.PropertyID, &u.Number, &status, &statusUntil, &rent,
		&curTenant, &curStart, &curEnd, &incTenant, &incStart, &incEnd, &createdAt)
	if err != nil {
		return portfolio.UnitRecord{}, err
	}

	u.StoredStatus, _ = lease.ParseStoredStatus(status)
	u.StatusUntil = parseDay(statusUntil)
	u.RequiredRent = parseDecimal(rent)
	u.CurrentTenant = stringPtr(curTenant)
	u.CurrentLeaseStart = parseDay(curStart)
	u.CurrentLeaseEnd = parseDay(curEnd)
	u.IncomingTenant = stringPtr(incTenant)
	u.IncomingLeaseStart = parseDay(incStart)
	u.IncomingLeaseEnd = parseDay(incEnd)
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return u, nil
}

// =============================================================================
// TENANTS
// =============================================================================

// SaveTenant inserts or updates a tenant.
func (s *Store) SaveTenant(ctx context.Context, t portfolio.Tenant) (portfolio.Tenant, error) {
	if err := t.Validate(); err != nil {
		return portfolio.Tenant{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.requireProperty(ctx, t.PropertyID); err != nil {
		return portfolio.Tenant{}, err
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO tenants (id, property_id, unit_id, name, email, lease_start, lease_end, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			property_id = excluded.property_id,
			unit_id = excluded.unit_id,
			name = excluded.name,
			email = excluded.email,
			lease_start = excluded.lease_start,
			lease_end = excluded.lease_end
	`
	_, err := s.db.ExecContext(ctx, query,
		t.ID, t.PropertyID, nullString(t.UnitID), t.Name, nullString(t.Email),
		nullDay(t.LeaseStart), nullDay(t.LeaseEnd),
		t.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return portfolio.Tenant{}, fmt.Errorf("failed to save tenant: %w", err)
	}
	return t, nil
}

// ListTenants returns a property's tenants ordered by name.
func (s *Store) ListTenants(ctx context.Context, propertyID string) ([]portfolio.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, property_id, unit_id, name, email, lease_start, lease_end, created_at
		FROM tenants WHERE property_id = ? ORDER BY name, id`, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []portfolio.Tenant
	for rows.Next() {
		var t portfolio.Tenant
		var unitID, email, start, end sql.NullString
		var createdAt string
		if err := rows.Scan(&t.ID, &t.PropertyID, &unitID, &t.Name, &email, &start, &end, &createdAt); err != nil {
			return nil, err
		}
		t.UnitID = unitID.String
		t.Email = email.String
		t.LeaseStart = parseDay(start)
		t.LeaseEnd = parseDay(end)
		t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		result = append(result, t)
	}
	return result, rows.Err()
}

// =============================================================================
// MAINTENANCE
// =============================================================================

// SaveMaintenance inserts or updates a maintenance request.
func (s *Store) SaveMaintenance(ctx context.Context, m portfolio.MaintenanceRecord) (portfolio.MaintenanceRecord, error) {
	if !m.Status.Valid() {
		return portfolio.MaintenanceRecord{}, &portfolio.ValidationError{Field: "status", Reason: "unknown maintenance status"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var exists int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM units WHERE id = ?", m.UnitID).Scan(&exists)
	if err != nil {
		return portfolio.MaintenanceRecord{}, err
	}
	if exists == 0 {
		return portfolio.MaintenanceRecord{}, &portfolio.NotFoundError{Kind: portfolio.ErrUnitNotFound, ID: m.UnitID}
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO maintenance_requests (id, unit_id, title, status, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			status = excluded.status
	`
	_, err = s.db.ExecContext(ctx, query,
		m.ID, m.UnitID, nullString(m.Title), string(m.Status),
		m.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return portfolio.MaintenanceRecord{}, fmt.Errorf("failed to save maintenance request: %w", err)
	}
	return m, nil
}

// ListMaintenance returns requests for every unit of a property.
func (s *Store) ListMaintenance(ctx context.Context, propertyID string) ([]portfolio.MaintenanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.unit_id, m.title, m.status, m.created_at
		FROM maintenance_requests m
		JOIN units u ON u.id = m.unit_id
		WHERE u.property_id = ?
		ORDER BY m.created_at, m.id`, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []portfolio.MaintenanceRecord
	for rows.Next() {
		var m portfolio.MaintenanceRecord
		var title sql.NullString
		var status, createdAt string
		if err := rows.Scan(&m.ID, &m.UnitID, &title, &status, &createdAt); err != nil {
			return nil, err
		}
		m.Title = title.String
		m.Status = portfolio.MaintenanceStatus(status)
		m.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		result = append(result, m)
	}
	return result, rows.Err()
}

// =============================================================================
// ADMIN
// =============================================================================

// Reset deletes all data.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"maintenance_requests", "tenants", "units", "properties"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// requireProperty must be called with s.mu held.
func (s *Store) requireProperty(ctx context.Context, id string) error {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM properties WHERE id = ?", id).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		return &portfolio.NotFoundError{Kind: portfolio.ErrPropertyNotFound, ID: id}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullDay(d *calendar.Day) sql.NullString {
	if d == nil || d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func nullDecimal(d *decimal.Decimal) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

func parseDay(s sql.NullString) *calendar.Day {
	if !s.Valid {
		return nil
	}
	return calendar.ParseOptionalDay(s.String)
}

// parseDecimal reads rent leniently; garbage becomes "no rent".
func parseDecimal(s sql.NullString) *decimal.Decimal {
	if !s.Valid || strings.TrimSpace(s.String) == "" {
		return nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s.String))
	if err != nil {
		return nil
	}
	return &d
}
