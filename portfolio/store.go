/*
store.go - Persistence contracts for property, unit, tenant and maintenance rows

PURPOSE:
  The engine never touches storage. These interfaces sit between the
  aggregation service and whatever holds the rows.

KEY INTERFACES:
  Reader: everything the evaluator needs to build a summary
  Writer: CRUD used by the API and demo scenarios
  Store:  both

NO DERIVED COLUMNS:
  There is no way to write an effective status. Incoming leases that have
  started are promoted on read, every time; nothing here rewrites the
  current-lease fields.

IMPLEMENTATIONS:
  - portfolio/store/memory.go: in-memory, for tests and dev
  - store/sqlite/sqlite.go: SQLite
*/
package portfolio

import "context"

// Reader loads rows. Get methods return a NotFoundError for unknown IDs.
type Reader interface {
	ListProperties(ctx context.Context) ([]Property, error)
	GetProperty(ctx context.Context, id string) (Property, error)

	ListUnits(ctx context.Context, propertyID string) ([]UnitRecord, error)
	GetUnit(ctx context.Context, id string) (UnitRecord, error)

	ListTenants(ctx context.Context, propertyID string) ([]Tenant, error)

	// ListMaintenance returns requests for every unit of the property.
	ListMaintenance(ctx context.Context, propertyID string) ([]MaintenanceRecord, error)
}

// Writer saves rows. Save methods insert or replace by ID; a blank ID gets a
// generated one, which is returned.
type Writer interface {
	SaveProperty(ctx context.Context, p Property) (Property, error)
	SaveUnit(ctx context.Context, u UnitRecord) (UnitRecord, error)
	SaveTenant(ctx context.Context, t Tenant) (Tenant, error)
	SaveMaintenance(ctx context.Context, m MaintenanceRecord) (MaintenanceRecord, error)

	// Reset removes everything.
	Reset(ctx context.Context) error
}

// Store is a Reader and a Writer.
type Store interface {
	Reader
	Writer
}
