package attendance

import (
	"context"
)

// RecordRepository stores attendance records. Records are append-only: there is no update or delete.
// All methods take companyID to keep tenants isolated.
type RecordRepository interface {
	Create(ctx context.Context, record Record) (Record, error)
	GetByID(ctx context.Context, id string, companyID string) (Record, error)

	// GetLatestByEmployee returns nil when the employee has no records.
	GetLatestByEmployee(ctx context.Context, employeeID string, companyID string) (*Record, error)

	List(ctx context.Context, filter RecordFilter, companyID string) ([]Record, int64, error)

	// LockEmployee serialises attendance writes for one employee until the surrounding transaction ends.
	LockEmployee(ctx context.Context, employeeID string) error
}

type RequestRepository interface {
	Create(ctx context.Context, req Request) (Request, error)
	GetByID(ctx context.Context, id string, companyID string) (Request, error)

	// GetByIDForUpdate locks the row until the surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id string, companyID string) (Request, error)

	UpdateProcessed(ctx context.Context, req Request) error
	List(ctx context.Context, filter RequestFilter, companyID string) ([]Request, int64, error)
}
