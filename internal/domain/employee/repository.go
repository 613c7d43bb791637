package employee

import "context"

type EmployeeRepository interface {
	Create(ctx context.Context, e Employee) (Employee, error)
	GetByID(ctx context.Context, id string, companyID string) (Employee, error)

	// GetByUsername and GetByDeviceCode search across companies; both values are globally unique.
	GetByUsername(ctx context.Context, username string) (Employee, error)
	GetByDeviceCode(ctx context.Context, code string) (Employee, error)

	List(ctx context.Context, filter EmployeeFilter, companyID string) ([]Employee, int64, error)
	Update(ctx context.Context, req UpdateEmployeeRequest) (Employee, error)
	UpdateDeviceCode(ctx context.Context, id string, companyID string, code string) error
	UpdateFaceDescriptor(ctx context.Context, id string, companyID string, descriptor *string) error
	Delete(ctx context.Context, id string, companyID string) error
}
