package location

import "context"

type LocationRepository interface {
	Create(ctx context.Context, l Location) (Location, error)
	GetByID(ctx context.Context, id string, companyID string) (Location, error)
	GetByCompanyID(ctx context.Context, companyID string) ([]Location, error)
	Update(ctx context.Context, req UpdateLocationRequest) (Location, error)
	Delete(ctx context.Context, id string, companyID string) error
}
