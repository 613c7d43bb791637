package shift

import "context"

type ShiftRepository interface {
	Create(ctx context.Context, s Shift) (Shift, error)
	GetByID(ctx context.Context, id string, companyID string) (Shift, error)
	GetByCompanyID(ctx context.Context, companyID string) ([]Shift, error)
	Update(ctx context.Context, req UpdateShiftRequest) (Shift, error)
	Delete(ctx context.Context, id string, companyID string) error
}
