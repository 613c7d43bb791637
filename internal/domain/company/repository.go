package company

import "context"

type CompanyRepository interface {
	GetByID(ctx context.Context, id string) (Company, error)
	List(ctx context.Context) ([]Company, error)
	Create(ctx context.Context, newCompany Company) (Company, error)
}
