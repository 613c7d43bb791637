package company

import (
	"context"
)

type CompanyService interface {
	// CreateCompany provisions a company together with its first admin account.
	CreateCompany(ctx context.Context, req CreateCompanyRequest) (CompanyResponse, error)
	ListCompanies(ctx context.Context) ([]CompanyResponse, error)
	GetMyCompany(ctx context.Context) (CompanyResponse, error)
}
