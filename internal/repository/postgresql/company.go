package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/company"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/database"
)

type companyRepositoryImpl struct {
	db *database.DB
}

func NewCompanyRepository(db *database.DB) company.CompanyRepository {
	return &companyRepositoryImpl{db: db}
}

// Create implements company.CompanyRepository.
func (c *companyRepositoryImpl) Create(ctx context.Context, newCompany company.Company) (company.Company, error) {
	q := GetQuerier(ctx, c.db)

	id, err := newID()
	if err != nil {
		return company.Company{}, err
	}

	var created company.Company
	err = q.QueryRow(ctx, `
		INSERT INTO companies (id, name, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		RETURNING id, name, created_at, updated_at
	`, id, newCompany.Name).Scan(&created.ID, &created.Name, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return company.Company{}, fmt.Errorf("failed to create company: %w", err)
	}
	return created, nil
}

// GetByID implements company.CompanyRepository.
func (c *companyRepositoryImpl) GetByID(ctx context.Context, id string) (company.Company, error) {
	if err := checkID(id); err != nil {
		return company.Company{}, err
	}

	q := GetQuerier(ctx, c.db)

	var comp company.Company
	err := q.QueryRow(ctx, `
		SELECT id, name, created_at, updated_at FROM companies WHERE id = $1
	`, id).Scan(&comp.ID, &comp.Name, &comp.CreatedAt, &comp.UpdatedAt)
	if err != nil {
		return company.Company{}, fmt.Errorf("failed to get company by id %s: %w", id, err)
	}
	return comp, nil
}

// List implements company.CompanyRepository.
func (c *companyRepositoryImpl) List(ctx context.Context) ([]company.Company, error) {
	q := GetQuerier(ctx, c.db)

	rows, err := q.Query(ctx, `SELECT id, name, created_at, updated_at FROM companies ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	var companies []company.Company
	for rows.Next() {
		var comp company.Company
		if err := rows.Scan(&comp.ID, &comp.Name, &comp.CreatedAt, &comp.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, comp)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return companies, nil
}
