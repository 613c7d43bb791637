package company

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/company"
	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/shift"
	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/checkin-backend-go/internal/fixtures"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

type CompanyServiceImpl struct {
	transactor        database.Transactor
	companyRepository company.CompanyRepository
	userRepository    user.UserRepository
	shiftRepository   shift.ShiftRepository
}

func NewCompanyService(transactor database.Transactor, companyRepository company.CompanyRepository, userRepository user.UserRepository, shiftRepository shift.ShiftRepository) company.CompanyService {
	return &CompanyServiceImpl{
		transactor:        transactor,
		companyRepository: companyRepository,
		userRepository:    userRepository,
		shiftRepository:   shiftRepository,
	}
}

// CreateCompany implements company.CompanyService. The company, its admin and the default shifts are created in one transaction.
func (c *CompanyServiceImpl) CreateCompany(ctx context.Context, req company.CreateCompanyRequest) (company.CompanyResponse, error) {
	if _, err := auth.CurrentSuperAdmin(ctx); err != nil {
		return company.CompanyResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return company.CompanyResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return company.CompanyResponse{}, fmt.Errorf("failed to hash admin password: %w", err)
	}

	var (
		newCompany company.Company
		admin      user.User
	)
	err = c.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		exists, err := c.userRepository.ExistsByEmail(txCtx, req.AdminEmail)
		if err != nil {
			return fmt.Errorf("failed to check admin email: %w", err)
		}
		if exists {
			return user.ErrEmailExists
		}

		newCompany, err = c.companyRepository.Create(txCtx, company.Company{Name: strings.TrimSpace(req.Name)})
		if err != nil {
			if database.IsUniqueViolation(err, database.ConstraintCompanyName) {
				return company.ErrCompanyNameExists
			}
			return fmt.Errorf("failed to create company: %w", err)
		}

		admin, err = c.userRepository.Create(txCtx, user.User{
			CompanyID:    &newCompany.ID,
			Email:        req.AdminEmail,
			PasswordHash: string(hash),
		})
		if err != nil {
			if database.IsUniqueViolation(err, database.ConstraintUserEmail) {
				return user.ErrEmailExists
			}
			return fmt.Errorf("failed to create company admin: %w", err)
		}

		for _, s := range fixtures.GetDefaultShifts(newCompany.ID) {
			if _, err := c.shiftRepository.Create(txCtx, s); err != nil {
				return fmt.Errorf("failed to seed shift %q: %w", s.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return company.CompanyResponse{}, err
	}

	slog.Info("Company created", "company_id", newCompany.ID, "admin_id", admin.ID)

	resp := toCompanyResponse(newCompany)
	adminResp := toUserResponse(admin)
	resp.Admin = &adminResp
	return resp, nil
}

// ListCompanies implements company.CompanyService.
func (c *CompanyServiceImpl) ListCompanies(ctx context.Context) ([]company.CompanyResponse, error) {
	if _, err := auth.CurrentSuperAdmin(ctx); err != nil {
		return nil, err
	}

	companies, err := c.companyRepository.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}

	responses := make([]company.CompanyResponse, 0, len(companies))
	for _, comp := range companies {
		responses = append(responses, toCompanyResponse(comp))
	}
	return responses, nil
}

// GetMyCompany implements company.CompanyService.
func (c *CompanyServiceImpl) GetMyCompany(ctx context.Context) (company.CompanyResponse, error) {
	p, err := auth.CurrentMember(ctx)
	if err != nil {
		return company.CompanyResponse{}, err
	}

	comp, err := c.companyRepository.GetByID(ctx, p.CompanyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return company.CompanyResponse{}, company.ErrCompanyNotFound
		}
		return company.CompanyResponse{}, fmt.Errorf("failed to get company: %w", err)
	}
	return toCompanyResponse(comp), nil
}

func toCompanyResponse(c company.Company) company.CompanyResponse {
	return company.CompanyResponse{
		ID:        c.ID,
		Name:      c.Name,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}

func toUserResponse(u user.User) user.UserResponse {
	return user.UserResponse{
		ID:           u.ID,
		CompanyID:    u.CompanyID,
		Email:        u.Email,
		IsSuperAdmin: u.IsSuperAdmin,
		CreatedAt:    u.CreatedAt.Format(time.RFC3339),
	}
}
