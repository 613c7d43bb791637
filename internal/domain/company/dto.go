package company

import (
	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/validator"
)

type CreateCompanyRequest struct {
	Name          string `json:"name"`
	AdminEmail    string `json:"admin_email"`
	AdminPassword string `json:"admin_password"`
}

func (r *CreateCompanyRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name is required",
		})
	}
	if len(r.Name) > 150 {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name must not exceed 150 characters",
		})
	}
	if !validator.IsValidEmail(r.AdminEmail) {
		errs = append(errs, validator.ValidationError{
			Field:   "admin_email",
			Message: "admin_email must be a valid email address",
		})
	}
	if len(r.AdminPassword) < 8 {
		errs = append(errs, validator.ValidationError{
			Field:   "admin_password",
			Message: "admin_password must be at least 8 characters long",
		})
	} else if len(r.AdminPassword) > 72 {
		errs = append(errs, validator.ValidationError{
			Field:   "admin_password",
			Message: "admin_password must not exceed 72 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type CompanyResponse struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	CreatedAt string             `json:"created_at"`
	Admin     *user.UserResponse `json:"admin,omitempty"`
}
