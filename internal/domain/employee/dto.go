package employee

import (
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/face"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type EmployeeResponse struct {
	ID              string           `json:"id"`
	CompanyID       string           `json:"company_id"`
	Username        string           `json:"username"`
	FullName        string           `json:"full_name"`
	DeviceCode      string           `json:"device_code"`
	ShiftID         *string          `json:"shift_id,omitempty"`
	ShiftName       *string          `json:"shift_name,omitempty"`
	LocationID      *string          `json:"location_id,omitempty"`
	LocationName    *string          `json:"location_name,omitempty"`
	LocationDeleted bool             `json:"location_deleted"`
	HasFace         bool             `json:"has_face"`
	BaseSalary      *decimal.Decimal `json:"base_salary,omitempty"`
	HourlyRate      *decimal.Decimal `json:"hourly_rate,omitempty"`
	CreatedAt       string           `json:"created_at"`
	UpdatedAt       string           `json:"updated_at"`
}

type CreateEmployeeRequest struct {
	CompanyID  string           `json:"-"`
	Username   string           `json:"username"`
	Password   string           `json:"password"`
	FullName   string           `json:"full_name"`
	ShiftID    *string          `json:"shift_id,omitempty"`
	LocationID *string          `json:"location_id,omitempty"`
	BaseSalary *decimal.Decimal `json:"base_salary,omitempty"`
	HourlyRate *decimal.Decimal `json:"hourly_rate,omitempty"`
}

func (r *CreateEmployeeRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsValidUsername(r.Username) {
		errs = append(errs, validator.ValidationError{
			Field:   "username",
			Message: "username must be 3-50 characters of letters, numbers, '.', '_' or '-'",
		})
	}
	if len(r.Password) < 6 {
		errs = append(errs, validator.ValidationError{
			Field:   "password",
			Message: "password must be at least 6 characters long",
		})
	} else if len(r.Password) > 72 {
		errs = append(errs, validator.ValidationError{
			Field:   "password",
			Message: "password must not exceed 72 characters",
		})
	}
	if validator.IsEmpty(r.FullName) {
		errs = append(errs, validator.ValidationError{
			Field:   "full_name",
			Message: "full_name is required",
		})
	}
	if len(r.FullName) > 150 {
		errs = append(errs, validator.ValidationError{
			Field:   "full_name",
			Message: "full_name must not exceed 150 characters",
		})
	}
	errs = validatePay(r.BaseSalary, r.HourlyRate, errs)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type UpdateEmployeeRequest struct {
	ID         string           `json:"-"`
	CompanyID  string           `json:"-"`
	Username   *string          `json:"username,omitempty"`
	Password   *string          `json:"password,omitempty"`
	FullName   *string          `json:"full_name,omitempty"`
	ShiftID    *string          `json:"shift_id,omitempty"`
	LocationID *string          `json:"location_id,omitempty"`
	BaseSalary *decimal.Decimal `json:"base_salary,omitempty"`
	HourlyRate *decimal.Decimal `json:"hourly_rate,omitempty"`

	// ClearShift and ClearLocation unassign; set when the request carries an empty id.
	ClearShift    bool `json:"-"`
	ClearLocation bool `json:"-"`

	PasswordHash *string `json:"-"`
}

func (r *UpdateEmployeeRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "id is required",
		})
	}
	if r.Username != nil && !validator.IsValidUsername(*r.Username) {
		errs = append(errs, validator.ValidationError{
			Field:   "username",
			Message: "username must be 3-50 characters of letters, numbers, '.', '_' or '-'",
		})
	}
	if r.Password != nil && (len(*r.Password) < 6 || len(*r.Password) > 72) {
		errs = append(errs, validator.ValidationError{
			Field:   "password",
			Message: "password must be between 6 and 72 characters",
		})
	}
	if r.FullName != nil && validator.IsEmpty(*r.FullName) {
		errs = append(errs, validator.ValidationError{
			Field:   "full_name",
			Message: "full_name must not be empty",
		})
	}
	errs = validatePay(r.BaseSalary, r.HourlyRate, errs)

	if r.ShiftID != nil && *r.ShiftID == "" {
		r.ShiftID = nil
		r.ClearShift = true
	}
	if r.LocationID != nil && *r.LocationID == "" {
		r.LocationID = nil
		r.ClearLocation = true
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validatePay(base, hourly *decimal.Decimal, errs validator.ValidationErrors) validator.ValidationErrors {
	if base != nil && base.IsNegative() {
		errs = append(errs, validator.ValidationError{
			Field:   "base_salary",
			Message: "base_salary must not be negative",
		})
	}
	if hourly != nil && hourly.IsNegative() {
		errs = append(errs, validator.ValidationError{
			Field:   "hourly_rate",
			Message: "hourly_rate must not be negative",
		})
	}
	return errs
}

type EmployeeFilter struct {
	Search     *string `json:"search,omitempty"`
	ShiftID    *string `json:"shift_id,omitempty"`
	LocationID *string `json:"location_id,omitempty"`

	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *EmployeeFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ListEmployeeResponse struct {
	TotalCount int64              `json:"total_count"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
	Showing    string             `json:"showing"`
	Employees  []EmployeeResponse `json:"employees"`
}

// EnrollFaceRequest carries either a descriptor computed on the device or an image to extract one from.
type EnrollFaceRequest struct {
	EmployeeID string    `json:"-"`
	Descriptor []float64 `json:"descriptor,omitempty"`
	Image      *string   `json:"image,omitempty"` // base64
}

func (r *EnrollFaceRequest) Validate() error {
	var errs validator.ValidationErrors

	hasImage := r.Image != nil && !validator.IsEmpty(*r.Image)
	if len(r.Descriptor) == 0 && !hasImage {
		errs = append(errs, validator.ValidationError{
			Field:   "descriptor",
			Message: ErrFaceInputRequired.Error(),
		})
	}
	if len(r.Descriptor) > 0 {
		if err := face.Descriptor(r.Descriptor).Validate(); err != nil {
			errs = append(errs, validator.ValidationError{
				Field:   "descriptor",
				Message: err.Error(),
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type DeviceCodeResponse struct {
	EmployeeID string `json:"employee_id"`
	DeviceCode string `json:"device_code"`
}
