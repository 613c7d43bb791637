package auth

import (
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/validator"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r *LoginRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Email) {
		errs = append(errs, validator.ValidationError{
			Field:   "email",
			Message: "email is required",
		})
	} else if !validator.IsValidEmail(r.Email) {
		errs = append(errs, validator.ValidationError{
			Field:   "email",
			Message: "email must be a valid email address",
		})
	}
	if len(r.Email) > 254 {
		errs = append(errs, validator.ValidationError{
			Field:   "email",
			Message: "email must not exceed 254 characters",
		})
	}

	errs = validatePassword(r.Password, errs)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type EmployeeLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *EmployeeLoginRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Username) {
		errs = append(errs, validator.ValidationError{
			Field:   "username",
			Message: "username is required",
		})
	}

	errs = validatePassword(r.Password, errs)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type DeviceCodeLoginRequest struct {
	DeviceCode string `json:"device_code"`
}

func (r *DeviceCodeLoginRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.DeviceCode) {
		errs = append(errs, validator.ValidationError{
			Field:   "device_code",
			Message: "device_code is required",
		})
	} else if !validator.IsValidDeviceCode(r.DeviceCode) {
		errs = append(errs, validator.ValidationError{
			Field:   "device_code",
			Message: "device_code must be 5 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validatePassword(password string, errs validator.ValidationErrors) validator.ValidationErrors {
	if validator.IsEmpty(password) {
		errs = append(errs, validator.ValidationError{
			Field:   "password",
			Message: "password is required",
		})
	} else if len(password) > 72 {
		errs = append(errs, validator.ValidationError{
			Field:   "password",
			Message: "password must not exceed 72 characters",
		})
	}
	return errs
}

type TokenResponse struct {
	AccessToken          string    `json:"access_token"`
	AccessTokenExpiresIn int64     `json:"access_token_expires_in"`
	Principal            Principal `json:"principal"`
}

type SSETokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}
