package location

import (
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/validator"
)

type LocationResponse struct {
	ID             string  `json:"id"`
	CompanyID      string  `json:"company_id"`
	Name           string  `json:"name"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	RadiusMeters   float64 `json:"radius_meters"`
	SelfieRequired bool    `json:"selfie_required"`
	RotatingQR     bool    `json:"rotating_qr"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

// QRResponse is the current QR text for a location; ExpiresIn is set for rotating codes.
type QRResponse struct {
	Payload   string `json:"payload"`
	ExpiresIn *int   `json:"expires_in_seconds,omitempty"`
}

type CreateLocationRequest struct {
	CompanyID      string   `json:"-"`
	Name           string   `json:"name"`
	Latitude       *float64 `json:"latitude"`
	Longitude      *float64 `json:"longitude"`
	RadiusMeters   float64  `json:"radius_meters"`
	SelfieRequired bool     `json:"selfie_required"`
	RotatingQR     bool     `json:"rotating_qr"`
}

func (r *CreateLocationRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name is required",
		})
	}
	if len(r.Name) > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name must not exceed 100 characters",
		})
	}
	if r.Latitude == nil || !validator.IsValidLatitude(*r.Latitude) {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude must be between -90 and 90",
		})
	}
	if r.Longitude == nil || !validator.IsValidLongitude(*r.Longitude) {
		errs = append(errs, validator.ValidationError{
			Field:   "longitude",
			Message: "longitude must be between -180 and 180",
		})
	}
	if r.RadiusMeters <= 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "radius_meters",
			Message: "radius_meters must be greater than 0",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type UpdateLocationRequest struct {
	ID             string   `json:"-"`
	CompanyID      string   `json:"-"`
	Name           *string  `json:"name,omitempty"`
	Latitude       *float64 `json:"latitude,omitempty"`
	Longitude      *float64 `json:"longitude,omitempty"`
	RadiusMeters   *float64 `json:"radius_meters,omitempty"`
	SelfieRequired *bool    `json:"selfie_required,omitempty"`
	RotatingQR     *bool    `json:"rotating_qr,omitempty"`

	// set by the service when RotatingQR changes
	QRSecret      *string `json:"-"`
	ClearQRSecret bool    `json:"-"`
}

func (r *UpdateLocationRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "id is required",
		})
	}
	if r.Name != nil && validator.IsEmpty(*r.Name) {
		errs = append(errs, validator.ValidationError{
			Field:   "name",
			Message: "name must not be empty",
		})
	}
	if r.Latitude != nil && !validator.IsValidLatitude(*r.Latitude) {
		errs = append(errs, validator.ValidationError{
			Field:   "latitude",
			Message: "latitude must be between -90 and 90",
		})
	}
	if r.Longitude != nil && !validator.IsValidLongitude(*r.Longitude) {
		errs = append(errs, validator.ValidationError{
			Field:   "longitude",
			Message: "longitude must be between -180 and 180",
		})
	}
	if r.RadiusMeters != nil && *r.RadiusMeters <= 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "radius_meters",
			Message: "radius_meters must be greater than 0",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
