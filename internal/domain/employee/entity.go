package employee

import (
	"time"

	"github.com/shopspring/decimal"
)

type Employee struct {
	ID             string
	CompanyID      string
	Username       string
	PasswordHash   string
	FullName       string
	DeviceCode     string
	ShiftID        *string
	LocationID     *string
	FaceDescriptor *string
	BaseSalary     *decimal.Decimal
	HourlyRate     *decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Join; nil when unassigned or when the referenced row no longer exists
	ShiftName    *string
	LocationName *string
}

// HasFace reports whether a face descriptor is enrolled.
func (e Employee) HasFace() bool {
	return e.FaceDescriptor != nil && *e.FaceDescriptor != ""
}

// LocationDeleted reports a location reference whose location row is gone.
func (e Employee) LocationDeleted() bool {
	return e.LocationID != nil && e.LocationName == nil
}

// StoredDescriptor returns the serialized descriptor, or "" when nothing is enrolled.
func (e Employee) StoredDescriptor() string {
	if e.FaceDescriptor == nil {
		return ""
	}
	return *e.FaceDescriptor
}
