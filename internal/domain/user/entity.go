package user

import "time"

// User is an administrator account. Super admins have no company.
type User struct {
	ID           string
	CompanyID    *string
	Email        string
	PasswordHash string
	IsSuperAdmin bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
