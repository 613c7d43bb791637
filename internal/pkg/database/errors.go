package database

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Constraint names from migrations/001_init.sql that services translate into domain errors.
const (
	ConstraintEmployeeUsername   = "employees_username_key"
	ConstraintEmployeeDeviceCode = "employees_device_code_key"
	ConstraintUserEmail          = "users_email_key"
	ConstraintCompanyName        = "companies_name_key"
	ConstraintShiftName          = "shifts_company_id_name_key"
	ConstraintLocationName       = "locations_company_id_name_key"
)

// IsUniqueViolation reports whether err is a unique_violation, on a specific constraint when one is given.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
