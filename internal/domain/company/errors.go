package company

import "errors"

var (
	ErrCompanyNotFound   = errors.New("company not found")
	ErrCompanyNameExists = errors.New("company with this name already exists")
)
