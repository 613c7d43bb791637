package shift

import "errors"

var (
	ErrShiftNotFound   = errors.New("shift not found")
	ErrShiftNameExists = errors.New("shift with this name already exists")
	ErrInvalidClock    = errors.New("invalid clock time, use HH:MM")
)
