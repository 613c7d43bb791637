package employee

import "errors"

var (
	ErrEmployeeNotFound    = errors.New("employee not found")
	ErrUsernameExists      = errors.New("username already taken")
	ErrDeviceCodeExists    = errors.New("device code already in use")
	ErrDeviceCodeExhausted = errors.New("could not generate a unique device code")
	ErrFaceNotEnrolled     = errors.New("employee has no enrolled face")
	ErrFaceInputRequired   = errors.New("either descriptor or image is required")
)
