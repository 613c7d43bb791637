package attendance

import (
	"errors"
	"fmt"
)

var (
	// Scan errors
	ErrInvalidQrPayload     = errors.New("scanned code is not a valid location QR code")
	ErrInvalidLocationToken = errors.New("location QR code does not resolve to an active location")
	ErrLocationUnavailable  = errors.New("device location unavailable")
	ErrOutOfRange           = errors.New("outside the allowed attendance area")
	ErrSelfieRequired       = errors.New("selfie is required at this location")
	ErrNoFaceDetected       = errors.New("no face detected")
	ErrFaceMismatch         = errors.New("face does not match the enrolled employee")
	ErrPersistenceFailure   = errors.New("failed to save attendance record")

	// Request errors
	ErrInvalidRequestState = errors.New("attendance request has already been processed")
	ErrRequestNotFound     = errors.New("attendance request not found")
	ErrFutureTimestamp     = errors.New("claimed time must not be in the future")

	// General errors
	ErrRecordNotFound = errors.New("attendance record not found")
)

// LocationUnavailableError carries the reason no position was available.
type LocationUnavailableError struct {
	Cause GeoCause
}

func (e *LocationUnavailableError) Error() string {
	return fmt.Sprintf("%s: %s", ErrLocationUnavailable.Error(), e.Cause)
}

func (e *LocationUnavailableError) Is(target error) bool {
	return target == ErrLocationUnavailable
}

func NewLocationUnavailable(cause GeoCause) error {
	return &LocationUnavailableError{Cause: cause}
}
