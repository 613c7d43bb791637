package postgresql

import (
	"fmt"

	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/validator"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// newID returns a time-ordered UUIDv7 string.
func newID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("failed to generate id: %w", err)
	}
	return id.String(), nil
}

// checkID reports a malformed id as a missing row instead of letting the uuid cast fail.
func checkID(id string) error {
	if !validator.IsValidUUID(id) {
		return fmt.Errorf("malformed id %q: %w", id, pgx.ErrNoRows)
	}
	return nil
}

// validIDFilter reports whether an optional id filter can match any row.
func validIDFilter(id *string) bool {
	return id == nil || *id == "" || validator.IsValidUUID(*id)
}
