package shift

import "time"

// Shift is a named working window. Start and end are "HH:MM" wall-clock strings in the deployment timezone.
type Shift struct {
	ID        string
	CompanyID string
	Name      string
	StartTime string
	EndTime   string
	CreatedAt time.Time
	UpdatedAt time.Time
}
