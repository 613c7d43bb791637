package attendance

import (
	"time"
)

// Status is the kind of an attendance event.
type Status string

const (
	StatusCheckIn  Status = "CHECK_IN"
	StatusCheckOut Status = "CHECK_OUT"
)

var StatusValues = []string{
	string(StatusCheckIn),
	string(StatusCheckOut),
}

// Record is an immutable attendance event. Employee and location names are snapshots taken at write time.
type Record struct {
	ID               string
	CompanyID        string
	EmployeeID       string
	EmployeeName     string
	EmployeeUsername string
	LocationID       *string
	LocationName     *string
	Timestamp        time.Time
	Status           Status
	Latitude         *float64
	Longitude        *float64
	Accuracy         *float64
	IsLate           *bool
	IsEarly          *bool
	ImagePath        *string
	IsManual         bool
	RequestID        *string
	FaceDistance     *float64
	CreatedAt        time.Time
}

// NextAction derives the expected action from the employee's most recent record.
func NextAction(last *Record) Status {
	if last == nil || last.Status == StatusCheckOut {
		return StatusCheckIn
	}
	return StatusCheckOut
}

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "PENDING"
	RequestStatusApproved RequestStatus = "APPROVED"
	RequestStatusRejected RequestStatus = "REJECTED"
)

var RequestStatusValues = []string{
	string(RequestStatusPending),
	string(RequestStatusApproved),
	string(RequestStatusRejected),
}

// Request is an employee's claim for a missed or failed scan, resolved by an admin.
type Request struct {
	ID           string
	CompanyID    string
	EmployeeID   string
	EmployeeName string
	Type         Status
	ClaimedAt    time.Time
	Reason       string
	EvidencePath *string
	Status       RequestStatus
	ProcessedBy  *string
	ProcessedAt  *time.Time
	Note         *string
	RecordID     *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// GeoCause classifies why no usable position reached the server.
type GeoCause string

const (
	GeoPermissionDenied    GeoCause = "permission_denied"
	GeoPositionUnavailable GeoCause = "position_unavailable"
	GeoTimeout             GeoCause = "timeout"
	GeoMissingCoordinates  GeoCause = "missing_coordinates"
)

var GeoCauseValues = []string{
	string(GeoPermissionDenied),
	string(GeoPositionUnavailable),
	string(GeoTimeout),
}
