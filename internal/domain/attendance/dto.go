package attendance

import (
	"strings"
	"time"

	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/validator"
)

// ScanRequest is what the check-in client sends after decoding a location QR code.
type ScanRequest struct {
	QRPayload      string    `json:"qr_payload"`
	Latitude       *float64  `json:"latitude,omitempty"`
	Longitude      *float64  `json:"longitude,omitempty"`
	Accuracy       *float64  `json:"accuracy,omitempty"`
	GeoError       *string   `json:"geo_error,omitempty"`
	Selfie         *string   `json:"selfie,omitempty"` // base64, optionally a data URL
	FaceDescriptor []float64 `json:"face_descriptor,omitempty"`
}

// Cause reports why the scan carries no usable position, or "" if it does.
func (r *ScanRequest) Cause() GeoCause {
	if r.GeoError != nil && *r.GeoError != "" {
		if validator.IsInSlice(*r.GeoError, GeoCauseValues) {
			return GeoCause(*r.GeoError)
		}
		return GeoPositionUnavailable
	}
	if r.Latitude == nil || r.Longitude == nil ||
		!validator.IsValidLatitude(*r.Latitude) || !validator.IsValidLongitude(*r.Longitude) {
		return GeoMissingCoordinates
	}
	return ""
}

func (r *ScanRequest) HasSelfie() bool {
	return r.Selfie != nil && strings.TrimSpace(*r.Selfie) != ""
}

type RecordResponse struct {
	ID               string   `json:"id"`
	EmployeeID       string   `json:"employee_id"`
	EmployeeName     string   `json:"employee_name"`
	EmployeeUsername string   `json:"employee_username"`
	LocationID       *string  `json:"location_id,omitempty"`
	LocationName     *string  `json:"location_name,omitempty"`
	Timestamp        int64    `json:"timestamp"` // epoch milliseconds
	Status           Status   `json:"status"`
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
	Accuracy         *float64 `json:"accuracy,omitempty"`
	IsLate           *bool    `json:"is_late,omitempty"`
	IsEarly          *bool    `json:"is_early,omitempty"`
	ImageURL         *string  `json:"image_url,omitempty"`
	IsManual         bool     `json:"is_manual"`
	RequestID        *string  `json:"request_id,omitempty"`
	FaceDistance     *float64 `json:"face_distance,omitempty"`
}

type NextActionResponse struct {
	NextAction Status          `json:"next_action"`
	LastRecord *RecordResponse `json:"last_record,omitempty"`
}

type RecordFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	LocationID *string `json:"location_id,omitempty"`
	Status     *string `json:"status,omitempty"`
	StartDate  *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate    *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	IsManual   *bool   `json:"is_manual,omitempty"`

	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func validatePage(page, limit *int, errs validator.ValidationErrors) validator.ValidationErrors {
	if *page < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "page",
			Message: "page must be a positive number",
		})
	}
	if *page == 0 {
		*page = 1
	}
	if *limit < 0 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must be a positive number",
		})
	}
	if *limit == 0 {
		*limit = 20
	}
	if *limit > 100 {
		errs = append(errs, validator.ValidationError{
			Field:   "limit",
			Message: "limit must not exceed 100",
		})
	}
	return errs
}

func (f *RecordFilter) Validate() error {
	var errs validator.ValidationErrors

	errs = validatePage(&f.Page, &f.Limit, errs)

	if f.Status != nil && !validator.IsInSlice(*f.Status, StatusValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: " + strings.Join(StatusValues, ", "),
		})
	}

	var start, end time.Time
	if f.StartDate != nil && *f.StartDate != "" {
		var ok bool
		if start, ok = validator.IsValidDate(*f.StartDate); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "start_date",
				Message: "start_date must be in YYYY-MM-DD format",
			})
		}
	}
	if f.EndDate != nil && *f.EndDate != "" {
		var ok bool
		if end, ok = validator.IsValidDate(*f.EndDate); !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "end_date",
				Message: "end_date must be in YYYY-MM-DD format",
			})
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		errs = append(errs, validator.ValidationError{
			Field:   "end_date",
			Message: "end_date must not be before start_date",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ListRecordResponse struct {
	TotalCount int64            `json:"total_count"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"total_pages"`
	Showing    string           `json:"showing"`
	Records    []RecordResponse `json:"records"`
}

type SubmitRequestRequest struct {
	Type      string  `json:"type"`
	ClaimedAt *string `json:"claimed_at,omitempty"` // RFC3339, defaults to now
	Reason    string  `json:"reason"`
	Evidence  *string `json:"evidence,omitempty"` // base64 image

	claimedAt time.Time
}

func (r *SubmitRequestRequest) Validate() error {
	var errs validator.ValidationErrors

	if !validator.IsInSlice(r.Type, StatusValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "type",
			Message: "type must be one of: " + strings.Join(StatusValues, ", "),
		})
	}
	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason is required",
		})
	}
	if len(r.Reason) > 1000 {
		errs = append(errs, validator.ValidationError{
			Field:   "reason",
			Message: "reason must not exceed 1000 characters",
		})
	}
	if r.ClaimedAt != nil && *r.ClaimedAt != "" {
		t, ok := validator.IsValidDateTime(*r.ClaimedAt)
		if !ok {
			errs = append(errs, validator.ValidationError{
				Field:   "claimed_at",
				Message: "claimed_at must be an RFC3339 timestamp",
			})
		}
		r.claimedAt = t
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ClaimedTime returns the parsed claimed timestamp, or now when none was given. Call after Validate.
func (r *SubmitRequestRequest) ClaimedTime(now time.Time) time.Time {
	if r.claimedAt.IsZero() {
		return now
	}
	return r.claimedAt
}

type ProcessAction string

const (
	ProcessApprove ProcessAction = "approve"
	ProcessReject  ProcessAction = "reject"
)

type ProcessRequestRequest struct {
	ID     string        `json:"-"`
	Action ProcessAction `json:"-"`
	Note   *string       `json:"note,omitempty"`
}

func (r *ProcessRequestRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{
			Field:   "id",
			Message: "id is required",
		})
	}
	if r.Action != ProcessApprove && r.Action != ProcessReject {
		errs = append(errs, validator.ValidationError{
			Field:   "action",
			Message: "action must be approve or reject",
		})
	}
	if r.Note != nil && len(*r.Note) > 1000 {
		errs = append(errs, validator.ValidationError{
			Field:   "note",
			Message: "note must not exceed 1000 characters",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RequestResponse struct {
	ID           string        `json:"id"`
	EmployeeID   string        `json:"employee_id"`
	EmployeeName string        `json:"employee_name"`
	Type         Status        `json:"type"`
	ClaimedAt    int64         `json:"claimed_at"` // epoch milliseconds
	Reason       string        `json:"reason"`
	EvidenceURL  *string       `json:"evidence_url,omitempty"`
	Status       RequestStatus `json:"status"`
	ProcessedBy  *string       `json:"processed_by,omitempty"`
	ProcessedAt  *int64        `json:"processed_at,omitempty"`
	Note         *string       `json:"note,omitempty"`
	RecordID     *string       `json:"record_id,omitempty"`
	CreatedAt    string        `json:"created_at"`
}

type RequestFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	Status     *string `json:"status,omitempty"`

	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *RequestFilter) Validate() error {
	var errs validator.ValidationErrors

	errs = validatePage(&f.Page, &f.Limit, errs)

	if f.Status != nil && !validator.IsInSlice(*f.Status, RequestStatusValues) {
		errs = append(errs, validator.ValidationError{
			Field:   "status",
			Message: "status must be one of: " + strings.Join(RequestStatusValues, ", "),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ListRequestResponse struct {
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	Limit      int               `json:"limit"`
	TotalPages int               `json:"total_pages"`
	Showing    string            `json:"showing"`
	Requests   []RequestResponse `json:"requests"`
}
