package attendance

import (
	"context"
)

// AttendanceService decides and records check-ins and check-outs for the authenticated employee.
type AttendanceService interface {
	// NextAction reports whether the next scan will check in or check out. It never writes.
	NextAction(ctx context.Context) (NextActionResponse, error)

	// Record verifies a scan and appends exactly one record, or none on any failure.
	Record(ctx context.Context, req ScanRequest) (RecordResponse, error)

	GetMyRecords(ctx context.Context, filter RecordFilter) (ListRecordResponse, error)
	ListRecords(ctx context.Context, filter RecordFilter) (ListRecordResponse, error)
	GetRecord(ctx context.Context, id string) (RecordResponse, error)
}

// RequestService handles employee attendance requests and their resolution by admins.
type RequestService interface {
	Submit(ctx context.Context, req SubmitRequestRequest) (RequestResponse, error)
	Process(ctx context.Context, req ProcessRequestRequest) (RequestResponse, error)
	ListRequests(ctx context.Context, filter RequestFilter) (ListRequestResponse, error)
	GetMyRequests(ctx context.Context, filter RequestFilter) (ListRequestResponse, error)
}
