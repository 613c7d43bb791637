package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/location"
	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/shift"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/face"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/telemetry"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/utils"
	"github.com/cmlabs-hris/checkin-backend-go/internal/service/file"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Publisher delivers events to a company's live feed.
type Publisher interface {
	Publish(event sse.Event)
}

// Options tunes the scan decision.
type Options struct {
	Rules             shift.BoundaryRules
	UseAccuracyBuffer bool
	RequireFace       bool
	Matcher           face.Matcher
	QRPeriod          uint
	MaxImageBytes     int64
	Timezone          *time.Location
}

var _ attendance.AttendanceService = (*AttendanceServiceImpl)(nil)

type AttendanceServiceImpl struct {
	transactor   database.Transactor
	recordRepo   attendance.RecordRepository
	employeeRepo employee.EmployeeRepository
	locationRepo location.LocationRepository
	shiftRepo    shift.ShiftRepository
	fileService  file.FileService
	extractor    face.Extractor
	publisher    Publisher
	opts         Options
	now          func() time.Time
}

func NewAttendanceService(
	transactor database.Transactor,
	recordRepo attendance.RecordRepository,
	employeeRepo employee.EmployeeRepository,
	locationRepo location.LocationRepository,
	shiftRepo shift.ShiftRepository,
	fileService file.FileService,
	extractor face.Extractor,
	publisher Publisher,
	opts Options,
) *AttendanceServiceImpl {
	if opts.QRPeriod == 0 {
		opts.QRPeriod = 30
	}
	if opts.Timezone == nil {
		opts.Timezone = time.UTC
	}
	if opts.Matcher.Threshold() <= 0 {
		opts.Matcher = face.NewMatcher(face.DefaultThreshold)
	}
	return &AttendanceServiceImpl{
		transactor:   transactor,
		recordRepo:   recordRepo,
		employeeRepo: employeeRepo,
		locationRepo: locationRepo,
		shiftRepo:    shiftRepo,
		fileService:  fileService,
		extractor:    extractor,
		publisher:    publisher,
		opts:         opts,
		now:          time.Now,
	}
}

// NextAction implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) NextAction(ctx context.Context) (attendance.NextActionResponse, error) {
	me, err := auth.CurrentEmployee(ctx)
	if err != nil {
		return attendance.NextActionResponse{}, err
	}

	last, err := s.recordRepo.GetLatestByEmployee(ctx, me.ID, me.CompanyID)
	if err != nil {
		return attendance.NextActionResponse{}, fmt.Errorf("failed to get latest record: %w", err)
	}

	resp := attendance.NextActionResponse{NextAction: attendance.NextAction(last)}
	if last != nil {
		lastResp := s.toRecordResponse(*last)
		resp.LastRecord = &lastResp
	}
	return resp, nil
}

// Record implements attendance.AttendanceService. Checks run in a fixed order and the first failure wins.
func (s *AttendanceServiceImpl) Record(ctx context.Context, req attendance.ScanRequest) (attendance.RecordResponse, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "attendance.Record")
	defer span.End()

	rec, err := s.record(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return attendance.RecordResponse{}, err
	}
	span.SetAttributes(
		attribute.String("attendance.status", string(rec.Status)),
		attribute.String("attendance.employee_id", rec.EmployeeID),
	)

	resp := s.toRecordResponse(rec)
	s.publisher.Publish(sse.Event{
		CompanyID: rec.CompanyID,
		Event:     sse.EventAttendanceRecorded,
		Data:      resp,
	})
	return resp, nil
}

func (s *AttendanceServiceImpl) record(ctx context.Context, req attendance.ScanRequest) (attendance.Record, error) {
	me, err := auth.CurrentEmployee(ctx)
	if err != nil {
		return attendance.Record{}, err
	}

	emp, err := s.employeeRepo.GetByID(ctx, me.ID, me.CompanyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Record{}, employee.ErrEmployeeNotFound
		}
		return attendance.Record{}, fmt.Errorf("failed to get employee: %w", err)
	}

	payload, err := location.ParseQRPayload(req.QRPayload)
	if err != nil {
		return attendance.Record{}, attendance.ErrInvalidQrPayload
	}

	loc, err := s.locationRepo.GetByID(ctx, payload.LocationID, emp.CompanyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Record{}, attendance.ErrInvalidLocationToken
		}
		return attendance.Record{}, fmt.Errorf("failed to resolve location: %w", err)
	}
	if loc.Rotating() && !utils.VerifyTOTP(payload.Code, *loc.QRSecret, s.now(), s.opts.QRPeriod) {
		return attendance.Record{}, attendance.ErrInvalidLocationToken
	}

	if cause := req.Cause(); cause != "" {
		return attendance.Record{}, attendance.NewLocationUnavailable(cause)
	}
	point := location.Point{Latitude: *req.Latitude, Longitude: *req.Longitude}
	if req.Accuracy != nil {
		point.Accuracy = *req.Accuracy
	}
	if !loc.Contains(point, s.opts.UseAccuracyBuffer) {
		slog.Info("Scan outside geofence",
			"employee_id", emp.ID,
			"location_id", loc.ID,
			"distance_m", loc.DistanceTo(point),
		)
		return attendance.Record{}, attendance.ErrOutOfRange
	}

	if loc.SelfieRequired && !req.HasSelfie() {
		return attendance.Record{}, attendance.ErrSelfieRequired
	}
	var selfie []byte
	if req.HasSelfie() {
		selfie, err = file.DecodeBase64Image(*req.Selfie, s.opts.MaxImageBytes)
		if err != nil {
			return attendance.Record{}, err
		}
	}

	var faceDistance *float64
	if s.opts.RequireFace && emp.HasFace() {
		distance, err := s.verifyFace(ctx, emp, req.FaceDescriptor, selfie)
		if err != nil {
			return attendance.Record{}, err
		}
		faceDistance = &distance
	}

	var (
		created   attendance.Record
		imagePath *string
	)
	err = s.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		if err := s.recordRepo.LockEmployee(txCtx, emp.ID); err != nil {
			return fmt.Errorf("%w: %w", attendance.ErrPersistenceFailure, err)
		}

		last, err := s.recordRepo.GetLatestByEmployee(txCtx, emp.ID, emp.CompanyID)
		if err != nil {
			return fmt.Errorf("%w: %w", attendance.ErrPersistenceFailure, err)
		}
		status := attendance.NextAction(last)
		now := s.now()

		rec := attendance.Record{
			CompanyID:        emp.CompanyID,
			EmployeeID:       emp.ID,
			EmployeeName:     emp.FullName,
			EmployeeUsername: emp.Username,
			LocationID:       &loc.ID,
			LocationName:     &loc.Name,
			Timestamp:        now,
			Status:           status,
			Latitude:         req.Latitude,
			Longitude:        req.Longitude,
			Accuracy:         req.Accuracy,
			FaceDistance:     faceDistance,
		}

		boundary, err := s.classify(txCtx, emp, now, status)
		if err != nil {
			return err
		}
		if status == attendance.StatusCheckIn {
			rec.IsLate = &boundary.IsLate
		} else {
			rec.IsEarly = &boundary.IsEarly
		}

		if selfie != nil {
			path, err := s.fileService.UploadAttendanceSelfie(txCtx, emp.CompanyID, emp.ID, now, string(status), selfie)
			if err != nil {
				return fmt.Errorf("%w: %w", attendance.ErrPersistenceFailure, err)
			}
			rec.ImagePath = &path
			imagePath = &path
		}

		created, err = s.recordRepo.Create(txCtx, rec)
		if err != nil {
			return fmt.Errorf("%w: %w", attendance.ErrPersistenceFailure, err)
		}
		return nil
	})
	if err != nil {
		if imagePath != nil {
			if delErr := s.fileService.DeleteFile(ctx, *imagePath); delErr != nil {
				slog.Warn("Failed to remove orphaned selfie", "path", *imagePath, "error", delErr)
			}
		}
		return attendance.Record{}, persistenceError(err)
	}

	slog.Info("Attendance recorded",
		"employee_id", created.EmployeeID,
		"company_id", created.CompanyID,
		"action", created.Status,
		"location_id", loc.ID,
	)
	return created, nil
}

// verifyFace returns the distance between the live face and the enrolled one.
func (s *AttendanceServiceImpl) verifyFace(ctx context.Context, emp employee.Employee, live []float64, selfie []byte) (float64, error) {
	descriptor := face.Descriptor(live)
	if len(descriptor) == 0 && selfie != nil && s.extractor != nil {
		extracted, err := s.extractor.Extract(ctx, selfie)
		if err != nil {
			if errors.Is(err, face.ErrNoFace) {
				return 0, attendance.ErrNoFaceDetected
			}
			return 0, fmt.Errorf("failed to extract face: %w", err)
		}
		descriptor = extracted
	}
	if len(descriptor) == 0 || descriptor.Validate() != nil {
		return 0, attendance.ErrNoFaceDetected
	}

	result, err := s.opts.Matcher.Match(descriptor, emp.StoredDescriptor())
	if err != nil {
		return 0, fmt.Errorf("failed to match face: %w", err)
	}
	if !result.IsMatch {
		slog.Info("Face mismatch", "employee_id", emp.ID, "distance", result.Distance)
		return 0, attendance.ErrFaceMismatch
	}
	return result.Distance, nil
}

// classify flags the event against the employee's shift. A shift that no longer exists counts as none.
// persistenceError classifies a failed transaction. Begin, commit and rollback failures surface
// unwrapped from the transactor, so anything not already a domain error is a persistence failure.
func persistenceError(err error) error {
	switch {
	case errors.Is(err, attendance.ErrPersistenceFailure),
		errors.Is(err, attendance.ErrRequestNotFound),
		errors.Is(err, attendance.ErrInvalidRequestState):
		return err
	default:
		return fmt.Errorf("%w: %w", attendance.ErrPersistenceFailure, err)
	}
}

func (s *AttendanceServiceImpl) classify(ctx context.Context, emp employee.Employee, at time.Time, status attendance.Status) (shift.Boundary, error) {
	if emp.ShiftID == nil {
		return shift.Boundary{}, nil
	}

	sh, err := s.shiftRepo.GetByID(ctx, *emp.ShiftID, emp.CompanyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shift.Boundary{}, nil
		}
		return shift.Boundary{}, fmt.Errorf("%w: %w", attendance.ErrPersistenceFailure, err)
	}

	kind := shift.EventCheckIn
	if status == attendance.StatusCheckOut {
		kind = shift.EventCheckOut
	}
	boundary, err := shift.Classify(at, &sh, kind, s.opts.Rules, s.opts.Timezone)
	if err != nil {
		slog.Warn("Shift has invalid clock times", "shift_id", sh.ID, "error", err)
		return shift.Boundary{}, nil
	}
	return boundary, nil
}

// GetMyRecords implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetMyRecords(ctx context.Context, filter attendance.RecordFilter) (attendance.ListRecordResponse, error) {
	me, err := auth.CurrentEmployee(ctx)
	if err != nil {
		return attendance.ListRecordResponse{}, err
	}
	filter.EmployeeID = &me.ID
	return s.list(ctx, filter, me.CompanyID)
}

// ListRecords implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListRecords(ctx context.Context, filter attendance.RecordFilter) (attendance.ListRecordResponse, error) {
	admin, err := auth.CurrentAdmin(ctx)
	if err != nil {
		return attendance.ListRecordResponse{}, err
	}
	return s.list(ctx, filter, admin.CompanyID)
}

// GetRecord implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetRecord(ctx context.Context, id string) (attendance.RecordResponse, error) {
	admin, err := auth.CurrentAdmin(ctx)
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	rec, err := s.recordRepo.GetByID(ctx, id, admin.CompanyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.RecordResponse{}, attendance.ErrRecordNotFound
		}
		return attendance.RecordResponse{}, fmt.Errorf("failed to get record: %w", err)
	}
	return s.toRecordResponse(rec), nil
}

func (s *AttendanceServiceImpl) list(ctx context.Context, filter attendance.RecordFilter, companyID string) (attendance.ListRecordResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListRecordResponse{}, err
	}

	records, total, err := s.recordRepo.List(ctx, filter, companyID)
	if err != nil {
		return attendance.ListRecordResponse{}, fmt.Errorf("failed to list records: %w", err)
	}

	responses := make([]attendance.RecordResponse, 0, len(records))
	for _, rec := range records {
		responses = append(responses, s.toRecordResponse(rec))
	}

	totalPages, showing := paginate(total, filter.Page, filter.Limit)
	return attendance.ListRecordResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Showing:    showing,
		Records:    responses,
	}, nil
}

func (s *AttendanceServiceImpl) toRecordResponse(rec attendance.Record) attendance.RecordResponse {
	resp := attendance.RecordResponse{
		ID:               rec.ID,
		EmployeeID:       rec.EmployeeID,
		EmployeeName:     rec.EmployeeName,
		EmployeeUsername: rec.EmployeeUsername,
		LocationID:       rec.LocationID,
		LocationName:     rec.LocationName,
		Timestamp:        rec.Timestamp.UnixMilli(),
		Status:           rec.Status,
		Latitude:         rec.Latitude,
		Longitude:        rec.Longitude,
		Accuracy:         rec.Accuracy,
		IsLate:           rec.IsLate,
		IsEarly:          rec.IsEarly,
		IsManual:         rec.IsManual,
		RequestID:        rec.RequestID,
		FaceDistance:     rec.FaceDistance,
	}
	if rec.ImagePath != nil {
		url := s.fileService.FileURL(*rec.ImagePath)
		resp.ImageURL = &url
	}
	return resp
}
