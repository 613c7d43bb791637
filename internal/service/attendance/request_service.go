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
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/checkin-backend-go/internal/service/file"
	"github.com/jackc/pgx/v5"
)

var _ attendance.RequestService = (*RequestServiceImpl)(nil)

type RequestServiceImpl struct {
	transactor    database.Transactor
	requestRepo   attendance.RequestRepository
	recordRepo    attendance.RecordRepository
	employeeRepo  employee.EmployeeRepository
	fileService   file.FileService
	publisher     Publisher
	maxImageBytes int64
	now           func() time.Time
}

func NewRequestService(
	transactor database.Transactor,
	requestRepo attendance.RequestRepository,
	recordRepo attendance.RecordRepository,
	employeeRepo employee.EmployeeRepository,
	fileService file.FileService,
	publisher Publisher,
	maxImageBytes int64,
) *RequestServiceImpl {
	return &RequestServiceImpl{
		transactor:    transactor,
		requestRepo:   requestRepo,
		recordRepo:    recordRepo,
		employeeRepo:  employeeRepo,
		fileService:   fileService,
		publisher:     publisher,
		maxImageBytes: maxImageBytes,
		now:           time.Now,
	}
}

// Submit implements attendance.RequestService.
func (s *RequestServiceImpl) Submit(ctx context.Context, req attendance.SubmitRequestRequest) (attendance.RequestResponse, error) {
	me, err := auth.CurrentEmployee(ctx)
	if err != nil {
		return attendance.RequestResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return attendance.RequestResponse{}, err
	}

	now := s.now()
	claimedAt := req.ClaimedTime(now)
	if claimedAt.After(now) {
		return attendance.RequestResponse{}, attendance.ErrFutureTimestamp
	}

	emp, err := s.employeeRepo.GetByID(ctx, me.ID, me.CompanyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.RequestResponse{}, employee.ErrEmployeeNotFound
		}
		return attendance.RequestResponse{}, fmt.Errorf("failed to get employee: %w", err)
	}

	var evidencePath *string
	if req.Evidence != nil && *req.Evidence != "" {
		img, err := file.DecodeBase64Image(*req.Evidence, s.maxImageBytes)
		if err != nil {
			return attendance.RequestResponse{}, err
		}
		path, err := s.fileService.UploadRequestEvidence(ctx, emp.CompanyID, emp.ID, img)
		if err != nil {
			return attendance.RequestResponse{}, fmt.Errorf("failed to upload evidence: %w", err)
		}
		evidencePath = &path
	}

	created, err := s.requestRepo.Create(ctx, attendance.Request{
		CompanyID:    emp.CompanyID,
		EmployeeID:   emp.ID,
		EmployeeName: emp.FullName,
		Type:         attendance.Status(req.Type),
		ClaimedAt:    claimedAt,
		Reason:       req.Reason,
		EvidencePath: evidencePath,
	})
	if err != nil {
		if evidencePath != nil {
			if delErr := s.fileService.DeleteFile(ctx, *evidencePath); delErr != nil {
				slog.Warn("Failed to remove orphaned evidence", "path", *evidencePath, "error", delErr)
			}
		}
		return attendance.RequestResponse{}, fmt.Errorf("failed to create attendance request: %w", err)
	}

	resp := s.toRequestResponse(created)
	s.publisher.Publish(sse.Event{
		CompanyID: created.CompanyID,
		Event:     sse.EventRequestSubmitted,
		Data:      resp,
	})
	slog.Info("Attendance request submitted", "request_id", created.ID, "employee_id", created.EmployeeID, "type", created.Type)
	return resp, nil
}

// Process implements attendance.RequestService. Approval appends exactly one manual record.
func (s *RequestServiceImpl) Process(ctx context.Context, req attendance.ProcessRequestRequest) (attendance.RequestResponse, error) {
	admin, err := auth.CurrentAdmin(ctx)
	if err != nil {
		return attendance.RequestResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return attendance.RequestResponse{}, err
	}

	var (
		processed attendance.Request
		record    *attendance.Record
	)
	err = s.transactor.WithinTransaction(ctx, func(txCtx context.Context) error {
		pending, err := s.requestRepo.GetByIDForUpdate(txCtx, req.ID, admin.CompanyID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return attendance.ErrRequestNotFound
			}
			return fmt.Errorf("failed to get attendance request: %w", err)
		}
		if pending.Status != attendance.RequestStatusPending {
			return attendance.ErrInvalidRequestState
		}

		processedAt := s.now()
		pending.ProcessedBy = &admin.ID
		pending.ProcessedAt = &processedAt
		pending.Note = req.Note

		if req.Action == attendance.ProcessApprove {
			rec, err := s.createManualRecord(txCtx, pending)
			if err != nil {
				return err
			}
			record = &rec
			pending.Status = attendance.RequestStatusApproved
			pending.RecordID = &rec.ID
		} else {
			pending.Status = attendance.RequestStatusRejected
		}

		if err := s.requestRepo.UpdateProcessed(txCtx, pending); err != nil {
			return err
		}
		processed = pending
		return nil
	})
	if err != nil {
		return attendance.RequestResponse{}, persistenceError(err)
	}

	resp := s.toRequestResponse(processed)
	s.publisher.Publish(sse.Event{
		CompanyID: processed.CompanyID,
		Event:     sse.EventRequestProcessed,
		Data:      resp,
	})
	if record != nil {
		slog.Info("Attendance request approved", "request_id", processed.ID, "record_id", record.ID, "admin_id", admin.ID)
	} else {
		slog.Info("Attendance request rejected", "request_id", processed.ID, "admin_id", admin.ID)
	}
	return resp, nil
}

// createManualRecord writes the record for an approved request. Alternation is not enforced for manual records.
func (s *RequestServiceImpl) createManualRecord(ctx context.Context, req attendance.Request) (attendance.Record, error) {
	if err := s.recordRepo.LockEmployee(ctx, req.EmployeeID); err != nil {
		return attendance.Record{}, fmt.Errorf("%w: %w", attendance.ErrPersistenceFailure, err)
	}

	var username string
	emp, err := s.employeeRepo.GetByID(ctx, req.EmployeeID, req.CompanyID)
	switch {
	case err == nil:
		username = emp.Username
	case !errors.Is(err, pgx.ErrNoRows):
		return attendance.Record{}, fmt.Errorf("failed to get employee: %w", err)
	}

	requestID := req.ID
	rec, err := s.recordRepo.Create(ctx, attendance.Record{
		CompanyID:        req.CompanyID,
		EmployeeID:       req.EmployeeID,
		EmployeeName:     req.EmployeeName,
		EmployeeUsername: username,
		Timestamp:        req.ClaimedAt,
		Status:           req.Type,
		ImagePath:        req.EvidencePath,
		IsManual:         true,
		RequestID:        &requestID,
	})
	if err != nil {
		return attendance.Record{}, fmt.Errorf("%w: %w", attendance.ErrPersistenceFailure, err)
	}
	return rec, nil
}

// ListRequests implements attendance.RequestService.
func (s *RequestServiceImpl) ListRequests(ctx context.Context, filter attendance.RequestFilter) (attendance.ListRequestResponse, error) {
	admin, err := auth.CurrentAdmin(ctx)
	if err != nil {
		return attendance.ListRequestResponse{}, err
	}
	return s.list(ctx, filter, admin.CompanyID)
}

// GetMyRequests implements attendance.RequestService.
func (s *RequestServiceImpl) GetMyRequests(ctx context.Context, filter attendance.RequestFilter) (attendance.ListRequestResponse, error) {
	me, err := auth.CurrentEmployee(ctx)
	if err != nil {
		return attendance.ListRequestResponse{}, err
	}
	filter.EmployeeID = &me.ID
	return s.list(ctx, filter, me.CompanyID)
}

func (s *RequestServiceImpl) list(ctx context.Context, filter attendance.RequestFilter, companyID string) (attendance.ListRequestResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListRequestResponse{}, err
	}

	requests, total, err := s.requestRepo.List(ctx, filter, companyID)
	if err != nil {
		return attendance.ListRequestResponse{}, fmt.Errorf("failed to list attendance requests: %w", err)
	}

	responses := make([]attendance.RequestResponse, 0, len(requests))
	for _, r := range requests {
		responses = append(responses, s.toRequestResponse(r))
	}

	totalPages, showing := paginate(total, filter.Page, filter.Limit)
	return attendance.ListRequestResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Showing:    showing,
		Requests:   responses,
	}, nil
}

func (s *RequestServiceImpl) toRequestResponse(r attendance.Request) attendance.RequestResponse {
	resp := attendance.RequestResponse{
		ID:           r.ID,
		EmployeeID:   r.EmployeeID,
		EmployeeName: r.EmployeeName,
		Type:         r.Type,
		ClaimedAt:    r.ClaimedAt.UnixMilli(),
		Reason:       r.Reason,
		Status:       r.Status,
		ProcessedBy:  r.ProcessedBy,
		Note:         r.Note,
		RecordID:     r.RecordID,
		CreatedAt:    r.CreatedAt.Format(time.RFC3339),
	}
	if r.EvidencePath != nil {
		url := s.fileService.FileURL(*r.EvidencePath)
		resp.EvidenceURL = &url
	}
	if r.ProcessedAt != nil {
		ms := r.ProcessedAt.UnixMilli()
		resp.ProcessedAt = &ms
	}
	return resp
}
