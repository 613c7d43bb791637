package shift

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/shift"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type ShiftServiceImpl struct {
	shiftRepository shift.ShiftRepository
}

func NewShiftService(shiftRepository shift.ShiftRepository) shift.ShiftService {
	return &ShiftServiceImpl{shiftRepository: shiftRepository}
}

// CreateShift implements shift.ShiftService.
func (s *ShiftServiceImpl) CreateShift(ctx context.Context, req shift.CreateShiftRequest) (shift.ShiftResponse, error) {
	admin, err := auth.CurrentAdmin(ctx)
	if err != nil {
		return shift.ShiftResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return shift.ShiftResponse{}, err
	}

	created, err := s.shiftRepository.Create(ctx, shift.Shift{
		CompanyID: admin.CompanyID,
		Name:      strings.TrimSpace(req.Name),
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	})
	if err != nil {
		if database.IsUniqueViolation(err, database.ConstraintShiftName) {
			return shift.ShiftResponse{}, shift.ErrShiftNameExists
		}
		return shift.ShiftResponse{}, fmt.Errorf("failed to create shift: %w", err)
	}
	return toShiftResponse(created), nil
}

// GetShift implements shift.ShiftService.
func (s *ShiftServiceImpl) GetShift(ctx context.Context, id string) (shift.ShiftResponse, error) {
	admin, err := auth.CurrentAdmin(ctx)
	if err != nil {
		return shift.ShiftResponse{}, err
	}

	found, err := s.shiftRepository.GetByID(ctx, id, admin.CompanyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shift.ShiftResponse{}, shift.ErrShiftNotFound
		}
		return shift.ShiftResponse{}, fmt.Errorf("failed to get shift: %w", err)
	}
	return toShiftResponse(found), nil
}

// ListShifts implements shift.ShiftService.
func (s *ShiftServiceImpl) ListShifts(ctx context.Context) ([]shift.ShiftResponse, error) {
	admin, err := auth.CurrentAdmin(ctx)
	if err != nil {
		return nil, err
	}

	shifts, err := s.shiftRepository.GetByCompanyID(ctx, admin.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}

	responses := make([]shift.ShiftResponse, 0, len(shifts))
	for _, sh := range shifts {
		responses = append(responses, toShiftResponse(sh))
	}
	return responses, nil
}

// UpdateShift implements shift.ShiftService.
func (s *ShiftServiceImpl) UpdateShift(ctx context.Context, req shift.UpdateShiftRequest) (shift.ShiftResponse, error) {
	admin, err := auth.CurrentAdmin(ctx)
	if err != nil {
		return shift.ShiftResponse{}, err
	}
	req.CompanyID = admin.CompanyID
	if err := req.Validate(); err != nil {
		return shift.ShiftResponse{}, err
	}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}

	updated, err := s.shiftRepository.Update(ctx, req)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shift.ShiftResponse{}, shift.ErrShiftNotFound
		}
		if database.IsUniqueViolation(err, database.ConstraintShiftName) {
			return shift.ShiftResponse{}, shift.ErrShiftNameExists
		}
		return shift.ShiftResponse{}, fmt.Errorf("failed to update shift: %w", err)
	}
	return toShiftResponse(updated), nil
}

// DeleteShift implements shift.ShiftService. Employees assigned to the shift keep a dangling reference.
func (s *ShiftServiceImpl) DeleteShift(ctx context.Context, id string) error {
	admin, err := auth.CurrentAdmin(ctx)
	if err != nil {
		return err
	}
	return s.shiftRepository.Delete(ctx, id, admin.CompanyID)
}

func toShiftResponse(s shift.Shift) shift.ShiftResponse {
	return shift.ShiftResponse{
		ID:        s.ID,
		CompanyID: s.CompanyID,
		Name:      s.Name,
		StartTime: s.StartTime,
		EndTime:   s.EndTime,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
		UpdatedAt: s.UpdatedAt.Format(time.RFC3339),
	}
}
