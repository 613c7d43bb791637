package employee

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/location"
	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/shift"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/face"
	"github.com/cmlabs-hris/checkin-backend-go/internal/service/file"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

type EmployeeServiceImpl struct {
	employeeRepo  employee.EmployeeRepository
	shiftRepo     shift.ShiftRepository
	locationRepo  location.LocationRepository
	extractor     face.Extractor
	maxImageBytes int64
}

func NewEmployeeService(
	employeeRepo employee.EmployeeRepository,
	shiftRepo shift.ShiftRepository,
	locationRepo location.LocationRepository,
	extractor face.Extractor,
	maxImageBytes int64,
) employee.EmployeeService {
	return &EmployeeServiceImpl{
		employeeRepo:  employeeRepo,
		shiftRepo:     shiftRepo,
		locationRepo:  locationRepo,
		extractor:     extractor,
		maxImageBytes: maxImageBytes,
	}
}

// CreateEmployee implements employee.EmployeeService.
func (s *EmployeeServiceImpl) CreateEmployee(ctx context.Context, req employee.CreateEmployeeRequest) (employee.EmployeeResponse, error) {
	admin, err := auth.CurrentAdmin(ctx)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	req.CompanyID = admin.CompanyID
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}
	if err := s.checkAssignments(ctx, admin.CompanyID, req.ShiftID, req.LocationID); err != nil {
		return employee.EmployeeResponse{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return employee.EmployeeResponse{}, fmt.Errorf("failed to hash password: %w", err)
	}

	newEmployee := employee.Employee{
		CompanyID:    admin.CompanyID,
		Username:     strings.TrimSpace(req.Username),
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(req.FullName),
		ShiftID:      req.ShiftID,
		LocationID:   req.LocationID,
		BaseSalary:   req.BaseSalary,
		HourlyRate:   req.HourlyRate,
	}

	for attempt := 0; attempt < maxDeviceCodeAttempts; attempt++ {
		code, err := generateDeviceCode()
		if err != nil {
			return employee.EmployeeResponse{}, fmt.Errorf("failed to generate device code: %w", err)
		}
		newEmployee.DeviceCode = code

		created, err := s.employeeRepo.Create(ctx, newEmployee)
		if err == nil {
			slog.Info("Employee created", "employee_id", created.ID, "company_id", created.CompanyID)
			return mapEmployeeToResponse(created), nil
		}
		if database.IsUniqueViolation(err, database.ConstraintEmployeeUsername) {
			return employee.EmployeeResponse{}, employee.ErrUsernameExists
		}
		if !database.IsUniqueViolation(err, database.ConstraintEmployeeDeviceCode) {
			return employee.EmployeeResponse{}, fmt.Errorf("failed to create employee: %w", err)
		}
	}
	return employee.EmployeeResponse{}, employee.ErrDeviceCodeExhausted
}

// GetEmployee implements employee.EmployeeService.
func (s *EmployeeServiceImpl) GetEmployee(ctx context.Context, id string) (employee.EmployeeResponse, error) {
	admin, err := auth.CurrentAdmin(ctx)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	emp, err := s.get(ctx, id, admin.CompanyID)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	return mapEmployeeToResponse(emp), nil
}

// GetMyProfile implements employee.EmployeeService.
func (s *EmployeeServiceImpl) GetMyProfile(ctx context.Context) (employee.EmployeeResponse, error) {
	me, err := auth.CurrentEmployee(ctx)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	emp, err := s.get(ctx, me.ID, me.CompanyID)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	return mapEmployeeToResponse(emp), nil
}

// ListEmployees implements employee.EmployeeService.
func (s *EmployeeServiceImpl) ListEmployees(ctx context.Context, filter employee.EmployeeFilter) (employee.ListEmployeeResponse, error) {
	admin, err := auth.CurrentAdmin(ctx)
	if err != nil {
		return employee.ListEmployeeResponse{}, err
	}
	if err := filter.Validate(); err != nil {
		return employee.ListEmployeeResponse{}, err
	}

	employees, total, err := s.employeeRepo.List(ctx, filter, admin.CompanyID)
	if err != nil {
		return employee.ListEmployeeResponse{}, fmt.Errorf("failed to list employees: %w", err)
	}

	responses := make([]employee.EmployeeResponse, 0, len(employees))
	for _, emp := range employees {
		responses = append(responses, mapEmployeeToResponse(emp))
	}

	totalPages := int(math.Ceil(float64(total) / float64(filter.Limit)))
	showing := fmt.Sprintf("%d-%d of %d", (filter.Page-1)*filter.Limit+1, min(filter.Page*filter.Limit, int(total)), total)
	if total == 0 {
		showing = "0 of 0"
	}

	return employee.ListEmployeeResponse{
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPages,
		Showing:    showing,
		Employees:  responses,
	}, nil
}

// UpdateEmployee implements employee.EmployeeService.
func (s *EmployeeServiceImpl) UpdateEmployee(ctx context.Context, req employee.UpdateEmployeeRequest) (employee.EmployeeResponse, error) {
	admin, err := auth.CurrentAdmin(ctx)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	req.CompanyID = admin.CompanyID
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}
	if err := s.checkAssignments(ctx, admin.CompanyID, req.ShiftID, req.LocationID); err != nil {
		return employee.EmployeeResponse{}, err
	}

	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return employee.EmployeeResponse{}, fmt.Errorf("failed to hash password: %w", err)
		}
		hashed := string(hash)
		req.PasswordHash = &hashed
	}
	if req.Username != nil {
		trimmed := strings.TrimSpace(*req.Username)
		req.Username = &trimmed
	}
	if req.FullName != nil {
		trimmed := strings.TrimSpace(*req.FullName)
		req.FullName = &trimmed
	}

	updated, err := s.employeeRepo.Update(ctx, req)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) || errors.Is(err, pgx.ErrNoRows) {
			return employee.EmployeeResponse{}, employee.ErrEmployeeNotFound
		}
		if database.IsUniqueViolation(err, database.ConstraintEmployeeUsername) {
			return employee.EmployeeResponse{}, employee.ErrUsernameExists
		}
		return employee.EmployeeResponse{}, fmt.Errorf("failed to update employee: %w", err)
	}
	return mapEmployeeToResponse(updated), nil
}

// DeleteEmployee implements employee.EmployeeService. Attendance history is kept.
func (s *EmployeeServiceImpl) DeleteEmployee(ctx context.Context, id string) error {
	admin, err := auth.CurrentAdmin(ctx)
	if err != nil {
		return err
	}
	if err := s.employeeRepo.Delete(ctx, id, admin.CompanyID); err != nil {
		return err
	}
	slog.Info("Employee deleted", "employee_id", id, "company_id", admin.CompanyID)
	return nil
}

// RegenerateDeviceCode implements employee.EmployeeService.
func (s *EmployeeServiceImpl) RegenerateDeviceCode(ctx context.Context, id string) (employee.DeviceCodeResponse, error) {
	admin, err := auth.CurrentAdmin(ctx)
	if err != nil {
		return employee.DeviceCodeResponse{}, err
	}

	for attempt := 0; attempt < maxDeviceCodeAttempts; attempt++ {
		code, err := generateDeviceCode()
		if err != nil {
			return employee.DeviceCodeResponse{}, fmt.Errorf("failed to generate device code: %w", err)
		}

		err = s.employeeRepo.UpdateDeviceCode(ctx, id, admin.CompanyID, code)
		if err == nil {
			return employee.DeviceCodeResponse{EmployeeID: id, DeviceCode: code}, nil
		}
		if !database.IsUniqueViolation(err, database.ConstraintEmployeeDeviceCode) {
			return employee.DeviceCodeResponse{}, err
		}
	}
	return employee.DeviceCodeResponse{}, employee.ErrDeviceCodeExhausted
}

// EnrollFace implements employee.EmployeeService.
func (s *EmployeeServiceImpl) EnrollFace(ctx context.Context, req employee.EnrollFaceRequest) (employee.EmployeeResponse, error) {
	admin, err := auth.CurrentAdmin(ctx)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	return s.enroll(ctx, req.EmployeeID, admin.CompanyID, req)
}

// EnrollMyFace implements employee.EmployeeService.
func (s *EmployeeServiceImpl) EnrollMyFace(ctx context.Context, req employee.EnrollFaceRequest) (employee.EmployeeResponse, error) {
	me, err := auth.CurrentEmployee(ctx)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	return s.enroll(ctx, me.ID, me.CompanyID, req)
}

// RemoveFace implements employee.EmployeeService.
func (s *EmployeeServiceImpl) RemoveFace(ctx context.Context, id string) error {
	admin, err := auth.CurrentAdmin(ctx)
	if err != nil {
		return err
	}

	emp, err := s.get(ctx, id, admin.CompanyID)
	if err != nil {
		return err
	}
	if !emp.HasFace() {
		return employee.ErrFaceNotEnrolled
	}
	return s.employeeRepo.UpdateFaceDescriptor(ctx, id, admin.CompanyID, nil)
}

func (s *EmployeeServiceImpl) enroll(ctx context.Context, employeeID, companyID string, req employee.EnrollFaceRequest) (employee.EmployeeResponse, error) {
	req.EmployeeID = employeeID
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}

	descriptor := face.Descriptor(req.Descriptor)
	if len(descriptor) == 0 {
		img, err := file.DecodeBase64Image(*req.Image, s.maxImageBytes)
		if err != nil {
			return employee.EmployeeResponse{}, err
		}
		if s.extractor == nil {
			return employee.EmployeeResponse{}, face.ErrNoFace
		}
		descriptor, err = s.extractor.Extract(ctx, img)
		if err != nil {
			return employee.EmployeeResponse{}, err
		}
	}

	serialized, err := descriptor.Serialize()
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	if err := s.employeeRepo.UpdateFaceDescriptor(ctx, employeeID, companyID, &serialized); err != nil {
		return employee.EmployeeResponse{}, err
	}

	slog.Info("Face enrolled", "employee_id", employeeID, "company_id", companyID)

	emp, err := s.get(ctx, employeeID, companyID)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	return mapEmployeeToResponse(emp), nil
}

// checkAssignments rejects shift or location ids that do not belong to the company.
func (s *EmployeeServiceImpl) checkAssignments(ctx context.Context, companyID string, shiftID, locationID *string) error {
	if shiftID != nil && *shiftID != "" {
		if _, err := s.shiftRepo.GetByID(ctx, *shiftID, companyID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return shift.ErrShiftNotFound
			}
			return fmt.Errorf("failed to get shift: %w", err)
		}
	}
	if locationID != nil && *locationID != "" {
		if _, err := s.locationRepo.GetByID(ctx, *locationID, companyID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return location.ErrLocationNotFound
			}
			return fmt.Errorf("failed to get location: %w", err)
		}
	}
	return nil
}

func (s *EmployeeServiceImpl) get(ctx context.Context, id, companyID string) (employee.Employee, error) {
	emp, err := s.employeeRepo.GetByID(ctx, id, companyID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return employee.Employee{}, employee.ErrEmployeeNotFound
		}
		return employee.Employee{}, fmt.Errorf("failed to get employee: %w", err)
	}
	return emp, nil
}

func mapEmployeeToResponse(emp employee.Employee) employee.EmployeeResponse {
	resp := employee.EmployeeResponse{
		ID:           emp.ID,
		CompanyID:    emp.CompanyID,
		Username:     emp.Username,
		FullName:     emp.FullName,
		DeviceCode:   emp.DeviceCode,
		ShiftID:      emp.ShiftID,
		ShiftName:    emp.ShiftName,
		LocationID:   emp.LocationID,
		LocationName: emp.LocationName,
		HasFace:      emp.HasFace(),
		BaseSalary:   emp.BaseSalary,
		HourlyRate:   emp.HourlyRate,
		CreatedAt:    emp.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    emp.UpdatedAt.Format(time.RFC3339),
	}
	if emp.LocationDeleted() {
		deleted := location.DeletedName
		resp.LocationDeleted = true
		resp.LocationName = &deleted
	}
	return resp
}
