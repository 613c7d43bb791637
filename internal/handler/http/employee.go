package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/checkin-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type EmployeeHandler interface {
	CreateEmployee(w http.ResponseWriter, r *http.Request)
	GetEmployee(w http.ResponseWriter, r *http.Request)
	GetMyProfile(w http.ResponseWriter, r *http.Request)
	ListEmployees(w http.ResponseWriter, r *http.Request)
	UpdateEmployee(w http.ResponseWriter, r *http.Request)
	DeleteEmployee(w http.ResponseWriter, r *http.Request)
	RegenerateDeviceCode(w http.ResponseWriter, r *http.Request)
	EnrollFace(w http.ResponseWriter, r *http.Request)
	EnrollMyFace(w http.ResponseWriter, r *http.Request)
	RemoveFace(w http.ResponseWriter, r *http.Request)
}

type employeeHandlerImpl struct {
	employeeService employee.EmployeeService
}

func NewEmployeeHandler(employeeService employee.EmployeeService) EmployeeHandler {
	return &employeeHandlerImpl{
		employeeService: employeeService,
	}
}

// CreateEmployee implements EmployeeHandler
func (h *employeeHandlerImpl) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req employee.CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("CreateEmployee decode error", "error", err)
		response.BadRequest(w, "Định dạng yêu cầu không hợp lệ", nil)
		return
	}

	result, err := h.employeeService.CreateEmployee(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Đã tạo nhân viên", result)
}

// GetEmployee implements EmployeeHandler
func (h *employeeHandlerImpl) GetEmployee(w http.ResponseWriter, r *http.Request) {
	result, err := h.employeeService.GetEmployee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetMyProfile implements EmployeeHandler
func (h *employeeHandlerImpl) GetMyProfile(w http.ResponseWriter, r *http.Request) {
	result, err := h.employeeService.GetMyProfile(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ListEmployees implements EmployeeHandler
func (h *employeeHandlerImpl) ListEmployees(w http.ResponseWriter, r *http.Request) {
	filter := employee.EmployeeFilter{
		Search:     getStringQueryParam(r, "search"),
		ShiftID:    getStringQueryParam(r, "shift_id"),
		LocationID: getStringQueryParam(r, "location_id"),
		Page:       getIntQueryParam(r, "page", 1),
		Limit:      getIntQueryParam(r, "limit", 20),
	}

	results, err := h.employeeService.ListEmployees(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// UpdateEmployee implements EmployeeHandler
func (h *employeeHandlerImpl) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var req employee.UpdateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("UpdateEmployee decode error", "error", err)
		response.BadRequest(w, "Định dạng yêu cầu không hợp lệ", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	result, err := h.employeeService.UpdateEmployee(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Đã cập nhật nhân viên", result)
}

// DeleteEmployee implements EmployeeHandler
func (h *employeeHandlerImpl) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := h.employeeService.DeleteEmployee(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Đã xóa nhân viên", nil)
}

// RegenerateDeviceCode implements EmployeeHandler
func (h *employeeHandlerImpl) RegenerateDeviceCode(w http.ResponseWriter, r *http.Request) {
	result, err := h.employeeService.RegenerateDeviceCode(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Đã tạo mã thiết bị mới", result)
}

// EnrollFace implements EmployeeHandler
func (h *employeeHandlerImpl) EnrollFace(w http.ResponseWriter, r *http.Request) {
	var req employee.EnrollFaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("EnrollFace decode error", "error", err)
		response.BadRequest(w, "Định dạng yêu cầu không hợp lệ", nil)
		return
	}
	req.EmployeeID = chi.URLParam(r, "id")

	result, err := h.employeeService.EnrollFace(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Đã đăng ký khuôn mặt", result)
}

// EnrollMyFace implements EmployeeHandler
func (h *employeeHandlerImpl) EnrollMyFace(w http.ResponseWriter, r *http.Request) {
	var req employee.EnrollFaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("EnrollMyFace decode error", "error", err)
		response.BadRequest(w, "Định dạng yêu cầu không hợp lệ", nil)
		return
	}

	result, err := h.employeeService.EnrollMyFace(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Đã đăng ký khuôn mặt", result)
}

// RemoveFace implements EmployeeHandler
func (h *employeeHandlerImpl) RemoveFace(w http.ResponseWriter, r *http.Request) {
	if err := h.employeeService.RemoveFace(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Đã xóa dữ liệu khuôn mặt", nil)
}
