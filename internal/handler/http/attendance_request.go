package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/checkin-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type AttendanceRequestHandler interface {
	Submit(w http.ResponseWriter, r *http.Request)
	GetMyRequests(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
}

type attendanceRequestHandlerImpl struct {
	requestService attendance.RequestService
	maxBodyBytes   int64
}

func NewAttendanceRequestHandler(requestService attendance.RequestService, maxImageBytes int64) AttendanceRequestHandler {
	return &attendanceRequestHandlerImpl{
		requestService: requestService,
		maxBodyBytes:   bodyLimit(maxImageBytes),
	}
}

// Submit implements AttendanceRequestHandler.
func (h *attendanceRequestHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	var req attendance.SubmitRequestRequest
	if err := decodeLimitedJSON(w, r, h.maxBodyBytes, &req); err != nil {
		slog.Error("Submit attendance request decode error", "error", err)
		return
	}

	result, err := h.requestService.Submit(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Đã gửi yêu cầu chấm công", result)
}

func requestFilterFromQuery(r *http.Request) attendance.RequestFilter {
	return attendance.RequestFilter{
		EmployeeID: getStringQueryParam(r, "employee_id"),
		Status:     getStringQueryParam(r, "status"),
		Page:       getIntQueryParam(r, "page", 1),
		Limit:      getIntQueryParam(r, "limit", 20),
	}
}

// GetMyRequests implements AttendanceRequestHandler.
func (h *attendanceRequestHandlerImpl) GetMyRequests(w http.ResponseWriter, r *http.Request) {
	results, err := h.requestService.GetMyRequests(r.Context(), requestFilterFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// List implements AttendanceRequestHandler.
func (h *attendanceRequestHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	results, err := h.requestService.ListRequests(r.Context(), requestFilterFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// Approve implements AttendanceRequestHandler.
func (h *attendanceRequestHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	h.process(w, r, attendance.ProcessApprove, "Đã duyệt yêu cầu chấm công")
}

// Reject implements AttendanceRequestHandler.
func (h *attendanceRequestHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	h.process(w, r, attendance.ProcessReject, "Đã từ chối yêu cầu chấm công")
}

func (h *attendanceRequestHandlerImpl) process(w http.ResponseWriter, r *http.Request, action attendance.ProcessAction, msg string) {
	var req attendance.ProcessRequestRequest
	// the body only carries an optional note
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		slog.Error("Process attendance request decode error", "error", err)
		response.BadRequest(w, "Định dạng yêu cầu không hợp lệ", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")
	req.Action = action

	result, err := h.requestService.Process(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, msg, result)
}
