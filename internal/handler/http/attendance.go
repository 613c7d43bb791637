package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/checkin-backend-go/internal/handler/http/response"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/sse"
	"github.com/go-chi/chi/v5"
)

const streamKeepalive = 30 * time.Second

type AttendanceHandler interface {
	NextAction(w http.ResponseWriter, r *http.Request)
	Scan(w http.ResponseWriter, r *http.Request)
	GetMyRecords(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	Stream(w http.ResponseWriter, r *http.Request)
}

// Subscriber hands out per-company event streams.
type Subscriber interface {
	Subscribe(companyID string) (chan sse.Event, func())
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
	jwtService        jwt.Service
	subscriber        Subscriber
	maxBodyBytes      int64
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService, jwtService jwt.Service, subscriber Subscriber, maxImageBytes int64) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
		jwtService:        jwtService,
		subscriber:        subscriber,
		maxBodyBytes:      bodyLimit(maxImageBytes),
	}
}

// NextAction implements AttendanceHandler.
func (h *attendanceHandlerImpl) NextAction(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.NextAction(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Scan implements AttendanceHandler.
func (h *attendanceHandlerImpl) Scan(w http.ResponseWriter, r *http.Request) {
	var req attendance.ScanRequest
	if err := decodeLimitedJSON(w, r, h.maxBodyBytes, &req); err != nil {
		slog.Error("Scan decode error", "error", err)
		return
	}

	result, err := h.attendanceService.Record(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	msg := "Chấm công vào thành công"
	if result.Status == attendance.StatusCheckOut {
		msg = "Chấm công ra thành công"
	}
	response.Created(w, msg, result)
}

func recordFilterFromQuery(r *http.Request) attendance.RecordFilter {
	return attendance.RecordFilter{
		EmployeeID: getStringQueryParam(r, "employee_id"),
		LocationID: getStringQueryParam(r, "location_id"),
		Status:     getStringQueryParam(r, "status"),
		StartDate:  getStringQueryParam(r, "start_date"),
		EndDate:    getStringQueryParam(r, "end_date"),
		IsManual:   getBoolQueryParam(r, "is_manual"),
		Page:       getIntQueryParam(r, "page", 1),
		Limit:      getIntQueryParam(r, "limit", 20),
	}
}

// GetMyRecords implements AttendanceHandler.
func (h *attendanceHandlerImpl) GetMyRecords(w http.ResponseWriter, r *http.Request) {
	filter := recordFilterFromQuery(r)
	filter.EmployeeID = nil

	results, err := h.attendanceService.GetMyRecords(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// List implements AttendanceHandler.
func (h *attendanceHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	results, err := h.attendanceService.ListRecords(r.Context(), recordFilterFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// Get implements AttendanceHandler.
func (h *attendanceHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.attendanceService.GetRecord(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Stream pushes the company's attendance events to an admin over SSE.
func (h *attendanceHandlerImpl) Stream(w http.ResponseWriter, r *http.Request) {
	// EventSource cannot send headers, so the short-lived SSE token comes in the query string
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		response.HandleError(w, auth.ErrUnauthenticated)
		return
	}

	principal, err := h.jwtService.ValidateSSEToken(tokenStr)
	if err != nil {
		response.HandleError(w, err)
		return
	}
	if principal.Kind != auth.KindAdmin {
		response.HandleError(w, auth.ErrForbidden)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.InternalServerError(w, "Máy chủ không hỗ trợ streaming")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	events, cleanup := h.subscriber.Subscribe(principal.CompanyID)
	defer cleanup()

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"company_id\":%q}\n\n", principal.CompanyID)
	flusher.Flush()
	slog.Info("Attendance stream opened", "company_id", principal.CompanyID, "admin_id", principal.ID)

	keepalive := time.NewTicker(streamKeepalive)
	defer keepalive.Stop()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(event.Data)
			if err != nil {
				slog.Error("Failed to encode stream event", "event", event.Event, "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Event, data)
			flusher.Flush()
		case <-keepalive.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case <-r.Context().Done():
			slog.Info("Attendance stream closed", "company_id", principal.CompanyID, "admin_id", principal.ID)
			return
		}
	}
}
