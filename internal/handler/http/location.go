package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/location"
	"github.com/cmlabs-hris/checkin-backend-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type LocationHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Update(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
	QR(w http.ResponseWriter, r *http.Request)
	QRImage(w http.ResponseWriter, r *http.Request)
}

type locationHandlerImpl struct {
	locationService location.LocationService
}

func NewLocationHandler(locationService location.LocationService) LocationHandler {
	return &locationHandlerImpl{
		locationService: locationService,
	}
}

// Create implements LocationHandler.
func (h *locationHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req location.CreateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Create location decode error", "error", err)
		response.BadRequest(w, "Định dạng yêu cầu không hợp lệ", nil)
		return
	}

	result, err := h.locationService.CreateLocation(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Đã tạo địa điểm", result)
}

// Get implements LocationHandler.
func (h *locationHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.locationService.GetLocation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// List implements LocationHandler.
func (h *locationHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	results, err := h.locationService.ListLocations(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// Update implements LocationHandler.
func (h *locationHandlerImpl) Update(w http.ResponseWriter, r *http.Request) {
	var req location.UpdateLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Update location decode error", "error", err)
		response.BadRequest(w, "Định dạng yêu cầu không hợp lệ", nil)
		return
	}
	req.ID = chi.URLParam(r, "id")

	result, err := h.locationService.UpdateLocation(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Đã cập nhật địa điểm", result)
}

// Delete implements LocationHandler.
func (h *locationHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.locationService.DeleteLocation(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Đã xóa địa điểm", nil)
}

// QR implements LocationHandler. It returns the payload a kiosk encodes, refreshed every period for rotating locations.
func (h *locationHandlerImpl) QR(w http.ResponseWriter, r *http.Request) {
	result, err := h.locationService.GetQR(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// QRImage implements LocationHandler.
func (h *locationHandlerImpl) QRImage(w http.ResponseWriter, r *http.Request) {
	png, err := h.locationService.RenderQRPNG(r.Context(), chi.URLParam(r, "id"), getIntQueryParam(r, "size", 0))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.PNG(w, png)
}
