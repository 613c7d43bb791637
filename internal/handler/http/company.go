package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/company"
	"github.com/cmlabs-hris/checkin-backend-go/internal/handler/http/response"
)

type CompanyHandler interface {
	List(w http.ResponseWriter, r *http.Request)
	Create(w http.ResponseWriter, r *http.Request)
	GetMy(w http.ResponseWriter, r *http.Request)
}

type CompanyHandlerImpl struct {
	companyService company.CompanyService
}

func NewCompanyHandler(companyService company.CompanyService) CompanyHandler {
	return &CompanyHandlerImpl{
		companyService: companyService,
	}
}

// Create implements CompanyHandler.
func (c *CompanyHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req company.CreateCompanyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Create company decode error", "error", err)
		response.BadRequest(w, "Định dạng yêu cầu không hợp lệ", nil)
		return
	}

	result, err := c.companyService.CreateCompany(r.Context(), req)
	if err != nil {
		slog.Error("Failed to create company", "error", err)
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Đã tạo công ty", result)
}

// List implements CompanyHandler.
func (c *CompanyHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	results, err := c.companyService.ListCompanies(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, results)
}

// GetMy implements CompanyHandler.
func (c *CompanyHandlerImpl) GetMy(w http.ResponseWriter, r *http.Request) {
	result, err := c.companyService.GetMyCompany(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
