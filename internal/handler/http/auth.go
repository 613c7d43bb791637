package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/checkin-backend-go/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

type AuthHandler interface {
	Login(w http.ResponseWriter, r *http.Request)
	EmployeeLogin(w http.ResponseWriter, r *http.Request)
	DeviceCodeLogin(w http.ResponseWriter, r *http.Request)
	Logout(w http.ResponseWriter, r *http.Request)
	Me(w http.ResponseWriter, r *http.Request)
	SSEToken(w http.ResponseWriter, r *http.Request)
}

type AuthHandlerImpl struct {
	authService auth.AuthService
}

func NewAuthHandler(authService auth.AuthService) AuthHandler {
	return &AuthHandlerImpl{
		authService: authService,
	}
}

// Login implements AuthHandler.
func (a *AuthHandlerImpl) Login(w http.ResponseWriter, r *http.Request) {
	var loginReq auth.LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&loginReq); err != nil {
		slog.Error("Login decode error", "error", err)
		response.BadRequest(w, "Định dạng yêu cầu không hợp lệ", nil)
		return
	}

	if err := loginReq.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	tokenResponse, err := a.authService.Login(r.Context(), loginReq)
	if err != nil {
		slog.Warn("Login service error", "error", err)
		response.HandleError(w, err)
		return
	}

	slog.Info("Admin logged in", "user_id", tokenResponse.Principal.ID, "kind", tokenResponse.Principal.Kind)
	response.SuccessWithMessage(w, "Đăng nhập thành công", tokenResponse)
}

// EmployeeLogin implements AuthHandler.
func (a *AuthHandlerImpl) EmployeeLogin(w http.ResponseWriter, r *http.Request) {
	var loginReq auth.EmployeeLoginRequest

	if err := json.NewDecoder(r.Body).Decode(&loginReq); err != nil {
		slog.Error("EmployeeLogin decode error", "error", err)
		response.BadRequest(w, "Định dạng yêu cầu không hợp lệ", nil)
		return
	}

	if err := loginReq.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	tokenResponse, err := a.authService.EmployeeLogin(r.Context(), loginReq)
	if err != nil {
		slog.Warn("EmployeeLogin service error", "error", err)
		response.HandleError(w, err)
		return
	}

	slog.Info("Employee logged in", "employee_id", tokenResponse.Principal.ID)
	response.SuccessWithMessage(w, "Đăng nhập thành công", tokenResponse)
}

// DeviceCodeLogin implements AuthHandler.
func (a *AuthHandlerImpl) DeviceCodeLogin(w http.ResponseWriter, r *http.Request) {
	var loginReq auth.DeviceCodeLoginRequest

	if err := json.NewDecoder(r.Body).Decode(&loginReq); err != nil {
		slog.Error("DeviceCodeLogin decode error", "error", err)
		response.BadRequest(w, "Định dạng yêu cầu không hợp lệ", nil)
		return
	}

	if err := loginReq.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	tokenResponse, err := a.authService.DeviceCodeLogin(r.Context(), loginReq)
	if err != nil {
		slog.Warn("DeviceCodeLogin service error", "error", err)
		response.HandleError(w, err)
		return
	}

	slog.Info("Employee logged in with device code", "employee_id", tokenResponse.Principal.ID)
	response.SuccessWithMessage(w, "Đăng nhập thành công", tokenResponse)
}

// Logout implements AuthHandler. The presented access token is revoked until it expires.
func (a *AuthHandlerImpl) Logout(w http.ResponseWriter, r *http.Request) {
	token, _, err := jwtauth.FromContext(r.Context())
	if err != nil || token == nil {
		response.HandleError(w, auth.ErrInvalidToken)
		return
	}

	if err := a.authService.Logout(r.Context(), jwtauth.TokenFromHeader(r), token.Expiration().Unix()); err != nil {
		slog.Error("Logout service error", "error", err)
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Đăng xuất thành công", nil)
}

// Me implements AuthHandler.
func (a *AuthHandlerImpl) Me(w http.ResponseWriter, r *http.Request) {
	principal, err := a.authService.Me(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, principal)
}

// SSEToken implements AuthHandler.
func (a *AuthHandlerImpl) SSEToken(w http.ResponseWriter, r *http.Request) {
	tokenResponse, err := a.authService.SSEToken(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, tokenResponse)
}
