package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/jwt"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

type AuthServiceImpl struct {
	userRepository     user.UserRepository
	employeeRepository employee.EmployeeRepository
	jwtService         jwt.Service
}

func NewAuthService(userRepository user.UserRepository, employeeRepository employee.EmployeeRepository, jwtService jwt.Service) auth.AuthService {
	return &AuthServiceImpl{
		userRepository:     userRepository,
		employeeRepository: employeeRepository,
		jwtService:         jwtService,
	}
}

// Login implements auth.AuthService for admin and super admin accounts.
func (a *AuthServiceImpl) Login(ctx context.Context, req auth.LoginRequest) (auth.TokenResponse, error) {
	userData, err := a.userRepository.GetByEmail(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.TokenResponse{}, auth.ErrInvalidCredentials
		}
		return auth.TokenResponse{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(userData.PasswordHash), []byte(req.Password)); err != nil {
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}

	p := auth.Principal{
		Kind: auth.KindAdmin,
		ID:   userData.ID,
		Name: userData.Email,
	}
	if userData.IsSuperAdmin {
		p.Kind = auth.KindSuperAdmin
	} else {
		if userData.CompanyID == nil {
			return auth.TokenResponse{}, auth.ErrInvalidCredentials
		}
		p.CompanyID = *userData.CompanyID
	}

	return a.issue(p)
}

// EmployeeLogin implements auth.AuthService.
func (a *AuthServiceImpl) EmployeeLogin(ctx context.Context, req auth.EmployeeLoginRequest) (auth.TokenResponse, error) {
	emp, err := a.employeeRepository.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.TokenResponse{}, auth.ErrInvalidCredentials
		}
		return auth.TokenResponse{}, fmt.Errorf("failed to get employee by username: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(emp.PasswordHash), []byte(req.Password)); err != nil {
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}

	return a.issue(employeePrincipal(emp))
}

// DeviceCodeLogin implements auth.AuthService. The code identifies a single employee across all companies.
func (a *AuthServiceImpl) DeviceCodeLogin(ctx context.Context, req auth.DeviceCodeLoginRequest) (auth.TokenResponse, error) {
	emp, err := a.employeeRepository.GetByDeviceCode(ctx, strings.ToUpper(strings.TrimSpace(req.DeviceCode)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return auth.TokenResponse{}, auth.ErrInvalidDeviceCode
		}
		return auth.TokenResponse{}, fmt.Errorf("failed to get employee by device code: %w", err)
	}

	slog.Info("Device code login", "employee_id", emp.ID, "company_id", emp.CompanyID)
	return a.issue(employeePrincipal(emp))
}

// Logout implements auth.AuthService.
func (a *AuthServiceImpl) Logout(ctx context.Context, token string, expiresAt int64) error {
	if token == "" {
		return auth.ErrInvalidToken
	}
	if a.jwtService.IsTokenRevoked(token) {
		return nil
	}
	a.jwtService.RevokeToken(token, expiresAt)
	return nil
}

// Me implements auth.AuthService. Employees are re-read so a deleted account stops resolving.
func (a *AuthServiceImpl) Me(ctx context.Context) (auth.Principal, error) {
	p, ok := auth.PrincipalFromContext(ctx)
	if !ok {
		return auth.Principal{}, auth.ErrUnauthenticated
	}

	switch p.Kind {
	case auth.KindEmployee:
		emp, err := a.employeeRepository.GetByID(ctx, p.ID, p.CompanyID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return auth.Principal{}, auth.ErrUserNotFound
			}
			return auth.Principal{}, fmt.Errorf("failed to get employee: %w", err)
		}
		return employeePrincipal(emp), nil
	default:
		if _, err := a.userRepository.GetByID(ctx, p.ID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return auth.Principal{}, auth.ErrUserNotFound
			}
			return auth.Principal{}, fmt.Errorf("failed to get user: %w", err)
		}
		return p, nil
	}
}

// SSEToken implements auth.AuthService.
func (a *AuthServiceImpl) SSEToken(ctx context.Context) (auth.SSETokenResponse, error) {
	p, err := auth.CurrentMember(ctx)
	if err != nil {
		return auth.SSETokenResponse{}, err
	}
	token, expiresIn, err := a.jwtService.GenerateSSEToken(p)
	if err != nil {
		return auth.SSETokenResponse{}, fmt.Errorf("failed to create sse token: %w", err)
	}
	return auth.SSETokenResponse{Token: token, ExpiresIn: int64(expiresIn)}, nil
}

func (a *AuthServiceImpl) issue(p auth.Principal) (auth.TokenResponse, error) {
	token, _, err := a.jwtService.GenerateAccessToken(p)
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to create access token: %w", err)
	}
	return auth.TokenResponse{
		AccessToken:          token,
		AccessTokenExpiresIn: int64(a.jwtService.AccessTokenTTL().Seconds()),
		Principal:            p,
	}, nil
}

func employeePrincipal(emp employee.Employee) auth.Principal {
	return auth.Principal{
		Kind:      auth.KindEmployee,
		ID:        emp.ID,
		CompanyID: emp.CompanyID,
		Name:      emp.FullName,
		Username:  emp.Username,
	}
}

// BootstrapSuperAdmin creates the platform super admin unless an account with that email already exists.
func BootstrapSuperAdmin(ctx context.Context, userRepository user.UserRepository, email, password string) error {
	if email == "" {
		return nil
	}

	exists, err := userRepository.ExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check super admin: %w", err)
	}
	if exists {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash super admin password: %w", err)
	}
	if _, err := userRepository.Create(ctx, user.User{
		Email:        email,
		PasswordHash: string(hash),
		IsSuperAdmin: true,
	}); err != nil {
		return fmt.Errorf("failed to create super admin: %w", err)
	}

	slog.Info("Super admin created", "email", email)
	return nil
}
