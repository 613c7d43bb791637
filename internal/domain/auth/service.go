package auth

import (
	"context"
)

type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (TokenResponse, error)
	EmployeeLogin(ctx context.Context, req EmployeeLoginRequest) (TokenResponse, error)
	DeviceCodeLogin(ctx context.Context, req DeviceCodeLoginRequest) (TokenResponse, error)
	Logout(ctx context.Context, token string, expiresAt int64) error
	Me(ctx context.Context) (Principal, error)
	SSEToken(ctx context.Context) (SSETokenResponse, error)
}
