package jwt

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/auth"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) *JWTService {
	t.Helper()
	svc, err := NewJWTService("test-secret", "1h")
	require.NoError(t, err)
	return svc
}

func TestAccessTokenCarriesPrincipal(t *testing.T) {
	svc := newService(t)
	p := auth.Principal{Kind: auth.KindEmployee, ID: "emp-1", CompanyID: "co-1", Name: "An", Username: "an"}

	tokenString, expiresAt, err := svc.GenerateAccessToken(p)
	require.NoError(t, err)
	assert.Greater(t, expiresAt, time.Now().Unix())

	token, err := jwtauth.VerifyToken(svc.JWTAuth(), tokenString)
	require.NoError(t, err)
	claims, err := token.AsMap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, TokenTypeAccess, claims["type"])

	got, err := svc.PrincipalFromClaims(claims)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestPrincipalFromClaims_RejectsUnknownKind(t *testing.T) {
	svc := newService(t)

	_, err := svc.PrincipalFromClaims(map[string]interface{}{"sub": "x", "company_id": "c"})
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = svc.PrincipalFromClaims(map[string]interface{}{"sub": "x", "kind": "owner", "company_id": "c"})
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	// only super admins may lack a company
	_, err = svc.PrincipalFromClaims(map[string]interface{}{"sub": "x", "kind": "admin"})
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	p, err := svc.PrincipalFromClaims(map[string]interface{}{"sub": "x", "kind": "super_admin"})
	require.NoError(t, err)
	assert.Equal(t, auth.KindSuperAdmin, p.Kind)
}

func TestSSEToken(t *testing.T) {
	svc := newService(t)
	p := auth.Principal{Kind: auth.KindAdmin, ID: "adm-1", CompanyID: "co-1"}

	token, expiresIn, err := svc.GenerateSSEToken(p)
	require.NoError(t, err)
	assert.Equal(t, 300, expiresIn)

	got, err := svc.ValidateSSEToken(token)
	require.NoError(t, err)
	assert.Equal(t, "adm-1", got.ID)

	access, _, err := svc.GenerateAccessToken(p)
	require.NoError(t, err)
	_, err = svc.ValidateSSEToken(access)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	_, err = svc.ValidateSSEToken("garbage")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestRevocationPurge(t *testing.T) {
	svc := newService(t)
	now := time.Now()

	svc.RevokeToken("old", now.Add(-time.Minute).Unix())
	svc.RevokeToken("live", now.Add(time.Hour).Unix())
	assert.True(t, svc.IsTokenRevoked("old"))

	removed := svc.PurgeExpiredRevocations(now)
	assert.Equal(t, 1, removed)
	assert.False(t, svc.IsTokenRevoked("old"))
	assert.True(t, svc.IsTokenRevoked("live"))
}
