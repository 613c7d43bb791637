package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var employeePrincipal = auth.Principal{
	Kind:      auth.KindEmployee,
	ID:        "emp-1",
	CompanyID: "company-1",
	Name:      "Trần Thị Bích",
	Username:  "bich.tran",
}

func newProtectedRouter(t *testing.T, kinds ...auth.Kind) (*chi.Mux, *jwt.JWTService) {
	t.Helper()
	svc, err := jwt.NewJWTService("middleware-test-secret", "1h")
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(jwtauth.Verifier(svc.JWTAuth()))
	r.Use(AuthRequired(svc))
	if len(kinds) > 0 {
		r.Use(RequireKind(kinds...))
	}
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		p, ok := auth.PrincipalFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		_, _ = w.Write([]byte(p.ID))
	})
	return r, svc
}

func get(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthRequired_PutsPrincipalOnContext(t *testing.T) {
	r, svc := newProtectedRouter(t)
	token, _, err := svc.GenerateAccessToken(employeePrincipal)
	require.NoError(t, err)

	rec := get(r, token)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "emp-1", rec.Body.String())
}

func TestAuthRequired_Rejects(t *testing.T) {
	r, svc := newProtectedRouter(t)

	revoked, exp, err := svc.GenerateAccessToken(employeePrincipal)
	require.NoError(t, err)
	svc.RevokeToken(revoked, exp)

	sseToken, _, err := svc.GenerateSSEToken(employeePrincipal)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"garbage token", "not-a-jwt"},
		{"revoked token", revoked},
		{"sse token used as access token", sseToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(r, tt.token)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRequireKind(t *testing.T) {
	r, svc := newProtectedRouter(t, auth.KindAdmin)

	employeeToken, _, err := svc.GenerateAccessToken(employeePrincipal)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, get(r, employeeToken).Code)

	admin := auth.Principal{Kind: auth.KindAdmin, ID: "admin-1", CompanyID: "company-1", Name: "ops@example.com"}
	adminToken, _, err := svc.GenerateAccessToken(admin)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, get(r, adminToken).Code)
}

func TestRevocationOutlivesPurgeUntilExpiry(t *testing.T) {
	r, svc := newProtectedRouter(t)
	token, exp, err := svc.GenerateAccessToken(employeePrincipal)
	require.NoError(t, err)
	svc.RevokeToken(token, exp)

	assert.Equal(t, 0, svc.PurgeExpiredRevocations(time.Now()))
	assert.Equal(t, http.StatusUnauthorized, get(r, token).Code)
}
