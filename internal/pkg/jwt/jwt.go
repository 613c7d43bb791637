package jwt

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/auth"
	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const (
	TokenTypeAccess = "access"
	TokenTypeSSE    = "sse"

	sseTokenTTL = 5 * time.Minute
)

type Service interface {
	GenerateAccessToken(p auth.Principal) (token string, expiresAt int64, err error)
	GenerateSSEToken(p auth.Principal) (token string, expiresIn int, err error)
	ValidateSSEToken(tokenString string) (auth.Principal, error)
	PrincipalFromClaims(claims map[string]interface{}) (auth.Principal, error)
	AccessTokenTTL() time.Duration
	JWTAuth() *jwtauth.JWTAuth
	RevokeToken(token string, expiresAt int64)
	IsTokenRevoked(token string) bool
	PurgeExpiredRevocations(now time.Time) int
}

type JWTService struct {
	accessTokenTTL time.Duration
	tokenAuth      *jwtauth.JWTAuth
	revokedTokens  map[string]int64 // token -> its own expiry (unix)
	mu             sync.RWMutex
	now            func() time.Time
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func (j *JWTService) AccessTokenTTL() time.Duration {
	return j.accessTokenTTL
}

// NewJWTService builds the HS256 token service. accessTokenExpirationTime is a Go duration string.
func NewJWTService(secretKey string, accessTokenExpirationTime string) (*JWTService, error) {
	ttl, err := time.ParseDuration(accessTokenExpirationTime)
	if err != nil {
		return nil, fmt.Errorf("invalid access token expiration: %w", err)
	}
	return &JWTService{
		accessTokenTTL: ttl,
		tokenAuth:      jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		revokedTokens:  make(map[string]int64),
		now:            time.Now,
	}, nil
}

func principalClaims(p auth.Principal) map[string]interface{} {
	return map[string]interface{}{
		"sub":        p.ID,
		"kind":       string(p.Kind),
		"company_id": p.CompanyID,
		"name":       p.Name,
		"username":   p.Username,
	}
}

func (j *JWTService) GenerateAccessToken(p auth.Principal) (token string, expiresAt int64, err error) {
	expiresAt = j.now().Add(j.accessTokenTTL).Unix()

	claims := principalClaims(p)
	claims["type"] = TokenTypeAccess
	claims["exp"] = expiresAt

	_, tokenString, err := j.tokenAuth.Encode(claims)
	return tokenString, expiresAt, err
}

// GenerateSSEToken issues a short-lived token that can be passed as a query parameter to the event stream.
func (j *JWTService) GenerateSSEToken(p auth.Principal) (token string, expiresIn int, err error) {
	claims := principalClaims(p)
	claims["type"] = TokenTypeSSE
	claims["exp"] = j.now().Add(sseTokenTTL).Unix()

	_, tokenString, err := j.tokenAuth.Encode(claims)
	if err != nil {
		return "", 0, err
	}
	return tokenString, int(sseTokenTTL.Seconds()), nil
}

func (j *JWTService) ValidateSSEToken(tokenString string) (auth.Principal, error) {
	token, err := jwtauth.VerifyToken(j.tokenAuth, tokenString)
	if err != nil {
		return auth.Principal{}, fmt.Errorf("%w: %v", auth.ErrInvalidToken, err)
	}

	claims, err := token.AsMap(context.Background())
	if err != nil {
		return auth.Principal{}, fmt.Errorf("%w: %v", auth.ErrInvalidToken, err)
	}
	if claims["type"] != TokenTypeSSE {
		return auth.Principal{}, auth.ErrInvalidToken
	}
	return j.PrincipalFromClaims(claims)
}

// PrincipalFromClaims rebuilds the principal from the explicit kind claim. Tokens without a known kind are rejected.
func (j *JWTService) PrincipalFromClaims(claims map[string]interface{}) (auth.Principal, error) {
	kindVal, _ := claims["kind"].(string)
	kind := auth.Kind(kindVal)
	if !kind.Valid() {
		return auth.Principal{}, auth.ErrInvalidToken
	}

	id, _ := claims["sub"].(string)
	if id == "" {
		return auth.Principal{}, auth.ErrInvalidToken
	}

	companyID, _ := claims["company_id"].(string)
	if kind != auth.KindSuperAdmin && companyID == "" {
		return auth.Principal{}, auth.ErrInvalidToken
	}

	name, _ := claims["name"].(string)
	username, _ := claims["username"].(string)

	return auth.Principal{
		Kind:      kind,
		ID:        id,
		CompanyID: companyID,
		Name:      name,
		Username:  username,
	}, nil
}

func (j *JWTService) RevokeToken(token string, expiresAt int64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.revokedTokens[token] = expiresAt
}

func (j *JWTService) IsTokenRevoked(token string) bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	_, revoked := j.revokedTokens[token]
	return revoked
}

// PurgeExpiredRevocations forgets revoked tokens that have expired on their own and returns how many were removed.
func (j *JWTService) PurgeExpiredRevocations(now time.Time) int {
	j.mu.Lock()
	defer j.mu.Unlock()

	removed := 0
	cutoff := now.Unix()
	for token, exp := range j.revokedTokens {
		if exp < cutoff {
			delete(j.revokedTokens, token)
			removed++
		}
	}
	return removed
}
