package auth

import (
	"context"
)

// Kind discriminates who a principal is. It is fixed at login and travels as the "kind" token claim.
type Kind string

const (
	KindSuperAdmin Kind = "super_admin"
	KindAdmin      Kind = "admin"
	KindEmployee   Kind = "employee"
)

func (k Kind) Valid() bool {
	switch k {
	case KindSuperAdmin, KindAdmin, KindEmployee:
		return true
	}
	return false
}

// Principal is the authenticated caller. CompanyID is empty only for super admins.
type Principal struct {
	Kind      Kind   `json:"kind"`
	ID        string `json:"id"`
	CompanyID string `json:"company_id,omitempty"`
	Name      string `json:"name"`
	Username  string `json:"username"`
}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// CurrentEmployee returns the caller if it is an employee.
func CurrentEmployee(ctx context.Context) (Principal, error) {
	return current(ctx, KindEmployee)
}

// CurrentAdmin returns the caller if it is a company admin.
func CurrentAdmin(ctx context.Context) (Principal, error) {
	return current(ctx, KindAdmin)
}

// CurrentSuperAdmin returns the caller if it is the platform super admin.
func CurrentSuperAdmin(ctx context.Context) (Principal, error) {
	return current(ctx, KindSuperAdmin)
}

// CurrentMember returns the caller if it belongs to a company, whatever its kind.
func CurrentMember(ctx context.Context) (Principal, error) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return Principal{}, ErrUnauthenticated
	}
	if p.CompanyID == "" {
		return Principal{}, ErrForbidden
	}
	return p, nil
}

func current(ctx context.Context, kind Kind) (Principal, error) {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return Principal{}, ErrUnauthenticated
	}
	if p.Kind != kind {
		return Principal{}, ErrForbidden
	}
	return p, nil
}
