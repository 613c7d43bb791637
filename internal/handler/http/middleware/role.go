package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/checkin-backend-go/internal/domain/auth"
	"github.com/cmlabs-hris/checkin-backend-go/internal/handler/http/response"
)

// RequireKind admits only principals of the given kinds.
func RequireKind(kinds ...auth.Kind) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := auth.PrincipalFromContext(r.Context())
			if !ok {
				response.HandleError(w, auth.ErrUnauthenticated)
				return
			}

			for _, k := range kinds {
				if p.Kind == k {
					next.ServeHTTP(w, r)
					return
				}
			}
			response.HandleError(w, auth.ErrForbidden)
		})
	}
}

func RequireAdmin(next http.Handler) http.Handler {
	return RequireKind(auth.KindAdmin)(next)
}

func RequireEmployee(next http.Handler) http.Handler {
	return RequireKind(auth.KindEmployee)(next)
}

func RequireSuperAdmin(next http.Handler) http.Handler {
	return RequireKind(auth.KindSuperAdmin)(next)
}
