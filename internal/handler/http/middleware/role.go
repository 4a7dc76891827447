package middleware

import (
	"net/http"

	"github.com/patrolops/patrol-backend-go/internal/domain/auth"
	"github.com/patrolops/patrol-backend-go/internal/domain/user"
	"github.com/patrolops/patrol-backend-go/internal/handler/http/response"
	"github.com/patrolops/patrol-backend-go/internal/pkg/jwt"
)

// RequireAdmin requires admin role
func RequireAdmin(next http.Handler) http.Handler {
	return requireRole(user.RoleAdmin, user.ErrAdminPrivilegeRequired)(next)
}

// RequireGuard requires guard role
func RequireGuard(next http.Handler) http.Handler {
	return requireRole(user.RoleGuard, user.ErrGuardRoleRequired)(next)
}

func requireRole(role user.Role, denied error) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := jwt.ClaimsFromContext(r.Context())
			if err != nil {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}

			if claims.Role != role {
				response.HandleError(w, denied)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
