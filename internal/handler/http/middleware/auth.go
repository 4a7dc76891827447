package middleware

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"
	"github.com/patrolops/patrol-backend-go/internal/domain/auth"
	"github.com/patrolops/patrol-backend-go/internal/handler/http/response"
	"github.com/patrolops/patrol-backend-go/internal/pkg/jwt"
)

// AuthRequired rejects requests without a valid access token. It must run
// after jwtauth.Verifier.
func AuthRequired(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, _, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.Unauthorized(w, err.Error())
			return
		}

		if token == nil {
			response.HandleError(w, auth.ErrInvalidToken)
			return
		}

		if _, err := jwt.ClaimsFromContext(r.Context()); err != nil {
			response.HandleError(w, auth.ErrInvalidToken)
			return
		}

		next.ServeHTTP(w, r)
	})
}
