package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/patrolops/patrol-backend-go/internal/domain/auth"
	"github.com/patrolops/patrol-backend-go/internal/handler/http/response"
	"github.com/patrolops/patrol-backend-go/internal/pkg/jwt"
)

const maxRequestBodyBytes = 1 << 20

// decodeJSON reads the request body into dst. An empty body leaves dst
// untouched. It writes a 400 response and returns false on malformed input.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		slog.Debug("Request decode error", "path", r.URL.Path, "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return false
	}
	return true
}

// currentUser returns the authenticated user's claims, or writes a 401.
func currentUser(w http.ResponseWriter, r *http.Request) (jwt.Claims, bool) {
	claims, err := jwt.ClaimsFromContext(r.Context())
	if err != nil {
		response.HandleError(w, auth.ErrInvalidToken)
		return jwt.Claims{}, false
	}
	return claims, true
}
