package middleware

import (
	"net/http"

	"github.com/DavidDuveau/openjoconde-sub000/internal/auth"
)

// RequirePermission lets the request through only when the caller's claims
// grant action. It must run after AuthMiddleware.
func RequirePermission(action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

			claims := auth.ClaimsFrom(r.Context())

			if claims == nil || !claims.HasPermission(action) {
				http.Error(w, "Forbidden. Role not allowed", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
