package middleware

import (
	"net/http"
	"strings"

	"github.com/DavidDuveau/openjoconde-sub000/internal/auth"
	"github.com/DavidDuveau/openjoconde-sub000/internal/logging"
)

// AuthMiddleware requires a valid admin bearer token and stores its claims
// in the request context.
func AuthMiddleware(tokens *auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				http.Error(w, "Unauthorized. Missing bearer token", http.StatusUnauthorized)
				return
			}

			claims, err := tokens.Validate(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				logging.Debug("Rejected admin token", "path", r.URL.Path, "error", err)
				http.Error(w, "Unauthorized. Invalid token", http.StatusUnauthorized)
				return
			}

			ctx := auth.WithClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
