package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/DavidDuveau/openjoconde-sub000/internal/api"
	"github.com/DavidDuveau/openjoconde-sub000/internal/auth"
	"github.com/DavidDuveau/openjoconde-sub000/internal/logging"
	"github.com/DavidDuveau/openjoconde-sub000/internal/metrics"
	"github.com/DavidDuveau/openjoconde-sub000/internal/middleware"
)

// RegisterRoutes builds the HTTP router. /metrics is mounted by the caller.
func RegisterRoutes(appEnv string, deps *api.Dependencies, metricsReg *metrics.MetricsRegistry, tokens *auth.TokenService) http.Handler {

	// initialize Chi router
	r := chi.NewRouter()

	// global middleware
	r.Use(middleware.RequestIDMiddleware)
	r.Use(middleware.MetricsMiddleware(metricsReg))
	if appEnv == "development" {
		r.Use(middleware.Logging)
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://localhost:8081"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	limiter := middleware.NewRateLimiter(rate.Limit(5), 10)

	logging.Info("Router initialized with metrics and logging middleware")
	// health check
	r.Get("/healthCheck", api.HealthCheckHandler(deps.DB, deps.Stats, deps.UpSince))

	RegisterAPIRoutes(r, deps, tokens, limiter)

	return r
}
