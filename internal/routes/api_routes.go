package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/DavidDuveau/openjoconde-sub000/internal/api"
	"github.com/DavidDuveau/openjoconde-sub000/internal/auth"
	"github.com/DavidDuveau/openjoconde-sub000/internal/middleware"
)

// RegisterAPIRoutes registers all API v1 routes and handlers
func RegisterAPIRoutes(r chi.Router, deps *api.Dependencies, tokens *auth.TokenService, limiter *middleware.RateLimiter) {
	syncHandler := api.NewSyncHandler(deps)

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(limiter.Middleware)

		v1.Route("/admin/sync", func(admin chi.Router) {
			admin.Use(middleware.AuthMiddleware(tokens))

			// Operators and admins may start and stop runs
			admin.Group(func(ops chi.Router) {
				ops.Use(middleware.RequirePermission(auth.ActionTriggerSync))
				ops.Post("/", syncHandler.TriggerSync())
				ops.Post("/cancel", syncHandler.CancelSync())
			})

			// Any authenticated role may read
			admin.Group(func(read chi.Router) {
				read.Use(middleware.RequirePermission(auth.ActionReadSync))
				read.Get("/status", syncHandler.SyncStatus())
				read.Get("/logs", syncHandler.SyncLogs())
			})
		})
	})
}
