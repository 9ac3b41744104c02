package api

import (
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/segmentio/encoding/json"

	"github.com/DavidDuveau/openjoconde-sub000/internal/models/dtos"
)

// HealthCheckHandler handles GET /healthCheck
//
// @Summary Health check
// @Description Verifies the server and its database are up.
// @Tags Misc
// @Success 200 {object} dtos.HealthCheckResponse
// @Failure 503 {object} dtos.HealthCheckResponse
// @Router /healthCheck [get]
func HealthCheckHandler(db *sqlx.DB, stats CatalogStats, upSince time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		services := make(map[string]dtos.ServiceStatus)

		// Check database
		dbStatus := "ok"
		dbDetails := "Database Connected"
		if err := db.PingContext(r.Context()); err != nil {
			dbStatus = "down"
			dbDetails = err.Error()
		}
		services["database"] = dtos.ServiceStatus{
			Status:  dbStatus,
			Details: dbDetails,
		}

		running := 0
		if dbStatus == "ok" {
			n, err := stats.RunningSyncs(r.Context())
			if err != nil {
				services["sync_logs"] = dtos.ServiceStatus{Status: "down", Details: err.Error()}
			} else {
				running = n
			}
		}

		overallStatus := "ok"
		for _, svc := range services {
			if svc.Status != "ok" {
				overallStatus = "down"
				break
			}
		}

		now := time.Now()
		uptime := now.Sub(upSince).Round(time.Second).String()

		resp := dtos.HealthCheckResponse{
			Services:     services,
			Status:       overallStatus,
			RunningSyncs: running,
			UpSince:      upSince,
			Uptime:       uptime,
		}

		code := http.StatusOK
		if overallStatus != "ok" {
			code = http.StatusServiceUnavailable
		}
		data, _ := json.Marshal(resp)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		w.Write(data)
	}
}
