package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidDuveau/openjoconde-sub000/internal/api"
	"github.com/DavidDuveau/openjoconde-sub000/internal/auth"
	"github.com/DavidDuveau/openjoconde-sub000/internal/common"
	"github.com/DavidDuveau/openjoconde-sub000/internal/constants"
	"github.com/DavidDuveau/openjoconde-sub000/internal/metrics"
	"github.com/DavidDuveau/openjoconde-sub000/internal/models/dtos"
	gormModels "github.com/DavidDuveau/openjoconde-sub000/internal/models/gorm"
)

type stubSync struct {
	started int
}

func (s *stubSync) StartBackground(ctx context.Context, syncType string) (*gormModels.SyncLog, error) {
	s.started++
	return &gormModels.SyncLog{ID: uuid.New(), Type: syncType, Status: constants.SyncStatusRunning}, nil
}

func (s *stubSync) Cancel() bool { return false }

func (s *stubSync) Status(ctx context.Context) (*gormModels.SyncLog, error) { return nil, nil }

func (s *stubSync) Logs(ctx context.Context, limit int) ([]gormModels.SyncLog, error) {
	return nil, nil
}

func (s *stubSync) CurrentProgress() (dtos.SyncProgress, bool) { return dtos.SyncProgress{}, false }

type stubStats struct{}

func (stubStats) CatalogCounts(ctx context.Context) (*dtos.CatalogCounts, error) {
	return &dtos.CatalogCounts{}, nil
}

func (stubStats) RunningSyncs(ctx context.Context) (int, error) { return 0, nil }

func TestAdminRoutes_Authorization(t *testing.T) {
	tokens := auth.NewTokenService([]byte("secret"))
	operator, err := tokens.Issue("ops", constants.RoleOperator, time.Hour)
	require.NoError(t, err)
	viewer, err := tokens.Issue("viewer", constants.Role("viewer"), time.Hour)
	require.NoError(t, err)

	svc := &stubSync{}
	router := RegisterRoutes("test", &api.Dependencies{
		Sync:    svc,
		Stats:   stubStats{},
		Cache:   common.NewCacheService(time.Minute, time.Minute, nil),
		UpSince: time.Now(),
	}, metrics.NewMetricsRegistry(prometheus.NewRegistry()), tokens)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"trigger without token", http.MethodPost, "/api/v1/admin/sync", "", http.StatusUnauthorized},
		{"trigger as viewer", http.MethodPost, "/api/v1/admin/sync", viewer, http.StatusForbidden},
		{"trigger as operator", http.MethodPost, "/api/v1/admin/sync", operator, http.StatusAccepted},
		{"cancel with nothing running", http.MethodPost, "/api/v1/admin/sync/cancel", operator, http.StatusNotFound},
		{"status as viewer", http.MethodGet, "/api/v1/admin/sync/status", viewer, http.StatusOK},
		{"logs as viewer", http.MethodGet, "/api/v1/admin/sync/logs", viewer, http.StatusOK},
		{"unknown route", http.MethodGet, "/api/v1/nope", operator, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			req.RemoteAddr = "127.0.0.1:1234"
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			assert.Equal(t, tt.want, rr.Code)
		})
	}
	assert.Equal(t, 1, svc.started)
}
