package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidDuveau/openjoconde-sub000/internal/db/dbtest"
	"github.com/DavidDuveau/openjoconde-sub000/internal/models/dtos"
)

func TestHealthCheckHandler(t *testing.T) {
	gdb := dbtest.Open(t)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	db := sqlx.NewDb(sqlDB, "sqlite3")

	stats := &mockCatalogStats{
		runningSyncsFunc: func(ctx context.Context) (int, error) { return 1, nil },
	}
	handler := HealthCheckHandler(db, stats, time.Now().Add(-time.Minute))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthCheck", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp dtos.HealthCheckResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.RunningSyncs)
	assert.Equal(t, "ok", resp.Services["database"].Status)

	require.NoError(t, sqlDB.Close())

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthCheck", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "down", resp.Status)
}
