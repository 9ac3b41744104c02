package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidDuveau/openjoconde-sub000/internal/apperrors"
	"github.com/DavidDuveau/openjoconde-sub000/internal/auth"
	"github.com/DavidDuveau/openjoconde-sub000/internal/common"
	"github.com/DavidDuveau/openjoconde-sub000/internal/constants"
	"github.com/DavidDuveau/openjoconde-sub000/internal/models/dtos"
	gormModels "github.com/DavidDuveau/openjoconde-sub000/internal/models/gorm"
	"github.com/DavidDuveau/openjoconde-sub000/internal/syncer"
)

// Mock SyncService
type mockSyncService struct {
	startBackgroundFunc func(ctx context.Context, syncType string) (*gormModels.SyncLog, error)
	cancelFunc          func() bool
	statusFunc          func(ctx context.Context) (*gormModels.SyncLog, error)
	logsFunc            func(ctx context.Context, limit int) ([]gormModels.SyncLog, error)
	progressFunc        func() (dtos.SyncProgress, bool)
}

func (m *mockSyncService) StartBackground(ctx context.Context, syncType string) (*gormModels.SyncLog, error) {
	return m.startBackgroundFunc(ctx, syncType)
}

func (m *mockSyncService) Cancel() bool {
	return m.cancelFunc()
}

func (m *mockSyncService) Status(ctx context.Context) (*gormModels.SyncLog, error) {
	return m.statusFunc(ctx)
}

func (m *mockSyncService) Logs(ctx context.Context, limit int) ([]gormModels.SyncLog, error) {
	return m.logsFunc(ctx, limit)
}

func (m *mockSyncService) CurrentProgress() (dtos.SyncProgress, bool) {
	if m.progressFunc == nil {
		return dtos.SyncProgress{}, false
	}
	return m.progressFunc()
}

// Mock CatalogStats
type mockCatalogStats struct {
	catalogCountsFunc func(ctx context.Context) (*dtos.CatalogCounts, error)
	runningSyncsFunc  func(ctx context.Context) (int, error)
}

func (m *mockCatalogStats) CatalogCounts(ctx context.Context) (*dtos.CatalogCounts, error) {
	return m.catalogCountsFunc(ctx)
}

func (m *mockCatalogStats) RunningSyncs(ctx context.Context) (int, error) {
	return m.runningSyncsFunc(ctx)
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) envelope {
	t.Helper()
	var body envelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func newHandler(svc *mockSyncService, stats *mockCatalogStats) *SyncHandler {
	if stats == nil {
		stats = &mockCatalogStats{}
	}
	return NewSyncHandler(&Dependencies{
		Sync:  svc,
		Stats: stats,
		Cache: common.NewCacheService(time.Minute, time.Minute, nil),
	})
}

func TestTriggerSync(t *testing.T) {
	running := &gormModels.SyncLog{
		ID:        uuid.New(),
		Type:      constants.SyncTypeManual,
		Status:    constants.SyncStatusRunning,
		StartedAt: time.Now(),
	}

	tests := []struct {
		name        string
		run         *gormModels.SyncLog
		err         error
		wantCode    int
		wantMessage string
	}{
		{"started", running, nil, http.StatusAccepted, constants.MsgSyncStarted},
		{"unchanged", nil, nil, http.StatusOK, constants.MsgSourceUnchanged},
		{"already running", nil, fmt.Errorf("%w: busy", apperrors.ErrConflict), http.StatusConflict, constants.MsgSyncAlreadyRunning},
		{"no source", nil, syncer.ErrSourceNotSet, http.StatusServiceUnavailable, constants.MsgSourceNotSet},
		{"unexpected", nil, errors.New("boom"), http.StatusInternalServerError, "Failed to start synchronization"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotType string
			h := newHandler(&mockSyncService{
				startBackgroundFunc: func(ctx context.Context, syncType string) (*gormModels.SyncLog, error) {
					gotType = syncType
					return tt.run, tt.err
				},
			}, nil)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/sync", nil)
			claims := &auth.AdminClaims{RoleValue: constants.RoleOperator}
			claims.Subject = "ops"
			req = req.WithContext(auth.WithClaims(req.Context(), claims))

			rr := httptest.NewRecorder()
			h.TriggerSync().ServeHTTP(rr, req)

			assert.Equal(t, tt.wantCode, rr.Code)
			assert.Equal(t, constants.SyncTypeManual, gotType)
			body := decode(t, rr)
			assert.Equal(t, tt.wantMessage, body.Message)

			if tt.wantCode == http.StatusAccepted {
				var data dtos.SyncTriggerResponse
				require.NoError(t, json.Unmarshal(body.Data, &data))
				assert.True(t, data.Changed)
				require.NotNil(t, data.Run)
				assert.Equal(t, running.ID, data.Run.ID)
			}
		})
	}
}

func TestCancelSync(t *testing.T) {
	for _, canceled := range []bool{true, false} {
		h := newHandler(&mockSyncService{cancelFunc: func() bool { return canceled }}, nil)

		rr := httptest.NewRecorder()
		h.CancelSync().ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/admin/sync/cancel", nil))

		if canceled {
			assert.Equal(t, http.StatusAccepted, rr.Code)
		} else {
			assert.Equal(t, http.StatusNotFound, rr.Code)
			assert.Equal(t, constants.MsgNoSyncRunning, decode(t, rr).Message)
		}
	}
}

func TestSyncStatus_CachesCounts(t *testing.T) {
	latest := &gormModels.SyncLog{ID: uuid.New(), Status: constants.SyncStatusRunning}
	loads := 0
	h := newHandler(&mockSyncService{
		statusFunc: func(ctx context.Context) (*gormModels.SyncLog, error) { return latest, nil },
		progressFunc: func() (dtos.SyncProgress, bool) {
			return dtos.SyncProgress{RunID: latest.ID, Stage: "artworks", Current: 10, Total: 40}, true
		},
	}, &mockCatalogStats{
		catalogCountsFunc: func(ctx context.Context) (*dtos.CatalogCounts, error) {
			loads++
			return &dtos.CatalogCounts{Artworks: 40, Museums: 3}, nil
		},
	})

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		h.SyncStatus().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/admin/sync/status", nil))
		require.Equal(t, http.StatusOK, rr.Code)

		var data dtos.SyncStatusResponse
		require.NoError(t, json.Unmarshal(decode(t, rr).Data, &data))
		require.NotNil(t, data.Latest)
		assert.Equal(t, latest.ID, data.Latest.ID)
		require.NotNil(t, data.Progress)
		assert.Equal(t, 10, data.Progress.Current)
		require.NotNil(t, data.Catalog)
		assert.EqualValues(t, 40, data.Catalog.Artworks)
	}
	assert.Equal(t, 1, loads)
}

func TestSyncStatus_CountsFailureStillAnswers(t *testing.T) {
	h := newHandler(&mockSyncService{
		statusFunc: func(ctx context.Context) (*gormModels.SyncLog, error) { return nil, nil },
	}, &mockCatalogStats{
		catalogCountsFunc: func(ctx context.Context) (*dtos.CatalogCounts, error) { return nil, errors.New("down") },
	})

	rr := httptest.NewRecorder()
	h.SyncStatus().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/admin/sync/status", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var data dtos.SyncStatusResponse
	require.NoError(t, json.Unmarshal(decode(t, rr).Data, &data))
	assert.Nil(t, data.Latest)
	assert.Nil(t, data.Progress)
	assert.Nil(t, data.Catalog)
}

func TestSyncLogs_Limit(t *testing.T) {
	tests := []struct {
		query     string
		wantCode  int
		wantLimit int
	}{
		{"", http.StatusOK, defaultLogLimit},
		{"?limit=5", http.StatusOK, 5},
		{"?limit=100000", http.StatusOK, maxLogLimit},
		{"?limit=0", http.StatusBadRequest, 0},
		{"?limit=abc", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			gotLimit := 0
			h := newHandler(&mockSyncService{
				logsFunc: func(ctx context.Context, limit int) ([]gormModels.SyncLog, error) {
					gotLimit = limit
					return []gormModels.SyncLog{{ID: uuid.New()}}, nil
				},
			}, nil)

			rr := httptest.NewRecorder()
			h.SyncLogs().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/admin/sync/logs"+tt.query, nil))

			assert.Equal(t, tt.wantCode, rr.Code)
			assert.Equal(t, tt.wantLimit, gotLimit)
		})
	}
}
