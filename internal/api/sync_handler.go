package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/DavidDuveau/openjoconde-sub000/internal/apperrors"
	"github.com/DavidDuveau/openjoconde-sub000/internal/auth"
	"github.com/DavidDuveau/openjoconde-sub000/internal/common"
	"github.com/DavidDuveau/openjoconde-sub000/internal/constants"
	"github.com/DavidDuveau/openjoconde-sub000/internal/logging"
	"github.com/DavidDuveau/openjoconde-sub000/internal/models/dtos"
	"github.com/DavidDuveau/openjoconde-sub000/internal/syncer"
)

const (
	defaultLogLimit = 20
	maxLogLimit     = 200
)

// SyncHandler serves the admin synchronization endpoints
type SyncHandler struct {
	sync  SyncService
	stats CatalogStats
	cache common.CacheInterface
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(deps *Dependencies) *SyncHandler {
	return &SyncHandler{
		sync:  deps.Sync,
		stats: deps.Stats,
		cache: deps.Cache,
	}
}

// TriggerSync starts a manual synchronization in the background
// @Summary Trigger a synchronization
// @Description Starts a manual sync and returns the Running log; 200 with changed=false when the source is unchanged
// @Tags admin,sync
// @Produce json
// @Success 202 {object} dtos.APIResponse
// @Success 200 {object} dtos.APIResponse
// @Failure 409 {object} dtos.APIResponse
// @Router /api/v1/admin/sync [post]
func (h *SyncHandler) TriggerSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		logging.Info("Manual synchronization requested", "user_id", auth.SubjectFrom(r.Context()))

		run, err := h.sync.StartBackground(r.Context(), constants.SyncTypeManual)
		switch {
		case errors.Is(err, apperrors.ErrConflict):
			common.RespondError(w, start, nil, constants.MsgSyncAlreadyRunning, http.StatusConflict)
			return
		case errors.Is(err, syncer.ErrSourceNotSet):
			common.RespondError(w, start, nil, constants.MsgSourceNotSet, http.StatusServiceUnavailable)
			return
		case err != nil:
			logging.Error("Failed to start synchronization", "error", err)
			common.RespondError(w, start, nil, "Failed to start synchronization")
			return
		}

		if run == nil {
			common.RespondSuccess(w, start, constants.MsgSourceUnchanged, dtos.SyncTriggerResponse{Changed: false})
			return
		}
		common.RespondSuccess(w, start, constants.MsgSyncStarted, dtos.SyncTriggerResponse{Changed: true, Run: run}, http.StatusAccepted)
	}
}

// CancelSync cancels the running synchronization
// @Router /api/v1/admin/sync/cancel [post]
func (h *SyncHandler) CancelSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		if !h.sync.Cancel() {
			common.RespondError(w, start, nil, constants.MsgNoSyncRunning, http.StatusNotFound)
			return
		}
		common.RespondSuccess(w, start, constants.MsgSyncCanceled, nil, http.StatusAccepted)
	}
}

// SyncStatus returns the latest run, live progress and catalog counts
// @Router /api/v1/admin/sync/status [get]
func (h *SyncHandler) SyncStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		latest, err := h.sync.Status(r.Context())
		if err != nil {
			logging.Error("Failed to load sync status", "error", err)
			common.RespondError(w, start, nil, "Failed to load sync status")
			return
		}

		resp := dtos.SyncStatusResponse{Latest: latest}
		if p, ok := h.sync.CurrentProgress(); ok {
			resp.Progress = &p
		}

		counts, err := common.Fetch(h.cache, string(constants.CachePrefixCatalogCounts), constants.CatalogCountsTTL,
			func() (*dtos.CatalogCounts, error) { return h.stats.CatalogCounts(r.Context()) })
		if err != nil {
			// The status itself is still useful without the counts.
			logging.Warn("Failed to load catalog counts", "error", err)
		} else {
			resp.Catalog = counts
		}

		common.RespondSuccess(w, start, "", resp)
	}
}

// SyncLogs lists recent runs, newest first
// @Param limit query int false "Maximum number of runs (default 20, max 200)"
// @Router /api/v1/admin/sync/logs [get]
func (h *SyncHandler) SyncLogs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		limit := defaultLogLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				common.RespondError(w, start, nil, "limit must be a positive integer", http.StatusBadRequest)
				return
			}
			limit = min(n, maxLogLimit)
		}

		logs, err := h.sync.Logs(r.Context(), limit)
		if err != nil {
			logging.Error("Failed to list sync logs", "error", err)
			common.RespondError(w, start, nil, "Failed to list sync logs")
			return
		}
		common.RespondSuccess(w, start, "", logs)
	}
}
