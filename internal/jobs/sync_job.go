package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/DavidDuveau/openjoconde-sub000/internal/apperrors"
	"github.com/DavidDuveau/openjoconde-sub000/internal/constants"
	"github.com/DavidDuveau/openjoconde-sub000/internal/logging"
	gormModels "github.com/DavidDuveau/openjoconde-sub000/internal/models/gorm"
)

// Synchronizer runs one synchronization attempt.
type Synchronizer interface {
	Synchronize(ctx context.Context, syncType string) (*gormModels.SyncLog, error)
}

// SyncJob polls the collection source and imports it when it changed
type SyncJob struct {
	sync Synchronizer
}

// NewSyncJob creates a new sync job instance
func NewSyncJob(sync Synchronizer) *SyncJob {
	return &SyncJob{sync: sync}
}

// Run executes one automatic synchronization.
// A run already in progress is not an error for the scheduler.
func (j *SyncJob) Run(ctx context.Context) error {
	start := time.Now()
	logging.Info("[SyncJob] Starting scheduled synchronization", "at", start.Format(time.RFC3339))

	run, err := j.sync.Synchronize(ctx, constants.SyncTypeAutomatic)
	switch {
	case errors.Is(err, apperrors.ErrConflict):
		logging.Info("[SyncJob] Skipped, a synchronization is already running")
		return nil
	case err != nil:
		return err
	case run == nil:
		logging.Info("[SyncJob] Source unchanged", "duration", time.Since(start))
		return nil
	}

	logging.Info("[SyncJob] Completed",
		"run_id", run.ID,
		"status", run.Status,
		"items", run.ItemsProcessed,
		"duration", time.Since(start),
	)
	return nil
}

// RunScheduled runs the job immediately, then every interval until ctx is done
func (j *SyncJob) RunScheduled(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	if err := j.Run(ctx); err != nil {
		logging.Error("[SyncJob] Error in initial run", "error", err)
	}

	for {
		select {
		case <-ticker.C:
			if err := j.Run(ctx); err != nil {
				logging.Error("[SyncJob] Error in scheduled run", "error", err)
			}
		case <-ctx.Done():
			logging.Info("[SyncJob] Shutting down scheduled sync")
			return
		}
	}
}
