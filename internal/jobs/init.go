package jobs

import (
	"context"
	"time"
)

// InitializeJobs starts all background jobs.
// A non-positive interval disables automatic synchronization.
func InitializeJobs(ctx context.Context, sync Synchronizer, interval time.Duration) *SyncJob {
	syncJob := NewSyncJob(sync)
	if interval > 0 {
		go syncJob.RunScheduled(ctx, interval)
	}
	return syncJob
}
