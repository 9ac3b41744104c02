package workers

import (
	"context"
	"time"

	"github.com/DavidDuveau/openjoconde-sub000/internal/common"
	"github.com/DavidDuveau/openjoconde-sub000/internal/metrics"
)

const (
	poolSampleInterval = 15 * time.Second
	// Refill a little before the cached entry expires.
	countsRefillInterval = 25 * time.Second
)

// InitWorkers starts the background workers. They stop when ctx is done.
func InitWorkers(ctx context.Context, db PoolStatser, cache common.CacheInterface, counts CountsSource, metricsReg *metrics.MetricsRegistry) {
	go NewPoolMonitor(db, metricsReg).Start(ctx, poolSampleInterval)
	go NewCountsCacheFiller(cache, counts).Start(ctx, countsRefillInterval)
}
