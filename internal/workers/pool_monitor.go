package workers

import (
	"context"
	"database/sql"
	"time"

	"github.com/DavidDuveau/openjoconde-sub000/internal/logging"
	"github.com/DavidDuveau/openjoconde-sub000/internal/metrics"
)

// PoolStatser is satisfied by *sql.DB and *sqlx.DB.
type PoolStatser interface {
	Stats() sql.DBStats
}

// PoolMonitor publishes database pool usage
type PoolMonitor struct {
	db      PoolStatser
	metrics *metrics.MetricsRegistry
}

// NewPoolMonitor creates a new pool monitor
func NewPoolMonitor(db PoolStatser, metricsReg *metrics.MetricsRegistry) *PoolMonitor {
	return &PoolMonitor{db: db, metrics: metricsReg}
}

// Start samples the pool every interval until ctx is done
func (m *PoolMonitor) Start(ctx context.Context, interval time.Duration) {
	logging.Debug("[PoolMonitor] Starting", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run immediately on start
	m.sample()

	for {
		select {
		case <-ctx.Done():
			logging.Debug("[PoolMonitor] Shutting down")
			return
		case <-ticker.C:
			m.sample()
		}
	}
}

func (m *PoolMonitor) sample() {
	s := m.db.Stats()
	m.metrics.SetConnections(s.OpenConnections, s.InUse, s.Idle)
	if s.MaxOpenConnections > 0 && s.InUse >= s.MaxOpenConnections {
		logging.Warn("[PoolMonitor] Connection pool exhausted",
			"in_use", s.InUse,
			"wait_count", s.WaitCount,
		)
	}
}
