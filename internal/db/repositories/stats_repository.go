package repositories

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/DavidDuveau/openjoconde-sub000/internal/constants"
	"github.com/DavidDuveau/openjoconde-sub000/internal/metrics"
	"github.com/DavidDuveau/openjoconde-sub000/internal/models/dtos"
)

// StatsRepository runs the read-only catalog queries on the sqlx handle.
type StatsRepository struct {
	db      *sqlx.DB
	metrics *metrics.MetricsRegistry
}

func NewStatsRepository(db *sqlx.DB, metricsReg *metrics.MetricsRegistry) *StatsRepository {
	return &StatsRepository{db: db, metrics: metricsReg}
}

// CatalogCounts counts the live rows of every catalog table.
func (r *StatsRepository) CatalogCounts(ctx context.Context) (*dtos.CatalogCounts, error) {
	start := time.Now()
	defer func() { r.metrics.ObserveQuery("catalog_counts", time.Since(start)) }()

	var counts dtos.CatalogCounts
	if err := r.db.GetContext(ctx, &counts, constants.CountCatalog); err != nil {
		return nil, err
	}
	return &counts, nil
}

// RunningSyncs counts sync_logs rows still marked Running.
func (r *StatsRepository) RunningSyncs(ctx context.Context) (int, error) {
	start := time.Now()
	defer func() { r.metrics.ObserveQuery("running_syncs", time.Since(start)) }()

	var n int
	err := r.db.GetContext(ctx, &n, constants.CountRunningSyncs)
	return n, err
}
