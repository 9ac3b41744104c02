package workers

import (
	"context"
	"database/sql"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidDuveau/openjoconde-sub000/internal/common"
	"github.com/DavidDuveau/openjoconde-sub000/internal/constants"
	"github.com/DavidDuveau/openjoconde-sub000/internal/metrics"
	"github.com/DavidDuveau/openjoconde-sub000/internal/models/dtos"
)

type fixedStats sql.DBStats

func (s fixedStats) Stats() sql.DBStats { return sql.DBStats(s) }

func TestPoolMonitor_Sample(t *testing.T) {
	reg := metrics.NewMetricsRegistry(prometheus.NewRegistry())
	NewPoolMonitor(fixedStats{OpenConnections: 5, InUse: 2, Idle: 3}, reg).sample()

	assert.Equal(t, float64(5), testutil.ToFloat64(reg.DBConnections.WithLabelValues("open")))
	assert.Equal(t, float64(2), testutil.ToFloat64(reg.DBConnections.WithLabelValues("in_use")))
	assert.Equal(t, float64(3), testutil.ToFloat64(reg.DBConnections.WithLabelValues("idle")))
}

type countsFunc func(ctx context.Context) (*dtos.CatalogCounts, error)

func (f countsFunc) CatalogCounts(ctx context.Context) (*dtos.CatalogCounts, error) { return f(ctx) }

func TestCountsCacheFiller(t *testing.T) {
	cache := common.NewCacheService(time.Minute, time.Minute, nil)
	var calls atomic.Int32
	filler := NewCountsCacheFiller(cache, countsFunc(func(ctx context.Context) (*dtos.CatalogCounts, error) {
		calls.Add(1)
		return &dtos.CatalogCounts{Artworks: 7}, nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go filler.Start(ctx, 10*time.Millisecond)

	require.Eventually(t, func() bool { return calls.Load() >= 2 }, 2*time.Second, 5*time.Millisecond)

	v, ok := cache.Get(string(constants.CachePrefixCatalogCounts))
	require.True(t, ok)
	assert.EqualValues(t, 7, v.(*dtos.CatalogCounts).Artworks)
}

func TestCountsCacheFiller_KeepsOldValueOnError(t *testing.T) {
	cache := common.NewCacheService(time.Minute, time.Minute, nil)
	cache.Set(string(constants.CachePrefixCatalogCounts), &dtos.CatalogCounts{Artworks: 1}, time.Minute)

	NewCountsCacheFiller(cache, countsFunc(func(ctx context.Context) (*dtos.CatalogCounts, error) {
		return nil, errors.New("down")
	})).refill(context.Background())

	v, ok := cache.Get(string(constants.CachePrefixCatalogCounts))
	require.True(t, ok)
	assert.EqualValues(t, 1, v.(*dtos.CatalogCounts).Artworks)
}
