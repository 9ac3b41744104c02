package workers

import (
	"context"
	"time"

	"github.com/DavidDuveau/openjoconde-sub000/internal/common"
	"github.com/DavidDuveau/openjoconde-sub000/internal/constants"
	"github.com/DavidDuveau/openjoconde-sub000/internal/logging"
	"github.com/DavidDuveau/openjoconde-sub000/internal/models/dtos"
)

// CountsSource loads the catalog counts.
type CountsSource interface {
	CatalogCounts(ctx context.Context) (*dtos.CatalogCounts, error)
}

// CountsCacheFiller keeps the catalog counts warm so the status endpoint
// rarely hits the database.
type CountsCacheFiller struct {
	cache  common.CacheInterface
	source CountsSource
}

func NewCountsCacheFiller(cache common.CacheInterface, source CountsSource) *CountsCacheFiller {
	return &CountsCacheFiller{cache: cache, source: source}
}

// Start refills the cache every interval until ctx is done
func (f *CountsCacheFiller) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	f.refill(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.refill(ctx)
		}
	}
}

func (f *CountsCacheFiller) refill(ctx context.Context) {
	counts, err := f.source.CatalogCounts(ctx)
	if err != nil {
		logging.Warn("[CountsCacheFiller] Failed to load catalog counts", "error", err)
		return
	}
	f.cache.Set(string(constants.CachePrefixCatalogCounts), counts, constants.CatalogCountsTTL)
}
