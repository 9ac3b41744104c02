package common

import (
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/DavidDuveau/openjoconde-sub000/internal/metrics"
)

// CacheService is the in-memory cache used when no Redis server is configured.
// Concurrent GetOrSet misses on one key share a single loader call.
type CacheService struct {
	cache   *cache.Cache
	loads   singleflight.Group
	metrics *metrics.MetricsRegistry
}

var _ CacheInterface = (*CacheService)(nil)

func NewCacheService(defaultExpiration, cleanUpInterval time.Duration, metricsReg *metrics.MetricsRegistry) *CacheService {
	return &CacheService{
		cache:   cache.New(defaultExpiration, cleanUpInterval),
		metrics: metricsReg,
	}
}

func (cs *CacheService) Set(key string, value interface{}, duration time.Duration) {
	cs.cache.Set(key, value, duration)
}

// Get counts a hit or a miss for key.
func (cs *CacheService) Get(key string) (interface{}, bool) {
	val, found := cs.cache.Get(key)
	cs.metrics.ObserveCache(key, found)
	return val, found
}

func (cs *CacheService) Delete(key string) {
	cs.cache.Delete(key)
}

func (cs *CacheService) GetOrSet(key string, duration time.Duration, loader func() (any, error)) (interface{}, error) {
	if val, found := cs.Get(key); found {
		return val, nil
	}

	val, err, _ := cs.loads.Do(key, func() (interface{}, error) {
		v, err := loader()
		if err != nil {
			return nil, err
		}
		cs.Set(key, v, duration)
		return v, nil
	})
	return val, err
}

func (cs *CacheService) Close() error {
	return nil
}
