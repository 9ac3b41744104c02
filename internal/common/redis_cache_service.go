package common

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/encoding/json"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/DavidDuveau/openjoconde-sub000/internal/logging"
	"github.com/DavidDuveau/openjoconde-sub000/internal/metrics"
)

// redisOpTimeout bounds every cache round trip; a slow Redis degrades to a miss.
const redisOpTimeout = 3 * time.Second

// RedisCacheService implements CacheInterface using Redis.
// Values are stored as JSON, so Get returns generic JSON values; use Fetch
// for typed reads.
type RedisCacheService struct {
	client  *redis.Client
	prefix  string
	loads   singleflight.Group
	metrics *metrics.MetricsRegistry
	log     *zap.SugaredLogger
}

// Ensure RedisCacheService implements CacheInterface
var _ CacheInterface = (*RedisCacheService)(nil)

// NewRedisCacheService wraps client. Every key is stored under prefix.
func NewRedisCacheService(client *redis.Client, prefix string, metricsReg *metrics.MetricsRegistry) *RedisCacheService {
	return &RedisCacheService{
		client:  client,
		prefix:  prefix,
		metrics: metricsReg,
		log:     logging.With("component", "redis_cache"),
	}
}

func (r *RedisCacheService) key(k string) string {
	return r.prefix + k
}

// Set stores a value in Redis with the given key and duration
func (r *RedisCacheService) Set(key string, value interface{}, duration time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		r.log.Warnw("Failed to marshal cache value", "key", key, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := r.client.Set(ctx, r.key(key), data, duration).Err(); err != nil {
		r.log.Warnw("Failed to set cache key", "key", key, "error", err)
	}
}

// Get retrieves a value from Redis by key
func (r *RedisCacheService) Get(key string) (interface{}, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err == redis.Nil {
		r.metrics.ObserveCache(key, false)
		return nil, false
	}
	if err != nil {
		r.log.Warnw("Failed to get cache key", "key", key, "error", err)
		r.metrics.ObserveCache(key, false)
		return nil, false
	}

	var result interface{}
	if err := json.Unmarshal(data, &result); err != nil {
		r.log.Warnw("Failed to unmarshal cache value", "key", key, "error", err)
		r.metrics.ObserveCache(key, false)
		return nil, false
	}

	r.metrics.ObserveCache(key, true)
	return result, true
}

// Delete removes a value from Redis by key
func (r *RedisCacheService) Delete(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		r.log.Warnw("Failed to delete cache key", "key", key, "error", err)
	}
}

// GetOrSet retrieves a value from cache, or loads it using the loader function if not found.
// Concurrent misses in this process share one loader call.
func (r *RedisCacheService) GetOrSet(key string, duration time.Duration, loader func() (any, error)) (interface{}, error) {
	if val, found := r.Get(key); found {
		return val, nil
	}

	val, err, _ := r.loads.Do(key, func() (interface{}, error) {
		v, err := loader()
		if err != nil {
			return nil, err
		}
		r.Set(key, v, duration)
		return v, nil
	})
	return val, err
}

// Close closes the Redis connection
func (r *RedisCacheService) Close() error {
	return r.client.Close()
}

// TTL returns the remaining time to live of a key
func (r *RedisCacheService) TTL(ctx context.Context, key string) (time.Duration, error) {
	return r.client.TTL(ctx, r.key(key)).Result()
}
