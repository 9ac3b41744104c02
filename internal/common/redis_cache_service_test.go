package common

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidDuveau/openjoconde-sub000/internal/config"
	"github.com/DavidDuveau/openjoconde-sub000/internal/models/dtos"
)

// TestRedisCacheService needs a live server; set REDIS_ADDR to run it.
func TestRedisCacheService(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	cache := NewRedisCacheService(NewRedisClient(config.RedisConfig{Addr: addr}), "joconde:test:", nil)
	defer cache.Close()
	defer cache.Delete("counts")

	counts, err := Fetch(cache, "counts", time.Minute, func() (*dtos.CatalogCounts, error) {
		return &dtos.CatalogCounts{Artworks: 3, Museums: 1}, nil
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, counts.Artworks)

	ttl, err := cache.TTL(context.Background(), "counts")
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	cached, err := Fetch(cache, "counts", time.Minute, func() (*dtos.CatalogCounts, error) {
		t.Fatal("loader called on a hit")
		return nil, nil
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, cached.Museums)

	cache.Delete("counts")
	_, found := cache.Get("counts")
	assert.False(t, found)
}
