package syncer

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLock(t *testing.T) {
	ctx := context.Background()
	lock := NewMemoryLock()

	ok, err := lock.TryAcquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = lock.TryAcquire(ctx)
	assert.False(t, ok)

	require.NoError(t, lock.Release(ctx))
	ok, _ = lock.TryAcquire(ctx)
	assert.True(t, ok)
}

// TestRedisLock needs a live server; set REDIS_ADDR to run it.
func TestRedisLock(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	ctx := context.Background()
	key := "joconde:test:" + t.Name()
	first := NewRedisLock(client, key, time.Minute)
	second := NewRedisLock(client, key, time.Minute)
	defer first.Release(ctx)

	ok, err := first.TryAcquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = second.TryAcquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// Releasing a lock we never took leaves the holder's key in place.
	require.NoError(t, second.Release(ctx))
	ok, _ = second.TryAcquire(ctx)
	assert.False(t, ok)

	require.NoError(t, first.Release(ctx))
	ok, err = second.TryAcquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, second.Release(ctx))
}
