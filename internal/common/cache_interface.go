package common

import (
	"time"

	"github.com/segmentio/encoding/json"
)

// CacheInterface defines the contract for cache implementations
type CacheInterface interface {
	// Set stores a value in cache with the given key and duration
	Set(key string, value interface{}, duration time.Duration)

	// Get retrieves a value from cache by key
	// Returns the value and true if found, nil and false otherwise
	Get(key string) (interface{}, bool)

	// Delete removes a value from cache by key
	Delete(key string)

	// GetOrSet retrieves a value from cache, or loads it using the loader function if not found
	GetOrSet(key string, duration time.Duration, loader func() (any, error)) (interface{}, error)

	// Close closes any underlying connections (for Redis, etc.)
	Close() error
}

// Fetch is GetOrSet with a typed result. Values that went through a
// serializing cache come back as generic JSON and are decoded into T.
func Fetch[T any](c CacheInterface, key string, duration time.Duration, loader func() (T, error)) (T, error) {
	var out T

	val, err := c.GetOrSet(key, duration, func() (any, error) { return loader() })
	if err != nil {
		return out, err
	}
	if typed, ok := val.(T); ok {
		return typed, nil
	}

	data, err := json.Marshal(val)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(data, &out)
	return out, err
}
