// Package cache provides the byte-oriented key/value cache used for upstream
// lookups. Redis backs it when configured; otherwise a no-op cache is used.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque values with a TTL. A miss is reported through the bool
// result, not an error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Noop is a Cache that never stores anything.
type Noop struct{}

var _ Cache = Noop{}

// Get always misses.
func (Noop) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

// Set discards the value.
func (Noop) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}
