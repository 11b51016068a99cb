// Package cache holds short-lived byte values keyed by string, backed by Redis or memory.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque values with a time-to-live. A miss is (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Noop never stores anything. It is used when result caching is disabled.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

func (Noop) Set(context.Context, string, []byte, time.Duration) error {
	return nil
}

var _ Cache = Noop{}
