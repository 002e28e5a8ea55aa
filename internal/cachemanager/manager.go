// Package cachemanager provides a generic cache interface with an
// in-memory implementation and a read-through wrapper.
package cachemanager

import (
	"context"
	"time"
)

// NoExpiration keeps an entry alive until it is deleted explicitly.
const NoExpiration time.Duration = -1

type CacheManager[K comparable, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K) error
	Flush(ctx context.Context) error
}
