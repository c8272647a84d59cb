// Package cachestore provides the keyed cache stores used to wrap query
// execution: a Redis-backed store for production and an in-memory store for
// tests. Both expose a plain remember read and a stale-while-revalidate
// read (Flexible) that serves a stale value while a background refresh
// recomputes it.
package cachestore

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cachestore: cache miss")

// FetchFunc recomputes the value for a key. It must be idempotent and free
// of side effects on the caller's state; it may run in a background
// goroutine during a stale refresh.
type FetchFunc func(ctx context.Context) ([]byte, error)

// Store is a keyed cache with TTL semantics.
type Store interface {
	// Get returns the cached value, or ErrMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores a value with the given TTL.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Forget deletes a key. Deleting an absent key is not an error.
	Forget(ctx context.Context, key string) error

	// Remember returns the cached value on a hit; on a miss it runs fetch,
	// stores the result with the TTL and returns it. Fetch errors propagate
	// without storing anything.
	Remember(ctx context.Context, key string, ttl time.Duration, fetch FetchFunc) ([]byte, error)

	// Flexible implements stale-while-revalidate: within the fresh window
	// the cached value is returned directly; within the stale window the
	// cached value is returned and a background refresh is triggered; on a
	// full miss fetch runs synchronously.
	Flexible(ctx context.Context, key string, fresh, stale time.Duration, fetch FetchFunc) ([]byte, error)
}
