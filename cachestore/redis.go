package cachestore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/elastiq/elastiq/logger"
	"github.com/elastiq/elastiq/metrics"
)

const (
	freshMarkerSuffix = ":fresh"
	refreshLockSuffix = ":refresh-lock"

	refreshLockTTL = 30 * time.Second
	refreshTimeout = 30 * time.Second
)

// RedisStore is a Redis-backed cache store.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore wraps an existing Redis client. The caller owns the client's
// lifecycle.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Get returns the cached value, or ErrMiss.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Put stores a value with the given TTL.
func (s *RedisStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// Forget deletes the key and its fresh marker.
func (s *RedisStore) Forget(ctx context.Context, key string) error {
	return s.client.Del(ctx, key, key+freshMarkerSuffix).Err()
}

// Remember returns the cached value on a hit, otherwise computes, stores and
// returns it.
func (s *RedisStore) Remember(ctx context.Context, key string, ttl time.Duration, fetch FetchFunc) ([]byte, error) {
	data, err := s.Get(ctx, key)
	if err == nil {
		metrics.RecordCacheRead("hit")
		return data, nil
	}
	if !errors.Is(err, ErrMiss) {
		return nil, err
	}

	metrics.RecordCacheRead("miss")
	data, err = fetch(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Put(ctx, key, data, ttl); err != nil {
		return nil, err
	}
	return data, nil
}

// Flexible implements stale-while-revalidate. The value key lives for
// fresh+stale; a sidecar marker key lives for fresh. A value hit without the
// marker means the entry is stale: it is served as-is and a locked
// background refresh recomputes it.
func (s *RedisStore) Flexible(ctx context.Context, key string, fresh, stale time.Duration, fetch FetchFunc) ([]byte, error) {
	data, err := s.Get(ctx, key)
	if err == nil {
		exists, err := s.client.Exists(ctx, key+freshMarkerSuffix).Result()
		if err != nil {
			return nil, err
		}
		if exists > 0 {
			metrics.RecordCacheRead("hit")
			return data, nil
		}

		metrics.RecordCacheRead("stale")
		go s.refresh(key, fresh, stale, fetch)
		return data, nil
	}
	if !errors.Is(err, ErrMiss) {
		return nil, err
	}

	metrics.RecordCacheRead("miss")
	data, err = fetch(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.store(ctx, key, data, fresh, stale); err != nil {
		return nil, err
	}
	return data, nil
}

// refresh recomputes a stale entry in the background. A SET NX lock keyed
// off the value key collapses concurrent refreshes to one; the losing
// callers simply keep serving the stale value.
func (s *RedisStore) refresh(key string, fresh, stale time.Duration, fetch FetchFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	lockKey := key + refreshLockSuffix
	token := uuid.NewString()
	ok, err := s.client.SetNX(ctx, lockKey, token, refreshLockTTL).Result()
	if err != nil || !ok {
		return
	}
	defer func() {
		if current, err := s.client.Get(ctx, lockKey).Result(); err == nil && current == token {
			s.client.Del(ctx, lockKey)
		}
	}()

	metrics.RecordCacheRefresh()
	data, err := fetch(ctx)
	if err != nil {
		logger.Log.Warn("background cache refresh failed",
			logger.WithKey(key),
			logger.WithError(err),
		)
		return
	}
	if err := s.store(ctx, key, data, fresh, stale); err != nil {
		logger.Log.Warn("background cache refresh store failed",
			logger.WithKey(key),
			logger.WithError(err),
		)
	}
}

// store writes the value for fresh+stale and the fresh marker for fresh.
func (s *RedisStore) store(ctx context.Context, key string, value []byte, fresh, stale time.Duration) error {
	if err := s.client.Set(ctx, key, value, fresh+stale).Err(); err != nil {
		return err
	}
	return s.client.Set(ctx, key+freshMarkerSuffix, 1, fresh).Err()
}
