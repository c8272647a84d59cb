package cachestore

import (
	"context"
	"sync"
	"time"

	"github.com/elastiq/elastiq/metrics"
)

type memoryEntry struct {
	value      []byte
	expiresAt  time.Time
	freshUntil time.Time
}

// MemoryStore is a mutex-guarded in-memory cache store, primarily for tests
// and single-process deployments.
type MemoryStore struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	refreshing map[string]bool
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries:    make(map[string]memoryEntry),
		refreshing: make(map[string]bool),
	}
}

// Get returns the cached value, or ErrMiss.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(s.entries, key)
		return nil, ErrMiss
	}
	return entry.value, nil
}

// Put stores a value with the given TTL.
func (s *MemoryStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.entries[key] = memoryEntry{
		value:      value,
		expiresAt:  now.Add(ttl),
		freshUntil: now.Add(ttl),
	}
	return nil
}

// Forget deletes a key.
func (s *MemoryStore) Forget(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Remember returns the cached value on a hit, otherwise computes, stores and
// returns it.
func (s *MemoryStore) Remember(ctx context.Context, key string, ttl time.Duration, fetch FetchFunc) ([]byte, error) {
	if data, err := s.Get(ctx, key); err == nil {
		metrics.RecordCacheRead("hit")
		return data, nil
	}

	metrics.RecordCacheRead("miss")
	data, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Put(ctx, key, data, ttl); err != nil {
		return nil, err
	}
	return data, nil
}

// Flexible implements stale-while-revalidate with the same semantics as the
// Redis store: fresh hits return directly, stale hits serve the old value
// and refresh in the background, misses compute synchronously.
func (s *MemoryStore) Flexible(ctx context.Context, key string, fresh, stale time.Duration, fetch FetchFunc) ([]byte, error) {
	s.mu.Lock()
	entry, ok := s.entries[key]
	now := time.Now()
	if ok && now.After(entry.expiresAt) {
		delete(s.entries, key)
		ok = false
	}
	if ok {
		isFresh := now.Before(entry.freshUntil)
		startRefresh := false
		if !isFresh && !s.refreshing[key] {
			s.refreshing[key] = true
			startRefresh = true
		}
		s.mu.Unlock()

		if isFresh {
			metrics.RecordCacheRead("hit")
			return entry.value, nil
		}

		metrics.RecordCacheRead("stale")
		if startRefresh {
			go s.refresh(key, fresh, stale, fetch)
		}
		return entry.value, nil
	}
	s.mu.Unlock()

	metrics.RecordCacheRead("miss")
	data, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	s.put(key, data, fresh, stale)
	return data, nil
}

func (s *MemoryStore) refresh(key string, fresh, stale time.Duration, fetch FetchFunc) {
	defer func() {
		s.mu.Lock()
		delete(s.refreshing, key)
		s.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
	defer cancel()

	metrics.RecordCacheRefresh()
	data, err := fetch(ctx)
	if err != nil {
		return
	}
	s.put(key, data, fresh, stale)
}

func (s *MemoryStore) put(key string, value []byte, fresh, stale time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	s.entries[key] = memoryEntry{
		value:      value,
		expiresAt:  now.Add(fresh + stale),
		freshUntil: now.Add(fresh),
	}
}
