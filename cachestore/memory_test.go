package cachestore

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreGetMiss(t *testing.T) {
	store := NewMemoryStore()
	_, err := store.Get(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryStorePutGet(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k", []byte("v"), time.Minute))

	data, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), data)
}

func TestMemoryStoreExpiry(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k", []byte("v"), -time.Second))

	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryStoreForget(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k", []byte("v"), time.Minute))
	require.NoError(t, store.Forget(ctx, "k"))
	require.NoError(t, store.Forget(ctx, "k"))

	_, err := store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryStoreRemember(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var calls int32
	fetch := func(ctx context.Context) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		return []byte("computed"), nil
	}

	data, err := store.Remember(ctx, "k", time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, []byte("computed"), data)

	data, err = store.Remember(ctx, "k", time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, []byte("computed"), data)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestMemoryStoreRememberFetchErrorNotStored(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	_, err := store.Remember(ctx, "k", time.Minute, func(ctx context.Context) ([]byte, error) {
		return nil, assert.AnError
	})
	require.Error(t, err)

	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryStoreFlexibleMissComputesSynchronously(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	data, err := store.Flexible(ctx, "k", time.Minute, time.Minute, func(ctx context.Context) ([]byte, error) {
		return []byte("v1"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), data)
}

func TestMemoryStoreFlexibleFreshHitSkipsFetch(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var calls int32
	fetch := func(ctx context.Context) ([]byte, error) {
		atomic.AddInt32(&calls, 1)
		return []byte("v1"), nil
	}

	_, err := store.Flexible(ctx, "k", time.Minute, time.Minute, fetch)
	require.NoError(t, err)
	data, err := store.Flexible(ctx, "k", time.Minute, time.Minute, fetch)
	require.NoError(t, err)

	assert.Equal(t, []byte("v1"), data)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestMemoryStoreFlexibleStaleServesOldAndRefreshes(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	// seed an entry that is already past its fresh window but inside the
	// stale window
	store.put("k", []byte("old"), -time.Second, time.Minute)

	var refreshed int32
	data, err := store.Flexible(ctx, "k", time.Minute, time.Minute, func(ctx context.Context) ([]byte, error) {
		atomic.AddInt32(&refreshed, 1)
		return []byte("new"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("old"), data)

	require.Eventually(t, func() bool {
		d, err := store.Get(ctx, "k")
		return err == nil && string(d) == "new"
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshed))
}

func TestMemoryStoreFlexibleExpiredEntryIsMiss(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	store.put("k", []byte("old"), -2*time.Second, time.Second)

	data, err := store.Flexible(ctx, "k", time.Minute, time.Minute, func(ctx context.Context) ([]byte, error) {
		return []byte("new"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), data)
}
