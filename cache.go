package elastiq

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/elastiq/elastiq/cachestore"
)

// Cache defaults applied when no global configuration is bound.
const (
	DefaultCachePrefix = "elastiq"
	DefaultCacheTTL    = 5 * time.Minute
)

// cachePolicy is the per-builder cache descriptor. Every field overrides the
// corresponding global default; zero values mean "inherit". Policies are
// owned per builder and never shared.
type cachePolicy struct {
	enabled    bool
	clearFirst bool
	ttl        time.Duration
	staleTTL   time.Duration
	prefix     string
	driver     string
	store      cachestore.Store
}

// resolvedCache is a policy with all inherit markers resolved against the
// global defaults, ready for execution.
type resolvedCache struct {
	store      cachestore.Store
	ttl        time.Duration
	staleTTL   time.Duration
	clearFirst bool
}

// resolve folds the policy over the global cache configuration. The store is
// taken from the policy when set explicitly, otherwise looked up by driver
// name through the manager.
func (p cachePolicy) resolve(manager *Manager) (resolvedCache, error) {
	var defaults CacheConfig
	if manager != nil {
		defaults = manager.cfg.Cache
	}

	out := resolvedCache{
		ttl:        p.ttl,
		staleTTL:   p.staleTTL,
		clearFirst: p.clearFirst,
	}
	if out.ttl == 0 {
		out.ttl = defaults.TTL
	}
	if out.ttl == 0 {
		out.ttl = DefaultCacheTTL
	}
	if out.staleTTL == 0 {
		out.staleTTL = defaults.StaleTTL
	}

	if p.store != nil {
		out.store = p.store
		return out, nil
	}

	driver := p.driver
	if driver == "" {
		driver = defaults.Driver
	}
	if manager == nil {
		return out, newConfigError(ErrNoCacheStore, "caching enabled but no cache store bound")
	}
	store, err := manager.Store(driver)
	if err != nil {
		return out, err
	}
	out.store = store
	return out, nil
}

// keyPrefix resolves the key prefix against the global default.
func (p cachePolicy) keyPrefix(manager *Manager) string {
	if p.prefix != "" {
		return p.prefix
	}
	if manager != nil && manager.cfg.Cache.Prefix != "" {
		return manager.cfg.Cache.Prefix
	}
	return DefaultCachePrefix
}

// cacheKeyFor derives a deterministic key from a key prefix, the sorted
// unique index names involved and a content hash of the serialized payload.
// JSON marshaling sorts mapping keys recursively, so structurally identical
// bodies hash identically regardless of map construction order; clause
// arrays keep their order, so top-level call order stays significant.
func cacheKeyFor(prefix string, indices []string, payload interface{}) string {
	data, _ := json.Marshal(payload)
	hash := fmt.Sprintf("%x", sha256.Sum256(data))

	segments := make([]string, 0, len(indices)+2)
	segments = append(segments, prefix)
	segments = append(segments, sortedUnique(indices)...)
	segments = append(segments, hash)
	return strings.Join(segments, ":")
}

func sortedUnique(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// executeCached is the explicit decoration applied around Execute when
// caching is enabled: optional clear-before-read, then a remember or
// stale-while-revalidate read against the store. The fetch callback must be
// idempotent; it runs zero or one time per call, or in the background on a
// stale hit.
func executeCached(ctx context.Context, policy resolvedCache, key string, fetch cachestore.FetchFunc) ([]byte, error) {
	if policy.clearFirst {
		if err := policy.store.Forget(ctx, key); err != nil {
			return nil, err
		}
	}
	if policy.staleTTL > 0 {
		return policy.store.Flexible(ctx, key, policy.ttl, policy.staleTTL, fetch)
	}
	return policy.store.Remember(ctx, key, policy.ttl, fetch)
}

// ---- QueryBuilder cache surface ----

// Remember enables caching of execution results for the given TTL.
func (qb *QueryBuilder) Remember(ttl time.Duration) *QueryBuilder {
	qb.cache.enabled = true
	qb.cache.ttl = ttl
	return qb
}

// RememberFlexible enables stale-while-revalidate caching: results within
// the fresh window are served directly; within the stale window the cached
// value is served while a background refresh recomputes it.
func (qb *QueryBuilder) RememberFlexible(fresh, stale time.Duration) *QueryBuilder {
	qb.cache.enabled = true
	qb.cache.ttl = fresh
	qb.cache.staleTTL = stale
	return qb
}

// CachePrefix overrides the cache key prefix for this builder.
func (qb *QueryBuilder) CachePrefix(prefix string) *QueryBuilder {
	qb.cache.prefix = prefix
	return qb
}

// CacheDriver selects a named cache store registered on the connection
// manager.
func (qb *QueryBuilder) CacheDriver(name string) *QueryBuilder {
	qb.cache.driver = name
	return qb
}

// CacheStore binds a cache store directly, bypassing driver resolution.
func (qb *QueryBuilder) CacheStore(store cachestore.Store) *QueryBuilder {
	qb.cache.store = store
	return qb
}

// ClearCache deletes the cache entry before the next cached read, forcing a
// recompute.
func (qb *QueryBuilder) ClearCache() *QueryBuilder {
	qb.cache.clearFirst = true
	return qb
}

// CacheKey derives the deterministic cache key for the built request body.
func (qb *QueryBuilder) CacheKey() string {
	return cacheKeyFor(qb.cache.keyPrefix(qb.manager), qb.index, qb.Build())
}

// FlushCache deletes the cache entry for the current key.
func (qb *QueryBuilder) FlushCache(ctx context.Context) error {
	resolved, err := qb.resolveCache()
	if err != nil {
		return err
	}
	return resolved.store.Forget(ctx, qb.CacheKey())
}

func (qb *QueryBuilder) resolveCache() (resolvedCache, error) {
	return qb.cache.resolve(qb.manager)
}

// ---- MultiQueryBuilder cache surface ----

// Remember enables caching of execution results for the given TTL.
func (mb *MultiQueryBuilder) Remember(ttl time.Duration) *MultiQueryBuilder {
	mb.cache.enabled = true
	mb.cache.ttl = ttl
	return mb
}

// RememberFlexible enables stale-while-revalidate caching for the batched
// execution.
func (mb *MultiQueryBuilder) RememberFlexible(fresh, stale time.Duration) *MultiQueryBuilder {
	mb.cache.enabled = true
	mb.cache.ttl = fresh
	mb.cache.staleTTL = stale
	return mb
}

// CachePrefix overrides the cache key prefix for this builder.
func (mb *MultiQueryBuilder) CachePrefix(prefix string) *MultiQueryBuilder {
	mb.cache.prefix = prefix
	return mb
}

// CacheDriver selects a named cache store registered on the connection
// manager.
func (mb *MultiQueryBuilder) CacheDriver(name string) *MultiQueryBuilder {
	mb.cache.driver = name
	return mb
}

// CacheStore binds a cache store directly, bypassing driver resolution.
func (mb *MultiQueryBuilder) CacheStore(store cachestore.Store) *MultiQueryBuilder {
	mb.cache.store = store
	return mb
}

// ClearCache deletes the cache entry before the next cached read.
func (mb *MultiQueryBuilder) ClearCache() *MultiQueryBuilder {
	mb.cache.clearFirst = true
	return mb
}

// CacheKey derives the deterministic cache key for the batched wire body.
// The index segment is the union of index names across all entries.
func (mb *MultiQueryBuilder) CacheKey() string {
	return cacheKeyFor(mb.cache.keyPrefix(mb.manager), mb.indexUnion(), mb.Build())
}

// FlushCache deletes the cache entry for the current key.
func (mb *MultiQueryBuilder) FlushCache(ctx context.Context) error {
	resolved, err := mb.resolveCache()
	if err != nil {
		return err
	}
	return resolved.store.Forget(ctx, mb.CacheKey())
}

func (mb *MultiQueryBuilder) resolveCache() (resolvedCache, error) {
	return mb.cache.resolve(mb.manager)
}
