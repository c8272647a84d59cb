package elastiq

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
)

// MultiQueryBuilder holds a named collection of query builders, serializes
// them into the batched msearch wire format and demultiplexes the positional
// response back onto the entry names. Entries are always emitted sorted by
// ascending name, independent of insertion order, so the wire output and
// derived cache keys are reproducible.
type MultiQueryBuilder struct {
	client  Client
	manager *Manager
	entries map[string]*QueryBuilder

	cache cachePolicy
}

// NewMulti creates a MultiQueryBuilder bound to the given client.
func NewMulti(client Client) *MultiQueryBuilder {
	return &MultiQueryBuilder{client: client, entries: make(map[string]*QueryBuilder)}
}

// Add builds a fresh query builder through the callback and stores it under
// name, overwriting any prior entry with that name. The stored builder keeps
// sharing this multi-builder's client and connection manager.
func (mb *MultiQueryBuilder) Add(name string, fn func(*QueryBuilder)) *MultiQueryBuilder {
	qb := &QueryBuilder{client: mb.client, manager: mb.manager}
	fn(qb)
	return mb.AddBuilder(name, qb)
}

// AddBuilder stores an existing builder under name, overwriting any prior
// entry. The builder reference is retained, so mutating it before Build is
// reflected in the batched output.
func (mb *MultiQueryBuilder) AddBuilder(name string, qb *QueryBuilder) *MultiQueryBuilder {
	if mb.entries == nil {
		mb.entries = make(map[string]*QueryBuilder)
	}
	mb.entries[name] = qb
	return mb
}

// Count returns the number of entries currently held.
func (mb *MultiQueryBuilder) Count() int {
	return len(mb.entries)
}

// names returns the entry names in ascending order — the deterministic
// batching order used by both Build and Execute.
func (mb *MultiQueryBuilder) names() []string {
	names := make([]string, 0, len(mb.entries))
	for name := range mb.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build serializes the entries, sorted by ascending name, into the flattened
// alternating header/body sequence of the msearch wire format. Each header
// carries the entry's index selector comma-joined; entries without an index
// selector emit an empty header.
func (mb *MultiQueryBuilder) Build() []M {
	body := make([]M, 0, 2*len(mb.entries))
	for _, name := range mb.names() {
		entry := mb.entries[name]
		header := M{}
		if len(entry.index) > 0 {
			header["index"] = strings.Join(entry.index, ",")
		}
		body = append(body, header, entry.Build())
	}
	return body
}

// ToArray is an inspection alias for Build.
func (mb *MultiQueryBuilder) ToArray() []M {
	return mb.Build()
}

// Execute sends the batched request and re-maps the positional responses
// onto the entry names using the same sorted-name order as Build. With zero
// entries the backend is not contacted and an empty result is returned.
func (mb *MultiQueryBuilder) Execute(ctx context.Context) (*MultiResponse, error) {
	if mb.client == nil {
		return nil, newConfigError(ErrNoClient, "no search client bound to this builder")
	}

	if len(mb.entries) == 0 {
		return &MultiResponse{Responses: map[string]Response{}}, nil
	}

	if !mb.cache.enabled {
		return mb.doExecute(ctx)
	}

	resolved, err := mb.resolveCache()
	if err != nil {
		return nil, err
	}

	data, err := executeCached(ctx, resolved, mb.CacheKey(), func(ctx context.Context) ([]byte, error) {
		res, err := mb.doExecute(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(res)
	})
	if err != nil {
		return nil, err
	}

	var res MultiResponse
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (mb *MultiQueryBuilder) doExecute(ctx context.Context) (*MultiResponse, error) {
	raw, err := mb.client.Msearch(ctx, MsearchParams{Body: mb.Build()})
	if err != nil {
		return nil, err
	}

	result := &MultiResponse{
		Took:      raw.Took,
		Responses: make(map[string]Response, len(mb.entries)),
	}
	for i, name := range mb.names() {
		if i >= len(raw.Responses) {
			break
		}
		result.Responses[name] = raw.Responses[i]
	}
	return result, nil
}

// indexUnion returns the sorted-unique union of index names across all
// entries, used for cache key derivation.
func (mb *MultiQueryBuilder) indexUnion() []string {
	seen := make(map[string]bool)
	for _, entry := range mb.entries {
		for _, idx := range entry.index {
			seen[idx] = true
		}
	}
	union := make([]string, 0, len(seen))
	for idx := range seen {
		union = append(union, idx)
	}
	sort.Strings(union)
	return union
}
