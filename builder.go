package elastiq

import (
	"context"
	"encoding/json"
)

// M is a JSON-shaped mapping used for query clauses, options and request
// bodies.
type M = map[string]interface{}

// QueryBuilder accumulates query clauses, filters, sorting, pagination,
// source filtering, highlighting and aggregations, and assembles them into
// one search request body. All chain methods mutate the receiver and return
// it; a builder is owned by a single caller and is not safe for concurrent
// mutation.
type QueryBuilder struct {
	client  Client
	manager *Manager

	index     []string
	queries   []M
	filters   []M
	aggs      map[string]M
	sorts     []M
	source    interface{}
	sourceSet bool
	highlight M
	size      *int
	from      *int

	cache cachePolicy
}

// New creates a QueryBuilder bound to the given client.
func New(client Client) *QueryBuilder {
	return &QueryBuilder{client: client}
}

// NewQuery creates an unbound QueryBuilder. Build and ToArray work as usual;
// Execute fails with a configuration error until a client is bound.
func NewQuery() *QueryBuilder {
	return &QueryBuilder{}
}

// sub creates a fresh, independent builder sharing this builder's client and
// connection manager. Used for nested, filter and bool sub-queries.
func (qb *QueryBuilder) sub() *QueryBuilder {
	return &QueryBuilder{client: qb.client, manager: qb.manager}
}

// Index sets the index selector: a single name or a set of names. Names are
// not validated; unknown indices surface as backend errors.
func (qb *QueryBuilder) Index(names ...string) *QueryBuilder {
	qb.index = append([]string(nil), names...)
	return qb
}

// Match appends a match clause. Options are merged into the clause body
// after the query key, so an explicit "query" option overrides the value.
func (qb *QueryBuilder) Match(field string, value interface{}, options ...M) *QueryBuilder {
	return qb.AddQuery(M{"match": M{field: withOptions(M{"query": value}, options)}})
}

// MatchPhrase appends a match_phrase clause.
func (qb *QueryBuilder) MatchPhrase(field string, value interface{}, options ...M) *QueryBuilder {
	return qb.AddQuery(M{"match_phrase": M{field: withOptions(M{"query": value}, options)}})
}

// Term appends a term clause.
func (qb *QueryBuilder) Term(field string, value interface{}) *QueryBuilder {
	return qb.AddQuery(M{"term": M{field: value}})
}

// Terms appends a terms clause matching any of the given values.
func (qb *QueryBuilder) Terms(field string, values ...interface{}) *QueryBuilder {
	return qb.AddQuery(M{"terms": M{field: values}})
}

// Wildcard appends a wildcard clause.
func (qb *QueryBuilder) Wildcard(field, value string) *QueryBuilder {
	return qb.AddQuery(M{"wildcard": M{field: M{"value": value}}})
}

// Fuzzy appends a fuzzy clause. Options are merged after the value key.
func (qb *QueryBuilder) Fuzzy(field string, value interface{}, options ...M) *QueryBuilder {
	return qb.AddQuery(M{"fuzzy": M{field: withOptions(M{"value": value}, options)}})
}

// Exists appends an exists clause.
func (qb *QueryBuilder) Exists(field string) *QueryBuilder {
	return qb.AddQuery(M{"exists": M{"field": field}})
}

// MatchAll appends a match_all clause.
func (qb *QueryBuilder) MatchAll() *QueryBuilder {
	return qb.AddQuery(M{"match_all": M{}})
}

// Ids appends an ids clause matching the given document IDs.
func (qb *QueryBuilder) Ids(ids ...string) *QueryBuilder {
	return qb.AddQuery(M{"ids": M{"values": ids}})
}

// Prefix appends a prefix clause.
func (qb *QueryBuilder) Prefix(field, value string) *QueryBuilder {
	return qb.AddQuery(M{"prefix": M{field: M{"value": value}}})
}

// QueryString appends a query_string clause. Options are merged after the
// query key.
func (qb *QueryBuilder) QueryString(query string, options ...M) *QueryBuilder {
	return qb.AddQuery(M{"query_string": withOptions(M{"query": query}, options)})
}

// Bool builds a bool clause through the callback and appends it to the
// top-level clause sequence. Use NewBool for manual composition.
func (qb *QueryBuilder) Bool(fn func(*BoolBuilder)) *QueryBuilder {
	b := qb.NewBool()
	fn(b)
	return qb.AddQuery(b.Build())
}

// NewBool returns a bool sub-builder for manual composition. The caller is
// responsible for appending the built clause, e.g. via AddQuery.
func (qb *QueryBuilder) NewBool() *BoolBuilder {
	return &BoolBuilder{owner: qb}
}

// Nested runs the callback against a fresh builder scoped to the nested
// path and appends the resulting nested clause.
func (qb *QueryBuilder) Nested(path string, fn func(*QueryBuilder)) *QueryBuilder {
	inner := qb.sub()
	fn(inner)
	clause := M{"path": path}
	if q := inner.buildQuery(); q != nil {
		clause["query"] = q
	}
	return qb.AddQuery(M{"nested": clause})
}

// Filter runs the callback against a fresh builder and appends its built
// query portion to the filter sequence (no-score context).
func (qb *QueryBuilder) Filter(fn func(*QueryBuilder)) *QueryBuilder {
	inner := qb.sub()
	fn(inner)
	if q := inner.buildQuery(); q != nil {
		qb.filters = append(qb.filters, q)
	}
	return qb
}

// Size sets the page size, overwriting any prior value.
func (qb *QueryBuilder) Size(n int) *QueryBuilder {
	qb.size = &n
	return qb
}

// From sets the result offset, overwriting any prior value.
func (qb *QueryBuilder) From(n int) *QueryBuilder {
	qb.from = &n
	return qb
}

// Sort appends a sort key for the given field. Order defaults to "asc".
// Multiple calls append; the first call is the primary sort key.
func (qb *QueryBuilder) Sort(field string, order ...string) *QueryBuilder {
	o := "asc"
	if len(order) > 0 {
		o = order[0]
	}
	qb.sorts = append(qb.sorts, M{field: M{"order": o}})
	return qb
}

// SortWith appends a full sort specification verbatim.
func (qb *QueryBuilder) SortWith(spec M) *QueryBuilder {
	qb.sorts = append(qb.sorts, spec)
	return qb
}

// Source sets the _source filter, overwriting any prior value. Accepted
// values: an inclusion list ([]string), a single field name (string), false
// to suppress all source fields, or an include/exclude mapping (M).
func (qb *QueryBuilder) Source(spec interface{}) *QueryBuilder {
	qb.source = spec
	qb.sourceSet = true
	return qb
}

// Highlight overwrites the highlight spec with the merged options plus the
// per-field configuration.
func (qb *QueryBuilder) Highlight(fields M, options ...M) *QueryBuilder {
	spec := withOptions(M{}, options)
	spec["fields"] = fields
	qb.highlight = spec
	return qb
}

// Aggregation builds one named aggregation through the callback, overwriting
// any prior aggregation with the same name.
func (qb *QueryBuilder) Aggregation(name string, fn func(*AggregationBuilder)) *QueryBuilder {
	agg := NewAggregation()
	fn(agg)
	if qb.aggs == nil {
		qb.aggs = make(map[string]M)
	}
	qb.aggs[name] = agg.Build()
	return qb
}

// AddQuery appends a clause to the top-level clause sequence. Exposed so
// custom sub-builders can integrate.
func (qb *QueryBuilder) AddQuery(clause M) *QueryBuilder {
	qb.queries = append(qb.queries, clause)
	return qb
}

// UpdateLastRangeQuery replaces the last range clause for the given field in
// place, preserving its position. Falls back to appending when no prior
// range clause for the field exists.
func (qb *QueryBuilder) UpdateLastRangeQuery(field string, clause M) *QueryBuilder {
	for i := len(qb.queries) - 1; i >= 0; i-- {
		if rangeBoundsOf(qb.queries[i], field) != nil {
			qb.queries[i] = clause
			return qb
		}
	}
	return qb.AddQuery(clause)
}

// lastRangeBounds returns the comparator mapping of the last range clause
// for field, or nil.
func (qb *QueryBuilder) lastRangeBounds(field string) M {
	for i := len(qb.queries) - 1; i >= 0; i-- {
		if bounds := rangeBoundsOf(qb.queries[i], field); bounds != nil {
			return bounds
		}
	}
	return nil
}

func rangeBoundsOf(clause M, field string) M {
	r, ok := clause["range"].(M)
	if !ok {
		return nil
	}
	bounds, ok := r[field].(M)
	if !ok {
		return nil
	}
	return bounds
}

// buildQuery assembles the query portion of the body:
//   - no clauses and no filters: nil (query omitted entirely)
//   - filters present: bool wrapper with filter always an array and must
//     collapsing to a bare clause when exactly one top-level clause exists
//   - clauses only: a single clause stands alone, several wrap in bool.must
func (qb *QueryBuilder) buildQuery() M {
	if len(qb.queries) == 0 && len(qb.filters) == 0 {
		return nil
	}

	if len(qb.filters) > 0 {
		b := M{"filter": append([]M(nil), qb.filters...)}
		switch len(qb.queries) {
		case 0:
		case 1:
			b["must"] = qb.queries[0]
		default:
			b["must"] = append([]M(nil), qb.queries...)
		}
		return M{"bool": b}
	}

	if len(qb.queries) == 1 {
		return qb.queries[0]
	}
	return M{"bool": M{"must": append([]M(nil), qb.queries...)}}
}

// Build assembles the request body deterministically from accumulated state.
// Absent fields are omitted entirely. Build is side-effect-free: calling it
// repeatedly without intervening mutation yields identical bodies.
func (qb *QueryBuilder) Build() M {
	body := M{}
	if q := qb.buildQuery(); q != nil {
		body["query"] = q
	}
	if qb.size != nil {
		body["size"] = *qb.size
	}
	if qb.from != nil {
		body["from"] = *qb.from
	}
	if len(qb.sorts) > 0 {
		body["sort"] = append([]M(nil), qb.sorts...)
	}
	if qb.sourceSet {
		body["_source"] = qb.source
	}
	if len(qb.highlight) > 0 {
		body["highlight"] = qb.highlight
	}
	if len(qb.aggs) > 0 {
		aggs := make(M, len(qb.aggs))
		for name, spec := range qb.aggs {
			aggs[name] = spec
		}
		body["aggs"] = aggs
	}
	return body
}

// ToArray is an inspection alias for Build.
func (qb *QueryBuilder) ToArray() M {
	return qb.Build()
}

// Execute builds the request body and runs it against the bound client,
// returning the raw response unmodified. When caching is enabled the call
// goes through the configured cache store first.
func (qb *QueryBuilder) Execute(ctx context.Context) (Response, error) {
	if qb.client == nil {
		return nil, newConfigError(ErrNoClient, "no search client bound to this builder")
	}

	params := SearchParams{Index: qb.index}
	if body := qb.Build(); len(body) > 0 {
		params.Body = body
	}

	if !qb.cache.enabled {
		return qb.client.Search(ctx, params)
	}

	resolved, err := qb.resolveCache()
	if err != nil {
		return nil, err
	}

	data, err := executeCached(ctx, resolved, qb.CacheKey(), func(ctx context.Context) ([]byte, error) {
		res, err := qb.client.Search(ctx, params)
		if err != nil {
			return nil, err
		}
		return json.Marshal(res)
	})
	if err != nil {
		return nil, err
	}

	var res Response
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// ExecuteCount runs only the query portion of the body against the count
// endpoint and returns the matching document count.
func (qb *QueryBuilder) ExecuteCount(ctx context.Context) (int, error) {
	if qb.client == nil {
		return 0, newConfigError(ErrNoClient, "no search client bound to this builder")
	}

	params := SearchParams{Index: qb.index}
	if q := qb.buildQuery(); q != nil {
		params.Body = M{"query": q}
	}

	res, err := qb.client.Count(ctx, params)
	if err != nil {
		return 0, err
	}
	if n, ok := res["count"].(float64); ok {
		return int(n), nil
	}
	return 0, nil
}

// Connection returns a fresh builder bound to the named connection. The
// current builder's accumulated state is NOT carried over; use
// CloneWithConnection to preserve it.
func (qb *QueryBuilder) Connection(name string) (*QueryBuilder, error) {
	return qb.WithConnection(name)
}

// WithConnection returns a fresh, reset builder bound to the named
// connection.
func (qb *QueryBuilder) WithConnection(name string) (*QueryBuilder, error) {
	if qb.manager == nil {
		return nil, newConfigError(ErrNoResolver, "no connection manager bound to this builder")
	}
	client, err := qb.manager.Resolve(name)
	if err != nil {
		return nil, err
	}
	return &QueryBuilder{client: client, manager: qb.manager}, nil
}

// CloneWithConnection returns a new builder bound to the named connection
// with this builder's accumulated state copied over. Clause maps are shared;
// clauses are immutable once produced.
func (qb *QueryBuilder) CloneWithConnection(name string) (*QueryBuilder, error) {
	if qb.manager == nil {
		return nil, newConfigError(ErrNoResolver, "no connection manager bound to this builder")
	}
	client, err := qb.manager.Resolve(name)
	if err != nil {
		return nil, err
	}

	clone := &QueryBuilder{
		client:    client,
		manager:   qb.manager,
		index:     append([]string(nil), qb.index...),
		queries:   append([]M(nil), qb.queries...),
		filters:   append([]M(nil), qb.filters...),
		sorts:     append([]M(nil), qb.sorts...),
		source:    qb.source,
		sourceSet: qb.sourceSet,
		highlight: qb.highlight,
		cache:     qb.cache,
	}
	if qb.size != nil {
		n := *qb.size
		clone.size = &n
	}
	if qb.from != nil {
		n := *qb.from
		clone.from = &n
	}
	if qb.aggs != nil {
		clone.aggs = make(map[string]M, len(qb.aggs))
		for name, spec := range qb.aggs {
			clone.aggs[name] = spec
		}
	}
	return clone, nil
}

// withOptions merges option maps into base. Caller-supplied keys win over
// the reserved query/value keys set by the clause constructors.
func withOptions(base M, options []M) M {
	for _, opts := range options {
		for k, v := range opts {
			base[k] = v
		}
	}
	return base
}
