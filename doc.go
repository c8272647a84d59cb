// Package elastiq provides a fluent query construction layer for
// Elasticsearch. It assembles structured search request bodies from chained
// builder calls, executes them against one or more configured connections,
// and optionally caches results through a pluggable cache store.
//
// The core pieces are:
//
//   - QueryBuilder: accumulates query clauses, filters, sorting, pagination,
//     source filtering, highlighting and aggregations into one request body
//   - BoolBuilder, RangeBuilder, AggregationBuilder: transient sub-builders
//     that write back into the owning QueryBuilder
//   - MultiQueryBuilder: batches several named queries into a single
//     msearch round trip and demultiplexes the response by name
//   - cachestore: keyed cache stores (Redis, in-memory) with a
//     stale-while-revalidate read primitive
//
// A minimal example:
//
//	client, _ := elastiq.NewESClient(elasticsearch.Config{
//		Addresses: []string{"http://localhost:9200"},
//	})
//
//	res, err := elastiq.New(client).
//		Index("posts").
//		Match("title", "golang").
//		Size(10).
//		Execute(ctx)
package elastiq
