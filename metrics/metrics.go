// Package metrics exposes Prometheus instrumentation for query execution
// and cache behavior. Metrics register themselves on the default registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Query metrics
	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "elastiq_query_duration_seconds",
			Help:    "Duration of Elasticsearch queries in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"index", "operation", "status"},
	)

	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elastiq_queries_total",
			Help: "Total number of Elasticsearch queries",
		},
		[]string{"index", "operation", "status"},
	)

	// Index operation metrics
	IndexOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elastiq_index_operations_total",
			Help: "Total number of index and document operations",
		},
		[]string{"index", "operation"},
	)

	IndexOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "elastiq_index_operation_duration_seconds",
			Help:    "Duration of index and document operations",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"index", "operation"},
	)

	// Cache metrics
	CacheReadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "elastiq_cache_reads_total",
			Help: "Total number of cache reads by result (hit, stale, miss)",
		},
		[]string{"result"},
	)

	CacheRefreshesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "elastiq_cache_refreshes_total",
			Help: "Total number of background stale-entry refreshes",
		},
	)
)

// ObserveQuery records one query execution.
func ObserveQuery(index, operation, status string, d time.Duration) {
	QueryDuration.WithLabelValues(index, operation, status).Observe(d.Seconds())
	QueriesTotal.WithLabelValues(index, operation, status).Inc()
}

// ObserveIndexOperation records one index or document operation.
func ObserveIndexOperation(index, operation string, d time.Duration) {
	IndexOperationDuration.WithLabelValues(index, operation).Observe(d.Seconds())
	IndexOperationsTotal.WithLabelValues(index, operation).Inc()
}

// RecordCacheRead records one cache read with its result.
func RecordCacheRead(result string) {
	CacheReadsTotal.WithLabelValues(result).Inc()
}

// RecordCacheRefresh records one background refresh.
func RecordCacheRefresh() {
	CacheRefreshesTotal.Inc()
}
