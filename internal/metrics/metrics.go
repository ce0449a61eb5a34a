package metrics

import "github.com/prometheus/client_golang/prometheus"

// Query Prometheus metrics.
var (
	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "neowatch",
			Name:      "approach_queries_total",
			Help:      "Total number of approach queries",
		},
		[]string{"source", "status"},
	)

	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "neowatch",
			Name:      "approach_query_duration_seconds",
			Help:      "Approach query duration in seconds",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"source"},
	)

	QueryResults = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "neowatch",
			Name:      "approach_query_results",
			Help:      "Number of approaches returned per query",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		},
	)

	CacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "neowatch",
			Name:      "query_cache_total",
			Help:      "Query cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss" / "error"
	)

	DatasetSize = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "neowatch",
			Name:      "dataset_records",
			Help:      "Records loaded into the in-memory database",
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(QueryResults)
	prometheus.MustRegister(CacheTotal)
	prometheus.MustRegister(DatasetSize)
}
