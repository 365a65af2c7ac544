package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floatchat_queries_total",
			Help: "Total chat queries by reply kind",
		},
		[]string{"kind"},
	)

	QueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "floatchat_query_duration_seconds",
			Help:    "Time to answer a chat query, excluding the reply delay",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	QueriesRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "floatchat_queries_rejected_total",
			Help: "Queries refused because another query was in flight",
		},
	)

	SearchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floatchat_search_requests_total",
			Help: "Total search backend calls",
		},
		[]string{"endpoint", "status"},
	)

	SearchLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "floatchat_search_latency_seconds",
			Help:    "Search backend call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	FallbackTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floatchat_fallback_total",
			Help: "Conversational fallback replies by source",
		},
		[]string{"source"},
	)

	ExportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floatchat_exports_total",
			Help: "Total dataset exports by format",
		},
		[]string{"format"},
	)

	ImportRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floatchat_import_rows_total",
			Help: "Dataset rows seen during import by result",
		},
		[]string{"result"},
	)

	FetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "floatchat_fetch_total",
			Help: "Dataset source fetches by scheme and status",
		},
		[]string{"scheme", "status"},
	)

	DatasetFloats = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "floatchat_dataset_floats",
			Help: "Floats currently loaded in memory",
		},
	)

	DatasetMeasurements = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "floatchat_dataset_measurements",
			Help: "Measurements currently loaded in memory",
		},
	)
)
