// Package observability holds the Prometheus metrics exported on /metrics.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics must be global for registration
var (
	// HTTPRequestsTotal counts dashboard and API requests
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "games_dashboard_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"route", "status"},
	)

	// HTTPRequestDuration measures request handling time in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "games_dashboard_http_request_duration_seconds",
			Help:    "HTTP request handling time in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"route"},
	)

	// MemoLookups counts memo lookups per operation
	MemoLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "games_dashboard_memo_lookups_total",
			Help: "Total number of memo lookups",
		},
		[]string{"op", "result"}, // result: hit, miss, error
	)

	// CatalogRows tracks the number of rows in the cleaned catalog
	CatalogRows = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "games_dashboard_catalog_rows",
			Help: "Number of games in the cleaned catalog",
		},
	)

	// RowsDropped counts rows removed while cleaning
	RowsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "games_dashboard_rows_dropped_total",
			Help: "Rows removed while cleaning the catalog",
		},
		[]string{"reason"}, // reason: unmatched, incomplete, non_game
	)

	// CatalogLoadDuration measures the load and clean time at startup
	CatalogLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "games_dashboard_catalog_load_duration_seconds",
			Help:    "Time taken to load and clean the catalog",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
	)
)

// RecordMemoLookup records the outcome of one memo lookup
func RecordMemoLookup(op, result string) {
	MemoLookups.WithLabelValues(op, result).Inc()
}
