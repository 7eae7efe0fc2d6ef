// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application. Construct it
// once per process: promauto registers against the default registry.
type Metrics struct {
	// Fetch metrics
	PagesFetched      prometheus.Counter
	SwapEventsFetched prometheus.Counter
	FetchErrors       prometheus.Counter
	PaginationStalls  prometheus.Counter
	FetchTruncations  prometheus.Counter
	PageFetchLatency  prometheus.Histogram

	// Subgraph metrics
	SubgraphQueryDuration *prometheus.HistogramVec
	SubgraphQueryErrors   *prometheus.CounterVec
	RecordsDropped        *prometheus.CounterVec

	// Derivation metrics
	SeriesPointsProduced  prometheus.Counter
	ReconstructDuration   prometheus.Histogram
	HistogramTicksEmitted prometheus.Counter
	PrecisionFallbacks    prometheus.Counter

	// Health metrics
	LastSuccessfulFetch prometheus.Gauge
	LastSuccessfulRun   prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "poolscope"
	}

	return &Metrics{
		// Fetch metrics
		PagesFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "pages_fetched_total",
			Help:      "Total number of swap event pages fetched",
		}),
		SwapEventsFetched: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "swap_events_fetched_total",
			Help:      "Total number of swap events fetched",
		}),
		FetchErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "errors_total",
			Help:      "Total number of page fetch errors",
		}),
		PaginationStalls: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "pagination_stalls_total",
			Help:      "Total number of fetches terminated by the cursor stall guard",
		}),
		FetchTruncations: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "truncations_total",
			Help:      "Total number of fetches stopped at the page cap with data remaining",
		}),
		PageFetchLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "page_latency_seconds",
			Help:      "Single page fetch latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		// Subgraph metrics
		SubgraphQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "subgraph",
			Name:      "query_duration_seconds",
			Help:      "Subgraph query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"query"}),
		SubgraphQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subgraph",
			Name:      "query_errors_total",
			Help:      "Total number of subgraph query errors by query",
		}, []string{"query"}),
		RecordsDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "subgraph",
			Name:      "records_dropped_total",
			Help:      "Total number of malformed records dropped by entity type",
		}, []string{"entity"}),

		// Derivation metrics
		SeriesPointsProduced: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "derive",
			Name:      "series_points_produced_total",
			Help:      "Total number of daily time series points produced",
		}),
		ReconstructDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "derive",
			Name:      "reconstruct_duration_seconds",
			Help:      "State reconstruction duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		HistogramTicksEmitted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "derive",
			Name:      "histogram_ticks_emitted_total",
			Help:      "Total number of tick histogram nodes emitted",
		}),
		PrecisionFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "derive",
			Name:      "precision_fallbacks_total",
			Help:      "Total number of liquidity values parsed via the float fallback",
		}),

		// Health metrics
		LastSuccessfulFetch: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_fetch_timestamp",
			Help:      "Unix timestamp of the last completed fetch",
		}),
		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of the last completed derivation run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
