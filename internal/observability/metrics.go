package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "warnmap"

// Metrics holds the Prometheus counters, histograms, and gauges for the warning map service.
type Metrics struct {
	// Upstream poll metrics.
	PollsTotal      *prometheus.CounterVec // labels: outcome={success,error}
	PollDuration    prometheus.Histogram
	WarningsCurrent prometheus.Gauge
	PollerRunning   prometheus.Gauge

	// Exposure metrics.
	ExposuresFound prometheus.Counter
	Notifications  *prometheus.CounterVec // labels: sink={kafka,webhook}, outcome={success,error}

	// Query controller metrics.
	QueryResults *prometheus.CounterVec // labels: outcome={applied,discarded,error}

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
	GeocodeEnabled     prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsWithRegistry creates metrics registered with reg, for processes
// that do not expose the default registry.
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	m := newMetrics()
	reg.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, so
// tests can build as many as they like.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		PollsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upstream_polls_total",
			Help:      "Upstream warning feed polls by outcome.",
		}, []string{"outcome"}),
		PollDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upstream_poll_duration_seconds",
			Help:      "Duration of a complete poll, exposure and notify cycle.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		WarningsCurrent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "warnings_current",
			Help:      "Number of warnings in the catalog after the last successful poll.",
		}),
		PollerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "poller_running",
			Help:      "1 when the upstream poller is active, 0 when shut down.",
		}),
		ExposuresFound: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exposures_found_total",
			Help:      "New sensor exposures detected.",
		}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Exposure notifications by sink and outcome.",
		}, []string{"sink", "outcome"}),
		QueryResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "query_results_total",
			Help:      "Query controller fetch results by outcome.",
		}, []string{"outcome"}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_requests_total",
			Help:      "Reverse geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geocode_cache_total",
			Help:      "Reverse geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		GeocodeEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "geocode_enabled",
			Help:      "1 when sensor place-name geocoding is enabled, 0 otherwise.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.PollsTotal,
		m.PollDuration,
		m.WarningsCurrent,
		m.PollerRunning,
		m.ExposuresFound,
		m.Notifications,
		m.QueryResults,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
		m.GeocodeEnabled,
	}
}
