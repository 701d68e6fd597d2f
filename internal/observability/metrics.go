package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "disaster_feed"

// Metrics holds the Prometheus counters, histograms, and gauges for the feed reconciler.
type Metrics struct {
	Passes        *prometheus.CounterVec // labels: outcome={success,fetch_error,parse_error,store_error}
	PassesSkipped prometheus.Counter
	PassDuration  prometheus.Histogram
	FeedItems     prometheus.Histogram

	// Feed fetch metrics.
	FetchDuration prometheus.Histogram
	FetchRequests *prometheus.CounterVec // labels: outcome={success,error}

	// Record transitions.
	RecordsNew          prometheus.Counter
	RecordsUpdated      prometheus.Counter
	RecordsPast         prometheus.Counter
	RecordsReclassified prometheus.Counter
	PersistErrors       prometheus.Counter

	// Notification metrics.
	Notifications           *prometheus.CounterVec // labels: channel={push,email}, outcome={success,error}
	NotificationsSuppressed prometheus.Counter
	NotificationsPending    prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		Passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "passes_total",
			Help:      "Reconciliation passes by outcome.",
		}, []string{"outcome"}),
		PassesSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "passes_skipped_total",
			Help:      "Triggers dropped because a pass was already running.",
		}),
		PassDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Duration of a complete fetch-normalize-reconcile pass.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		FeedItems: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "feed_items",
			Help:      "Number of items in each fetched feed.",
			Buckets:   []float64{0, 10, 25, 50, 75, 100, 150, 200, 300},
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Feed HTTP request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_requests_total",
			Help:      "Feed HTTP requests by outcome.",
		}, []string{"outcome"}),
		RecordsNew: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_new_total",
			Help:      "Disaster records inserted.",
		}),
		RecordsUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_updated_total",
			Help:      "Disaster records updated after a field change.",
		}),
		RecordsPast: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_past_total",
			Help:      "Disaster records moved to past after leaving the feed.",
		}),
		RecordsReclassified: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_reclassified_total",
			Help:      "Disaster records moved from real-time to ongoing by age.",
		}),
		PersistErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_errors_total",
			Help:      "Per-record store failures skipped during a pass.",
		}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Notification deliveries by channel and outcome.",
		}, []string{"channel", "outcome"}),
		NotificationsSuppressed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_suppressed_total",
			Help:      "Records not notified because their pass exceeded the per-pass limit.",
		}),
		NotificationsPending: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "notifications_pending",
			Help:      "Notifications scheduled but not yet delivered.",
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Passes,
		m.PassesSkipped,
		m.PassDuration,
		m.FeedItems,
		m.FetchDuration,
		m.FetchRequests,
		m.RecordsNew,
		m.RecordsUpdated,
		m.RecordsPast,
		m.RecordsReclassified,
		m.PersistErrors,
		m.Notifications,
		m.NotificationsSuppressed,
		m.NotificationsPending,
	}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics registered with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	m := newMetrics()
	prometheus.NewRegistry().MustRegister(m.collectors()...)
	return m
}
