// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	gobreaker "github.com/sony/gobreaker/v2"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Feed metrics
	FeedFetchLatency *prometheus.HistogramVec
	FeedFetchErrors  *prometheus.CounterVec
	FeedItems        *prometheus.GaugeVec
	BreakerState     *prometheus.GaugeVec

	// Refresh metrics
	RefreshRunsTotal     *prometheus.CounterVec
	RefreshDuration      *prometheus.HistogramVec
	RecommendationsByWin *prometheus.CounterVec
	StopDecisions        *prometheus.CounterVec
	VariantsRecommended  prometheus.Counter

	// Tracker metrics
	TrackerCycles     *prometheus.CounterVec
	TrackedCandidates prometheus.Gauge
	Admissions        prometheus.Counter
	Evictions         *prometheus.CounterVec
	AlertsSent        *prometheus.CounterVec

	// Notification metrics
	NotificationErrors *prometheus.CounterVec

	// Database metrics
	DBQueryDuration *prometheus.HistogramVec
	DBQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRefresh prometheus.Gauge
	LastSuccessfulPoll    prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "trendbuild"
	}

	return &Metrics{
		// Feed metrics
		FeedFetchLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "fetch_latency_seconds",
			Help:      "Feed fetch latency in seconds by market",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"market"}),
		FeedFetchErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "fetch_errors_total",
			Help:      "Total number of failed feed fetches by market",
		}, []string{"market"}),
		FeedItems: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "items",
			Help:      "Number of records in the latest batch by market",
		}, []string{"market"}),
		BreakerState: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "feed",
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		}, []string{"name"}),

		// Refresh metrics
		RefreshRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "runs_total",
			Help:      "Total number of refresh runs by status",
		}, []string{"status"}),
		RefreshDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "phase_duration_seconds",
			Help:      "Refresh phase duration in seconds",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}, []string{"phase"}),
		RecommendationsByWin: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "recommendations_total",
			Help:      "Total number of recommendations by action window",
		}, []string{"window"}),
		StopDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "stop_decisions_total",
			Help:      "Total number of stop-building decisions by reason",
		}, []string{"reason"}),
		VariantsRecommended: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "refresh",
			Name:      "variants_recommended_total",
			Help:      "Total number of content variants recommended",
		}),

		// Tracker metrics
		TrackerCycles: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tracker",
			Name:      "cycles_total",
			Help:      "Total number of tracker poll cycles by status",
		}, []string{"status"}),
		TrackedCandidates: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "tracker",
			Name:      "candidates",
			Help:      "Number of candidates currently tracked",
		}),
		Admissions: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tracker",
			Name:      "admissions_total",
			Help:      "Total number of candidates admitted",
		}),
		Evictions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tracker",
			Name:      "evictions_total",
			Help:      "Total number of candidates evicted by reason",
		}, []string{"reason"}),
		AlertsSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "tracker",
			Name:      "alerts_total",
			Help:      "Total number of tracker alerts by priority",
		}, []string{"priority"}),

		// Notification metrics
		NotificationErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "errors_total",
			Help:      "Total number of failed notifications by sink",
		}, []string{"sink"}),

		// Database metrics
		DBQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_duration_seconds",
			Help:      "Database query duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"database", "operation"}),
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulRefresh: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_refresh_timestamp",
			Help:      "Unix timestamp of last successful refresh run",
		}),
		LastSuccessfulPoll: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_poll_timestamp",
			Help:      "Unix timestamp of last successful tracker cycle",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordFeedFetch records one market fetch.
func RecordFeedFetch(market string, d time.Duration, err error) {
	DefaultMetrics.FeedFetchLatency.WithLabelValues(market).Observe(d.Seconds())
	if err != nil {
		DefaultMetrics.FeedFetchErrors.WithLabelValues(market).Inc()
	}
}

// UpdateFeedItems sets the latest batch size for a market.
func UpdateFeedItems(market string, n int) {
	DefaultMetrics.FeedItems.WithLabelValues(market).Set(float64(n))
}

// RecordBreakerState tracks circuit breaker transitions.
func RecordBreakerState(name string, _, to gobreaker.State) {
	DefaultMetrics.BreakerState.WithLabelValues(name).Set(float64(to))
}

// RecordRefreshPhase records how long a refresh phase took.
func RecordRefreshPhase(phase string, d time.Duration) {
	DefaultMetrics.RefreshDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// RecordRefreshRun records a finished refresh run.
func RecordRefreshRun(status string) {
	DefaultMetrics.RefreshRunsTotal.WithLabelValues(status).Inc()
	if status == "success" {
		DefaultMetrics.LastSuccessfulRefresh.SetToCurrentTime()
	}
}

// RecordRecommendation records one identity's outcome.
func RecordRecommendation(window, stopReason string, variants int) {
	DefaultMetrics.RecommendationsByWin.WithLabelValues(window).Inc()
	DefaultMetrics.VariantsRecommended.Add(float64(variants))
	if stopReason != "" {
		DefaultMetrics.StopDecisions.WithLabelValues(stopReason).Inc()
	}
}

// RecordTrackerCycle records a finished tracker cycle.
func RecordTrackerCycle(status string, tracked int) {
	DefaultMetrics.TrackerCycles.WithLabelValues(status).Inc()
	if status == "success" {
		DefaultMetrics.TrackedCandidates.Set(float64(tracked))
		DefaultMetrics.LastSuccessfulPoll.SetToCurrentTime()
	}
}

// RecordAdmissions adds n admitted candidates.
func RecordAdmissions(n int) {
	DefaultMetrics.Admissions.Add(float64(n))
}

// RecordEviction records one eviction.
func RecordEviction(reason string) {
	DefaultMetrics.Evictions.WithLabelValues(reason).Inc()
}

// RecordAlert records one alert.
func RecordAlert(priority string) {
	DefaultMetrics.AlertsSent.WithLabelValues(priority).Inc()
}

// RecordNotificationError records a failed notification.
func RecordNotificationError(sink string) {
	DefaultMetrics.NotificationErrors.WithLabelValues(sink).Inc()
}

// RecordDBQuery records database query metrics.
func RecordDBQuery(database, operation string, seconds float64, err error) {
	DefaultMetrics.DBQueryDuration.WithLabelValues(database, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
	}
}
