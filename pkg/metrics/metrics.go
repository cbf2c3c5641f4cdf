// Package metrics defines the Prometheus collectors used by the content store
// and the activity service, and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors. A nil *Metrics is valid and
// records nothing, so components can be built without instrumentation.
type Metrics struct {
	StoreOpsTotal          *prometheus.CounterVec
	StoreOpDuration        *prometheus.HistogramVec
	StoreRecords           *prometheus.GaugeVec
	UndoDepth              prometheus.Gauge
	NotificationsQueued    prometheus.Gauge
	PersistWritesTotal     *prometheus.CounterVec
	RankCacheHitsTotal     prometheus.Counter
	RankCacheMissesTotal   prometheus.Counter
	ActivityPublishedTotal *prometheus.CounterVec
	ActivityDroppedTotal   prometheus.Counter
	ActivityConsumedTotal  *prometheus.CounterVec
	HTTPRequestsTotal      *prometheus.CounterVec
	HTTPRequestDuration    *prometheus.HistogramVec
	HTTPRequestsInFlight   prometheus.Gauge
	CircuitBreakerState    *prometheus.GaugeVec
}

// New creates all collectors and registers them with the default registry.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates all collectors and registers them with reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		StoreOpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "store_operations_total",
				Help: "Store operations by name and outcome (ok, not_found, not_owner, ...).",
			},
			[]string{"op", "outcome"},
		),
		StoreOpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "store_operation_duration_seconds",
				Help:    "Store operation latency in seconds, persistence included.",
				Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"op"},
		),
		StoreRecords: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "store_records",
				Help: "Live records per collection.",
			},
			[]string{"collection"},
		),
		UndoDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "store_undo_depth",
				Help: "Deleted posts waiting on the undo stack.",
			},
		),
		NotificationsQueued: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "store_notifications_queued",
				Help: "Notifications held in the queue.",
			},
		),
		PersistWritesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "persistence_writes_total",
				Help: "Snapshot writes by status (ok, error).",
			},
			[]string{"status"},
		),
		RankCacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rank_cache_hits_total",
				Help: "Top-K ranking results served from Redis.",
			},
		),
		RankCacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "rank_cache_misses_total",
				Help: "Top-K ranking results rebuilt from the store.",
			},
		),
		ActivityPublishedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "activity_events_published_total",
				Help: "Activity events written to Kafka by status.",
			},
			[]string{"status"},
		),
		ActivityDroppedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "activity_events_dropped_total",
				Help: "Activity events dropped because the buffer was full.",
			},
		),
		ActivityConsumedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "activity_events_consumed_total",
				Help: "Activity events consumed by type.",
			},
			[]string{"type"},
		),
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open).",
			},
			[]string{"name"},
		),
	}

	reg.MustRegister(
		m.StoreOpsTotal,
		m.StoreOpDuration,
		m.StoreRecords,
		m.UndoDepth,
		m.NotificationsQueued,
		m.PersistWritesTotal,
		m.RankCacheHitsTotal,
		m.RankCacheMissesTotal,
		m.ActivityPublishedTotal,
		m.ActivityDroppedTotal,
		m.ActivityConsumedTotal,
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.CircuitBreakerState,
	)

	return m
}

// ObserveOp records one store operation.
func (m *Metrics) ObserveOp(op, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.StoreOpsTotal.WithLabelValues(op, outcome).Inc()
	m.StoreOpDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// SetSizes publishes collection and side-structure sizes.
func (m *Metrics) SetSizes(users, posts, comments, likes, undo, notifications int) {
	if m == nil {
		return
	}
	m.StoreRecords.WithLabelValues("users").Set(float64(users))
	m.StoreRecords.WithLabelValues("posts").Set(float64(posts))
	m.StoreRecords.WithLabelValues("comments").Set(float64(comments))
	m.StoreRecords.WithLabelValues("likes").Set(float64(likes))
	m.UndoDepth.Set(float64(undo))
	m.NotificationsQueued.Set(float64(notifications))
}

func (m *Metrics) PersistWrite(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.PersistWritesTotal.WithLabelValues("error").Inc()
		return
	}
	m.PersistWritesTotal.WithLabelValues("ok").Inc()
}

func (m *Metrics) RankCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.RankCacheHitsTotal.Inc()
		return
	}
	m.RankCacheMissesTotal.Inc()
}

func (m *Metrics) ActivityPublished(n int, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.ActivityPublishedTotal.WithLabelValues(status).Add(float64(n))
}

func (m *Metrics) ActivityDropped() {
	if m == nil {
		return
	}
	m.ActivityDroppedTotal.Inc()
}

func (m *Metrics) ActivityConsumed(eventType string) {
	if m == nil {
		return
	}
	m.ActivityConsumedTotal.WithLabelValues(eventType).Inc()
}

// BreakerState exports a circuit breaker state as a gauge value.
func (m *Metrics) BreakerState(name string, state int) {
	if m == nil {
		return
	}
	m.CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// Handler returns the Prometheus scrape HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
