// Package metrics provides Prometheus metrics for the Vigil detection service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the Vigil service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Core Business Metrics - detection pipeline health
	reportsIngested  prometheus.Counter
	reportsRejected  *prometheus.CounterVec
	sessionsCreated  prometheus.Counter
	sessionsEnded    prometheus.Counter
	sessionsByStatus *prometheus.GaugeVec
	highRiskReports  prometheus.Counter

	// Alerting Metrics
	alertsEmitted *prometheus.CounterVec

	// Classifier Metrics
	predictLatency prometheus.Histogram
	trainedVariant prometheus.Gauge

	// Broadcast Metrics - push channel delivery
	broadcastEvents  *prometheus.CounterVec
	broadcastDropped *prometheus.CounterVec
	pushSubscribers  prometheus.Gauge

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Client-side Metrics - reporter loop health
	reportSendFailures prometheus.Counter
	reportSendLatency  prometheus.Histogram

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "vigil",
		subsystem:        "detection",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	// Apply all options
	for _, opt := range opts {
		opt(m)
	}

	// Initialize metrics
	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	// Ensure metrics are registered on the configured registry (custom by default)
	auto := promauto.With(m.registry)

	// Core Business Metrics
	m.reportsIngested = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reports_ingested_total",
		Help:      "Total number of detection reports successfully ingested",
	})

	m.reportsRejected = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "reports_rejected_total",
			Help:      "Total number of rejected detection reports by reason",
		},
		[]string{"reason"},
	)

	m.sessionsCreated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_created_total",
		Help:      "Total number of monitoring sessions created",
	})

	m.sessionsEnded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_ended_total",
		Help:      "Total number of monitoring sessions explicitly ended",
	})

	m.sessionsByStatus = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "sessions_by_status",
			Help:      "Current number of sessions per lifecycle status",
		},
		[]string{"status"},
	)

	m.highRiskReports = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "high_risk_reports_total",
		Help:      "Total number of reports whose fused score crossed the high-risk threshold",
	})

	// Alerting Metrics
	m.alertsEmitted = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "alerts_emitted_total",
			Help:      "Total number of alerts emitted by type and severity",
		},
		[]string{"type", "severity"},
	)

	// Classifier Metrics
	m.predictLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "predict_latency_milliseconds",
		Help:      "Histogram of classifier predict latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.trainedVariant = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "trained_variant_active",
		Help:      "1 when the trained ensemble variant is active, 0 for the rule-based fallback",
	})

	// Broadcast Metrics
	m.broadcastEvents = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "broadcast_events_total",
			Help:      "Total number of push events delivered by event type",
		},
		[]string{"event"},
	)

	m.broadcastDropped = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "broadcast_dropped_total",
			Help:      "Total number of push events dropped on slow subscribers by event type",
		},
		[]string{"event"},
	)

	m.pushSubscribers = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "push_subscribers",
		Help:      "Current number of push-channel subscribers",
	})

	// HTTP Performance Metrics
	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	// Client-side Metrics
	m.reportSendFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "report_send_failures_total",
		Help:      "Total number of report transmissions that failed or timed out",
	})

	m.reportSendLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "report_send_latency_milliseconds",
		Help:      "Report transmission latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	// System Performance Metrics
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})
}

// RecordReportIngested increments the ingested-report counter.
func RecordReportIngested() {
	globalManager.reportsIngested.Inc()
}

// RecordReportRejected increments the rejected-report counter for a reason.
func RecordReportRejected(reason string) {
	globalManager.reportsRejected.WithLabelValues(reason).Inc()
}

// RecordSessionCreated increments the sessions created counter.
func RecordSessionCreated() {
	globalManager.sessionsCreated.Inc()
}

// RecordSessionEnded increments the sessions ended counter.
func RecordSessionEnded() {
	globalManager.sessionsEnded.Inc()
}

// UpdateSessionsByStatus sets the session gauge for one lifecycle status.
func UpdateSessionsByStatus(status string, count int) {
	globalManager.sessionsByStatus.WithLabelValues(status).Set(float64(count))
}

// RecordHighRiskReport increments the high-risk report counter.
func RecordHighRiskReport() {
	globalManager.highRiskReports.Inc()
}

// RecordAlertEmitted increments the alert counter for a type/severity pair.
func RecordAlertEmitted(alertType, severity string) {
	globalManager.alertsEmitted.WithLabelValues(alertType, severity).Inc()
}

// RecordPredictLatency records classifier predict latency in milliseconds.
func RecordPredictLatency(latencyMs float64) {
	globalManager.predictLatency.Observe(latencyMs)
}

// UpdateTrainedVariantActive flags which classifier variant is live.
func UpdateTrainedVariantActive(active bool) {
	v := 0.0
	if active {
		v = 1.0
	}
	globalManager.trainedVariant.Set(v)
}

// RecordBroadcastEvent increments the delivered push-event counter.
func RecordBroadcastEvent(event string) {
	globalManager.broadcastEvents.WithLabelValues(event).Inc()
}

// RecordBroadcastDropped increments the dropped push-event counter.
func RecordBroadcastDropped(event string) {
	globalManager.broadcastDropped.WithLabelValues(event).Inc()
}

// UpdatePushSubscribers sets the current push subscriber gauge.
func UpdatePushSubscribers(count int) {
	globalManager.pushSubscribers.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordReportSendFailure increments the client-side send failure counter.
func RecordReportSendFailure() {
	globalManager.reportSendFailures.Inc()
}

// RecordReportSendLatency records one client-side transmission latency.
func RecordReportSendLatency(latencyMs float64) {
	globalManager.reportSendLatency.Observe(latencyMs)
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
