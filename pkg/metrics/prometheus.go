// Package metrics provides Prometheus metrics for the child health dashboard.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// percentBuckets covers the 0-100 range of probability and confidence.
var percentBuckets = []float64{5, 10, 20, 30, 40, 50, 60, 70, 80, 90, 95, 98} //nolint:gochecknoglobals // fixed bucket layout

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Assessment metrics
	assessmentsTotal   *prometheus.CounterVec
	probability        prometheus.Histogram
	confidence         prometheus.Histogram
	evaluationLatency  prometheus.Histogram
	validationFailures prometheus.Counter
	duplicateIDs       prometheus.Counter

	// Aggregation and export metrics
	summarizeDuration prometheus.Histogram
	exportsTotal      *prometheus.CounterVec

	// Store metrics
	storeRecords      prometheus.Gauge
	storeWriteLatency prometheus.Histogram
	storeWriteErrors  prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "childhealth",
		subsystem:        "dashboard",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels, Buckets: buckets}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.assessmentsTotal = auto.NewCounterVec(
		m.counterOpts("assessments_total", "Total number of risk assessments by category"),
		[]string{"category"},
	)
	m.probability = auto.NewHistogram(m.histogramOpts("probability_percent", "Distribution of assessment probability", percentBuckets))
	m.confidence = auto.NewHistogram(m.histogramOpts("confidence_percent", "Distribution of assessment confidence", percentBuckets))
	m.evaluationLatency = auto.NewHistogram(m.histogramOpts(
		"evaluation_latency_milliseconds", "Evaluation latency in milliseconds, including simulated inference delay",
		[]float64{1, 5, 10, 50, 100, 250, 500, 1000, 1500, 2000, 5000},
	))
	m.validationFailures = auto.NewCounter(m.counterOpts("validation_failures_total", "Survey inputs rejected by strict range validation"))
	m.duplicateIDs = auto.NewCounter(m.counterOpts("duplicate_ids_total", "Assessments rejected because their ID was already stored"))

	m.summarizeDuration = auto.NewHistogram(m.histogramOpts("summarize_duration_milliseconds", "Time to rebuild the aggregate view", m.histogramBuckets))
	m.exportsTotal = auto.NewCounterVec(
		m.counterOpts("exports_total", "Export requests by format and outcome"),
		[]string{"format", "outcome"},
	)

	m.storeRecords = auto.NewGauge(m.gaugeOpts("store_records", "Number of assessments held by the record store"))
	m.storeWriteLatency = auto.NewHistogram(m.histogramOpts("store_write_latency_milliseconds", "Latency of full record store rewrites", m.histogramBuckets))
	m.storeWriteErrors = auto.NewCounter(m.counterOpts("store_write_errors_total", "Failed record store writes"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Errors by endpoint, method and error type"),
		[]string{"endpoint", "method", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
}

// RecordAssessment records one stored assessment.
func RecordAssessment(category string, probability, confidence float64) {
	globalManager.assessmentsTotal.WithLabelValues(category).Inc()
	globalManager.probability.Observe(probability)
	globalManager.confidence.Observe(confidence)
}

// RecordEvaluationLatency records evaluation latency in milliseconds.
func RecordEvaluationLatency(latencyMs float64) {
	globalManager.evaluationLatency.Observe(latencyMs)
}

// RecordValidationFailure increments the strict validation failure counter.
func RecordValidationFailure() {
	globalManager.validationFailures.Inc()
}

// RecordDuplicateID increments the duplicate ID counter.
func RecordDuplicateID() {
	globalManager.duplicateIDs.Inc()
}

// RecordSummarizeDuration records how long an aggregate rebuild took.
func RecordSummarizeDuration(durationMs float64) {
	globalManager.summarizeDuration.Observe(durationMs)
}

// RecordExport records an export attempt.
func RecordExport(format, outcome string) {
	globalManager.exportsTotal.WithLabelValues(format, outcome).Inc()
}

// UpdateStoreRecords sets the number of stored assessments.
func UpdateStoreRecords(count int) {
	globalManager.storeRecords.Set(float64(count))
}

// RecordStoreWriteLatency records a record store write in milliseconds.
func RecordStoreWriteLatency(latencyMs float64) {
	globalManager.storeWriteLatency.Observe(latencyMs)
}

// RecordStoreWriteError increments the store write error counter.
func RecordStoreWriteError() {
	globalManager.storeWriteErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
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
