// Package metrics provides Prometheus metrics for the logbook service.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Verdict label values for classifier decisions.
const (
	VerdictCombatant = "combatant"
	VerdictRejected  = "rejected"
)

// Manager manages all Prometheus metrics for the logbook service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Pipeline Metrics - one observation per mission upload
	missionsProcessed prometheus.Counter
	missionsDuplicate prometheus.Counter
	missionsFailed    *prometheus.CounterVec
	processingLatency prometheus.Histogram
	pilotsRecorded    prometheus.Counter

	// Event Metrics - per-event outcomes
	eventsTotal        prometheus.Counter
	eventsSkipped      *prometheus.CounterVec
	classifierVerdicts *prometheus.CounterVec
	estimationDegraded prometheus.Counter

	// Collaborator Metrics
	ledgerSize     prometheus.Gauge
	profilesTotal  prometheus.Gauge
	consumerErrors *prometheus.CounterVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
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
		namespace:        "logbook",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
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
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.missionsProcessed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "missions_processed_total",
		Help:      "Total number of missions processed to completion",
	})

	m.missionsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "missions_duplicate_total",
		Help:      "Total number of missions rejected as already processed",
	})

	m.missionsFailed = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "missions_failed_total",
			Help:      "Total number of missions that failed by reason",
		},
		[]string{"reason"},
	)

	m.processingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "processing_latency_milliseconds",
		Help:      "Histogram of whole-pipeline latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.pilotsRecorded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "pilots_recorded_total",
		Help:      "Total number of finalized per-pilot mission records",
	})

	m.eventsTotal = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "events_total",
		Help:      "Total number of telemetry events read",
	})

	m.eventsSkipped = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "events_skipped_total",
			Help:      "Total number of events skipped by stage",
		},
		[]string{"stage"},
	)

	m.classifierVerdicts = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "classifier_verdicts_total",
			Help:      "Combatant classifier decisions by deciding rule and verdict",
		},
		[]string{"rule", "verdict"},
	)

	m.estimationDegraded = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "flight_time_degraded_total",
		Help:      "Total number of flight-time estimates that fell back to the mission duration",
	})

	m.ledgerSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "ledger_size",
		Help:      "Current number of mission fingerprints in the dedup ledger",
	})

	m.profilesTotal = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "profiles_total",
		Help:      "Total number of pilot career profiles",
	})

	m.consumerErrors = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "consumer_errors_total",
			Help:      "Total number of output consumer failures by consumer",
		},
		[]string{"consumer"},
	)

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
}

// RecordMissionProcessed increments the processed missions counter.
func RecordMissionProcessed() {
	globalManager.missionsProcessed.Inc()
}

// RecordMissionDuplicate increments the duplicate missions counter.
func RecordMissionDuplicate() {
	globalManager.missionsDuplicate.Inc()
}

// RecordMissionFailed increments the failed missions counter for reason.
func RecordMissionFailed(reason string) {
	globalManager.missionsFailed.WithLabelValues(reason).Inc()
}

// RecordProcessingLatency records pipeline latency in milliseconds.
func RecordProcessingLatency(latencyMs float64) {
	globalManager.processingLatency.Observe(latencyMs)
}

// RecordPilotsRecorded adds n finalized pilot records.
func RecordPilotsRecorded(n int) {
	globalManager.pilotsRecorded.Add(float64(n))
}

// RecordEvents adds n read events.
func RecordEvents(n int) {
	globalManager.eventsTotal.Add(float64(n))
}

// RecordEventSkipped increments the skipped events counter for stage.
func RecordEventSkipped(stage string) {
	globalManager.eventsSkipped.WithLabelValues(stage).Inc()
}

// RecordClassification records one classifier decision.
func RecordClassification(rule string, combatant bool) {
	verdict := VerdictRejected
	if combatant {
		verdict = VerdictCombatant
	}
	globalManager.classifierVerdicts.WithLabelValues(rule, verdict).Inc()
}

// RecordEstimationDegraded increments the degraded estimates counter.
func RecordEstimationDegraded() {
	globalManager.estimationDegraded.Inc()
}

// UpdateLedgerSize sets the current ledger size.
func UpdateLedgerSize(size int64) {
	globalManager.ledgerSize.Set(float64(size))
}

// UpdateProfilesTotal sets the total profiles count.
func UpdateProfilesTotal(count int) {
	globalManager.profilesTotal.Set(float64(count))
}

// RecordConsumerError increments the consumer errors counter.
func RecordConsumerError(consumer string) {
	globalManager.consumerErrors.WithLabelValues(consumer).Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method string, statusCode int) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, strconv.Itoa(statusCode)).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method string, statusCode int, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, strconv.Itoa(statusCode)).Observe(durationMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
