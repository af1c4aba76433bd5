// Package metrics provides Prometheus metrics for the cragrank ranking service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Latency buckets in milliseconds. A full category recompute is expected to
// stay well under a millisecond for realistic competition sizes.
var defaultLatencyBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100} //nolint:gochecknoglobals // bucket layout

// Manager owns every collector exported by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	constLabels      map[string]string
	registry         prometheus.Registerer

	// Submissions
	resultsReceived  prometheus.Counter
	resultsDuplicate prometheus.Counter
	resultsRejected  *prometheus.CounterVec
	resultsApplied   prometheus.Counter

	// Ranking engine
	recomputeLatency  *prometheus.HistogramVec
	rankingsComputed  *prometheus.CounterVec
	podiumTieBreaks   prometheus.Counter
	diffEntries       *prometheus.CounterVec
	unsupportedRounds prometheus.Counter

	// Store
	storeSnapshots prometheus.Counter
	storeRounds    prometheus.Gauge
	storeClimbers  prometheus.Gauge

	// Queue and workers
	queueSize        prometheus.Gauge
	queueCapacity    prometheus.Gauge
	queueEnqueued    prometheus.Counter
	queueRejected    *prometheus.CounterVec
	workerCount      prometheus.Gauge
	workerLatency    prometheus.Histogram
	workerErrors     prometheus.Counter
	wsClients        prometheus.Gauge
	wsMessages       prometheus.Counter
	wsDroppedClients prometheus.Counter

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec

	// Process
	systemMemory     prometheus.Gauge
	systemGoroutines prometheus.Gauge
	systemGCPause    prometheus.Gauge
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "cragrank",
		subsystem:        "ranking",
		histogramBuckets: defaultLatencyBuckets,
		enabled:          true,
		constLabels:      map[string]string{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	})
}

func (m *Manager) histogramVec(name, help string, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	m.resultsReceived = m.counter("results_received_total", "Result submissions accepted for processing")
	m.resultsDuplicate = m.counter("results_duplicate_total", "Result submissions dropped as replays")
	m.resultsRejected = m.counterVec("results_rejected_total", "Result submissions rejected by recording rules", "reason")
	m.resultsApplied = m.counter("results_applied_total", "Result mutations applied to the store")

	m.recomputeLatency = m.histogramVec("recompute_latency_milliseconds", "Ranking recompute latency by scope", "scope")
	m.rankingsComputed = m.counterVec("rankings_computed_total", "Group rankings computed by discipline", "discipline")
	m.podiumTieBreaks = m.counter("podium_tiebreaks_total", "Podium clusters separated by the per-try histogram")
	m.diffEntries = m.counterVec("diff_entries_total", "Ranking diff records published by kind", "kind")
	m.unsupportedRounds = m.counter("unsupported_discipline_total", "Rankings refused for an unknown discipline tag")

	m.storeSnapshots = m.counter("store_snapshots_total", "Ranking snapshots swapped into the store")
	m.storeRounds = m.gauge("store_rounds", "Rounds loaded in the store")
	m.storeClimbers = m.gauge("store_climbers", "Distinct climbers loaded in the store")

	m.queueSize = m.gauge("queue_size", "Submissions waiting in the queue")
	m.queueCapacity = m.gauge("queue_capacity", "Queue capacity")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Submissions enqueued")
	m.queueRejected = m.counterVec("queue_rejected_total", "Submissions refused by the queue", "reason")
	m.workerCount = m.gauge("worker_count", "Active recompute workers")
	m.workerLatency = m.histogram("worker_processing_latency_milliseconds", "End to end processing latency of one submission")
	m.workerErrors = m.counter("worker_errors_total", "Submissions that failed inside a worker")
	m.wsClients = m.gauge("ws_clients", "Connected websocket clients")
	m.wsMessages = m.counter("ws_messages_total", "Ranking updates fanned out to websocket rooms")
	m.wsDroppedClients = m.counter("ws_dropped_clients_total", "Websocket clients dropped for a full send buffer")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint, method and status", "endpoint", "method", "status")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request latency", "endpoint", "method", "status")

	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "type")

	m.systemMemory = m.gauge("system_memory_bytes", "Heap bytes allocated")
	m.systemGoroutines = m.gauge("system_goroutines", "Live goroutines")
	m.systemGCPause = m.gauge("system_gc_pause_milliseconds", "Average GC pause")
}

func on() bool { return globalManager != nil && globalManager.enabled }

// RecordResultReceived counts an accepted submission.
func RecordResultReceived() {
	if on() {
		globalManager.resultsReceived.Inc()
	}
}

// RecordResultDuplicate counts a replayed submission.
func RecordResultDuplicate() {
	if on() {
		globalManager.resultsDuplicate.Inc()
	}
}

// RecordResultRejected counts a submission refused by a recording rule.
func RecordResultRejected(reason string) {
	if on() {
		globalManager.resultsRejected.WithLabelValues(reason).Inc()
	}
}

// RecordResultApplied counts a stored result mutation.
func RecordResultApplied() {
	if on() {
		globalManager.resultsApplied.Inc()
	}
}

// RecordRecomputeLatency observes one recompute; scope is group, round or category.
func RecordRecomputeLatency(scope string, latencyMs float64) {
	if on() {
		globalManager.recomputeLatency.WithLabelValues(scope).Observe(latencyMs)
	}
}

// RecordRankingComputed counts a group ranking by discipline.
func RecordRankingComputed(discipline string) {
	if on() {
		globalManager.rankingsComputed.WithLabelValues(discipline).Inc()
	}
}

// RecordPodiumTieBreaks adds separated podium clusters.
func RecordPodiumTieBreaks(n int) {
	if on() && n > 0 {
		globalManager.podiumTieBreaks.Add(float64(n))
	}
}

// RecordDiffEntry counts a published diff record; kind is added, removed or delta.
func RecordDiffEntry(kind string) {
	if on() {
		globalManager.diffEntries.WithLabelValues(kind).Inc()
	}
}

// RecordUnsupportedDiscipline counts an invalid-state fault.
func RecordUnsupportedDiscipline() {
	if on() {
		globalManager.unsupportedRounds.Inc()
	}
}

// RecordStoreSnapshot counts a snapshot swap.
func RecordStoreSnapshot() {
	if on() {
		globalManager.storeSnapshots.Inc()
	}
}

// UpdateStoreSize sets the loaded round and climber gauges.
func UpdateStoreSize(rounds, climbers int) {
	if on() {
		globalManager.storeRounds.Set(float64(rounds))
		globalManager.storeClimbers.Set(float64(climbers))
	}
}

// UpdateQueueSize sets the queue depth.
func UpdateQueueSize(size int) {
	if on() {
		globalManager.queueSize.Set(float64(size))
	}
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	if on() {
		globalManager.queueCapacity.Set(float64(capacity))
	}
}

// RecordQueueEnqueue counts an enqueued submission.
func RecordQueueEnqueue() {
	if on() {
		globalManager.queueEnqueued.Inc()
	}
}

// RecordQueueRejected counts a submission the queue refused.
func RecordQueueRejected(reason string) {
	if on() {
		globalManager.queueRejected.WithLabelValues(reason).Inc()
	}
}

// UpdateWorkerCount sets the number of running workers.
func UpdateWorkerCount(count int) {
	if on() {
		globalManager.workerCount.Set(float64(count))
	}
}

// RecordWorkerProcessingLatency observes one submission.
func RecordWorkerProcessingLatency(latencyMs float64) {
	if on() {
		globalManager.workerLatency.Observe(latencyMs)
	}
}

// RecordWorkerError counts a failed submission.
func RecordWorkerError() {
	if on() {
		globalManager.workerErrors.Inc()
	}
}

// UpdateWSClients sets the connected websocket client gauge.
func UpdateWSClients(count int) {
	if on() {
		globalManager.wsClients.Set(float64(count))
	}
}

// RecordWSMessage counts a published ranking update.
func RecordWSMessage() {
	if on() {
		globalManager.wsMessages.Inc()
	}
}

// RecordWSDroppedClient counts a slow client disconnect.
func RecordWSDroppedClient() {
	if on() {
		globalManager.wsDroppedClients.Inc()
	}
}

// RecordHTTPRequest counts a request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if on() {
		globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration observes request latency.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	if on() {
		globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
	}
}

// RecordErrorByComponent counts an error.
func RecordErrorByComponent(component, errorType string) {
	if on() {
		globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
	}
}

// UpdateSystemMemoryUsage sets the allocated heap gauge.
func UpdateSystemMemoryUsage(bytes uint64) {
	if on() {
		globalManager.systemMemory.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the goroutine gauge.
func UpdateSystemGoroutineCount(count int) {
	if on() {
		globalManager.systemGoroutines.Set(float64(count))
	}
}

// RecordSystemGCPauseTime sets the average GC pause gauge.
func RecordSystemGCPauseTime(pauseMs float64) {
	if on() {
		globalManager.systemGCPause.Set(pauseMs)
	}
}

// GetRegistry returns the registry all global collectors live on.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
