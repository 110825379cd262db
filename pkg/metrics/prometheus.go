package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Latency buckets in milliseconds.
var defaultBuckets = []float64{0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000} //nolint:gochecknoglobals // bucket layout

// Manager owns every metric of the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Sessions
	sessionsCreated       *prometheus.CounterVec
	sessionsCompleted     *prometheus.CounterVec
	sessionsDeleted       *prometheus.CounterVec
	activeSessions        prometheus.Gauge
	comparisonsPerSession *prometheus.HistogramVec

	// Decisions
	decisionsRecorded  *prometheus.CounterVec
	decisionsRejected  *prometheus.CounterVec
	decisionsDuplicate prometheus.Counter
	tieBreakRounds     *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueued      prometheus.Counter
	queueDequeued      prometheus.Counter
	queueEnqueueErrors prometheus.Counter

	// Workers
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter
	workerRetries           prometheus.Counter

	// Decision log
	decisionLogWriteLatency  prometheus.Histogram
	decisionLogWriteFailures prometheus.Counter

	// Scenario provider
	scenarioLatency prometheus.Histogram
	scenarioErrors  prometheus.Counter

	errorsByComponent *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	Init()
}

// Init replaces the global manager with one built from opts on a fresh
// registry. It must run before the registry is served.
func Init(opts ...Option) {
	customRegistry = prometheus.NewRegistry()
	globalManager = NewManager(append([]Option{WithPrometheusRegistry(customRegistry)}, opts...)...)
}

// NewManager creates a metrics manager and registers its metrics.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "values",
		subsystem:        "ranking",
		histogramBuckets: defaultBuckets,
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
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	})
}

func (m *Manager) histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, Buckets: buckets,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	b := m.histogramBuckets

	m.sessionsCreated = m.counterVec("sessions_created_total", "Sessions created by strategy and stage", "strategy", "stage")
	m.sessionsCompleted = m.counterVec("sessions_completed_total", "Sessions that ran out of comparisons", "strategy")
	m.sessionsDeleted = m.counterVec("sessions_deleted_total", "Sessions removed, by reason", "reason")
	m.activeSessions = m.gauge("active_sessions", "Sessions currently held in memory")
	m.comparisonsPerSession = m.histogramVec("comparisons_per_session", "Comparisons answered by completed sessions",
		prometheus.LinearBuckets(0, 25, 14), "strategy")

	m.decisionsRecorded = m.counterVec("decisions_recorded_total", "Decisions accepted by the engine", "strategy")
	m.decisionsRejected = m.counterVec("decisions_rejected_total", "Decisions rejected, by reason", "reason")
	m.decisionsDuplicate = m.counter("decisions_duplicate_total", "Retried decisions answered from the log")
	m.tieBreakRounds = m.counterVec("tie_break_rounds_total", "Tie-break rounds appended to merge schedules", "strategy")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method", "endpoint", "method", "status_code")
	m.httpRequestDuration = m.histogramVec("http_request_duration_milliseconds", "HTTP request duration in milliseconds",
		b, "endpoint", "method", "status_code")

	m.queueSize = m.gauge("queue_size", "Decision events waiting for persistence")
	m.queueCapacity = m.gauge("queue_capacity", "Capacity of the decision event queue")
	m.queueEnqueued = m.counter("queue_enqueued_total", "Decision events enqueued")
	m.queueDequeued = m.counter("queue_dequeued_total", "Decision events dequeued")
	m.queueEnqueueErrors = m.counter("queue_enqueue_errors_total", "Decision events dropped because the queue was full or closed")

	m.workerActiveCount = m.gauge("worker_active_count", "Persistence workers running")
	m.workerProcessingLatency = m.histogram("worker_processing_latency_milliseconds", "Time to persist one decision event", b)
	m.workerErrors = m.counter("worker_errors_total", "Decision events that could not be persisted")
	m.workerRetries = m.counter("worker_retries_total", "Decision log write retries")

	m.decisionLogWriteLatency = m.histogram("decision_log_write_latency_milliseconds", "Decision log write latency", b)
	m.decisionLogWriteFailures = m.counter("decision_log_write_failures_total", "Failed decision log writes")

	m.scenarioLatency = m.histogram("scenario_latency_milliseconds", "Scenario generation latency", b)
	m.scenarioErrors = m.counter("scenario_errors_total", "Scenario generation failures")

	m.errorsByComponent = m.counterVec("errors_total", "Errors by component and type", "component", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "Heap bytes allocated")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_milliseconds", "Average GC pause in milliseconds", b)
}

// Session metrics.

// RecordSessionCreated counts a new session.
func RecordSessionCreated(strategy, stage string) {
	globalManager.sessionsCreated.WithLabelValues(strategy, stage).Inc()
}

// RecordSessionCompleted counts a completed session and the comparisons it took.
func RecordSessionCompleted(strategy string, comparisons int) {
	globalManager.sessionsCompleted.WithLabelValues(strategy).Inc()
	globalManager.comparisonsPerSession.WithLabelValues(strategy).Observe(float64(comparisons))
}

// RecordSessionDeleted counts a removed session. reason is "deleted" or "expired".
func RecordSessionDeleted(reason string) {
	globalManager.sessionsDeleted.WithLabelValues(reason).Inc()
}

// UpdateActiveSessions sets the number of sessions in memory.
func UpdateActiveSessions(count int) {
	globalManager.activeSessions.Set(float64(count))
}

// Decision metrics.

// RecordDecision counts an accepted decision.
func RecordDecision(strategy string) {
	globalManager.decisionsRecorded.WithLabelValues(strategy).Inc()
}

// RecordDecisionRejected counts a rejected decision.
func RecordDecisionRejected(reason string) {
	globalManager.decisionsRejected.WithLabelValues(reason).Inc()
}

// RecordDecisionDuplicate counts a retried decision.
func RecordDecisionDuplicate() {
	globalManager.decisionsDuplicate.Inc()
}

// RecordTieBreakRound counts a tie-break round.
func RecordTieBreakRound(strategy string) {
	globalManager.tieBreakRounds.WithLabelValues(strategy).Inc()
}

// HTTP metrics.

// RecordHTTPRequest counts an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Queue metrics.

// UpdateQueueSize sets the current queue length.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue counts an enqueued event.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue counts a dequeued event.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// Worker metrics.

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records the time spent on one event.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError counts an event that was given up on.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordWorkerRetry counts a write retry.
func RecordWorkerRetry() {
	globalManager.workerRetries.Inc()
}

// Decision log metrics.

// RecordDecisionLogWrite records a write and whether it failed.
func RecordDecisionLogWrite(latencyMs float64, failed bool) {
	globalManager.decisionLogWriteLatency.Observe(latencyMs)
	if failed {
		globalManager.decisionLogWriteFailures.Inc()
	}
}

// Scenario metrics.

// RecordScenario records a generation and whether it failed.
func RecordScenario(latencyMs float64, failed bool) {
	globalManager.scenarioLatency.Observe(latencyMs)
	if failed {
		globalManager.scenarioErrors.Inc()
	}
}

// RecordErrorByComponent counts an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// System metrics.

// UpdateSystemMemoryUsage sets heap usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the registry the global metrics live on.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
