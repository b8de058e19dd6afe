// Package metrics provides Prometheus metrics for the PHQ-9 analyzer service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every collector exposed by the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Assessment outcomes
	assessments      *prometheus.CounterVec
	assessmentMisses prometheus.Counter
	ambiguousMatches prometheus.Counter
	totalScore       prometheus.Histogram
	phraseFallbacks  *prometheus.CounterVec
	unrecognized     prometheus.Counter

	// Upstream sheet
	sheetFetchLatency prometheus.Histogram
	sheetFetchErrors  *prometheus.CounterVec
	sheetRows         prometheus.Gauge
	sheetBytes        prometheus.Gauge

	// Phrase bank
	phraseBankConditions prometheus.Gauge
	phraseBankPhrases    prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	rateLimited         *prometheus.CounterVec

	// Errors
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec
	errorLatency        *prometheus.HistogramVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "phq9",
		subsystem:        "analyzer",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) initializeMetrics() { //nolint:funlen // flat list of collectors
	auto := promauto.With(m.registry)

	m.assessments = auto.NewCounterVec(
		m.counterOpts("assessments_total", "Completed assessments by severity level"),
		[]string{"severity"},
	)
	m.assessmentMisses = auto.NewCounter(m.counterOpts("assessment_not_found_total", "Assessments where no row matched the respondent"))
	m.ambiguousMatches = auto.NewCounter(m.counterOpts("assessment_ambiguous_total", "Assessments rejected because several rows matched"))
	m.totalScore = auto.NewHistogram(m.histogramOpts(
		"total_score", "Distribution of PHQ-9 total scores",
		[]float64{4, 9, 14, 19, 27},
	))
	m.phraseFallbacks = auto.NewCounterVec(
		m.counterOpts("phrase_fallbacks_total", "Commentary draws that fell back because the pool was exhausted"),
		[]string{"condition"},
	)

	m.unrecognized = auto.NewCounter(m.counterOpts("unrecognized_answers_total", "Non-blank answers outside the four phrases, scored as zero"))

	m.sheetFetchLatency = auto.NewHistogram(m.histogramOpts(
		"sheet_fetch_latency_milliseconds", "Latency of fetching and parsing the response sheet",
		m.histogramBuckets,
	))
	m.sheetFetchErrors = auto.NewCounterVec(
		m.counterOpts("sheet_fetch_errors_total", "Sheet fetch failures by kind"),
		[]string{"kind"},
	)
	m.sheetRows = auto.NewGauge(m.gaugeOpts("sheet_rows", "Data rows in the most recently fetched sheet"))
	m.sheetBytes = auto.NewGauge(m.gaugeOpts("sheet_bytes", "Size in bytes of the most recently fetched sheet"))

	m.phraseBankConditions = auto.NewGauge(m.gaugeOpts("phrase_bank_conditions", "Conditions present in the loaded phrase bank"))
	m.phraseBankPhrases = auto.NewGauge(m.gaugeOpts("phrase_bank_phrases", "Phrases present in the loaded phrase bank"))

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"},
	)
	m.rateLimited = auto.NewCounterVec(
		m.counterOpts("rate_limited_total", "Requests rejected by the rate limiter"),
		[]string{"endpoint"},
	)

	m.errorRateByType = auto.NewCounterVec(
		m.counterOpts("errors_by_type_total", "Total number of errors by type"),
		[]string{"error_type", "severity"},
	)
	m.errorRateByEndpoint = auto.NewCounterVec(
		m.counterOpts("errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"},
	)
	m.errorLatency = auto.NewHistogramVec(
		m.histogramOpts("error_latency_milliseconds", "Latency of operations that resulted in errors", m.histogramBuckets),
		[]string{"component", "error_type"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	))
}

// RecordAssessment counts a completed assessment and observes its score.
func RecordAssessment(severity string, score int) {
	globalManager.assessments.WithLabelValues(severity).Inc()
	globalManager.totalScore.Observe(float64(score))
}

// RecordAssessmentNotFound counts a lookup that matched no row.
func RecordAssessmentNotFound() {
	globalManager.assessmentMisses.Inc()
}

// RecordAmbiguousMatch counts a lookup rejected for matching several rows.
func RecordAmbiguousMatch() {
	globalManager.ambiguousMatches.Inc()
}

// RecordPhraseFallback counts a commentary draw that used the fallback text.
func RecordPhraseFallback(condition string) {
	globalManager.phraseFallbacks.WithLabelValues(condition).Inc()
}

// RecordUnrecognizedAnswers counts answers that fell back to weight zero.
func RecordUnrecognizedAnswers(n int) {
	globalManager.unrecognized.Add(float64(n))
}

// RecordSheetFetch observes a successful sheet fetch.
func RecordSheetFetch(latencyMs float64, rows int) {
	globalManager.sheetFetchLatency.Observe(latencyMs)
	globalManager.sheetRows.Set(float64(rows))
}

// UpdateSheetBytes sets the size of the last fetched sheet body.
func UpdateSheetBytes(n int) {
	globalManager.sheetBytes.Set(float64(n))
}

// RecordSheetFetchError counts a failed fetch; kind is "fetch", "timeout" or "parse".
func RecordSheetFetchError(kind string) {
	globalManager.sheetFetchErrors.WithLabelValues(kind).Inc()
}

// UpdatePhraseBank publishes the size of the loaded phrase bank.
func UpdatePhraseBank(conditions, phrases int) {
	globalManager.phraseBankConditions.Set(float64(conditions))
	globalManager.phraseBankPhrases.Set(float64(phrases))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordRateLimited counts a request rejected by the limiter.
func RecordRateLimited(endpoint string) {
	globalManager.rateLimited.WithLabelValues(endpoint).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
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

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
