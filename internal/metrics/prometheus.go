package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the call compliance service
type Metrics struct {
	// Analysis pipeline metrics
	AnalysesStarted   prometheus.Counter
	AnalysesCompleted prometheus.Counter
	AnalysesFailed    prometheus.Counter
	AnalysisDuration  prometheus.Histogram
	ViolationsFound   prometheus.Histogram

	// Acoustic analysis metrics
	AcousticSegments  prometheus.Histogram
	AcousticFallbacks prometheus.Counter

	// Transcription metrics
	TranscriptionRequests  prometheus.Counter
	TranscriptionSuccesses prometheus.Counter
	TranscriptionFailures  prometheus.Counter
	TranscriptionDuration  prometheus.Histogram

	// Policy index and retrieval metrics
	IndexState        prometheus.Gauge
	IndexBuildSeconds prometheus.Histogram
	ClausesRetrieved  prometheus.Histogram

	// Reasoning metrics
	ReasoningAttempts  *prometheus.CounterVec
	ReasoningFallbacks prometheus.Counter
	ReasoningDuration  prometheus.Histogram

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		// Analysis pipeline metrics
		AnalysesStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vigilant_analyses_started_total",
			Help: "Total number of call analyses started",
		}),
		AnalysesCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vigilant_analyses_completed_total",
			Help: "Total number of call analyses completed",
		}),
		AnalysesFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vigilant_analyses_failed_total",
			Help: "Total number of call analyses that failed",
		}),
		AnalysisDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vigilant_analysis_duration_seconds",
			Help:    "End-to-end duration of call analyses",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1s to ~17 minutes
		}),
		ViolationsFound: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vigilant_violations_per_call",
			Help:    "Number of policy violations found per call",
			Buckets: prometheus.LinearBuckets(0, 1, 11), // 0 to 10
		}),

		// Acoustic analysis metrics
		AcousticSegments: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vigilant_acoustic_segments_per_call",
			Help:    "Number of acoustic segments produced per call",
			Buckets: prometheus.ExponentialBuckets(1, 2, 8), // 1 to 128
		}),
		AcousticFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vigilant_acoustic_fallbacks_total",
			Help: "Total number of calls where acoustic analysis fell back to defaults",
		}),

		// Transcription metrics
		TranscriptionRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vigilant_transcription_requests_total",
			Help: "Total number of transcription requests sent",
		}),
		TranscriptionSuccesses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vigilant_transcription_successes_total",
			Help: "Total number of successful transcription requests",
		}),
		TranscriptionFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vigilant_transcription_failures_total",
			Help: "Total number of failed transcription requests",
		}),
		TranscriptionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vigilant_transcription_duration_seconds",
			Help:    "Duration of transcription requests",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~2 minutes
		}),

		// Policy index and retrieval metrics
		IndexState: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "vigilant_policy_index_state",
			Help: "Current policy index lifecycle state (0=absent 1=loading 2=valid_cache 3=stale_cache 4=building 5=ready 6=failed)",
		}),
		IndexBuildSeconds: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vigilant_policy_index_build_duration_seconds",
			Help:    "Duration of policy index builds",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s to ~8 minutes
		}),
		ClausesRetrieved: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vigilant_clauses_retrieved_per_call",
			Help:    "Number of policy clauses sent to the reasoner per call",
			Buckets: prometheus.LinearBuckets(0, 5, 11), // 0 to 50
		}),

		// Reasoning metrics
		ReasoningAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vigilant_reasoning_attempts_total",
			Help: "Total number of reasoning attempts by model and outcome",
		}, []string{"model", "outcome"}),
		ReasoningFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vigilant_reasoning_fallbacks_total",
			Help: "Total number of calls answered with the neutral fallback judgment",
		}),
		ReasoningDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vigilant_reasoning_duration_seconds",
			Help:    "Duration of the reasoning step including fallback attempts",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 0.5s to ~8 minutes
		}),

		// HTTP API metrics
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vigilant_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vigilant_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vigilant_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordAnalysisStarted increments the analyses started counter
func (m *Metrics) RecordAnalysisStarted() {
	m.AnalysesStarted.Inc()
}

// RecordAnalysisCompleted records a finished analysis with its duration and
// violation count
func (m *Metrics) RecordAnalysisCompleted(durationSeconds float64, violations int) {
	m.AnalysesCompleted.Inc()
	m.AnalysisDuration.Observe(durationSeconds)
	m.ViolationsFound.Observe(float64(violations))
}

// RecordAnalysisFailed increments the analyses failed counter
func (m *Metrics) RecordAnalysisFailed() {
	m.AnalysesFailed.Inc()
}

// RecordAcousticSegments records the per-call segment count
func (m *Metrics) RecordAcousticSegments(count int) {
	m.AcousticSegments.Observe(float64(count))
}

// RecordAcousticFallback increments the acoustic fallback counter
func (m *Metrics) RecordAcousticFallback() {
	m.AcousticFallbacks.Inc()
}

// RecordTranscriptionRequest increments transcription requests counter
func (m *Metrics) RecordTranscriptionRequest() {
	m.TranscriptionRequests.Inc()
}

// RecordTranscriptionSuccess records a successful transcription
func (m *Metrics) RecordTranscriptionSuccess(durationSeconds float64) {
	m.TranscriptionSuccesses.Inc()
	m.TranscriptionDuration.Observe(durationSeconds)
}

// RecordTranscriptionFailure records a failed transcription
func (m *Metrics) RecordTranscriptionFailure(durationSeconds float64) {
	m.TranscriptionFailures.Inc()
	m.TranscriptionDuration.Observe(durationSeconds)
}

// SetIndexState sets the current policy index lifecycle state
func (m *Metrics) SetIndexState(state int) {
	m.IndexState.Set(float64(state))
}

// RecordIndexBuild records the duration of a policy index build
func (m *Metrics) RecordIndexBuild(durationSeconds float64) {
	m.IndexBuildSeconds.Observe(durationSeconds)
}

// RecordClausesRetrieved records the per-call retrieved clause count
func (m *Metrics) RecordClausesRetrieved(count int) {
	m.ClausesRetrieved.Observe(float64(count))
}

// RecordReasoningAttempt records one reasoning attempt by model and outcome
func (m *Metrics) RecordReasoningAttempt(model, outcome string) {
	m.ReasoningAttempts.WithLabelValues(model, outcome).Inc()
}

// RecordReasoningFallback increments the fallback judgment counter
func (m *Metrics) RecordReasoningFallback() {
	m.ReasoningFallbacks.Inc()
}

// RecordReasoningDuration records the total reasoning step duration
func (m *Metrics) RecordReasoningDuration(durationSeconds float64) {
	m.ReasoningDuration.Observe(durationSeconds)
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, durationSeconds float64) {
	m.HTTPRequests.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(durationSeconds)
}

// RecordHTTPError records an HTTP error
func (m *Metrics) RecordHTTPError(method, endpoint, errorType string) {
	m.HTTPErrors.WithLabelValues(method, endpoint, errorType).Inc()
}
