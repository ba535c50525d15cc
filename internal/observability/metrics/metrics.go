// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "ambient_assistant"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Capture metrics
	CapturesTotal   *prometheus.CounterVec
	CaptureFailures prometheus.Counter
	CaptureLatency  prometheus.Histogram

	// Extraction metrics
	ExtractionsTotal  *prometheus.CounterVec
	ExtractionLatency *prometheus.HistogramVec
	TextBlocks        prometheus.Counter

	// Detection metrics
	CandidatesTotal    *prometheus.CounterVec
	CandidatesRejected *prometheus.CounterVec

	// Guard metrics
	GuardTransitions *prometheus.CounterVec
	GuardPaused      prometheus.Gauge

	// Memory metrics
	MemorySize        prometheus.Gauge
	MemoryEvictions   prometheus.Counter
	MemoryRetrievals  prometheus.Counter
	EmbeddingFailures prometheus.Counter
	MemoryRebuilds    prometheus.Counter

	// Orchestrator metrics
	RequestsActive    prometheus.Gauge
	DispatchTotal     *prometheus.CounterVec
	BackendAttempts   *prometheus.CounterVec
	BackendLatency    *prometheus.HistogramVec
	FirstDeltaLatency prometheus.Histogram
	AnswersTruncated  prometheus.Counter

	// Bus metrics
	BusPublishTotal *prometheus.CounterVec

	// Forwarder publish metrics
	ForwardPublishTotal   *prometheus.CounterVec
	ForwardPublishErrors  *prometheus.CounterVec
	ForwardPublishLatency *prometheus.HistogramVec

	// Control surface metrics
	StreamsTotal   prometheus.Counter
	StreamsActive  prometheus.Gauge
	StreamDuration prometheus.Histogram
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		// Capture metrics
		CapturesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "captures_total",
			Help:      "Total number of screen captures by trigger",
		}, []string{"trigger"}),
		CaptureFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "capture_failures_total",
			Help:      "Total number of transient capture failures",
		}),
		CaptureLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "capture_latency_seconds",
			Help:      "Screen capture latency in seconds",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.2, 0.4, 1},
		}),

		// Extraction metrics
		ExtractionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extractions_total",
			Help:      "Total number of text extractions by engine and outcome",
		}, []string{"engine", "outcome"}),
		ExtractionLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extraction_latency_seconds",
			Help:      "Text extraction latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"engine"}),
		TextBlocks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "text_blocks_total",
			Help:      "Total number of text blocks extracted",
		}),

		// Detection metrics
		CandidatesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_total",
			Help:      "Total number of accepted question candidates by trigger",
		}, []string{"trigger"}),
		CandidatesRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "candidates_rejected_total",
			Help:      "Total number of candidates dropped",
		}, []string{"reason"}),

		// Guard metrics
		GuardTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "guard_transitions_total",
			Help:      "Total number of privacy guard state transitions",
		}, []string{"to"}),
		GuardPaused: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "guard_paused",
			Help:      "1 when capture is suspended by the privacy guard",
		}),

		// Memory metrics
		MemorySize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "memory_turns",
			Help:      "Number of conversation turns held in memory",
		}),
		MemoryEvictions: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_evictions_total",
			Help:      "Total number of conversation turns evicted",
		}),
		MemoryRetrievals: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_retrievals_total",
			Help:      "Total number of memory retrievals",
		}),
		EmbeddingFailures: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_failures_total",
			Help:      "Total number of failed embedding attempts",
		}),
		MemoryRebuilds: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "memory_rebuilds_total",
			Help:      "Total number of memory store rebuilds after invariant violations",
		}),

		// Orchestrator metrics
		RequestsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "requests_active",
			Help:      "Number of in-flight model requests",
		}),
		DispatchTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_total",
			Help:      "Total number of dispatched requests by backend and outcome",
		}, []string{"backend", "outcome"}),
		BackendAttempts: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backend_attempts_total",
			Help:      "Total number of backend attempts by result",
		}, []string{"backend", "result"}),
		BackendLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backend_latency_seconds",
			Help:      "End-to-end answer latency in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"backend"}),
		FirstDeltaLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "first_delta_latency_seconds",
			Help:      "Time from dispatch to first streamed delta",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}),
		AnswersTruncated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "answers_truncated_total",
			Help:      "Total number of answers truncated by length",
		}),

		// Bus metrics
		BusPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bus_publish_total",
			Help:      "Total number of bus messages published by topic",
		}, []string{"topic"}),

		// Forwarder publish metrics
		ForwardPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forward_publish_total",
			Help:      "Total number of messages forwarded to external brokers",
		}, []string{"sink", "topic", "event_type"}),
		ForwardPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "forward_publish_errors_total",
			Help:      "Total number of forwarder publish errors",
		}, []string{"sink", "topic", "event_type"}),
		ForwardPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "forward_publish_latency_seconds",
			Help:      "Forwarder publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"sink", "topic"}),

		// Control surface metrics
		StreamsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "streams_total",
			Help:      "Total number of answer watch streams started",
		}),
		StreamsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "streams_active",
			Help:      "Number of currently active answer watch streams",
		}),
		StreamDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stream_duration_seconds",
			Help:      "Duration of answer watch streams in seconds",
			Buckets:   []float64{1, 5, 30, 60, 300, 900, 3600},
		}),
	}
}

// RecordCapture records a capture attempt.
func (m *Metrics) RecordCapture(trigger string, err error, latencySeconds float64) {
	m.CapturesTotal.WithLabelValues(trigger).Inc()
	m.CaptureLatency.Observe(latencySeconds)
	if err != nil {
		m.CaptureFailures.Inc()
	}
}

// RecordExtraction records a text extraction attempt.
func (m *Metrics) RecordExtraction(engine string, err error, latencySeconds float64) {
	outcome := "ok"
	if err != nil {
		outcome = "unavailable"
	}
	m.ExtractionsTotal.WithLabelValues(engine, outcome).Inc()
	m.ExtractionLatency.WithLabelValues(engine).Observe(latencySeconds)
}

// RecordTextBlocks records extracted text blocks.
func (m *Metrics) RecordTextBlocks(n int) {
	m.TextBlocks.Add(float64(n))
}

// RecordCandidate records an accepted candidate.
func (m *Metrics) RecordCandidate(trigger string) {
	m.CandidatesTotal.WithLabelValues(trigger).Inc()
}

// RecordCandidateRejected records a dropped candidate.
func (m *Metrics) RecordCandidateRejected(reason string) {
	m.CandidatesRejected.WithLabelValues(reason).Inc()
}

// RecordGuardTransition records a privacy guard transition.
func (m *Metrics) RecordGuardTransition(paused bool) {
	if paused {
		m.GuardTransitions.WithLabelValues("suspended").Inc()
		m.GuardPaused.Set(1)
		return
	}
	m.GuardTransitions.WithLabelValues("active").Inc()
	m.GuardPaused.Set(0)
}

// RecordMemorySize records the current memory size.
func (m *Metrics) RecordMemorySize(n int) {
	m.MemorySize.Set(float64(n))
}

// RecordEviction records an evicted turn.
func (m *Metrics) RecordEviction() {
	m.MemoryEvictions.Inc()
}

// RecordRetrieval records a memory retrieval.
func (m *Metrics) RecordRetrieval() {
	m.MemoryRetrievals.Inc()
}

// RecordEmbeddingFailure records a failed embedding attempt.
func (m *Metrics) RecordEmbeddingFailure() {
	m.EmbeddingFailures.Inc()
}

// RecordRebuild records a memory rebuild.
func (m *Metrics) RecordRebuild() {
	m.MemoryRebuilds.Inc()
}

// RecordRequestStart records a request entering flight.
func (m *Metrics) RecordRequestStart() {
	m.RequestsActive.Inc()
}

// RecordRequestEnd records a request leaving flight.
func (m *Metrics) RecordRequestEnd(backend, outcome string, latencySeconds float64) {
	m.RequestsActive.Dec()
	m.DispatchTotal.WithLabelValues(backend, outcome).Inc()
	if outcome == "completed" {
		m.BackendLatency.WithLabelValues(backend).Observe(latencySeconds)
	}
}

// RecordBackendAttempt records a single backend attempt.
func (m *Metrics) RecordBackendAttempt(backend, result string) {
	m.BackendAttempts.WithLabelValues(backend, result).Inc()
}

// RecordFirstDelta records the time to the first streamed delta.
func (m *Metrics) RecordFirstDelta(latencySeconds float64) {
	m.FirstDeltaLatency.Observe(latencySeconds)
}

// RecordTruncated records a length-truncated answer.
func (m *Metrics) RecordTruncated() {
	m.AnswersTruncated.Inc()
}

// RecordBusPublish records a bus publish.
func (m *Metrics) RecordBusPublish(topic string) {
	m.BusPublishTotal.WithLabelValues(topic).Inc()
}

// RecordForwardPublish records a forwarder publish attempt.
func (m *Metrics) RecordForwardPublish(sink, topic, eventType string, err error, latencySeconds float64) {
	m.ForwardPublishTotal.WithLabelValues(sink, topic, eventType).Inc()
	m.ForwardPublishLatency.WithLabelValues(sink, topic).Observe(latencySeconds)
	if err != nil {
		m.ForwardPublishErrors.WithLabelValues(sink, topic, eventType).Inc()
	}
}

// RecordStreamStart records a new watch stream starting.
func (m *Metrics) RecordStreamStart() {
	m.StreamsTotal.Inc()
	m.StreamsActive.Inc()
}

// RecordStreamEnd records a watch stream ending.
func (m *Metrics) RecordStreamEnd(durationSeconds float64) {
	m.StreamsActive.Dec()
	m.StreamDuration.Observe(durationSeconds)
}
