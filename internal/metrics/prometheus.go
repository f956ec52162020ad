// Package metrics defines the Prometheus instrumentation for the energy VAD
// service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the energy VAD service
type Metrics struct {
	// Detection metrics
	FramesProcessed   prometheus.Counter
	SpeechFrames      prometheus.Counter
	SegmentsFinalized prometheus.Counter
	SegmentDuration   prometheus.Histogram

	// Offline detection metrics
	DetectRequests prometheus.Counter
	DetectDuration prometheus.Histogram

	// Streaming session metrics
	ActiveSessions  prometheus.Gauge
	SessionsCreated prometheus.Counter
	SessionsClosed  prometheus.Counter
	SessionDuration prometheus.Histogram

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		// Detection metrics
		FramesProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vad_frames_processed_total",
			Help: "Total number of analysis frames classified",
		}),
		SpeechFrames: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vad_speech_frames_total",
			Help: "Total number of frames classified as speech",
		}),
		SegmentsFinalized: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vad_segments_finalized_total",
			Help: "Total number of speech segments finalized",
		}),
		SegmentDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vad_segment_duration_seconds",
			Help:    "Duration of finalized speech segments",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~1.7 minutes
		}),

		// Offline detection metrics
		DetectRequests: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vad_detect_requests_total",
			Help: "Total number of offline detection requests",
		}),
		DetectDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vad_detect_duration_seconds",
			Help:    "Time spent running offline detection",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		}),

		// Streaming session metrics
		ActiveSessions: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "vad_active_sessions",
			Help: "Current number of active streaming sessions",
		}),
		SessionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vad_sessions_created_total",
			Help: "Total number of streaming sessions created",
		}),
		SessionsClosed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vad_sessions_closed_total",
			Help: "Total number of streaming sessions closed",
		}),
		SessionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "vad_session_duration_seconds",
			Help:    "Wall-clock duration of streaming sessions",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10), // 1s to ~17 minutes
		}),

		// HTTP API metrics
		HTTPRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vad_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "vad_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vad_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// RecordFrames adds classified frames to the detection counters
func (m *Metrics) RecordFrames(total, speech int) {
	m.FramesProcessed.Add(float64(total))
	m.SpeechFrames.Add(float64(speech))
}

// RecordSegment records one finalized speech segment
func (m *Metrics) RecordSegment(durationSeconds float64) {
	m.SegmentsFinalized.Inc()
	m.SegmentDuration.Observe(durationSeconds)
}

// RecordDetect records an offline detection request
func (m *Metrics) RecordDetect(durationSeconds float64) {
	m.DetectRequests.Inc()
	m.DetectDuration.Observe(durationSeconds)
}

// SetActiveSessions sets the current number of streaming sessions
func (m *Metrics) SetActiveSessions(count int) {
	m.ActiveSessions.Set(float64(count))
}

// RecordSessionCreated increments the sessions created counter
func (m *Metrics) RecordSessionCreated() {
	m.SessionsCreated.Inc()
}

// RecordSessionClosed increments the sessions closed counter and records duration
func (m *Metrics) RecordSessionClosed(durationSeconds float64) {
	m.SessionsClosed.Inc()
	m.SessionDuration.Observe(durationSeconds)
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
