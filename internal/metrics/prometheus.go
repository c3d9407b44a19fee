package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all Prometheus metrics for the vowel feedback service
type Metrics struct {
	// Session metrics
	ActiveSessions    prometheus.Gauge
	SessionsCreated   prometheus.Counter
	SessionsDestroyed prometheus.Counter
	SessionsRejected  prometheus.Counter
	SessionDuration   prometheus.Histogram

	// Audio ingest metrics
	FramesReceived  prometheus.Counter
	BytesReceived   prometheus.Counter
	MalformedFrames prometheus.Counter

	// Calibration metrics
	CalibrationsCompleted prometheus.Counter
	NoiseFloorRMS         prometheus.Histogram

	// Analysis metrics
	AnalysisTicks    prometheus.Counter
	VoicedTicks      prometheus.Counter
	AnalysisDuration prometheus.Histogram
	AnalysisFailures *prometheus.CounterVec
	VowelsDetected   *prometheus.CounterVec
	VowelConfidence  prometheus.Histogram

	// Control message metrics
	ControlMessages *prometheus.CounterVec
	InvalidControls prometheus.Counter

	// HTTP API metrics
	HTTPRequests        *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPErrors          *prometheus.CounterVec
}

// NewMetrics creates all metrics and registers them with reg.
// Pass prometheus.DefaultRegisterer in production and a fresh registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		// Session metrics
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "formant_active_sessions",
			Help: "Current number of connected analysis sessions",
		}),
		SessionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "formant_sessions_created_total",
			Help: "Total number of sessions created",
		}),
		SessionsDestroyed: factory.NewCounter(prometheus.CounterOpts{
			Name: "formant_sessions_destroyed_total",
			Help: "Total number of sessions destroyed",
		}),
		SessionsRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "formant_sessions_rejected_total",
			Help: "Total number of connections rejected at the session limit",
		}),
		SessionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "formant_session_duration_seconds",
			Help:    "Duration of sessions in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~1 hour
		}),

		// Audio ingest metrics
		FramesReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "formant_audio_frames_received_total",
			Help: "Total number of binary audio frames received",
		}),
		BytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "formant_audio_bytes_received_total",
			Help: "Total number of audio payload bytes received",
		}),
		MalformedFrames: factory.NewCounter(prometheus.CounterOpts{
			Name: "formant_audio_malformed_frames_total",
			Help: "Total number of audio frames that could not be decoded",
		}),

		// Calibration metrics
		CalibrationsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "formant_calibrations_completed_total",
			Help: "Total number of completed noise floor calibrations",
		}),
		NoiseFloorRMS: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "formant_noise_floor_rms",
			Help:    "Calibrated noise floor RMS",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 10), // 0.0005 to ~0.25
		}),

		// Analysis metrics
		AnalysisTicks: factory.NewCounter(prometheus.CounterOpts{
			Name: "formant_analysis_ticks_total",
			Help: "Total number of analysis ticks run",
		}),
		VoicedTicks: factory.NewCounter(prometheus.CounterOpts{
			Name: "formant_voiced_ticks_total",
			Help: "Total number of analysis ticks classified as voiced",
		}),
		AnalysisDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "formant_analysis_duration_seconds",
			Help:    "Time spent analysing one frame",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12), // 100µs to ~200ms
		}),
		AnalysisFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "formant_analysis_failures_total",
			Help: "Total number of analysis ticks replaced by a silent result",
		}, []string{"stage"}),
		VowelsDetected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "formant_vowels_detected_total",
			Help: "Total number of voiced ticks per detected vowel",
		}, []string{"vowel"}),
		VowelConfidence: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "formant_vowel_confidence",
			Help:    "Confidence of detected vowels",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11), // 0.0 to 1.0
		}),

		// Control message metrics
		ControlMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "formant_control_messages_total",
			Help: "Total number of control messages handled",
		}, []string{"type"}),
		InvalidControls: factory.NewCounter(prometheus.CounterOpts{
			Name: "formant_control_messages_invalid_total",
			Help: "Total number of ignored malformed or unknown control messages",
		}),

		// HTTP API metrics
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "formant_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status_code"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "formant_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		HTTPErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "formant_http_errors_total",
			Help: "Total number of HTTP errors",
		}, []string{"method", "endpoint", "error_type"}),
	}
}

// SetActiveSessions sets the current number of active sessions
func (m *Metrics) SetActiveSessions(count int) {
	m.ActiveSessions.Set(float64(count))
}

// RecordSessionCreated increments the sessions created counter
func (m *Metrics) RecordSessionCreated() {
	m.SessionsCreated.Inc()
}

// RecordSessionDestroyed increments the sessions destroyed counter and records duration
func (m *Metrics) RecordSessionDestroyed(durationSeconds float64) {
	m.SessionsDestroyed.Inc()
	m.SessionDuration.Observe(durationSeconds)
}

// RecordSessionRejected increments the rejected sessions counter
func (m *Metrics) RecordSessionRejected() {
	m.SessionsRejected.Inc()
}

// RecordFrame records a received binary frame
func (m *Metrics) RecordFrame(sizeBytes int) {
	m.FramesReceived.Inc()
	m.BytesReceived.Add(float64(sizeBytes))
}

// RecordMalformedFrame increments the malformed frames counter
func (m *Metrics) RecordMalformedFrame() {
	m.MalformedFrames.Inc()
}

// RecordCalibration records a completed calibration
func (m *Metrics) RecordCalibration(noiseFloorRMS float64) {
	m.CalibrationsCompleted.Inc()
	m.NoiseFloorRMS.Observe(noiseFloorRMS)
}

// RecordTick records one analysis tick and, for voiced ticks, the detected vowel
func (m *Metrics) RecordTick(voiced bool, vowel string, confidence, durationSeconds float64) {
	m.AnalysisTicks.Inc()
	m.AnalysisDuration.Observe(durationSeconds)
	if !voiced {
		return
	}
	m.VoicedTicks.Inc()
	if vowel != "" {
		m.VowelsDetected.WithLabelValues(vowel).Inc()
		m.VowelConfidence.Observe(confidence)
	}
}

// RecordAnalysisFailure records a tick that fell back to a silent result
func (m *Metrics) RecordAnalysisFailure(stage string) {
	m.AnalysisFailures.WithLabelValues(stage).Inc()
}

// RecordControl records a handled control message
func (m *Metrics) RecordControl(msgType string) {
	m.ControlMessages.WithLabelValues(msgType).Inc()
}

// RecordInvalidControl increments the invalid control messages counter
func (m *Metrics) RecordInvalidControl() {
	m.InvalidControls.Inc()
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
