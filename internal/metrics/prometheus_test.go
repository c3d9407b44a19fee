package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegistersWithRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	require.NotNil(t, m)

	// a second set on the same registry would collide
	assert.Panics(t, func() { NewMetrics(reg) })

	// independent registries do not
	assert.NotPanics(t, func() { NewMetrics(prometheus.NewRegistry()) })
}

func TestRecordTick(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordTick(false, "", 0, 0.001)
	m.RecordTick(true, "", 0, 0.001)
	m.RecordTick(true, "æ", 0.9, 0.002)
	m.RecordTick(true, "æ", 0.8, 0.002)

	assert.Equal(t, 4.0, testutil.ToFloat64(m.AnalysisTicks))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.VoicedTicks))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.VowelsDetected.WithLabelValues("æ")))
}

func TestSessionAndFrameCounters(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordSessionCreated()
	m.SetActiveSessions(3)
	m.RecordSessionDestroyed(12.5)
	m.RecordSessionRejected()
	m.RecordFrame(1024)
	m.RecordFrame(512)
	m.RecordMalformedFrame()
	m.RecordControl("ping")
	m.RecordInvalidControl()
	m.RecordAnalysisFailure("extract")
	m.RecordCalibration(0.005)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsCreated))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ActiveSessions))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsDestroyed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsRejected))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.FramesReceived))
	assert.Equal(t, 1536.0, testutil.ToFloat64(m.BytesReceived))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.MalformedFrames))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ControlMessages.WithLabelValues("ping")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InvalidControls))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnalysisFailures.WithLabelValues("extract")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CalibrationsCompleted))
}
