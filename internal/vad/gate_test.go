package vad

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MulchEnjoyer/Yongue-Cheek/internal/config"
)

func calibratedAt(t *testing.T, rms, intensity float64) *Calibrator {
	t.Helper()
	c := NewCalibrator(config.Default().Calibration, 16000, fixedIntensity(intensity))
	for !c.Calibrated() {
		c.Ingest(constFrame(512, rms))
	}
	return c
}

func TestGateZeroFrameNeverVoiced(t *testing.T) {
	silent := make([]float64, 1024)

	uncalibrated := NewGate(config.Default().Gate, NewCalibrator(config.Default().Calibration, 16000, nil))
	assert.False(t, uncalibrated.IsVoiced(silent, 120))

	calibrated := NewGate(config.Default().Gate, calibratedAt(t, 0.0001, 25))
	assert.False(t, calibrated.IsVoiced(silent, 120))
}

func TestGateUncalibratedThresholds(t *testing.T) {
	g := NewGate(config.Default().Gate, NewCalibrator(config.Default().Calibration, 16000, nil))
	assert.Equal(t, Thresholds{RMS: 0.04, Intensity: 45}, g.Thresholds())

	tests := []struct {
		name      string
		rms       float64
		intensity float64
		voiced    bool
	}{
		{name: "both above", rms: 0.05, intensity: 50, voiced: true},
		{name: "rms at threshold", rms: 0.04, intensity: 50, voiced: false},
		{name: "intensity below", rms: 0.2, intensity: 44, voiced: false},
		{name: "rms below", rms: 0.03, intensity: 70, voiced: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.voiced, g.Decide(tt.rms, tt.intensity))
		})
	}
}

func TestGateCalibratedThresholds(t *testing.T) {
	tests := []struct {
		name       string
		floorRMS   float64
		floorDB    float64
		thresholds Thresholds
	}{
		{name: "quiet room uses minimums", floorRMS: 0.005, floorDB: 25, thresholds: Thresholds{RMS: 0.03, Intensity: 40}},
		{name: "noisy room scales", floorRMS: 0.02, floorDB: 45, thresholds: Thresholds{RMS: 0.05, Intensity: 55}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// intensity floor is measured minus the 5dB margin
			g := NewGate(config.Default().Gate, calibratedAt(t, tt.floorRMS, tt.floorDB+5))
			got := g.Thresholds()
			assert.InDelta(t, tt.thresholds.RMS, got.RMS, 1e-9)
			assert.InDelta(t, tt.thresholds.Intensity, got.Intensity, 1e-9)
		})
	}
}

func TestGateIsVoicedUsesFrameRMS(t *testing.T) {
	g := NewGate(config.Default().Gate, calibratedAt(t, 0.005, 30))

	assert.True(t, g.IsVoiced(constFrame(1024, 0.2), 65))
	assert.False(t, g.IsVoiced(constFrame(1024, 0.01), 65))
	assert.False(t, g.IsVoiced(constFrame(1024, 0.2), 35))
}
