package vad

import (
	"math"

	"github.com/MulchEnjoyer/Yongue-Cheek/internal/audio"
	"github.com/MulchEnjoyer/Yongue-Cheek/internal/config"
)

// Thresholds are the levels a frame must exceed to count as voiced
type Thresholds struct {
	RMS       float64 `json:"rms"`
	Intensity float64 `json:"intensity"`
}

// Gate makes the per-frame voiced/unvoiced decision
type Gate struct {
	cfg        config.GateConfig
	calibrator *Calibrator
}

// NewGate creates a gate reading its noise floor from calibrator
func NewGate(cfg config.GateConfig, calibrator *Calibrator) *Gate {
	return &Gate{cfg: cfg, calibrator: calibrator}
}

// Thresholds returns the thresholds for the current calibration state
func (g *Gate) Thresholds() Thresholds {
	if g.calibrator == nil || !g.calibrator.Calibrated() {
		return Thresholds{RMS: g.cfg.UncalibratedRMS, Intensity: g.cfg.UncalibratedIntensity}
	}

	floor := g.calibrator.NoiseFloor()
	return Thresholds{
		RMS:       math.Max(g.cfg.MinRMS, floor.RMS*g.cfg.RMSMultiplier),
		Intensity: math.Max(g.cfg.MinIntensity, floor.Intensity+g.cfg.IntensityOffset),
	}
}

// IsVoiced reports whether both the frame RMS and the measured intensity exceed their thresholds
func (g *Gate) IsVoiced(frame []float64, intensity float64) bool {
	return g.Decide(audio.RMS(frame), intensity)
}

// Decide is IsVoiced for an already computed RMS
func (g *Gate) Decide(rms, intensity float64) bool {
	t := g.Thresholds()
	return rms > t.RMS && intensity > t.Intensity
}
