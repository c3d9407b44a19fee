package vad

import (
	"math"
	"slices"

	"github.com/MulchEnjoyer/Yongue-Cheek/internal/audio"
	"github.com/MulchEnjoyer/Yongue-Cheek/internal/config"
)

// IntensityFunc measures the intensity of a frame in dB
type IntensityFunc func(frame []float64) (float64, error)

// NoiseFloor is the ambient level a session was calibrated against
type NoiseFloor struct {
	RMS       float64 `json:"rms"`
	Intensity float64 `json:"intensity"`
}

// Calibrator estimates the noise floor from per-frame RMS history
type Calibrator struct {
	cfg      config.CalibrationConfig
	capacity int
	measure  IntensityFunc

	history    []float64
	floor      NoiseFloor
	calibrated bool
}

// CalibratorStats represents calibration state for monitoring
type CalibratorStats struct {
	Calibrated     bool    `json:"calibrated"`
	NoiseFloorRMS  float64 `json:"noise_floor_rms"`
	NoiseFloorDB   float64 `json:"noise_floor_intensity"`
	HistoryLength  int     `json:"history_length"`
	HistoryCap     int     `json:"history_capacity"`
	FramesRequired int     `json:"frames_required"`
}

// NewCalibrator creates a calibrator whose history covers cfg.Duration of
// cfg.ChunkSamples sized frames at the given sample rate. measure may be nil,
// in which case the intensity floor keeps its default.
func NewCalibrator(cfg config.CalibrationConfig, sampleRate int, measure IntensityFunc) *Calibrator {
	capacity := int(math.Ceil(float64(sampleRate) * cfg.Duration / float64(cfg.ChunkSamples)))
	if capacity < 1 {
		capacity = 1
	}

	c := &Calibrator{
		cfg:      cfg,
		capacity: capacity,
		measure:  measure,
		history:  make([]float64, 0, capacity),
	}
	c.Reset()

	return c
}

// Ingest records one frame. It returns true only on the frame that completes calibration.
// Frames shorter than the configured minimum are ignored.
func (c *Calibrator) Ingest(frame []float64) bool {
	if c.calibrated || len(frame) < c.cfg.MinFrameSamples {
		return false
	}

	if len(c.history) == c.capacity {
		copy(c.history, c.history[1:])
		c.history = c.history[:c.capacity-1]
	}
	c.history = append(c.history, audio.RMS(frame))

	if len(c.history) < c.FramesRequired() {
		return false
	}

	sorted := slices.Clone(c.history)
	slices.Sort(sorted)
	idx := min(int(float64(len(sorted))*c.cfg.Percentile), len(sorted)-1)
	c.floor.RMS = sorted[idx]

	if c.measure != nil {
		if intensity, err := c.measure(frame); err == nil && !math.IsNaN(intensity) && !math.IsInf(intensity, 0) {
			c.floor.Intensity = math.Max(c.cfg.MinIntensity, intensity-c.cfg.IntensityMargin)
		}
	}

	c.calibrated = true
	return true
}

// Reset restores the default noise floor and clears the history
func (c *Calibrator) Reset() {
	c.history = c.history[:0]
	c.floor = NoiseFloor{RMS: c.cfg.DefaultRMS, Intensity: c.cfg.DefaultIntensity}
	c.calibrated = false
}

// Calibrated reports whether the noise floor has converged
func (c *Calibrator) Calibrated() bool {
	return c.calibrated
}

// NoiseFloor returns the current noise floor estimate
func (c *Calibrator) NoiseFloor() NoiseFloor {
	return c.floor
}

// Capacity returns the maximum history length
func (c *Calibrator) Capacity() int {
	return c.capacity
}

// FramesRequired returns the history length at which calibration converges
func (c *Calibrator) FramesRequired() int {
	return max(c.capacity/2, 1)
}

// GetStats returns current calibration statistics
func (c *Calibrator) GetStats() CalibratorStats {
	return CalibratorStats{
		Calibrated:     c.calibrated,
		NoiseFloorRMS:  c.floor.RMS,
		NoiseFloorDB:   c.floor.Intensity,
		HistoryLength:  len(c.history),
		HistoryCap:     c.capacity,
		FramesRequired: c.FramesRequired(),
	}
}
