package extractor

import (
	"errors"
	"math"
)

var (
	// ErrFrameTooShort is returned when a frame holds too few samples to analyse
	ErrFrameTooShort = errors.New("frame too short for analysis")
	// ErrInvalidSampleRate is returned for non-positive sample rates
	ErrInvalidSampleRate = errors.New("invalid sample rate")
)

// Features are the acoustic measurements of one frame.
// Frequencies are in Hz and intensity in dB; zero means not measured.
type Features struct {
	F1        float64 `json:"f1"`
	F2        float64 `json:"f2"`
	F3        float64 `json:"f3"`
	Pitch     float64 `json:"pitch"`
	Intensity float64 `json:"intensity"`
}

// Sanitize replaces NaN, infinite and negative values with zero, independently per value
func (f Features) Sanitize() Features {
	return Features{
		F1:        clean(f.F1),
		F2:        clean(f.F2),
		F3:        clean(f.F3),
		Pitch:     clean(f.Pitch),
		Intensity: clean(f.Intensity),
	}
}

func clean(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return v
}

// Extractor measures the features of a frame sampled at sampleRate
type Extractor interface {
	Extract(frame []float64, sampleRate int) (Features, error)
}

// Func adapts a plain function to the Extractor interface
type Func func(frame []float64, sampleRate int) (Features, error)

// Extract calls f(frame, sampleRate)
func (f Func) Extract(frame []float64, sampleRate int) (Features, error) {
	return f(frame, sampleRate)
}
