package audio

import "math"

// HighPass is a causal one-pole RC high-pass filter.
// Each frame is filtered independently: the recurrence restarts at y[0] = x[0].
type HighPass struct {
	cutoff float64
	alpha  float64
}

// NewHighPass creates a high-pass filter for the given cutoff frequency and sample rate
func NewHighPass(cutoff float64, sampleRate int) *HighPass {
	dt := 1.0 / float64(sampleRate)
	rc := 1.0 / (2.0 * math.Pi * cutoff)

	return &HighPass{
		cutoff: cutoff,
		alpha:  rc / (rc + dt),
	}
}

// Apply returns a filtered copy of frame. Frames shorter than two samples are returned as-is.
func (h *HighPass) Apply(frame []float64) []float64 {
	if len(frame) < 2 {
		return frame
	}

	out := make([]float64, len(frame))
	out[0] = frame[0]
	for i := 1; i < len(frame); i++ {
		out[i] = h.alpha * (out[i-1] + frame[i] - frame[i-1])
	}

	return out
}

// Alpha returns the filter coefficient
func (h *HighPass) Alpha() float64 {
	return h.alpha
}

// Cutoff returns the cutoff frequency in Hz
func (h *HighPass) Cutoff() float64 {
	return h.cutoff
}
