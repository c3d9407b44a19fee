package formant

import "github.com/MulchEnjoyer/Yongue-Cheek/internal/config"

// Values holds one set of tracked acoustic values in Hz
type Values struct {
	F1    float64 `json:"f1"`
	F2    float64 `json:"f2"`
	F3    float64 `json:"f3"`
	Pitch float64 `json:"pitch"`
}

// Smoother applies exponential smoothing per value across ticks.
// Not safe for concurrent use; each session owns one.
type Smoother struct {
	factor        float64 // weight of the previous value
	silenceDecay  float64 // applied when the new value is missing
	unvoicedDecay float64 // applied to F1/F2 on unvoiced ticks

	last Values
}

// NewSmoother creates a smoother from the smoothing configuration
func NewSmoother(cfg config.SmoothingConfig) *Smoother {
	return &Smoother{
		factor:        cfg.Factor,
		silenceDecay:  cfg.SilenceDecay,
		unvoicedDecay: cfg.UnvoicedDecay,
	}
}

// Smooth blends one raw value with its previous smoothed value
func (s *Smoother) Smooth(raw, previous float64) float64 {
	switch {
	case raw == 0:
		return previous * s.silenceDecay
	case previous == 0:
		return raw
	default:
		return previous*s.factor + raw*(1-s.factor)
	}
}

// Update smooths a voiced frame's raw values and stores them as the new state
func (s *Smoother) Update(raw Values) Values {
	s.last = Values{
		F1:    s.Smooth(raw.F1, s.last.F1),
		F2:    s.Smooth(raw.F2, s.last.F2),
		F3:    s.Smooth(raw.F3, s.last.F3),
		Pitch: s.Smooth(raw.Pitch, s.last.Pitch),
	}
	return s.last
}

// Decay advances the state through an unvoiced tick: F1 and F2 fade, F3 and pitch drop to zero
func (s *Smoother) Decay() Values {
	s.last = Values{
		F1: s.last.F1 * s.unvoicedDecay,
		F2: s.last.F2 * s.unvoicedDecay,
	}
	return s.last
}

// Last returns the current smoothed state
func (s *Smoother) Last() Values {
	return s.last
}

// Reset clears the smoothing state
func (s *Smoother) Reset() {
	s.last = Values{}
}
