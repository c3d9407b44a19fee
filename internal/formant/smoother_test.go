package formant

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MulchEnjoyer/Yongue-Cheek/internal/config"
)

func newTestSmoother() *Smoother {
	return NewSmoother(config.Default().Smoothing)
}

func TestSmooth(t *testing.T) {
	s := newTestSmoother()

	tests := []struct {
		name     string
		raw      float64
		previous float64
		expected float64
	}{
		{name: "missing value halves", raw: 0, previous: 400, expected: 200},
		{name: "missing twice", raw: 0, previous: 200, expected: 100},
		{name: "both zero", raw: 0, previous: 0, expected: 0},
		{name: "no history takes raw", raw: 500, previous: 0, expected: 500},
		{name: "blend", raw: 600, previous: 400, expected: 540},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, s.Smooth(tt.raw, tt.previous), 1e-9)
		})
	}
}

func TestSmootherUpdate(t *testing.T) {
	s := newTestSmoother()

	first := s.Update(Values{F1: 700, F2: 1700, F3: 2500, Pitch: 120})
	assert.Equal(t, Values{F1: 700, F2: 1700, F3: 2500, Pitch: 120}, first)

	second := s.Update(Values{F1: 800, F2: 1500, F3: 0, Pitch: 130})
	assert.InDelta(t, 770, second.F1, 1e-9)
	assert.InDelta(t, 1560, second.F2, 1e-9)
	assert.InDelta(t, 1250, second.F3, 1e-9)
	assert.InDelta(t, 127, second.Pitch, 1e-9)
	assert.Equal(t, second, s.Last())
}

func TestSmootherDecay(t *testing.T) {
	s := newTestSmoother()
	s.Update(Values{F1: 700, F2: 1700, F3: 2500, Pitch: 120})

	decayed := s.Decay()
	assert.InDelta(t, 560, decayed.F1, 1e-9)
	assert.InDelta(t, 1360, decayed.F2, 1e-9)
	assert.Zero(t, decayed.F3)
	assert.Zero(t, decayed.Pitch)

	// voiced frame after silence blends against the decayed state
	next := s.Update(Values{F1: 700, F2: 1700, F3: 2500, Pitch: 120})
	assert.InDelta(t, 560*0.3+700*0.7, next.F1, 1e-9)
	assert.InDelta(t, 2500, next.F3, 1e-9)
	assert.InDelta(t, 120, next.Pitch, 1e-9)
}

func TestSmootherNeverNegative(t *testing.T) {
	s := newTestSmoother()
	s.Update(Values{F1: 300, F2: 900, F3: 2200, Pitch: 100})

	for i := 0; i < 100; i++ {
		v := s.Decay()
		assert.GreaterOrEqual(t, v.F1, 0.0)
		assert.GreaterOrEqual(t, v.F2, 0.0)
	}
}

func TestSmootherReset(t *testing.T) {
	s := newTestSmoother()
	s.Update(Values{F1: 300, F2: 900})
	s.Reset()
	assert.Equal(t, Values{}, s.Last())
}
