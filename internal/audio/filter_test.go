package audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHighPassAlpha(t *testing.T) {
	h := NewHighPass(80, 16000)

	rc := 1.0 / (2 * math.Pi * 80)
	dt := 1.0 / 16000
	assert.InDelta(t, rc/(rc+dt), h.Alpha(), 1e-12)
	assert.Equal(t, 80.0, h.Cutoff())
}

func TestHighPassShortFrames(t *testing.T) {
	h := NewHighPass(80, 16000)

	assert.Empty(t, h.Apply(nil))
	assert.Equal(t, []float64{0.7}, h.Apply([]float64{0.7}))
}

func TestHighPassRecurrence(t *testing.T) {
	h := NewHighPass(80, 16000)
	a := h.Alpha()

	in := []float64{0.1, 0.4, -0.2, 0.3}
	out := h.Apply(in)
	require.Len(t, out, len(in))

	assert.Equal(t, 0.1, out[0])
	assert.InDelta(t, a*(out[0]+0.4-0.1), out[1], 1e-12)
	assert.InDelta(t, a*(out[1]-0.2-0.4), out[2], 1e-12)
	assert.InDelta(t, a*(out[2]+0.3+0.2), out[3], 1e-12)

	// input is left untouched
	assert.Equal(t, []float64{0.1, 0.4, -0.2, 0.3}, in)
}

func TestHighPassRemovesDCKeepsVoiceBand(t *testing.T) {
	const rate = 16000
	h := NewHighPass(80, rate)

	dc := make([]float64, 1024)
	for i := range dc {
		dc[i] = 0.5
	}
	out := h.Apply(dc)
	assert.Less(t, math.Abs(out[len(out)-1]), 0.01, "DC should decay")

	tone := make([]float64, 1024)
	for i := range tone {
		tone[i] = 0.3 * math.Sin(2*math.Pi*1000*float64(i)/rate)
	}
	filtered := h.Apply(tone)
	assert.InDelta(t, RMS(tone[512:]), RMS(filtered[512:]), 0.01, "1kHz should pass")
}
