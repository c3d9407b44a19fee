package extractor

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	in := Features{
		F1:        math.NaN(),
		F2:        1700,
		F3:        math.Inf(1),
		Pitch:     -12,
		Intensity: 64.5,
	}

	assert.Equal(t, Features{F2: 1700, Intensity: 64.5}, in.Sanitize())
	assert.Equal(t, Features{}, Features{F1: math.Inf(-1)}.Sanitize())
}

func TestFuncAdapter(t *testing.T) {
	var calls int
	var ex Extractor = Func(func(frame []float64, sampleRate int) (Features, error) {
		calls++
		if len(frame) == 0 {
			return Features{}, ErrFrameTooShort
		}
		return Features{F1: 700, F2: 1700, Intensity: float64(sampleRate) / 1000}, nil
	})

	f, err := ex.Extract(make([]float64, 10), 16000)
	require.NoError(t, err)
	assert.Equal(t, Features{F1: 700, F2: 1700, Intensity: 16}, f)

	_, err = ex.Extract(nil, 16000)
	assert.True(t, errors.Is(err, ErrFrameTooShort))
	assert.Equal(t, 2, calls)
}
