package audio

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePCM16(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected []float64
	}{
		{name: "empty payload", data: []byte{}, expected: []float64{}},
		{name: "zero", data: []byte{0x00, 0x00}, expected: []float64{0}},
		{name: "positive full scale", data: []byte{0xff, 0x7f}, expected: []float64{32767.0 / 32768.0}},
		{name: "negative full scale", data: []byte{0x00, 0x80}, expected: []float64{-1}},
		{name: "little endian pair", data: []byte{0x00, 0x40, 0x00, 0xc0}, expected: []float64{0.5, -0.5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples, err := DecodePCM16(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, samples)
		})
	}
}

func TestDecodePCM16OddPayload(t *testing.T) {
	_, err := DecodePCM16([]byte{0x01, 0x02, 0x03})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrOddPayload))
	assert.Contains(t, err.Error(), "3 bytes")
}

func TestEncodePCM16RoundTrip(t *testing.T) {
	in := []float64{0, 0.25, -0.25, 0.999, -1}
	out, err := DecodePCM16(EncodePCM16(in))
	require.NoError(t, err)
	require.Len(t, out, len(in))

	for i := range in {
		assert.InDelta(t, in[i], out[i], 1.0/32768)
	}
}

func TestEncodePCM16Clips(t *testing.T) {
	out, err := DecodePCM16(EncodePCM16([]float64{2, -2}))
	require.NoError(t, err)
	assert.Equal(t, 32767.0/32768.0, out[0])
	assert.Equal(t, -1.0, out[1])
}

func TestRMS(t *testing.T) {
	assert.Equal(t, 0.0, RMS(nil))
	assert.Equal(t, 0.0, RMS(make([]float64, 512)))
	assert.InDelta(t, 0.5, RMS([]float64{0.5, -0.5, 0.5, -0.5}), 1e-12)

	sine := make([]float64, 16000)
	for i := range sine {
		sine[i] = 0.3 * math.Sin(2*math.Pi*440*float64(i)/16000)
	}
	assert.InDelta(t, 0.3/math.Sqrt2, RMS(sine), 1e-3)
}
