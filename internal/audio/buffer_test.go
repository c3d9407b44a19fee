package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ramp(start, n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = float64(start + i)
	}
	return s
}

func TestNewBufferValidation(t *testing.T) {
	tests := []struct {
		name                        string
		maxSamples, window, cadence int
		expectError                 bool
	}{
		{name: "defaults", maxSamples: 3200, window: 1024, cadence: 512},
		{name: "zero window", maxSamples: 3200, window: 0, cadence: 512, expectError: true},
		{name: "zero cadence", maxSamples: 3200, window: 1024, cadence: 0, expectError: true},
		{name: "cap below window", maxSamples: 800, window: 1024, cadence: 512, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBuffer(tt.maxSamples, tt.window, tt.cadence)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 0, b.Size())
			assert.Equal(t, tt.maxSamples, b.MaxSamples())
		})
	}
}

func TestBufferTickCadence(t *testing.T) {
	b, err := NewBuffer(3200, 1024, 512)
	require.NoError(t, err)

	// 512 samples: cadence reached but not enough history
	_, ok := b.Append(ramp(0, 512))
	assert.False(t, ok)

	// 1024 samples in history, 1024 since last tick
	window, ok := b.Append(ramp(512, 512))
	require.True(t, ok)
	assert.Equal(t, ramp(0, 1024), window)

	// counter restarted
	_, ok = b.Append(ramp(1024, 256))
	assert.False(t, ok)

	window, ok = b.Append(ramp(1280, 256))
	require.True(t, ok)
	assert.Equal(t, ramp(512, 1024), window, "newest 1024 samples")

	stats := b.GetStats()
	assert.Equal(t, uint64(2), stats.Ticks)
	assert.Equal(t, uint64(1536), stats.TotalSamples)
	assert.Equal(t, 0, stats.SinceTick)
}

func TestBufferSmallChunks(t *testing.T) {
	b, err := NewBuffer(3200, 1024, 512)
	require.NoError(t, err)

	ticks := 0
	for i := 0; i < 64; i++ {
		if _, ok := b.Append(ramp(i*128, 128)); ok {
			ticks++
		}
	}

	// 8192 samples: first tick at 1024, then every 512
	assert.Equal(t, 15, ticks)
}

func TestBufferNeverExceedsCap(t *testing.T) {
	b, err := NewBuffer(3200, 1024, 512)
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		b.Append(ramp(i*700, 700))
		assert.LessOrEqual(t, b.Size(), 3200)
	}

	// a single oversized chunk is trimmed too
	window, ok := b.Append(ramp(0, 10000))
	require.True(t, ok)
	assert.Equal(t, 3200, b.Size())
	assert.Equal(t, ramp(10000-1024, 1024), window)
}

func TestBufferReturnsCopy(t *testing.T) {
	b, err := NewBuffer(3200, 1024, 512)
	require.NoError(t, err)

	window, ok := b.Append(ramp(0, 1024))
	require.True(t, ok)
	window[0] = -1

	next, ok := b.Append(ramp(1024, 512))
	require.True(t, ok)
	assert.Equal(t, 512.0, next[0])
}

func TestBufferReset(t *testing.T) {
	b, err := NewBuffer(3200, 1024, 512)
	require.NoError(t, err)

	b.Append(ramp(0, 900))
	b.Reset()
	assert.Equal(t, 0, b.Size())
	assert.Equal(t, 0, b.GetStats().SinceTick)

	_, ok := b.Append(ramp(0, 512))
	assert.False(t, ok, "history must be rebuilt after reset")
}

func TestBufferReleasesOversizedAppend(t *testing.T) {
	b, err := NewBuffer(3200, 1024, 512)
	require.NoError(t, err)

	// A 1 MiB PCM-16 frame
	window, ok := b.Append(ramp(0, 1<<19))
	require.True(t, ok)
	assert.Equal(t, float64(1<<19-1), window[len(window)-1])

	assert.Equal(t, 3200, b.Size())
	assert.LessOrEqual(t, cap(b.samples), 3200+512)

	window, ok = b.Append(ramp(1<<19, 512))
	require.True(t, ok)
	assert.Equal(t, float64(1<<19+511), window[len(window)-1])
	assert.Equal(t, 3200, b.Size())
}
