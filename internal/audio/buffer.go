package audio

import "fmt"

// Buffer is the bounded rolling sample history of one session.
// It is owned by a single connection goroutine and is not safe for concurrent use.
type Buffer struct {
	samples    []float64
	maxSamples int // hard cap on retained history
	windowSize int // samples handed to the pipeline per tick
	cadence    int // samples between ticks

	sinceTick    int    // samples appended since the last tick
	totalSamples uint64 // samples appended since creation
	ticks        uint64
}

// BufferStats represents buffer statistics for monitoring
type BufferStats struct {
	BufferSize   int    `json:"buffer_size_samples"`
	MaxSamples   int    `json:"max_samples"`
	SinceTick    int    `json:"samples_since_tick"`
	TotalSamples uint64 `json:"total_samples"`
	Ticks        uint64 `json:"ticks"`
}

// NewBuffer creates a rolling buffer retaining at most maxSamples samples,
// emitting the newest windowSize samples every cadence appended samples
func NewBuffer(maxSamples, windowSize, cadence int) (*Buffer, error) {
	if windowSize <= 0 || cadence <= 0 {
		return nil, fmt.Errorf("window size and cadence must be positive (got %d, %d)", windowSize, cadence)
	}
	if maxSamples < windowSize {
		return nil, fmt.Errorf("buffer of %d samples cannot hold a %d sample window", maxSamples, windowSize)
	}

	return &Buffer{
		samples:    make([]float64, 0, maxSamples+cadence),
		maxSamples: maxSamples,
		windowSize: windowSize,
		cadence:    cadence,
	}, nil
}

// Append adds samples and trims the history to the cap. When a tick is due it
// returns a copy of the newest window and true. At most one tick fires per call.
func (b *Buffer) Append(samples []float64) ([]float64, bool) {
	b.samples = append(b.samples, samples...)
	b.sinceTick += len(samples)
	b.totalSamples += uint64(len(samples))

	if excess := len(b.samples) - b.maxSamples; excess > 0 {
		n := copy(b.samples, b.samples[excess:])
		b.samples = b.samples[:n]
	}

	// Release the backing array grown by an oversized append
	if limit := b.maxSamples + b.cadence; cap(b.samples) > 2*limit {
		b.samples = append(make([]float64, 0, limit), b.samples...)
	}

	if b.sinceTick < b.cadence || len(b.samples) < b.windowSize {
		return nil, false
	}

	b.sinceTick = 0
	b.ticks++

	window := make([]float64, b.windowSize)
	copy(window, b.samples[len(b.samples)-b.windowSize:])

	return window, true
}

// Reset discards the history and the tick counter
func (b *Buffer) Reset() {
	b.samples = b.samples[:0]
	b.sinceTick = 0
}

// Size returns the current number of samples in the buffer
func (b *Buffer) Size() int {
	return len(b.samples)
}

// MaxSamples returns the retention cap
func (b *Buffer) MaxSamples() int {
	return b.maxSamples
}

// GetStats returns current buffer statistics
func (b *Buffer) GetStats() BufferStats {
	return BufferStats{
		BufferSize:   len(b.samples),
		MaxSamples:   b.maxSamples,
		SinceTick:    b.sinceTick,
		TotalSamples: b.totalSamples,
		Ticks:        b.ticks,
	}
}
