package audio

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Resampler converts mono audio between sample rates.
// Equal rates pass samples through untouched.
type Resampler struct {
	inputRate  int
	outputRate int
	r          resampling.Resampler
}

// NewResampler creates a high quality mono resampler from inputRate to outputRate
func NewResampler(inputRate, outputRate int) (*Resampler, error) {
	if inputRate <= 0 || outputRate <= 0 {
		return nil, fmt.Errorf("sample rates must be positive (got %d -> %d)", inputRate, outputRate)
	}

	res := &Resampler{inputRate: inputRate, outputRate: outputRate}
	if inputRate == outputRate {
		return res, nil
	}

	r, err := resampling.New(&resampling.Config{
		InputRate:  float64(inputRate),
		OutputRate: float64(outputRate),
		Channels:   1,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create resampler %d -> %d: %w", inputRate, outputRate, err)
	}
	res.r = r

	return res, nil
}

// Process converts a block of a longer stream. The filter tail stays buffered
// until Flush is called.
func (r *Resampler) Process(samples []float64) ([]float64, error) {
	if r.r == nil {
		return samples, nil
	}

	out, err := r.r.Process(samples)
	if err != nil {
		return nil, fmt.Errorf("resample failed: %w", err)
	}

	return out, nil
}

// Flush returns the samples still held in the filter once the stream has ended
func (r *Resampler) Flush() ([]float64, error) {
	if r.r == nil {
		return nil, nil
	}

	out, err := r.r.Flush()
	if err != nil {
		return nil, fmt.Errorf("resample flush failed: %w", err)
	}

	return out, nil
}

// Convert resamples a complete signal, including the flushed tail
func (r *Resampler) Convert(samples []float64) ([]float64, error) {
	out, err := r.Process(samples)
	if err != nil {
		return nil, err
	}

	tail, err := r.Flush()
	if err != nil {
		return nil, err
	}

	return append(out, tail...), nil
}

// Passthrough reports whether no conversion happens
func (r *Resampler) Passthrough() bool {
	return r.r == nil
}
