package extractor

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// octaveTolerance lets a shorter lag win over a marginally stronger multiple of it
const octaveTolerance = 0.95

// estimatePitch returns the fundamental frequency of frame in Hz, or 0 when
// no autocorrelation peak in [floor, ceiling] reaches threshold
func estimatePitch(frame []float64, sampleRate int, floor, ceiling, threshold float64) float64 {
	n := len(frame)
	fs := float64(sampleRate)
	minLag := int(math.Floor(fs / ceiling))
	maxLag := int(math.Ceil(fs / floor))
	if minLag < 1 {
		minLag = 1
	}
	if maxLag >= n/2 {
		maxLag = n/2 - 1
	}
	if maxLag <= minLag {
		return 0
	}

	r := normalizedAutocorrelation(frame)
	if r == nil {
		return 0
	}

	best := 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		if isPeak(r, lag) && r[lag] > best {
			best = r[lag]
		}
	}
	if best < threshold {
		return 0
	}

	for lag := minLag; lag <= maxLag; lag++ {
		if isPeak(r, lag) && r[lag] >= best*octaveTolerance {
			return fs / (float64(lag) + parabolicOffset(r[lag-1], r[lag], r[lag+1]))
		}
	}

	return 0
}

// normalizedAutocorrelation computes the bias-corrected autocorrelation of
// the mean-removed frame via FFT, scaled so that r[0] = 1
func normalizedAutocorrelation(frame []float64) []float64 {
	n := len(frame)

	var mean float64
	for _, s := range frame {
		mean += s
	}
	mean /= float64(n)

	padded := make([]float64, 2*n)
	for i, s := range frame {
		padded[i] = s - mean
	}

	fft := fourier.NewFFT(len(padded))
	coeff := fft.Coefficients(nil, padded)
	for i, c := range coeff {
		coeff[i] = complex(real(c)*real(c)+imag(c)*imag(c), 0)
	}
	raw := fft.Sequence(nil, coeff)

	if raw[0] <= 0 {
		return nil
	}

	r := make([]float64, n)
	for lag := 0; lag < n; lag++ {
		r[lag] = raw[lag] / raw[0] * float64(n) / float64(n-lag)
	}

	return r
}

func isPeak(r []float64, lag int) bool {
	return lag > 0 && lag+1 < len(r) && r[lag] >= r[lag-1] && r[lag] >= r[lag+1]
}

// parabolicOffset returns the sub-sample position of the vertex through three points
func parabolicOffset(left, center, right float64) float64 {
	denom := left - 2*center + right
	if denom == 0 {
		return 0
	}
	offset := 0.5 * (left - right) / denom
	if offset < -0.5 || offset > 0.5 {
		return 0
	}
	return offset
}
