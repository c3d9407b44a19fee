package extractor

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"
	"slices"

	"gonum.org/v1/gonum/dsp/window"
	"gonum.org/v1/gonum/mat"

	"github.com/MulchEnjoyer/Yongue-Cheek/internal/config"
)

const (
	// reference pressure squared (20 µPa)², frames are treated as pascals
	referencePower = 4e-10

	minFormantHz   = 90.0
	maxBandwidthHz = 400.0
	formantMargin  = 50.0 // kept below the configured ceiling
)

// LPC extracts formants by linear prediction and pitch by autocorrelation.
// It holds no per-frame state and is safe for concurrent use.
type LPC struct {
	cfg config.ExtractorConfig
}

// NewLPC creates an LPC extractor from the extractor configuration
func NewLPC(cfg config.ExtractorConfig) *LPC {
	return &LPC{cfg: cfg}
}

// Order returns the prediction order used at the given sample rate
func (l *LPC) Order(sampleRate int) int {
	if l.cfg.LPCOrder > 0 {
		return l.cfg.LPCOrder
	}
	return sampleRate/1000 + 2
}

// Extract implements Extractor
func (l *LPC) Extract(frame []float64, sampleRate int) (Features, error) {
	if sampleRate <= 0 {
		return Features{}, fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}

	order := l.Order(sampleRate)
	if len(frame) < 2*order+1 {
		return Features{}, fmt.Errorf("%w: %d samples, need %d", ErrFrameTooShort, len(frame), 2*order+1)
	}

	intensity := Intensity(frame)
	if intensity == 0 {
		return Features{}, nil
	}

	formants, err := l.formants(frame, sampleRate, order)
	if err != nil {
		return Features{}, err
	}

	f := Features{
		Pitch:     estimatePitch(frame, sampleRate, l.cfg.PitchFloor, l.cfg.PitchCeiling, l.cfg.VoicingThreshold),
		Intensity: intensity,
	}
	if len(formants) > 0 {
		f.F1 = formants[0]
	}
	if len(formants) > 1 {
		f.F2 = formants[1]
	}
	if len(formants) > 2 {
		f.F3 = formants[2]
	}

	return f.Sanitize(), nil
}

// Intensity returns the mean power of a frame in dB re 20 µPa, or 0 for silence
func Intensity(frame []float64) float64 {
	if len(frame) == 0 {
		return 0
	}

	var sum float64
	for _, s := range frame {
		sum += s * s
	}
	power := sum / float64(len(frame))
	if power <= 0 {
		return 0
	}

	return math.Max(0, 10*math.Log10(power/referencePower))
}

// formants returns candidate formant frequencies in ascending order
func (l *LPC) formants(frame []float64, sampleRate, order int) ([]float64, error) {
	x := make([]float64, len(frame))
	mu := math.Exp(-2 * math.Pi * l.cfg.PreEmphasis / float64(sampleRate))
	x[0] = frame[0]
	for i := 1; i < len(frame); i++ {
		x[i] = frame[i] - mu*frame[i-1]
	}
	window.Hamming(x)

	a, err := levinsonDurbin(autoCorrelation(x, order), order)
	if err != nil {
		return nil, err
	}

	roots, err := polyRoots(a)
	if err != nil {
		return nil, err
	}

	ceiling := l.cfg.MaxFormant - formantMargin
	fs := float64(sampleRate)

	var out []float64
	for _, z := range roots {
		if imag(z) <= 0 {
			continue
		}
		freq := cmplx.Phase(z) * fs / (2 * math.Pi)
		bandwidth := -fs / math.Pi * math.Log(cmplx.Abs(z))
		if freq > minFormantHz && freq < ceiling && bandwidth < maxBandwidthHz {
			out = append(out, freq)
		}
	}
	slices.Sort(out)

	return out, nil
}

// autoCorrelation computes r[0..order] for signal x
func autoCorrelation(x []float64, order int) []float64 {
	r := make([]float64, order+1)
	n := len(x)
	for k := 0; k <= order; k++ {
		var sum float64
		for i := 0; i < n-k; i++ {
			sum += x[i] * x[i+k]
		}
		r[k] = sum
	}

	return r
}

// levinsonDurbin solves the Toeplitz normal equations.
// It returns a1..aP of the inverse filter A(z) = 1 + a1 z^-1 + ... + aP z^-P.
func levinsonDurbin(r []float64, order int) ([]float64, error) {
	if len(r) < order+1 {
		return nil, errors.New("autocorrelation too short")
	}

	a := make([]float64, order)
	e := r[0]
	if e == 0 {
		return a, nil
	}

	next := make([]float64, order)
	for i := 0; i < order; i++ {
		var acc float64
		for j := 0; j < i; j++ {
			acc += a[j] * r[i-j]
		}
		k := -(r[i+1] + acc) / e

		for j := 0; j < i; j++ {
			next[j] = a[j] + k*a[i-1-j]
		}
		next[i] = k
		copy(a[:i+1], next[:i+1])

		e *= 1 - k*k
		if e <= 0 {
			e = 1e-9
		}
	}

	return a, nil
}

// polyRoots returns the roots of z^p + a1 z^(p-1) + ... + ap as companion matrix eigenvalues
func polyRoots(a []float64) ([]complex128, error) {
	p := len(a)
	if p == 0 {
		return nil, nil
	}

	companion := mat.NewDense(p, p, nil)
	for j := 0; j < p; j++ {
		companion.Set(0, j, -a[j])
	}
	for i := 1; i < p; i++ {
		companion.Set(i, i-1, 1)
	}

	var eig mat.Eigen
	if ok := eig.Factorize(companion, mat.EigenNone); !ok {
		return nil, errors.New("eigen decomposition of companion matrix failed")
	}

	return eig.Values(nil), nil
}
