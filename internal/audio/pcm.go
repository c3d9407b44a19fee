package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// pcmScale maps int16 samples onto [-1, 1)
const pcmScale = 32768.0

// ErrOddPayload is returned when a PCM-16 payload does not hold a whole number of samples
var ErrOddPayload = errors.New("pcm payload length must be even")

// DecodePCM16 converts little-endian signed 16-bit PCM bytes to normalised float samples
func DecodePCM16(data []byte) ([]float64, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("%w (got %d bytes)", ErrOddPayload, len(data))
	}

	samples := make([]float64, len(data)/2)
	for i := range samples {
		samples[i] = float64(int16(binary.LittleEndian.Uint16(data[i*2:]))) / pcmScale
	}

	return samples, nil
}

// EncodePCM16 converts normalised float samples to little-endian PCM-16, clipping to the int16 range
func EncodePCM16(samples []float64) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(toInt16(s)))
	}

	return data
}

func toInt16(s float64) int16 {
	v := math.Round(s * pcmScale)
	if v > math.MaxInt16 {
		return math.MaxInt16
	}
	if v < math.MinInt16 {
		return math.MinInt16
	}
	return int16(v)
}

// RMS returns the root-mean-square amplitude of a frame; an empty frame has RMS 0
func RMS(frame []float64) float64 {
	if len(frame) == 0 {
		return 0
	}

	var sum float64
	for _, s := range frame {
		sum += s * s
	}

	return math.Sqrt(sum / float64(len(frame)))
}
