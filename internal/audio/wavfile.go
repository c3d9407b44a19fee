package audio

import (
	"errors"
	"fmt"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavBitDepth = 16

// ErrInvalidWAV is returned for files that are not 16-bit PCM WAV
var ErrInvalidWAV = errors.New("invalid WAV file")

// ReadWAV loads a 16-bit PCM WAV file as float samples in [-1, 1].
// Multi-channel files are downmixed to mono.
func ReadWAV(path string) ([]float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, 0, fmt.Errorf("%w: %s", ErrInvalidWAV, path)
	}
	if decoder.BitDepth != wavBitDepth {
		return nil, 0, fmt.Errorf("%w: %d-bit samples, only 16-bit is supported", ErrInvalidWAV, decoder.BitDepth)
	}

	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		channels = 1
	}

	samples := make([]float64, len(buf.Data)/channels)
	for i := range samples {
		var sum int
		for c := 0; c < channels; c++ {
			sum += buf.Data[i*channels+c]
		}
		samples[i] = float64(sum) / float64(channels) / pcmScale
	}

	return samples, int(decoder.SampleRate), nil
}

// WriteWAV stores mono float samples as a 16-bit PCM WAV file, clipping to the int16 range
func WriteWAV(path string, samples []float64, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	ints := make([]int, len(samples))
	for i, v := range samples {
		ints[i] = int(toInt16(v))
	}

	enc := wav.NewEncoder(f, sampleRate, wavBitDepth, 1, 1)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: 1,
			SampleRate:  sampleRate,
		},
		Data:           ints,
		SourceBitDepth: wavBitDepth,
	}

	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize %s: %w", path, err)
	}

	return nil
}
