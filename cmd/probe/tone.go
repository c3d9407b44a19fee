package main

import (
	"fmt"
	"math"
	"time"

	"github.com/spf13/cobra"

	"github.com/MulchEnjoyer/Yongue-Cheek/internal/audio"
)

var toneOpts struct {
	f1, f2, f3 float64
	pitch      float64
	amplitude  float64
	duration   time.Duration
	rate       int
}

var toneCmd = &cobra.Command{
	Use:   "tone <out.wav>",
	Short: "Synthesise a steady vowel-like tone",
	Long: `Write a harmonic tone whose spectral envelope peaks at the given
formants. Useful for checking the pipeline without a microphone.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		samples := synthVowel(toneOpts.f1, toneOpts.f2, toneOpts.f3, toneOpts.pitch,
			toneOpts.amplitude, toneOpts.rate, int(toneOpts.duration.Seconds()*float64(toneOpts.rate)))
		if err := audio.WriteWAV(args[0], samples, toneOpts.rate); err != nil {
			return err
		}
		fmt.Printf("Wrote %s (%d samples at %d Hz)\n", args[0], len(samples), toneOpts.rate)
		return nil
	},
}

func init() {
	toneCmd.Flags().Float64Var(&toneOpts.f1, "f1", 800, "First formant (Hz)")
	toneCmd.Flags().Float64Var(&toneOpts.f2, "f2", 1500, "Second formant (Hz)")
	toneCmd.Flags().Float64Var(&toneOpts.f3, "f3", 2500, "Third formant (Hz)")
	toneCmd.Flags().Float64Var(&toneOpts.pitch, "pitch", 120, "Fundamental frequency (Hz)")
	toneCmd.Flags().Float64Var(&toneOpts.amplitude, "amplitude", 0.5, "Peak amplitude (0-1)")
	toneCmd.Flags().DurationVar(&toneOpts.duration, "duration", 3*time.Second, "Tone length")
	toneCmd.Flags().IntVar(&toneOpts.rate, "rate", 16000, "Sample rate (Hz)")
}

// formantBandwidth is the half-power width of each synthetic resonance
const formantBandwidth = 90.0

// synthVowel sums the harmonics of pitch below Nyquist, each weighted by a
// resonance envelope around the formants, and normalises to amplitude.
func synthVowel(f1, f2, f3, pitch, amplitude float64, sampleRate, n int) []float64 {
	out := make([]float64, n)
	if n == 0 || pitch <= 0 {
		return out
	}

	nyquist := float64(sampleRate) / 2
	for k := 1; float64(k)*pitch < nyquist; k++ {
		f := float64(k) * pitch
		gain := resonance(f, f1) + 0.7*resonance(f, f2) + 0.4*resonance(f, f3)
		if gain < 1e-4 {
			continue
		}
		w := 2 * math.Pi * f / float64(sampleRate)
		for i := range out {
			out[i] += gain * math.Sin(w*float64(i))
		}
	}

	var peak float64
	for _, v := range out {
		peak = math.Max(peak, math.Abs(v))
	}
	if peak > 0 {
		for i := range out {
			out[i] *= amplitude / peak
		}
	}

	return out
}

func resonance(f, center float64) float64 {
	if center <= 0 {
		return 0
	}
	d := (f - center) / formantBandwidth
	return 1 / (1 + d*d)
}
