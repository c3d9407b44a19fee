package main

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MulchEnjoyer/Yongue-Cheek/internal/config"
	"github.com/MulchEnjoyer/Yongue-Cheek/internal/extractor"
	"github.com/MulchEnjoyer/Yongue-Cheek/internal/protocol"
)

func TestSynthVowelPeakAmplitude(t *testing.T) {
	samples := synthVowel(800, 1500, 2500, 120, 0.5, 16000, 4000)
	require.Len(t, samples, 4000)

	var peak float64
	for _, v := range samples {
		peak = math.Max(peak, math.Abs(v))
	}
	assert.InDelta(t, 0.5, peak, 1e-9)
}

func TestSynthVowelDegenerateInput(t *testing.T) {
	assert.Empty(t, synthVowel(800, 1500, 2500, 120, 0.5, 16000, 0))
	assert.Equal(t, make([]float64, 10), synthVowel(800, 1500, 2500, 0, 0.5, 16000, 10))
}

func TestSynthVowelFormantsRecovered(t *testing.T) {
	samples := synthVowel(700, 1200, 2600, 150, 0.5, 16000, 1024)

	features, err := extractor.NewLPC(config.Default().Extractor).Extract(samples, 16000)
	require.NoError(t, err)
	assert.InDelta(t, 150, features.Pitch, 5)
	assert.Greater(t, features.Intensity, 60.0)
}

func TestRendererCountsResults(t *testing.T) {
	var out bytes.Buffer
	r := newRenderer(&out, false)

	a := "a"
	r.status(protocol.Calibrated(protocol.NoiseFloor{RMS: 0.01, Intensity: 30}))
	r.result(protocol.Result{F1: 800, F2: 1500, IsVoiced: true, DetectedVowel: &a, Confidence: 0.9})
	r.result(protocol.Result{F1: 640, F2: 1200, Intensity: 35})
	r.summary()

	assert.Equal(t, 2, r.results)
	assert.Equal(t, 1, r.voiced)
	assert.Equal(t, 1, r.vowels["a"])
	assert.Equal(t, 1, r.statuses[protocol.TypeCalibrated])

	text := out.String()
	assert.Contains(t, text, "calibrated")
	assert.Contains(t, text, "open front")
	assert.True(t, strings.Contains(text, "Summary"))
}

func TestRendererQuietSkipsResults(t *testing.T) {
	var out bytes.Buffer
	r := newRenderer(&out, true)

	r.result(protocol.Result{F1: 800, F2: 1500, IsVoiced: true})
	assert.Empty(t, out.String())
	assert.Equal(t, 1, r.results)
}

func TestConfidenceBar(t *testing.T) {
	assert.Equal(t, confidenceBarWidth, strings.Count(confidenceBar(1), "█"))
	assert.Equal(t, confidenceBarWidth, strings.Count(confidenceBar(0), "░"))
	assert.Equal(t, 5, strings.Count(confidenceBar(0.5), "█"))
	assert.Equal(t, confidenceBarWidth, strings.Count(confidenceBar(3), "█"))
}
