package main

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/MulchEnjoyer/Yongue-Cheek/internal/formant"
	"github.com/MulchEnjoyer/Yongue-Cheek/internal/protocol"
)

var (
	accent = lipgloss.Color("#00ff9f")
	dim    = lipgloss.Color("#6e7681")
	warn   = lipgloss.Color("#ffb86c")

	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(accent)
	labelStyle  = lipgloss.NewStyle().Foreground(dim)
	statusStyle = lipgloss.NewStyle().Bold(true).Foreground(warn)
	vowelStyle  = lipgloss.NewStyle().Bold(true).Foreground(accent).Width(3)
	silentStyle = lipgloss.NewStyle().Foreground(dim)
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(accent).Padding(0, 1)
)

const confidenceBarWidth = 10

// renderer prints stream progress and keeps running totals for the summary
type renderer struct {
	out   io.Writer
	quiet bool
	names map[string]string

	results  int
	voiced   int
	statuses map[string]int
	vowels   map[string]int
	confSum  map[string]float64
}

func newRenderer(out io.Writer, quiet bool) *renderer {
	names := make(map[string]string)
	for _, v := range formant.Vowels() {
		names[v.Symbol] = v.Name
	}
	return &renderer{
		out:      out,
		quiet:    quiet,
		names:    names,
		statuses: make(map[string]int),
		vowels:   make(map[string]int),
		confSum:  make(map[string]float64),
	}
}

func (r *renderer) header(path string, fileRate, rate, samples int, passthrough bool) {
	conversion := "no resampling"
	if !passthrough {
		conversion = fmt.Sprintf("resampled %d Hz -> %d Hz", fileRate, rate)
	}
	fmt.Fprintln(r.out, titleStyle.Render("Streaming "+path))
	fmt.Fprintln(r.out, labelStyle.Render(fmt.Sprintf("%.2fs of audio, %s", float64(samples)/float64(rate), conversion)))
}

func (r *renderer) status(s protocol.Status) {
	r.statuses[s.Type]++

	line := statusStyle.Render("● " + s.Type)
	if s.NoiseFloor != nil {
		line += labelStyle.Render(fmt.Sprintf("  noise floor rms=%.4f intensity=%.1f dB", s.NoiseFloor.RMS, s.NoiseFloor.Intensity))
	}
	if s.Message != "" {
		line += labelStyle.Render("  " + s.Message)
	}
	fmt.Fprintln(r.out, line)
}

func (r *renderer) result(res protocol.Result) {
	r.results++
	if res.IsVoiced {
		r.voiced++
	}
	if res.DetectedVowel != nil {
		r.vowels[*res.DetectedVowel]++
		r.confSum[*res.DetectedVowel] += res.Confidence
	}

	if r.quiet {
		return
	}
	fmt.Fprintln(r.out, r.formatResult(res))
}

func (r *renderer) formatResult(res protocol.Result) string {
	if !res.IsVoiced {
		return silentStyle.Render(fmt.Sprintf("  ·   F1 %6.1f  F2 %6.1f  %5.1f dB", res.F1, res.F2, res.Intensity))
	}

	symbol, name := "?", ""
	if res.DetectedVowel != nil {
		symbol = *res.DetectedVowel
		name = r.names[symbol]
	}

	return fmt.Sprintf("%s %s  %s %s",
		vowelStyle.Render(symbol),
		fmt.Sprintf("F1 %6.1f  F2 %6.1f  F3 %6.1f  F0 %5.1f  %5.1f dB", res.F1, res.F2, res.F3, res.Pitch, res.Intensity),
		confidenceBar(res.Confidence),
		labelStyle.Render(name),
	)
}

func confidenceBar(c float64) string {
	filled := int(c*confidenceBarWidth + 0.5)
	filled = max(0, min(confidenceBarWidth, filled))
	return titleStyle.Render(strings.Repeat("█", filled)) +
		labelStyle.Render(strings.Repeat("░", confidenceBarWidth-filled))
}

type vowelCount struct {
	symbol string
	count  int
}

func (r *renderer) summary() {
	var lines []string
	lines = append(lines, titleStyle.Render("Summary"))

	voicePct := 0.0
	if r.results > 0 {
		voicePct = float64(r.voiced) / float64(r.results) * 100
	}
	lines = append(lines, fmt.Sprintf("%s %d  %s %d (%.1f%%)",
		labelStyle.Render("results"), r.results,
		labelStyle.Render("voiced"), r.voiced, voicePct))

	if n := r.statuses[protocol.TypeCalibrated]; n > 0 {
		lines = append(lines, fmt.Sprintf("%s %d", labelStyle.Render("calibrations"), n))
	}

	counts := make([]vowelCount, 0, len(r.vowels))
	for symbol, n := range r.vowels {
		counts = append(counts, vowelCount{symbol: symbol, count: n})
	}
	slices.SortFunc(counts, func(a, b vowelCount) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}
		return cmp.Compare(a.symbol, b.symbol)
	})

	for _, vc := range counts {
		lines = append(lines, fmt.Sprintf("%s %4d  %s  %s",
			vowelStyle.Render(vc.symbol), vc.count,
			confidenceBar(r.confSum[vc.symbol]/float64(vc.count)),
			labelStyle.Render(r.names[vc.symbol])))
	}

	fmt.Fprintln(r.out, boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
}
