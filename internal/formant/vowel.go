package formant

import "math"

const (
	f1Weight = 1.2
	f2Weight = 0.8

	// distance in weighted Hz at which confidence reaches zero
	confidenceSpan = 400.0
)

// Vowel is a reference vowel target on the F1/F2 plane
type Vowel struct {
	Symbol string  `json:"symbol"`
	Name   string  `json:"name"`
	F1     float64 `json:"f1"`
	F2     float64 `json:"f2"`
}

// vowels is ordered; earlier entries win distance ties
var vowels = []Vowel{
	{Symbol: "i", Name: "close front", F1: 280, F2: 2300},
	{Symbol: "ɪ", Name: "near-close front", F1: 400, F2: 2000},
	{Symbol: "e", Name: "close-mid front", F1: 400, F2: 2100},
	{Symbol: "ɛ", Name: "open-mid front", F1: 550, F2: 1900},
	{Symbol: "æ", Name: "near-open front", F1: 700, F2: 1700},
	{Symbol: "a", Name: "open front", F1: 800, F2: 1500},
	{Symbol: "ɨ", Name: "close central", F1: 300, F2: 1600},
	{Symbol: "ə", Name: "mid central", F1: 500, F2: 1500},
	{Symbol: "ɐ", Name: "near-open central", F1: 700, F2: 1400},
	{Symbol: "u", Name: "close back", F1: 300, F2: 900},
	{Symbol: "ʊ", Name: "near-close back", F1: 400, F2: 1000},
	{Symbol: "o", Name: "close-mid back", F1: 450, F2: 900},
	{Symbol: "ɔ", Name: "open-mid back", F1: 600, F2: 1000},
	{Symbol: "ɑ", Name: "open back", F1: 750, F2: 1100},
}

// Vowels returns a copy of the reference table in tie-break order
func Vowels() []Vowel {
	out := make([]Vowel, len(vowels))
	copy(out, vowels)
	return out
}

// Match is the outcome of a classification
type Match struct {
	Vowel      *Vowel
	Distance   float64
	Confidence float64
}

// Distance is the weighted Euclidean distance between a measurement and a vowel target
func Distance(f1, f2 float64, v Vowel) float64 {
	d1 := (f1 - v.F1) * f1Weight
	d2 := (f2 - v.F2) * f2Weight
	return math.Hypot(d1, d2)
}

// Classify returns the nearest vowel for the given formants.
// A zero F1 or F2 yields no vowel and zero confidence.
func Classify(f1, f2 float64) Match {
	if f1 == 0 || f2 == 0 {
		return Match{}
	}

	best := -1
	bestDist := math.Inf(1)
	for i, v := range vowels {
		if d := Distance(f1, f2, v); d < bestDist {
			best, bestDist = i, d
		}
	}

	v := vowels[best]
	return Match{
		Vowel:      &v,
		Distance:   bestDist,
		Confidence: math.Max(0, 1-bestDist/confidenceSpan),
	}
}

// Symbol returns the matched vowel symbol, or nil when nothing matched
func (m Match) Symbol() *string {
	if m.Vowel == nil {
		return nil
	}
	s := m.Vowel.Symbol
	return &s
}
