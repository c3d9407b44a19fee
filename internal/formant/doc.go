// Package formant turns raw per-frame formant estimates into stable display
// values. The Smoother damps frame-to-frame jitter and decays values towards
// zero through silence; the vowel table and Classify map an (F1, F2) pair onto
// the nearest reference vowel with a distance-based confidence.
package formant
