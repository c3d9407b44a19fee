// Package extractor measures acoustic features of a single analysis frame:
// the first three formants, fundamental frequency and intensity.
//
// The Extractor interface is the narrow seam the streaming pipeline depends
// on, so tests can substitute a Func. LPC is the built-in implementation; it
// estimates formants from the roots of a linear-prediction polynomial and
// pitch from the normalised autocorrelation of the frame.
package extractor
