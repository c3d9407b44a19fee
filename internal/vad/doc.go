// Package vad decides whether an analysis frame contains speech.
// A Calibrator learns the ambient noise floor from the first second of a
// session, and a Gate compares each frame's RMS energy and measured intensity
// against thresholds derived from that floor, falling back to fixed
// conservative thresholds while the session is still uncalibrated.
package vad
