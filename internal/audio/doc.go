// Package audio handles per-session sample handling ahead of analysis.
// It decodes little-endian PCM-16 payloads into normalised samples, applies the
// 80Hz high-pass pre-filter, and keeps the bounded rolling buffer that turns
// irregular network chunks into fixed-cadence, fixed-window analysis frames.
//
// WAV file I/O and sample-rate conversion support clients that feed recorded
// audio into the service.
package audio
