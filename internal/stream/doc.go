// Package stream runs the per-connection analysis state machine.
//
// A Session starts in the calibrating phase, learning the noise floor from
// the first second of audio, then analyses the newest window of its rolling
// buffer at a fixed cadence and emits one result per tick. Control messages
// can reset or recalibrate it at any time. Sessions are never shared between
// connections; the Manager only tracks them for monitoring and enforces the
// concurrent session limit.
package stream
