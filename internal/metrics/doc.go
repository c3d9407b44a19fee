// Package metrics exposes Prometheus instrumentation for sessions, audio
// ingest, calibration, analysis ticks, control messages and the HTTP API.
package metrics
