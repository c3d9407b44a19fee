// Package config provides configuration loading and validation for the vowel feedback service.
// It handles YAML-based configuration overlaid on built-in defaults, with per-section
// validation for the server, audio pipeline, calibration, gate, smoothing and extractor.
package config
