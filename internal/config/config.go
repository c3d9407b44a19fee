package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete service configuration
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Audio       AudioConfig       `yaml:"audio"`
	Calibration CalibrationConfig `yaml:"calibration"`
	Gate        GateConfig        `yaml:"gate"`
	Smoothing   SmoothingConfig   `yaml:"smoothing"`
	Extractor   ExtractorConfig   `yaml:"extractor"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ServerConfig contains HTTP/WebSocket server configuration
type ServerConfig struct {
	Port                  int      `yaml:"port"`
	BindAddress           string   `yaml:"bind_address"`
	WSPath                string   `yaml:"ws_path"`
	ReadLimit             int64    `yaml:"read_limit"`    // bytes per WebSocket message
	WriteTimeout          float64  `yaml:"write_timeout"` // seconds
	MaxConcurrentSessions int      `yaml:"max_concurrent_sessions"`
	AllowedOrigins        []string `yaml:"allowed_origins"`
}

// AudioConfig contains the rolling buffer and analysis cadence parameters
type AudioConfig struct {
	SampleRate     int     `yaml:"sample_rate"`
	BufferDuration float64 `yaml:"buffer_duration"` // seconds
	AnalysisWindow int     `yaml:"analysis_window"` // samples
	Cadence        int     `yaml:"cadence"`         // samples between analysis ticks
	HighPassCutoff float64 `yaml:"highpass_cutoff"` // Hz
}

// CalibrationConfig contains noise floor calibration parameters
type CalibrationConfig struct {
	Duration         float64 `yaml:"duration"`      // seconds of history kept
	ChunkSamples     int     `yaml:"chunk_samples"` // samples per calibration frame
	MinFrameSamples  int     `yaml:"min_frame_samples"`
	Percentile       float64 `yaml:"percentile"`
	DefaultRMS       float64 `yaml:"default_rms"`
	DefaultIntensity float64 `yaml:"default_intensity"` // dB
	IntensityMargin  float64 `yaml:"intensity_margin"`  // dB subtracted from the measured intensity
	MinIntensity     float64 `yaml:"min_intensity"`     // dB
}

// GateConfig contains voice activity gate thresholds
type GateConfig struct {
	RMSMultiplier         float64 `yaml:"rms_multiplier"`
	IntensityOffset       float64 `yaml:"intensity_offset"` // dB
	MinRMS                float64 `yaml:"min_rms"`
	MinIntensity          float64 `yaml:"min_intensity"` // dB
	UncalibratedRMS       float64 `yaml:"uncalibrated_rms"`
	UncalibratedIntensity float64 `yaml:"uncalibrated_intensity"` // dB
}

// SmoothingConfig contains temporal smoothing parameters
type SmoothingConfig struct {
	Factor        float64 `yaml:"factor"`
	SilenceDecay  float64 `yaml:"silence_decay"`
	UnvoicedDecay float64 `yaml:"unvoiced_decay"`
}

// ExtractorConfig contains parameters of the built-in LPC feature extractor
type ExtractorConfig struct {
	LPCOrder         int     `yaml:"lpc_order"` // 0 derives the order from the sample rate
	MaxFormant       float64 `yaml:"max_formant"`
	PreEmphasis      float64 `yaml:"pre_emphasis"` // Hz
	PitchFloor       float64 `yaml:"pitch_floor"`
	PitchCeiling     float64 `yaml:"pitch_ceiling"`
	VoicingThreshold float64 `yaml:"voicing_threshold"`
}

// MetricsConfig contains Prometheus exposition settings
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default returns the configuration used when no file overrides a value
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:                  8001,
			BindAddress:           "0.0.0.0",
			WSPath:                "/ws/audio",
			ReadLimit:             1 << 20,
			WriteTimeout:          5,
			MaxConcurrentSessions: 256,
			AllowedOrigins:        []string{"*"},
		},
		Audio: AudioConfig{
			SampleRate:     16000,
			BufferDuration: 0.2,
			AnalysisWindow: 1024,
			Cadence:        512,
			HighPassCutoff: 80,
		},
		Calibration: CalibrationConfig{
			Duration:         1.0,
			ChunkSamples:     512,
			MinFrameSamples:  256,
			Percentile:       0.9,
			DefaultRMS:       0.01,
			DefaultIntensity: 30,
			IntensityMargin:  5,
			MinIntensity:     20,
		},
		Gate: GateConfig{
			RMSMultiplier:         2.5,
			IntensityOffset:       10,
			MinRMS:                0.03,
			MinIntensity:          40,
			UncalibratedRMS:       0.04,
			UncalibratedIntensity: 45,
		},
		Smoothing: SmoothingConfig{
			Factor:        0.3,
			SilenceDecay:  0.5,
			UnvoicedDecay: 0.8,
		},
		Extractor: ExtractorConfig{
			LPCOrder:         0,
			MaxFormant:       5500,
			PreEmphasis:      50,
			PitchFloor:       75,
			PitchCeiling:     500,
			VoicingThreshold: 0.45,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// Load reads the configuration file, overlays it on the defaults and validates the result
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}

	if err := c.Calibration.Validate(); err != nil {
		return fmt.Errorf("calibration config: %w", err)
	}

	if err := c.Gate.Validate(); err != nil {
		return fmt.Errorf("gate config: %w", err)
	}

	if err := c.Smoothing.Validate(); err != nil {
		return fmt.Errorf("smoothing config: %w", err)
	}

	if err := c.Extractor.Validate(c.Audio.SampleRate); err != nil {
		return fmt.Errorf("extractor config: %w", err)
	}

	if err := c.Metrics.Validate(); err != nil {
		return fmt.Errorf("metrics config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (s *ServerConfig) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", s.Port)
	}

	if s.BindAddress == "" {
		return fmt.Errorf("bind_address cannot be empty")
	}

	if len(s.WSPath) == 0 || s.WSPath[0] != '/' {
		return fmt.Errorf("ws_path must start with '/', got '%s'", s.WSPath)
	}

	if s.ReadLimit < 1024 {
		return fmt.Errorf("read_limit must be at least 1024 bytes, got %d", s.ReadLimit)
	}

	if s.WriteTimeout <= 0 {
		return fmt.Errorf("write_timeout must be positive, got %f", s.WriteTimeout)
	}

	if s.MaxConcurrentSessions < 1 {
		return fmt.Errorf("max_concurrent_sessions must be at least 1, got %d", s.MaxConcurrentSessions)
	}

	return nil
}

// Validate validates audio configuration
func (a *AudioConfig) Validate() error {
	if a.SampleRate < 8000 || a.SampleRate > 48000 {
		return fmt.Errorf("sample_rate must be between 8000 and 48000 Hz, got %d", a.SampleRate)
	}

	if a.AnalysisWindow < 256 {
		return fmt.Errorf("analysis_window must be at least 256 samples, got %d", a.AnalysisWindow)
	}

	if a.Cadence < 1 || a.Cadence > a.AnalysisWindow {
		return fmt.Errorf("cadence must be between 1 and analysis_window (%d), got %d", a.AnalysisWindow, a.Cadence)
	}

	if a.GetBufferSamples() < a.AnalysisWindow {
		return fmt.Errorf("buffer_duration (%f) must hold at least analysis_window (%d) samples",
			a.BufferDuration, a.AnalysisWindow)
	}

	if a.HighPassCutoff <= 0 || a.HighPassCutoff >= float64(a.SampleRate)/2 {
		return fmt.Errorf("highpass_cutoff must be between 0 and the Nyquist frequency, got %f", a.HighPassCutoff)
	}

	return nil
}

// Validate validates calibration configuration
func (c *CalibrationConfig) Validate() error {
	if c.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", c.Duration)
	}

	if c.ChunkSamples < c.MinFrameSamples {
		return fmt.Errorf("chunk_samples (%d) must be at least min_frame_samples (%d)", c.ChunkSamples, c.MinFrameSamples)
	}

	if c.MinFrameSamples < 1 {
		return fmt.Errorf("min_frame_samples must be positive, got %d", c.MinFrameSamples)
	}

	if c.Percentile <= 0 || c.Percentile >= 1 {
		return fmt.Errorf("percentile must be between 0 and 1 (exclusive), got %f", c.Percentile)
	}

	if c.DefaultRMS < 0 || c.DefaultIntensity < 0 || c.MinIntensity < 0 {
		return fmt.Errorf("default_rms, default_intensity and min_intensity cannot be negative")
	}

	return nil
}

// Validate validates voice activity gate configuration
func (g *GateConfig) Validate() error {
	if g.RMSMultiplier < 1 {
		return fmt.Errorf("rms_multiplier must be at least 1, got %f", g.RMSMultiplier)
	}

	if g.MinRMS <= 0 || g.UncalibratedRMS <= 0 {
		return fmt.Errorf("min_rms and uncalibrated_rms must be positive")
	}

	if g.MinIntensity < 0 || g.UncalibratedIntensity < 0 || g.IntensityOffset < 0 {
		return fmt.Errorf("intensity thresholds cannot be negative")
	}

	return nil
}

// Validate validates smoothing configuration
func (s *SmoothingConfig) Validate() error {
	if s.Factor < 0 || s.Factor >= 1 {
		return fmt.Errorf("factor must be in [0, 1), got %f", s.Factor)
	}

	if s.SilenceDecay < 0 || s.SilenceDecay >= 1 {
		return fmt.Errorf("silence_decay must be in [0, 1), got %f", s.SilenceDecay)
	}

	if s.UnvoicedDecay < 0 || s.UnvoicedDecay >= 1 {
		return fmt.Errorf("unvoiced_decay must be in [0, 1), got %f", s.UnvoicedDecay)
	}

	return nil
}

// Validate validates extractor configuration against the session sample rate
func (e *ExtractorConfig) Validate(sampleRate int) error {
	if e.LPCOrder < 0 || e.LPCOrder > 64 {
		return fmt.Errorf("lpc_order must be between 0 and 64, got %d", e.LPCOrder)
	}

	if e.MaxFormant <= 0 || e.MaxFormant > float64(sampleRate)/2 {
		return fmt.Errorf("max_formant must be between 0 and %d Hz, got %f", sampleRate/2, e.MaxFormant)
	}

	if e.PreEmphasis < 0 {
		return fmt.Errorf("pre_emphasis cannot be negative, got %f", e.PreEmphasis)
	}

	if e.PitchFloor <= 0 || e.PitchCeiling <= e.PitchFloor {
		return fmt.Errorf("pitch_ceiling (%f) must be greater than pitch_floor (%f) > 0", e.PitchCeiling, e.PitchFloor)
	}

	if e.VoicingThreshold <= 0 || e.VoicingThreshold >= 1 {
		return fmt.Errorf("voicing_threshold must be between 0 and 1, got %f", e.VoicingThreshold)
	}

	return nil
}

// Validate validates metrics configuration
func (m *MetricsConfig) Validate() error {
	if m.Enabled && (len(m.Path) == 0 || m.Path[0] != '/') {
		return fmt.Errorf("path must start with '/' when metrics are enabled, got '%s'", m.Path)
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	// Anything other than stdout/stderr is treated as a file path
	return nil
}

// GetBufferSamples returns the rolling buffer capacity in samples
func (a *AudioConfig) GetBufferSamples() int {
	return int(float64(a.SampleRate) * a.BufferDuration)
}

// GetBufferDuration returns the rolling buffer length as a time.Duration
func (a *AudioConfig) GetBufferDuration() time.Duration {
	return time.Duration(a.BufferDuration * float64(time.Second))
}

// GetCadenceDuration returns the analysis tick interval as a time.Duration
func (a *AudioConfig) GetCadenceDuration() time.Duration {
	return time.Duration(a.Cadence) * time.Second / time.Duration(a.SampleRate)
}

// GetDuration returns the calibration history length as a time.Duration
func (c *CalibrationConfig) GetDuration() time.Duration {
	return time.Duration(c.Duration * float64(time.Second))
}

// GetWriteTimeout returns the per-message write timeout as a time.Duration
func (s *ServerConfig) GetWriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeout * float64(time.Second))
}

// Address returns the host:port the HTTP server listens on
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.BindAddress, s.Port)
}
