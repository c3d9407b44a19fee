package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected default configuration to be valid, got: %v", err)
	}

	if cfg.Audio.GetBufferSamples() != 3200 {
		t.Errorf("Expected 3200 buffered samples at 16kHz/0.2s, got %d", cfg.Audio.GetBufferSamples())
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid configuration",
			mutate:      func(c *Config) {},
			expectError: false,
		},
		{
			name:        "invalid server port",
			mutate:      func(c *Config) { c.Server.Port = 70000 },
			expectError: true,
			errorMsg:    "port must be between 1 and 65535",
		},
		{
			name:        "ws path without slash",
			mutate:      func(c *Config) { c.Server.WSPath = "ws" },
			expectError: true,
			errorMsg:    "ws_path must start with '/'",
		},
		{
			name:        "unsupported sample rate",
			mutate:      func(c *Config) { c.Audio.SampleRate = 4000 },
			expectError: true,
			errorMsg:    "sample_rate must be between",
		},
		{
			name:        "cadence larger than window",
			mutate:      func(c *Config) { c.Audio.Cadence = 2048 },
			expectError: true,
			errorMsg:    "cadence must be between",
		},
		{
			name:        "buffer shorter than analysis window",
			mutate:      func(c *Config) { c.Audio.BufferDuration = 0.05 },
			expectError: true,
			errorMsg:    "buffer_duration",
		},
		{
			name:        "calibration percentile out of range",
			mutate:      func(c *Config) { c.Calibration.Percentile = 1.5 },
			expectError: true,
			errorMsg:    "percentile must be between 0 and 1",
		},
		{
			name:        "calibration chunk smaller than min frame",
			mutate:      func(c *Config) { c.Calibration.ChunkSamples = 128 },
			expectError: true,
			errorMsg:    "chunk_samples",
		},
		{
			name:        "gate multiplier below one",
			mutate:      func(c *Config) { c.Gate.RMSMultiplier = 0.5 },
			expectError: true,
			errorMsg:    "rms_multiplier must be at least 1",
		},
		{
			name:        "smoothing factor of one",
			mutate:      func(c *Config) { c.Smoothing.Factor = 1 },
			expectError: true,
			errorMsg:    "factor must be in [0, 1)",
		},
		{
			name:        "max formant above nyquist",
			mutate:      func(c *Config) { c.Extractor.MaxFormant = 9000 },
			expectError: true,
			errorMsg:    "max_formant must be between",
		},
		{
			name:        "pitch ceiling below floor",
			mutate:      func(c *Config) { c.Extractor.PitchCeiling = 50 },
			expectError: true,
			errorMsg:    "pitch_ceiling",
		},
		{
			name:        "metrics path without slash",
			mutate:      func(c *Config) { c.Metrics.Path = "metrics" },
			expectError: true,
			errorMsg:    "path must start with '/'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				} else if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error to contain '%s', got '%s'", tt.errorMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}
		})
	}
}

func TestConfigLoad(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		name        string
		configYAML  string
		expectError bool
		errorMsg    string
		check       func(t *testing.T, c *Config)
	}{
		{
			name: "partial file keeps defaults",
			configYAML: `
server:
  port: 9000
audio:
  sample_rate: 22050
  buffer_duration: 0.25
logging:
  level: "debug"
  format: "json"
`,
			check: func(t *testing.T, c *Config) {
				if c.Server.Port != 9000 {
					t.Errorf("Expected port 9000, got %d", c.Server.Port)
				}
				if c.Server.WSPath != "/ws/audio" {
					t.Errorf("Expected default ws path, got %s", c.Server.WSPath)
				}
				if c.Audio.SampleRate != 22050 {
					t.Errorf("Expected sample rate 22050, got %d", c.Audio.SampleRate)
				}
				if c.Audio.Cadence != 512 {
					t.Errorf("Expected default cadence 512, got %d", c.Audio.Cadence)
				}
				if c.Gate.MinRMS != 0.03 {
					t.Errorf("Expected default min_rms 0.03, got %f", c.Gate.MinRMS)
				}
				if c.Logging.Format != "json" {
					t.Errorf("Expected json logging, got %s", c.Logging.Format)
				}
			},
		},
		{
			name: "invalid YAML syntax",
			configYAML: `
server:
  port: invalid_number
`,
			expectError: true,
			errorMsg:    "failed to parse",
		},
		{
			name: "invalid values",
			configYAML: `
server:
  bind_address: ""
`,
			expectError: true,
			errorMsg:    "bind_address cannot be empty",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(tempDir, "config.yaml")
			if err := os.WriteFile(configPath, []byte(tt.configYAML), 0644); err != nil {
				t.Fatalf("Failed to create test config file: %v", err)
			}

			cfg, err := Load(configPath)

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				} else if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error to contain '%s', got '%s'", tt.errorMsg, err.Error())
				}
				return
			}

			if err != nil {
				t.Fatalf("Expected no error but got: %v", err)
			}
			if tt.check != nil {
				tt.check(t, cfg)
			}
		})
	}
}

func TestConfigLoadNonexistentFile(t *testing.T) {
	_, err := Load("nonexistent.yaml")
	if err == nil {
		t.Fatalf("Expected error for nonexistent file but got none")
	}
	if !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("Expected error about reading file, got: %v", err)
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := Default()

	if cfg.Audio.GetBufferDuration() != 200*time.Millisecond {
		t.Errorf("Expected 200ms buffer, got %v", cfg.Audio.GetBufferDuration())
	}

	if cfg.Audio.GetCadenceDuration() != 32*time.Millisecond {
		t.Errorf("Expected 32ms cadence, got %v", cfg.Audio.GetCadenceDuration())
	}

	if cfg.Calibration.GetDuration() != time.Second {
		t.Errorf("Expected 1s calibration, got %v", cfg.Calibration.GetDuration())
	}

	if cfg.Server.GetWriteTimeout() != 5*time.Second {
		t.Errorf("Expected 5s write timeout, got %v", cfg.Server.GetWriteTimeout())
	}

	if cfg.Server.Address() != "0.0.0.0:8001" {
		t.Errorf("Expected 0.0.0.0:8001, got %s", cfg.Server.Address())
	}
}

func TestLoggingConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		config LoggingConfig
		valid  bool
	}{
		{
			name:   "valid json to stdout",
			config: LoggingConfig{Level: "info", Format: "json", Output: "stdout"},
			valid:  true,
		},
		{
			name:   "valid text to file",
			config: LoggingConfig{Level: "debug", Format: "text", Output: "/tmp/service.log"},
			valid:  true,
		},
		{
			name:   "invalid log level",
			config: LoggingConfig{Level: "trace", Format: "json", Output: "stdout"},
			valid:  false,
		},
		{
			name:   "invalid format",
			config: LoggingConfig{Level: "info", Format: "xml", Output: "stdout"},
			valid:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.valid && err != nil {
				t.Errorf("Expected valid config but got error: %v", err)
			}
			if !tt.valid && err == nil {
				t.Errorf("Expected invalid config but got no error")
			}
		})
	}
}

func TestShippedConfigMatchesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "config.yaml"))
	if err != nil {
		t.Fatalf("Expected shipped config to load, got: %v", err)
	}

	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("Expected shipped config to match defaults\ngot:  %+v\nwant: %+v", cfg, Default())
	}
}
