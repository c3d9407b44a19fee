package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/MulchEnjoyer/Yongue-Cheek/internal/config"
	"github.com/MulchEnjoyer/Yongue-Cheek/internal/extractor"
	"github.com/MulchEnjoyer/Yongue-Cheek/internal/metrics"
	"github.com/MulchEnjoyer/Yongue-Cheek/internal/server"
	"github.com/MulchEnjoyer/Yongue-Cheek/internal/stream"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "yongue-cheek"
	serviceVersion    = "1.0.0"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "server",
	Short: "Real-time vowel feedback analysis service",
	Long: `Accepts 16-bit PCM audio over a WebSocket, calibrates the room's noise
floor, and streams back formants, pitch, intensity and the nearest vowel
for every analysis tick.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath, cmd.Flags().Changed("config"))
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
			if err := cfg.Logging.Validate(); err != nil {
				return fmt.Errorf("logging config: %w", err)
			}
		}
		return run(cfg)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "Path to configuration file")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level (debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config file. A missing default file falls back to built-in defaults.
func loadConfig(path string, explicit bool) (*config.Config, error) {
	if !explicit {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			return config.Default(), nil
		}
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func run(cfg *config.Config) error {
	logger := initLogger(cfg.Logging)

	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", configPath),
	)

	logger.Info("Configuration loaded",
		slog.String("address", cfg.Server.Address()),
		slog.String("ws_path", cfg.Server.WSPath),
		slog.Int("max_concurrent_sessions", cfg.Server.MaxConcurrentSessions),
		slog.Int("sample_rate", cfg.Audio.SampleRate),
		slog.Int("buffer_samples", cfg.Audio.GetBufferSamples()),
		slog.Int("analysis_window", cfg.Audio.AnalysisWindow),
		slog.Duration("cadence", cfg.Audio.GetCadenceDuration()),
		slog.Duration("calibration", cfg.Calibration.GetDuration()),
		slog.String("log_level", cfg.Logging.Level),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appMetrics := metrics.NewMetrics(prometheus.DefaultRegisterer)
	logger.Info("Prometheus metrics initialized", slog.Bool("enabled", cfg.Metrics.Enabled))

	lpc := extractor.NewLPC(cfg.Extractor)
	logger.Info("Feature extractor initialized",
		slog.Int("lpc_order", lpc.Order(cfg.Audio.SampleRate)),
		slog.Float64("max_formant", cfg.Extractor.MaxFormant),
	)

	streamMgr, err := stream.NewManager(logger, cfg, lpc, appMetrics)
	if err != nil {
		logger.Error("Failed to create session manager", slog.String("error", err.Error()))
		return err
	}

	httpServer := server.NewHTTPServer(cfg, logger, streamMgr, appMetrics, prometheus.DefaultGatherer)

	logger.Info("Service started successfully, waiting for signals...")

	if err := httpServer.Run(ctx); err != nil {
		logger.Error("Server stopped with error", slog.String("error", err.Error()))
		streamMgr.Stop()
		return err
	}

	streamMgr.Stop()

	stats := streamMgr.GetStats()
	logger.Info("Final session statistics",
		slog.Uint64("sessions_created", stats.TotalCreated),
		slog.Uint64("sessions_removed", stats.TotalRemoved),
		slog.Uint64("sessions_rejected", stats.TotalRejected),
	)

	logger.Info("Service stopped")
	return nil
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		// Anything else is a file path
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
