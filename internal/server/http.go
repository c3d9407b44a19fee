package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/MulchEnjoyer/Yongue-Cheek/internal/config"
	"github.com/MulchEnjoyer/Yongue-Cheek/internal/formant"
	"github.com/MulchEnjoyer/Yongue-Cheek/internal/metrics"
	"github.com/MulchEnjoyer/Yongue-Cheek/internal/stream"
)

const (
	serviceName    = "yongue-cheek"
	serviceVersion = "1.0.0"

	shutdownTimeout = 10 * time.Second
)

// HTTPServer serves the audio WebSocket plus the monitoring API
type HTTPServer struct {
	server    *http.Server
	logger    *slog.Logger
	config    *config.Config
	streamMgr *stream.Manager
	metrics   *metrics.Metrics
	ws        *WSHandler

	startTime time.Time
}

// NewHTTPServer creates the HTTP server. gatherer backs the metrics endpoint;
// nil uses the default Prometheus registry.
func NewHTTPServer(cfg *config.Config, logger *slog.Logger, streamMgr *stream.Manager,
	m *metrics.Metrics, gatherer prometheus.Gatherer) *HTTPServer {

	h := &HTTPServer{
		logger:    logger,
		config:    cfg,
		streamMgr: streamMgr,
		metrics:   m,
		ws:        NewWSHandler(cfg.Server, logger, streamMgr),
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	h.setupRoutes(mux, gatherer)

	// WebSocket connections are long lived, so only the header read is bounded
	h.server = &http.Server{
		Addr:              cfg.Server.Address(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	h.server.RegisterOnShutdown(h.ws.Close)

	return h
}

// setupRoutes configures HTTP API routes
func (h *HTTPServer) setupRoutes(mux *http.ServeMux, gatherer prometheus.Gatherer) {
	// Audio stream endpoint; not wrapped since the connection is hijacked
	mux.Handle(h.config.Server.WSPath, h.ws)

	mux.HandleFunc("/health", h.withMetrics("/health", h.handleHealth))

	// Session monitoring endpoints
	mux.HandleFunc("/sessions", h.withMetrics("/sessions", h.handleSessions))
	mux.HandleFunc("/sessions/{id}", h.withMetrics("/sessions/{id}", h.handleSessionDetail))

	mux.HandleFunc("/config", h.withMetrics("/config", h.handleConfig))
	mux.HandleFunc("/stats", h.withMetrics("/stats", h.handleStats))
	mux.HandleFunc("/vowels", h.withMetrics("/vowels", h.handleVowels))

	if h.config.Metrics.Enabled {
		if gatherer == nil {
			mux.Handle(h.config.Metrics.Path, promhttp.Handler())
		} else {
			mux.Handle(h.config.Metrics.Path, promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
		}
	}

	mux.HandleFunc("/", h.withMetrics("/", h.handleRoot))
}

// Handler returns the root handler
func (h *HTTPServer) Handler() http.Handler {
	return h.server.Handler
}

// withMetrics wraps an HTTP handler with metrics collection
func (h *HTTPServer) withMetrics(endpoint string, handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTime := time.Now()

		ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		handler(ww, r)

		duration := time.Since(startTime).Seconds()
		h.metrics.RecordHTTPRequest(r.Method, endpoint, fmt.Sprintf("%d", ww.statusCode), duration)

		if ww.statusCode >= 400 {
			errorType := "client_error"
			if ww.statusCode >= 500 {
				errorType = "server_error"
			}
			h.metrics.RecordHTTPError(r.Method, endpoint, errorType)
		}
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (h *HTTPServer) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		h.logger.Info("Starting HTTP server",
			slog.String("address", h.server.Addr),
			slog.String("ws_path", h.config.Server.WSPath),
		)
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return h.Stop(shutdownCtx)
	})

	return g.Wait()
}

// Stop gracefully stops the server and waits for WebSocket sessions to drain
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Stopping HTTP server...")

	if err := h.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	if err := h.ws.Wait(ctx); err != nil {
		return fmt.Errorf("websocket drain: %w", err)
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// handleRoot implements the / readiness endpoint
func (h *HTTPServer) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	endpoints := map[string]string{
		"GET /":              "Readiness and API overview",
		"GET /health":        "Service health check",
		"GET /sessions":      "List connected sessions",
		"GET /sessions/{id}": "Get session details",
		"GET /config":        "Get analysis configuration",
		"GET /stats":         "Get service statistics",
		"GET /vowels":        "Reference vowel table",
	}
	endpoints["WS "+h.config.Server.WSPath] = "Audio stream (binary PCM-16, JSON control)"
	if h.config.Metrics.Enabled {
		endpoints["GET "+h.config.Metrics.Path] = "Prometheus metrics"
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"message":   "Vowel feedback audio analysis service",
		"service":   serviceName,
		"version":   serviceVersion,
		"endpoints": endpoints,
	})
}

// handleHealth implements the /health endpoint
func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats := h.streamMgr.GetStats()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.startTime).String(),
		"service": map[string]interface{}{
			"name":    serviceName,
			"version": serviceVersion,
		},
		"components": map[string]interface{}{
			"websocket": map[string]interface{}{
				"status":           "running",
				"path":             h.config.Server.WSPath,
				"open_connections": h.ws.ActiveConnections(),
			},
			"session_manager": map[string]interface{}{
				"status":          "running",
				"active_sessions": stats.ActiveSessions,
				"max_sessions":    stats.MaxSessions,
			},
		},
	})
}

// handleSessions implements the /sessions endpoint
func (h *HTTPServer) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sessions := h.streamMgr.GetAllSessions()
	infos := make([]stream.SessionInfo, 0, len(sessions))
	for _, session := range sessions {
		infos = append(infos, session.GetSessionInfo())
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"total_sessions": len(infos),
		"timestamp":      time.Now().UTC(),
		"sessions":       infos,
	})
}

// handleSessionDetail implements the /sessions/{id} endpoint
func (h *HTTPServer) handleSessionDetail(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	session, exists := h.streamMgr.GetSession(r.PathValue("id"))
	if !exists {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, session.GetSessionInfo())
}

// handleConfig implements the /config endpoint
func (h *HTTPServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	c := h.config
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"server": map[string]interface{}{
			"port":                    c.Server.Port,
			"bind_address":            c.Server.BindAddress,
			"ws_path":                 c.Server.WSPath,
			"read_limit":              c.Server.ReadLimit,
			"write_timeout":           c.Server.WriteTimeout,
			"max_concurrent_sessions": c.Server.MaxConcurrentSessions,
		},
		"audio": map[string]interface{}{
			"sample_rate":     c.Audio.SampleRate,
			"buffer_duration": c.Audio.BufferDuration,
			"buffer_samples":  c.Audio.GetBufferSamples(),
			"analysis_window": c.Audio.AnalysisWindow,
			"cadence":         c.Audio.Cadence,
			"highpass_cutoff": c.Audio.HighPassCutoff,
		},
		"calibration": map[string]interface{}{
			"duration":      c.Calibration.Duration,
			"chunk_samples": c.Calibration.ChunkSamples,
			"percentile":    c.Calibration.Percentile,
		},
		"gate": map[string]interface{}{
			"rms_multiplier":         c.Gate.RMSMultiplier,
			"intensity_offset":       c.Gate.IntensityOffset,
			"min_rms":                c.Gate.MinRMS,
			"min_intensity":          c.Gate.MinIntensity,
			"uncalibrated_rms":       c.Gate.UncalibratedRMS,
			"uncalibrated_intensity": c.Gate.UncalibratedIntensity,
		},
		"smoothing": map[string]interface{}{
			"factor":         c.Smoothing.Factor,
			"silence_decay":  c.Smoothing.SilenceDecay,
			"unvoiced_decay": c.Smoothing.UnvoicedDecay,
		},
		"extractor": map[string]interface{}{
			"lpc_order":     c.Extractor.LPCOrder,
			"max_formant":   c.Extractor.MaxFormant,
			"pitch_floor":   c.Extractor.PitchFloor,
			"pitch_ceiling": c.Extractor.PitchCeiling,
		},
		"logging": map[string]interface{}{
			"level":  c.Logging.Level,
			"format": c.Logging.Format,
		},
	})
}

// handleStats implements the /stats endpoint
func (h *HTTPServer) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var frames, bytes, ticks, voiced, failed uint64
	for _, session := range h.streamMgr.GetAllSessions() {
		info := session.GetSessionInfo()
		frames += info.FramesReceived
		bytes += info.BytesReceived
		ticks += info.Ticks
		voiced += info.VoicedTicks
		failed += info.FailedTicks
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"uptime":    time.Since(h.startTime).String(),
		"timestamp": time.Now().UTC(),
		"sessions":  h.streamMgr.GetStats(),
		"connected": map[string]interface{}{
			"frames_received": frames,
			"bytes_received":  bytes,
			"ticks":           ticks,
			"voiced_ticks":    voiced,
			"failed_ticks":    failed,
		},
	})
}

// handleVowels implements the /vowels endpoint
func (h *HTTPServer) handleVowels(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	vowels := formant.Vowels()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"count":  len(vowels),
		"vowels": vowels,
	})
}
