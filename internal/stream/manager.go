package stream

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/MulchEnjoyer/Yongue-Cheek/internal/config"
	"github.com/MulchEnjoyer/Yongue-Cheek/internal/extractor"
	"github.com/MulchEnjoyer/Yongue-Cheek/internal/metrics"
)

// ErrSessionLimit is returned when the configured number of concurrent sessions is reached
var ErrSessionLimit = errors.New("concurrent session limit reached")

// Manager tracks the sessions of all connected clients
type Manager struct {
	sessions map[string]*Session
	mu       sync.RWMutex
	logger   *slog.Logger
	metrics  *metrics.Metrics

	cfg         *config.Config
	extractor   extractor.Extractor
	maxSessions int

	totalCreated  uint64
	totalRemoved  uint64
	totalRejected uint64
}

// ManagerStats represents registry statistics for monitoring
type ManagerStats struct {
	ActiveSessions int    `json:"active_sessions"`
	MaxSessions    int    `json:"max_sessions"`
	TotalCreated   uint64 `json:"total_created"`
	TotalRemoved   uint64 `json:"total_removed"`
	TotalRejected  uint64 `json:"total_rejected"`
	Calibrating    int    `json:"calibrating"`
	Active         int    `json:"active"`
}

// NewManager creates a session manager. The extractor is shared by all sessions
// and must be safe for concurrent use.
func NewManager(logger *slog.Logger, cfg *config.Config, ex extractor.Extractor, m *metrics.Metrics) (*Manager, error) {
	if ex == nil {
		return nil, errors.New("extractor is required")
	}

	return &Manager{
		sessions:    make(map[string]*Session),
		logger:      logger,
		metrics:     m,
		cfg:         cfg,
		extractor:   ex,
		maxSessions: cfg.Server.MaxConcurrentSessions,
	}, nil
}

// CreateSession registers a new session for a freshly accepted connection
func (m *Manager) CreateSession(remoteAddr string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		m.totalRejected++
		m.metrics.RecordSessionRejected()
		return nil, fmt.Errorf("%w (%d)", ErrSessionLimit, m.maxSessions)
	}

	id := uuid.NewString()
	session, err := NewSession(id, remoteAddr, m.cfg, m.extractor, m.logger, m.metrics)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	m.sessions[id] = session
	m.totalCreated++
	m.metrics.RecordSessionCreated()
	m.metrics.SetActiveSessions(len(m.sessions))

	m.logger.Info("Session created",
		slog.String("session_id", id),
		slog.String("remote_addr", remoteAddr),
		slog.Int("active_sessions", len(m.sessions)),
	)

	return session, nil
}

// GetSession retrieves a session by ID
func (m *Manager) GetSession(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[id]
	return session, exists
}

// GetActiveSessionCount returns the number of registered sessions
func (m *Manager) GetActiveSessionCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions)
}

// GetAllSessions returns all registered sessions, oldest first
func (m *Manager) GetAllSessions() []*Session {
	m.mu.RLock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	m.mu.RUnlock()

	slices.SortFunc(sessions, func(a, b *Session) int {
		return a.StartTime.Compare(b.StartTime)
	})

	return sessions
}

// RemoveSession unregisters a session and logs its summary
func (m *Manager) RemoveSession(id string) bool {
	m.mu.Lock()
	session, exists := m.sessions[id]
	if exists {
		delete(m.sessions, id)
		m.totalRemoved++
		m.metrics.SetActiveSessions(len(m.sessions))
	}
	m.mu.Unlock()

	if !exists {
		return false
	}

	info := session.GetSessionInfo()
	m.metrics.RecordSessionDestroyed(info.Duration.Seconds())

	attrs := []any{
		slog.String("session_id", id),
		slog.String("remote_addr", info.RemoteAddr),
		slog.String("phase", info.Phase),
		slog.Duration("duration", info.Duration),
		slog.Uint64("frames", info.FramesReceived),
		slog.Uint64("ticks", info.Ticks),
		slog.Uint64("voiced_ticks", info.VoicedTicks),
		slog.Uint64("failed_ticks", info.FailedTicks),
		slog.Float64("voice_percentage", info.VoicePercentage),
	}
	if info.NoiseFloor != nil {
		attrs = append(attrs,
			slog.Float64("noise_floor_rms", info.NoiseFloor.RMS),
			slog.Float64("noise_floor_db", info.NoiseFloor.Intensity),
		)
	}
	m.logger.Info("Session removed", attrs...)

	return true
}

// GetStats returns registry statistics
func (m *Manager) GetStats() ManagerStats {
	m.mu.RLock()
	stats := ManagerStats{
		ActiveSessions: len(m.sessions),
		MaxSessions:    m.maxSessions,
		TotalCreated:   m.totalCreated,
		TotalRemoved:   m.totalRemoved,
		TotalRejected:  m.totalRejected,
	}
	for _, s := range m.sessions {
		if s.Phase() == PhaseActive {
			stats.Active++
		} else {
			stats.Calibrating++
		}
	}
	m.mu.RUnlock()

	return stats
}

// Stop unregisters every remaining session
func (m *Manager) Stop() {
	m.mu.RLock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	for _, id := range ids {
		m.RemoveSession(id)
	}

	m.logger.Info("Session manager stopped", slog.Int("sessions_closed", len(ids)))
}
