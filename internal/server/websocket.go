package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/MulchEnjoyer/Yongue-Cheek/internal/config"
	"github.com/MulchEnjoyer/Yongue-Cheek/internal/stream"
)

// WSHandler upgrades audio stream requests and pumps frames through a session
type WSHandler struct {
	logger    *slog.Logger
	config    config.ServerConfig
	streamMgr *stream.Manager

	// ctx outlives individual requests; hijacked connections are not
	// cancelled by http.Server.Shutdown
	ctx    context.Context
	cancel context.CancelFunc

	// mu orders wg.Add against Close so Wait never races a new handler
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
	open   atomic.Int64
}

// NewWSHandler creates a WebSocket handler bound to the session manager
func NewWSHandler(cfg config.ServerConfig, logger *slog.Logger, streamMgr *stream.Manager) *WSHandler {
	ctx, cancel := context.WithCancel(context.Background())
	return &WSHandler{
		logger:    logger,
		config:    cfg,
		streamMgr: streamMgr,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// ServeHTTP implements http.Handler
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.track() {
		http.Error(w, "Server shutting down", http.StatusServiceUnavailable)
		return
	}
	defer h.wg.Done()

	session, err := h.streamMgr.CreateSession(r.RemoteAddr)
	if err != nil {
		if errors.Is(err, stream.ErrSessionLimit) {
			h.logger.Warn("Rejecting connection",
				slog.String("remote_addr", r.RemoteAddr),
				slog.String("error", err.Error()),
			)
			http.Error(w, "Too many concurrent sessions", http.StatusServiceUnavailable)
			return
		}
		h.logger.Error("Failed to create session",
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	defer h.streamMgr.RemoveSession(session.ID)

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.config.AllowedOrigins,
	})
	if err != nil {
		// Accept has already written the HTTP error response
		h.logger.Warn("WebSocket upgrade failed",
			slog.String("session_id", session.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	defer conn.CloseNow()

	h.open.Add(1)
	defer h.open.Add(-1)

	conn.SetReadLimit(h.config.ReadLimit)

	logger := h.logger.With(slog.String("session_id", session.ID))
	logger.Info("Client connected", slog.String("remote_addr", r.RemoteAddr))

	err = h.serve(h.ctx, conn, session)

	switch status := websocket.CloseStatus(err); {
	case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
		logger.Info("Client disconnected", slog.Int("status", int(status)))
	case h.ctx.Err() != nil:
		logger.Info("Closing connection for shutdown")
		conn.Close(websocket.StatusGoingAway, "server shutting down")
	case status == websocket.StatusMessageTooBig:
		logger.Warn("Client sent oversized frame", slog.Int64("read_limit", h.config.ReadLimit))
	default:
		logger.Warn("Connection ended with error", slog.String("error", err.Error()))
		conn.Close(websocket.StatusInternalError, "connection error")
	}
}

// serve reads frames until the connection fails, writing every reply in order
func (h *WSHandler) serve(ctx context.Context, conn *websocket.Conn, session *stream.Session) error {
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		var replies []any
		switch typ {
		case websocket.MessageBinary:
			replies = session.HandleAudio(data)
		case websocket.MessageText:
			replies = session.HandleControl(data)
		}

		for _, reply := range replies {
			writeCtx, cancel := context.WithTimeout(ctx, h.config.GetWriteTimeout())
			err := wsjson.Write(writeCtx, conn, reply)
			cancel()
			if err != nil {
				return fmt.Errorf("write reply: %w", err)
			}
		}
	}
}

// ActiveConnections returns the number of upgraded connections being served
func (h *WSHandler) ActiveConnections() int64 {
	return h.open.Load()
}

// track registers a handler unless the handler set has been closed
func (h *WSHandler) track() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	h.wg.Add(1)
	return true
}

// Close refuses new connections and cancels every open one
func (h *WSHandler) Close() {
	h.mu.Lock()
	h.closed = true
	h.mu.Unlock()

	h.cancel()
}

// Wait closes the handler and blocks until all connections have been torn
// down or ctx expires
func (h *WSHandler) Wait(ctx context.Context) error {
	h.Close()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
