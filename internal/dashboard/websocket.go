package dashboard

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"

	"github.com/ashureev/healthcoach/internal/identity"
	"github.com/ashureev/healthcoach/internal/observe"
)

const (
	writeTimeout   = 10 * time.Second
	maxMessageSize = 64 << 10
)

// WebSocketHandler serves dashboard sessions.
type WebSocketHandler struct {
	coach          Coach
	sm             *SessionManager
	metrics        *observe.Metrics
	audioMode      string
	allowedOrigins []string
	isDev          bool
	logger         *slog.Logger
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(c Coach, sm *SessionManager, metrics *observe.Metrics, audioMode string, allowedOrigins []string, isDev bool, logger *slog.Logger) *WebSocketHandler {
	if metrics == nil {
		metrics = observe.Noop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocketHandler{
		coach:          c,
		sm:             sm,
		metrics:        metrics,
		audioMode:      audioMode,
		allowedOrigins: allowedOrigins,
		isDev:          isDev,
		logger:         logger,
	}
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := identity.SessionIDFromContext(r.Context())
	if sessionID == "" {
		sessionID = identity.SessionIDFromRequest(r)
	}
	h.logger.Info("Dashboard connection request", "session_id", sessionID, "ip", identity.IPFromRequest(r))

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.Error("Failed to accept WebSocket", "error", err, "session_id", sessionID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			h.logger.Debug("Failed to close websocket", "error", closeErr, "session_id", sessionID)
		}
	}()
	ws.SetReadLimit(maxMessageSize)

	h.sm.Register(sessionID, ws)
	defer h.sm.Unregister(sessionID, ws)

	ctx := r.Context()
	h.metrics.DashboardSessions.Add(ctx, 1)
	defer h.metrics.DashboardSessions.Add(context.WithoutCancel(ctx), -1)

	session := NewSession(sessionID, h.coach, h.audioMode, h.logger)
	h.readLoop(ctx, ws, session)
	h.logger.Info("Dashboard session ended", "session_id", sessionID)
}

func (h *WebSocketHandler) readLoop(ctx context.Context, ws *websocket.Conn, session *Session) {
	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				h.logger.Debug("WebSocket closed by client", "session_id", session.id)
			} else if ctx.Err() == nil {
				h.logger.Warn("WebSocket read error", "error", err, "session_id", session.id)
			}
			return
		}

		var msg inbound
		var replies []any
		if err := json.Unmarshal(data, &msg); err != nil {
			replies = []any{errorReply(errBadMessage)}
		} else {
			replies = session.Handle(ctx, msg)
		}

		for _, reply := range replies {
			if err := h.writeJSON(ctx, ws, reply); err != nil {
				h.logger.Debug("Failed to write dashboard reply", "error", err, "session_id", session.id)
				return
			}
		}
	}
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range h.allowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	h.logger.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigins)
	return false
}

func (h *WebSocketHandler) writeJSON(ctx context.Context, ws *websocket.Conn, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return ws.Write(ctx, websocket.MessageText, data)
}
