// Package dashboard serves the interactive learner dashboard over a
// WebSocket. Each connection holds a single-session cache of the last
// fetched profile.
package dashboard

import (
	"log/slog"
	"sync"

	"github.com/coder/websocket"
)

// closer is the part of *websocket.Conn the manager needs.
type closer interface {
	Close(code websocket.StatusCode, reason string) error
}

// SessionManager tracks live dashboard connections by session ID.
type SessionManager struct {
	mu     sync.RWMutex
	active map[string]closer
	logger *slog.Logger
}

// NewSessionManager creates a new session manager.
func NewSessionManager(logger *slog.Logger) *SessionManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{
		active: make(map[string]closer),
		logger: logger,
	}
}

// activeConn returns the live connection for a session, or nil.
func (m *SessionManager) activeConn(sessionID string) closer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.active[sessionID]
}

// Count returns the number of live sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.active)
}

// Register adds a connection. An existing connection with the same session
// ID is closed and replaced.
func (m *SessionManager) Register(sessionID string, conn closer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, exists := m.active[sessionID]; exists && existing != conn {
		_ = existing.Close(websocket.StatusNormalClosure, "session replaced")
		m.logger.Info("Dashboard session replaced", "session_id", sessionID)
	}

	m.active[sessionID] = conn
	m.logger.Info("Dashboard session registered", "session_id", sessionID)
}

// Unregister removes conn if it is still the active connection for the
// session.
func (m *SessionManager) Unregister(sessionID string, conn closer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if current, exists := m.active[sessionID]; exists && current == conn {
		delete(m.active, sessionID)
		m.logger.Info("Dashboard session unregistered", "session_id", sessionID)
	}
}

// CloseAll terminates every live session.
func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for sid, conn := range m.active {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		m.logger.Info("Dashboard session closed", "session_id", sid)
	}
	m.active = make(map[string]closer)
}
