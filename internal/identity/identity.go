// Package identity provides per-request session identity and derives audio
// artifact names from it.
package identity

import (
	"context"
	"net"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const (
	SessionHeaderName = "X-Session-ID"
	SessionQueryParam = "session_id"
)

// Artifact naming modes.
const (
	ModeSession = "session"
	ModeFixed   = "fixed"
)

// FixedArtifactName is the single shared file used in fixed mode.
const FixedArtifactName = "response.mp3"

type contextKey int

const sessionIDKey contextKey = iota

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// SessionIDFromContext extracts the session ID from the request context.
func SessionIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(sessionIDKey).(string); ok {
		return v
	}
	return ""
}

// WithSessionID stores a session ID in ctx.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// SanitizeSessionID returns id when it is a valid session ID, otherwise "".
func SanitizeSessionID(id string) string {
	id = strings.TrimSpace(id)
	if !sessionIDPattern.MatchString(id) {
		return ""
	}
	return id
}

// NewSessionID returns a fresh random session ID.
func NewSessionID() string {
	return uuid.NewString()
}

// SessionIDFromRequest reads the session ID from the header or query
// string, generating a new one when neither holds a valid value.
func SessionIDFromRequest(r *http.Request) string {
	sid := SanitizeSessionID(r.Header.Get(SessionHeaderName))
	if sid == "" {
		sid = SanitizeSessionID(r.URL.Query().Get(SessionQueryParam))
	}
	if sid == "" {
		sid = NewSessionID()
	}
	return sid
}

// Middleware injects the session ID into the request context and echoes it
// in the response header.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := SessionIDFromRequest(r)
		w.Header().Set(SessionHeaderName, sid)
		next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), sid)))
	})
}

// ArtifactName returns the audio file name for a session under mode.
func ArtifactName(mode, sessionID string) string {
	if mode == ModeFixed {
		return FixedArtifactName
	}
	sid := SanitizeSessionID(sessionID)
	if sid == "" {
		sid = NewSessionID()
	}
	return "response-" + sid + ".mp3"
}

// IPFromRequest returns a normalized remote IP for request logging.
func IPFromRequest(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
