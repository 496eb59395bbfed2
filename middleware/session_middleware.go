package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/upb/qms-dashboard/internal/authz"
	"github.com/upb/qms-dashboard/internal/session"
	"github.com/upb/qms-dashboard/services"
	"github.com/upb/qms-dashboard/utils"
)

// TokenParser resolves a session token to the session id it names
type TokenParser interface {
	Parse(token string) (string, error)
}

// SessionLoader loads the current snapshot of a session
type SessionLoader interface {
	Get(ctx context.Context, id string) (*session.Snapshot, error)
}

// SessionMiddleware resolves the caller's session and its permission matrix
type SessionMiddleware struct {
	tokens     TokenParser
	sessions   SessionLoader
	cookieName string
	logger     *zap.Logger
}

// NewSessionMiddleware creates a new SessionMiddleware. Tokens are read from
// the Authorization header first, then from cookieName.
func NewSessionMiddleware(tokens TokenParser, sessions SessionLoader, cookieName string, logger *zap.Logger) *SessionMiddleware {
	return &SessionMiddleware{
		tokens:     tokens,
		sessions:   sessions,
		cookieName: cookieName,
		logger:     logger,
	}
}

// RequireSession is a middleware that requires a valid session token
func (m *SessionMiddleware) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		token := m.extractToken(r)
		if token == "" {
			m.logger.Warn("missing session token",
				zap.String("request_id", requestID))
			_ = utils.WriteUnauthorized(w, "Missing or invalid session")
			return
		}

		sessionID, err := m.tokens.Parse(token)
		if err != nil {
			m.logger.Warn("session token rejected",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteUnauthorized(w, "Invalid or expired session")
			return
		}

		snap, err := m.sessions.Get(ctx, sessionID)
		if err != nil {
			if services.IsNotFoundError(err) {
				m.logger.Warn("session not found",
					zap.String("request_id", requestID),
					zap.String("session_id", sessionID))
				_ = utils.WriteUnauthorized(w, "Session expired")
				return
			}
			m.logger.Error("failed to load session",
				zap.String("request_id", requestID),
				zap.Error(err))
			_ = utils.WriteInternalServerError(w, "")
			return
		}

		m.logger.Debug("session resolved",
			zap.String("request_id", requestID),
			zap.String("session_id", snap.ID),
			zap.String("role", string(snap.Role)))

		next.ServeHTTP(w, r.WithContext(WithSession(ctx, snap)))
	})
}

// RequireRole is a middleware that requires the session's active role.
// It must run after RequireSession.
func (m *SessionMiddleware) RequireRole(role authz.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestIDFromContext(ctx)

			snap := GetSessionFromContext(ctx)
			if snap == nil {
				m.logger.Error("session not found in context",
					zap.String("request_id", requestID))
				_ = utils.WriteUnauthorized(w, "")
				return
			}

			if snap.Role != role {
				m.logger.Warn("role check failed",
					zap.String("request_id", requestID),
					zap.String("required_role", string(role)),
					zap.String("role", string(snap.Role)))
				_ = utils.WriteForbidden(w, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// extractToken extracts the session token. Authorization header takes
// precedence over the session cookie.
func (m *SessionMiddleware) extractToken(r *http.Request) string {
	if token := extractBearerToken(r); token != "" {
		return token
	}
	if m.cookieName == "" {
		return ""
	}
	if cookie, err := r.Cookie(m.cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
