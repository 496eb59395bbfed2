package middleware

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/upb/qms-dashboard/internal/authz"
	"github.com/upb/qms-dashboard/internal/session"
)

// GetRequestIDFromContext retrieves the request ID set by chi's RequestID middleware
func GetRequestIDFromContext(ctx context.Context) string {
	return chimw.GetReqID(ctx)
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, chimw.RequestIDKey, requestID)
}

// GetSessionFromContext retrieves the session snapshot from context
func GetSessionFromContext(ctx context.Context) *session.Snapshot {
	snap, ok := session.FromContext(ctx)
	if !ok {
		return nil
	}
	return snap
}

// WithSession adds a session snapshot to the context
func WithSession(ctx context.Context, snap *session.Snapshot) context.Context {
	return session.NewContext(ctx, snap)
}

// GetRoleFromContext returns the active role of the request session
func GetRoleFromContext(ctx context.Context) authz.Role {
	if snap := GetSessionFromContext(ctx); snap != nil {
		return snap.Role
	}
	return ""
}

// GetPermissionsFromContext returns the permission matrix of the request
// session. Requests without a session get a deny-all matrix.
func GetPermissionsFromContext(ctx context.Context) authz.Matrix {
	if snap := GetSessionFromContext(ctx); snap != nil {
		return snap.Permissions
	}
	return authz.ResolvePermissions("")
}
