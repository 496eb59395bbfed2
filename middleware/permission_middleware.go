package middleware

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/upb/qms-dashboard/internal/authz"
	"github.com/upb/qms-dashboard/models"
	"github.com/upb/qms-dashboard/utils"
)

// ResourceParam is the chi URL parameter naming the resource type
const ResourceParam = "resource"

// PermissionMiddleware enforces the session's permission matrix at request time.
// It must run after SessionMiddleware.RequireSession.
type PermissionMiddleware struct {
	logger *zap.Logger
}

// NewPermissionMiddleware creates a new PermissionMiddleware
func NewPermissionMiddleware(logger *zap.Logger) *PermissionMiddleware {
	return &PermissionMiddleware{logger: logger}
}

// Require rejects requests whose session may not perform action on the
// resource named by the {resource} URL parameter.
func (m *PermissionMiddleware) Require(action authz.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			resource := models.ResourceType(chi.URLParam(r, ResourceParam))
			if !resource.Valid() {
				_ = utils.WriteNotFound(w, fmt.Sprintf("unknown resource %q", resource))
				return
			}
			m.enforce(w, r, next, resource, action)
		})
	}
}

// RequireFor rejects requests whose session may not perform action on resource
func (m *PermissionMiddleware) RequireFor(resource models.ResourceType, action authz.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.enforce(w, r, next, resource, action)
		})
	}
}

func (m *PermissionMiddleware) enforce(w http.ResponseWriter, r *http.Request, next http.Handler, resource models.ResourceType, action authz.Action) {
	ctx := r.Context()
	requestID := GetRequestIDFromContext(ctx)

	snap := GetSessionFromContext(ctx)
	if snap == nil {
		m.logger.Error("session not found in context",
			zap.String("request_id", requestID))
		_ = utils.WriteUnauthorized(w, "")
		return
	}

	if !snap.Permissions.Allows(resource, action) {
		m.logger.Warn("permission denied",
			zap.String("request_id", requestID),
			zap.String("role", string(snap.Role)),
			zap.String("resource", string(resource)),
			zap.String("action", string(action)))
		_ = utils.WriteForbidden(w, fmt.Sprintf("Your role is not permitted to %s %s records.", action, resource))
		return
	}

	next.ServeHTTP(w, r)
}
