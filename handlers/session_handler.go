package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/upb/qms-dashboard/internal/authz"
	"github.com/upb/qms-dashboard/internal/session"
	"github.com/upb/qms-dashboard/middleware"
	"github.com/upb/qms-dashboard/models"
	"github.com/upb/qms-dashboard/utils"
)

// SwitchRoleRequest represents a request to change the active role.
// Any role string is accepted; unknown roles are granted nothing.
type SwitchRoleRequest struct {
	Role string `json:"role" validate:"max=64"`
}

// PermissionsResponse is the permission matrix of a session plus the
// controls each resource should render.
type PermissionsResponse struct {
	Role        authz.Role                             `json:"role"`
	KnownRole   bool                                   `json:"known_role"`
	Permissions authz.Matrix                           `json:"permissions"`
	Controls    map[models.ResourceType][]authz.Action `json:"controls"`
}

// SessionResponse represents a session in API responses
type SessionResponse struct {
	Token   string              `json:"token,omitempty"`
	Session *session.Snapshot   `json:"session"`
	Access  PermissionsResponse `json:"access"`
}

// TokenIssuer issues session tokens
type TokenIssuer interface {
	Issue(sessionID string) (string, error)
}

// RoleSwitchRecorder records role switches in the activity trail
type RoleSwitchRecorder interface {
	LogRoleSwitch(ctx context.Context, sessionID string, from, to authz.Role) error
}

// RoleSwitchMetrics counts role switches
type RoleSwitchMetrics interface {
	ObserveRoleSwitch(role string, known bool)
}

// CookieConfig controls the session cookie set on session creation
type CookieConfig struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

// SessionHandler handles session and role HTTP requests
type SessionHandler struct {
	store       session.Store
	tokens      TokenIssuer
	defaultRole authz.Role
	cookie      CookieConfig
	recorder    RoleSwitchRecorder
	metrics     RoleSwitchMetrics
	logger      *zap.Logger
}

// NewSessionHandler creates a new SessionHandler. recorder and metrics may be nil.
func NewSessionHandler(
	store session.Store,
	tokens TokenIssuer,
	defaultRole authz.Role,
	cookie CookieConfig,
	recorder RoleSwitchRecorder,
	metrics RoleSwitchMetrics,
	logger *zap.Logger,
) *SessionHandler {
	return &SessionHandler{
		store:       store,
		tokens:      tokens,
		defaultRole: defaultRole,
		cookie:      cookie,
		recorder:    recorder,
		metrics:     metrics,
		logger:      logger,
	}
}

// HandleCreateSession handles POST /api/v1/sessions
func (h *SessionHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	snap, err := h.store.Create(ctx, h.defaultRole)
	if err != nil {
		h.logger.Error("failed to create session",
			zap.String("request_id", requestID),
			zap.Error(err))
		HandleServiceError(w, err, h.logger)
		return
	}

	token, err := h.tokens.Issue(snap.ID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if h.cookie.Name != "" {
		http.SetCookie(w, &http.Cookie{
			Name:     h.cookie.Name,
			Value:    token,
			Path:     "/",
			MaxAge:   int(h.cookie.TTL.Seconds()),
			HttpOnly: true,
			Secure:   h.cookie.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}

	h.logger.Info("session created",
		zap.String("request_id", requestID),
		zap.String("session_id", snap.ID),
		zap.String("role", string(snap.Role)))

	_ = utils.WriteCreated(w, SessionResponse{
		Token:   token,
		Session: snap,
		Access:  accessOf(snap),
	})
}

// HandleGetSession handles GET /api/v1/session
func (h *SessionHandler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	snap := middleware.GetSessionFromContext(r.Context())
	if snap == nil {
		_ = utils.WriteUnauthorized(w, "")
		return
	}

	_ = utils.WriteOK(w, SessionResponse{Session: snap, Access: accessOf(snap)})
}

// HandleSwitchRole handles PUT /api/v1/session/role
func (h *SessionHandler) HandleSwitchRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestIDFromContext(ctx)

	current := middleware.GetSessionFromContext(ctx)
	if current == nil {
		_ = utils.WriteUnauthorized(w, "")
		return
	}

	var req SwitchRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("failed to parse request body",
			zap.String("request_id", requestID),
			zap.Error(err))
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	role := authz.Role(req.Role)
	next, err := h.store.SwitchRole(ctx, current.ID, role)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	if h.metrics != nil {
		h.metrics.ObserveRoleSwitch(string(role), role.Known())
	}
	if h.recorder != nil {
		if err := h.recorder.LogRoleSwitch(ctx, current.ID, current.Role, role); err != nil {
			h.logger.Warn("failed to record role switch",
				zap.String("request_id", requestID),
				zap.Error(err))
		}
	}

	h.logger.Info("role switched",
		zap.String("request_id", requestID),
		zap.String("session_id", current.ID),
		zap.String("from", string(current.Role)),
		zap.String("to", string(role)),
		zap.Bool("known_role", role.Known()))

	_ = utils.WriteOK(w, SessionResponse{Session: next, Access: accessOf(next)})
}

// HandlePermissions handles GET /api/v1/permissions
func (h *SessionHandler) HandlePermissions(w http.ResponseWriter, r *http.Request) {
	snap := middleware.GetSessionFromContext(r.Context())
	if snap == nil {
		_ = utils.WriteUnauthorized(w, "")
		return
	}

	_ = utils.WriteOK(w, accessOf(snap))
}

func accessOf(snap *session.Snapshot) PermissionsResponse {
	controls := make(map[models.ResourceType][]authz.Action, len(models.AllResources()))
	for _, resource := range models.AllResources() {
		controls[resource] = snap.Permissions.Actions(resource)
	}
	return PermissionsResponse{
		Role:        snap.Role,
		KnownRole:   snap.Role.Known(),
		Permissions: snap.Permissions,
		Controls:    controls,
	}
}
