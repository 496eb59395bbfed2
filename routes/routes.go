package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/upb/qms-dashboard/app"
	"github.com/upb/qms-dashboard/internal/authz"
	"github.com/upb/qms-dashboard/models"
	"github.com/upb/qms-dashboard/utils"
)

// requestTimeout bounds every request except websocket streams
const requestTimeout = 60 * time.Second

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	sessions := deps.SessionMiddleware
	perms := deps.PermissionMiddleware

	// Health check endpoints
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(requestTimeout))
		r.Get("/healthz", deps.HealthHandler.HandleHealth)
		r.Get("/readyz", deps.HealthHandler.HandleReadiness)
		if deps.Metrics != nil {
			r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
		}
	})

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.With(middleware.Timeout(requestTimeout)).Post("/sessions", deps.SessionHandler.HandleCreateSession)

		r.Group(func(r chi.Router) {
			r.Use(sessions.RequireSession)

			// Task streams are long-lived and skip the request timeout
			r.Get("/tasks/{id}/stream", deps.TaskHandler.HandleStreamTask)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Timeout(requestTimeout))

				r.Get("/session", deps.SessionHandler.HandleGetSession)
				r.Put("/session/role", deps.SessionHandler.HandleSwitchRole)
				r.Get("/permissions", deps.SessionHandler.HandlePermissions)

				// Two-phase deletes
				r.Get("/deletions/{token}", deps.DeletionHandler.HandleGetConfirmation)
				r.Delete("/deletions/{token}", deps.DeletionHandler.HandleCancel)
				r.Post("/deletions/{token}/confirm", deps.DeletionHandler.HandleConfirm)

				// Progress tasks
				r.Get("/tasks/{id}", deps.TaskHandler.HandleGetTask)
				r.Delete("/tasks/{id}", deps.TaskHandler.HandleCancelTask)

				// Exports and saved downloads
				r.With(perms.Require(authz.ActionView)).Get("/exports/{resource}", deps.ExportHandler.HandleExport)
				// checked against the resource each file was read from
				r.Get("/downloads/{file}", deps.ExportHandler.HandleDownload)

				// Quality calendar
				r.Group(func(r chi.Router) {
					r.Use(perms.RequireFor(models.ResourceAudit, authz.ActionView))
					r.Get("/calendar", deps.CalendarHandler.HandleUpcoming)
					r.Post("/calendar/export", deps.CalendarHandler.HandleExport)
				})

				// Activity trail (admin role only)
				r.With(sessions.RequireRole(authz.RoleAdmin)).Get("/activity", deps.ActivityHandler.HandleListActivity)

				// Generated reports
				r.With(perms.RequireFor(models.ResourceReports, authz.ActionView)).
					Get("/reports/generated", deps.RecordHandler.HandleListGeneratedReports)
				r.Post("/reports/generated/{id}/actions/{action}", deps.ActionHandler.HandleDispatchGenerated)

				// Records. Dispatch is not guarded here: denied and unbound
				// actions are reported by the dispatcher itself.
				r.With(perms.Require(authz.ActionView)).Get("/{resource}", deps.RecordHandler.HandleListRecords)
				r.Post("/{resource}/{id}/actions/{action}", deps.ActionHandler.HandleDispatch)
			})
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	return r
}
