package app

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/upb/qms-dashboard/config"
	"github.com/upb/qms-dashboard/handlers"
	"github.com/upb/qms-dashboard/internal/authz"
	"github.com/upb/qms-dashboard/internal/observability"
	"github.com/upb/qms-dashboard/internal/session"
	"github.com/upb/qms-dashboard/middleware"
	"github.com/upb/qms-dashboard/repositories"
	"github.com/upb/qms-dashboard/repositories/memory"
	"github.com/upb/qms-dashboard/repositories/postgres"
	"github.com/upb/qms-dashboard/services/activity"
	"github.com/upb/qms-dashboard/services/calendar"
	"github.com/upb/qms-dashboard/services/defaults"
	"github.com/upb/qms-dashboard/services/deletion"
	"github.com/upb/qms-dashboard/services/dispatch"
	"github.com/upb/qms-dashboard/services/export"
	"github.com/upb/qms-dashboard/services/progress"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	Logger *zap.Logger

	// Record storage; RepoFactory is nil for the memory driver
	RepoFactory *postgres.RepositoryFactory
	Repos       *repositories.Repositories

	// Sessions
	Redis    *redis.Client
	Sessions session.Store
	Tokens   *session.Tokens

	// Metrics; nil when disabled
	Registry *prometheus.Registry
	Metrics  *observability.Metrics

	// Services
	Runner     *progress.Runner
	Tasks      *progress.Registry
	Downloads  *export.MemorySink
	Deletions  *deletion.Service
	Activity   *activity.Service
	Dispatcher *dispatch.Dispatcher
	Calendar   *calendar.Service
	Scheduler  *calendar.Scheduler

	// Middleware
	SessionMiddleware    *middleware.SessionMiddleware
	PermissionMiddleware *middleware.PermissionMiddleware

	// Handlers
	HealthHandler   *handlers.HealthHandler
	SessionHandler  *handlers.SessionHandler
	RecordHandler   *handlers.RecordHandler
	ActionHandler   *handlers.ActionHandler
	DeletionHandler *handlers.DeletionHandler
	TaskHandler     *handlers.TaskHandler
	ExportHandler   *handlers.ExportHandler
	CalendarHandler *handlers.CalendarHandler
	ActivityHandler *handlers.ActivityHandler
}

// NewDependencies creates and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initStore(ctx, cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize record store: %w", err)
	}

	if err := deps.initSessions(ctx, cfg); err != nil {
		deps.closeStore()
		return nil, fmt.Errorf("failed to initialize session store: %w", err)
	}

	deps.initMetrics(cfg)

	if err := deps.initServices(cfg); err != nil {
		_ = deps.Close(ctx)
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	deps.initHTTP(cfg)

	logger.Info("all dependencies initialized successfully",
		zap.String("store", cfg.Store.Driver),
		zap.String("session_store", cfg.Session.Store),
		zap.Bool("metrics", deps.Metrics != nil),
		zap.Bool("scheduler", deps.Scheduler != nil))
	return deps, nil
}

// initStore opens the record store selected by STORE_DRIVER
func (d *Dependencies) initStore(ctx context.Context, cfg *config.Config) error {
	if cfg.Store.Driver != "postgres" {
		d.Repos = memory.NewRepositories(memory.NewStore(cfg.Store.Seed, time.Now()), cfg.Activity.Retain)
		d.Logger.Info("using in-memory record store", zap.Bool("seeded", cfg.Store.Seed))
		return nil
	}

	factory, err := postgres.NewRepositoryFactory(cfg.Database, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to create repository factory: %w", err)
	}
	d.RepoFactory = factory

	if err := factory.GetDB().HealthCheck(ctx); err != nil {
		d.closeStore()
		return fmt.Errorf("database ping failed: %w", err)
	}

	if cfg.Database.InitSchema {
		if err := factory.InitSchema(ctx); err != nil {
			d.closeStore()
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	d.Repos = factory.NewRepositories()
	d.Logger.Info("database connection established",
		zap.String("connection", cfg.Database.LogString()))
	return nil
}

// initSessions creates the session store and token codec
func (d *Dependencies) initSessions(ctx context.Context, cfg *config.Config) error {
	d.Tokens = session.NewTokens(cfg.Session.Secret, cfg.Session.TTL)

	if cfg.Session.Store != "redis" {
		d.Sessions = session.NewMemoryStore()
		return nil
	}

	client, err := session.NewRedisClient(ctx, cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	d.Redis = client
	d.Sessions = session.NewRedisStore(client, cfg.Session.TTL)
	d.Logger.Info("using redis session store", zap.Int("db", cfg.Redis.DB))
	return nil
}

func (d *Dependencies) initMetrics(cfg *config.Config) {
	if !cfg.Observability.MetricsEnabled {
		return
	}
	d.Registry = prometheus.NewRegistry()
	d.Metrics = observability.NewMetrics(d.Registry)
}

// initServices wires the task runner, activity trail, deletion and dispatch
// services. Optional collaborators are only passed when present so that no
// typed nil reaches an interface.
func (d *Dependencies) initServices(cfg *config.Config) error {
	var runnerOpts []progress.Option
	var deletionOpts []deletion.Option
	var dispatchOpts []dispatch.Option
	if d.Metrics != nil {
		runnerOpts = append(runnerOpts, progress.WithObserver(d.Metrics))
		deletionOpts = append(deletionOpts, deletion.WithMetrics(d.Metrics))
		dispatchOpts = append(dispatchOpts, dispatch.WithMetrics(d.Metrics))
	}

	d.Runner = progress.NewRunner(cfg.Tasks.StepDelay, d.Logger, runnerOpts...)
	if d.Metrics != nil {
		d.Metrics.TrackRunningTasks(d.Runner.Running)
	}
	d.Tasks = progress.NewRegistry(cfg.Tasks.MaxTasks, cfg.Tasks.Retention)

	sink, err := export.NewMemorySink(cfg.Tasks.MaxDownloads)
	if err != nil {
		return fmt.Errorf("failed to create download sink: %w", err)
	}
	d.Downloads = sink

	d.Activity = activity.NewService(d.Repos.Activity, d.Logger, activity.Config{
		BufferSize:  cfg.Activity.BufferSize,
		WorkerCount: cfg.Activity.Workers,
	})
	if err := d.Activity.Start(); err != nil {
		return fmt.Errorf("failed to start activity service: %w", err)
	}

	deletionOpts = append(deletionOpts, deletion.WithRecorder(d.Activity))
	d.Deletions = deletion.NewService(cfg.Tasks.MaxTasks, cfg.Tasks.ConfirmationTTL, d.Logger, deletionOpts...)

	defaultHandlers := defaults.NewHandlers(defaults.Deps{
		Reports:         d.Repos.Reports,
		Runner:          d.Runner,
		Tasks:           d.Tasks,
		Sink:            d.Downloads,
		Confirmations:   d.Deletions,
		ConfirmationTTL: cfg.Tasks.ConfirmationTTL,
	}, d.Logger)

	dispatchOpts = append(dispatchOpts, dispatch.WithRecorder(d.Activity))
	d.Dispatcher = dispatch.NewDispatcher(dispatch.DefaultTable(defaultHandlers), d.Logger, dispatchOpts...)

	d.Calendar = calendar.NewService(d.Repos.Audits, d.Repos.CAPAs, d.Logger)
	if cfg.Scheduler.Enabled {
		scheduler, err := calendar.NewScheduler(d.Calendar, cfg.Scheduler.ReminderSpec, cfg.Scheduler.Window, d.Activity, d.Logger)
		if err != nil {
			return fmt.Errorf("failed to create reminder scheduler: %w", err)
		}
		scheduler.Start()
		d.Scheduler = scheduler
	}

	d.Logger.Info("services initialized",
		zap.Duration("step_delay", cfg.Tasks.StepDelay),
		zap.Int("max_tasks", cfg.Tasks.MaxTasks))
	return nil
}

// initHTTP builds the middleware and handlers served by routes
func (d *Dependencies) initHTTP(cfg *config.Config) {
	d.SessionMiddleware = middleware.NewSessionMiddleware(d.Tokens, d.Sessions, cfg.Session.CookieName, d.Logger)
	d.PermissionMiddleware = middleware.NewPermissionMiddleware(d.Logger)

	d.HealthHandler = handlers.NewHealthHandler(map[string]handlers.HealthCheck{
		"store":    d.Repos.Health.HealthCheck,
		"sessions": d.Sessions.Ping,
	}, d.Logger)

	var switchMetrics handlers.RoleSwitchMetrics
	if d.Metrics != nil {
		switchMetrics = d.Metrics
	}
	d.SessionHandler = handlers.NewSessionHandler(
		d.Sessions,
		d.Tokens,
		authz.Role(cfg.Session.DefaultRole),
		handlers.CookieConfig{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.CookieSecure,
			TTL:    cfg.Session.TTL,
		},
		d.Activity,
		switchMetrics,
		d.Logger,
	)

	d.RecordHandler = handlers.NewRecordHandler(d.Repos, d.Repos.Reports, d.Logger)
	d.ActionHandler = handlers.NewActionHandler(d.Repos, d.Repos.Reports, d.Dispatcher, d.Logger)
	d.DeletionHandler = handlers.NewDeletionHandler(d.Deletions, d.Logger)
	d.TaskHandler = handlers.NewTaskHandler(d.Tasks, d.Activity, cfg.CORS.AllowedOrigins, d.Logger)
	d.ExportHandler = handlers.NewExportHandler(d.Repos, d.Downloads, d.Logger)
	d.CalendarHandler = handlers.NewCalendarHandler(d.Calendar, d.Runner, d.Tasks, d.Downloads, cfg.Scheduler.Window, d.Logger)
	d.ActivityHandler = handlers.NewActivityHandler(d.Activity, d.Logger)
}

func (d *Dependencies) closeStore() {
	if d.RepoFactory == nil {
		return
	}
	if err := d.RepoFactory.Close(); err != nil {
		d.Logger.Warn("failed to close database", zap.Error(err))
	}
	d.RepoFactory = nil
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.Scheduler != nil {
		d.Scheduler.Stop(ctx)
	}

	// Cancel running tasks before the activity trail stops accepting events
	if d.Runner != nil {
		d.Runner.Shutdown()
	}

	if d.Activity != nil {
		timeout := 5 * time.Second
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline)
		}
		if err := d.Activity.Stop(timeout); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop activity service: %w", err))
		}
	}

	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		}
	}

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	// Sync logger
	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
