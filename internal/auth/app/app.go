package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aussiebroadwan/mealvote/internal/auth/audit"
	"github.com/aussiebroadwan/mealvote/internal/auth/domain"
	httpapi "github.com/aussiebroadwan/mealvote/internal/auth/http"
	"github.com/aussiebroadwan/mealvote/internal/auth/metrics"
	"github.com/aussiebroadwan/mealvote/internal/auth/service"
	"github.com/aussiebroadwan/mealvote/internal/auth/store"
	"github.com/aussiebroadwan/mealvote/internal/auth/store/drivers/postgres"
	"github.com/aussiebroadwan/mealvote/internal/auth/store/drivers/sqlite"
	"github.com/aussiebroadwan/mealvote/pkg/httpx"
	"github.com/aussiebroadwan/mealvote/pkg/jwtx"
	"github.com/aussiebroadwan/mealvote/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    *Config
	logger *slog.Logger

	// Core dependencies
	db         store.Store
	health     *store.Health
	metrics    *metrics.Metrics
	sink       *audit.AsyncSink
	keyManager *jwtx.KeyManager

	// Services
	guard   *service.LoginSecurityGuard
	gateway *service.AuthGateway
	monitor *service.SecurityMonitor

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized. The config
// is validated first.
func New(ctx context.Context, cfg *Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "mealvote-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.Log.Level,
			Format:  cfg.Log.Format,
		}),
		metrics: metrics.New(),
	}

	if err := app.initDatabase(ctx); err != nil {
		return nil, err
	}

	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Handler exposes the routed handler, for in-process tests.
func (app *Application) Handler() http.Handler { return app.router }

// Store exposes the opened store, for seeding.
func (app *Application) Store() store.Store { return app.db }

// Run serves until ctx is cancelled, then shuts down gracefully.
func (app *Application) Run(ctx context.Context) error {
	app.monitor.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Server.Port, "version", BuildVersion,
		"store", app.cfg.Store.Driver)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		app.logger.Info("shutdown requested")
		return app.Shutdown()
	})

	return g.Wait()
}

// Shutdown stops accepting requests, waits for in-flight work and the
// background attempt writes, then releases the store.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.Server.ShutdownGrace)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.monitor.Stop()

	if err := app.Close(); err != nil {
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// Close waits for background attempt writes, flushes the audit log and
// closes the store. Shutdown calls it; use it directly when Run was never
// called.
func (app *Application) Close() error {
	app.guard.Wait()

	if err := app.sink.Close(); err != nil {
		app.logger.Error("error flushing audit log", "error", err)
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}
	return nil
}

// initDatabase opens the configured driver and applies migrations.
func (app *Application) initDatabase(ctx context.Context) error {
	var (
		db  store.Store
		err error
	)
	switch app.cfg.Store.Driver {
	case DriverPostgres:
		db, err = postgres.NewStore(ctx, app.cfg.Store.DSN, app.cfg.Store.Pool)
	default:
		db, err = sqlite.NewStore(app.cfg.Store.DSN)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.health = &store.Health{
		Pinger:   db,
		Timeout:  app.cfg.Store.Timeout,
		Cooldown: app.cfg.Store.Cooldown,
	}

	app.logger.Info("database migrations applied successfully", "driver", app.cfg.Store.Driver)
	return nil
}

// initServices wires the auth core.
func (app *Application) initServices() error {
	keyManager, hasher, err := InitAuthKeys(app.cfg.Auth, app.logger)
	if err != nil {
		return err
	}
	app.keyManager = keyManager

	app.sink = audit.NewAsyncSink(app.db, app.logger, app.cfg.Audit)
	app.sink.OnDrop = func(domain.AuditEntry) { app.metrics.AuditDropped() }

	app.guard = &service.LoginSecurityGuard{
		Store:   app.db,
		Audit:   app.sink,
		Metrics: app.metrics,
		Policy:  app.cfg.Security,
	}

	tenants := &service.TenantService{
		Store:        app.db,
		Health:       app.health,
		Metrics:      app.metrics,
		DefaultSlug:  app.cfg.Tenant.Default,
		PlatformName: app.cfg.Tenant.PlatformName,
	}

	app.gateway = &service.AuthGateway{
		Store:   app.db,
		Health:  app.health,
		Tenants: tenants,
		Permissions: &service.PermissionResolver{
			Store:   app.db,
			Cache:   service.NewPermissionCache(app.cfg.Cache.RoleTTL, nil),
			Metrics: app.metrics,
		},
		Security: app.guard,
		Sessions: &service.SessionIssuer{
			KeyManager: keyManager,
			Issuer:     app.cfg.Auth.Issuer,
		},
		Hasher:       hasher,
		Audit:        app.sink,
		Metrics:      app.metrics,
		Master:       app.cfg.Master,
		PlatformSlug: app.cfg.Tenant.Platform,
	}
	if !app.cfg.Master.Enabled() {
		app.logger.Warn("master login disabled, no master identity configured")
	}

	app.monitor = service.NewSecurityMonitor(app.guard, app.logger, app.metrics, app.cfg.Monitor.Interval)
	return nil
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keyManager.KeySet,
		BuildVersion,
		app.logger,
	)

	router.Gateway = app.gateway
	router.Health = app.health
	router.Metrics = app.metrics
	router.Limits = app.cfg.Limits
	router.Cookies = httpx.CookieOptions{
		Secure: app.cfg.Auth.CookieSecure,
		Domain: app.cfg.Auth.CookieDomain,
	}
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
