// Package app assembles the invoicer service: infrastructure components,
// the authentication gate and policy, and the identity and billing routes.
package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kbukum/invoicer/auth/jwt"
	"github.com/kbukum/invoicer/auth/password"
	"github.com/kbukum/invoicer/authz"
	"github.com/kbukum/invoicer/billing"
	"github.com/kbukum/invoicer/bootstrap"
	"github.com/kbukum/invoicer/database"
	"github.com/kbukum/invoicer/database/migration"
	"github.com/kbukum/invoicer/database/schema"
	"github.com/kbukum/invoicer/identity"
	"github.com/kbukum/invoicer/logger"
	"github.com/kbukum/invoicer/observability"
	"github.com/kbukum/invoicer/redis"
	"github.com/kbukum/invoicer/server"
	"github.com/kbukum/invoicer/server/middleware"
	"github.com/kbukum/invoicer/storage"

	_ "github.com/kbukum/invoicer/storage/local"
	_ "github.com/kbukum/invoicer/storage/s3"
)

// App is the invoicer application.
type App struct {
	*bootstrap.App[*Config]

	obs     *observability.Component
	db      *database.Component
	store   *storage.Component
	redis   *redis.Component
	http    *httpComponent
	server  *server.Server
	metrics *observability.Metrics
}

// New builds the application and registers its components in start order:
// observability, database, storage, redis when enabled, HTTP server.
func New(cfg *Config, opts ...bootstrap.Option) (*App, error) {
	b, err := bootstrap.NewApp(cfg, opts...)
	if err != nil {
		return nil, err
	}

	metrics, err := observability.NewGlobalMetrics()
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	a := &App{
		App:     b,
		obs:     observability.NewComponent(cfg.Observability, cfg.Name, cfg.Version, cfg.Environment, b.Logger),
		db:      database.NewComponent(cfg.Database, b.Logger).WithMigrations(schema.FS, schema.Dir),
		store:   storage.NewComponent(cfg.Storage, b.Logger),
		server:  server.New(cfg.Server, b.Logger),
		metrics: metrics,
	}
	a.http = &httpComponent{Server: a.server, mount: a.mount}

	if err := a.RegisterComponent(a.obs); err != nil {
		return nil, err
	}
	if err := a.RegisterComponent(a.db); err != nil {
		return nil, err
	}
	if err := a.RegisterComponent(a.store); err != nil {
		return nil, err
	}
	if cfg.Redis.Enabled {
		a.redis = redis.NewComponent(cfg.Redis, b.Logger)
		if err := a.RegisterComponent(a.redis); err != nil {
			return nil, err
		}
	}
	if err := a.RegisterComponent(a.http); err != nil {
		return nil, err
	}
	return a, nil
}

// Policy is the authorization rule table of the service.
func Policy() *authz.Policy {
	return authz.DefaultPolicy()
}

// mount wires the services on the started database and storage and
// registers every route. It runs once, right before the server listens.
func (a *App) mount(ctx context.Context) error {
	cfg := a.Cfg

	codec, err := jwt.NewCodec(&cfg.Auth.JWT)
	if err != nil {
		return fmt.Errorf("token codec: %w", err)
	}
	if codec.Ephemeral() {
		a.Logger.Warn("auth.jwt.secret not set, using an ephemeral signing key; tokens will not survive a restart")
	}

	db := a.db.DB()
	ids := identity.NewService(
		identity.NewGormStore(db),
		password.NewHasher(cfg.Auth.Password),
		identity.WithDefaultRole(cfg.Auth.DefaultRole),
		identity.WithRecorder(a.metrics),
		identity.WithLogger(a.Logger),
	)

	repo := billing.NewGormRepository(db)
	bills := billing.NewService(repo, a.Logger)
	photos := billing.NewPhotoService(repo, a.store.Storage(), cfg.Storage.MaxFileSize, a.Logger)

	a.server.Prepare(server.ServiceInfo{
		Name:        cfg.Name,
		Version:     cfg.Version,
		Environment: cfg.Environment,
	}, a.Components.HealthAll)

	onError := middleware.WithErrorHandler(server.Fail)
	engine := a.server.Engine()
	engine.Use(
		middleware.Authenticate(codec, ids,
			onError,
			middleware.WithOutcomeHook(a.metrics.GateOutcome),
			middleware.WithGateLogger(a.Logger),
		),
		middleware.Authorize(Policy(), onError),
	)

	public := engine.Group("/auth")
	if limit := cfg.Server.AuthLimit; limit.Enabled() {
		if a.redis != nil {
			limit.Limiter = redis.NewWindowLimiter(a.redis.Client(), limit.RequestsPerMinute, time.Minute, cfg.Redis.KeyPrefix)
		}
		public.Use(middleware.RateLimit(ctx, limit, onError, middleware.WithGateLogger(a.Logger)))
	} else {
		a.Logger.Warn("Login rate limiting disabled")
	}
	api := engine.Group("/api")
	identity.NewHandler(ids, codec).RegisterRoutes(public, api)
	billing.NewHandler(bills, photos).RegisterRoutes(api)

	a.Logger.Info("Routes mounted", logger.Fields("auth", cfg.Auth.Describe()))
	return nil
}

// Migrate brings the schema up to date and returns without serving. A non-zero
// steps applies that many migrations instead, rolling back when negative.
func (a *App) Migrate(ctx context.Context, steps int) error {
	cfg := a.Cfg.Database
	cfg.Migrate = steps == 0

	db := database.NewComponent(cfg, a.Logger).WithMigrations(schema.FS, schema.Dir)
	if err := db.Start(ctx); err != nil {
		return err
	}
	defer db.Stop(ctx) //nolint:errcheck // best-effort close after migrating

	m, err := migration.New(db.DB().GormDB, schema.FS, schema.Dir, a.Logger)
	if err != nil {
		return err
	}
	if steps != 0 {
		if err := m.Steps(steps); err != nil {
			return err
		}
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if dirty {
		return fmt.Errorf("schema version %d is dirty", version)
	}
	a.Logger.Info("Schema migrated", logger.Fields("version", version, "steps", steps))
	return nil
}

// httpComponent mounts the routes once the components below it are started,
// then serves. The rate limiter janitor stops with it.
type httpComponent struct {
	*server.Server
	mount func(ctx context.Context) error

	once   sync.Once
	err    error
	cancel context.CancelFunc
}

func (h *httpComponent) setup() error {
	h.once.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancel = cancel
		h.err = h.mount(ctx)
	})
	return h.err
}

func (h *httpComponent) Start(ctx context.Context) error {
	if err := h.setup(); err != nil {
		return err
	}
	return h.Server.Start(ctx)
}

func (h *httpComponent) Stop(ctx context.Context) error {
	if h.cancel != nil {
		h.cancel()
	}
	return h.Server.Stop(ctx)
}
