package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/lodge"
	"github.com/aretw0/lodge/internal/config"
	"github.com/aretw0/lodge/internal/logging"
	"github.com/aretw0/lodge/pkg/adapters/archive"
	"github.com/aretw0/lodge/pkg/adapters/memory"
	"github.com/aretw0/lodge/pkg/adapters/redis"
	"github.com/aretw0/lodge/pkg/adapters/sqlstore"
	"github.com/aretw0/lodge/pkg/domain"
	"github.com/aretw0/lodge/pkg/lifecycle"
	"github.com/aretw0/lodge/pkg/observability"
	"github.com/aretw0/lodge/pkg/persistence/middleware"
	"github.com/aretw0/lodge/pkg/ports"
	"github.com/aretw0/lodge/pkg/session"
)

// piiCriteriaKeys are initial criteria keys masked before sessions are stored.
var piiCriteriaKeys = []string{`(?i)e-?mail`, `(?i)phone`, `(?i)name$`}

// App is a fully wired lodge service plus everything it needs to shut down.
type App struct {
	Config   *config.Config
	Logger   *slog.Logger
	Engine   *lodge.Engine
	Service  *lifecycle.Service
	Recorder *observability.Recorder
	Store    ports.SessionStore

	// SQL is nil unless a database driver is configured.
	SQL *sqlstore.Store

	closers []func() error
}

// Build wires the engine, session store, middleware and finalizers from cfg.
// The caller must Close the App.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = logging.NewNop()
	}
	app := &App{
		Config:   cfg,
		Logger:   logger,
		Recorder: observability.NewRecorder(),
	}

	app.Engine = lodge.New(
		lodge.WithName("lodge"),
		lodge.WithLogger(logger),
		lodge.WithLifecycleHooks(observability.ChainHooks(app.Recorder.Hooks(), debugHooks(logger))),
	)

	store, sessionOpts, err := app.openStore(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Store = store

	opts := []lifecycle.Option{
		lifecycle.WithLogger(logger),
		lifecycle.WithRecorder(app.Recorder),
		lifecycle.WithSessionTTL(cfg.SessionTTL),
		lifecycle.WithMaxMessages(cfg.MaxMessages),
		lifecycle.WithMaxInputSize(cfg.MaxInputSize),
	}
	finalizers, err := app.openFinalizers(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}
	opts = append(opts, finalizers...)

	app.Service = lifecycle.NewService(app.Engine, session.NewManager(store, sessionOpts...), opts...)
	return app, nil
}

func (a *App) openStore(ctx context.Context) (ports.SessionStore, []session.Option, error) {
	cfg := a.Config
	sessionOpts := []session.Option{session.WithLogger(a.Logger)}

	var base ports.SessionStore
	switch cfg.Store {
	case config.StoreRedis:
		rs := redis.New(cfg.RedisAddr, cfg.RedisPassword, 0, redis.WithTTL(cfg.SessionTTL))
		if err := rs.Ping(ctx); err != nil {
			_ = rs.Close()
			return nil, nil, fmt.Errorf("redis unreachable at %s: %w", cfg.RedisAddr, err)
		}
		a.closers = append(a.closers, rs.Close)
		sessionOpts = append(sessionOpts, session.WithLocker(redis.NewLocker(rs.Client(), "lodge:")))
		base = rs
	default:
		base = memory.NewStore()
	}

	// Chain applies the first middleware outermost: the cache holds live
	// sessions, PII masking runs before encryption.
	var mws []middleware.Middleware
	if cfg.CacheSize > 0 {
		cache, err := middleware.NewCacheMiddleware(cfg.CacheSize)
		if err != nil {
			return nil, nil, err
		}
		mws = append(mws, cache)
	}
	mws = append(mws, middleware.NewPIIMiddleware(piiCriteriaKeys))
	key, err := cfg.EncryptionKeyBytes()
	if err != nil {
		return nil, nil, err
	}
	if key != nil {
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			return nil, nil, err
		}
		mws = append(mws, enc)
	}

	a.Logger.Info("session store ready", "store", cfg.Store, "cache", cfg.CacheSize, "encrypted", key != nil)
	return middleware.Chain(base, mws...), sessionOpts, nil
}

func (a *App) openFinalizers(ctx context.Context) ([]lifecycle.Option, error) {
	cfg := a.Config
	var opts []lifecycle.Option

	if cfg.Database.Driver != "" {
		db, err := sqlstore.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s database: %w", cfg.Database.Driver, err)
		}
		a.SQL = db
		a.closers = append(a.closers, db.Close)
		opts = append(opts, lifecycle.WithFinalizer("sql", db))
	}

	if cfg.Archive.Enabled {
		arch, err := archive.New(archive.Config{
			Endpoint:  cfg.Archive.Endpoint,
			Region:    cfg.Archive.Region,
			AccessKey: cfg.Archive.AccessKey,
			SecretKey: cfg.Archive.SecretKey,
			Bucket:    cfg.Archive.Bucket,
			UseSSL:    cfg.Archive.UseSSL,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to configure archive: %w", err)
		}
		opts = append(opts, lifecycle.WithFinalizer("archive", arch))
	}

	opts = append(opts, lifecycle.WithFinalizer("log", lifecycle.LogFinalizer{Logger: a.Logger}))
	return opts, nil
}

// Close releases every backend in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

func debugHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "transition", "session_id", e.SessionID, "from", e.From, "to", e.To)
		},
		OnReprompt: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "reprompt", "session_id", e.SessionID, "step", e.To)
		},
		OnFinalize: func(ctx context.Context, e *domain.FinalizeEvent) {
			logger.DebugContext(ctx, "finalize", "session_id", e.SessionID, "outcome", e.Outcome)
		},
	}
}

// NewLogger builds the process logger from cfg. Local runs get text output,
// everything else JSON.
func NewLogger(cfg *config.Config, debug bool) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if debug {
		level = slog.LevelDebug
	}
	return logging.NewWithWriter(os.Stderr, level, !cfg.IsLocal()), nil
}
