// Package app assembles the storage backend, stores and services of one process.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"eagles/internal/adapters/email"
	web "eagles/internal/adapters/http"
	"eagles/internal/adapters/storage"
	"eagles/internal/adapters/storage/memory"
	"eagles/internal/adapters/storage/postgres"
	"eagles/internal/adapters/storage/redis"
	"eagles/internal/adapters/storage/sqlite"
	"eagles/internal/application/identity"
	"eagles/internal/application/sessions"
	"eagles/internal/config"
	"eagles/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// App holds the loaded stores and their backing resources.
type App struct {
	Config   *config.Config
	Registry *prometheus.Registry
	Metrics  *metrics.Collector
	KV       storage.KV
	Identity *identity.Store
	Sessions *sessions.Store
	Sender   email.Sender

	closeKV func() error
}

// New opens the configured backend and hydrates both stores.
// PRE: cfg came from config.Load (or is equivalent)
// POST: stores are loaded; call Close to release the backend
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	kv, closeKV, err := OpenKV(ctx, cfg, collector)
	if err != nil {
		return nil, err
	}
	kv = storage.NewInstrumented(kv, collector)

	ids := identity.New(kv, identity.Options{AdminUsernames: cfg.AdminUsernames, Metrics: collector})
	ids.Load(ctx)
	store := sessions.New(kv, sessions.Options{Metrics: collector})
	store.Load(ctx)

	return &App{
		Config:   cfg,
		Registry: reg,
		Metrics:  collector,
		KV:       kv,
		Identity: ids,
		Sessions: store,
		Sender:   NewSender(cfg),
		closeKV:  closeKV,
	}, nil
}

// OpenKV opens the backend selected by cfg.Store.
// SQL backends are migrated and wrapped in a storage.TimedDB reporting to observer.
// The returned close func releases the backend.
func OpenKV(ctx context.Context, cfg *config.Config, observer storage.OpObserver) (storage.KV, func() error, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return memory.New(), func() error { return nil }, nil

	case config.StoreSQLite:
		db, err := sqlite.Open(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		if err := sqlite.Migrate(db); err != nil {
			db.Close()
			return nil, nil, err
		}
		timed := storage.NewTimedDB(db, cfg.Store, observer, cfg.SlowQuery)
		slog.Info("storage_opened", "store", cfg.Store, "path", cfg.DBPath)
		return sqlite.NewStore(timed), timed.Close, nil

	case config.StorePostgres:
		if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
			return nil, nil, err
		}
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		timed := storage.NewTimedDB(db, cfg.Store, observer, cfg.SlowQuery)
		slog.Info("storage_opened", "store", cfg.Store)
		return postgres.NewStore(timed), timed.Close, nil

	case config.StoreRedis:
		rs := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := rs.Ping(ctx); err != nil {
			rs.Close()
			return nil, nil, fmt.Errorf("redis unreachable: %w", err)
		}
		slog.Info("storage_opened", "store", cfg.Store, "addr", cfg.RedisAddr)
		return rs, rs.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// NewSender returns the Resend sender when a key is configured, otherwise the logging noop sender.
func NewSender(cfg *config.Config) email.Sender {
	if cfg.ResendKey != "" {
		slog.Info("email_configured", "provider", "resend")
		return email.NewResendSender(cfg.ResendKey, cfg.ResendFrom, cfg.ReplyTo)
	}
	if cfg.IsProduction() {
		slog.Warn("email_disabled", "detail", "EAGLES_RESEND_KEY is not set; promotion notices are logged only")
	}
	return email.NewNoopSender()
}

// Server builds the HTTP server over the app's stores.
func (a *App) Server() *web.Server {
	return web.NewServer(web.Deps{
		Identity: a.Identity,
		Sessions: a.Sessions,
		Metrics:  a.Metrics,
		Gatherer: a.Registry,
		Sender:   a.Sender,
		From:     a.Config.ResendFrom,
		ReplyTo:  a.Config.ReplyTo,
	})
}

// MuxOptions derives the middleware options from the config.
func (a *App) MuxOptions() web.Options {
	return web.Options{
		CSRFKey:     a.Config.CSRFKey,
		Secure:      a.Config.IsProduction(),
		RateLimit:   a.Config.RateLimit,
		SlowRequest: a.Config.SlowRequest,
	}
}

// ShutdownTimeout bounds how long Serve waits for in-flight requests.
const ShutdownTimeout = 30 * time.Second

// Serve runs the HTTP server until ctx is cancelled, then shuts it down gracefully.
// PRE: the app is open
// POST: returns nil after a clean shutdown
func (a *App) Serve(ctx context.Context) error {
	handler, stop := web.NewMux(a.Server(), a.MuxOptions())
	defer stop()

	server := &http.Server{
		Addr:         a.Config.Addr,
		Handler:      handler,
		ReadTimeout:  a.Config.RequestTimeout,
		WriteTimeout: a.Config.RequestTimeout,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("server_starting", "addr", server.Addr, "env", a.Config.Env, "store", a.Config.Store)
		serverErrors <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("server_stopping")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	slog.Info("server_stopped")
	return nil
}

// Close releases the storage backend.
func (a *App) Close() error {
	if a.closeKV == nil {
		return nil
	}
	err := a.closeKV()
	a.closeKV = nil
	if err != nil {
		return fmt.Errorf("closing storage: %w", err)
	}
	return nil
}
