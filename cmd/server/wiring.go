package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"lostfound/internal/gateway/twilio"
	"lostfound/internal/item/handler"
	itemmetrics "lostfound/internal/item/metrics"
	"lostfound/internal/item/service"
	"lostfound/internal/item/store"
	"lostfound/internal/platform/config"
	"lostfound/internal/platform/database"
	platformmetrics "lostfound/internal/platform/metrics"
	"lostfound/internal/platform/redis"
	"lostfound/internal/qrcode"
	httptransport "lostfound/internal/transport/http"
)

// app holds the assembled handler and the resources to release on shutdown.
type app struct {
	Handler http.Handler
	closers []func() error
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

// buildApp assembles the server. On error every resource opened so far has
// already been released.
func buildApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			if closeErr := a.Close(); closeErr != nil {
				log.Error("failed to release resources after startup error", "error", closeErr)
			}
		}
	}()

	backend, err := openStore(ctx, cfg.Store, log, a)
	if err != nil {
		return nil, err
	}

	readiness := map[string]httptransport.Pinger{"store": backend}
	cache, err := openCache(ctx, cfg, readiness, a)
	if err != nil {
		return nil, err
	}

	gateway, err := openGateway(cfg.Gateway, log)
	if err != nil {
		return nil, err
	}

	// Metrics register globally; create them only once nothing can fail.
	itemMetrics := itemmetrics.New()

	// Lookups go through the cache; the dispatcher reads the backend directly
	// so it never sends to a stale contact.
	var registry service.Registry = backend
	if cache != nil {
		registry = store.NewCached(backend, cache,
			store.WithCacheLogger(log),
			store.WithCacheMetrics(itemMetrics),
		)
	}

	svc := service.New(registry, service.WithLogger(log), service.WithMetrics(itemMetrics))
	dispatcher := service.NewDispatcher(backend, gateway,
		service.GatewayConfig{
			AccountSID: cfg.Gateway.AccountSID,
			AuthToken:  cfg.Gateway.AuthToken,
			From:       cfg.Gateway.WhatsAppFrom,
			Timeout:    cfg.Gateway.Timeout,
		},
		service.WithDispatcherLogger(log),
		service.WithDispatcherMetrics(itemMetrics),
	)
	items := handler.New(svc, dispatcher, qrcode.New(), cfg.Server.PublicBaseURL, log)

	a.Handler = httptransport.NewRouter(httptransport.Config{
		Logger:         log,
		Metrics:        platformmetrics.New(),
		RequestTimeout: cfg.Server.RequestTimeout,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Readiness:      readiness,
		Routes:         []httptransport.Routes{items},
	})
	return a, nil
}

// openStore opens the configured backend, applying schema changes first.
func openStore(ctx context.Context, cfg config.StoreConfig, log *slog.Logger, a *app) (store.Backend, error) {
	switch cfg.Driver {
	case config.StoreMemory:
		log.Warn("using in-memory store; registrations are lost on restart")
		return store.NewInMemory(), nil

	case config.StoreSQLite:
		st, err := store.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, st.Close)
		if err := st.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return st, nil

	case config.StorePostgres:
		if err := database.Migrate(cfg.DatabaseURL); err != nil {
			return nil, err
		}
		db, err := database.OpenPostgres(ctx, cfg.DatabaseURL, database.DefaultPoolConfig())
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.Close)
		return store.NewPostgres(db), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

// openCache returns Redis when configured, a process-local cache when only a
// TTL is set, and nil when caching is disabled with a zero TTL.
func openCache(ctx context.Context, cfg *config.Config, readiness map[string]httptransport.Pinger, a *app) (store.Cache, error) {
	if cfg.Cache.TTL == 0 {
		return nil, nil
	}
	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if client == nil {
		return store.NewMemoryCache(cfg.Cache.TTL), nil
	}
	a.closers = append(a.closers, client.Close)
	readiness["redis"] = httptransport.PingFunc(client.Health)
	return store.NewRedisCache(client.Client, cfg.Cache.TTL), nil
}

// openGateway returns nil when credentials are incomplete; notify then
// reports a misconfigured gateway instead of the server refusing to start.
func openGateway(cfg config.GatewayConfig, log *slog.Logger) (service.Gateway, error) {
	if !cfg.GatewayConfigured() {
		log.Warn("messaging gateway credentials incomplete; notify is unavailable")
		return nil, nil
	}
	gw, err := twilio.New(cfg.AccountSID, cfg.AuthToken, cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return gw, nil
}
