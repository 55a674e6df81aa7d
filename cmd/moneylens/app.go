package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dmitrymomot/moneylens/pkg/config"
	"github.com/dmitrymomot/moneylens/pkg/entitlement"
	"github.com/dmitrymomot/moneylens/pkg/httpserver"
	"github.com/dmitrymomot/moneylens/pkg/logger"
	"github.com/dmitrymomot/moneylens/pkg/mongo"
	"github.com/dmitrymomot/moneylens/pkg/pg"
	"github.com/dmitrymomot/moneylens/pkg/redis"
	"github.com/dmitrymomot/moneylens/svc/store"
)

// app holds the wired dependencies shared by all commands.
type app struct {
	cfg    AppConfig
	log    *slog.Logger
	store  entitlement.Store
	svc    entitlement.Service
	checks []httpserver.Check

	closers []func(context.Context) error
}

// bootstrap connects the configured backends and builds the entitlement service.
// Callers must Close the app even when bootstrap fails half way.
func bootstrap(ctx context.Context, cfg AppConfig, log *slog.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	if err := a.openStore(ctx); err != nil {
		return a, err
	}

	provider, err := newProvider(cfg.BillingProvider)
	if err != nil {
		return a, err
	}

	opts := []entitlement.ServiceOption{
		entitlement.WithLogger(log),
		entitlement.WithCheckoutURLs(cfg.CheckoutSuccessURL, cfg.CheckoutCancelURL),
		entitlement.WithReturnRedirectActivation(cfg.ReturnRedirectEnabled),
	}
	if cfg.LedgerEnabled {
		ledger, err := a.openLedger(ctx)
		if err != nil {
			return a, err
		}
		opts = append(opts, entitlement.WithEventLedger(ledger, cfg.LedgerTTL))
	}

	a.svc, err = entitlement.NewService(ctx, planSource(cfg), provider, a.store, opts...)
	if err != nil {
		return a, fmt.Errorf("failed to create entitlement service: %w", err)
	}
	return a, nil
}

// Close releases backend connections in reverse order of opening.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func (a *app) openStore(ctx context.Context) error {
	switch a.cfg.StorageDriver {
	case StoragePostgres:
		var cfg pg.Config
		if err := config.Load(&cfg); err != nil {
			return err
		}
		pool, err := pg.Connect(ctx, cfg)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func(context.Context) error { pool.Close(); return nil })
		if a.cfg.AutoMigrate {
			if err := pg.Migrate(ctx, pool, store.Migrations(), cfg, a.log); err != nil {
				return err
			}
		}
		a.store = store.NewPostgresStore(pool)
		a.checks = append(a.checks, httpserver.Check{Name: "postgres", Fn: pg.Healthcheck(pool)})

	case StorageMongo:
		var cfg mongo.Config
		if err := config.Load(&cfg); err != nil {
			return err
		}
		db, err := mongo.NewWithDatabase(ctx, cfg)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, db.Client().Disconnect)
		s := store.NewMongoStore(db)
		if err := s.EnsureIndexes(ctx); err != nil {
			return err
		}
		a.store = s
		a.checks = append(a.checks, httpserver.Check{Name: "mongo", Fn: mongo.Healthcheck(db.Client())})

	default:
		a.log.WarnContext(ctx, "using in-memory storage, entitlements are lost on restart")
		a.store = entitlement.NewMemoryStore()
	}
	return nil
}

func (a *app) openLedger(ctx context.Context) (entitlement.EventLedger, error) {
	var cfg redis.Config
	if err := config.Load(&cfg); err != nil {
		return nil, err
	}
	client, err := redis.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func(context.Context) error { return client.Close() })
	a.checks = append(a.checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client)})
	return redis.NewEventLedger(client, cfg.LedgerPrefix), nil
}

func newProvider(name string) (entitlement.PaymentProvider, error) {
	switch name {
	case ProviderPaddle:
		var cfg entitlement.PaddleConfig
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		return entitlement.NewPaddleProvider(cfg)
	default:
		var cfg entitlement.StripeConfig
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		return entitlement.NewStripeProvider(cfg)
	}
}

func planSource(cfg AppConfig) entitlement.PlansListSource {
	if cfg.PlansFile == "" {
		return entitlement.NewInMemSource(entitlement.DefaultPlans(cfg.Currency)...)
	}
	return entitlement.NewYAMLSource(os.DirFS(filepath.Dir(cfg.PlansFile)), filepath.Base(cfg.PlansFile))
}

func newLogger(cfg AppConfig, extractors ...logger.ContextExtractor) *slog.Logger {
	return logger.New(
		logger.WithEnvironment(cfg.Env, cfg.Name),
		logger.WithLevelName(cfg.LogLevel),
		logger.WithContextExtractors(extractors...),
	)
}
