package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/dmitrymomot/moneylens/modules/billing"
	"github.com/dmitrymomot/moneylens/modules/tools"
	"github.com/dmitrymomot/moneylens/pkg/config"
	"github.com/dmitrymomot/moneylens/pkg/environment"
	"github.com/dmitrymomot/moneylens/pkg/httpserver"
	"github.com/dmitrymomot/moneylens/pkg/logger"
	"github.com/dmitrymomot/moneylens/pkg/requestid"
)

func newServeCmd() *cobra.Command {
	var lang string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and webhook receiver",
		RunE: func(cmd *cobra.Command, args []string) error {
			tag, err := language.Parse(lang)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), tag)
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "en-GB", "default language for plan prices")
	return cmd
}

func serve(ctx context.Context, lang language.Tag) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cfg AppConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}
	env := environment.Parse(cfg.Env)
	log := newLogger(cfg, requestid.LoggerExtractor())
	logger.SetAsDefault(log)

	a, err := bootstrap(ctx, cfg, log)
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			log.Error("failed to close backends", logger.Error(err))
		}
	}()
	if err != nil {
		return err
	}

	log.InfoContext(ctx, "starting moneylens",
		logger.Provider(a.svc.ProviderName()),
		slog.String("storage", cfg.StorageDriver),
	)

	return httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log)).Run(ctx, newRouter(a, log, env, lang))
}

// newRouter mounts the HTTP surface: probes, metrics, the gated tools and
// the billing API.
func newRouter(a *app, log *slog.Logger, env environment.Environment, lang language.Tag) http.Handler {
	r := chi.NewRouter()
	r.Use(
		requestid.Middleware(),
		environment.Middleware(env),
		middleware.Recoverer,
	)

	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(log, a.cfg.HealthCheckTimeout, a.checks...))
	r.Handle("/metrics", promhttp.Handler())

	r.Mount(tools.Pattern, tools.New(a.svc, tools.WithLogger(log)).Handle())
	r.Mount("/", billing.New(a.svc,
		billing.WithLogger(log),
		billing.WithDefaultLanguage(lang),
	).Handle())

	return r
}
