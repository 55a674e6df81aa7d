// Package httpserver wraps net/http with graceful shutdown, configurable
// timeouts and health probes.
//
// Run blocks until the context is cancelled or Shutdown is called, then stops
// the server with http.Server.Shutdown bounded by the shutdown timeout. The
// caller owns signal handling:
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//
//	r := chi.NewRouter()
//	r.Get("/health/live", httpserver.LivenessHandler())
//	r.Get("/health/ready", httpserver.ReadinessHandler(log, 0,
//		httpserver.Check{Name: "store", Fn: pg.Healthcheck(pool)},
//	))
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, r); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
//
// Listen errors are wrapped with ErrStart and shutdown errors with ErrShutdown.
package httpserver
