// Package pg bootstraps PostgreSQL access on top of pgx/v5.
//
// It exposes an env-driven Config, Connect (pool with retry), Healthcheck for
// readiness probes, Migrate for embedded goose migrations, and a couple of
// error classifiers used by repositories.
//
// # Usage
//
//	cfg, err := config.Load[pg.Config]()
//	if err != nil {
//		return err
//	}
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, store.Migrations(), cfg, slog.Default()); err != nil {
//		return err
//	}
//
// # Errors
//
// Failures are joined with package sentinels (ErrFailedToOpenDBConnection,
// ErrFailedToApplyMigrations, ErrHealthcheckFailed) so callers can match them
// with errors.Is. IsNotFoundError and IsDuplicateKeyError classify driver errors.
package pg
