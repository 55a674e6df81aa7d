// Package redis provides helpers for connecting to Redis and the Redis-backed
// payment event ledger.
//
// The package wraps the go-redis client and adds:
//
//   - Connect, which retries the connection using the supplied configuration.
//   - EventLedger, which remembers processed webhook event ids with a TTL so
//     duplicate deliveries are acknowledged without another store write.
//   - Healthcheck, for readiness probes.
//
// Configuration is described by the Config struct whose fields are populated
// from environment variables via github.com/caarlos0/env.
//
// # Usage
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	ledger := redis.NewEventLedger(client, cfg.LedgerPrefix)
//	svc := entitlement.NewService(ctx, plans, provider, store,
//	    entitlement.WithEventLedger(ledger, 72*time.Hour))
//
// # Error Handling
//
// Ledger failures are joined with ErrLedgerUnavailable. Callers treat the
// ledger as an optimization only and continue processing on error.
package redis
