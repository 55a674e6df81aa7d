// Package mongo manages the MongoDB client used by the document store.
//
// Configuration comes from MONGODB_* environment variables. New connects with
// retry and a ping, NewWithDatabase selects the configured database, and
// Healthcheck returns a closure for readiness probes.
//
// # Usage
//
//	cfg, err := config.Load[mongo.Config]()
//	if err != nil {
//		return err
//	}
//	db, err := mongo.NewWithDatabase(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer db.Client().Disconnect(context.Background())
//
//	ready := mongo.Healthcheck(db.Client())
//
// # Error Handling
//
// Connection failures are joined with ErrFailedToConnectToMongo and the last
// driver error. IsDuplicateKeyError and IsNotFoundError classify driver errors
// for repositories without importing the driver directly.
package mongo
