// Package store contains the persistent implementations of entitlement.Store.
//
// MongoStore keeps a users collection keyed by the external user id and an
// append-only payments collection. PostgresStore keeps the same data in the
// entitlements and payments tables, built with squirrel and migrated with the
// embedded goose migrations returned by Migrations.
//
// Both stores implement Update as an upsert so a webhook for a user who never
// talked to the bot still produces a record, and both enforce the
// pending -> successful|failed payment transition with a conditional write.
package store
