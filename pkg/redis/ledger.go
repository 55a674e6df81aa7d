package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// LedgerClient is the part of redis.UniversalClient used by EventLedger.
type LedgerClient interface {
	Exists(ctx context.Context, keys ...string) *redis.IntCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// EventLedger remembers processed payment event ids with a TTL so repeated
// webhook deliveries can be acknowledged without touching the store.
type EventLedger struct {
	db     LedgerClient
	prefix string
}

// NewEventLedger returns a ledger that namespaces keys with prefix.
func NewEventLedger(client LedgerClient, prefix string) *EventLedger {
	if client == nil {
		panic("redis: ledger client cannot be nil")
	}
	return &EventLedger{db: client, prefix: prefix}
}

// Seen reports whether the event id was remembered and has not expired.
func (l *EventLedger) Seen(ctx context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return false, nil
	}
	n, err := l.db.Exists(ctx, l.key(eventID)).Result()
	if err != nil {
		return false, errors.Join(ErrLedgerUnavailable, err)
	}
	return n > 0, nil
}

// Remember stores the event id. A zero ttl keeps it forever.
func (l *EventLedger) Remember(ctx context.Context, eventID string, ttl time.Duration) error {
	if eventID == "" {
		return nil
	}
	if err := l.db.Set(ctx, l.key(eventID), time.Now().UTC().Unix(), ttl).Err(); err != nil {
		return errors.Join(ErrLedgerUnavailable, err)
	}
	return nil
}

func (l *EventLedger) key(eventID string) string {
	return l.prefix + eventID
}
