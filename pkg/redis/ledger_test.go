package redis_test

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/moneylens/pkg/entitlement"
	"github.com/dmitrymomot/moneylens/pkg/redis"
)

type fakeClient struct {
	keys    map[string]time.Duration
	failing error
}

func newFakeClient() *fakeClient {
	return &fakeClient{keys: make(map[string]time.Duration)}
}

func (f *fakeClient) Exists(_ context.Context, keys ...string) *goredis.IntCmd {
	if f.failing != nil {
		return goredis.NewIntResult(0, f.failing)
	}
	var n int64
	for _, k := range keys {
		if _, ok := f.keys[k]; ok {
			n++
		}
	}
	return goredis.NewIntResult(n, nil)
}

func (f *fakeClient) Set(_ context.Context, key string, _ any, ttl time.Duration) *goredis.StatusCmd {
	if f.failing != nil {
		return goredis.NewStatusResult("", f.failing)
	}
	f.keys[key] = ttl
	return goredis.NewStatusResult("OK", nil)
}

var _ entitlement.EventLedger = (*redis.EventLedger)(nil)

func TestEventLedger(t *testing.T) {
	t.Parallel()

	t.Run("remembers with prefix and ttl", func(t *testing.T) {
		t.Parallel()
		client := newFakeClient()
		ledger := redis.NewEventLedger(client, "ml:events:")

		seen, err := ledger.Seen(t.Context(), "evt_1")
		require.NoError(t, err)
		assert.False(t, seen)

		require.NoError(t, ledger.Remember(t.Context(), "evt_1", time.Hour))
		assert.Equal(t, time.Hour, client.keys["ml:events:evt_1"])

		seen, err = ledger.Seen(t.Context(), "evt_1")
		require.NoError(t, err)
		assert.True(t, seen)
	})

	t.Run("empty id is never stored", func(t *testing.T) {
		t.Parallel()
		client := newFakeClient()
		ledger := redis.NewEventLedger(client, "p:")

		require.NoError(t, ledger.Remember(t.Context(), "", time.Hour))
		assert.Empty(t, client.keys)

		seen, err := ledger.Seen(t.Context(), "")
		require.NoError(t, err)
		assert.False(t, seen)
	})

	t.Run("client failure", func(t *testing.T) {
		t.Parallel()
		client := newFakeClient()
		client.failing = errors.New("connection refused")
		ledger := redis.NewEventLedger(client, "p:")

		_, err := ledger.Seen(t.Context(), "evt_1")
		assert.ErrorIs(t, err, redis.ErrLedgerUnavailable)
		assert.ErrorIs(t, ledger.Remember(t.Context(), "evt_1", time.Hour), redis.ErrLedgerUnavailable)
	})

	t.Run("nil client panics", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { redis.NewEventLedger(nil, "p:") })
	})
}

func TestConnectRejectsEmptyURL(t *testing.T) {
	t.Parallel()

	_, err := redis.Connect(t.Context(), redis.Config{})
	assert.ErrorIs(t, err, redis.ErrEmptyConnectionURL)
}
