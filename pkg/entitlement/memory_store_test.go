package entitlement_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/moneylens/pkg/entitlement"
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("create is insert only", func(t *testing.T) {
		t.Parallel()
		s := entitlement.NewMemoryStore()

		require.NoError(t, s.Create(ctx, &entitlement.Record{UserID: "U"}))
		assert.ErrorIs(t, s.Create(ctx, &entitlement.Record{UserID: "U", IsPremium: true}), entitlement.ErrRecordExists)

		rec, err := s.Get(ctx, "U")
		require.NoError(t, err)
		assert.False(t, rec.IsPremium)
	})

	t.Run("update upserts and merges", func(t *testing.T) {
		t.Parallel()
		s := entitlement.NewMemoryStore()
		now := time.Now().UTC()
		until := now.Add(time.Hour)
		premium := true

		require.NoError(t, s.Update(ctx, "U", entitlement.Patch{IsPremium: &premium, PremiumUntil: &until, UpdatedAt: now}))
		rec, err := s.Get(ctx, "U")
		require.NoError(t, err)
		assert.True(t, rec.IsPremium)
		assert.Equal(t, now, rec.CreatedAt)

		require.NoError(t, s.Update(ctx, "U", entitlement.Patch{Lifetime: true}))
		rec, err = s.Get(ctx, "U")
		require.NoError(t, err)
		assert.True(t, rec.IsPremium)
		assert.Nil(t, rec.PremiumUntil)
		assert.True(t, rec.IsLifetime())
	})

	t.Run("expiry patch needs an expired premium record", func(t *testing.T) {
		t.Parallel()
		s := entitlement.NewMemoryStore()
		now := time.Now().UTC()
		off := false
		expire := entitlement.Patch{IsPremium: &off, UpdatedAt: now, ExpiredBefore: now}

		assert.ErrorIs(t, s.Update(ctx, "U", expire), entitlement.ErrPatchConditionFailed)
		_, err := s.Get(ctx, "U")
		assert.ErrorIs(t, err, entitlement.ErrRecordNotFound)

		future := now.Add(time.Hour)
		require.NoError(t, s.Create(ctx, &entitlement.Record{UserID: "U", IsPremium: true, PremiumUntil: &future}))
		assert.ErrorIs(t, s.Update(ctx, "U", expire), entitlement.ErrPatchConditionFailed)

		past := now.Add(-time.Hour)
		require.NoError(t, s.Create(ctx, &entitlement.Record{UserID: "V", IsPremium: true, PremiumUntil: &past}))
		require.NoError(t, s.Update(ctx, "V", expire))
		rec, err := s.Get(ctx, "V")
		require.NoError(t, err)
		assert.False(t, rec.IsPremium)
	})

	t.Run("time-boxed grant keeps a stored lifetime", func(t *testing.T) {
		t.Parallel()
		s := entitlement.NewMemoryStore()
		premium := true
		until := time.Now().Add(time.Hour)
		grant := entitlement.Patch{IsPremium: &premium, PremiumUntil: &until, KeepLifetime: true}

		require.NoError(t, s.Update(ctx, "U", grant), "missing record is inserted")

		require.NoError(t, s.Create(ctx, &entitlement.Record{UserID: "L", IsPremium: true}))
		assert.ErrorIs(t, s.Update(ctx, "L", grant), entitlement.ErrPatchConditionFailed)
		rec, err := s.Get(ctx, "L")
		require.NoError(t, err)
		assert.True(t, rec.IsLifetime())
	})

	t.Run("returned records are copies", func(t *testing.T) {
		t.Parallel()
		s := entitlement.NewMemoryStore()
		until := time.Now().Add(time.Hour)
		require.NoError(t, s.Create(ctx, &entitlement.Record{UserID: "U", IsPremium: true, PremiumUntil: &until}))

		rec, err := s.Get(ctx, "U")
		require.NoError(t, err)
		*rec.PremiumUntil = rec.PremiumUntil.Add(-24 * time.Hour)

		again, err := s.Get(ctx, "U")
		require.NoError(t, err)
		assert.True(t, again.PremiumUntil.Equal(until))
	})

	t.Run("payment status transitions", func(t *testing.T) {
		t.Parallel()
		s := entitlement.NewMemoryStore()
		id := uuid.New()
		require.NoError(t, s.AppendPayment(ctx, &entitlement.PaymentRecord{ID: id, UserID: "U", Status: entitlement.PaymentStatusPending}))

		require.NoError(t, s.UpdatePaymentStatus(ctx, id, entitlement.PaymentStatusFailed))
		assert.ErrorIs(t, s.UpdatePaymentStatus(ctx, id, entitlement.PaymentStatusSuccessful), entitlement.ErrInvalidPaymentState)
		assert.ErrorIs(t, s.UpdatePaymentStatus(ctx, uuid.New(), entitlement.PaymentStatusFailed), entitlement.ErrPaymentNotFound)
	})
}

func TestValidatePaymentTransition(t *testing.T) {
	t.Parallel()

	assert.NoError(t, entitlement.ValidatePaymentTransition(entitlement.PaymentStatusPending, entitlement.PaymentStatusSuccessful))
	assert.NoError(t, entitlement.ValidatePaymentTransition(entitlement.PaymentStatusPending, entitlement.PaymentStatusFailed))
	assert.Error(t, entitlement.ValidatePaymentTransition(entitlement.PaymentStatusPending, entitlement.PaymentStatusPending))
	assert.Error(t, entitlement.ValidatePaymentTransition(entitlement.PaymentStatusSuccessful, entitlement.PaymentStatusFailed))
	assert.Error(t, entitlement.ValidatePaymentTransition(entitlement.PaymentStatusPending, "refunded"))
}

func TestMemoryLedger(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	l := entitlement.NewMemoryLedger()

	seen, err := l.Seen(ctx, "evt_1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, l.Remember(ctx, "evt_1", time.Hour))
	seen, err = l.Seen(ctx, "evt_1")
	require.NoError(t, err)
	assert.True(t, seen)

	require.NoError(t, l.Remember(ctx, "evt_2", time.Nanosecond))
	time.Sleep(time.Millisecond)
	seen, err = l.Seen(ctx, "evt_2")
	require.NoError(t, err)
	assert.False(t, seen)
}
