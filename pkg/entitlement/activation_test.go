package entitlement_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/moneylens/pkg/entitlement"
)

func TestParseReturnPayload(t *testing.T) {
	t.Parallel()

	tests := []struct {
		payload string
		want    string
		wantErr bool
	}{
		{"paid_monthly", "monthly", false},
		{" paid_lifetime ", "lifetime", false},
		{"paid_", "", true},
		{"monthly", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.payload, func(t *testing.T) {
			got, err := entitlement.ParseReturnPayload(tt.payload)
			if tt.wantErr {
				assert.ErrorIs(t, err, entitlement.ErrInvalidReturnPayload)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_ActivateFromReturnRedirect(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("grants and records a pending payment", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		res, err := f.svc.ActivateFromReturnRedirect(ctx, "U", entitlement.PlanMonthly)
		require.NoError(t, err)
		assert.Equal(t, entitlement.OutcomeGranted, res.Outcome)
		assert.True(t, f.svc.IsEntitled(ctx, "U"))

		payments := f.store.Payments("U")
		require.Len(t, payments, 1)
		assert.Equal(t, entitlement.PaymentStatusPending, payments[0].Status)
		assert.Equal(t, entitlement.PaymentSourceReturnRedirect, payments[0].Source)
	})

	t.Run("webhook and redirect converge", func(t *testing.T) {
		t.Parallel()
		viaRedirect := newFixture(t)
		viaBoth := newFixture(t)

		_, err := viaRedirect.svc.ActivateFromReturnRedirect(ctx, "U", entitlement.PlanMonthly)
		require.NoError(t, err)

		_, err = viaBoth.svc.Reconcile(ctx, monthlyCreated("evt_1", "U"))
		require.NoError(t, err)
		_, err = viaBoth.svc.ActivateFromReturnRedirect(ctx, "U", entitlement.PlanMonthly)
		require.NoError(t, err)

		a, err := viaRedirect.store.Get(ctx, "U")
		require.NoError(t, err)
		b, err := viaBoth.store.Get(ctx, "U")
		require.NoError(t, err)

		assert.Equal(t, a.IsPremium, b.IsPremium)
		assert.True(t, a.PremiumUntil.Equal(*b.PremiumUntil))
	})

	t.Run("lifetime", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		res, err := f.svc.ActivateFromReturnRedirect(ctx, "U", entitlement.PlanLifetime)
		require.NoError(t, err)
		assert.True(t, res.Lifetime)

		rec, err := f.store.Get(ctx, "U")
		require.NoError(t, err)
		assert.Nil(t, rec.PremiumUntil)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		_, err := f.svc.ActivateFromReturnRedirect(ctx, "", entitlement.PlanMonthly)
		assert.ErrorIs(t, err, entitlement.ErrMissingUserID)

		_, err = f.svc.ActivateFromReturnRedirect(ctx, "U", "weekly")
		assert.ErrorIs(t, err, entitlement.ErrPlanNotFound)
		assert.Zero(t, f.store.writes())
	})

	t.Run("can be disabled", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t, entitlement.WithReturnRedirectActivation(false))

		_, err := f.svc.ActivateFromReturnRedirect(ctx, "U", entitlement.PlanMonthly)
		assert.ErrorIs(t, err, entitlement.ErrReturnRedirectOff)
		assert.False(t, f.svc.IsEntitled(ctx, "U"))
	})
}
