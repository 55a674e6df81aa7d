package tools_test

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/moneylens/modules/tools"
	"github.com/dmitrymomot/moneylens/pkg/entitlement"
)

type fixture struct {
	srv   http.Handler
	store *entitlement.MemoryStore
	now   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	provider, err := entitlement.NewStripeProvider(entitlement.StripeConfig{
		SecretKey:     "sk_test_tools",
		WebhookSecret: "whsec_tools",
	})
	require.NoError(t, err)

	f := &fixture{
		store: entitlement.NewMemoryStore(),
		now:   time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	svc, err := entitlement.NewService(context.Background(),
		entitlement.NewInMemSource(entitlement.DefaultPlans("GBP")...),
		provider, f.store,
		entitlement.WithClock(func() time.Time { return f.now }),
	)
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Mount(tools.Pattern, tools.New(svc, tools.WithRandSource(func() *rand.Rand {
		return rand.New(rand.NewPCG(1, 2))
	})).Handle())
	f.srv = r
	return f
}

func (f *fixture) grant(t *testing.T, userID string, until *time.Time) {
	t.Helper()
	premium := true
	patch := entitlement.Patch{IsPremium: &premium, PremiumSince: &f.now, UpdatedAt: f.now}
	if until == nil {
		patch.Lifetime = true
	} else {
		patch.PremiumUntil = until
	}
	require.NoError(t, f.store.Update(context.Background(), userID, patch))
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Meta  map[string]any  `json:"meta"`
	Error *struct {
		Code    string              `json:"code"`
		Details map[string][]string `json:"details"`
	} `json:"error"`
}

func (f *fixture) post(t *testing.T, userID, tool string, body any, headers ...string) (int, envelope) {
	t.Helper()

	b, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/v1/users/"+userID+"/tools/"+tool, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.srv.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec.Code, env
}

func TestGate(t *testing.T) {
	t.Parallel()

	t.Run("fresh user is denied and recorded", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		code, env := f.post(t, "42", "streak-risk", map[string]int{"trials": 100, "length": 7}, tools.UsernameHeader, "alice")
		assert.Equal(t, http.StatusPaymentRequired, code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "payment_required", env.Error.Code)
		assert.Equal(t, "/v1/plans", env.Meta["plans"])

		rec, err := f.store.Get(context.Background(), "42")
		require.NoError(t, err)
		assert.False(t, rec.IsPremium)
		assert.Equal(t, "alice", rec.Username)
	})

	t.Run("lifetime user is allowed", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		f.grant(t, "42", nil)

		code, env := f.post(t, "42", "streak-risk", map[string]int{"trials": 100, "length": 7})
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, "streak-risk", env.Meta["tool"])
	})

	t.Run("expired grant is denied and downgraded", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		past := f.now.Add(-time.Hour)
		f.grant(t, "42", &past)

		code, _ := f.post(t, "42", "streak-risk", map[string]int{"trials": 100, "length": 7})
		assert.Equal(t, http.StatusPaymentRequired, code)

		rec, err := f.store.Get(context.Background(), "42")
		require.NoError(t, err)
		assert.False(t, rec.IsPremium)
	})

	t.Run("roulette is open to everyone", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		code, env := f.post(t, "42", "roulette", map[string]string{"bet": "red"})
		require.Equal(t, http.StatusOK, code)
		assert.Equal(t, "roulette", env.Meta["tool"])

		var res struct {
			WinProb float64 `json:"win_prob"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &res))
		assert.InDelta(t, 18.0/37, res.WinProb, 1e-12)

		_, err := f.store.Get(context.Background(), "42")
		assert.ErrorIs(t, err, entitlement.ErrRecordNotFound, "ungated route must not create a record")
	})
}

func TestCalculators(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.grant(t, "42", nil)

	t.Run("streak risk", func(t *testing.T) {
		t.Parallel()
		code, env := f.post(t, "42", "streak-risk", map[string]int{"trials": 100, "length": 7})
		require.Equal(t, http.StatusOK, code)

		var res struct {
			Probability float64 `json:"probability"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &res))
		want := 1 - math.Pow(1-math.Pow(0.5, 7), 94)
		assert.InDelta(t, want, res.Probability, 1e-12)
	})

	t.Run("invalid input is unprocessable", func(t *testing.T) {
		t.Parallel()
		code, env := f.post(t, "42", "expected-value", map[string]any{"win_prob": 1.5, "payout": 1, "loss": 1, "rounds": 10})
		assert.Equal(t, http.StatusUnprocessableEntity, code)
		require.NotNil(t, env.Error)
		assert.Contains(t, env.Error.Details, "win_prob")
	})

	t.Run("unknown roulette bet", func(t *testing.T) {
		t.Parallel()
		code, env := f.post(t, "42", "roulette", map[string]string{"bet": "purple"})
		assert.Equal(t, http.StatusUnprocessableEntity, code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "unprocessable_entity", env.Error.Code)
	})

	t.Run("fair bet variance has null coefficient", func(t *testing.T) {
		t.Parallel()
		code, env := f.post(t, "42", "variance", map[string]any{"win_prob": 0.5, "payout": 1, "loss": 1, "rounds": 10})
		require.Equal(t, http.StatusOK, code)

		var res map[string]any
		require.NoError(t, json.Unmarshal(env.Data, &res))
		assert.Contains(t, res, "coefficient_of_variation")
		assert.Nil(t, res["coefficient_of_variation"])
		assert.InDelta(t, 0, res["ev_total"], 1e-12)
	})

	t.Run("monte carlo", func(t *testing.T) {
		t.Parallel()
		code, env := f.post(t, "42", "monte-carlo", map[string]int{"simulations": 500})
		require.Equal(t, http.StatusOK, code)

		var res struct {
			Simulations int `json:"simulations"`
			Steps       int `json:"steps"`
			Min         int `json:"min"`
			Max         int `json:"max"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &res))
		assert.Equal(t, 500, res.Simulations)
		assert.Equal(t, 100, res.Steps)
		assert.LessOrEqual(t, res.Min, res.Max)
	})

	t.Run("monte carlo bounds", func(t *testing.T) {
		t.Parallel()
		code, _ := f.post(t, "42", "monte-carlo", map[string]int{"simulations": 10})
		assert.Equal(t, http.StatusUnprocessableEntity, code)
	})

	t.Run("blackjack", func(t *testing.T) {
		t.Parallel()
		code, env := f.post(t, "42", "blackjack", map[string]int{"total": 12})
		require.Equal(t, http.StatusOK, code)

		var res struct {
			Probability float64 `json:"probability"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &res))
		assert.InDelta(t, 4.0/13.0, res.Probability, 1e-12)
	})

	t.Run("bankroll", func(t *testing.T) {
		t.Parallel()
		code, _ := f.post(t, "42", "bankroll", map[string]any{"bankroll": 1000, "avg_bet": 10, "house_edge": 0.027, "rounds": 100})
		assert.Equal(t, http.StatusOK, code)
	})

	t.Run("loss streak", func(t *testing.T) {
		t.Parallel()
		code, _ := f.post(t, "42", "loss-streak", map[string]any{"trials": 50, "length": 5, "loss_prob": 0.6})
		assert.Equal(t, http.StatusOK, code)
	})
}
