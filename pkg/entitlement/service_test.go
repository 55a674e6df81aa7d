package entitlement_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/moneylens/pkg/entitlement"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) CreateCheckoutSession(ctx context.Context, req entitlement.CheckoutRequest) (*entitlement.CheckoutSession, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entitlement.CheckoutSession), args.Error(1)
}

func (m *mockProvider) ParseEvent(ctx context.Context, payload []byte, signature string) (*entitlement.Event, error) {
	args := m.Called(ctx, payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entitlement.Event), args.Error(1)
}

func (m *mockProvider) FetchSubscription(ctx context.Context, id string) (*entitlement.ProviderSubscription, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entitlement.ProviderSubscription), args.Error(1)
}

// spyStore wraps a MemoryStore and counts writes.
type spyStore struct {
	*entitlement.MemoryStore
	mu       sync.Mutex
	updates  int
	creates  int
	appends  int
	failGet  error
	failSave error
}

func newSpyStore() *spyStore {
	return &spyStore{MemoryStore: entitlement.NewMemoryStore()}
}

func (s *spyStore) Get(ctx context.Context, userID string) (*entitlement.Record, error) {
	if s.failGet != nil {
		return nil, s.failGet
	}
	return s.MemoryStore.Get(ctx, userID)
}

func (s *spyStore) Create(ctx context.Context, rec *entitlement.Record) error {
	s.mu.Lock()
	s.creates++
	s.mu.Unlock()
	if s.failSave != nil {
		return s.failSave
	}
	return s.MemoryStore.Create(ctx, rec)
}

func (s *spyStore) Update(ctx context.Context, userID string, patch entitlement.Patch) error {
	s.mu.Lock()
	s.updates++
	s.mu.Unlock()
	if s.failSave != nil {
		return s.failSave
	}
	return s.MemoryStore.Update(ctx, userID, patch)
}

func (s *spyStore) AppendPayment(ctx context.Context, p *entitlement.PaymentRecord) error {
	s.mu.Lock()
	s.appends++
	s.mu.Unlock()
	if s.failSave != nil {
		return s.failSave
	}
	return s.MemoryStore.AppendPayment(ctx, p)
}

func (s *spyStore) writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updates + s.creates + s.appends
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	svc      entitlement.Service
	store    *spyStore
	provider *mockProvider
	clock    *testClock
}

func newFixture(t *testing.T, opts ...entitlement.ServiceOption) *fixture {
	t.Helper()

	f := &fixture{
		store:    newSpyStore(),
		provider: &mockProvider{},
		clock:    newTestClock(),
	}
	opts = append([]entitlement.ServiceOption{entitlement.WithClock(f.clock.Now)}, opts...)

	svc, err := entitlement.NewService(context.Background(),
		entitlement.NewInMemSource(entitlement.DefaultPlans("GBP")...),
		f.provider, f.store, opts...)
	require.NoError(t, err)
	f.svc = svc
	return f
}

const day = 24 * time.Hour

func TestNewService(t *testing.T) {
	t.Parallel()

	t.Run("panics on nil dependencies", func(t *testing.T) {
		t.Parallel()
		src := entitlement.NewInMemSource(entitlement.DefaultPlans("GBP")...)
		store := entitlement.NewMemoryStore()
		provider := &mockProvider{}

		assert.Panics(t, func() { _, _ = entitlement.NewService(context.Background(), nil, provider, store) })
		assert.Panics(t, func() { _, _ = entitlement.NewService(context.Background(), src, nil, store) })
		assert.Panics(t, func() { _, _ = entitlement.NewService(context.Background(), src, provider, nil) })
	})

	t.Run("rejects invalid plans", func(t *testing.T) {
		t.Parallel()
		tests := []struct {
			name string
			plan entitlement.Plan
		}{
			{"negative duration", entitlement.Plan{ID: "x", Price: entitlement.Money{Amount: 1}, DurationDays: -1, Interval: entitlement.BillingIntervalOneTime}},
			{"zero price", entitlement.Plan{ID: "x", DurationDays: 7, Interval: entitlement.BillingIntervalOneTime}},
			{"recurring without duration", entitlement.Plan{ID: "x", Price: entitlement.Money{Amount: 1}, Interval: entitlement.BillingIntervalMonthly}},
			{"unknown interval", entitlement.Plan{ID: "x", Price: entitlement.Money{Amount: 1}, Interval: "weekly"}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := entitlement.NewService(context.Background(),
					entitlement.NewInMemSource(tt.plan), &mockProvider{}, entitlement.NewMemoryStore())
				assert.ErrorIs(t, err, entitlement.ErrInvalidPlanConfiguration)
			})
		}
	})

	t.Run("wraps plan loading errors", func(t *testing.T) {
		t.Parallel()
		_, err := entitlement.NewService(context.Background(), failingSource{}, &mockProvider{}, entitlement.NewMemoryStore())
		assert.ErrorIs(t, err, entitlement.ErrFailedToLoadPlans)
	})
}

type failingSource struct{}

func (failingSource) Load(context.Context) (map[string]entitlement.Plan, error) {
	return nil, errors.New("boom")
}

func TestService_Plans(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	plans := f.svc.Plans()
	require.Len(t, plans, 2)
	assert.Equal(t, entitlement.PlanMonthly, plans[0].ID)
	assert.Equal(t, entitlement.PlanLifetime, plans[1].ID)

	plan, err := f.svc.Plan(entitlement.PlanLifetime)
	require.NoError(t, err)
	assert.True(t, plan.IsLifetime())
	assert.Equal(t, int64(20000), plan.Price.Amount)

	_, err = f.svc.Plan("weekly")
	assert.ErrorIs(t, err, entitlement.ErrPlanNotFound)

	assert.Equal(t, "mock", f.svc.ProviderName())
}

func TestService_UpdatePaymentStatus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.ActivateFromReturnRedirect(ctx, "u1", entitlement.PlanLifetime)
	require.NoError(t, err)

	payments := f.store.Payments("u1")
	require.Len(t, payments, 1)
	require.Equal(t, entitlement.PaymentStatusPending, payments[0].Status)

	assert.ErrorIs(t, f.svc.UpdatePaymentStatus(ctx, payments[0].ID, "refunded"), entitlement.ErrInvalidPaymentState)
	require.NoError(t, f.svc.UpdatePaymentStatus(ctx, payments[0].ID, entitlement.PaymentStatusSuccessful))
	assert.ErrorIs(t, f.svc.UpdatePaymentStatus(ctx, payments[0].ID, entitlement.PaymentStatusFailed), entitlement.ErrInvalidPaymentState)
	assert.ErrorIs(t, f.svc.UpdatePaymentStatus(ctx, uuid.New(), entitlement.PaymentStatusFailed), entitlement.ErrPaymentNotFound)

	assert.Equal(t, entitlement.PaymentStatusSuccessful, f.store.Payments("u1")[0].Status)
}
