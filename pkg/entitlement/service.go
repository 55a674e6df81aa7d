package entitlement

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/moneylens/pkg/logger"
)

// Service defines the public interface for entitlement management.
type Service interface {
	// Catalog
	Plans() []Plan
	Plan(planID string) (Plan, error)
	ProviderName() string

	// Evaluation and gating
	IsEntitled(ctx context.Context, userID string) bool
	Status(ctx context.Context, userID string) (*Status, error)
	Guard(ctx context.Context, userID string) (bool, error)
	GuardWithProfile(ctx context.Context, userID, username string) (bool, error)

	// Payments
	CreateCheckoutSession(ctx context.Context, userID, planID string) (*CheckoutSession, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*Result, error)
	Reconcile(ctx context.Context, event *Event) (*Result, error)
	ActivateFromReturnRedirect(ctx context.Context, userID, planID string) (*Result, error)
	UpdatePaymentStatus(ctx context.Context, paymentID uuid.UUID, status PaymentStatus) error
}

// Status is the evaluated entitlement of a user.
// Record is nil when the user never interacted with the bot.
type Status struct {
	Entitled bool    `json:"entitled"`
	Record   *Record `json:"record,omitempty"`
}

type service struct {
	plans          map[string]Plan
	provider       PaymentProvider
	store          Store
	ledger         EventLedger
	ledgerTTL      time.Duration
	now            func() time.Time
	logger         *slog.Logger
	successURL     string
	cancelURL      string
	returnRedirect bool
}

// NewService creates a new Service with the given dependencies.
// Panics if a required dependency is nil to fail fast during initialization.
func NewService(ctx context.Context, src PlansListSource, provider PaymentProvider, store Store, opts ...ServiceOption) (Service, error) {
	if src == nil {
		panic("entitlement: PlansListSource is required")
	}
	if provider == nil {
		panic("entitlement: PaymentProvider is required")
	}
	if store == nil {
		panic("entitlement: Store is required")
	}

	plans, err := src.Load(ctx)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	if err := validatePlans(plans); err != nil {
		return nil, err
	}

	s := &service{
		plans:          plans,
		provider:       provider,
		store:          store,
		now:            time.Now,
		logger:         slog.New(slog.DiscardHandler),
		successURL:     DefaultReturnURL,
		cancelURL:      DefaultReturnURL,
		returnRedirect: true,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.logger = s.logger.With(logger.Component("entitlement"), logger.Provider(provider.Name()))

	return s, nil
}

// Plans returns the catalog ordered by price.
func (s *service) Plans() []Plan {
	out := make([]Plan, 0, len(s.plans))
	for _, p := range s.plans {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b Plan) int {
		if c := cmp.Compare(a.Price.Amount, b.Price.Amount); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// Plan looks up a plan by id.
func (s *service) Plan(planID string) (Plan, error) {
	plan, ok := s.plans[planID]
	if !ok {
		return Plan{}, ErrPlanNotFound
	}
	return plan, nil
}

func (s *service) ProviderName() string {
	return s.provider.Name()
}

func (s *service) clock() time.Time {
	return s.now().UTC()
}

// UpdatePaymentStatus finalizes a pending payment record.
func (s *service) UpdatePaymentStatus(ctx context.Context, paymentID uuid.UUID, status PaymentStatus) error {
	if !status.Valid() {
		return ErrInvalidPaymentState
	}
	return s.store.UpdatePaymentStatus(ctx, paymentID, status)
}
