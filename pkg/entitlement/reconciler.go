package entitlement

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/moneylens/pkg/logger"
)

// Result describes what reconciling a single event did.
type Result struct {
	Outcome      Outcome    `json:"outcome"`
	EventID      string     `json:"event_id,omitempty"`
	Kind         EventKind  `json:"kind,omitempty"`
	UserID       string     `json:"user_id,omitempty"`
	PlanID       string     `json:"plan_id,omitempty"`
	PremiumUntil *time.Time `json:"premium_until,omitempty"`
	Lifetime     bool       `json:"lifetime,omitempty"`
	Reason       string     `json:"reason,omitempty"`
}

// Granted reports whether the result changed access for the user.
func (r *Result) Granted() bool {
	return r.Outcome == OutcomeGranted || r.Outcome == OutcomeRenewed
}

// HandleWebhook verifies a raw provider payload and reconciles it.
// Verification errors wrap ErrWebhookVerificationFailed or ErrMissingSignature
// and must be answered with a 4xx. Any other error means the provider should retry.
func (s *service) HandleWebhook(ctx context.Context, payload []byte, signature string) (*Result, error) {
	if signature == "" {
		return nil, ErrMissingSignature
	}

	event, err := s.provider.ParseEvent(ctx, payload, signature)
	if err != nil {
		s.logger.WarnContext(ctx, "rejected webhook payload", logger.Error(err))
		return nil, err
	}

	return s.Reconcile(ctx, event)
}

// Reconcile maps a verified event onto an entitlement mutation.
// Grants are absolute windows computed from now, so duplicate and
// out-of-order delivery converge on the same state.
func (s *service) Reconcile(ctx context.Context, event *Event) (*Result, error) {
	if event == nil {
		return nil, ErrMalformedEvent
	}

	log := s.logger.With(logger.EventID(event.ID), logger.EventType(string(event.Kind)))

	if s.ledger != nil && event.ID != "" {
		seen, err := s.ledger.Seen(ctx, event.ID)
		if err != nil {
			log.WarnContext(ctx, "event ledger lookup failed", logger.Error(err))
		} else if seen {
			log.InfoContext(ctx, "duplicate event skipped", logger.Outcome(string(OutcomeDuplicate)))
			return &Result{Outcome: OutcomeDuplicate, EventID: event.ID, Kind: event.Kind}, nil
		}
	}

	res, err := s.dispatch(ctx, event)
	if err != nil {
		log.ErrorContext(ctx, "event reconciliation failed",
			logger.UserID(event.UserID), logger.PlanID(event.PlanID), logger.Error(err))
		return nil, err
	}
	res.EventID = event.ID
	res.Kind = event.Kind

	if s.ledger != nil && event.ID != "" {
		if err := s.ledger.Remember(ctx, event.ID, s.ledgerTTL); err != nil {
			log.WarnContext(ctx, "failed to remember processed event", logger.Error(err))
		}
	}

	log.InfoContext(ctx, "event reconciled",
		logger.UserID(res.UserID),
		logger.PlanID(res.PlanID),
		logger.Outcome(string(res.Outcome)),
		logger.Reason(res.Reason),
	)
	return res, nil
}

func (s *service) dispatch(ctx context.Context, event *Event) (*Result, error) {
	switch event.Kind {
	case EventCheckoutCompleted:
		if event.Mode != CheckoutModeOneTime {
			return ignored(event.UserID, event.PlanID, "recurring checkout is granted by subscription events"), nil
		}
		plan, res := s.resolvePlan(event.UserID, event.PlanID)
		if res != nil {
			return res, nil
		}
		if plan.IsRecurring() {
			return ignored(event.UserID, plan.ID, "plan is not a one-time plan"), nil
		}
		return s.grant(ctx, grantRequest{
			userID:  event.UserID,
			plan:    plan,
			amount:  event.Amount,
			event:   event,
			source:  PaymentSourceWebhook,
			status:  PaymentStatusSuccessful,
			outcome: OutcomeGranted,
			audit:   true,
		})

	case EventSubscriptionCreated:
		plan, res := s.resolvePlan(event.UserID, event.PlanID)
		if res != nil {
			return res, nil
		}
		if !plan.IsRecurring() {
			return ignored(event.UserID, plan.ID, "plan is not a recurring plan"), nil
		}
		return s.grant(ctx, grantRequest{
			userID:  event.UserID,
			plan:    plan,
			event:   event,
			outcome: OutcomeGranted,
		})

	case EventInvoicePaid:
		return s.renew(ctx, event)

	case EventSubscriptionDeleted, EventInvoicePaymentFailed:
		return s.deferEvent(ctx, event), nil

	default:
		return ignored(event.UserID, event.PlanID, "unhandled event kind"), nil
	}
}

func (s *service) renew(ctx context.Context, event *Event) (*Result, error) {
	if event.SubscriptionID == "" {
		return ignored(event.UserID, event.PlanID, "invoice without subscription"), nil
	}

	sub, err := s.provider.FetchSubscription(ctx, event.SubscriptionID)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			return ignored(event.UserID, event.PlanID, "subscription not found"), nil
		}
		return nil, errors.Join(ErrProviderError, err)
	}

	userID, planID := event.UserID, event.PlanID
	if userID == "" {
		userID = sub.UserID
	}
	if planID == "" {
		planID = sub.PlanID
	}

	plan, res := s.resolvePlan(userID, planID)
	if res != nil {
		return res, nil
	}
	if !plan.IsRecurring() {
		return ignored(userID, plan.ID, "plan is not a recurring plan"), nil
	}
	if !sub.IsActive() {
		return ignored(userID, plan.ID, "subscription is not active: "+sub.Status), nil
	}

	return s.grant(ctx, grantRequest{
		userID:  userID,
		plan:    plan,
		amount:  event.Amount,
		event:   event,
		source:  PaymentSourceWebhook,
		status:  PaymentStatusSuccessful,
		outcome: OutcomeRenewed,
		audit:   true,
	})
}

// deferEvent acknowledges cancellation and failed payment events without revoking.
// Access runs out at the end of the paid window through lazy expiry.
func (s *service) deferEvent(ctx context.Context, event *Event) *Result {
	userID, planID := event.UserID, event.PlanID
	if (userID == "" || planID == "") && event.SubscriptionID != "" {
		if sub, err := s.provider.FetchSubscription(ctx, event.SubscriptionID); err == nil {
			if userID == "" {
				userID = sub.UserID
			}
			if planID == "" {
				planID = sub.PlanID
			}
		} else {
			s.logger.DebugContext(ctx, "could not resolve subscription for deferred event",
				logger.EventID(event.ID), logger.Error(err))
		}
	}

	if event.Kind == EventInvoicePaymentFailed && userID != "" {
		amount := event.Amount
		if plan, ok := s.plans[planID]; ok && amount.Amount == 0 {
			amount = plan.Price
		}
		if err := s.appendPayment(ctx, userID, planID, amount, event, PaymentSourceWebhook, PaymentStatusFailed); err != nil {
			s.logger.WarnContext(ctx, "failed to record failed payment",
				logger.UserID(userID), logger.EventID(event.ID), logger.Error(err))
		}
	}

	return &Result{
		Outcome: OutcomeDeferred,
		UserID:  userID,
		PlanID:  planID,
		Reason:  "access expires at the end of the paid window",
	}
}

// resolvePlan validates identity and plan metadata.
// A non-nil Result means the event must be acknowledged and dropped.
func (s *service) resolvePlan(userID, planID string) (Plan, *Result) {
	if userID == "" {
		return Plan{}, ignored(userID, planID, "missing user id")
	}
	if planID == "" {
		return Plan{}, ignored(userID, planID, "missing plan id")
	}
	plan, ok := s.plans[planID]
	if !ok {
		return Plan{}, ignored(userID, planID, "unknown plan")
	}
	return plan, nil
}

type grantRequest struct {
	userID  string
	plan    Plan
	amount  Money
	event   *Event
	source  PaymentSource
	status  PaymentStatus
	outcome Outcome
	audit   bool
}

// grant writes the absolute access window for the plan and then appends
// the payment record. A lifetime record is never shortened by a time-boxed
// grant: the store rejects the write atomically.
func (s *service) grant(ctx context.Context, req grantRequest) (*Result, error) {
	now := s.clock()
	until := req.plan.ExpiresAt(now)
	res := &Result{
		Outcome:      req.outcome,
		UserID:       req.userID,
		PlanID:       req.plan.ID,
		PremiumUntil: until,
		Lifetime:     until == nil,
	}

	err := s.store.Update(ctx, req.userID, grantPatch(now, until))
	switch {
	case err == nil:
	case errors.Is(err, ErrPatchConditionFailed):
		res.PremiumUntil = nil
		res.Lifetime = true
		res.Reason = "lifetime access retained"
	default:
		return nil, errors.Join(ErrStoreFailure, err)
	}

	if req.audit {
		amount := req.amount
		if amount.Amount == 0 {
			amount = req.plan.Price
		}
		if err := s.appendPayment(ctx, req.userID, req.plan.ID, amount, req.event, req.source, req.status); err != nil {
			return nil, errors.Join(ErrStoreFailure, err)
		}
	}

	return res, nil
}

func (s *service) appendPayment(ctx context.Context, userID, planID string, amount Money, event *Event, source PaymentSource, status PaymentStatus) error {
	payment := &PaymentRecord{
		ID:        uuid.New(),
		UserID:    userID,
		PlanID:    planID,
		Amount:    amount,
		Provider:  s.provider.Name(),
		Status:    status,
		Source:    source,
		CreatedAt: s.clock(),
	}
	if event != nil {
		payment.EventID = event.ID
		payment.Raw = event.Raw
		if event.Provider != "" {
			payment.Provider = event.Provider
		}
	}
	return s.store.AppendPayment(ctx, payment)
}

func ignored(userID, planID, reason string) *Result {
	return &Result{Outcome: OutcomeIgnored, UserID: userID, PlanID: planID, Reason: reason}
}
