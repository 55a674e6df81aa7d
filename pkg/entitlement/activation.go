package entitlement

import (
	"context"
	"strings"

	"github.com/dmitrymomot/moneylens/pkg/logger"
)

// ReturnPayloadPrefix marks a deep-link start payload sent after a successful checkout.
const ReturnPayloadPrefix = "paid_"

// ParseReturnPayload extracts the plan id from a "paid_<plan>" start payload.
func ParseReturnPayload(payload string) (string, error) {
	planID, ok := strings.CutPrefix(strings.TrimSpace(payload), ReturnPayloadPrefix)
	if !ok || planID == "" {
		return "", ErrInvalidReturnPayload
	}
	return planID, nil
}

// ActivateFromReturnRedirect grants access when the user lands back from checkout
// before the provider event arrives. It applies the same absolute grant as the
// webhook path, so both firing leaves the same state as either alone. The payment
// is recorded as pending since the provider has not confirmed it.
func (s *service) ActivateFromReturnRedirect(ctx context.Context, userID, planID string) (*Result, error) {
	if !s.returnRedirect {
		return nil, ErrReturnRedirectOff
	}
	if userID == "" {
		return nil, ErrMissingUserID
	}

	plan, ok := s.plans[planID]
	if !ok {
		return nil, ErrPlanNotFound
	}

	res, err := s.grant(ctx, grantRequest{
		userID:  userID,
		plan:    plan,
		source:  PaymentSourceReturnRedirect,
		status:  PaymentStatusPending,
		outcome: OutcomeGranted,
		audit:   true,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "return redirect activation failed",
			logger.UserID(userID), logger.PlanID(planID), logger.Error(err))
		return nil, err
	}

	s.logger.InfoContext(ctx, "activated from return redirect",
		logger.UserID(userID), logger.PlanID(planID), logger.Outcome(string(res.Outcome)))
	return res, nil
}
