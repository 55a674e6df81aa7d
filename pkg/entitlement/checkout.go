package entitlement

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrymomot/moneylens/pkg/logger"
)

// CreateCheckoutSession opens a hosted checkout for the plan.
// It keeps no local state; access is granted only when the resulting
// payment event is reconciled or the return redirect is consumed.
func (s *service) CreateCheckoutSession(ctx context.Context, userID, planID string) (*CheckoutSession, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}

	plan, ok := s.plans[planID]
	if !ok {
		return nil, ErrPlanNotFound
	}

	session, err := s.provider.CreateCheckoutSession(ctx, CheckoutRequest{
		UserID:     userID,
		Plan:       plan,
		SuccessURL: expandPlanURL(s.successURL, plan.ID),
		CancelURL:  expandPlanURL(s.cancelURL, plan.ID),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to create checkout session",
			logger.UserID(userID), logger.PlanID(planID), logger.Error(err))
		return nil, errors.Join(ErrProviderError, err)
	}
	if session == nil || session.URL == "" {
		return nil, errors.Join(ErrProviderError, ErrNoCheckoutURL)
	}

	s.logger.InfoContext(ctx, "checkout session created",
		logger.UserID(userID), logger.PlanID(planID), logger.EventID(session.SessionID))
	return session, nil
}

func expandPlanURL(raw, planID string) string {
	return strings.ReplaceAll(raw, "{plan}", planID)
}
