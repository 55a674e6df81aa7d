package billing

import (
	"errors"
	"net/http"
	"time"

	"golang.org/x/text/language"

	"github.com/dmitrymomot/moneylens/handler"
	"github.com/dmitrymomot/moneylens/pkg/entitlement"
	"github.com/dmitrymomot/moneylens/pkg/environment"
	"github.com/dmitrymomot/moneylens/pkg/logger"
	"github.com/dmitrymomot/moneylens/pkg/validator"
)

// PlansRequest selects the display language of formatted prices.
type PlansRequest struct {
	Lang string `query:"lang"`
}

// PlanView is a plan as shown to the bot user.
type PlanView struct {
	ID           string                      `json:"id"`
	Name         string                      `json:"name"`
	Description  string                      `json:"description"`
	Price        entitlement.Money           `json:"price"`
	DisplayPrice string                      `json:"display_price"`
	DurationDays int                         `json:"duration_days,omitempty"`
	Interval     entitlement.BillingInterval `json:"interval"`
	Lifetime     bool                        `json:"lifetime"`
}

func (m *Module) plans(ctx handler.Context, req PlansRequest) handler.Response {
	tag := m.language
	if req.Lang != "" {
		if parsed, err := language.Parse(req.Lang); err == nil {
			tag = parsed
		}
	}

	plans := m.svc.Plans()
	out := make([]PlanView, 0, len(plans))
	for _, p := range plans {
		if !p.Public {
			continue
		}
		out = append(out, PlanView{
			ID:           p.ID,
			Name:         p.Name,
			Description:  p.Description,
			Price:        p.Price,
			DisplayPrice: entitlement.FormatPrice(p.Price, tag),
			DurationDays: p.DurationDays,
			Interval:     p.Interval,
			Lifetime:     p.IsLifetime(),
		})
	}
	return handler.JSON(out, handler.WithJSONMeta(map[string]any{"provider": m.svc.ProviderName()}))
}

// CheckoutRequest opens a hosted checkout for a plan.
type CheckoutRequest struct {
	UserID string `path:"userID" json:"-"`
	PlanID string `json:"plan_id"`
}

func (m *Module) checkout(ctx handler.Context, req CheckoutRequest) handler.Response {
	if err := validator.Apply(
		validator.RequiredString("plan_id", req.PlanID),
		validator.MaxLenString("plan_id", req.PlanID, 64),
	); err != nil {
		return m.fail(ctx, err)
	}

	session, err := m.svc.CreateCheckoutSession(ctx, req.UserID, req.PlanID)
	if err != nil {
		CheckoutSessionsTotal.WithLabelValues(req.PlanID, "error").Inc()
		if errors.Is(err, entitlement.ErrProviderError) {
			return m.fail(ctx, err, handler.WithJSONMeta(map[string]any{"retryable": true}))
		}
		return m.fail(ctx, err)
	}

	CheckoutSessionsTotal.WithLabelValues(req.PlanID, "created").Inc()
	return handler.JSON(session, handler.WithJSONStatus(http.StatusCreated))
}

// ActivateRequest consumes the checkout return redirect. StartPayload is the
// raw deep-link payload ("paid_<plan>"); PlanID may be sent instead.
type ActivateRequest struct {
	UserID       string `path:"userID" json:"-"`
	StartPayload string `json:"start_payload"`
	PlanID       string `json:"plan_id"`
}

func (m *Module) activate(ctx handler.Context, req ActivateRequest) handler.Response {
	planID := req.PlanID
	if req.StartPayload != "" {
		parsed, err := entitlement.ParseReturnPayload(req.StartPayload)
		if err != nil {
			return m.fail(ctx, err)
		}
		planID = parsed
	}
	if err := validator.Apply(validator.RequiredString("plan_id", planID)); err != nil {
		return m.fail(ctx, err)
	}

	if environment.IsProduction(ctx) {
		m.log.WarnContext(ctx, "unverified return redirect activation",
			logger.UserID(req.UserID), logger.PlanID(planID))
	}

	res, err := m.svc.ActivateFromReturnRedirect(ctx, req.UserID, planID)
	if err != nil {
		ActivationsTotal.WithLabelValues(planID, "error").Inc()
		return m.fail(ctx, err)
	}

	ActivationsTotal.WithLabelValues(planID, string(res.Outcome)).Inc()
	return handler.JSON(res)
}

// EntitlementRequest identifies the user whose access is evaluated.
type EntitlementRequest struct {
	UserID string `path:"userID"`
}

// EntitlementView is the evaluated access of a user.
type EntitlementView struct {
	Entitled     bool       `json:"entitled"`
	IsPremium    bool       `json:"is_premium"`
	Lifetime     bool       `json:"lifetime"`
	PremiumSince *time.Time `json:"premium_since"`
	PremiumUntil *time.Time `json:"premium_until"`
}

func (m *Module) status(ctx handler.Context, req EntitlementRequest) handler.Response {
	status, err := m.svc.Status(ctx, req.UserID)
	if err != nil {
		return m.fail(ctx, err)
	}

	view := EntitlementView{Entitled: status.Entitled}
	if rec := status.Record; rec != nil {
		view.IsPremium = rec.IsPremium
		view.Lifetime = status.Entitled && rec.PremiumUntil == nil
		view.PremiumSince = rec.PremiumSince
		view.PremiumUntil = rec.PremiumUntil
	}
	return handler.JSON(view)
}
