package entitlement

import (
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Default plan identifiers.
const (
	PlanMonthly  = "monthly"
	PlanLifetime = "lifetime"
)

// DefaultCurrency is used when a plan price carries no currency.
const DefaultCurrency = "GBP"

// Plan describes a purchasable access plan.
// DurationDays of zero means the plan grants lifetime access.
type Plan struct {
	ID              string          `yaml:"id" json:"id"`
	Name            string          `yaml:"name" json:"name"`
	Description     string          `yaml:"description" json:"description"`
	Price           Money           `yaml:"price" json:"price"`
	DurationDays    int             `yaml:"duration_days" json:"duration_days"`
	Interval        BillingInterval `yaml:"interval" json:"interval"`
	ProviderPriceID string          `yaml:"provider_price_id" json:"-"` // catalog price at the payment provider, optional for Stripe
	Public          bool            `yaml:"public" json:"public"`
}

// IsLifetime reports whether the plan grants non-expiring access.
func (p Plan) IsLifetime() bool {
	return p.DurationDays == 0
}

// IsRecurring reports whether the plan is billed through a provider subscription.
func (p Plan) IsRecurring() bool {
	return p.Interval == BillingIntervalMonthly || p.Interval == BillingIntervalAnnual
}

// CheckoutMode returns how a checkout session for this plan must charge.
func (p Plan) CheckoutMode() CheckoutMode {
	if p.IsRecurring() {
		return CheckoutModeRecurring
	}
	return CheckoutModeOneTime
}

// ExpiresAt returns the end of an access window granted at now.
// Returns nil for lifetime plans.
func (p Plan) ExpiresAt(now time.Time) *time.Time {
	if p.IsLifetime() {
		return nil
	}
	until := now.AddDate(0, 0, p.DurationDays).UTC()
	return &until
}

// FormatPrice renders the plan price for display in the given locale,
// e.g. "£ 20.00" in English and "£ 20,00" in German.
// Falls back to a plain "<amount> <currency>" form for unknown currencies.
func FormatPrice(m Money, tag language.Tag) string {
	code := m.Currency
	if code == "" {
		code = DefaultCurrency
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return fmt.Sprintf("%.2f %s", float64(m.Amount)/100, code)
	}
	scale, _ := currency.Standard.Rounding(unit)
	value := float64(m.Amount) / math.Pow10(scale)
	return message.NewPrinter(tag).Sprintf("%v %v", currency.Symbol(unit), number.Decimal(value, number.Scale(scale)))
}

// DefaultPlans returns the built-in catalog priced in the given currency.
func DefaultPlans(cur string) []Plan {
	if cur == "" {
		cur = DefaultCurrency
	}
	return []Plan{
		{
			ID:           PlanMonthly,
			Name:         "Premium Monthly",
			Description:  "Full access to all calculators, renewed every month",
			Price:        Money{Amount: 2000, Currency: cur},
			DurationDays: 30,
			Interval:     BillingIntervalMonthly,
			Public:       true,
		},
		{
			ID:          PlanLifetime,
			Name:        "Premium Lifetime",
			Description: "One payment, access forever",
			Price:       Money{Amount: 20000, Currency: cur},
			Interval:    BillingIntervalOneTime,
			Public:      true,
		},
	}
}

// validatePlans ensures plan configurations are internally consistent.
func validatePlans(plans map[string]Plan) error {
	if len(plans) == 0 {
		return errors.Join(ErrInvalidPlanConfiguration, errors.New("no plans configured"))
	}
	for planID, plan := range plans {
		if plan.ID != planID {
			return errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan ID mismatch: map key %s != plan.ID %s", planID, plan.ID))
		}
		if plan.DurationDays < 0 {
			return errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan %s has negative duration: %d", planID, plan.DurationDays))
		}
		if plan.Price.Amount <= 0 {
			return errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan %s has non-positive price: %d", planID, plan.Price.Amount))
		}
		switch plan.Interval {
		case BillingIntervalOneTime:
		case BillingIntervalMonthly, BillingIntervalAnnual:
			if plan.IsLifetime() {
				return errors.Join(ErrInvalidPlanConfiguration,
					fmt.Errorf("recurring plan %s must have a duration", planID))
			}
		default:
			return errors.Join(ErrInvalidPlanConfiguration,
				fmt.Errorf("plan %s has unknown interval %q", planID, plan.Interval))
		}
	}
	return nil
}
