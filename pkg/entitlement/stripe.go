package entitlement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82"
	stripesession "github.com/stripe/stripe-go/v82/checkout/session"
	stripesub "github.com/stripe/stripe-go/v82/subscription"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeConfig holds configuration for the Stripe provider.
type StripeConfig struct {
	SecretKey     string `env:"STRIPE_SECRET_KEY,required"`
	WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET,required"`
}

// StripeProvider implements PaymentProvider for Stripe Checkout.
type StripeProvider struct {
	secret string

	createSession   func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	getSubscription func(id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error)
}

// StripeOption configures a StripeProvider.
type StripeOption func(*StripeProvider)

// WithStripeBackend replaces the Stripe API calls. Used in tests.
func WithStripeBackend(
	createSession func(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error),
	getSubscription func(id string, params *stripe.SubscriptionParams) (*stripe.Subscription, error),
) StripeOption {
	return func(p *StripeProvider) {
		if createSession != nil {
			p.createSession = createSession
		}
		if getSubscription != nil {
			p.getSubscription = getSubscription
		}
	}
}

// NewStripeProvider creates a Stripe provider.
// The API key is installed process-wide as required by the Stripe SDK.
func NewStripeProvider(cfg StripeConfig, opts ...StripeOption) (*StripeProvider, error) {
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if strings.TrimSpace(cfg.WebhookSecret) == "" {
		return nil, ErrMissingWebhookSecret
	}

	stripe.Key = strings.TrimSpace(cfg.SecretKey)

	p := &StripeProvider{
		secret:          strings.TrimSpace(cfg.WebhookSecret),
		createSession:   stripesession.New,
		getSubscription: stripesub.Get,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

func (p *StripeProvider) Name() string { return "stripe" }

// CreateCheckoutSession opens a Stripe Checkout session.
// Lifetime and other one-time plans use payment mode; recurring plans use
// subscription mode and copy the metadata onto the subscription so invoices
// can be traced back to the user.
func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if req.UserID == "" {
		return nil, ErrMissingUserID
	}

	metadata := map[string]string{
		MetadataUserID: req.UserID,
		MetadataPlanID: req.Plan.ID,
	}

	params := &stripe.CheckoutSessionParams{
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.UserID),
		LineItems:         []*stripe.CheckoutSessionLineItemParams{stripeLineItem(req.Plan)},
		Metadata:          metadata,
	}
	params.Context = ctx

	if req.Plan.IsRecurring() {
		params.Mode = stripe.String(string(stripe.CheckoutSessionModeSubscription))
		params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		}
	} else {
		params.Mode = stripe.String(string(stripe.CheckoutSessionModePayment))
	}

	session, err := p.createSession(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create stripe checkout session: %w", err)
	}
	if session == nil || strings.TrimSpace(session.URL) == "" {
		return nil, ErrNoCheckoutURL
	}

	out := &CheckoutSession{URL: session.URL, SessionID: session.ID}
	if session.ExpiresAt > 0 {
		out.ExpiresAt = time.Unix(session.ExpiresAt, 0).UTC()
	}
	return out, nil
}

func stripeLineItem(plan Plan) *stripe.CheckoutSessionLineItemParams {
	if plan.ProviderPriceID != "" {
		return &stripe.CheckoutSessionLineItemParams{
			Price:    stripe.String(plan.ProviderPriceID),
			Quantity: stripe.Int64(1),
		}
	}

	priceData := &stripe.CheckoutSessionLineItemPriceDataParams{
		Currency:   stripe.String(strings.ToLower(plan.Price.Currency)),
		UnitAmount: stripe.Int64(plan.Price.Amount),
		ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name:        stripe.String(plan.Name),
			Description: stripe.String(plan.Description),
		},
	}
	switch plan.Interval {
	case BillingIntervalMonthly:
		priceData.Recurring = &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
			Interval: stripe.String(string(stripe.PriceRecurringIntervalMonth)),
		}
	case BillingIntervalAnnual:
		priceData.Recurring = &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
			Interval: stripe.String(string(stripe.PriceRecurringIntervalYear)),
		}
	}

	return &stripe.CheckoutSessionLineItemParams{
		PriceData: priceData,
		Quantity:  stripe.Int64(1),
	}
}

// ParseEvent verifies the Stripe-Signature header and normalizes the event.
func (p *StripeProvider) ParseEvent(ctx context.Context, payload []byte, signature string) (*Event, error) {
	if strings.TrimSpace(signature) == "" {
		return nil, ErrMissingSignature
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, p.secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, errors.Join(ErrWebhookVerificationFailed, err)
	}

	out := &Event{
		ID:            event.ID,
		Kind:          EventUnknown,
		ProviderEvent: string(event.Type),
		Provider:      p.Name(),
	}
	if event.Created > 0 {
		out.OccurredAt = time.Unix(event.Created, 0).UTC()
	}
	if event.Data == nil || len(event.Data.Raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(event.Data.Raw, &out.Raw); err != nil {
		return nil, errors.Join(ErrMalformedEvent, err)
	}

	switch event.Type {
	case "checkout.session.completed":
		var session stripeCheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, errors.Join(ErrMalformedEvent, fmt.Errorf("decode checkout.session: %w", err))
		}
		out.Kind = EventCheckoutCompleted
		out.UserID, out.PlanID = MetadataIdentity(session.Metadata)
		if out.UserID == "" {
			out.UserID = session.ClientReferenceID
		}
		out.SubscriptionID = session.Subscription
		out.Amount = stripeMoney(session.AmountTotal, session.Currency)
		switch session.Mode {
		case string(stripe.CheckoutSessionModePayment):
			out.Mode = CheckoutModeOneTime
		case string(stripe.CheckoutSessionModeSubscription):
			out.Mode = CheckoutModeRecurring
		}

	case "customer.subscription.created", "customer.subscription.deleted":
		var sub stripeSubscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return nil, errors.Join(ErrMalformedEvent, fmt.Errorf("decode subscription: %w", err))
		}
		out.Kind = EventSubscriptionCreated
		if event.Type == "customer.subscription.deleted" {
			out.Kind = EventSubscriptionDeleted
		}
		out.UserID, out.PlanID = MetadataIdentity(sub.Metadata)
		out.SubscriptionID = sub.ID
		out.Mode = CheckoutModeRecurring

	case "invoice.payment_succeeded", "invoice.payment_failed":
		var inv stripeInvoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return nil, errors.Join(ErrMalformedEvent, fmt.Errorf("decode invoice: %w", err))
		}
		out.Kind = EventInvoicePaid
		out.Amount = stripeMoney(inv.AmountPaid, inv.Currency)
		if event.Type == "invoice.payment_failed" {
			out.Kind = EventInvoicePaymentFailed
			out.Amount = stripeMoney(inv.AmountDue, inv.Currency)
		}
		out.SubscriptionID = inv.subscriptionID()
		out.UserID, out.PlanID = MetadataIdentity(inv.metadata())
		out.Mode = CheckoutModeRecurring
	}

	return out, nil
}

// FetchSubscription loads a subscription to recover its metadata and status.
func (p *StripeProvider) FetchSubscription(ctx context.Context, subscriptionID string) (*ProviderSubscription, error) {
	if subscriptionID == "" {
		return nil, ErrSubscriptionNotFound
	}

	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := p.getSubscription(subscriptionID, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == http.StatusNotFound {
			return nil, errors.Join(ErrSubscriptionNotFound, err)
		}
		return nil, fmt.Errorf("failed to fetch stripe subscription: %w", err)
	}
	if sub == nil {
		return nil, ErrSubscriptionNotFound
	}

	userID, planID := MetadataIdentity(sub.Metadata)
	return &ProviderSubscription{
		ID:     sub.ID,
		Status: string(sub.Status),
		UserID: userID,
		PlanID: planID,
	}, nil
}

func stripeMoney(amount int64, cur string) Money {
	return Money{Amount: amount, Currency: strings.ToUpper(cur)}
}

// Minimal views of Stripe objects carried in event.Data.Raw.

type stripeCheckoutSession struct {
	ID                string            `json:"id"`
	Mode              string            `json:"mode"`
	ClientReferenceID string            `json:"client_reference_id"`
	Subscription      string            `json:"subscription"`
	AmountTotal       int64             `json:"amount_total"`
	Currency          string            `json:"currency"`
	Metadata          map[string]string `json:"metadata"`
}

type stripeSubscription struct {
	ID       string            `json:"id"`
	Status   string            `json:"status"`
	Metadata map[string]string `json:"metadata"`
}

type stripeInvoice struct {
	ID           string `json:"id"`
	Subscription string `json:"subscription"`
	AmountPaid   int64  `json:"amount_paid"`
	AmountDue    int64  `json:"amount_due"`
	Currency     string `json:"currency"`
	Parent       *struct {
		SubscriptionDetails *struct {
			Subscription string            `json:"subscription"`
			Metadata     map[string]string `json:"metadata"`
		} `json:"subscription_details"`
	} `json:"parent"`
	SubscriptionDetails *struct {
		Metadata map[string]string `json:"metadata"`
	} `json:"subscription_details"`
}

// subscriptionID supports both the legacy top-level field and the
// parent.subscription_details layout of newer API versions.
func (inv stripeInvoice) subscriptionID() string {
	if inv.Subscription != "" {
		return inv.Subscription
	}
	if inv.Parent != nil && inv.Parent.SubscriptionDetails != nil {
		return inv.Parent.SubscriptionDetails.Subscription
	}
	return ""
}

func (inv stripeInvoice) metadata() map[string]string {
	if inv.Parent != nil && inv.Parent.SubscriptionDetails != nil && len(inv.Parent.SubscriptionDetails.Metadata) > 0 {
		return inv.Parent.SubscriptionDetails.Metadata
	}
	if inv.SubscriptionDetails != nil {
		return inv.SubscriptionDetails.Metadata
	}
	return nil
}
