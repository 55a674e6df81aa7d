package entitlement

import (
	"context"
	"time"
)

// PaymentProvider defines the minimal surface of a payment provider integration.
// Providers handle card data through hosted checkouts; this service only sees
// verified events and metadata it attached itself.
type PaymentProvider interface {
	// Name identifies the provider in payment records and routes.
	Name() string

	// CreateCheckoutSession creates a hosted checkout session carrying
	// the user and plan ids as metadata.
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)

	// ParseEvent verifies the payload signature and normalizes the event.
	// Must fail closed: any verification problem returns an error
	// wrapping ErrWebhookVerificationFailed or ErrMissingSignature.
	ParseEvent(ctx context.Context, payload []byte, signature string) (*Event, error)

	// FetchSubscription loads a recurring subscription with its metadata.
	FetchSubscription(ctx context.Context, subscriptionID string) (*ProviderSubscription, error)
}

// CheckoutRequest contains data needed to create a checkout session.
type CheckoutRequest struct {
	UserID     string
	Plan       Plan
	SuccessURL string // Redirect after successful payment
	CancelURL  string // Redirect if the user abandons checkout
}

// CheckoutSession represents a hosted checkout session.
type CheckoutSession struct {
	URL       string    `json:"url"`
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ProviderSubscription is the provider view of a recurring subscription.
type ProviderSubscription struct {
	ID     string
	Status string
	UserID string // from metadata
	PlanID string // from metadata
}

// IsActive reports whether the subscription still entitles renewals.
// An empty status is treated as inactive.
func (s *ProviderSubscription) IsActive() bool {
	switch s.Status {
	case "active", "trialing", "past_due":
		return true
	}
	return false
}

// EventKind is the normalized payment event type.
// Each provider maps its own event names onto these kinds.
type EventKind string

const (
	EventCheckoutCompleted    EventKind = "checkout_completed"
	EventSubscriptionCreated  EventKind = "subscription_created"
	EventInvoicePaid          EventKind = "invoice_paid"
	EventSubscriptionDeleted  EventKind = "subscription_deleted"
	EventInvoicePaymentFailed EventKind = "invoice_payment_failed"
	EventUnknown              EventKind = "unknown"
)

// Event is a verified, normalized payment provider event.
type Event struct {
	ID             string         // Provider event id, used for duplicate suppression
	Kind           EventKind      // Normalized kind
	ProviderEvent  string         // Original provider event name
	Provider       string         // Provider name
	UserID         string         // From metadata, may be empty
	PlanID         string         // From metadata, may be empty
	Mode           CheckoutMode   // Checkout events only
	SubscriptionID string         // Provider subscription id, if any
	Amount         Money          // Amount charged, if known
	OccurredAt     time.Time      // Provider timestamp
	Raw            map[string]any // Provider object payload
}

// Metadata keys attached to checkout sessions and subscriptions.
const (
	MetadataUserID = "user_id"
	MetadataPlanID = "plan_id"

	// Keys written by the previous bot generation; still honoured on inbound events.
	legacyMetadataUserID = "telegramId"
	legacyMetadataPlanID = "planType"
)

// MetadataIdentity extracts user and plan ids from provider metadata,
// falling back to the legacy keys.
func MetadataIdentity(md map[string]string) (userID, planID string) {
	userID = md[MetadataUserID]
	if userID == "" {
		userID = md[legacyMetadataUserID]
	}
	planID = md[MetadataPlanID]
	if planID == "" {
		planID = md[legacyMetadataPlanID]
	}
	return userID, planID
}
