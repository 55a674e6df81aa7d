package entitlement

// Money represents a monetary amount in the smallest currency unit.
// For example, £20.00 GBP would be Amount: 2000, Currency: "GBP".
type Money struct {
	Amount   int64  `json:"amount" yaml:"amount" bson:"amount"`       // Amount in smallest currency unit (pence for GBP)
	Currency string `json:"currency" yaml:"currency" bson:"currency"` // ISO 4217 currency code
}

// BillingInterval represents the billing frequency of a plan.
type BillingInterval string

const (
	BillingIntervalOneTime BillingInterval = "one_time" // Single payment, no renewal
	BillingIntervalMonthly BillingInterval = "monthly"
	BillingIntervalAnnual  BillingInterval = "annual"
)

// CheckoutMode tells the provider how to charge for a checkout session.
type CheckoutMode string

const (
	CheckoutModeOneTime   CheckoutMode = "one_time"
	CheckoutModeRecurring CheckoutMode = "recurring"
)

// PaymentStatus is the lifecycle state of a payment audit record.
type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusSuccessful PaymentStatus = "successful"
	PaymentStatusFailed     PaymentStatus = "failed"
)

// Valid reports whether the status is one of the known values.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusSuccessful, PaymentStatusFailed:
		return true
	}
	return false
}

// PaymentSource tells how a payment record entered the audit trail.
type PaymentSource string

const (
	PaymentSourceWebhook        PaymentSource = "webhook"
	PaymentSourceReturnRedirect PaymentSource = "return_redirect"
)

// Outcome is the result class of reconciling a single event.
type Outcome string

const (
	OutcomeGranted   Outcome = "granted"
	OutcomeRenewed   Outcome = "renewed"
	OutcomeDeferred  Outcome = "deferred"  // acknowledged, access left to expire naturally
	OutcomeIgnored   Outcome = "ignored"   // acknowledged, no state change
	OutcomeDuplicate Outcome = "duplicate" // event id already processed
)
