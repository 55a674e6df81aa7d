// Package entitlement tracks paid access for bot users and reconciles payment
// provider events into that access.
//
// A user holds a single Record. Access is granted by absolute windows computed
// from the current time (or for life), so the same event delivered twice, or a
// webhook racing the checkout return redirect, converges on the same state.
// Expiry is lazy: a stale grant is downgraded in the store the first time it
// is evaluated after its end, and there is no background sweep.
//
// # Architecture
//
//   - Service: evaluation, gating, checkout and reconciliation
//   - Store: persists records and the payment audit trail
//   - PaymentProvider: hosted checkout, webhook verification and subscription lookup
//   - EventLedger: optional duplicate suppression by provider event id
//   - PlansListSource: loads the plan catalog (in memory or YAML)
//
// # Quick Start
//
//	provider, err := entitlement.NewStripeProvider(entitlement.StripeConfig{
//		SecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
//		WebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
//	})
//	if err != nil {
//		return err
//	}
//
//	svc, err := entitlement.NewService(ctx,
//		entitlement.NewInMemSource(entitlement.DefaultPlans("GBP")...),
//		provider,
//		entitlement.NewMemoryStore(),
//		entitlement.WithLogger(log),
//	)
//
//	allowed, err := svc.Guard(ctx, userID)
//
// # Reconciliation
//
// Events are dispatched by normalized kind and plan class, never by plan id:
//
//   - checkout_completed in one-time mode grants the plan window (lifetime when the plan has no duration)
//   - subscription_created grants the recurring plan window
//   - invoice_paid looks up the subscription and renews the window while it is active
//   - subscription_deleted and invoice_payment_failed never revoke; access ends with the paid window
//
// Events without user or plan metadata, or for unknown plans, are acknowledged
// with OutcomeIgnored and cause no writes. Store failures are returned so the
// HTTP layer can answer with a 5xx and the provider retries delivery.
//
// # Error Handling
//
// Sentinel errors are combined with errors.Join, check them with errors.Is:
//
//	if errors.Is(err, entitlement.ErrWebhookVerificationFailed) {
//		// reject with 400
//	}
package entitlement
