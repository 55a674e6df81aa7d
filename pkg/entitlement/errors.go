package entitlement

import "errors"

var (
	ErrPlanNotFound             = errors.New("entitlement plan not found")
	ErrInvalidPlanConfiguration = errors.New("invalid entitlement plan configuration")
	ErrFailedToLoadPlans        = errors.New("failed to load entitlement plans")

	ErrMissingUserID        = errors.New("user ID is required")
	ErrUserIDNotInContext   = errors.New("user ID not found in context")
	ErrRecordNotFound       = errors.New("entitlement record not found")
	ErrRecordExists         = errors.New("entitlement record already exists")
	ErrPatchConditionFailed = errors.New("entitlement record does not match patch condition")
	ErrPaymentNotFound      = errors.New("payment record not found")
	ErrInvalidPaymentState  = errors.New("invalid payment status transition")
	ErrStoreFailure         = errors.New("entitlement store failure")

	ErrInvalidReturnPayload = errors.New("invalid return redirect payload")
	ErrReturnRedirectOff    = errors.New("return redirect activation is disabled")

	// Provider-specific errors
	ErrProviderError             = errors.New("payment provider error")
	ErrMissingAPIKey             = errors.New("payment provider API key is required")
	ErrMissingWebhookSecret      = errors.New("payment provider webhook secret is required")
	ErrInvalidProviderEnv        = errors.New("invalid payment provider environment")
	ErrMissingSignature          = errors.New("webhook signature is missing")
	ErrWebhookVerificationFailed = errors.New("webhook signature verification failed")
	ErrMalformedEvent            = errors.New("malformed payment event")
	ErrNoCheckoutURL             = errors.New("no checkout URL returned from provider")
	ErrMissingPriceID            = errors.New("provider price ID is required")
	ErrSubscriptionNotFound      = errors.New("provider subscription not found")
)
