package entitlement

import (
	"log/slog"
	"time"
)

// DefaultReturnURL is the bot deep link the provider redirects to after checkout.
// The {plan} placeholder is replaced with the plan id.
const DefaultReturnURL = "https://t.me/MoneyLens_bot?start=paid_{plan}"

// DefaultLedgerTTL bounds how long processed event ids are remembered.
// Providers stop retrying well before this.
const DefaultLedgerTTL = 72 * time.Hour

// ServiceOption configures a Service instance.
type ServiceOption func(*service)

// WithClock overrides the time source. Used by tests to move time.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithEventLedger enables duplicate suppression of provider events.
// A non-positive ttl falls back to DefaultLedgerTTL.
func WithEventLedger(ledger EventLedger, ttl time.Duration) ServiceOption {
	return func(s *service) {
		if ledger == nil {
			return
		}
		if ttl <= 0 {
			ttl = DefaultLedgerTTL
		}
		s.ledger = ledger
		s.ledgerTTL = ttl
	}
}

// WithCheckoutURLs sets the provider redirect targets.
// Empty values keep the defaults. {plan} is replaced with the plan id.
func WithCheckoutURLs(successURL, cancelURL string) ServiceOption {
	return func(s *service) {
		if successURL != "" {
			s.successURL = successURL
		}
		if cancelURL != "" {
			s.cancelURL = cancelURL
		}
	}
}

// WithReturnRedirectActivation toggles the unverified fallback activation path.
// Enabled by default.
func WithReturnRedirectActivation(enabled bool) ServiceOption {
	return func(s *service) {
		s.returnRedirect = enabled
	}
}
