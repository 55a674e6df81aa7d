package entitlement

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Store defines entitlement persistence.
// The user ID is the primary key of a Record; records are never deleted.
type Store interface {
	// Get retrieves a record by user ID.
	// Returns ErrRecordNotFound if no record exists.
	Get(ctx context.Context, userID string) (*Record, error)

	// Create inserts the record only if none exists for the user.
	// Returns ErrRecordExists when a record is already stored, so a
	// first-interaction create never overwrites a concurrent grant.
	Create(ctx context.Context, rec *Record) error

	// Update applies a partial patch, creating the record when missing.
	Update(ctx context.Context, userID string, patch Patch) error

	// AppendPayment adds a payment audit record.
	AppendPayment(ctx context.Context, payment *PaymentRecord) error

	// UpdatePaymentStatus moves a pending payment to a final status.
	// Returns ErrPaymentNotFound or ErrInvalidPaymentState.
	UpdatePaymentStatus(ctx context.Context, paymentID uuid.UUID, status PaymentStatus) error
}

// EventLedger remembers processed provider event ids.
// Implementations may expire entries; the ledger only suppresses repeats,
// correctness never depends on it.
type EventLedger interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Remember(ctx context.Context, eventID string, ttl time.Duration) error
}

// ValidatePaymentTransition checks the pending -> final rule shared by all stores.
func ValidatePaymentTransition(from, to PaymentStatus) error {
	if !to.Valid() || from != PaymentStatusPending || to == PaymentStatusPending {
		return ErrInvalidPaymentState
	}
	return nil
}
