package entitlement

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store. Used for development and tests.
type MemoryStore struct {
	mu       sync.RWMutex
	records  map[string]Record
	payments []PaymentRecord
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

func (s *MemoryStore) Get(ctx context.Context, userID string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[userID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return copyRecord(rec), nil
}

func (s *MemoryStore) Create(ctx context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.UserID]; ok {
		return ErrRecordExists
	}
	s.records[rec.UserID] = *copyRecord(*rec)
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, userID string, patch Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[userID]
	current := &rec
	if !ok {
		current = nil
	}
	if !patch.Qualifies(current) {
		return ErrPatchConditionFailed
	}
	if !ok {
		ts := patch.UpdatedAt
		if ts.IsZero() {
			ts = time.Now().UTC()
		}
		rec = Record{UserID: userID, CreatedAt: ts, UpdatedAt: ts}
	}
	rec.Apply(patch)
	s.records[userID] = rec
	return nil
}

func (s *MemoryStore) AppendPayment(ctx context.Context, payment *PaymentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.payments = append(s.payments, *payment)
	return nil
}

func (s *MemoryStore) UpdatePaymentStatus(ctx context.Context, paymentID uuid.UUID, status PaymentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.payments {
		if s.payments[i].ID != paymentID {
			continue
		}
		if err := ValidatePaymentTransition(s.payments[i].Status, status); err != nil {
			return err
		}
		s.payments[i].Status = status
		return nil
	}
	return ErrPaymentNotFound
}

// Payments returns the audit trail of a user in insertion order.
func (s *MemoryStore) Payments(userID string) []PaymentRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []PaymentRecord
	for _, p := range s.payments {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out
}

func copyRecord(rec Record) *Record {
	out := rec
	if rec.PremiumSince != nil {
		since := *rec.PremiumSince
		out.PremiumSince = &since
	}
	if rec.PremiumUntil != nil {
		until := *rec.PremiumUntil
		out.PremiumUntil = &until
	}
	return &out
}

// MemoryLedger is an in-process EventLedger.
type MemoryLedger struct {
	mu      sync.Mutex
	entries map[string]time.Time
	now     func() time.Time
}

// NewMemoryLedger returns an empty ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{entries: make(map[string]time.Time), now: time.Now}
}

func (l *MemoryLedger) Seen(ctx context.Context, eventID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	exp, ok := l.entries[eventID]
	if !ok {
		return false, nil
	}
	if !exp.IsZero() && l.now().After(exp) {
		delete(l.entries, eventID)
		return false, nil
	}
	return true, nil
}

func (l *MemoryLedger) Remember(ctx context.Context, eventID string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var exp time.Time
	if ttl > 0 {
		exp = l.now().Add(ttl)
	}
	l.entries[eventID] = exp
	return nil
}
