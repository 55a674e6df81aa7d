package entitlement

import (
	"time"

	"github.com/google/uuid"
)

// Record is the per-user entitlement state.
// IsPremium is a cached flag; validity is always recomputed from PremiumUntil.
// A nil PremiumUntil on a premium record means lifetime access.
type Record struct {
	UserID       string     `json:"user_id"`
	Username     string     `json:"username,omitempty"`
	IsPremium    bool       `json:"is_premium"`
	PremiumSince *time.Time `json:"premium_since,omitempty"`
	PremiumUntil *time.Time `json:"premium_until,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsLifetime reports whether the record holds a non-expiring grant.
func (r *Record) IsLifetime() bool {
	return r.IsPremium && r.PremiumUntil == nil
}

// Apply merges the patch into the record in place.
// Stores that keep records in memory use it to share the merge rules.
func (r *Record) Apply(p Patch) {
	if p.IsPremium != nil {
		r.IsPremium = *p.IsPremium
	}
	if p.PremiumSince != nil {
		since := *p.PremiumSince
		r.PremiumSince = &since
	}
	switch {
	case p.Lifetime:
		r.PremiumUntil = nil
	case p.PremiumUntil != nil:
		until := *p.PremiumUntil
		r.PremiumUntil = &until
	}
	if !p.UpdatedAt.IsZero() {
		r.UpdatedAt = p.UpdatedAt
	}
}

// Patch is a partial update of a Record. Nil fields are left untouched.
// Lifetime clears PremiumUntil and takes precedence over it.
//
// ExpiredBefore and KeepLifetime turn the patch into a conditional write.
// Stores check them atomically with the write and return
// ErrPatchConditionFailed when the stored record does not qualify.
type Patch struct {
	IsPremium    *bool
	PremiumSince *time.Time
	PremiumUntil *time.Time
	Lifetime     bool
	UpdatedAt    time.Time

	// ExpiredBefore limits the patch to an existing premium record whose
	// PremiumUntil is before this instant. A missing record never qualifies.
	ExpiredBefore time.Time
	// KeepLifetime skips the patch when the stored record is a lifetime grant.
	KeepLifetime bool
}

// Qualifies reports whether the conditional part of the patch holds for rec.
// rec is nil when the user has no stored record.
func (p Patch) Qualifies(rec *Record) bool {
	if !p.ExpiredBefore.IsZero() {
		return rec != nil && rec.IsPremium && rec.PremiumUntil != nil && rec.PremiumUntil.Before(p.ExpiredBefore)
	}
	if p.KeepLifetime && rec != nil && rec.IsLifetime() {
		return false
	}
	return true
}

// PaymentRecord is an append-only audit entry for a payment.
type PaymentRecord struct {
	ID        uuid.UUID      `json:"id"`
	UserID    string         `json:"user_id"`
	PlanID    string         `json:"plan_id"`
	Amount    Money          `json:"amount"`
	Provider  string         `json:"provider"`
	Status    PaymentStatus  `json:"status"`
	Source    PaymentSource  `json:"source"`
	EventID   string         `json:"event_id,omitempty"`
	Raw       map[string]any `json:"raw,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func grantPatch(now time.Time, until *time.Time) Patch {
	premium := true
	p := Patch{
		IsPremium:    &premium,
		PremiumSince: &now,
		UpdatedAt:    now,
	}
	if until == nil {
		p.Lifetime = true
	} else {
		p.PremiumUntil = until
		p.KeepLifetime = true
	}
	return p
}

func expirePatch(now time.Time) Patch {
	premium := false
	return Patch{IsPremium: &premium, UpdatedAt: now, ExpiredBefore: now}
}
