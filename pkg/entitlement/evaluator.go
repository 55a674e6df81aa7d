package entitlement

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrymomot/moneylens/pkg/logger"
)

// IsEntitled reports whether the user currently has premium access.
// It never returns an error: any failure to read state denies access.
// An expired grant is lazily downgraded in the store on first observation.
func (s *service) IsEntitled(ctx context.Context, userID string) bool {
	if userID == "" {
		return false
	}

	rec, err := s.store.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, ErrRecordNotFound) {
			s.logger.ErrorContext(ctx, "failed to read entitlement record",
				logger.UserID(userID), logger.Error(err))
		}
		return false
	}

	return s.evaluate(ctx, rec)
}

// evaluate applies the expiry rule to an already loaded record.
func (s *service) evaluate(ctx context.Context, rec *Record) bool {
	if !rec.IsPremium {
		return false
	}
	if rec.PremiumUntil == nil {
		return true
	}

	now := s.clock()
	if !now.After(*rec.PremiumUntil) {
		return true
	}

	err := s.store.Update(ctx, rec.UserID, expirePatch(now))
	switch {
	case err == nil:
		s.logger.InfoContext(ctx, "entitlement expired",
			logger.UserID(rec.UserID), logger.Outcome("expired"))
	case errors.Is(err, ErrPatchConditionFailed):
		// The stored record changed since it was read, typically a renewal.
		return s.reload(ctx, rec, now)
	default:
		s.logger.WarnContext(ctx, "failed to persist entitlement expiry",
			logger.UserID(rec.UserID), logger.Error(err))
	}
	rec.IsPremium = false
	rec.UpdatedAt = now
	return false
}

// reload replaces rec with the stored record and judges it without writing.
func (s *service) reload(ctx context.Context, rec *Record, now time.Time) bool {
	fresh, err := s.store.Get(ctx, rec.UserID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to reload entitlement record",
			logger.UserID(rec.UserID), logger.Error(err))
		rec.IsPremium = false
		return false
	}
	*rec = *fresh
	return fresh.IsPremium && (fresh.PremiumUntil == nil || !now.After(*fresh.PremiumUntil))
}

// Status evaluates the user and returns the resulting record.
// Unlike IsEntitled it surfaces store errors.
func (s *service) Status(ctx context.Context, userID string) (*Status, error) {
	if userID == "" {
		return nil, ErrMissingUserID
	}

	rec, err := s.store.Get(ctx, userID)
	if errors.Is(err, ErrRecordNotFound) {
		return &Status{}, nil
	}
	if err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}

	return &Status{Entitled: s.evaluate(ctx, rec), Record: rec}, nil
}
