package entitlement

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrymomot/moneylens/pkg/logger"
)

// Guard ensures a record exists for the user and evaluates entitlement.
// Checked on every call; no caching. Store failures deny access and are returned.
func (s *service) Guard(ctx context.Context, userID string) (bool, error) {
	return s.GuardWithProfile(ctx, userID, "")
}

// GuardWithProfile is Guard that also captures the username on first interaction.
func (s *service) GuardWithProfile(ctx context.Context, userID, username string) (bool, error) {
	if userID == "" {
		return false, ErrMissingUserID
	}

	rec, err := s.getOrCreate(ctx, userID, username)
	if err != nil {
		s.logger.ErrorContext(ctx, "access gate failed closed",
			logger.UserID(userID), logger.Error(err))
		return false, err
	}

	return s.evaluate(ctx, rec), nil
}

func (s *service) getOrCreate(ctx context.Context, userID, username string) (*Record, error) {
	rec, err := s.store.Get(ctx, userID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, ErrRecordNotFound) {
		return nil, errors.Join(ErrStoreFailure, err)
	}

	now := s.clock()
	rec = &Record{
		UserID:    userID,
		Username:  username,
		CreatedAt: now,
		UpdatedAt: now,
	}
	switch err := s.store.Create(ctx, rec); {
	case err == nil:
		return rec, nil
	case errors.Is(err, ErrRecordExists):
		// Lost a race with another create or a grant; read the winner.
		rec, err = s.store.Get(ctx, userID)
		if err != nil {
			return nil, errors.Join(ErrStoreFailure, err)
		}
		return rec, nil
	default:
		return nil, errors.Join(ErrStoreFailure, err)
	}
}

// UserIDExtractor resolves the calling user from a request.
type UserIDExtractor func(r *http.Request) (string, error)

// GateOption configures Middleware.
type GateOption func(*gate)

// WithDeniedHandler replaces the default 402 response for users without access.
func WithDeniedHandler(h http.Handler) GateOption {
	return func(g *gate) {
		if h != nil {
			g.denied = h
		}
	}
}

// WithGateErrorHandler replaces the default error response.
func WithGateErrorHandler(fn func(w http.ResponseWriter, r *http.Request, err error)) GateOption {
	return func(g *gate) {
		if fn != nil {
			g.onError = fn
		}
	}
}

// WithGateTimeout bounds the store round trip of a single check.
func WithGateTimeout(d time.Duration) GateOption {
	return func(g *gate) {
		g.timeout = d
	}
}

// WithUsernameExtractor captures the caller's display name on first interaction.
func WithUsernameExtractor(fn func(r *http.Request) string) GateOption {
	return func(g *gate) {
		g.username = fn
	}
}

type gate struct {
	svc      Service
	extract  UserIDExtractor
	username func(r *http.Request) string
	denied   http.Handler
	onError  func(w http.ResponseWriter, r *http.Request, err error)
	timeout  time.Duration
}

// Middleware gates handlers behind premium access.
// Allowed requests carry the user id in the context (GetUserIDFromContext).
func Middleware(svc Service, extract UserIDExtractor, opts ...GateOption) func(http.Handler) http.Handler {
	if svc == nil {
		panic("entitlement: Service is required")
	}
	if extract == nil {
		panic("entitlement: UserIDExtractor is required")
	}

	g := &gate{
		svc:     svc,
		extract: extract,
		denied: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "premium access required", http.StatusPaymentRequired)
		}),
		onError: defaultGateError,
	}
	for _, opt := range opts {
		opt(g)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, err := g.extract(r)
			if err == nil && userID == "" {
				err = ErrMissingUserID
			}
			if err != nil {
				g.onError(w, r, errors.Join(ErrMissingUserID, err))
				return
			}

			ctx := r.Context()
			if g.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, g.timeout)
				defer cancel()
			}

			var username string
			if g.username != nil {
				username = g.username(r)
			}

			allowed, err := g.svc.GuardWithProfile(ctx, userID, username)
			if err != nil {
				g.onError(w, r, err)
				return
			}
			if !allowed {
				g.denied.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(SetUserIDToContext(r.Context(), userID)))
		})
	}
}

func defaultGateError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrMissingUserID) {
		http.Error(w, "user ID is required", http.StatusBadRequest)
		return
	}
	http.Error(w, "entitlement check unavailable", http.StatusServiceUnavailable)
}
