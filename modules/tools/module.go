package tools

import (
	"errors"
	"log/slog"
	"math/rand/v2"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/moneylens/handler"
	"github.com/dmitrymomot/moneylens/pkg/binder"
	"github.com/dmitrymomot/moneylens/pkg/calc"
	"github.com/dmitrymomot/moneylens/pkg/entitlement"
	"github.com/dmitrymomot/moneylens/pkg/logger"
)

// Module serves the calculators.
type Module struct {
	svc          entitlement.Service
	log          *slog.Logger
	errorHandler handler.ErrorHandler
	rng          func() *rand.Rand
}

// Option configures a Module.
type Option func(*Module)

// WithLogger sets the structured logger.
func WithLogger(log *slog.Logger) Option {
	return func(m *Module) {
		if log != nil {
			m.log = log
		}
	}
}

// WithRandSource sets the generator factory for Monte Carlo runs.
// Called once per request; nil results fall back to the global source.
func WithRandSource(fn func() *rand.Rand) Option {
	return func(m *Module) {
		m.rng = fn
	}
}

// New creates the tools module. Panics if svc is nil.
func New(svc entitlement.Service, opts ...Option) *Module {
	if svc == nil {
		panic("tools: entitlement service is required")
	}
	m := &Module{
		svc: svc,
		log: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With(logger.Component("tools"))
	m.errorHandler = handler.NewErrorHandler(m.log)
	return m
}

// Pattern is where the module router must be mounted; the gate reads
// {userID} from it.
const Pattern = "/v1/users/{userID}/tools"

// Handle returns the module router. Mount it at Pattern:
//
//	r.Mount(tools.Pattern, tools.New(svc).Handle())
//
// Roulette odds are public; every other calculator sits behind the gate.
func (m *Module) Handle() http.Handler {
	r := chi.NewRouter()

	r.Post("/roulette", wrap(m, "roulette", m.roulette))

	r.Group(func(r chi.Router) {
		r.Use(entitlement.Middleware(m.svc, userIDFromPath,
			entitlement.WithUsernameExtractor(func(r *http.Request) string { return r.Header.Get(UsernameHeader) }),
			entitlement.WithDeniedHandler(http.HandlerFunc(m.denied)),
			entitlement.WithGateErrorHandler(m.gateError),
		))
		r.Use(countAllowed)

		r.Post("/streak-risk", wrap(m, "streak-risk", m.streakRisk))
		r.Post("/loss-streak", wrap(m, "loss-streak", m.lossStreak))
		r.Post("/expected-value", wrap(m, "expected-value", m.expectedValue))
		r.Post("/variance", wrap(m, "variance", m.variance))
		r.Post("/monte-carlo", wrap(m, "monte-carlo", m.monteCarlo))
		r.Post("/blackjack", wrap(m, "blackjack", m.blackjack))
		r.Post("/bankroll", wrap(m, "bankroll", m.bankroll))
	})

	return r
}

// UsernameHeader carries the bot user's display name, stored on first use.
const UsernameHeader = "X-Username"

func userIDFromPath(r *http.Request) (string, error) {
	if id := chi.URLParam(r, "userID"); id != "" {
		return id, nil
	}
	return "", entitlement.ErrMissingUserID
}

// wrap binds the JSON body into R and renders the calculator result.
func wrap[R any](m *Module, tool string, fn func(req R) (any, error)) http.HandlerFunc {
	return handler.Wrap(func(ctx handler.Context, req R) handler.Response {
		res, err := fn(req)
		if err != nil {
			CalculationsTotal.WithLabelValues(tool, "invalid").Inc()
			m.log.InfoContext(ctx, "calculator rejected input",
				slog.String("tool", tool), logger.Error(err))
			if errors.Is(err, calc.ErrInvalidInput) {
				err = errors.Join(handler.ErrUnprocessableEntity, err)
			}
			return handler.JSONError(err)
		}
		CalculationsTotal.WithLabelValues(tool, "ok").Inc()
		return handler.JSON(res, handler.WithJSONMeta(map[string]any{"tool": tool}))
	},
		handler.WithBinders[R](binder.JSON()),
		handler.WithErrorHandler[R](m.errorHandler),
	)
}

func countAllowed(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		GateDecisionsTotal.WithLabelValues("allowed").Inc()
		next.ServeHTTP(w, r)
	})
}

func (m *Module) denied(w http.ResponseWriter, r *http.Request) {
	GateDecisionsTotal.WithLabelValues("denied").Inc()
	_ = handler.JSONError(handler.ErrPaymentRequired,
		handler.WithJSONMeta(map[string]any{"plans": "/v1/plans"}),
	).Render(w, r)
}

func (m *Module) gateError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, entitlement.ErrMissingUserID) {
		GateDecisionsTotal.WithLabelValues("bad_request").Inc()
		err = errors.Join(handler.ErrBadRequest, err)
	} else {
		GateDecisionsTotal.WithLabelValues("error").Inc()
		err = errors.Join(handler.ErrServiceUnavailable, err)
	}
	m.errorHandler(handler.NewContext(w, r), err)
}
