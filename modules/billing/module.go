package billing

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/text/language"

	"github.com/dmitrymomot/moneylens/handler"
	"github.com/dmitrymomot/moneylens/pkg/binder"
	"github.com/dmitrymomot/moneylens/pkg/entitlement"
	"github.com/dmitrymomot/moneylens/pkg/logger"
)

// WebhookBodyLimit caps provider payloads.
const WebhookBodyLimit = 1 << 20 // 1 MiB

// Module serves the billing HTTP API.
type Module struct {
	svc          entitlement.Service
	log          *slog.Logger
	errorHandler handler.ErrorHandler
	language     language.Tag
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

// WithErrorHandler replaces the bind error handler.
func WithErrorHandler(h handler.ErrorHandler) Option {
	return func(m *Module) {
		if h != nil {
			m.errorHandler = h
		}
	}
}

// WithDefaultLanguage sets the language used to format prices when the
// request does not ask for one.
func WithDefaultLanguage(tag language.Tag) Option {
	return func(m *Module) {
		m.language = tag
	}
}

// New creates the billing module. Panics if svc is nil.
func New(svc entitlement.Service, opts ...Option) *Module {
	if svc == nil {
		panic("billing: entitlement service is required")
	}
	m := &Module{
		svc:      svc,
		log:      slog.New(slog.DiscardHandler),
		language: language.BritishEnglish,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With(logger.Component("billing"))
	if m.errorHandler == nil {
		m.errorHandler = handler.NewErrorHandler(m.log)
	}
	return m
}

// Handle returns the module router.
func (m *Module) Handle() http.Handler {
	r := chi.NewRouter()

	r.Post("/webhooks/{provider}", m.webhook)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/plans", handler.Wrap(m.plans,
			handler.WithBinders[PlansRequest](binder.Query()),
			handler.WithErrorHandler[PlansRequest](m.errorHandler),
		))

		r.Route("/users/{userID}", func(r chi.Router) {
			r.Post("/checkout", handler.Wrap(m.checkout,
				handler.WithBinders[CheckoutRequest](binder.Path(chi.URLParam), binder.JSON()),
				handler.WithErrorHandler[CheckoutRequest](m.errorHandler),
			))
			r.Post("/activate", handler.Wrap(m.activate,
				handler.WithBinders[ActivateRequest](binder.Path(chi.URLParam), binder.JSON()),
				handler.WithErrorHandler[ActivateRequest](m.errorHandler),
			))
			r.Get("/entitlement", handler.Wrap(m.status,
				handler.WithBinders[EntitlementRequest](binder.Path(chi.URLParam)),
				handler.WithErrorHandler[EntitlementRequest](m.errorHandler),
			))
		})
	})

	return r
}

// fail logs err and renders it as a JSON error envelope.
func (m *Module) fail(ctx handler.Context, err error, opts ...handler.JSONOption) handler.Response {
	mapped := httpError(err)
	resp := handler.JSONError(mapped, opts...)
	m.log.WarnContext(ctx, "billing request failed",
		logger.Error(err),
		slog.String("path", ctx.Request().URL.Path))
	return resp
}
