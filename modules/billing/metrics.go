package billing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// WebhookRequestsTotal counts webhook deliveries by provider, outcome and HTTP status.
	WebhookRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moneylens",
		Subsystem: "billing",
		Name:      "webhook_requests_total",
		Help:      "Total payment provider webhook requests by outcome and HTTP status.",
	}, []string{"provider", "outcome", "status"})

	// WebhookDuration tracks webhook verification and reconciliation latency.
	WebhookDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "moneylens",
		Subsystem: "billing",
		Name:      "webhook_duration_seconds",
		Help:      "Webhook processing duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"provider"})

	// CheckoutSessionsTotal counts checkout attempts by plan and result.
	CheckoutSessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moneylens",
		Subsystem: "billing",
		Name:      "checkout_sessions_total",
		Help:      "Checkout session creation attempts by plan and result.",
	}, []string{"plan", "result"})

	// ActivationsTotal counts return-redirect activations by plan and result.
	ActivationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moneylens",
		Subsystem: "billing",
		Name:      "return_activations_total",
		Help:      "Return redirect activations by plan and result.",
	}, []string{"plan", "result"})
)
