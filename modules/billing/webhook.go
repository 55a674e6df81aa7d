package billing

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/moneylens/pkg/entitlement"
	"github.com/dmitrymomot/moneylens/pkg/logger"
)

// Signature headers by provider name.
var signatureHeaders = map[string]string{
	"stripe": "Stripe-Signature",
	"paddle": "Paddle-Signature",
}

type webhookErrorResponse struct {
	Error string `json:"error"`
}

type webhookReceivedResponse struct {
	Received bool                `json:"received"`
	Outcome  entitlement.Outcome `json:"outcome"`
}

// webhook verifies the provider signature and reconciles the event.
// Unverifiable payloads get a 400 so nothing is processed; persistence
// failures get a 500 so the provider redelivers.
func (m *Module) webhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	provider := chi.URLParam(r, "provider")
	outcome := "rejected"
	status := http.StatusOK
	defer func() {
		WebhookRequestsTotal.WithLabelValues(provider, outcome, strconv.Itoa(status)).Inc()
		WebhookDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	}()

	if provider != m.svc.ProviderName() {
		status = http.StatusNotFound
		writeJSON(w, status, webhookErrorResponse{Error: "unknown provider"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, WebhookBodyLimit)
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		status = http.StatusBadRequest
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			status = http.StatusRequestEntityTooLarge
		}
		writeJSON(w, status, webhookErrorResponse{Error: "failed to read request body"})
		return
	}

	res, err := m.svc.HandleWebhook(r.Context(), payload, r.Header.Get(signatureHeaders[provider]))
	switch {
	case errors.Is(err, entitlement.ErrMissingSignature):
		status = http.StatusBadRequest
		writeJSON(w, status, webhookErrorResponse{Error: "missing signature"})
		return
	case errors.Is(err, entitlement.ErrWebhookVerificationFailed):
		status = http.StatusBadRequest
		writeJSON(w, status, webhookErrorResponse{Error: "invalid signature"})
		return
	case err != nil:
		outcome = "failed"
		m.log.ErrorContext(r.Context(), "webhook processing failed",
			logger.Provider(provider), logger.Error(err))
		status = http.StatusInternalServerError
		writeJSON(w, status, webhookErrorResponse{Error: "processing failed"})
		return
	}

	outcome = string(res.Outcome)
	writeJSON(w, status, webhookReceivedResponse{Received: true, Outcome: res.Outcome})
}

func writeJSON[T any](w http.ResponseWriter, status int, v T) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Default().Error("billing: encode webhook response", logger.Error(err), slog.Int("status", status))
	}
}
