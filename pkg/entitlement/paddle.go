package entitlement

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// PaddleConfig holds configuration for the Paddle provider.
type PaddleConfig struct {
	APIKey        string `env:"PADDLE_API_KEY,required"`
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET,required"`
	Environment   string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
}

// PaddleProvider implements PaymentProvider for Paddle Billing.
// Paddle needs catalog prices, so every plan must carry ProviderPriceID.
type PaddleProvider struct {
	client   *paddle.SDK
	verifier *paddle.WebhookVerifier
}

// NewPaddleProvider creates a Paddle provider.
func NewPaddleProvider(config PaddleConfig) (*PaddleProvider, error) {
	if config.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if config.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	var client *paddle.SDK
	var err error

	switch strings.ToLower(config.Environment) {
	case "sandbox":
		client, err = paddle.NewSandbox(config.APIKey)
	case "production", "":
		client, err = paddle.New(config.APIKey)
	default:
		return nil, errors.Join(ErrInvalidProviderEnv, fmt.Errorf("unknown paddle environment: %s", config.Environment))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle client: %w", err)
	}

	return &PaddleProvider{
		client:   client,
		verifier: paddle.NewWebhookVerifier(config.WebhookSecret),
	}, nil
}

func (p *PaddleProvider) Name() string { return "paddle" }

// CreateCheckoutSession creates a Paddle transaction and returns its hosted checkout URL.
func (p *PaddleProvider) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	if req.UserID == "" {
		return nil, ErrMissingUserID
	}
	if req.Plan.ProviderPriceID == "" {
		return nil, ErrMissingPriceID
	}

	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  req.Plan.ProviderPriceID,
		Quantity: 1,
	})

	transactionReq := &paddle.CreateTransactionRequest{
		Items: []paddle.CreateTransactionItems{*item},
		CustomData: paddle.CustomData{
			MetadataUserID: req.UserID,
			MetadataPlanID: req.Plan.ID,
		},
	}
	if req.SuccessURL != "" {
		transactionReq.Checkout = &paddle.TransactionCheckout{
			URL: paddle.PtrTo(req.SuccessURL),
		}
	}

	transaction, err := p.client.TransactionsClient.CreateTransaction(ctx, transactionReq)
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle transaction: %w", err)
	}
	if transaction.Checkout == nil || transaction.Checkout.URL == nil || *transaction.Checkout.URL == "" {
		return nil, ErrNoCheckoutURL
	}

	return &CheckoutSession{
		URL:       *transaction.Checkout.URL,
		SessionID: transaction.ID,
		ExpiresAt: time.Now().Add(24 * time.Hour).UTC(), // Paddle checkout links expire after a day
	}, nil
}

// ParseEvent verifies the Paddle-Signature header and normalizes the event.
func (p *PaddleProvider) ParseEvent(ctx context.Context, payload []byte, signature string) (*Event, error) {
	if strings.TrimSpace(signature) == "" {
		return nil, ErrMissingSignature
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/webhook", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request for verification: %w", err)
	}
	req.Header.Set("Paddle-Signature", signature)

	valid, err := p.verifier.Verify(req)
	if err != nil {
		return nil, errors.Join(ErrWebhookVerificationFailed, err)
	}
	if !valid {
		return nil, ErrWebhookVerificationFailed
	}

	event, err := parsePaddlePayload(payload)
	if err != nil {
		return nil, err
	}
	event.Provider = p.Name()
	return event, nil
}

// FetchSubscription loads a Paddle subscription with its custom data.
func (p *PaddleProvider) FetchSubscription(ctx context.Context, subscriptionID string) (*ProviderSubscription, error) {
	if subscriptionID == "" {
		return nil, ErrSubscriptionNotFound
	}

	sub, err := p.client.SubscriptionsClient.GetSubscription(ctx, &paddle.GetSubscriptionRequest{
		SubscriptionID: subscriptionID,
	})
	if err != nil {
		if errors.Is(err, paddle.ErrNotFound) {
			return nil, errors.Join(ErrSubscriptionNotFound, err)
		}
		return nil, fmt.Errorf("failed to fetch paddle subscription: %w", err)
	}
	if sub == nil {
		return nil, ErrSubscriptionNotFound
	}

	userID, planID := MetadataIdentity(customDataStrings(sub.CustomData))
	return &ProviderSubscription{
		ID:     sub.ID,
		Status: string(sub.Status),
		UserID: userID,
		PlanID: planID,
	}, nil
}

type paddleEnvelope struct {
	EventID    string         `json:"event_id"`
	EventType  string         `json:"event_type"`
	OccurredAt string         `json:"occurred_at"`
	Data       map[string]any `json:"data"`
}

// parsePaddlePayload normalizes an already verified notification body.
func parsePaddlePayload(payload []byte) (*Event, error) {
	var env paddleEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, errors.Join(ErrMalformedEvent, err)
	}

	event := &Event{
		ID:            env.EventID,
		Kind:          EventUnknown,
		ProviderEvent: env.EventType,
		Provider:      "paddle",
		Raw:           env.Data,
	}
	if ts, err := time.Parse(time.RFC3339Nano, env.OccurredAt); err == nil {
		event.OccurredAt = ts.UTC()
	}

	event.UserID, event.PlanID = MetadataIdentity(customDataStrings(mapValue(env.Data, "custom_data")))
	subscriptionID, _ := env.Data["subscription_id"].(string)

	switch env.EventType {
	case "transaction.completed":
		event.Amount = paddleTotals(env.Data)
		if subscriptionID != "" {
			event.Kind = EventInvoicePaid
			event.SubscriptionID = subscriptionID
			event.Mode = CheckoutModeRecurring
		} else {
			event.Kind = EventCheckoutCompleted
			event.Mode = CheckoutModeOneTime
		}
	case "transaction.payment_failed":
		event.Kind = EventInvoicePaymentFailed
		event.SubscriptionID = subscriptionID
		event.Amount = paddleTotals(env.Data)
	case "subscription.created":
		event.Kind = EventSubscriptionCreated
		event.SubscriptionID, _ = env.Data["id"].(string)
		event.Mode = CheckoutModeRecurring
	case "subscription.canceled":
		event.Kind = EventSubscriptionDeleted
		event.SubscriptionID, _ = env.Data["id"].(string)
	}

	return event, nil
}

func paddleTotals(data map[string]any) Money {
	cur, _ := data["currency_code"].(string)
	totals := mapValue(mapValue(data, "details"), "totals")
	raw, _ := totals["total"].(string)
	amount, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return Money{Currency: cur}
	}
	return Money{Amount: amount, Currency: cur}
}

func mapValue(m map[string]any, key string) map[string]any {
	if m == nil {
		return nil
	}
	v, _ := m[key].(map[string]any)
	return v
}

func customDataStrings(data map[string]any) map[string]string {
	out := make(map[string]string, len(data))
	for k, v := range data {
		switch val := v.(type) {
		case string:
			out[k] = val
		case float64:
			out[k] = strconv.FormatFloat(val, 'f', -1, 64)
		}
	}
	return out
}
