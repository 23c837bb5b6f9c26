package subscription

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// PaddleConfig holds configuration for the Paddle billing provider.
type PaddleConfig struct {
	APIKey        string `env:"PADDLE_API_KEY,required"`
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET,required"`
	Environment   string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
	SuccessURL    string `env:"PADDLE_CHECKOUT_SUCCESS_URL"`
}

// PaddleProvider implements BillingProvider for Paddle. It is the
// alternate provider: the service layer is provider-agnostic and the
// deployment picks one via configuration.
type PaddleProvider struct {
	client   *paddle.SDK
	verifier *paddle.WebhookVerifier
	config   PaddleConfig
}

// NewPaddleProvider creates a new Paddle billing provider.
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
		return nil, fmt.Errorf("invalid paddle environment: %s", config.Environment)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle client: %w", err)
	}

	return &PaddleProvider{
		client:   client,
		verifier: paddle.NewWebhookVerifier(config.WebhookSecret),
		config:   config,
	}, nil
}

// CreateCustomer creates a Paddle customer with the internal user ID in
// custom data.
func (p *PaddleProvider) CreateCustomer(ctx context.Context, req CustomerRequest) (string, error) {
	if req.UserID == "" {
		return "", errors.New("user ID is required")
	}

	createReq := &paddle.CreateCustomerRequest{
		Email:      req.Email,
		CustomData: paddle.CustomData{"user_id": req.UserID},
	}
	if req.Name != "" {
		createReq.Name = paddle.PtrTo(req.Name)
	}

	customer, err := p.client.CustomersClient.CreateCustomer(ctx, createReq)
	if err != nil {
		return "", fmt.Errorf("failed to create paddle customer: %w", err)
	}

	return customer.ID, nil
}

// CreateCheckoutLink creates a hosted checkout transaction in Paddle.
func (p *PaddleProvider) CreateCheckoutLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error) {
	if req.PriceID == "" {
		return nil, errors.New("price ID is required")
	}
	if req.BillingCustomerID == "" {
		return nil, errors.New("billing customer ID is required")
	}

	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  req.PriceID,
		Quantity: 1,
	})

	transactionReq := &paddle.CreateTransactionRequest{
		Items:      []paddle.CreateTransactionItems{*item},
		CustomerID: paddle.PtrTo(req.BillingCustomerID),
		CustomData: paddle.CustomData{
			"user_id":  req.UserID,
			"tier":     string(req.Tier),
			"interval": string(req.Interval),
		},
	}
	if p.config.SuccessURL != "" {
		transactionReq.Checkout = &paddle.TransactionCheckout{
			URL: paddle.PtrTo(p.config.SuccessURL),
		}
	}

	transaction, err := p.client.TransactionsClient.CreateTransaction(ctx, transactionReq)
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle transaction: %w", err)
	}

	if transaction.Checkout == nil || transaction.Checkout.URL == nil {
		return nil, ErrNoCheckoutURL
	}

	return &CheckoutLink{
		URL:       *transaction.Checkout.URL,
		SessionID: transaction.ID,
		ExpiresAt: time.Now().Add(24 * time.Hour), // Paddle checkout links expire in 24 hours
	}, nil
}

// GetCustomerPortalLink returns a link to Paddle's customer portal.
func (p *PaddleProvider) GetCustomerPortalLink(ctx context.Context, req PortalRequest) (*PortalLink, error) {
	if req.BillingCustomerID == "" {
		return nil, errors.New("billing customer ID is required")
	}

	portalSession, err := p.client.CustomerPortalSessionsClient.CreateCustomerPortalSession(ctx,
		&paddle.CreateCustomerPortalSessionRequest{
			CustomerID: req.BillingCustomerID,
		})
	if err != nil {
		return nil, fmt.Errorf("failed to create paddle customer portal session: %w", err)
	}

	if portalSession.URLs.General.Overview == "" {
		return nil, ErrNoPortalURL
	}

	return &PortalLink{
		URL:       portalSession.URLs.General.Overview,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}, nil
}

// paddleSubscription is the typed shape decoded from a Paddle
// subscription event's data field.
type paddleSubscription struct {
	ID         string         `json:"id"`
	Status     string         `json:"status"`
	CustomData map[string]any `json:"custom_data"`
	Items      []struct {
		Price struct {
			ID string `json:"id"`
		} `json:"price"`
	} `json:"items"`
	CurrentBillingPeriod struct {
		EndsAt string `json:"ends_at"`
	} `json:"current_billing_period"`
}

// ParseWebhook verifies the Paddle-Signature header (ts;h1 scheme) and
// normalizes subscription lifecycle events.
func (p *PaddleProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/webhook", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request for verification: %w", err)
	}
	req.Header.Set("Paddle-Signature", signature)

	valid, err := p.verifier.Verify(req)
	if err != nil {
		return nil, errors.Join(ErrInvalidSignature, err)
	}
	if !valid {
		return nil, ErrInvalidSignature
	}

	var paddleEvent struct {
		EventType string          `json:"event_type"`
		Data      json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(payload, &paddleEvent); err != nil {
		return nil, errors.Join(ErrUnprocessableEvent,
			fmt.Errorf("malformed webhook payload: %w", err))
	}

	result := &WebhookEvent{
		Kind:          mapPaddleEventType(paddleEvent.EventType),
		ProviderEvent: paddleEvent.EventType,
	}
	if result.Kind == EventIgnored {
		return result, nil
	}

	var sub paddleSubscription
	if err := json.Unmarshal(paddleEvent.Data, &sub); err != nil {
		return nil, errors.Join(ErrUnprocessableEvent,
			fmt.Errorf("malformed subscription payload: %w", err))
	}

	result.SubscriptionID = sub.ID
	result.Status = sub.Status
	if userID, ok := sub.CustomData["user_id"].(string); ok {
		result.UserID = userID
	}
	if len(sub.Items) > 0 {
		result.PriceID = sub.Items[0].Price.ID
	}
	if sub.CurrentBillingPeriod.EndsAt != "" {
		if t, err := time.Parse(time.RFC3339, sub.CurrentBillingPeriod.EndsAt); err == nil {
			t = t.UTC()
			result.PeriodEnd = &t
		}
	}

	return result, nil
}

// mapPaddleEventType maps Paddle event names to normalized kinds.
func mapPaddleEventType(eventType string) EventKind {
	switch eventType {
	case "subscription.created":
		return EventSubscriptionCreated
	case "subscription.updated", "subscription.resumed", "subscription.past_due":
		return EventSubscriptionUpdated
	case "subscription.canceled":
		return EventSubscriptionDeleted
	default:
		return EventIgnored
	}
}
