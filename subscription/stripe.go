package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"
)

// StripeConfig holds configuration for the Stripe billing provider.
type StripeConfig struct {
	SecretKey       string `env:"STRIPE_SECRET_KEY,required"`
	WebhookSecret   string `env:"STRIPE_WEBHOOK_SECRET,required"`
	SuccessURL      string `env:"STRIPE_CHECKOUT_SUCCESS_URL,required"` // e.g. https://app.example.com/drills?checkout=success
	CancelURL       string `env:"STRIPE_CHECKOUT_CANCEL_URL,required"`  // e.g. https://app.example.com/pricing
	PortalReturnURL string `env:"STRIPE_PORTAL_RETURN_URL,required"`    // e.g. https://app.example.com/account
}

// StripeProvider implements BillingProvider for Stripe.
type StripeProvider struct {
	api    *client.API
	config StripeConfig
}

// NewStripeProvider creates a new Stripe billing provider.
func NewStripeProvider(config StripeConfig) (*StripeProvider, error) {
	if config.SecretKey == "" {
		return nil, ErrMissingAPIKey
	}
	if config.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	api := &client.API{}
	api.Init(config.SecretKey, nil)

	return &StripeProvider{api: api, config: config}, nil
}

// CreateCustomer creates a Stripe customer carrying the internal user ID
// as metadata.
func (p *StripeProvider) CreateCustomer(ctx context.Context, req CustomerRequest) (string, error) {
	if req.UserID == "" {
		return "", errors.New("user ID is required")
	}

	params := &stripe.CustomerParams{}
	params.Context = ctx
	if req.Email != "" {
		params.Email = stripe.String(req.Email)
	}
	if req.Name != "" {
		params.Name = stripe.String(req.Name)
	}
	params.AddMetadata("user_id", req.UserID)

	customer, err := p.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("failed to create stripe customer: %w", err)
	}

	return customer.ID, nil
}

// CreateCheckoutLink creates a subscription-mode checkout session. The
// internal user ID and requested plan travel as metadata on both the
// session and the resulting subscription, so webhook events correlate to
// the user without a separate lookup table.
func (p *StripeProvider) CreateCheckoutLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error) {
	if req.PriceID == "" {
		return nil, errors.New("price ID is required")
	}
	if req.BillingCustomerID == "" {
		return nil, errors.New("billing customer ID is required")
	}

	params := &stripe.CheckoutSessionParams{
		Mode:     stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		Customer: stripe.String(req.BillingCustomerID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(p.config.SuccessURL),
		CancelURL:  stripe.String(p.config.CancelURL),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{
				"user_id":  req.UserID,
				"tier":     string(req.Tier),
				"interval": string(req.Interval),
			},
		},
	}
	params.Context = ctx
	params.AddMetadata("user_id", req.UserID)
	params.AddMetadata("tier", string(req.Tier))
	params.AddMetadata("interval", string(req.Interval))

	session, err := p.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create stripe checkout session: %w", err)
	}
	if session.URL == "" {
		return nil, ErrNoCheckoutURL
	}

	link := &CheckoutLink{
		URL:       session.URL,
		SessionID: session.ID,
	}
	if session.ExpiresAt > 0 {
		link.ExpiresAt = time.Unix(session.ExpiresAt, 0).UTC()
	}

	return link, nil
}

// GetCustomerPortalLink opens a billing-portal session for an existing
// Stripe customer.
func (p *StripeProvider) GetCustomerPortalLink(ctx context.Context, req PortalRequest) (*PortalLink, error) {
	if req.BillingCustomerID == "" {
		return nil, errors.New("billing customer ID is required")
	}

	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(req.BillingCustomerID),
		ReturnURL: stripe.String(p.config.PortalReturnURL),
	}
	params.Context = ctx

	session, err := p.api.BillingPortalSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create stripe portal session: %w", err)
	}
	if session.URL == "" {
		return nil, ErrNoPortalURL
	}

	return &PortalLink{
		URL:       session.URL,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}, nil
}

// stripeSubscription is the typed shape decoded from a subscription
// event's payload. Only the fields the reconciler consumes are declared;
// the period end appears top-level on older API versions and on the line
// item on newer ones, so both are read.
type stripeSubscription struct {
	ID               string            `json:"id"`
	Status           string            `json:"status"`
	CurrentPeriodEnd int64             `json:"current_period_end"`
	Metadata         map[string]string `json:"metadata"`
	Items            struct {
		Data []struct {
			CurrentPeriodEnd int64 `json:"current_period_end"`
			Price            struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

// ParseWebhook verifies the Stripe-Signature header (HMAC-SHA256 over
// "timestamp.payload") and normalizes subscription lifecycle events.
// Events outside the subscription lifecycle come back as EventIgnored.
func (p *StripeProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.config.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, errors.Join(ErrInvalidSignature, err)
	}

	eventType := string(event.Type)
	result := &WebhookEvent{
		Kind:          mapStripeEventType(eventType),
		ProviderEvent: eventType,
	}
	if result.Kind == EventIgnored {
		return result, nil
	}

	var sub stripeSubscription
	if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
		return nil, errors.Join(ErrUnprocessableEvent,
			fmt.Errorf("malformed subscription payload: %w", err))
	}

	result.SubscriptionID = sub.ID
	result.Status = sub.Status
	result.UserID = sub.Metadata["user_id"]

	if len(sub.Items.Data) > 0 {
		result.PriceID = sub.Items.Data[0].Price.ID
	}

	// Top-level period end is authoritative; the line-item field covers
	// newer API versions that moved it there.
	periodEnd := sub.CurrentPeriodEnd
	if periodEnd == 0 && len(sub.Items.Data) > 0 {
		periodEnd = sub.Items.Data[0].CurrentPeriodEnd
	}
	if periodEnd > 0 {
		t := time.Unix(periodEnd, 0).UTC()
		result.PeriodEnd = &t
	}

	return result, nil
}

func mapStripeEventType(eventType string) EventKind {
	switch eventType {
	case "customer.subscription.created":
		return EventSubscriptionCreated
	case "customer.subscription.updated":
		return EventSubscriptionUpdated
	case "customer.subscription.deleted":
		return EventSubscriptionDeleted
	default:
		return EventIgnored
	}
}
