package subscription

import (
	"context"
	"time"
)

// BillingProvider defines the minimal interface for payment provider
// integrations. The provider handles all payment complexity through hosted
// checkouts and customer portals; implementations use official SDKs and
// absorb provider-specific quirks (metadata placement, signature schemes,
// payload shapes) so the service layer sees one normalized surface.
type BillingProvider interface {
	// CreateCustomer creates a billing customer upstream and returns its
	// provider identifier. Called at most once per user under normal flow.
	CreateCustomer(ctx context.Context, req CustomerRequest) (string, error)

	// CreateCheckoutLink creates a hosted checkout session scoped to a
	// price, carrying reconciliation metadata so webhook events can be
	// correlated back to the internal user.
	CreateCheckoutLink(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error)

	// GetCustomerPortalLink returns a temporary link to the provider's
	// self-service portal for an existing billing customer.
	GetCustomerPortalLink(ctx context.Context, req PortalRequest) (*PortalLink, error)

	// ParseWebhook validates and normalizes incoming webhook data.
	// It must verify the signature over the raw payload before trusting
	// any field; verification failures return ErrInvalidSignature.
	ParseWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error)
}

// CustomerRequest contains data needed to create a billing customer.
type CustomerRequest struct {
	UserID string // Internal user ID, stored as provider metadata
	Email  string
	Name   string
}

// CheckoutRequest contains data needed to create a checkout session.
type CheckoutRequest struct {
	PriceID           string // Provider's price identifier
	BillingCustomerID string // Provider's customer identifier
	UserID            string // Internal user ID for reconciliation metadata
	Tier              Tier
	Interval          Interval
}

// CheckoutLink represents a hosted checkout session.
type CheckoutLink struct {
	URL       string
	SessionID string
	ExpiresAt time.Time
}

// PortalRequest identifies the billing customer for a portal session.
type PortalRequest struct {
	BillingCustomerID string
}

// PortalLink represents a customer portal session.
type PortalLink struct {
	URL       string
	ExpiresAt time.Time
}

// EventKind is the normalized lifecycle event type. Provider
// implementations map their specific event names onto these.
type EventKind string

const (
	EventSubscriptionCreated EventKind = "subscription_created"
	EventSubscriptionUpdated EventKind = "subscription_updated"
	EventSubscriptionDeleted EventKind = "subscription_deleted"

	// EventIgnored covers recognized-but-irrelevant provider events.
	// They are acknowledged without processing.
	EventIgnored EventKind = "ignored"
)

// WebhookEvent is the normalized, strongly-typed form of a provider
// lifecycle event. Fields the provider did not supply stay zero; the
// reconciler decides whether an incomplete event is processable.
type WebhookEvent struct {
	Kind           EventKind
	ProviderEvent  string     // Original provider event name
	SubscriptionID string     // Provider's subscription ID
	UserID         string     // Correlation user ID from metadata; empty when absent
	PriceID        string     // Current price the subscription is on
	Status         string     // Raw provider status
	PeriodEnd      *time.Time // Normalized period end, nil when absent
}
