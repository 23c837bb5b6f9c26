package subscription

import "errors"

var (
	ErrUnauthenticated = errors.New("no authenticated user")
	ErrInvalidPlan     = errors.New("tier and interval do not resolve to a price")
	ErrUnknownPriceID  = errors.New("price ID does not map to a known tier")

	ErrInvalidSignature   = errors.New("webhook signature verification failed")
	ErrUnprocessableEvent = errors.New("event is missing correlation data or carries an unknown price")

	ErrUpstreamFailure    = errors.New("billing provider call failed")
	ErrPersistenceFailure = errors.New("entitlement store write failed")
	ErrNoBillingAccount   = errors.New("user has no billing customer on record")
	ErrCustomerNotFound   = errors.New("customer record not found")

	ErrInvalidCatalog = errors.New("invalid tier catalog configuration")

	// Provider configuration errors
	ErrMissingAPIKey        = errors.New("billing provider API key is required")
	ErrMissingWebhookSecret = errors.New("billing provider webhook secret is required")
	ErrNoCheckoutURL        = errors.New("no checkout URL returned from provider")
	ErrNoPortalURL          = errors.New("no portal URL returned from provider")
)
