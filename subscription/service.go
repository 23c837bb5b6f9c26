package subscription

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/google/uuid"
)

// Service implements checkout initiation, portal redirection, and webhook
// reconciliation on top of a Catalog, a BillingProvider, and a
// CustomerStore. It holds no mutable state of its own; all coordination
// happens through the store.
type Service struct {
	catalog  *Catalog
	provider BillingProvider
	store    CustomerStore
	log      *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the logger used for skip and failure reporting.
func WithLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log == nil {
			panic("subscription: logger cannot be nil")
		}
		s.log = log
	}
}

// NewService creates a subscription service.
func NewService(catalog *Catalog, provider BillingProvider, store CustomerStore, opts ...ServiceOption) *Service {
	if catalog == nil {
		panic("subscription: catalog cannot be nil")
	}
	if provider == nil {
		panic("subscription: provider cannot be nil")
	}
	if store == nil {
		panic("subscription: store cannot be nil")
	}

	s := &Service{
		catalog:  catalog,
		provider: provider,
		store:    store,
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog exposes the tier catalog for the pricing surface.
func (s *Service) Catalog() *Catalog {
	return s.catalog
}

// CreateCheckoutLink opens a hosted checkout session for the requested
// plan. When the user has no billing customer yet, one is created upstream
// and persisted with a conditional write: under a concurrent race the
// store's winner is used, so at most a duplicate upstream customer exists
// and only one ID is ever referenced.
func (s *Service) CreateCheckoutLink(ctx context.Context, userID uuid.UUID, tier Tier, interval Interval) (*CheckoutLink, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthenticated
	}

	priceID, err := s.catalog.ResolvePriceID(tier, interval)
	if err != nil {
		return nil, err
	}

	customer, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, errors.Join(ErrPersistenceFailure, err)
	}

	billingID := customer.BillingCustomerID
	if billingID == "" {
		created, err := s.provider.CreateCustomer(ctx, CustomerRequest{
			UserID: userID.String(),
			Email:  customer.Email,
			Name:   customer.Name,
		})
		if err != nil {
			return nil, errors.Join(ErrUpstreamFailure, err)
		}

		billingID, err = s.store.SetBillingCustomerID(ctx, userID, created)
		if err != nil {
			return nil, errors.Join(ErrPersistenceFailure, err)
		}
		if billingID != created {
			s.log.InfoContext(ctx, "billing customer created concurrently, using stored id",
				slog.String("user_id", userID.String()))
		}
	}

	link, err := s.provider.CreateCheckoutLink(ctx, CheckoutRequest{
		PriceID:           priceID,
		BillingCustomerID: billingID,
		UserID:            userID.String(),
		Tier:              tier,
		Interval:          interval,
	})
	if err != nil {
		return nil, errors.Join(ErrUpstreamFailure, err)
	}

	return link, nil
}

// GetCustomerPortalLink opens a self-service portal session for a user
// with an existing billing customer.
func (s *Service) GetCustomerPortalLink(ctx context.Context, userID uuid.UUID) (*PortalLink, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthenticated
	}

	customer, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, errors.Join(ErrPersistenceFailure, err)
	}
	if customer.BillingCustomerID == "" {
		return nil, ErrNoBillingAccount
	}

	link, err := s.provider.GetCustomerPortalLink(ctx, PortalRequest{
		BillingCustomerID: customer.BillingCustomerID,
	})
	if err != nil {
		return nil, errors.Join(ErrUpstreamFailure, err)
	}

	return link, nil
}

// HandleWebhook verifies, normalizes, and applies one lifecycle event.
//
// Each transition is an absolute write of the derived fields, so duplicate
// deliveries are naturally idempotent. Out-of-order updates can leave a
// transiently stale status; the provider does not guarantee ordering and
// no sequence reconciliation is attempted. Events missing correlation data
// or carrying an unknown price are logged and acknowledged without any
// state change; the caller owns retry via redelivery, so the only errors
// returned are ErrInvalidSignature (permanent reject) and
// ErrPersistenceFailure (redeliverable).
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.provider.ParseWebhook(ctx, payload, signature)
	if err != nil {
		if errors.Is(err, ErrUnprocessableEvent) {
			s.log.WarnContext(ctx, "skipping unprocessable webhook payload", slog.Any("error", err))
			return nil
		}
		return errors.Join(ErrInvalidSignature, err)
	}

	switch event.Kind {
	case EventSubscriptionCreated, EventSubscriptionUpdated:
		return s.applySubscriptionChange(ctx, event)
	case EventSubscriptionDeleted:
		return s.applySubscriptionDeleted(ctx, event)
	default:
		// Acknowledged without processing.
		return nil
	}
}

func (s *Service) applySubscriptionChange(ctx context.Context, event *WebhookEvent) error {
	userID, ok := s.correlate(ctx, event)
	if !ok {
		return nil
	}

	tier, err := s.catalog.ResolveTier(event.PriceID)
	if err != nil {
		s.log.WarnContext(ctx, "skipping event with unknown price",
			slog.String("provider_event", event.ProviderEvent),
			slog.String("price_id", event.PriceID),
			slog.String("user_id", userID.String()))
		return nil
	}

	ent := Entitlement{
		Tier:      tier,
		Status:    normalizeStatus(event.Status),
		PeriodEnd: event.PeriodEnd,
	}
	if err := s.store.SaveEntitlement(ctx, userID, ent); err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			s.log.WarnContext(ctx, "skipping event for unknown user",
				slog.String("user_id", userID.String()))
			return nil
		}
		s.log.ErrorContext(ctx, "failed to persist entitlement",
			slog.String("user_id", userID.String()),
			slog.Any("error", err))
		return errors.Join(ErrPersistenceFailure, err)
	}

	return nil
}

// applySubscriptionDeleted is the idempotent terminal transition: status
// becomes canceled and tier and period end are cleared unconditionally.
func (s *Service) applySubscriptionDeleted(ctx context.Context, event *WebhookEvent) error {
	userID, ok := s.correlate(ctx, event)
	if !ok {
		return nil
	}

	ent := Entitlement{Status: StatusCanceled}
	if err := s.store.SaveEntitlement(ctx, userID, ent); err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			s.log.WarnContext(ctx, "skipping cancellation for unknown user",
				slog.String("user_id", userID.String()))
			return nil
		}
		s.log.ErrorContext(ctx, "failed to persist cancellation",
			slog.String("user_id", userID.String()),
			slog.Any("error", err))
		return errors.Join(ErrPersistenceFailure, err)
	}

	return nil
}

// correlate extracts the internal user ID from event metadata. Events
// without a valid correlation ID are unprocessable: logged and dropped.
func (s *Service) correlate(ctx context.Context, event *WebhookEvent) (uuid.UUID, bool) {
	if event.UserID == "" {
		s.log.WarnContext(ctx, "skipping event without correlation user id",
			slog.String("provider_event", event.ProviderEvent),
			slog.String("subscription_id", event.SubscriptionID))
		return uuid.Nil, false
	}

	userID, err := uuid.Parse(event.UserID)
	if err != nil {
		s.log.WarnContext(ctx, "skipping event with malformed correlation user id",
			slog.String("provider_event", event.ProviderEvent),
			slog.String("user_id", event.UserID))
		return uuid.Nil, false
	}

	return userID, true
}
