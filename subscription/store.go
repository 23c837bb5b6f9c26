package subscription

import (
	"context"

	"github.com/google/uuid"
)

// Customer is the per-user entitlement record. BillingCustomerID is
// immutable once set: it is only ever written through the conditional
// SetBillingCustomerID, never reassigned.
type Customer struct {
	UserID            uuid.UUID
	Email             string
	Name              string
	BillingCustomerID string // empty = no billing customer yet
	Entitlement       Entitlement
}

// CustomerStore persists customer records. It is the sole shared mutable
// resource between checkout initiation and webhook reconciliation.
type CustomerStore interface {
	// Get loads a customer record. Returns ErrCustomerNotFound when the
	// user has no record.
	Get(ctx context.Context, userID uuid.UUID) (*Customer, error)

	// SetBillingCustomerID fills the billing customer ID only when it is
	// unset and returns the authoritative stored value. A concurrent
	// initiation that lost the race gets the winner's ID back, so a
	// duplicate upstream customer is never persisted.
	SetBillingCustomerID(ctx context.Context, userID uuid.UUID, billingCustomerID string) (string, error)

	// SaveEntitlement writes all three derived entitlement fields
	// absolutely. Replayed events are safe: the same write applied twice
	// leaves identical state.
	SaveEntitlement(ctx context.Context, userID uuid.UUID, ent Entitlement) error
}
