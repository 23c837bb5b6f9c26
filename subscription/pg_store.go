package subscription

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/practicelab/practicelab/pkg/pg"
)

// PGStore is the Postgres-backed CustomerStore over the users table.
type PGStore struct {
	db *pgxpool.Pool
}

// NewPGStore creates a Postgres customer store.
func NewPGStore(db *pgxpool.Pool) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) Get(ctx context.Context, userID uuid.UUID) (*Customer, error) {
	const query = `
		SELECT email, name, billing_customer_id,
		       subscription_tier, subscription_status, subscription_period_end
		FROM users
		WHERE id = $1`

	c := Customer{UserID: userID}
	var (
		name              *string
		billingCustomerID *string
		tier              *string
		status            *string
	)

	err := s.db.QueryRow(ctx, query, userID).Scan(
		&c.Email, &name, &billingCustomerID, &tier, &status, &c.Entitlement.PeriodEnd,
	)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, errors.Join(ErrCustomerNotFound, err)
		}
		return nil, fmt.Errorf("failed to load customer %s: %w", userID, err)
	}

	if name != nil {
		c.Name = *name
	}
	if billingCustomerID != nil {
		c.BillingCustomerID = *billingCustomerID
	}
	if tier != nil {
		c.Entitlement.Tier = Tier(*tier)
	}
	if status != nil {
		c.Entitlement.Status = Status(*status)
	}

	return &c, nil
}

// SetBillingCustomerID fills the column only when NULL and returns the
// stored value, closing the check-then-create race in a single statement.
func (s *PGStore) SetBillingCustomerID(ctx context.Context, userID uuid.UUID, billingCustomerID string) (string, error) {
	const query = `
		UPDATE users
		SET billing_customer_id = COALESCE(billing_customer_id, $2),
		    updated_at = now()
		WHERE id = $1
		RETURNING billing_customer_id`

	var stored string
	err := s.db.QueryRow(ctx, query, userID, billingCustomerID).Scan(&stored)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return "", errors.Join(ErrCustomerNotFound, err)
		}
		return "", fmt.Errorf("failed to set billing customer for %s: %w", userID, err)
	}

	return stored, nil
}

func (s *PGStore) SaveEntitlement(ctx context.Context, userID uuid.UUID, ent Entitlement) error {
	const query = `
		UPDATE users
		SET subscription_tier = NULLIF($2, ''),
		    subscription_status = NULLIF($3, ''),
		    subscription_period_end = $4,
		    updated_at = now()
		WHERE id = $1`

	tag, err := s.db.Exec(ctx, query, userID, string(ent.Tier), string(ent.Status), ent.PeriodEnd)
	if err != nil {
		return fmt.Errorf("failed to save entitlement for %s: %w", userID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCustomerNotFound
	}

	return nil
}
