package subscription

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemStore is an in-memory CustomerStore for tests and local development.
type MemStore struct {
	mu        sync.RWMutex
	customers map[uuid.UUID]*Customer
}

// NewMemStore creates an empty in-memory customer store.
func NewMemStore() *MemStore {
	return &MemStore{customers: make(map[uuid.UUID]*Customer)}
}

// Put inserts or replaces a customer record.
func (s *MemStore) Put(c Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[c.UserID] = &c
}

func (s *MemStore) Get(ctx context.Context, userID uuid.UUID) (*Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customers[userID]
	if !ok {
		return nil, ErrCustomerNotFound
	}
	copied := *c
	return &copied, nil
}

func (s *MemStore) SetBillingCustomerID(ctx context.Context, userID uuid.UUID, billingCustomerID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.customers[userID]
	if !ok {
		return "", ErrCustomerNotFound
	}
	if c.BillingCustomerID == "" {
		c.BillingCustomerID = billingCustomerID
	}
	return c.BillingCustomerID, nil
}

func (s *MemStore) SaveEntitlement(ctx context.Context, userID uuid.UUID, ent Entitlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.customers[userID]
	if !ok {
		return ErrCustomerNotFound
	}
	c.Entitlement = ent
	return nil
}
