package stores

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/railops/phaseline/internal/core/customer"
)

// CustomerStore implements customer.Store in memory.
type CustomerStore struct {
	mu        sync.RWMutex
	customers map[string]customer.Customer
}

var _ customer.Store = (*CustomerStore)(nil)

// NewCustomerStore creates a store seeded with the given customers.
func NewCustomerStore(seed ...customer.Customer) *CustomerStore {
	s := &CustomerStore{customers: make(map[string]customer.Customer, len(seed))}
	for _, c := range seed {
		s.customers[c.ID] = c
	}
	return s
}

// Get returns a customer by id. Returns customer.ErrNotFound if missing.
func (s *CustomerStore) Get(_ context.Context, id string) (customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customers[id]
	if !ok {
		return customer.Customer{}, fmt.Errorf("get customer %s: %w", id, customer.ErrNotFound)
	}
	return c, nil
}

// List returns all customers ordered by id.
func (s *CustomerStore) List(_ context.Context) ([]customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]customer.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
