// Package customer defines the customer collaborator consumed for
// display purposes only.
package customer

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a customer does not exist.
var ErrNotFound = errors.New("customer not found")

// Customer is a thin read model of an ordering customer.
type Customer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Contact string `json:"contact,omitempty"`
}

// Store is the customer collaborator interface.
type Store interface {
	Get(ctx context.Context, id string) (Customer, error)
	List(ctx context.Context) ([]Customer, error)
}
