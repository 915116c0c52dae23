package stores

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/railops/phaseline/internal/core/customer"
)

func TestCustomerStore(t *testing.T) {
	ctx := context.Background()
	store := NewCustomerStore(
		customer.Customer{ID: "cus-rail-b", Name: "Rail Cargo B"},
		customer.Customer{ID: "cus-rail-a", Name: "Rail Cargo A", Contact: "ops@rail-a.example"},
	)

	got, err := store.Get(ctx, "cus-rail-a")
	require.NoError(t, err)
	assert.Equal(t, "Rail Cargo A", got.Name)

	_, err = store.Get(ctx, "cus-missing")
	require.ErrorIs(t, err, customer.ErrNotFound)

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "cus-rail-a", all[0].ID)
	assert.Equal(t, "cus-rail-b", all[1].ID)
}
