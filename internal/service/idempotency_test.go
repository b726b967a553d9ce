package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryIdempotencyStore(t *testing.T) {
	store := NewMemoryIdempotencyStore()
	ctx := context.Background()

	_, found, err := store.Lookup(ctx, "cust-1:key-1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Remember(ctx, "cust-1:key-1", "pay-1"))

	id, found, err := store.Lookup(ctx, "cust-1:key-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "pay-1", id)

	// First writer wins; a duplicate Remember does not repoint the key.
	require.NoError(t, store.Remember(ctx, "cust-1:key-1", "pay-2"))
	id, _, err = store.Lookup(ctx, "cust-1:key-1")
	require.NoError(t, err)
	assert.Equal(t, "pay-1", id)

	// Keys are scoped per customer.
	_, found, err = store.Lookup(ctx, "cust-2:key-1")
	require.NoError(t, err)
	assert.False(t, found)
}
