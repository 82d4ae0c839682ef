package db

import (
	"context"
	"testing"

	"github.com/damon-houk/currency-widget/internal/domain/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore checks the KeyValueStore behaviour every backend shares
func exerciseStore(t *testing.T, store repository.KeyValueStore) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := store.GetRaw(ctx, "currencies")
	require.NoError(t, err)
	assert.False(t, ok)

	exists, err := store.Exists(ctx, "currencies")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.SetRaw(ctx, "currencies", []byte(`["EUR","USD"]`)))
	require.NoError(t, store.SetRaw(ctx, "historical-USD-EUR", []byte(`{"rates":{}}`)))

	value, ok, err := store.GetRaw(ctx, "currencies")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `["EUR","USD"]`, string(value))

	exists, err = store.Exists(ctx, "historical-USD-EUR")
	require.NoError(t, err)
	assert.True(t, exists)

	// Last write wins
	require.NoError(t, store.SetRaw(ctx, "currencies", []byte(`["GBP"]`)))
	value, _, err = store.GetRaw(ctx, "currencies")
	require.NoError(t, err)
	assert.Equal(t, `["GBP"]`, string(value))

	require.NoError(t, store.Delete(ctx, "currencies"))
	_, ok, err = store.GetRaw(ctx, "currencies")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Clear(ctx))
	exists, err = store.Exists(ctx, "historical-USD-EUR")
	require.NoError(t, err)
	assert.False(t, exists)
}
