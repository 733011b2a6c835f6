package zkclienttest

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/elementsproject/zkharness/ledger"
	"github.com/elementsproject/zkharness/zkclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeLifecycle(t *testing.T) {
	ctx := context.Background()
	c := NewClient(filepath.Join(t.TempDir(), "customer.db"))

	require.NoError(t, c.Establish(ctx, "a", 10*ledger.MutezPerTez))
	require.NoError(t, c.Pay(ctx, "a", 4*ledger.MutezPerTez))
	assert.Error(t, c.Pay(ctx, "a", 7*ledger.MutezPerTez))

	id, err := zkclient.ChannelID(ctx, c, "a")
	require.NoError(t, err)
	assert.Equal(t, "chan-1", id)

	require.NoError(t, c.Close(ctx, "a", true))
	require.NoError(t, c.Expire(ctx, id))

	channels, err := c.List(ctx)
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Equal(t, StateMerchantExpired, channels[0].State)
	assert.Equal(t, int64(6*ledger.MutezPerTez), channels[0].CustomerBalance)
	assert.Equal(t, int64(4*ledger.MutezPerTez), channels[0].MerchantBalance)

	// Payments on a closed channel fail.
	assert.Error(t, c.Pay(ctx, "a", 1))

	calls := c.Calls()
	ops := make([]string, len(calls))
	for i, call := range calls {
		ops[i] = call.Op
	}
	assert.Equal(t, []string{"establish", "pay", "pay", "list", "close", "expire", "list", "pay"}, ops)
	assert.Equal(t, ledger.Amount(6*ledger.MutezPerTez), calls[4].Balance)
}

func TestFakeUnknownChannel(t *testing.T) {
	ctx := context.Background()
	c := NewClient(filepath.Join(t.TempDir(), "customer.db"))

	assert.ErrorIs(t, c.Pay(ctx, "nope", 1), zkclient.ErrChannelNotFound)
	assert.ErrorIs(t, c.Close(ctx, "nope", false), zkclient.ErrChannelNotFound)
	assert.ErrorIs(t, c.Expire(ctx, "chan-9"), zkclient.ErrChannelNotFound)

	require.NoError(t, c.Establish(ctx, "a", 100))
	assert.Error(t, c.Establish(ctx, "a", 100))
}

func TestFakeFailOn(t *testing.T) {
	ctx := context.Background()
	c := NewClient(filepath.Join(t.TempDir(), "customer.db"))
	boom := errors.New("boom")
	c.FailOn("mutual_close", boom)

	require.NoError(t, c.Establish(ctx, "a", 100))
	assert.ErrorIs(t, c.Close(ctx, "a", false), boom)
	require.NoError(t, c.Close(ctx, "a", true))
}
