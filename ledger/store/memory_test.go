package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tally/ledger-engine/ledger/store"
)

func intPtr(v int) *int { return &v }

func TestMemory_ListUsers_Paging(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c", "d"} {
		_, err := mem.CreateUser(ctx, name, "")
		require.NoError(t, err)
	}

	users, count, err := mem.ListUsers(ctx, intPtr(2), intPtr(1))
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	require.Len(t, users, 2)
	assert.Equal(t, "b", users[0].Name)
	assert.Equal(t, "c", users[1].Name)

	// An offset past the end yields an empty page, not a panic.
	users, count, err = mem.ListUsers(ctx, intPtr(2), intPtr(10))
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	assert.Empty(t, users)

	// A limit past the end is clamped.
	users, _, err = mem.ListUsers(ctx, intPtr(100), intPtr(3))
	require.NoError(t, err)
	assert.Len(t, users, 1)

	// A negative limit means "all", a negative offset means 0.
	users, _, err = mem.ListUsers(ctx, intPtr(-1), intPtr(-1))
	require.NoError(t, err)
	assert.Len(t, users, 4)
}

func TestMemory_ListUserTransactions_CountIsPerUser(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	u1, err := mem.CreateUser(ctx, "a", "")
	require.NoError(t, err)
	u2, err := mem.CreateUser(ctx, "b", "")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := mem.AppendTransaction(ctx, u1.ID, 1)
		require.NoError(t, err)
	}
	_, err = mem.AppendTransaction(ctx, u2.ID, 1)
	require.NoError(t, err)

	txs, count, err := mem.ListUserTransactions(ctx, u1.ID, intPtr(2), nil)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.Len(t, txs, 2)
}

func TestMemory_IDsStartAtOneAndIncrease(t *testing.T) {
	mem := store.NewMemory()
	ctx := context.Background()

	u, err := mem.CreateUser(ctx, "a", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), u.ID)

	tx, err := mem.AppendTransaction(ctx, u.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), tx.ID)

	tx, err = mem.AppendTransaction(ctx, u.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(2), tx.ID)
}
