package ledger_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tally/ledger-engine/ledger"
	"github.com/tally/ledger-engine/ledger/store"
)

// =============================================================================
// BALANCE DERIVATION TESTS
// =============================================================================

func TestAccumulator_CurrentBalance_IsSumOfTransactions(t *testing.T) {
	mem := store.NewMemory()
	acc := ledger.NewAccumulator(mem)
	ctx := context.Background()

	user, err := mem.CreateUser(ctx, "gert", "")
	require.NoError(t, err)

	// Empty history derives to zero, not an error.
	balance, err := acc.CurrentBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)

	for _, v := range []int64{11, 12, -5} {
		_, err := mem.AppendTransaction(ctx, user.ID, v)
		require.NoError(t, err)
	}

	balance, err = acc.CurrentBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(18), balance)
}

func TestAccumulator_CurrentBalance_UnknownUserIsZero(t *testing.T) {
	acc := ledger.NewAccumulator(store.NewMemory())

	balance, err := acc.CurrentBalance(context.Background(), 404)
	require.NoError(t, err)
	assert.Equal(t, int64(0), balance)
}

func TestAccumulator_LastTransaction_TieBrokenByHighestID(t *testing.T) {
	// GIVEN: Two transactions sharing one timestamp
	// THEN: The later append (higher id) wins

	mem := store.NewMemory()
	fixed := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	mem.Now = func() time.Time { return fixed }

	acc := ledger.NewAccumulator(mem)
	ctx := context.Background()

	user, err := mem.CreateUser(ctx, "gert", "")
	require.NoError(t, err)

	// No history yet: nil, not an error.
	at, err := acc.LastTransaction(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, at)

	_, err = mem.AppendTransaction(ctx, user.ID, 11)
	require.NoError(t, err)
	_, err = mem.AppendTransaction(ctx, user.ID, 12)
	require.NoError(t, err)

	at, err = acc.LastTransaction(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, at)
	assert.True(t, at.Equal(fixed))
}

// =============================================================================
// GLOBAL AGGREGATES
// =============================================================================

func TestAccumulator_AverageBalance_RoundsHalfUp(t *testing.T) {
	mem := store.NewMemory()
	acc := ledger.NewAccumulator(mem)
	ctx := context.Background()

	// No users: average is zero, never a division by zero.
	avg, err := acc.AverageBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), avg)

	u1, err := mem.CreateUser(ctx, "a", "")
	require.NoError(t, err)
	u2, err := mem.CreateUser(ctx, "b", "")
	require.NoError(t, err)

	// Total 3 over 2 users: 1.5 rounds half-up to 2.
	_, err = mem.AppendTransaction(ctx, u1.ID, 1)
	require.NoError(t, err)
	_, err = mem.AppendTransaction(ctx, u2.ID, 2)
	require.NoError(t, err)

	avg, err = acc.AverageBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), avg)

	total, err := acc.GlobalBalance(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

// =============================================================================
// METRICS SNAPSHOT
// =============================================================================

func TestMetricsAggregator_Snapshot_FourDaysAscending(t *testing.T) {
	mem := store.NewMemory()
	metrics := ledger.NewMetricsAggregator(mem)
	ctx := context.Background()

	today := time.Date(2026, 8, 29, 15, 30, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)

	u1, err := mem.CreateUser(ctx, "a", "")
	require.NoError(t, err)
	u2, err := mem.CreateUser(ctx, "b", "")
	require.NoError(t, err)

	mem.Now = func() time.Time { return yesterday }
	_, err = mem.AppendTransaction(ctx, u1.ID, 10)
	require.NoError(t, err)

	mem.Now = func() time.Time { return today }
	_, err = mem.AppendTransaction(ctx, u1.ID, 5)
	require.NoError(t, err)
	_, err = mem.AppendTransaction(ctx, u2.ID, -3)
	require.NoError(t, err)

	snap, err := metrics.Snapshot(ctx, today)
	require.NoError(t, err)

	assert.Equal(t, 3, snap.CountTransactions)
	assert.Equal(t, 2, snap.CountUsers)
	assert.Equal(t, int64(12), snap.OverallBalance)
	assert.Equal(t, int64(6), snap.AvgBalance)

	// days covers today-3 .. today, ascending.
	require.Len(t, snap.Days, 4)
	assert.Equal(t, ledger.StartOfDay(today.AddDate(0, 0, -3)), snap.Days[0].Date)
	assert.Equal(t, ledger.StartOfDay(today), snap.Days[3].Date)

	assert.Equal(t, 0, snap.Days[0].Count)

	assert.Equal(t, 1, snap.Days[2].Count)
	assert.Equal(t, int64(10), snap.Days[2].DayBalance)

	todayMetrics := snap.Days[3]
	assert.Equal(t, 2, todayMetrics.Count)
	assert.Equal(t, 2, todayMetrics.DistinctUserCount)
	assert.Equal(t, int64(2), todayMetrics.DayBalance)
	assert.Equal(t, int64(5), todayMetrics.PositiveSum)
	assert.Equal(t, int64(-3), todayMetrics.NegativeSum)
}
