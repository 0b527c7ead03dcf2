package ledger_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tally/ledger-engine/ledger"
	"github.com/tally/ledger-engine/ledger/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestEngine(t *testing.T, bounds ledger.Boundaries) (*ledger.Engine, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	return ledger.NewEngine(mem, bounds, nil), mem
}

// =============================================================================
// POSTING SCENARIO
// =============================================================================

func TestEngine_PostingSequence_AgainstAccountBoundaries(t *testing.T) {
	// GIVEN: Account limits [-23, 42], transaction limits [-9999, 9999],
	//        a fresh user "gert"
	// WHEN: Posting 11, 12, 100, -100, 99999 in order
	// THEN: The first two commit; the rest are rejected without writing

	engine, _ := newTestEngine(t, testBoundaries())
	ctx := context.Background()

	user, err := engine.CreateUser(ctx, "gert", "")
	require.NoError(t, err)

	tx, err := engine.Post(ctx, user.ID, "11")
	require.NoError(t, err)
	assert.Equal(t, int64(11), tx.Value)

	tx, err = engine.Post(ctx, user.ID, "12")
	require.NoError(t, err)
	assert.Equal(t, int64(12), tx.Value)

	// 23 + 100 = 123 breaks the upper account limit of 42
	_, err = engine.Post(ctx, user.ID, "100")
	assert.ErrorIs(t, err, ledger.ErrAccountAboveMax)

	// 23 - 100 = -77 breaks the lower account limit of -23
	_, err = engine.Post(ctx, user.ID, "-100")
	assert.ErrorIs(t, err, ledger.ErrAccountBelowMin)

	// 99999 breaks the transaction maximum before any balance math
	_, err = engine.Post(ctx, user.ID, "99999")
	assert.ErrorIs(t, err, ledger.ErrTransactionTooHigh)

	// Rejected posts left no trace: the derived balance is still 23
	balance, err := engine.Balances().CurrentBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(23), balance)
}

func TestEngine_Post_ExactBoundaryAccepted(t *testing.T) {
	engine, _ := newTestEngine(t, testBoundaries())
	ctx := context.Background()

	user, err := engine.CreateUser(ctx, "edge", "")
	require.NoError(t, err)

	// Landing exactly on the account maximum is allowed.
	_, err = engine.Post(ctx, user.ID, "42")
	require.NoError(t, err)

	// One more unit is not.
	_, err = engine.Post(ctx, user.ID, "1")
	assert.ErrorIs(t, err, ledger.ErrAccountAboveMax)
}

// =============================================================================
// VALIDATION PRECEDENCE
// =============================================================================

func TestEngine_Post_ValueChecksPrecedeUserResolution(t *testing.T) {
	// GIVEN: A user id that does not exist
	// WHEN: Posting a value that fails a shape check
	// THEN: The value error wins over UserNotFound

	engine, _ := newTestEngine(t, testBoundaries())
	ctx := context.Background()

	_, err := engine.Post(ctx, 404, "0")
	assert.ErrorIs(t, err, ledger.ErrValueZero)

	_, err = engine.Post(ctx, 404, "99999")
	assert.ErrorIs(t, err, ledger.ErrTransactionTooHigh)

	_, err = engine.Post(ctx, 404, "pancake")
	assert.ErrorIs(t, err, ledger.ErrInvalidValue)

	// A well-formed value for a missing user does report UserNotFound.
	_, err = engine.Post(ctx, 404, "10")
	assert.ErrorIs(t, err, ledger.ErrUserNotFound)

	var notFound *ledger.UserNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "user 404 not found", notFound.Error())
}

func TestEngine_Post_DecimalInputInMajorUnits(t *testing.T) {
	engine, _ := newTestEngine(t, ledger.Boundaries{
		TransactionMax: 999900, TransactionMin: -999900,
		AccountMax: 1000000, AccountMin: -1000000,
	})
	ctx := context.Background()

	user, err := engine.CreateUser(ctx, "dot", "")
	require.NoError(t, err)

	tx, err := engine.Post(ctx, user.ID, "0.5")
	require.NoError(t, err)
	assert.Equal(t, int64(50), tx.Value)

	balance, err := engine.Balances().CurrentBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(50), balance)
}

// =============================================================================
// USER CREATION
// =============================================================================

func TestEngine_CreateUser_RejectsMissingName(t *testing.T) {
	engine, _ := newTestEngine(t, testBoundaries())

	_, err := engine.CreateUser(context.Background(), "", "")
	assert.ErrorIs(t, err, ledger.ErrNameMissing)
}

func TestEngine_CreateUser_RejectsDuplicateName(t *testing.T) {
	engine, mem := newTestEngine(t, testBoundaries())
	ctx := context.Background()

	_, err := engine.CreateUser(ctx, "gert", "")
	require.NoError(t, err)

	_, err = engine.CreateUser(ctx, "gert", "gert@example.com")
	assert.ErrorIs(t, err, ledger.ErrDuplicateUser)
	assert.Equal(t, "user gert already exists", err.Error())

	// The conflict wrote nothing.
	count, err := mem.CountUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

// =============================================================================
// CONCURRENCY
// =============================================================================

func TestEngine_Post_ConcurrentPostsNeverBreachAccountLimit(t *testing.T) {
	// GIVEN: Account maximum of 42 and twenty concurrent posts of 10
	// WHEN: All goroutines race on one user
	// THEN: Exactly four commits (4x10 <= 42); the balance never exceeds 42

	engine, _ := newTestEngine(t, testBoundaries())
	ctx := context.Background()

	user, err := engine.CreateUser(ctx, "racer", "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Post(ctx, user.ID, "10")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	committed := 0
	for err := range results {
		if err == nil {
			committed++
		} else {
			assert.ErrorIs(t, err, ledger.ErrAccountAboveMax)
		}
	}
	assert.Equal(t, 4, committed)

	balance, err := engine.Balances().CurrentBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(40), balance)
}
