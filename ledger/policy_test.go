package ledger_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tally/ledger-engine/ledger"
)

func testBoundaries() ledger.Boundaries {
	return ledger.Boundaries{
		TransactionMax: 9999,
		TransactionMin: -9999,
		AccountMax:     42,
		AccountMin:     -23,
	}
}

// =============================================================================
// TRANSACTION VALUE CHECKS
// =============================================================================

func TestCheckTransactionValue_ZeroRejected(t *testing.T) {
	err := testBoundaries().CheckTransactionValue(0)
	assert.ErrorIs(t, err, ledger.ErrValueZero)
}

func TestCheckTransactionValue_BoundsInclusive(t *testing.T) {
	// GIVEN: Limits of +/-9999
	// THEN: The limits themselves pass, one unit beyond fails

	b := testBoundaries()

	assert.NoError(t, b.CheckTransactionValue(9999))
	assert.NoError(t, b.CheckTransactionValue(-9999))
	assert.NoError(t, b.CheckTransactionValue(1))

	err := b.CheckTransactionValue(10000)
	assert.ErrorIs(t, err, ledger.ErrTransactionTooHigh)

	err = b.CheckTransactionValue(-10000)
	assert.ErrorIs(t, err, ledger.ErrTransactionTooLow)
}

func TestCheckTransactionValue_ErrorMessages(t *testing.T) {
	b := testBoundaries()

	err := b.CheckTransactionValue(99999)
	require.Error(t, err)
	assert.Equal(t, "transaction value of 99999 exceeds the transaction maximum of 9999", err.Error())

	err = b.CheckTransactionValue(-99999)
	require.Error(t, err)
	assert.Equal(t, "transaction value of -99999 falls below the transaction minimum of -9999", err.Error())
}

// =============================================================================
// RESULTING BALANCE CHECKS
// =============================================================================

func TestCheckResultingBalance_BoundsInclusive(t *testing.T) {
	b := testBoundaries()

	assert.NoError(t, b.CheckResultingBalance(42, 42))
	assert.NoError(t, b.CheckResultingBalance(-23, -23))

	err := b.CheckResultingBalance(43, 43)
	assert.ErrorIs(t, err, ledger.ErrAccountAboveMax)

	err = b.CheckResultingBalance(-24, -24)
	assert.ErrorIs(t, err, ledger.ErrAccountBelowMin)
}

func TestCheckResultingBalance_ErrorMessages(t *testing.T) {
	b := testBoundaries()

	err := b.CheckResultingBalance(100, 123)
	require.Error(t, err)
	assert.Equal(t,
		"transaction value of 100 leads to an overall account balance of 123 "+
			"which goes beyond the upper account limit of 42",
		err.Error())

	err = b.CheckResultingBalance(-100, -77)
	require.Error(t, err)
	assert.Equal(t,
		"transaction value of -100 leads to an overall account balance of -77 "+
			"which goes below the lower account limit of -23",
		err.Error())

	var limitErr *ledger.AccountLimitError
	require.True(t, errors.As(err, &limitErr))
	assert.Equal(t, int64(-77), limitErr.NewBalance)
}
