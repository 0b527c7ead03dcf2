/*
policy.go - Boundary policy for transaction values and account balances

PURPOSE:
  Holds the four configured limits and evaluates a proposed transaction
  against them. Pure functions of configuration + inputs: no I/O, no state.

CHECK ORDER (fixed, see engine.go):
  1. CheckTransactionValue - shape of the value itself (zero, min, max).
     Runs BEFORE the user is resolved, so an out-of-range value is
     rejected even for a nonexistent user.
  2. CheckResultingBalance - the balance the account would land on.

TIE-BREAK:
  Boundaries are inclusive on both ends. A value exactly equal to a limit
  is accepted; one unit beyond is rejected.
*/
package ledger

// Boundaries are the four configured limits, all in minor currency units.
// Loaded once at process start and passed by value - read-only thereafter.
type Boundaries struct {
	TransactionMax int64
	TransactionMin int64
	AccountMax     int64
	AccountMin     int64
}

// CheckTransactionValue validates the transaction value itself.
// Zero is always rejected; bounds are inclusive.
func (b Boundaries) CheckTransactionValue(value int64) error {
	if value == 0 {
		return ErrValueZero
	}
	if value > b.TransactionMax {
		return &TransactionLimitError{Value: value, Limit: b.TransactionMax, Kind: ErrTransactionTooHigh}
	}
	if value < b.TransactionMin {
		return &TransactionLimitError{Value: value, Limit: b.TransactionMin, Kind: ErrTransactionTooLow}
	}
	return nil
}

// CheckResultingBalance validates the balance an account would have after
// applying value. Bounds are inclusive.
func (b Boundaries) CheckResultingBalance(value, newBalance int64) error {
	if newBalance > b.AccountMax {
		return &AccountLimitError{Value: value, NewBalance: newBalance, Limit: b.AccountMax, Kind: ErrAccountAboveMax}
	}
	if newBalance < b.AccountMin {
		return &AccountLimitError{Value: value, NewBalance: newBalance, Limit: b.AccountMin, Kind: ErrAccountBelowMin}
	}
	return nil
}
