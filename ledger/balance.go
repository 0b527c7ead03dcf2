/*
balance.go - Balance derivation and global aggregates

PURPOSE:
  Answers "what is this account worth?" by delegating to the store's
  aggregate queries. This is the single place balance is derived, which is
  the central invariant of the whole system:

    balance(user) == sum(tx.Value for tx in transactions(user))

  There is deliberately NO caching here. Every call reflects the store's
  state at call time; two reads without an intervening write are identical.

WHY NOT CACHE ON THE USER?
  A cached balance column can drift from the transaction log after a crash
  or a missed invalidation. A derived balance cannot drift - it IS the log.

SEE ALSO:
  - store.go: The aggregate queries this layer composes
  - metrics.go: Reporting rollups built on top of this
*/
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Accumulator derives balances and aggregates from the transaction history.
// All operations are read-only and side-effect free.
type Accumulator struct {
	Store Store
}

// NewAccumulator creates an accumulator over the given store.
func NewAccumulator(store Store) *Accumulator {
	return &Accumulator{Store: store}
}

// CurrentBalance returns the sum of all committed transaction values for the
// user; 0 if none exist. The user is not required to exist.
func (a *Accumulator) CurrentBalance(ctx context.Context, userID int64) (int64, error) {
	balance, err := a.Store.UserBalance(ctx, userID)
	if err != nil {
		return 0, &StorageError{Op: "user balance", Err: err}
	}
	return balance, nil
}

// LastTransaction returns the creation time of the user's most recent
// transaction (ties broken by highest transaction id), or nil if none.
func (a *Accumulator) LastTransaction(ctx context.Context, userID int64) (*time.Time, error) {
	at, err := a.Store.LastTransactionTime(ctx, userID)
	if err != nil {
		return nil, &StorageError{Op: "last transaction", Err: err}
	}
	return at, nil
}

// GlobalBalance returns the sum of all transactions across all users.
func (a *Accumulator) GlobalBalance(ctx context.Context) (int64, error) {
	balance, err := a.Store.GlobalBalance(ctx)
	if err != nil {
		return 0, &StorageError{Op: "global balance", Err: err}
	}
	return balance, nil
}

// AverageBalance returns the global balance divided by the user count,
// rounded half-up to the nearest minor unit. 0 when no users exist.
func (a *Accumulator) AverageBalance(ctx context.Context) (int64, error) {
	count, err := a.Store.CountUsers(ctx)
	if err != nil {
		return 0, &StorageError{Op: "count users", Err: err}
	}
	if count == 0 {
		return 0, nil
	}

	total, err := a.GlobalBalance(ctx)
	if err != nil {
		return 0, err
	}

	avg := decimal.NewFromInt(total).Div(decimal.NewFromInt(int64(count)))
	return roundHalfUp(avg).IntPart(), nil
}

// DayMetrics aggregates the transactions of a single calendar day
// [day, day+24h) in UTC.
func (a *Accumulator) DayMetrics(ctx context.Context, day time.Time) (DayMetrics, error) {
	metrics, err := a.Store.DayMetrics(ctx, day)
	if err != nil {
		return DayMetrics{}, &StorageError{Op: "day metrics", Err: err}
	}
	return metrics, nil
}
