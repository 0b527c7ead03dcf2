/*
store.go - Persistence interface the engine depends on

PURPOSE:
  The engine and accumulator talk to storage through this interface only.
  Implementations:
    store/sqlite:       production SQLite store
    ledger/store:       in-memory store for tests and dev

APPEND-ONLY ENFORCEMENT:
  There is no update or delete for transactions - AppendTransaction is the
  only transaction write. Users are never deleted either; they only grow
  history.

AGGREGATES LIVE HERE:
  Balance and metrics queries are part of the interface so SQL stores can
  answer them with SUM/COUNT instead of loading whole histories. The
  accumulator (balance.go) is a thin layer over these and never caches.
*/
package ledger

import (
	"context"
	"time"
)

// Store is the persistence collaborator. Every method reflects committed
// state at call time; reads are never served from a cache.
//
// List methods take optional paging: a nil or negative limit means "all"
// (SQLite's LIMIT -1 semantics), a nil or negative offset means 0. The int
// return is always the overall count, independent of the page.
//
// CreateUser must report a name-uniqueness conflict as ErrDuplicateUser and
// write nothing. AppendTransaction must assign id and creation timestamp and
// commit atomically: a failed append leaves no partial row behind.
type Store interface {
	// Users
	CreateUser(ctx context.Context, name, mailAddress string) (User, error)
	GetUser(ctx context.Context, id int64) (*User, error)
	ListUsers(ctx context.Context, limit, offset *int) ([]User, int, error)
	CountUsers(ctx context.Context) (int, error)

	// Transactions
	AppendTransaction(ctx context.Context, userID, value int64) (Transaction, error)
	GetTransaction(ctx context.Context, id int64) (*Transaction, error)
	ListTransactions(ctx context.Context, limit, offset *int) ([]Transaction, int, error)
	ListUserTransactions(ctx context.Context, userID int64, limit, offset *int) ([]Transaction, int, error)
	CountTransactions(ctx context.Context) (int, error)

	// Aggregates (derived, never cached)
	UserBalance(ctx context.Context, userID int64) (int64, error)
	LastTransactionTime(ctx context.Context, userID int64) (*time.Time, error)
	GlobalBalance(ctx context.Context) (int64, error)
	DayMetrics(ctx context.Context, day time.Time) (DayMetrics, error)
}
