/*
Package ledger provides the core transaction-posting and balance engine.

PURPOSE:
  This package contains the domain types and algorithms of the tally ledger:
  users, signed transactions in minor currency units, boundary policies, and
  balance derivation. Balance is never stored - it is always computed from
  the transaction history, which keeps the ledger impossible to desync.

KEY CONCEPTS IN THIS FILE (types.go):
  - User: A named account. Balance and last-transaction time are derived.
  - Transaction: An immutable ledger entry with a signed minor-unit value.
  - DayMetrics / MetricsSnapshot: Read-only aggregates for reporting.

DESIGN PRINCIPLES:
  1. Immutability: Transactions are append-only, never updated or deleted
  2. Derivation: balance(user) == sum of that user's transaction values
  3. Integer exactness: All arithmetic is int64 minor units (cents)
  4. Explicit dependencies: The engine receives its Store, no globals

SEE ALSO:
  - money.go:   Parsing raw input into minor units
  - policy.go:  Boundary checks on values and resulting balances
  - engine.go:  The posting state machine
*/
package ledger

import "time"

// =============================================================================
// USER - Named account
// =============================================================================

// User is a named account. Balance is NOT a field on purpose: it is derived
// from the transaction history every time it is needed.
type User struct {
	ID          int64
	Name        string
	MailAddress string
	CreateDate  time.Time
	Active      bool
}

// =============================================================================
// TRANSACTION - Atomic signed change to an account
// =============================================================================

// Transaction is an immutable ledger entry. Value is in minor currency units
// and is never zero. ID and CreateDate are assigned by the store at commit.
type Transaction struct {
	ID         int64
	UserID     int64
	Value      int64
	CreateDate time.Time
}

// =============================================================================
// AGGREGATES - Derived reporting values
// =============================================================================

// DayMetrics aggregates transactions whose creation time falls within
// [Date, Date+24h).
type DayMetrics struct {
	Date              time.Time
	Count             int
	DistinctUserCount int
	DayBalance        int64
	PositiveSum       int64
	NegativeSum       int64
}

// MetricsSnapshot is the reporting rollup for "today": global counts and
// balances plus a per-day breakdown covering today-3 .. today, ascending.
type MetricsSnapshot struct {
	Today             time.Time
	CountTransactions int
	OverallBalance    int64
	CountUsers        int
	AvgBalance        int64
	Days              []DayMetrics
}
