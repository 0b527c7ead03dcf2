/*
errors.go - Centralized error types for the ledger engine

PURPOSE:
  All error kinds in one place for consistency and discoverability. The HTTP
  layer maps these kinds to status codes; the engine never touches HTTP.

ERROR CATEGORIES:
  1. Input errors      - missing, unparsable, or zero values
  2. Boundary errors   - transaction or account limits violated
  3. Existence errors  - unknown user, duplicate user name
  4. Storage errors    - the persistence collaborator failed

USAGE:
  Callers branch with errors.Is against the sentinels; structured types carry
  the numbers needed for message construction and unwrap to a sentinel:

    if errors.Is(err, ledger.ErrAccountAboveMax) { ... }

SEE ALSO:
  - engine.go: Produces these errors
  - api/handlers.go: Maps them to HTTP statuses
*/
package ledger

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrValueMissing is returned when a transaction post carries no value.
	ErrValueMissing = errors.New("value missing")

	// ErrNameMissing is returned when user creation carries no name.
	ErrNameMissing = errors.New("name missing")

	// ErrInvalidValue is returned when the raw value cannot be parsed as a
	// number.
	ErrInvalidValue = errors.New("invalid value")

	// ErrValueZero is returned for zero-valued transactions. Zero is rejected
	// regardless of user existence.
	ErrValueZero = errors.New("value must not be zero")

	// ErrTransactionTooHigh / ErrTransactionTooLow flag values outside the
	// inclusive [TransactionMin, TransactionMax] range.
	ErrTransactionTooHigh = errors.New("transaction maximum exceeded")
	ErrTransactionTooLow  = errors.New("transaction minimum exceeded")

	// ErrAccountAboveMax / ErrAccountBelowMin flag resulting balances outside
	// the inclusive [AccountMin, AccountMax] range.
	ErrAccountAboveMax = errors.New("account maximum exceeded")
	ErrAccountBelowMin = errors.New("account minimum exceeded")

	// ErrUserNotFound is returned when the referenced user id does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrDuplicateUser is returned when a user name already exists. The store
	// reports this from its uniqueness constraint; nothing is written.
	ErrDuplicateUser = errors.New("user already exists")

	// ErrTransactionNotFound is returned when a transaction id does not exist
	// or is owned by a different user.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrStorage is returned when the persistence collaborator fails
	// unexpectedly. Never retried by the engine.
	ErrStorage = errors.New("storage failure")
)

// =============================================================================
// STRUCTURED ERRORS - Carry context for message construction
// =============================================================================

// InvalidValueError reports input that is not a number.
type InvalidValueError struct {
	Raw string
}

func (e *InvalidValueError) Error() string {
	return fmt.Sprintf("not a number: %s", e.Raw)
}

func (e *InvalidValueError) Unwrap() error { return ErrInvalidValue }

// TransactionLimitError reports a value outside the transaction boundaries.
// Kind is ErrTransactionTooHigh or ErrTransactionTooLow.
type TransactionLimitError struct {
	Value int64
	Limit int64
	Kind  error
}

func (e *TransactionLimitError) Error() string {
	if errors.Is(e.Kind, ErrTransactionTooHigh) {
		return fmt.Sprintf("transaction value of %d exceeds the transaction maximum of %d",
			e.Value, e.Limit)
	}
	return fmt.Sprintf("transaction value of %d falls below the transaction minimum of %d",
		e.Value, e.Limit)
}

func (e *TransactionLimitError) Unwrap() error { return e.Kind }

// AccountLimitError reports a resulting balance outside the account
// boundaries. Kind is ErrAccountAboveMax or ErrAccountBelowMin.
type AccountLimitError struct {
	Value      int64
	NewBalance int64
	Limit      int64
	Kind       error
}

func (e *AccountLimitError) Error() string {
	if errors.Is(e.Kind, ErrAccountAboveMax) {
		return fmt.Sprintf("transaction value of %d leads to an overall account balance of %d "+
			"which goes beyond the upper account limit of %d", e.Value, e.NewBalance, e.Limit)
	}
	return fmt.Sprintf("transaction value of %d leads to an overall account balance of %d "+
		"which goes below the lower account limit of %d", e.Value, e.NewBalance, e.Limit)
}

func (e *AccountLimitError) Unwrap() error { return e.Kind }

// UserNotFoundError reports a missing user id.
type UserNotFoundError struct {
	ID int64
}

func (e *UserNotFoundError) Error() string {
	return fmt.Sprintf("user %d not found", e.ID)
}

func (e *UserNotFoundError) Unwrap() error { return ErrUserNotFound }

// DuplicateUserError reports a user-creation uniqueness conflict.
type DuplicateUserError struct {
	Name string
}

func (e *DuplicateUserError) Error() string {
	return fmt.Sprintf("user %s already exists", e.Name)
}

func (e *DuplicateUserError) Unwrap() error { return ErrDuplicateUser }

// TransactionNotFoundError reports a missing or foreign transaction id.
type TransactionNotFoundError struct {
	ID int64
}

func (e *TransactionNotFoundError) Error() string {
	return fmt.Sprintf("transaction %d not found", e.ID)
}

func (e *TransactionNotFoundError) Unwrap() error { return ErrTransactionNotFound }

// StorageError wraps an unexpected failure of the persistence collaborator.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return ErrStorage }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsInvalidInput reports whether the error is a routine input problem
// (maps to 400 at the request boundary).
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrValueMissing) ||
		errors.Is(err, ErrNameMissing) ||
		errors.Is(err, ErrInvalidValue) ||
		errors.Is(err, ErrValueZero)
}

// IsBoundaryViolation reports whether the error is a transaction or account
// boundary rejection (maps to 403 at the request boundary).
func IsBoundaryViolation(err error) bool {
	return errors.Is(err, ErrTransactionTooHigh) ||
		errors.Is(err, ErrTransactionTooLow) ||
		errors.Is(err, ErrAccountAboveMax) ||
		errors.Is(err, ErrAccountBelowMin)
}

// IsNotFound reports whether the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrTransactionNotFound)
}
