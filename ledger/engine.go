/*
engine.go - The transaction-posting engine

PURPOSE:
  Orchestrates a post: parse the raw value, apply the boundary policy, derive
  the pre-transaction balance, and commit - or report a categorized failure.

POST STATE MACHINE:
  Received -> ValueParsed -> BoundaryChecked(Transaction)
           -> UserResolved -> BoundaryChecked(Account) -> Committed

  Any step can short-circuit to a terminal error. Two ordering rules are
  deliberate and load-bearing:

  1. Value-shape checks run BEFORE user resolution. Posting an out-of-range
     value for a nonexistent user yields the value error, not UserNotFound.
  2. The account-boundary check uses the balance as of the moment just
     before this transaction is applied. A per-user lock spans the
     read-balance-then-append sequence so two concurrent posts cannot both
     read a stale balance and jointly break an account boundary.

CONCURRENCY:
  Posts for different users proceed fully in parallel; posts for the same
  user serialize on that user's mutex. The lock map only grows with the
  user count. Once the append begins it either commits or fails atomically -
  partial transactions are never observable.

ERROR POLICY:
  Validation rejections are routine and logged at Warn. Only storage
  failures deserve operator attention and are logged at Error. Nothing is
  retried here.

SEE ALSO:
  - policy.go: The boundary checks
  - balance.go: Balance derivation
  - api/handlers.go: Maps the error kinds to HTTP statuses
*/
package ledger

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
)

// Engine validates and commits transactions against the boundary policy.
// Construct with NewEngine; the zero value is not usable.
type Engine struct {
	store    Store
	bounds   Boundaries
	balances *Accumulator
	log      *slog.Logger

	mu        sync.Mutex
	userLocks map[int64]*sync.Mutex
}

// NewEngine creates an engine over the given store and boundary policy.
// A nil logger disables logging.
func NewEngine(store Store, bounds Boundaries, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		store:     store,
		bounds:    bounds,
		balances:  NewAccumulator(store),
		log:       log,
		userLocks: make(map[int64]*sync.Mutex),
	}
}

// Boundaries returns the policy the engine was constructed with.
func (e *Engine) Boundaries() Boundaries { return e.bounds }

// Balances returns the engine's accumulator.
func (e *Engine) Balances() *Accumulator { return e.balances }

// lockUser returns the mutex serializing posts for a single user.
func (e *Engine) lockUser(userID int64) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()

	lock, ok := e.userLocks[userID]
	if !ok {
		lock = &sync.Mutex{}
		e.userLocks[userID] = lock
	}
	return lock
}

// Post validates rawValue against the boundary policy and commits a
// transaction for the user, or returns a categorized error.
func (e *Engine) Post(ctx context.Context, userID int64, rawValue string) (Transaction, error) {
	// 1. Parse. Failure here and in step 2 is independent of user existence.
	value, err := ParseValue(rawValue)
	if err != nil {
		e.log.Warn("could not create transaction: invalid input", "user_id", userID, "raw", rawValue)
		return Transaction{}, err
	}

	// 2. Transaction-shape check.
	if err := e.bounds.CheckTransactionValue(value); err != nil {
		if errors.Is(err, ErrValueZero) {
			e.log.Warn("could not create transaction: invalid input", "user_id", userID)
		} else {
			e.log.Warn("could not create transaction: transaction boundary exceeded",
				"user_id", userID, "value", value)
		}
		return Transaction{}, err
	}

	// Serialize read-balance-then-append per user.
	lock := e.lockUser(userID)
	lock.Lock()
	defer lock.Unlock()

	// 3. Resolve user.
	user, err := e.store.GetUser(ctx, userID)
	if err != nil {
		e.log.Error("could not create transaction: storage failure", "user_id", userID, "err", err)
		return Transaction{}, &StorageError{Op: "get user", Err: err}
	}
	if user == nil {
		e.log.Warn("could not create transaction: user not found", "user_id", userID)
		return Transaction{}, &UserNotFoundError{ID: userID}
	}

	// 4. Derive the pre-transaction balance.
	balance, err := e.balances.CurrentBalance(ctx, userID)
	if err != nil {
		e.log.Error("could not create transaction: storage failure", "user_id", userID, "err", err)
		return Transaction{}, err
	}

	// 5. Account-boundary check on the resulting balance.
	if err := e.bounds.CheckResultingBalance(value, balance+value); err != nil {
		e.log.Warn("could not create transaction: account boundary exceeded",
			"user_id", userID, "value", value, "balance", balance)
		return Transaction{}, err
	}

	// 6. Commit atomically. Not retried.
	tx, err := e.store.AppendTransaction(ctx, userID, value)
	if err != nil {
		e.log.Error("could not create transaction: storage failure", "user_id", userID, "err", err)
		return Transaction{}, &StorageError{Op: "append transaction", Err: err}
	}

	e.log.Info("transaction created", "id", tx.ID, "user_id", tx.UserID, "value", tx.Value)
	return tx, nil
}

// CreateUser persists a new user. A name-uniqueness conflict yields
// DuplicateUserError and writes nothing.
func (e *Engine) CreateUser(ctx context.Context, name, mailAddress string) (User, error) {
	if name == "" {
		e.log.Warn("could not create user: name missing")
		return User{}, ErrNameMissing
	}

	user, err := e.store.CreateUser(ctx, name, mailAddress)
	if err != nil {
		if errors.Is(err, ErrDuplicateUser) {
			e.log.Warn("could not create duplicate user", "name", name)
			return User{}, &DuplicateUserError{Name: name}
		}
		e.log.Error("could not create user: storage failure", "name", name, "err", err)
		return User{}, &StorageError{Op: "create user", Err: err}
	}

	e.log.Info("user created", "user_id", user.ID, "name", user.Name)
	return user, nil
}
