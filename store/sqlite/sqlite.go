/*
Package sqlite provides the SQLite-backed implementation of ledger.Store.

PURPOSE:
  Durable persistence for users and transactions. In production the same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

APPEND-ONLY ENFORCEMENT:
  - No UPDATE statements on the transactions table
  - No DELETE statements on the transactions table
  - Balance is never stored; it is a SUM over this table

KEY TABLES:
  users:         id, unique name, optional mail address, create date, active
  transactions:  immutable ledger of all balance changes

CONSTRAINTS THAT BACK ENGINE SEMANTICS:
  - UNIQUE index on users.name  -> ledger.ErrDuplicateUser
  - FOREIGN KEY transactions.user_id -> referential integrity

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on the shared handle. SQLite is opened
  in WAL mode: multiple readers don't block, single writer at a time. The
  engine additionally serializes posts per user.

USAGE:
  store, err := sqlite.New("./data/tally.db")  // ":memory:" for tests
  if err != nil { ... }
  defer store.Close()
  engine := ledger.NewEngine(store, bounds, logger)
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/tally/ledger-engine/ledger"
)

// Store implements ledger.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a SQLite store at the given path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// One pooled connection: with ":memory:" every additional connection
	// would open its own private, schema-less database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		mail_address TEXT,
		create_date TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1
	);

	-- Transactions (append-only ledger)
	CREATE TABLE IF NOT EXISTS transactions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id),
		value INTEGER NOT NULL,
		create_date TEXT NOT NULL
	);

	-- Balance calculation (hot path)
	CREATE INDEX IF NOT EXISTS idx_transactions_user
		ON transactions(user_id);

	-- Day-metrics range scans
	CREATE INDEX IF NOT EXISTS idx_transactions_create_date
		ON transactions(create_date);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// USERS
// =============================================================================

func (s *Store) CreateUser(ctx context.Context, name, mailAddress string) (ledger.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (name, mail_address, create_date, active) VALUES (?, ?, ?, 1)",
		name, nullString(mailAddress), now.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ledger.User{}, ledger.ErrDuplicateUser
		}
		return ledger.User{}, fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return ledger.User{}, fmt.Errorf("failed to read user id: %w", err)
	}

	return ledger.User{
		ID:          id,
		Name:        name,
		MailAddress: mailAddress,
		CreateDate:  now,
		Active:      true,
	}, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (*ledger.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, mail_address, create_date, active FROM users WHERE id = ?", id)

	user, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Store) ListUsers(ctx context.Context, limit, offset *int) ([]ledger.User, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, mail_address, create_date, active FROM users ORDER BY id ASC LIMIT ? OFFSET ?",
		sqlLimit(limit), sqlOffset(offset))
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	users := []ledger.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		users = append(users, *user)
	}
	return users, count, rows.Err()
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func (s *Store) AppendTransaction(ctx context.Context, userID, value int64) (ledger.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO transactions (user_id, value, create_date) VALUES (?, ?, ?)",
		userID, value, now.Format(time.RFC3339),
	)
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("failed to append transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return ledger.Transaction{}, fmt.Errorf("failed to read transaction id: %w", err)
	}

	return ledger.Transaction{ID: id, UserID: userID, Value: value, CreateDate: now}, nil
}

func (s *Store) GetTransaction(ctx context.Context, id int64) (*ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, value, create_date FROM transactions WHERE id = ?", id)

	tx, err := scanTransaction(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, limit, offset *int) ([]ledger.Transaction, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions").Scan(&count); err != nil {
		return nil, 0, err
	}

	txs, err := s.queryTransactions(ctx,
		"SELECT id, user_id, value, create_date FROM transactions ORDER BY id ASC LIMIT ? OFFSET ?",
		sqlLimit(limit), sqlOffset(offset))
	return txs, count, err
}

func (s *Store) ListUserTransactions(ctx context.Context, userID int64, limit, offset *int) ([]ledger.Transaction, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transactions WHERE user_id = ?", userID).Scan(&count); err != nil {
		return nil, 0, err
	}

	txs, err := s.queryTransactions(ctx,
		"SELECT id, user_id, value, create_date FROM transactions WHERE user_id = ? ORDER BY id ASC LIMIT ? OFFSET ?",
		userID, sqlLimit(limit), sqlOffset(offset))
	return txs, count, err
}

func (s *Store) CountTransactions(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transactions").Scan(&count)
	return count, err
}

// =============================================================================
// AGGREGATES
// =============================================================================

func (s *Store) UserBalance(ctx context.Context, userID int64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var balance int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(value), 0) FROM transactions WHERE user_id = ?", userID).Scan(&balance)
	return balance, err
}

func (s *Store) LastTransactionTime(ctx context.Context, userID int64) (*time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var createDate string
	err := s.db.QueryRowContext(ctx,
		"SELECT create_date FROM transactions WHERE user_id = ? ORDER BY create_date DESC, id DESC LIMIT 1",
		userID).Scan(&createDate)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	at, err := time.Parse(time.RFC3339, createDate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse create_date: %w", err)
	}
	return &at, nil
}

func (s *Store) GlobalBalance(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var balance int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(value), 0) FROM transactions").Scan(&balance)
	return balance, err
}

func (s *Store) DayMetrics(ctx context.Context, day time.Time) (ledger.DayMetrics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := ledger.StartOfDay(day)
	end := start.Add(24 * time.Hour)

	metrics := ledger.DayMetrics{Date: start}
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(DISTINCT user_id),
		       COALESCE(SUM(value), 0),
		       COALESCE(SUM(CASE WHEN value > 0 THEN value ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN value < 0 THEN value ELSE 0 END), 0)
		FROM transactions
		WHERE create_date >= ? AND create_date < ?`,
		start.Format(time.RFC3339), end.Format(time.RFC3339),
	).Scan(&metrics.Count, &metrics.DistinctUserCount, &metrics.DayBalance,
		&metrics.PositiveSum, &metrics.NegativeSum)
	if err != nil {
		return ledger.DayMetrics{}, err
	}
	return metrics, nil
}

// =============================================================================
// HELPERS
// =============================================================================

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*ledger.User, error) {
	var (
		user        ledger.User
		mailAddress sql.NullString
		createDate  string
	)
	if err := row.Scan(&user.ID, &user.Name, &mailAddress, &createDate, &user.Active); err != nil {
		return nil, err
	}
	user.MailAddress = mailAddress.String
	user.CreateDate, _ = time.Parse(time.RFC3339, createDate)
	return &user, nil
}

func scanTransaction(row rowScanner) (*ledger.Transaction, error) {
	var (
		tx         ledger.Transaction
		createDate string
	)
	if err := row.Scan(&tx.ID, &tx.UserID, &tx.Value, &createDate); err != nil {
		return nil, err
	}
	tx.CreateDate, _ = time.Parse(time.RFC3339, createDate)
	return &tx, nil
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]ledger.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	txs := []ledger.Transaction{}
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, *tx)
	}
	return txs, rows.Err()
}

// sqlLimit maps a nil limit to SQLite's "no limit" marker.
func sqlLimit(limit *int) int {
	if limit == nil {
		return -1
	}
	return *limit
}

func sqlOffset(offset *int) int {
	if offset == nil {
		return 0
	}
	return *offset
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
