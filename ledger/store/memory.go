// Package store provides an in-memory ledger.Store for tests and dev.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/tally/ledger-engine/ledger"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements ledger.Store with maps and slices. Aggregates are
// computed by scanning, mirroring what the SQLite store does with SUM/COUNT.
type Memory struct {
	mu           sync.RWMutex
	users        []ledger.User
	usersByName  map[string]int64
	transactions []ledger.Transaction
	nextUserID   int64
	nextTxID     int64

	// Now is the clock for assigned timestamps; replaceable in tests.
	Now func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		usersByName: make(map[string]int64),
		nextUserID:  1,
		nextTxID:    1,
		Now:         func() time.Time { return time.Now().UTC() },
	}
}

func (m *Memory) CreateUser(_ context.Context, name, mailAddress string) (ledger.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.usersByName[name]; exists {
		return ledger.User{}, ledger.ErrDuplicateUser
	}

	user := ledger.User{
		ID:          m.nextUserID,
		Name:        name,
		MailAddress: mailAddress,
		CreateDate:  m.Now(),
		Active:      true,
	}
	m.nextUserID++
	m.users = append(m.users, user)
	m.usersByName[name] = user.ID
	return user, nil
}

func (m *Memory) GetUser(_ context.Context, id int64) (*ledger.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.users {
		if m.users[i].ID == id {
			user := m.users[i]
			return &user, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListUsers(_ context.Context, limit, offset *int) ([]ledger.User, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// users is already in ascending-id order (append-only, ids increase).
	page := paginate(m.users, limit, offset)
	result := make([]ledger.User, len(page))
	copy(result, page)
	return result, len(m.users), nil
}

func (m *Memory) CountUsers(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users), nil
}

func (m *Memory) AppendTransaction(_ context.Context, userID, value int64) (ledger.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := ledger.Transaction{
		ID:         m.nextTxID,
		UserID:     userID,
		Value:      value,
		CreateDate: m.Now(),
	}
	m.nextTxID++
	m.transactions = append(m.transactions, tx)
	return tx, nil
}

func (m *Memory) GetTransaction(_ context.Context, id int64) (*ledger.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for i := range m.transactions {
		if m.transactions[i].ID == id {
			tx := m.transactions[i]
			return &tx, nil
		}
	}
	return nil, nil
}

func (m *Memory) ListTransactions(_ context.Context, limit, offset *int) ([]ledger.Transaction, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	page := paginate(m.transactions, limit, offset)
	result := make([]ledger.Transaction, len(page))
	copy(result, page)
	return result, len(m.transactions), nil
}

func (m *Memory) ListUserTransactions(_ context.Context, userID int64, limit, offset *int) ([]ledger.Transaction, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var owned []ledger.Transaction
	for _, tx := range m.transactions {
		if tx.UserID == userID {
			owned = append(owned, tx)
		}
	}
	return paginate(owned, limit, offset), len(owned), nil
}

func (m *Memory) CountTransactions(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.transactions), nil
}

func (m *Memory) UserBalance(_ context.Context, userID int64) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var sum int64
	for _, tx := range m.transactions {
		if tx.UserID == userID {
			sum += tx.Value
		}
	}
	return sum, nil
}

func (m *Memory) LastTransactionTime(_ context.Context, userID int64) (*time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var last *ledger.Transaction
	for i := range m.transactions {
		tx := &m.transactions[i]
		if tx.UserID != userID {
			continue
		}
		// Latest create date wins; ties broken by highest id.
		if last == nil || tx.CreateDate.After(last.CreateDate) ||
			(tx.CreateDate.Equal(last.CreateDate) && tx.ID > last.ID) {
			last = tx
		}
	}
	if last == nil {
		return nil, nil
	}
	at := last.CreateDate
	return &at, nil
}

func (m *Memory) GlobalBalance(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var sum int64
	for _, tx := range m.transactions {
		sum += tx.Value
	}
	return sum, nil
}

func (m *Memory) DayMetrics(_ context.Context, day time.Time) (ledger.DayMetrics, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	start := ledger.StartOfDay(day)
	end := start.Add(24 * time.Hour)

	metrics := ledger.DayMetrics{Date: start}
	seen := make(map[int64]bool)
	for _, tx := range m.transactions {
		if tx.CreateDate.Before(start) || !tx.CreateDate.Before(end) {
			continue
		}
		metrics.Count++
		metrics.DayBalance += tx.Value
		if tx.Value > 0 {
			metrics.PositiveSum += tx.Value
		} else {
			metrics.NegativeSum += tx.Value
		}
		if !seen[tx.UserID] {
			seen[tx.UserID] = true
			metrics.DistinctUserCount++
		}
	}
	return metrics, nil
}

// paginate applies limit/offset semantics: nil offset means 0, a nil or
// negative limit means "all". Negative limits match SQLite's LIMIT -1.
func paginate[T any](items []T, limit, offset *int) []T {
	start := 0
	if offset != nil && *offset > 0 {
		start = *offset
	}
	if start > len(items) {
		start = len(items)
	}

	end := len(items)
	if limit != nil && *limit >= 0 && start+*limit < end {
		end = start + *limit
	}
	return items[start:end]
}
