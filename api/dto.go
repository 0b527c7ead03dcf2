/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupling the domain model from
  the wire contract. Field names follow the original service payloads
  (camelCase, e.g. mailAddress, lastTransaction, overallCount).

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

NULLABILITY:
  The paged-list envelope echoes limit/offset back as null when the client
  did not send them, and lastTransaction is null for users without history.
  Pointers carry that tri-state through encoding/json.
*/
package api

import (
	"time"

	"github.com/tally/ledger-engine/ledger"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// CreateUserRequest is the request to create a user.
type CreateUserRequest struct {
	Name        string  `json:"name"`
	MailAddress *string `json:"mailAddress"`
}

// CreatedUserDTO is the response after creating a user. Balance is zero and
// lastTransaction null by construction.
type CreatedUserDTO struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	MailAddress     *string `json:"mailAddress"`
	Balance         int64   `json:"balance"`
	LastTransaction *string `json:"lastTransaction"`
}

// UserDTO represents a user in list responses. Balance and lastTransaction
// are derived from the transaction history at call time.
type UserDTO struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Balance         int64   `json:"balance"`
	LastTransaction *string `json:"lastTransaction"`
}

// UserDetailDTO is a user plus their full transaction history.
type UserDetailDTO struct {
	ID              int64            `json:"id"`
	Name            string           `json:"name"`
	Balance         int64            `json:"balance"`
	LastTransaction *string          `json:"lastTransaction"`
	Transactions    []TransactionDTO `json:"transactions"`
}

// TransactionDTO represents a committed ledger transaction.
type TransactionDTO struct {
	ID         int64  `json:"id"`
	UserID     int64  `json:"userId"`
	Value      int64  `json:"value"`
	CreateDate string `json:"createDate"`
}

// UserListDTO is the paged-list envelope for users.
type UserListDTO struct {
	OverallCount int       `json:"overallCount"`
	Limit        *int      `json:"limit"`
	Offset       *int      `json:"offset"`
	Entries      []UserDTO `json:"entries"`
}

// TransactionListDTO is the paged-list envelope for transactions.
type TransactionListDTO struct {
	OverallCount int              `json:"overallCount"`
	Limit        *int             `json:"limit"`
	Offset       *int             `json:"offset"`
	Entries      []TransactionDTO `json:"entries"`
}

// BoundaryDTO is one inclusive min/max pair, in minor currency units.
type BoundaryDTO struct {
	Upper int64 `json:"upper"`
	Lower int64 `json:"lower"`
}

// SettingsDTO exposes the configured boundaries.
type SettingsDTO struct {
	Boundaries struct {
		Account     BoundaryDTO `json:"account"`
		Transaction BoundaryDTO `json:"transaction"`
	} `json:"boundaries"`
}

// DayMetricsDTO is the aggregate for one calendar day.
type DayMetricsDTO struct {
	Date              string `json:"date"`
	Count             int    `json:"count"`
	DistinctUserCount int    `json:"distinctUserCount"`
	DayBalance        int64  `json:"dayBalance"`
	PositiveSum       int64  `json:"positiveSum"`
	NegativeSum       int64  `json:"negativeSum"`
}

// MetricsDTO is the reporting snapshot for today.
type MetricsDTO struct {
	Today             string          `json:"today"`
	CountTransactions int             `json:"countTransactions"`
	OverallBalance    int64           `json:"overallBalance"`
	CountUsers        int             `json:"countUsers"`
	AvgBalance        int64           `json:"avgBalance"`
	Days              []DayMetricsDTO `json:"days"`
}

// ErrorDTO is the standard error payload.
type ErrorDTO struct {
	Message string `json:"message"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toTransactionDTO(tx ledger.Transaction) TransactionDTO {
	return TransactionDTO{
		ID:         tx.ID,
		UserID:     tx.UserID,
		Value:      tx.Value,
		CreateDate: tx.CreateDate.Format(time.RFC3339),
	}
}

func toTransactionDTOs(txs []ledger.Transaction) []TransactionDTO {
	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = toTransactionDTO(tx)
	}
	return dtos
}

func toDayMetricsDTO(day ledger.DayMetrics) DayMetricsDTO {
	return DayMetricsDTO{
		Date:              day.Date.Format("2006-01-02"),
		Count:             day.Count,
		DistinctUserCount: day.DistinctUserCount,
		DayBalance:        day.DayBalance,
		PositiveSum:       day.PositiveSum,
		NegativeSum:       day.NegativeSum,
	}
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
