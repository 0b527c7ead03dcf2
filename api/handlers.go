/*
handlers.go - HTTP API handlers for the tally ledger service

PURPOSE:
  Exposes the ledger engine via REST. Handles HTTP request/response and JSON
  serialization, then delegates to the engine and accumulator. No business
  rule lives here - the handlers only translate.

ENDPOINTS:
  GET  /settings                              Configured boundaries
  GET  /metrics                               Reporting snapshot for today
  GET  /user                                  List users (paged)
  POST /user                                  Create user
  GET  /user/{userId}                         User with transaction history
  GET  /user/{userId}/transaction             User's transactions (paged)
  POST /user/{userId}/transaction             Post a transaction
  GET  /user/{userId}/transaction/{txId}      Single transaction
  GET  /transaction                           All transactions (paged)

ERROR HANDLING:
  Engine error kinds map deterministically to statuses:
  - 400: missing/unparsable/zero values, bad paging input
  - 403: transaction or account boundary violations
  - 404: unknown user or transaction
  - 409: duplicate user name
  - 500: persistence failure (deliberate choice over the legacy 403)
  Every error body is {"message": "..."}.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - ledger/engine.go: The logic these handlers front
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tally/ledger-engine/ledger"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for the HTTP handlers.
type Handler struct {
	Engine   *ledger.Engine
	Store    ledger.Store
	Balances *ledger.Accumulator
	Metrics  *ledger.MetricsAggregator
}

// NewHandler creates a handler around the given engine and store.
func NewHandler(engine *ledger.Engine, store ledger.Store) *Handler {
	return &Handler{
		Engine:   engine,
		Store:    store,
		Balances: ledger.NewAccumulator(store),
		Metrics:  ledger.NewMetricsAggregator(store),
	}
}

// =============================================================================
// SETTINGS AND METRICS
// =============================================================================

// GetSettings returns the configured boundaries in minor units.
// GET /settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	bounds := h.Engine.Boundaries()

	var dto SettingsDTO
	dto.Boundaries.Account = BoundaryDTO{Upper: bounds.AccountMax, Lower: bounds.AccountMin}
	dto.Boundaries.Transaction = BoundaryDTO{Upper: bounds.TransactionMax, Lower: bounds.TransactionMin}
	writeJSON(w, http.StatusOK, dto)
}

// GetMetrics returns the reporting snapshot for today (UTC).
// GET /metrics
func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.Metrics.Snapshot(r.Context(), time.Now().UTC())
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	days := make([]DayMetricsDTO, len(snapshot.Days))
	for i, day := range snapshot.Days {
		days[i] = toDayMetricsDTO(day)
	}

	writeJSON(w, http.StatusOK, MetricsDTO{
		Today:             snapshot.Today.Format("2006-01-02"),
		CountTransactions: snapshot.CountTransactions,
		OverallBalance:    snapshot.OverallBalance,
		CountUsers:        snapshot.CountUsers,
		AvgBalance:        snapshot.AvgBalance,
		Days:              days,
	})
}

// =============================================================================
// USER HANDLERS
// =============================================================================

// ListUsers returns the paged user list in ascending-id order.
// GET /user
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := h.parsePaging(w, r)
	if !ok {
		return
	}

	users, count, err := h.Store.ListUsers(r.Context(), limit, offset)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	entries := make([]UserDTO, 0, len(users))
	for _, user := range users {
		dto, err := h.toUserDTO(r, user)
		if err != nil {
			h.writeEngineError(w, err)
			return
		}
		entries = append(entries, dto)
	}

	writeJSON(w, http.StatusOK, UserListDTO{
		OverallCount: count,
		Limit:        limit,
		Offset:       offset,
		Entries:      entries,
	})
}

// CreateUser creates a new user.
// POST /user
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// An absent or malformed body is treated like an empty one: the
		// name-missing check answers both.
		req = CreateUserRequest{}
	}

	mailAddress := ""
	if req.MailAddress != nil {
		mailAddress = *req.MailAddress
	}

	user, err := h.Engine.CreateUser(r.Context(), req.Name, mailAddress)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	var mail *string
	if user.MailAddress != "" {
		mail = &user.MailAddress
	}
	writeJSON(w, http.StatusCreated, CreatedUserDTO{
		ID:          user.ID,
		Name:        user.Name,
		MailAddress: mail,
		Balance:     0,
	})
}

// GetUser returns a user with derived balance and full transaction history.
// GET /user/{userId}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, ok := h.resolveUser(w, r)
	if !ok {
		return
	}

	ctx := r.Context()
	balance, err := h.Balances.CurrentBalance(ctx, user.ID)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	lastTx, err := h.Balances.LastTransaction(ctx, user.ID)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	txs, _, err := h.Store.ListUserTransactions(ctx, user.ID, nil, nil)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, UserDetailDTO{
		ID:              user.ID,
		Name:            user.Name,
		Balance:         balance,
		LastTransaction: formatTimePtr(lastTx),
		Transactions:    toTransactionDTOs(txs),
	})
}

// =============================================================================
// TRANSACTION HANDLERS
// =============================================================================

// ListTransactions returns the paged global transaction list.
// GET /transaction
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	limit, offset, ok := h.parsePaging(w, r)
	if !ok {
		return
	}

	txs, count, err := h.Store.ListTransactions(r.Context(), limit, offset)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, TransactionListDTO{
		OverallCount: count,
		Limit:        limit,
		Offset:       offset,
		Entries:      toTransactionDTOs(txs),
	})
}

// ListUserTransactions returns a user's paged transaction list.
// GET /user/{userId}/transaction
func (h *Handler) ListUserTransactions(w http.ResponseWriter, r *http.Request) {
	user, ok := h.resolveUser(w, r)
	if !ok {
		return
	}
	limit, offset, ok := h.parsePaging(w, r)
	if !ok {
		return
	}

	txs, count, err := h.Store.ListUserTransactions(r.Context(), user.ID, limit, offset)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, TransactionListDTO{
		OverallCount: count,
		Limit:        limit,
		Offset:       offset,
		Entries:      toTransactionDTOs(txs),
	})
}

// PostTransaction posts a value to a user's account.
// POST /user/{userId}/transaction
func (h *Handler) PostTransaction(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := h.parseUserID(w, r)
	if !ok {
		return
	}

	raw, err := decodeRawValue(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	tx, err := h.Engine.Post(r.Context(), userID, raw)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toTransactionDTO(tx))
}

// GetUserTransaction returns a single transaction, enforcing ownership.
// GET /user/{userId}/transaction/{transactionId}
func (h *Handler) GetUserTransaction(w http.ResponseWriter, r *http.Request) {
	user, ok := h.resolveUser(w, r)
	if !ok {
		return
	}

	txParam := chi.URLParam(r, "transactionId")
	txID, err := strconv.ParseInt(txParam, 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("transaction %s not found", txParam))
		return
	}

	tx, err := h.Store.GetTransaction(r.Context(), txID)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	if tx == nil || tx.UserID != user.ID {
		writeError(w, http.StatusNotFound, fmt.Sprintf("transaction %s not found", txParam))
		return
	}

	writeJSON(w, http.StatusOK, toTransactionDTO(*tx))
}

// =============================================================================
// REQUEST PARSING
// =============================================================================

// decodeRawValue extracts the raw transaction value from the request body.
// The value may arrive as a JSON number or a string; both are handed to the
// engine's parser verbatim.
func decodeRawValue(r *http.Request) (string, error) {
	var req struct {
		Value any `json:"value"`
	}
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		return "", errors.New("Error parsing json")
	}

	switch v := req.Value.(type) {
	case nil:
		return "", ledger.ErrValueMissing
	case string:
		return v, nil
	case json.Number:
		return v.String(), nil
	default:
		return "", &ledger.InvalidValueError{Raw: fmt.Sprintf("%v", v)}
	}
}

// parseUserID reads the userId path parameter. An unparsable id behaves like
// an unknown user.
func (h *Handler) parseUserID(w http.ResponseWriter, r *http.Request) (int64, string, bool) {
	param := chi.URLParam(r, "userId")
	id, err := strconv.ParseInt(param, 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("user %s not found", param))
		return 0, param, false
	}
	return id, param, true
}

// resolveUser loads the user addressed by the path or writes a 404.
func (h *Handler) resolveUser(w http.ResponseWriter, r *http.Request) (*ledger.User, bool) {
	id, param, ok := h.parseUserID(w, r)
	if !ok {
		return nil, false
	}

	user, err := h.Store.GetUser(r.Context(), id)
	if err != nil {
		h.writeEngineError(w, err)
		return nil, false
	}
	if user == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("user %s not found", param))
		return nil, false
	}
	return user, true
}

// parsePaging reads optional limit/offset query parameters. Absent values
// stay nil so the envelope can echo them back as null.
func (h *Handler) parsePaging(w http.ResponseWriter, r *http.Request) (limit, offset *int, ok bool) {
	limit, err := parseOptionalInt(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return nil, nil, false
	}
	offset, err = parseOptionalInt(r, "offset")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid offset")
		return nil, nil, false
	}
	return limit, offset, true
}

func parseOptionalInt(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return nil, fmt.Errorf("invalid %s", name)
	}
	return &value, nil
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func (h *Handler) toUserDTO(r *http.Request, user ledger.User) (UserDTO, error) {
	balance, err := h.Balances.CurrentBalance(r.Context(), user.ID)
	if err != nil {
		return UserDTO{}, err
	}
	lastTx, err := h.Balances.LastTransaction(r.Context(), user.ID)
	if err != nil {
		return UserDTO{}, err
	}
	return UserDTO{
		ID:              user.ID,
		Name:            user.Name,
		Balance:         balance,
		LastTransaction: formatTimePtr(lastTx),
	}, nil
}

// writeEngineError maps ledger error kinds to HTTP statuses.
func (h *Handler) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case ledger.IsInvalidInput(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case ledger.IsBoundaryViolation(err):
		writeError(w, http.StatusForbidden, err.Error())
	case ledger.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ledger.ErrDuplicateUser):
		writeError(w, http.StatusConflict, err.Error())
	default:
		// Persistence failures map to 500, not the legacy 403.
		writeError(w, http.StatusInternalServerError, "database error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorDTO{Message: message})
}
