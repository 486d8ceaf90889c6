// internal/api/handler/transaction.go
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"finance-tracker/internal/api/types"
	"finance-tracker/internal/criteria"
	"finance-tracker/internal/domain"
	"finance-tracker/internal/service"
	"finance-tracker/internal/util" // For custom errors
)

// DefaultTimeout bounds a request when no timeout is configured.
const DefaultTimeout = 30 * time.Second

// TransactionHandler handles HTTP requests related to transactions and balances.
type TransactionHandler struct {
	service service.TransactionService
	logger  *slog.Logger
	now     func() time.Time
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(svc service.TransactionService, logger *slog.Logger) *TransactionHandler {
	return &TransactionHandler{
		service: svc,
		logger:  logger,
		now:     time.Now,
	}
}

// Helper function to send JSON responses.
func (h *TransactionHandler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// Helper function to send error responses.
func (h *TransactionHandler) respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode := http.StatusInternalServerError
	body := types.ErrorResponse{Error: "Internal server error"}

	var verr *util.ValidationError
	switch {
	case errors.As(err, &verr):
		statusCode = http.StatusBadRequest
		body = types.ErrorResponse{Error: verr.Error(), Fields: verr.Fields}
	case util.IsError(err, util.ErrInvalidInput):
		statusCode = http.StatusBadRequest
		body.Error = err.Error() // Use the error message directly for invalid input
	case util.IsError(err, util.ErrNotFound):
		statusCode = http.StatusNotFound
		body.Error = err.Error()
	case util.IsError(err, util.ErrConflict):
		statusCode = http.StatusConflict
		body.Error = "Transaction was modified concurrently, reload and retry"
	default:
		h.logger.ErrorContext(r.Context(), "Unhandled service error", "method", r.Method, "path", r.URL.Path, "error", err)
	}

	h.respondWithJSON(w, statusCode, body)
}

// TransactionRequest represents the request body for create and update.
type TransactionRequest struct {
	AccountName string           `json:"account_name"`
	Amount      *decimal.Decimal `json:"amount"`
	Category    string           `json:"category"`
	Description *string          `json:"description,omitempty"`
	Version     *int64           `json:"version,omitempty"` // update only
}

func (req TransactionRequest) toInput() domain.TransactionInput {
	return domain.TransactionInput{
		AccountName: req.AccountName,
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
		Version:     req.Version,
	}
}

func decodeTransactionRequest(r *http.Request) (TransactionRequest, error) {
	var req TransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, invalidParam("body")
	}
	return req, nil
}

// CreateTransaction handles the add transaction request.
// POST /transactions
func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	req, err := decodeTransactionRequest(r)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	transaction, err := h.service.AddTransaction(r.Context(), req.toInput())
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	h.respondWithJSON(w, http.StatusCreated, transaction)
}

// GetTransaction handles the get transaction request.
// GET /transactions/{id}
func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	transaction, err := h.service.GetTransaction(r.Context(), id)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, transaction)
}

// UpdateTransaction handles the update transaction request.
// PUT /transactions/{id}
func (h *TransactionHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	req, err := decodeTransactionRequest(r)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	transaction, err := h.service.UpdateTransaction(r.Context(), id, req.toInput())
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, transaction)
}

// DeleteTransaction handles the delete transaction request.
// DELETE /transactions/{id}
func (h *TransactionHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	if err := h.service.DeleteTransaction(r.Context(), id); err != nil {
		h.respondWithError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetTransactionsByAccount handles the list-by-account request.
// GET /transactions/account/{accountName}
func (h *TransactionHandler) GetTransactionsByAccount(w http.ResponseWriter, r *http.Request) {
	accountName, err := pathString(r, "accountName")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	transactions, err := h.service.GetTransactionsByAccount(r.Context(), accountName)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	if transactions == nil {
		transactions = []domain.Transaction{}
	}

	h.respondWithJSON(w, http.StatusOK, transactions)
}

// GetBalance handles the account balance request. Without a date the
// balance is as of today (UTC).
// GET /transactions/balance/{accountName}?date=YYYY-MM-DD
func (h *TransactionHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	accountName, err := pathString(r, "accountName")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	date, err := queryDate(r.URL.Query(), "date")
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	asOf := h.now().UTC()
	if date != nil {
		asOf = *date
	}

	total, err := h.service.CalculateBalance(r.Context(), accountName, &asOf)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	h.respondWithJSON(w, http.StatusOK, types.BalanceResponse{
		AccountName: accountName,
		Date:        asOf.Format(time.DateOnly),
		Balance:     total.StringFixed(2),
	})
}

// SearchTransactions handles the filtered, paginated search request.
// GET /transactions?account_name=&min_amount=&max_amount=&from_date=&to_date=&category=&description=&page=&size=&sort_by=&sort_dir=
func (h *TransactionHandler) SearchTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter, err := parseFilter(q)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	page, err := queryInt(q, "page", 0)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	size, err := queryInt(q, "size", criteria.DefaultPageSize)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	result, err := h.service.SearchTransactions(r.Context(), filter, page, size, q.Get("sort_by"), q.Get("sort_dir"))
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	items := result.Items
	if items == nil {
		items = []domain.Transaction{}
	}
	h.respondWithJSON(w, http.StatusOK, types.SearchResponse{
		Transactions: items,
		TotalRecords: result.TotalCount,
		TotalBalance: result.TotalAmount,
		Page:         result.Page.Page,
		Size:         result.Page.Size,
	})
}
