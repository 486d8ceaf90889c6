// internal/api/types/response.go
package types

import (
	"github.com/shopspring/decimal"

	"finance-tracker/internal/domain"
	"finance-tracker/internal/util"
)

// SearchResponse is one page of a transaction search. TotalRecords and
// TotalBalance cover every match, not only the returned page.
type SearchResponse struct {
	Transactions []domain.Transaction `json:"transactions"`
	TotalRecords int64                `json:"total_records"`
	TotalBalance decimal.Decimal      `json:"total_balance"`
	Page         int                  `json:"page"`
	Size         int                  `json:"size"`
}

// BalanceResponse reports an account balance as of the end of Date.
type BalanceResponse struct {
	AccountName string `json:"account_name"`
	Date        string `json:"date"`    // YYYY-MM-DD
	Balance     string `json:"balance"` // two decimal places
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields []util.FieldError `json:"fields,omitempty"`
}
