// internal/domain/transaction.go
package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal" // For precise monetary calculations

	"finance-tracker/internal/util"
)

// Transaction is a single income (positive amount) or expense (negative amount)
// recorded against an account.
type Transaction struct {
	ID          int64           `db:"id" json:"id"`                             // Primary key, BIGSERIAL in DB
	AccountName string          `db:"account_name" json:"account_name"`         // Owning account, accounts are implicit
	Amount      decimal.Decimal `db:"amount" json:"amount"`                     // NUMERIC in DB
	Category    string          `db:"category" json:"category"`                 // Free-form category
	Description *string         `db:"description" json:"description,omitempty"` // Optional description
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`             // Set once on creation
	UpdatedAt   *time.Time      `db:"updated_at" json:"updated_at,omitempty"`   // Set on every successful update
	Version     int64           `db:"version" json:"version"`                   // Optimistic concurrency stamp
}

// TransactionInput carries the client-replaceable fields of a transaction.
// Version is only meaningful for updates: when set, the update is rejected
// unless the stored version still matches it.
type TransactionInput struct {
	AccountName string
	Amount      *decimal.Decimal
	Category    string
	Description *string
	Version     *int64
}

// Validate checks the required fields and reports all missing ones at once.
func (in TransactionInput) Validate() error {
	verr := &util.ValidationError{}
	if strings.TrimSpace(in.AccountName) == "" {
		verr.Add("account_name", "Account name is required")
	}
	if in.Amount == nil {
		verr.Add("amount", "Amount is required")
	}
	if strings.TrimSpace(in.Category) == "" {
		verr.Add("category", "Category is required")
	}
	if in.Version != nil && *in.Version < 0 {
		verr.Add("version", "Version must not be negative")
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

// NewTransaction creates a new Transaction from validated input.
func NewTransaction(in TransactionInput, now time.Time) *Transaction {
	return &Transaction{
		AccountName: in.AccountName,
		Amount:      *in.Amount,
		Category:    in.Category,
		Description: in.Description,
		CreatedAt:   now.UTC(),
		Version:     0,
	}
}

// Apply replaces the mutable fields with validated input and stamps UpdatedAt.
// ID, CreatedAt and Version are left untouched; the store bumps Version.
func (t *Transaction) Apply(in TransactionInput, now time.Time) {
	updatedAt := now.UTC()
	t.AccountName = in.AccountName
	t.Amount = *in.Amount
	t.Category = in.Category
	t.Description = in.Description
	t.UpdatedAt = &updatedAt
}
