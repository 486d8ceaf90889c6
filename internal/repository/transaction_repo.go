// internal/repository/transaction_repo.go
package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"finance-tracker/internal/criteria"
	"finance-tracker/internal/domain"
)

// TransactionRepository defines the interface for transaction data operations.
// Every method runs on the DBExecutor it is given.
type TransactionRepository interface {
	// CreateTransaction inserts transaction and fills in its ID.
	CreateTransaction(ctx context.Context, q DBExecutor, transaction *domain.Transaction) error
	// GetTransactionByID returns util.ErrNotFound when no row has the given id.
	GetTransactionByID(ctx context.Context, q DBExecutor, id int64) (*domain.Transaction, error)
	// UpdateTransactionIfVersion writes the mutable fields of transaction only if the stored
	// version equals expectedVersion, then sets transaction.Version to the new version.
	// It returns util.ErrConflict when the version moved and util.ErrNotFound when the row is gone.
	UpdateTransactionIfVersion(ctx context.Context, q DBExecutor, transaction *domain.Transaction, expectedVersion int64) error
	// DeleteTransaction returns the removed row, or util.ErrNotFound when no row has the given id.
	DeleteTransaction(ctx context.Context, q DBExecutor, id int64) (*domain.Transaction, error)
	// ListTransactionsByAccount returns every transaction of the account in store order.
	ListTransactionsByAccount(ctx context.Context, q DBExecutor, accountName string) ([]domain.Transaction, error)
	// AccountHasTransactions reports whether the account has at least one transaction.
	AccountHasTransactions(ctx context.Context, q DBExecutor, accountName string) (bool, error)
	// FindTransactions returns one page of matching transactions and the total match count.
	FindTransactions(ctx context.Context, q DBExecutor, preds []criteria.Predicate, page criteria.PageRequest) ([]domain.Transaction, int64, error)
	// SumAmount returns the exact sum of amounts of matching transactions, zero when none match.
	SumAmount(ctx context.Context, q DBExecutor, preds []criteria.Predicate) (decimal.Decimal, error)
}
