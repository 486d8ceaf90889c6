// internal/repository/postgres/transaction_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"finance-tracker/internal/criteria"
	"finance-tracker/internal/domain"
	"finance-tracker/internal/repository"
	"finance-tracker/internal/util"
)

const transactionColumns = `id, account_name, amount, category, description, created_at, updated_at, version`

// TransactionRepository implements repository.TransactionRepository for PostgreSQL.
type TransactionRepository struct {
	// No *sqlx.DB here: methods receive the DBExecutor to run on.
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db *sqlx.DB) repository.TransactionRepository {
	return &TransactionRepository{}
}

// CreateTransaction inserts a new transaction record using the provided DBExecutor.
// ID and Amount are read back from the stored row.
func (r *TransactionRepository) CreateTransaction(ctx context.Context, q repository.DBExecutor, transaction *domain.Transaction) error {
	query := `INSERT INTO transactions (account_name, amount, category, description, created_at, updated_at, version)
              VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id, amount`

	err := q.QueryRowContext(ctx, query,
		transaction.AccountName,
		transaction.Amount,
		transaction.Category,
		transaction.Description,
		transaction.CreatedAt,
		transaction.UpdatedAt,
		transaction.Version,
	).Scan(&transaction.ID, &transaction.Amount)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// GetTransactionByID retrieves a transaction by its ID.
func (r *TransactionRepository) GetTransactionByID(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Transaction, error) {
	var transaction domain.Transaction
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	err := q.GetContext(ctx, &transaction, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get transaction by ID %d: %w", id, err)
	}
	return &transaction, nil
}

// UpdateTransactionIfVersion is a compare-and-swap on the version column.
// Under concurrent writers the row lock makes the losing UPDATE re-check the
// version predicate against the committed row and match nothing.
func (r *TransactionRepository) UpdateTransactionIfVersion(ctx context.Context, q repository.DBExecutor, transaction *domain.Transaction, expectedVersion int64) error {
	query := `UPDATE transactions
              SET account_name = $1, amount = $2, category = $3, description = $4, updated_at = $5, version = version + 1
              WHERE id = $6 AND version = $7
              RETURNING version, amount`

	var newVersion int64
	var stored decimal.Decimal
	err := q.QueryRowContext(ctx, query,
		transaction.AccountName,
		transaction.Amount,
		transaction.Category,
		transaction.Description,
		transaction.UpdatedAt,
		transaction.ID,
		expectedVersion,
	).Scan(&newVersion, &stored)
	if err == nil {
		transaction.Version = newVersion
		transaction.Amount = stored
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to update transaction %d: %w", transaction.ID, err)
	}

	var exists bool
	if err := q.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM transactions WHERE id = $1)`, transaction.ID); err != nil {
		return fmt.Errorf("failed to check transaction %d after version mismatch: %w", transaction.ID, err)
	}
	if !exists {
		return util.ErrNotFound
	}
	return fmt.Errorf("transaction %d is no longer at version %d: %w", transaction.ID, expectedVersion, util.ErrConflict)
}

// DeleteTransaction removes a transaction by its ID and returns the row as it was.
func (r *TransactionRepository) DeleteTransaction(ctx context.Context, q repository.DBExecutor, id int64) (*domain.Transaction, error) {
	var transaction domain.Transaction
	query := `DELETE FROM transactions WHERE id = $1 RETURNING ` + transactionColumns
	if err := q.GetContext(ctx, &transaction, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete transaction %d: %w", id, err)
	}
	return &transaction, nil
}

// ListTransactionsByAccount retrieves all transactions of an account in insertion order.
func (r *TransactionRepository) ListTransactionsByAccount(ctx context.Context, q repository.DBExecutor, accountName string) ([]domain.Transaction, error) {
	transactions := []domain.Transaction{}
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE account_name = $1 ORDER BY id`
	if err := q.SelectContext(ctx, &transactions, query, accountName); err != nil {
		return nil, fmt.Errorf("failed to fetch transactions for account '%s': %w", accountName, err)
	}
	return transactions, nil
}

// AccountHasTransactions reports whether any transaction exists for the account, regardless of date.
func (r *TransactionRepository) AccountHasTransactions(ctx context.Context, q repository.DBExecutor, accountName string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM transactions WHERE account_name = $1)`
	if err := q.GetContext(ctx, &exists, query, accountName); err != nil {
		return false, fmt.Errorf("failed to check transactions for account '%s': %w", accountName, err)
	}
	return exists, nil
}

// FindTransactions retrieves one page of transactions matching preds.
// It performs two queries: one for the data and one for the total count.
func (r *TransactionRepository) FindTransactions(ctx context.Context, q repository.DBExecutor, preds []criteria.Predicate, page criteria.PageRequest) ([]domain.Transaction, int64, error) {
	where, args, err := whereClause(preds)
	if err != nil {
		return nil, 0, err
	}
	orderBy, err := orderByClause(page)
	if err != nil {
		return nil, 0, err
	}

	// Query 1: the requested page
	transactions := []domain.Transaction{}
	limitArg := len(args) + 1
	query := fmt.Sprintf(`SELECT %s FROM transactions%s%s LIMIT $%d OFFSET $%d`,
		transactionColumns, where, orderBy, limitArg, limitArg+1)
	pageArgs := append(append([]interface{}{}, args...), page.Size, page.Offset())
	if err := q.SelectContext(ctx, &transactions, query, pageArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to search transactions: %w", err)
	}

	// Query 2: the total count of matching transactions
	var totalCount int64
	if err := q.GetContext(ctx, &totalCount, `SELECT COUNT(*) FROM transactions`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count matching transactions: %w", err)
	}

	return transactions, totalCount, nil
}

// SumAmount returns the exact NUMERIC sum of matching amounts.
func (r *TransactionRepository) SumAmount(ctx context.Context, q repository.DBExecutor, preds []criteria.Predicate) (decimal.Decimal, error) {
	where, args, err := whereClause(preds)
	if err != nil {
		return decimal.Zero, err
	}

	var total decimal.Decimal
	if err := q.GetContext(ctx, &total, `SELECT COALESCE(SUM(amount), 0) FROM transactions`+where, args...); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum transaction amounts: %w", err)
	}
	return total, nil
}
