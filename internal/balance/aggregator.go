// internal/balance/aggregator.go
package balance

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"finance-tracker/internal/criteria"
	"finance-tracker/internal/repository"
	"finance-tracker/internal/util"
)

// Aggregator sums transaction amounts in the store. Callers pass the executor
// so a sum can share a database transaction with a paired listing query.
type Aggregator struct {
	repo repository.TransactionRepository
}

// NewAggregator creates an Aggregator over repo.
func NewAggregator(repo repository.TransactionRepository) *Aggregator {
	return &Aggregator{repo: repo}
}

// AccountAsOf returns the balance of accountName including every transaction
// created on or before date. An account that never had a transaction is
// util.ErrNotFound, while a known account with nothing up to date is zero.
func (a *Aggregator) AccountAsOf(ctx context.Context, q repository.DBExecutor, accountName string, date time.Time) (decimal.Decimal, error) {
	exists, err := a.repo.AccountHasTransactions(ctx, q, accountName)
	if err != nil {
		return decimal.Zero, fmt.Errorf("account balance: %w", err)
	}
	if !exists {
		return decimal.Zero, fmt.Errorf("no transactions found for account: %s: %w", accountName, util.ErrNotFound)
	}

	total, err := a.repo.SumAmount(ctx, q, criteria.AccountAsOf(accountName, date))
	if err != nil {
		return decimal.Zero, fmt.Errorf("account balance: %w", err)
	}
	return total, nil
}

// ByCriteria returns the sum of amounts over every transaction matching preds.
func (a *Aggregator) ByCriteria(ctx context.Context, q repository.DBExecutor, preds []criteria.Predicate) (decimal.Decimal, error) {
	total, err := a.repo.SumAmount(ctx, q, preds)
	if err != nil {
		return decimal.Zero, fmt.Errorf("criteria balance: %w", err)
	}
	return total, nil
}
