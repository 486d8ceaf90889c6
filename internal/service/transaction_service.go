// internal/service/transaction_service.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finance-tracker/internal/balance"
	"finance-tracker/internal/criteria"
	"finance-tracker/internal/domain"
	"finance-tracker/internal/events"
	"finance-tracker/internal/repository"
	"finance-tracker/internal/util"
	"finance-tracker/pkg/db"
)

// TransactionService defines the interface for transaction-related business logic.
type TransactionService interface {
	AddTransaction(ctx context.Context, in domain.TransactionInput) (*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, id int64, in domain.TransactionInput) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
	GetTransaction(ctx context.Context, id int64) (*domain.Transaction, error)
	GetTransactionsByAccount(ctx context.Context, accountName string) ([]domain.Transaction, error)
	CalculateBalance(ctx context.Context, accountName string, date *time.Time) (decimal.Decimal, error)
	SearchTransactions(ctx context.Context, filter criteria.Filter, page, size int, sortBy, sortDir string) (*SearchResult, error)
}

// SearchResult is one page of a search plus aggregates over the whole match set.
type SearchResult struct {
	Items       []domain.Transaction
	TotalCount  int64
	TotalAmount decimal.Decimal
	Page        criteria.PageRequest
}

// Option customizes a transactionService.
type Option func(*transactionService)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *transactionService) { s.now = now }
}

// transactionService implements the TransactionService interface.
type transactionService struct {
	dbBeginner db.DBTxBeginner       // For starting transactions (e.g., *sqlx.DB)
	dbExecutor repository.DBExecutor // For single-statement work outside a transaction
	repo       repository.TransactionRepository
	aggregator *balance.Aggregator
	cache      *balance.Cache
	publisher  events.Publisher
	beginTx    db.BeginTxFunc
	commitTx   db.CommitTxFunc
	rollbackTx db.RollbackTxFunc
	logger     *slog.Logger
	now        func() time.Time
}

// NewTransactionService creates a new instance of TransactionService.
// The cache is owned by the caller; the service clears it after every committed change.
func NewTransactionService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	repo repository.TransactionRepository,
	cache *balance.Cache,
	publisher events.Publisher,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
	logger *slog.Logger,
	opts ...Option,
) TransactionService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &transactionService{
		dbBeginner: dbBeginner,
		dbExecutor: dbExecutor,
		repo:       repo,
		aggregator: balance.NewAggregator(repo),
		cache:      cache,
		publisher:  publisher,
		beginTx:    beginTx,
		commitTx:   commitTx,
		rollbackTx: rollbackTx,
		logger:     logger.With("component", "transaction_service"),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddTransaction validates and stores a new transaction at version 0.
func (s *transactionService) AddTransaction(ctx context.Context, in domain.TransactionInput) (*domain.Transaction, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Adding new transaction", "account_name", in.AccountName)
	transaction := domain.NewTransaction(in, s.now())
	if err := s.repo.CreateTransaction(ctx, s.dbExecutor, transaction); err != nil {
		return nil, fmt.Errorf("add transaction: %w", err)
	}

	s.cache.Clear()
	s.publish(ctx, events.TypeTransactionCreated, transaction)
	s.logger.InfoContext(ctx, "Transaction added", "transaction_id", transaction.ID)
	return transaction, nil
}

// UpdateTransaction replaces the mutable fields of transaction id. The write only
// succeeds if nobody else updated the row since it was read (or since in.Version,
// when given); otherwise util.ErrConflict is returned and nothing is written.
func (s *transactionService) UpdateTransaction(ctx context.Context, id int64, in domain.TransactionInput) (*domain.Transaction, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Updating transaction", "transaction_id", id)

	txController, err := s.beginTx(ctx, s.dbBeginner, nil)
	if err != nil {
		return nil, fmt.Errorf("update transaction: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("update transaction: transaction controller does not implement DBExecutor")
	}

	transaction, err := s.repo.GetTransactionByID(ctx, txExecutor, id)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			s.logger.WarnContext(ctx, "Transaction not found", "transaction_id", id)
			return nil, fmt.Errorf("transaction not found for id: %d: %w", id, util.ErrNotFound)
		}
		return nil, fmt.Errorf("update transaction: failed to get transaction %d: %w", id, err)
	}

	expectedVersion := transaction.Version
	if in.Version != nil && *in.Version != expectedVersion {
		s.logger.WarnContext(ctx, "Stale transaction version", "transaction_id", id,
			"expected_version", *in.Version, "stored_version", expectedVersion)
		return nil, fmt.Errorf("transaction %d is at version %d, not %d: %w", id, expectedVersion, *in.Version, util.ErrConflict)
	}

	transaction.Apply(in, s.now())
	if err := s.repo.UpdateTransactionIfVersion(ctx, txExecutor, transaction, expectedVersion); err != nil {
		switch {
		case util.IsError(err, util.ErrNotFound):
			return nil, fmt.Errorf("transaction not found for id: %d: %w", id, util.ErrNotFound)
		case util.IsError(err, util.ErrConflict):
			s.logger.WarnContext(ctx, "Concurrent update rejected", "transaction_id", id, "expected_version", expectedVersion)
			return nil, fmt.Errorf("update transaction: %w", err)
		default:
			return nil, fmt.Errorf("update transaction: failed to write transaction %d: %w", id, err)
		}
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("update transaction: failed to commit transaction: %w", err)
	}

	s.cache.Clear()
	s.publish(ctx, events.TypeTransactionUpdated, transaction)
	s.logger.InfoContext(ctx, "Transaction updated", "transaction_id", id, "version", transaction.Version)
	return transaction, nil
}

// DeleteTransaction hard-deletes transaction id.
func (s *transactionService) DeleteTransaction(ctx context.Context, id int64) error {
	s.logger.InfoContext(ctx, "Deleting transaction", "transaction_id", id)

	deleted, err := s.repo.DeleteTransaction(ctx, s.dbExecutor, id)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			s.logger.WarnContext(ctx, "Transaction not found", "transaction_id", id)
			return fmt.Errorf("transaction not found for id: %d: %w", id, util.ErrNotFound)
		}
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.cache.Clear()
	s.publish(ctx, events.TypeTransactionDeleted, deleted)
	s.logger.InfoContext(ctx, "Transaction deleted", "transaction_id", id)
	return nil
}

// GetTransaction returns transaction id.
func (s *transactionService) GetTransaction(ctx context.Context, id int64) (*domain.Transaction, error) {
	transaction, err := s.repo.GetTransactionByID(ctx, s.dbExecutor, id)
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			return nil, fmt.Errorf("transaction not found for id: %d: %w", id, util.ErrNotFound)
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return transaction, nil
}

// GetTransactionsByAccount lists every transaction of an account. An account
// without transactions yields an empty list.
func (s *transactionService) GetTransactionsByAccount(ctx context.Context, accountName string) ([]domain.Transaction, error) {
	if strings.TrimSpace(accountName) == "" {
		return nil, util.NewValidationError("account_name", "Account name is required")
	}

	s.logger.InfoContext(ctx, "Retrieving transactions for account", "account_name", accountName)
	transactions, err := s.repo.ListTransactionsByAccount(ctx, s.dbExecutor, accountName)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return transactions, nil
}

// CalculateBalance returns the balance of accountName as of the end of date
// (today when nil). Results are cached until the next committed change.
func (s *transactionService) CalculateBalance(ctx context.Context, accountName string, date *time.Time) (decimal.Decimal, error) {
	if strings.TrimSpace(accountName) == "" {
		return decimal.Zero, util.NewValidationError("account_name", "Account name is required")
	}

	asOf := criteria.DateOf(s.now().UTC())
	if date != nil {
		asOf = criteria.DateOf(*date)
	}

	key := balance.NewKey(accountName, asOf)
	total, err := s.cache.GetOrCompute(ctx, key, func(ctx context.Context) (decimal.Decimal, error) {
		s.logger.InfoContext(ctx, "Calculating balance", "account_name", accountName, "date", key.Date)
		return s.balanceAsOf(ctx, accountName, asOf)
	})
	if err != nil {
		if util.IsError(err, util.ErrNotFound) {
			s.logger.WarnContext(ctx, "Account not found when calculating balance", "account_name", accountName)
		}
		return decimal.Zero, err
	}
	return total, nil
}

func (s *transactionService) balanceAsOf(ctx context.Context, accountName string, asOf time.Time) (decimal.Decimal, error) {
	txController, err := s.beginTx(ctx, s.dbBeginner, db.ReadSnapshot)
	if err != nil {
		return decimal.Zero, fmt.Errorf("calculate balance: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return decimal.Zero, fmt.Errorf("calculate balance: transaction controller does not implement DBExecutor")
	}

	total, err := s.aggregator.AccountAsOf(ctx, txExecutor, accountName, asOf)
	if err != nil {
		return decimal.Zero, err
	}

	if err := s.commitTx(txController); err != nil {
		return decimal.Zero, fmt.Errorf("calculate balance: failed to commit transaction: %w", err)
	}
	return total, nil
}

// SearchTransactions returns one page of transactions matching filter together
// with the count and amount sum of the whole match set, read from one snapshot.
func (s *transactionService) SearchTransactions(ctx context.Context, filter criteria.Filter, page, size int, sortBy, sortDir string) (*SearchResult, error) {
	pageReq, err := criteria.NewPageRequest(page, size, sortBy, sortDir)
	if err != nil {
		return nil, err
	}
	preds := criteria.Build(filter)

	s.logger.InfoContext(ctx, "Searching transactions",
		"predicates", len(preds), "page", pageReq.Page, "size", pageReq.Size,
		"sort_field", pageReq.SortField, "sort_dir", pageReq.SortDir)

	txController, err := s.beginTx(ctx, s.dbBeginner, db.ReadSnapshot)
	if err != nil {
		return nil, fmt.Errorf("search transactions: failed to begin transaction: %w", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("search transactions: transaction controller does not implement DBExecutor")
	}

	items, totalCount, err := s.repo.FindTransactions(ctx, txExecutor, preds, pageReq)
	if err != nil {
		return nil, fmt.Errorf("search transactions: %w", err)
	}

	totalAmount, err := s.aggregator.ByCriteria(ctx, txExecutor, preds)
	if err != nil {
		return nil, fmt.Errorf("search transactions: %w", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, fmt.Errorf("search transactions: failed to commit transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Search completed", "returned", len(items), "total_count", totalCount)
	return &SearchResult{
		Items:       items,
		TotalCount:  totalCount,
		TotalAmount: totalAmount,
		Page:        pageReq,
	}, nil
}

// publish reports a committed change. Delivery failures are logged only:
// the change itself has already succeeded.
func (s *transactionService) publish(ctx context.Context, eventType events.Type, t *domain.Transaction) {
	event := events.NewEvent(eventType, t, s.now())
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish transaction event",
			"type", eventType, "transaction_id", t.ID, "error", err)
	}
}
