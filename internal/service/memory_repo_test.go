// internal/service/memory_repo_test.go
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"finance-tracker/internal/balance"
	"finance-tracker/internal/criteria"
	"finance-tracker/internal/domain"
	"finance-tracker/internal/repository"
	"finance-tracker/internal/util"
	"finance-tracker/pkg/db"
)

var errNoSQL = errors.New("memory store does not run SQL")

// memoryTx stands in for *sqlx.Tx. The memory store ignores the executor it is given.
type memoryTx struct{}

func (memoryTx) Commit() error   { return nil }
func (memoryTx) Rollback() error { return nil }

func (memoryTx) GetContext(context.Context, interface{}, string, ...interface{}) error { return errNoSQL }

func (memoryTx) SelectContext(context.Context, interface{}, string, ...interface{}) error {
	return errNoSQL
}

func (memoryTx) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, errNoSQL
}

func (memoryTx) QueryRowContext(context.Context, string, ...interface{}) *sql.Row { return nil }

// memoryRepository is a TransactionRepository with the same compare-and-swap
// semantics as the postgres one.
type memoryRepository struct {
	mu     sync.Mutex
	rows   map[int64]domain.Transaction
	nextID int64
	sums   int // number of SumAmount calls

	// afterRead, when set, runs after every GetTransactionByID.
	afterRead func()
}

var _ repository.TransactionRepository = (*memoryRepository)(nil)

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{rows: make(map[int64]domain.Transaction)}
}

func (r *memoryRepository) CreateTransaction(_ context.Context, _ repository.DBExecutor, transaction *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	transaction.ID = r.nextID
	r.rows[transaction.ID] = *transaction
	return nil
}

func (r *memoryRepository) GetTransactionByID(_ context.Context, _ repository.DBExecutor, id int64) (*domain.Transaction, error) {
	r.mu.Lock()
	row, ok := r.rows[id]
	r.mu.Unlock()
	if r.afterRead != nil {
		r.afterRead()
	}
	if !ok {
		return nil, util.ErrNotFound
	}
	return &row, nil
}

func (r *memoryRepository) UpdateTransactionIfVersion(_ context.Context, _ repository.DBExecutor, transaction *domain.Transaction, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[transaction.ID]
	if !ok {
		return util.ErrNotFound
	}
	if row.Version != expectedVersion {
		return fmt.Errorf("transaction %d: %w", transaction.ID, util.ErrConflict)
	}
	transaction.Version = expectedVersion + 1
	r.rows[transaction.ID] = *transaction
	return nil
}

func (r *memoryRepository) DeleteTransaction(_ context.Context, _ repository.DBExecutor, id int64) (*domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, util.ErrNotFound
	}
	delete(r.rows, id)
	return &row, nil
}

func (r *memoryRepository) ListTransactionsByAccount(_ context.Context, _ repository.DBExecutor, accountName string) ([]domain.Transaction, error) {
	return r.match([]criteria.Predicate{{Field: criteria.FieldAccountName, Op: criteria.OpEq, Value: accountName}}), nil
}

func (r *memoryRepository) AccountHasTransactions(ctx context.Context, q repository.DBExecutor, accountName string) (bool, error) {
	list, _ := r.ListTransactionsByAccount(ctx, q, accountName)
	return len(list) > 0, nil
}

func (r *memoryRepository) FindTransactions(_ context.Context, _ repository.DBExecutor, preds []criteria.Predicate, page criteria.PageRequest) ([]domain.Transaction, int64, error) {
	all := r.match(preds)
	if page.SortField != criteria.FieldAmount && page.SortField != criteria.FieldID {
		return nil, 0, fmt.Errorf("memory store sorts by id or amount only: %w", util.ErrInvalidInput)
	}
	sort.SliceStable(all, func(i, j int) bool {
		less := all[i].ID < all[j].ID
		if page.SortField == criteria.FieldAmount && !all[i].Amount.Equal(all[j].Amount) {
			less = all[i].Amount.LessThan(all[j].Amount)
		}
		if page.SortDir == criteria.SortDesc {
			return !less
		}
		return less
	})

	start := page.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + page.Size
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (r *memoryRepository) SumAmount(_ context.Context, _ repository.DBExecutor, preds []criteria.Predicate) (decimal.Decimal, error) {
	r.mu.Lock()
	r.sums++
	r.mu.Unlock()

	total := decimal.Zero
	for _, t := range r.match(preds) {
		total = total.Add(t.Amount)
	}
	return total, nil
}

func (r *memoryRepository) sumCalls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sums
}

func (r *memoryRepository) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

// setCreatedAt backdates a row so date predicates can be exercised.
func (r *memoryRepository) setCreatedAt(id int64, at time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row := r.rows[id]
	row.CreatedAt = at
	r.rows[id] = row
}

func (r *memoryRepository) match(preds []criteria.Predicate) []domain.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Transaction, 0, len(r.rows))
	for _, row := range r.rows {
		if matchesAll(row, preds) {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func matchesAll(t domain.Transaction, preds []criteria.Predicate) bool {
	for _, p := range preds {
		if !matches(t, p) {
			return false
		}
	}
	return true
}

func matches(t domain.Transaction, p criteria.Predicate) bool {
	switch p.Field {
	case criteria.FieldAccountName:
		return p.Op == criteria.OpEq && t.AccountName == p.Value.(string)
	case criteria.FieldCategory:
		return p.Op == criteria.OpEq && t.Category == p.Value.(string)
	case criteria.FieldDescription:
		return p.Op == criteria.OpContainsFold && t.Description != nil &&
			strings.Contains(strings.ToLower(*t.Description), p.Value.(string))
	case criteria.FieldAmount:
		v := p.Value.(decimal.Decimal)
		switch p.Op {
		case criteria.OpGTE:
			return t.Amount.GreaterThanOrEqual(v)
		case criteria.OpLTE:
			return t.Amount.LessThanOrEqual(v)
		case criteria.OpEq:
			return t.Amount.Equal(v)
		}
	case criteria.FieldCreatedAt:
		day := criteria.DateOf(t.CreatedAt.UTC())
		v := p.Value.(time.Time)
		switch p.Op {
		case criteria.OpDateGTE:
			return !day.Before(v)
		case criteria.OpDateLTE:
			return !day.After(v)
		}
	}
	return false
}

// newMemoryService wires a service to repo with no-op transactions.
func newMemoryService(repo *memoryRepository, cache *balance.Cache, now func() time.Time) TransactionService {
	return NewTransactionService(
		nil,
		memoryTx{},
		repo,
		cache,
		nil,
		func(context.Context, db.DBTxBeginner, *sql.TxOptions) (db.TxController, error) {
			return memoryTx{}, nil
		},
		db.CommitTx,
		db.RollbackTx,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithClock(now),
	)
}
