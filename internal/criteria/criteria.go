// internal/criteria/criteria.go
package criteria

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Field names a filterable transaction attribute.
type Field string

const (
	FieldID          Field = "id"
	FieldAccountName Field = "account_name"
	FieldAmount      Field = "amount"
	FieldCategory    Field = "category"
	FieldDescription Field = "description"
	FieldCreatedAt   Field = "created_at"
	FieldUpdatedAt   Field = "updated_at"
)

// Operator is the comparison a Predicate applies to its Field.
type Operator string

const (
	OpEq           Operator = "eq"            // exact equality
	OpGTE          Operator = "gte"           // inclusive lower bound
	OpLTE          Operator = "lte"           // inclusive upper bound
	OpDateGTE      Operator = "date_gte"      // calendar date of a timestamp >= value
	OpDateLTE      Operator = "date_lte"      // calendar date of a timestamp <= value
	OpContainsFold Operator = "contains_fold" // case-insensitive substring
)

// Predicate is one condition of a conjunctive filter.
// Value is a string, a decimal.Decimal or a time.Time (UTC midnight for date operators).
type Predicate struct {
	Field Field
	Op    Operator
	Value any
}

// Filter is the sparse search input. Nil fields do not constrain the result.
type Filter struct {
	AccountName *string
	MinAmount   *decimal.Decimal
	MaxAmount   *decimal.Decimal
	FromDate    *time.Time
	ToDate      *time.Time
	Category    *string
	Description *string
}

// Build turns f into predicates; each present field contributes exactly one.
// An empty filter yields no predicates and therefore matches every row.
// FromDate after ToDate is not rejected: the intersection is simply empty.
func Build(f Filter) []Predicate {
	preds := make([]Predicate, 0, 7)

	if f.AccountName != nil {
		preds = append(preds, Predicate{Field: FieldAccountName, Op: OpEq, Value: *f.AccountName})
	}
	if f.MinAmount != nil {
		preds = append(preds, Predicate{Field: FieldAmount, Op: OpGTE, Value: *f.MinAmount})
	}
	if f.MaxAmount != nil {
		preds = append(preds, Predicate{Field: FieldAmount, Op: OpLTE, Value: *f.MaxAmount})
	}
	if f.FromDate != nil {
		preds = append(preds, Predicate{Field: FieldCreatedAt, Op: OpDateGTE, Value: DateOf(*f.FromDate)})
	}
	if f.ToDate != nil {
		preds = append(preds, Predicate{Field: FieldCreatedAt, Op: OpDateLTE, Value: DateOf(*f.ToDate)})
	}
	if f.Category != nil {
		preds = append(preds, Predicate{Field: FieldCategory, Op: OpEq, Value: *f.Category})
	}
	if f.Description != nil {
		preds = append(preds, Predicate{Field: FieldDescription, Op: OpContainsFold, Value: strings.ToLower(*f.Description)})
	}

	return preds
}

// AccountAsOf returns the predicates of an account balance up to and including date.
func AccountAsOf(accountName string, date time.Time) []Predicate {
	return []Predicate{
		{Field: FieldAccountName, Op: OpEq, Value: accountName},
		{Field: FieldCreatedAt, Op: OpDateLTE, Value: DateOf(date)},
	}
}

// DateOf drops the time-of-day of t, keeping its calendar date as UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
