// internal/repository/postgres/predicates.go
package postgres

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"finance-tracker/internal/criteria"
	"finance-tracker/internal/util"
)

// columns maps criteria fields onto transactions table columns.
var columns = map[criteria.Field]string{
	criteria.FieldID:          "id",
	criteria.FieldAccountName: "account_name",
	criteria.FieldAmount:      "amount",
	criteria.FieldCategory:    "category",
	criteria.FieldDescription: "description",
	criteria.FieldCreatedAt:   "created_at",
	criteria.FieldUpdatedAt:   "updated_at",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// whereClause renders the conjunction of preds as a WHERE clause with $n
// placeholders numbered from 1. No predicates render as an empty string.
func whereClause(preds []criteria.Predicate) (string, []interface{}, error) {
	if len(preds) == 0 {
		return "", nil, nil
	}

	conds := make([]string, 0, len(preds))
	args := make([]interface{}, 0, len(preds))
	for _, p := range preds {
		col, ok := columns[p.Field]
		if !ok {
			return "", nil, fmt.Errorf("unknown filter field %q: %w", p.Field, util.ErrInvalidInput)
		}
		placeholder := "$" + strconv.Itoa(len(args)+1)

		switch p.Op {
		case criteria.OpEq:
			conds = append(conds, col+" = "+placeholder)
			args = append(args, p.Value)
		case criteria.OpGTE:
			conds = append(conds, col+" >= "+placeholder)
			args = append(args, p.Value)
		case criteria.OpLTE:
			conds = append(conds, col+" <= "+placeholder)
			args = append(args, p.Value)
		case criteria.OpDateGTE, criteria.OpDateLTE:
			date, ok := p.Value.(time.Time)
			if !ok {
				return "", nil, fmt.Errorf("filter %s on %s needs a date, got %T: %w", p.Op, p.Field, p.Value, util.ErrInvalidInput)
			}
			cmp := ">="
			if p.Op == criteria.OpDateLTE {
				cmp = "<="
			}
			conds = append(conds, fmt.Sprintf("(%s AT TIME ZONE 'UTC')::date %s %s::date", col, cmp, placeholder))
			args = append(args, date.Format(time.DateOnly))
		case criteria.OpContainsFold:
			s, ok := p.Value.(string)
			if !ok {
				return "", nil, fmt.Errorf("filter %s on %s needs a string, got %T: %w", p.Op, p.Field, p.Value, util.ErrInvalidInput)
			}
			conds = append(conds, fmt.Sprintf(`LOWER(%s) LIKE %s ESCAPE '\'`, col, placeholder))
			args = append(args, "%"+likeEscaper.Replace(strings.ToLower(s))+"%")
		default:
			return "", nil, fmt.Errorf("unknown filter operator %q: %w", p.Op, util.ErrInvalidInput)
		}
	}

	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

// orderByClause sorts by the requested column and breaks ties by id in the
// same direction so consecutive pages never overlap.
func orderByClause(page criteria.PageRequest) (string, error) {
	col, ok := columns[page.SortField]
	if !ok {
		return "", fmt.Errorf("unknown sort field %q: %w", page.SortField, util.ErrInvalidInput)
	}
	dir := "DESC"
	if page.SortDir == criteria.SortAsc {
		dir = "ASC"
	}
	if col == "id" {
		return " ORDER BY id " + dir, nil
	}
	return fmt.Sprintf(" ORDER BY %s %s, id %s", col, dir, dir), nil
}
