// internal/api/handler/params.go
package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"finance-tracker/internal/criteria"
	"finance-tracker/internal/util"
)

// paramError reports a path or query parameter that could not be parsed.
type paramError struct {
	name string
}

func invalidParam(name string) error {
	return &paramError{name: name}
}

func (e *paramError) Error() string {
	return "invalid parameter: " + e.name
}

func (e *paramError) Unwrap() error {
	return util.ErrInvalidInput
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, invalidParam("id")
	}
	return id, nil
}

func pathString(r *http.Request, name string) (string, error) {
	v, err := url.PathUnescape(chi.URLParam(r, name))
	if err != nil {
		return "", invalidParam(name)
	}
	return v, nil
}

// queryString returns nil for an absent or blank parameter.
func queryString(q url.Values, name string) *string {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return nil
	}
	return &v
}

func queryInt(q url.Values, name string, def int) (int, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, invalidParam(name)
	}
	return n, nil
}

func queryDecimal(q url.Values, name string) (*decimal.Decimal, error) {
	v := queryString(q, name)
	if v == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*v)
	if err != nil {
		return nil, invalidParam(name)
	}
	return &d, nil
}

// queryDate parses a YYYY-MM-DD parameter as UTC midnight.
func queryDate(q url.Values, name string) (*time.Time, error) {
	v := queryString(q, name)
	if v == nil {
		return nil, nil
	}
	t, err := time.ParseInLocation(time.DateOnly, *v, time.UTC)
	if err != nil {
		return nil, invalidParam(name)
	}
	return &t, nil
}

func parseFilter(q url.Values) (criteria.Filter, error) {
	f := criteria.Filter{
		AccountName: queryString(q, "account_name"),
		Category:    queryString(q, "category"),
		Description: queryString(q, "description"),
	}

	var err error
	if f.MinAmount, err = queryDecimal(q, "min_amount"); err != nil {
		return f, err
	}
	if f.MaxAmount, err = queryDecimal(q, "max_amount"); err != nil {
		return f, err
	}
	if f.FromDate, err = queryDate(q, "from_date"); err != nil {
		return f, err
	}
	if f.ToDate, err = queryDate(q, "to_date"); err != nil {
		return f, err
	}
	return f, nil
}
