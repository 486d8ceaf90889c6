// internal/criteria/page.go
package criteria

import (
	"strings"

	"finance-tracker/internal/util"
)

// SortDirection orders a page ascending or descending.
type SortDirection string

const (
	SortAsc  SortDirection = "ASC"
	SortDesc SortDirection = "DESC"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 1000
)

// sortFields maps the names clients may sort by onto store fields.
var sortFields = map[string]Field{
	"id":           FieldID,
	"account_name": FieldAccountName,
	"accountname":  FieldAccountName,
	"amount":       FieldAmount,
	"category":     FieldCategory,
	"description":  FieldDescription,
	"created_at":   FieldCreatedAt,
	"createdat":    FieldCreatedAt,
	"updated_at":   FieldUpdatedAt,
	"updatedat":    FieldUpdatedAt,
}

// PageRequest selects one zero-based page of a sorted result set.
type PageRequest struct {
	Page      int
	Size      int
	SortField Field
	SortDir   SortDirection
}

// Offset is the number of rows skipped before the page starts.
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// ParseSortDirection is case-insensitive: "asc" sorts ascending, anything else descending.
func ParseSortDirection(dir string) SortDirection {
	if strings.EqualFold(strings.TrimSpace(dir), "asc") {
		return SortAsc
	}
	return SortDesc
}

// NewPageRequest validates paging input. An empty sortBy sorts by creation time.
func NewPageRequest(page, size int, sortBy, sortDir string) (PageRequest, error) {
	verr := &util.ValidationError{}
	if page < 0 {
		verr.Add("page", "Page must not be negative")
	}
	if size < 1 || size > MaxPageSize {
		verr.Add("size", "Size must be between 1 and 1000")
	}

	field := FieldCreatedAt
	if key := strings.ToLower(strings.TrimSpace(sortBy)); key != "" {
		f, ok := sortFields[key]
		if !ok {
			verr.Add("sort_by", "Unsupported sort field: "+sortBy)
		}
		field = f
	}
	if verr.HasErrors() {
		return PageRequest{}, verr
	}

	return PageRequest{
		Page:      page,
		Size:      size,
		SortField: field,
		SortDir:   ParseSortDirection(sortDir),
	}, nil
}
