package domain

import "strings"

// PaginationParams holds offset-based pagination parameters for list queries.
type PaginationParams struct {
	Page     int
	PageSize int
}

// Offset returns the row offset for the current page (0-based).
// Formula: (Page - 1) * PageSize.
func (p PaginationParams) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PageSize
}

// SortParams is a caller-requested ordering. Field is matched against a
// per-listing allow-list by the repository; unknown fields fall back to the
// listing's default order.
type SortParams struct {
	Field string
	Desc  bool
}

// ParseSort builds SortParams from raw query values. Order defaults to descending.
func ParseSort(field, order string) SortParams {
	return SortParams{
		Field: strings.ToLower(strings.TrimSpace(field)),
		Desc:  !strings.EqualFold(strings.TrimSpace(order), "asc"),
	}
}
