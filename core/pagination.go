package core

import "fmt"

// Window is the (offset, limit) pair that slices a list result. It is
// only produced through PaginationConfig.Window so an unbounded or
// out-of-contract listing cannot be expressed.
type Window struct {
	Page   int
	Limit  int
	Offset int
}

// Window validates page and limit and computes the offset. Omitted
// values (nil) fall back to the configured defaults. Out-of-range
// values fail instead of being clamped: silent clamping would hide a
// caller's misunderstanding of the contract. A page beyond the last
// available one is not an error; it yields an empty list downstream.
func (c PaginationConfig) Window(page *int, limit *int) (Window, error) {
	resolvedPage := 1
	if page != nil {
		resolvedPage = *page
	}
	if resolvedPage < 1 {
		return Window{}, NewValidationError("page", "core: page must be at least 1")
	}

	resolvedLimit := c.DefaultLimit
	if resolvedLimit < 1 {
		resolvedLimit = 20
	}
	if limit != nil {
		resolvedLimit = *limit
	}
	maxLimit := c.MaxLimit
	if maxLimit < 1 {
		maxLimit = 100
	}
	if resolvedLimit < 1 || resolvedLimit > maxLimit {
		return Window{}, NewValidationError("limit", fmt.Sprintf("core: limit must be within [1, %d]", maxLimit))
	}

	return Window{
		Page:   resolvedPage,
		Limit:  resolvedLimit,
		Offset: (resolvedPage - 1) * resolvedLimit,
	}, nil
}

// TaskPage is a windowed list result. Total counts every task owned by
// the requesting identity regardless of window, read at the same
// logical point as the items.
type TaskPage struct {
	Items   []Task `json:"items"`
	Page    int    `json:"page"`
	PerPage int    `json:"per_page"`
	Total   int    `json:"total_count"`
	HasNext bool   `json:"has_next"`
}
