package types

// PageRequest is a 1-based page number with a positive page size.
type PageRequest struct {
	Page  int
	Limit int
}

func (p PageRequest) Valid() bool {
	return p.Page >= 1 && p.Limit >= 1
}

// Skip is the number of records preceding the page.
func (p PageRequest) Skip() int64 {
	return int64(p.Page-1) * int64(p.Limit)
}

// Page is the paginated list response payload.
type Page[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
}

func NewPage[T any](items []T, total int64, req PageRequest) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, TotalCount: total, Page: req.Page, Limit: req.Limit}
}
