package shared

// DefaultPageSize applies when a list request names no page size.
const DefaultPageSize = 20

// Filter is the paging, ordering and search input of every list endpoint.
// Filters holds resource-specific equality filters such as plan_type; each
// repository ignores keys it does not know.
type Filter struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Filters  map[string]interface{}
}

// Limit returns the page size
func (f Filter) Limit() int {
	if f.PageSize <= 0 {
		return DefaultPageSize
	}
	return f.PageSize
}

// Offset returns the number of rows before the requested page. Pages start at 1.
func (f Filter) Offset() int {
	return max(f.Page-1, 0) * f.Limit()
}

// Paginated is one page of a list response
type Paginated[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewPaginated wraps a page of items with the totals the client pages by
func NewPaginated[T any](items []T, total int64, page, pageSize int) Paginated[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return Paginated[T]{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
	}
}
