package domain

// PaginationParams holds page-based pagination parameters for list queries.
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

// Filter converts p into a TagFilter for the given status.
func (p PaginationParams) Filter(status Status) TagFilter {
	return TagFilter{Status: status, Limit: p.PageSize, Offset: p.Offset()}
}
