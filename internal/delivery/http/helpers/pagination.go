package helpers

import (
	"net/http"
	"strconv"

	"rfidtags/internal/domain"
)

// Pagination query parameter defaults.
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 1000
)

// queryInt returns the integer value of key, or def when it is absent or not
// an integer.
func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// HasPage reports whether the request asks for the page-based listing.
func HasPage(r *http.Request) bool {
	return r.URL.Query().Has("page")
}

// ParseTagFilter reads status, limit and offset. Missing, malformed or
// negative limit/offset fall back to 100/0.
func ParseTagFilter(r *http.Request) domain.TagFilter {
	f := domain.TagFilter{
		Status: domain.Status(r.URL.Query().Get("status")),
		Limit:  queryInt(r, "limit", domain.DefaultListLimit),
		Offset: queryInt(r, "offset", 0),
	}
	return f.Normalized()
}

// ParsePagination reads page and limit from the request query string,
// clamps them to valid ranges, and returns domain.PaginationParams.
// Invalid or missing values fall back to defaults.
func ParsePagination(r *http.Request) domain.PaginationParams {
	page := queryInt(r, "page", DefaultPage)
	if page < 1 {
		page = DefaultPage
	}
	pageSize := queryInt(r, "limit", DefaultPageSize)
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return domain.PaginationParams{Page: page, PageSize: pageSize}
}

// PaginationMeta is the pagination metadata included in paginated list responses.
// swagger:model PaginationMeta
type PaginationMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPaginationMeta builds PaginationMeta from the current page, page size, and total count.
// TotalPages is computed as ceiling(total / pageSize); if pageSize is 0, TotalPages is 0.
func NewPaginationMeta(page, pageSize, total int) PaginationMeta {
	totalPages := 0
	if pageSize > 0 {
		totalPages = (total + pageSize - 1) / pageSize
	}
	return PaginationMeta{
		Page:       page,
		Limit:      pageSize,
		Total:      total,
		TotalPages: totalPages,
	}
}
