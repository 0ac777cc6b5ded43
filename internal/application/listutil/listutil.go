// Package listutil holds paging helpers shared by list projections and handlers.
package listutil

import (
	"net/url"
	"strconv"
)

// PageParams carries pagination parameters parsed from a request.
type PageParams struct {
	Page    int // 1-indexed
	PerPage int
}

// PageInfo carries pagination metadata for rendering.
type PageInfo struct {
	Page       int
	PerPage    int
	Total      int
	TotalPages int
}

// DefaultPerPage is the page size used when the request names none or an unsupported one.
const DefaultPerPage = 10

// PerPageOptions are the allowed page sizes.
var PerPageOptions = []int{10, 25, 50}

// ParsePageParams reads page and per_page.
// PRE: none
// POST: Page >= 1 and PerPage is one of PerPageOptions
func ParsePageParams(q url.Values) PageParams {
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if !allowedPerPage(perPage) {
		perPage = DefaultPerPage
	}
	return PageParams{Page: page, PerPage: perPage}
}

// NewPageInfo clamps the requested page into the available range.
// PRE: total >= 0
// POST: 1 <= Page <= TotalPages; TotalPages >= 1
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	totalPages := max((total+perPage-1)/perPage, 1)
	page = min(max(page, 1), totalPages)
	return PageInfo{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// Offset returns the SQL OFFSET for the current page.
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// HasPrev reports whether a previous page exists.
func (p PageInfo) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a following page exists.
func (p PageInfo) HasNext() bool { return p.Page < p.TotalPages }

// StartRow returns the 1-indexed first row on the page, 0 when empty.
func (p PageInfo) StartRow() int {
	if p.Total == 0 {
		return 0
	}
	return p.Offset() + 1
}

// EndRow returns the 1-indexed last row on the page.
func (p PageInfo) EndRow() int {
	return min(p.Offset()+p.PerPage, p.Total)
}

func allowedPerPage(n int) bool {
	for _, opt := range PerPageOptions {
		if n == opt {
			return true
		}
	}
	return false
}
