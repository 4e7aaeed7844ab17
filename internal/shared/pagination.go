package shared

import (
	"net/url"
	"strconv"
)

const maxPerPage = 200

// Pagination describes a page request over an ordered listing.
type Pagination struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// NewPagination clamps page and perPage to sane values.
func NewPagination(page, perPage int) Pagination {
	if perPage <= 0 {
		perPage = 50
	}
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	if page <= 0 {
		page = 1
	}
	return Pagination{Page: page, PerPage: perPage}
}

// PaginationFromQuery reads page and per_page query parameters.
func PaginationFromQuery(q url.Values) Pagination {
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	return NewPagination(page, perPage)
}

// Limit returns the row limit for the page.
func (p Pagination) Limit() int { return p.PerPage }

// Offset returns the number of rows to skip.
func (p Pagination) Offset() int { return (p.Page - 1) * p.PerPage }
