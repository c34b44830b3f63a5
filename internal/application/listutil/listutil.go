package listutil

import (
	"net/url"
	"strconv"
	"strings"
)

// PageParams carries pagination parameters parsed from a request.
type PageParams struct {
	Page    int // 1-indexed page number
	PerPage int // rows per page
}

// SortParams carries sorting parameters parsed from a request.
type SortParams struct {
	Sort string // column name; empty means the listing's default
	Desc bool
}

// ListParams combines page, sort and filter parameters.
type ListParams struct {
	PageParams
	SortParams
	Filters map[string][]string // recognised keys only; comma-separated values split
}

// PageInfo is the pagination envelope returned with a page of results.
type PageInfo struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// DefaultPerPage is the default number of rows per page.
const DefaultPerPage = 20

// MaxPerPage bounds per_page.
const MaxPerPage = 200

// ParsePageParams extracts page and per_page from URL query values.
// POST: returns valid PageParams with defaults applied
func ParsePageParams(q url.Values) PageParams {
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, err := strconv.Atoi(q.Get("per_page"))
	if err != nil || perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return PageParams{Page: page, PerPage: perPage}
}

// ParseSortParams extracts sort and dir from URL query values.
// POST: Sort is empty unless it is one of allowedColumns
func ParseSortParams(q url.Values, allowedColumns []string) SortParams {
	sort := q.Get("sort")
	if !contains(allowedColumns, sort) {
		sort = ""
	}
	return SortParams{Sort: sort, Desc: strings.EqualFold(q.Get("dir"), "desc")}
}

// ParseFilters extracts the named filters. Repeated keys and comma-separated
// values are both accepted: ?status=pending,approved&status=rejected.
// POST: Only keys in filterKeys appear; blank values are dropped
func ParseFilters(q url.Values, filterKeys []string) map[string][]string {
	out := make(map[string][]string)
	for _, key := range filterKeys {
		for _, raw := range q[key] {
			for _, v := range strings.Split(raw, ",") {
				if v = strings.TrimSpace(v); v != "" {
					out[key] = append(out[key], v)
				}
			}
		}
	}
	return out
}

// ParseListParams parses all list parameters from URL query values.
func ParseListParams(q url.Values, allowedSortCols []string, filterKeys []string) ListParams {
	return ListParams{
		PageParams: ParsePageParams(q),
		SortParams: ParseSortParams(q, allowedSortCols),
		Filters:    ParseFilters(q, filterKeys),
	}
}

// First returns the first value of a filter, or "".
func (p ListParams) First(key string) string {
	if v := p.Filters[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// Offset returns the SQL OFFSET for the requested page.
func (p PageParams) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// NewPageInfo computes pagination metadata.
// PRE: total >= 0
// POST: TotalPages >= 1; Page is not clamped so an out-of-range page yields an empty list
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	totalPages := (total + perPage - 1) / perPage
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	return PageInfo{Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
