// Package listutil turns list query strings into a Query and pages in-memory rows.
package listutil

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// DefaultPerPage is used when per_page is missing or not one of PerPageOptions.
const DefaultPerPage = 20

// PerPageOptions are the page sizes a client may ask for.
var PerPageOptions = []int{10, 20, 50, 100}

// Columns declares what a listing may be sorted and filtered by.
type Columns struct {
	Sort    []string
	Filters []string
}

// Query is a parsed list request.
type Query struct {
	Page    int
	PerPage int
	Sort    string // "" keeps the natural order
	Desc    bool
	Search  string            // case-insensitive substring
	Filters map[string]string // exact match, keyed by Columns.Filters
}

// PageInfo describes the page returned to the client.
type PageInfo struct {
	Page       int `json:"page"`
	PerPage    int `json:"perPage"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Parse reads page, per_page, sort, dir, q and the declared filters from v.
// Unknown sort columns and filter keys are dropped rather than rejected.
// POST: Page >= 1; PerPage is one of PerPageOptions
func Parse(v url.Values, cols Columns) Query {
	q := Query{
		Page:    atLeastOne(v.Get("page")),
		PerPage: DefaultPerPage,
		Desc:    strings.EqualFold(v.Get("dir"), "desc"),
		Search:  strings.TrimSpace(v.Get("q")),
		Filters: map[string]string{},
	}
	if n, err := strconv.Atoi(v.Get("per_page")); err == nil && slices.Contains(PerPageOptions, n) {
		q.PerPage = n
	}
	if s := v.Get("sort"); slices.Contains(cols.Sort, s) {
		q.Sort = s
	}
	for _, key := range cols.Filters {
		if val := v.Get(key); val != "" {
			q.Filters[key] = val
		}
	}
	return q
}

// Matches reports whether value contains the search text. An empty search matches everything.
func (q Query) Matches(value string) bool {
	return q.Search == "" || strings.Contains(strings.ToLower(value), strings.ToLower(q.Search))
}

// Accepts reports whether value passes the filter on key; keys without a filter accept anything.
func (q Query) Accepts(key, value string) bool {
	want, ok := q.Filters[key]
	return !ok || want == value
}

// Paginate cuts the requested page out of rows.
// A page past the end is clamped to the last page.
// POST: the result aliases rows and holds at most info.PerPage items
func Paginate[T any](rows []T, q Query) ([]T, PageInfo) {
	perPage := q.PerPage
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	pages := max(1, (len(rows)+perPage-1)/perPage)
	page := min(max(q.Page, 1), pages)

	start := min((page-1)*perPage, len(rows))
	end := min(start+perPage, len(rows))
	return rows[start:end], PageInfo{Page: page, PerPage: perPage, Total: len(rows), TotalPages: pages}
}

func atLeastOne(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return 1
	}
	return n
}
