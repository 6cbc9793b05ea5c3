package listview

import (
	"github.com/cuemby/pipectl/pkg/dedupe"
)

// FilterAll is the filter value meaning "no restriction"
const FilterAll = "all"

// Mode says where pagination and filtering happen
type Mode int

const (
	// ModeServer fetches exactly the displayed page from the backend
	ModeServer Mode = iota
	// ModeClient fetches one bulk page and filters and pages it locally
	ModeClient
)

func (m Mode) String() string {
	if m == ModeClient {
		return "client"
	}
	return "server"
}

// Query is the user-visible state of a list view
type Query struct {
	PageNum    int
	PageSize   int
	SearchText string
	Filters    map[string]string
}

// Filter returns the value of a filter, FilterAll when unset
func (q Query) Filter(name string) string {
	if v, ok := q.Filters[name]; ok && v != "" {
		return v
	}
	return FilterAll
}

// Active reports whether a search or any non-"all" filter is set. Search
// text is taken as typed, so whitespace alone still counts.
func (q Query) Active() bool {
	if q.SearchText != "" {
		return true
	}
	for _, v := range q.Filters {
		if v != "" && v != FilterAll {
			return true
		}
	}
	return false
}

// Mode derives the pagination mode from the query
func (q Query) Mode() Mode {
	if q.Active() {
		return ModeClient
	}
	return ModeServer
}

func (q Query) clone() Query {
	out := q
	out.Filters = make(map[string]string, len(q.Filters))
	for k, v := range q.Filters {
		out.Filters[k] = v
	}
	return out
}

// equal compares two queries, treating "all" and empty filters as unset
func (q Query) equal(o Query) bool {
	if q.PageNum != o.PageNum || q.PageSize != o.PageSize || q.SearchText != o.SearchText {
		return false
	}
	return q.activeFiltersIn(o) && o.activeFiltersIn(q)
}

func (q Query) activeFiltersIn(o Query) bool {
	for k, v := range q.Filters {
		if v != "" && v != FilterAll && o.Filters[k] != v {
			return false
		}
	}
	return true
}

// Request is what a list view asks the backend for. Filters only carries
// the filters the backend applies itself.
type Request struct {
	PageNum  int
	PageSize int
	Filters  map[string]string
}

// Filter returns a forwarded filter value, "" when not forwarded
func (r Request) Filter(name string) string {
	return r.Filters[name]
}

// Signature renders r canonically; equal requests have equal signatures
func (r Request) Signature() string {
	params := map[string]any{"pageNum": r.PageNum, "pageSize": r.PageSize}
	for name, v := range r.Filters {
		params["filter."+name] = v
	}
	return dedupe.BuildKey("list", params).String()
}

// Page is one fetched result. Items are replaced wholesale on every load.
type Page[T any] struct {
	Items      []T
	TotalCount int
}
