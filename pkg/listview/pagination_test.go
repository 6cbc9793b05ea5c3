package listview

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaginationRange(t *testing.T) {
	tests := []struct {
		name       string
		p          Pagination
		start, end int
		pages      int
		summary    string
	}{
		{name: "first page", p: Pagination{PageNum: 1, PageSize: 10, TotalCount: 12}, start: 1, end: 10, pages: 2, summary: "Showing 1 to 10 of 12"},
		{name: "last partial page", p: Pagination{PageNum: 2, PageSize: 10, TotalCount: 12}, start: 11, end: 12, pages: 2, summary: "Showing 11 to 12 of 12"},
		{name: "empty", p: Pagination{PageNum: 1, PageSize: 10}, pages: 0, summary: "Showing 0 to 0 of 0"},
		{name: "page past the end", p: Pagination{PageNum: 5, PageSize: 10, TotalCount: 12}, pages: 2, summary: "Showing 0 to 0 of 12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := tt.p.Range()
			assert.Equal(t, tt.start, start)
			assert.Equal(t, tt.end, end)
			assert.Equal(t, tt.pages, tt.p.TotalPages())
			assert.Equal(t, tt.summary, tt.p.Summary())
		})
	}
}

func TestPageNumbers(t *testing.T) {
	const e = Ellipsis
	tests := []struct {
		page, total int
		want        []int
	}{
		{page: 1, total: 0, want: []int{}},
		{page: 2, total: 70, want: []int{1, 2, 3, 4, 5, 6, 7}},
		{page: 1, total: 100, want: []int{1, 2, 3, 4, e, 10}},
		{page: 3, total: 100, want: []int{1, 2, 3, 4, e, 10}},
		{page: 4, total: 100, want: []int{1, e, 3, 4, 5, e, 10}},
		{page: 8, total: 100, want: []int{1, e, 7, 8, 9, 10}},
		{page: 10, total: 100, want: []int{1, e, 7, 8, 9, 10}},
	}

	for _, tt := range tests {
		p := Pagination{PageNum: tt.page, PageSize: 10, TotalCount: tt.total}
		assert.Equal(t, tt.want, p.PageNumbers(), "page %d of %d rows", tt.page, tt.total)
	}
}

func TestPrevNext(t *testing.T) {
	p := Pagination{PageNum: 1, PageSize: 10, TotalCount: 25}
	assert.False(t, p.HasPrev())
	assert.True(t, p.HasNext())

	p.PageNum = 3
	assert.True(t, p.HasPrev())
	assert.False(t, p.HasNext())
}

func TestEmptyMessage(t *testing.T) {
	assert.Equal(t, "No agents found", EmptyMessage("agents", Query{}))
	assert.Equal(t, "No agents found", EmptyMessage("agents", Query{Filters: map[string]string{"status": FilterAll}}))
	assert.Equal(t, "No agents match your filters", EmptyMessage("agents", Query{SearchText: "prod"}))
	assert.Equal(t, "No roles match your filters", EmptyMessage("roles", Query{Filters: map[string]string{"scope": "team"}}))
}

func TestQueryMode(t *testing.T) {
	assert.Equal(t, ModeServer, Query{}.Mode())
	assert.Equal(t, ModeServer, Query{Filters: map[string]string{"status": "all", "scope": ""}}.Mode())
	assert.Equal(t, ModeClient, Query{SearchText: "x"}.Mode())
	assert.Equal(t, ModeClient, Query{SearchText: " "}.Mode(), "whitespace is a search term")
	assert.Equal(t, ModeClient, Query{Filters: map[string]string{"status": "1"}}.Mode())
}

func TestRequestSignature(t *testing.T) {
	a := Request{PageNum: 1, PageSize: 1000, Filters: map[string]string{"scope": "team", "status": "active"}}
	b := Request{PageNum: 1, PageSize: 1000, Filters: map[string]string{"status": "active", "scope": "team"}}
	c := Request{PageNum: 1, PageSize: 1000}

	assert.Equal(t, a.Signature(), b.Signature())
	assert.NotEqual(t, a.Signature(), c.Signature())
	assert.NotEqual(t, Request{PageNum: 1, PageSize: 10}.Signature(), Request{PageNum: 2, PageSize: 10}.Signature())
}
