package listview

import "fmt"

// Ellipsis marks a gap in PageNumbers
const Ellipsis = -1

// Pagination describes the visible window over TotalCount rows
type Pagination struct {
	PageNum    int
	PageSize   int
	TotalCount int
}

// TotalPages returns the number of pages, 0 when there are no rows
func (p Pagination) TotalPages() int {
	if p.PageSize <= 0 || p.TotalCount <= 0 {
		return 0
	}
	return (p.TotalCount + p.PageSize - 1) / p.PageSize
}

// Range returns the 1-based positions of the first and last visible rows.
// Both are 0 when nothing is visible.
func (p Pagination) Range() (start, end int) {
	if p.PageSize <= 0 || p.TotalCount <= 0 {
		return 0, 0
	}
	start = (p.PageNum-1)*p.PageSize + 1
	end = min(p.PageNum*p.PageSize, p.TotalCount)
	if start > end {
		return 0, 0
	}
	return start, end
}

// Summary renders "Showing X to Y of Z"
func (p Pagination) Summary() string {
	start, end := p.Range()
	return fmt.Sprintf("Showing %d to %d of %d", start, end, max(p.TotalCount, 0))
}

// PageNumbers returns the page links to show. Up to 7 pages are all listed;
// beyond that the first and last page stay visible and gaps are marked with
// Ellipsis.
func (p Pagination) PageNumbers() []int {
	total := p.TotalPages()
	if total <= 7 {
		pages := make([]int, total)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages
	}

	switch page := p.PageNum; {
	case page <= 3:
		return []int{1, 2, 3, 4, Ellipsis, total}
	case page >= total-2:
		return []int{1, Ellipsis, total - 3, total - 2, total - 1, total}
	default:
		return []int{1, Ellipsis, page - 1, page, page + 1, Ellipsis, total}
	}
}

// HasPrev reports whether a previous page exists
func (p Pagination) HasPrev() bool { return p.PageNum > 1 }

// HasNext reports whether a next page exists
func (p Pagination) HasNext() bool { return p.PageNum < p.TotalPages() }

// EmptyMessage is the text shown for an empty list: "No agents found" when
// nothing exists, "No agents match your filters" when a search or filter
// hides every row.
func EmptyMessage(noun string, q Query) string {
	if q.Active() {
		return fmt.Sprintf("No %s match your filters", noun)
	}
	return fmt.Sprintf("No %s found", noun)
}
