// Package view holds the presentation-side list logic: status filter,
// case-insensitive search and fixed-size pagination. All functions are
// pure and order preserving; the snapshot itself is never mutated.
package view

import (
	"fmt"
	"strings"

	"taskhub/internal/service"
)

// PageSize is the number of tasks shown per page.
const PageSize = 5

// Filter selects tasks by completion status.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterActive    Filter = "active"
	FilterCompleted Filter = "completed"
)

// ParseFilter parses a filter string.
func ParseFilter(s string) (Filter, error) {
	switch Filter(s) {
	case FilterAll, FilterActive, FilterCompleted:
		return Filter(s), nil
	}
	return "", fmt.Errorf("invalid filter: %q", s)
}

// ApplyFilter returns the subset of tasks matching f, preserving order.
func ApplyFilter(tasks []service.Task, f Filter) []service.Task {
	if f == FilterAll || f == "" {
		return tasks
	}
	var out []service.Task
	for _, t := range tasks {
		switch f {
		case FilterActive:
			if !t.Completed {
				out = append(out, t)
			}
		case FilterCompleted:
			if t.Completed {
				out = append(out, t)
			}
		}
	}
	return out
}

// ApplySearch returns the tasks whose title or description contains q,
// case-insensitively. An empty query matches everything.
func ApplySearch(tasks []service.Task, q string) []service.Task {
	if q == "" {
		return tasks
	}
	q = strings.ToLower(q)
	var out []service.Task
	for _, t := range tasks {
		if strings.Contains(strings.ToLower(t.Title), q) ||
			strings.Contains(strings.ToLower(t.Description), q) {
			out = append(out, t)
		}
	}
	return out
}

// Page returns items [(page-1)*size, page*size) of tasks. Pages past the
// end are empty, never an error. page and size below 1 fall back to 1 and
// PageSize.
func Page(tasks []service.Task, page, size int) []service.Task {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = PageSize
	}
	start := (page - 1) * size
	if start >= len(tasks) {
		return nil
	}
	end := start + size
	if end > len(tasks) {
		end = len(tasks)
	}
	return tasks[start:end]
}

// PageCount returns the number of pages needed for n items. An empty list
// still has one (empty) page.
func PageCount(n, size int) int {
	if size < 1 {
		size = PageSize
	}
	if n <= 0 {
		return 1
	}
	return (n + size - 1) / size
}

// View is the transient list state a task workspace holds: filter choice,
// search text and current page. Changing filter or search resets the page
// to 1.
type View struct {
	Filter  Filter
	Search  string
	PageNum int
}

// NewView returns a view showing everything, page 1.
func NewView() *View {
	return &View{Filter: FilterAll, PageNum: 1}
}

// SetFilter changes the status filter and resets to page 1.
func (v *View) SetFilter(f Filter) {
	v.Filter = f
	v.PageNum = 1
}

// SetSearch changes the search text and resets to page 1.
func (v *View) SetSearch(q string) {
	v.Search = q
	v.PageNum = 1
}

// SetPage moves to the given page without touching filter or search.
func (v *View) SetPage(n int) {
	if n < 1 {
		n = 1
	}
	v.PageNum = n
}

// Matching applies filter then search, without pagination.
func (v *View) Matching(tasks []service.Task) []service.Task {
	return ApplySearch(ApplyFilter(tasks, v.Filter), v.Search)
}

// Visible applies filter, search and pagination in that order.
func (v *View) Visible(tasks []service.Task) []service.Task {
	return Page(v.Matching(tasks), v.PageNum, PageSize)
}
