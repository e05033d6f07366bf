package services

import (
	"errors"
	"strconv"
	"strings"
)

// DefaultPageSize is the number of posts shown per list page.
const DefaultPageSize = 3

// Page is one page of a paginated result set. Pages are numbered from 1
// and there is always at least one page, even for an empty set.
type Page[T any] struct {
	Items       []T  `json:"items"`
	Number      int  `json:"page"`
	NumPages    int  `json:"num_pages"`
	Count       int  `json:"count"`
	PerPage     int  `json:"per_page"`
	HasPrevious bool `json:"has_previous"`
	HasNext     bool `json:"has_next"`
	Previous    int  `json:"previous,omitempty"`
	Next        int  `json:"next,omitempty"`
}

// ParsePage turns a raw page parameter into a page number in [1, numPages].
// Anything that is not an integer selects the first page; an integer out
// of range selects the last page, including ones too large for an int.
func ParsePage(raw string, numPages int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if errors.Is(err, strconv.ErrRange) {
		return numPages
	}
	if err != nil {
		return 1
	}
	if n < 1 || n > numPages {
		return numPages
	}
	return n
}

// Paginate slices items into the page selected by raw. It never fails.
func Paginate[T any](items []T, perPage int, raw string) *Page[T] {
	if perPage < 1 {
		perPage = DefaultPageSize
	}
	count := len(items)
	numPages := (count + perPage - 1) / perPage
	if numPages == 0 {
		numPages = 1
	}
	number := ParsePage(raw, numPages)

	start := (number - 1) * perPage
	end := min(start+perPage, count)

	p := &Page[T]{
		Items:       items[start:end],
		Number:      number,
		NumPages:    numPages,
		Count:       count,
		PerPage:     perPage,
		HasPrevious: number > 1,
		HasNext:     number < numPages,
	}
	if p.HasPrevious {
		p.Previous = number - 1
	}
	if p.HasNext {
		p.Next = number + 1
	}
	return p
}

// Pages lists every page number, for rendering page links.
func (p *Page[T]) Pages() []int {
	nums := make([]int, p.NumPages)
	for i := range nums {
		nums[i] = i + 1
	}
	return nums
}
