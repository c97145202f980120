// Package listview implements the search, sort and pagination shared by all
// list screens.
package listview

import (
	"cmp"
	"slices"
	"strings"
)

const DefaultPerPage = 10

// Query selects one page of a list. Page is 1-based.
type Query struct {
	Search  string
	SortKey string
	Desc    bool
	Page    int
	PerPage int
}

// Fields describes how to search and sort items of type T.
type Fields[T any] struct {
	// Search returns the texts matched against Query.Search.
	Search func(T) []string
	// Sort maps a sort key to a comparison. Unknown keys keep input order.
	Sort map[string]func(a, b T) int
}

type Page[T any] struct {
	Items      []T `json:"items" yaml:"items"`
	Page       int `json:"page" yaml:"page"`
	PerPage    int `json:"per_page" yaml:"per_page"`
	Total      int `json:"total" yaml:"total"`
	TotalPages int `json:"total_pages" yaml:"total_pages"`
}

func (p Page[T]) HasNext() bool {
	return p.Page < p.TotalPages
}

func (p Page[T]) HasPrev() bool {
	return p.Page > 1
}

// Apply filters, sorts and paginates items. The input slice is not modified.
func Apply[T any](items []T, q Query, f Fields[T]) Page[T] {
	filtered := filter(items, q.Search, f.Search)

	if less, ok := f.Sort[q.SortKey]; ok && less != nil {
		slices.SortStableFunc(filtered, func(a, b T) int {
			if q.Desc {
				return less(b, a)
			}
			return less(a, b)
		})
	}

	perPage := q.PerPage
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	total := len(filtered)
	totalPages := (total + perPage - 1) / perPage

	page := q.Page
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}

	start := (page - 1) * perPage
	end := min(start+perPage, total)
	var pageItems []T
	if start < end {
		pageItems = filtered[start:end]
	}

	return Page[T]{
		Items:      pageItems,
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}

func filter[T any](items []T, search string, fields func(T) []string) []T {
	needle := strings.ToLower(strings.TrimSpace(search))
	if needle == "" || fields == nil {
		return slices.Clone(items)
	}

	out := make([]T, 0, len(items))
	for _, item := range items {
		for _, text := range fields(item) {
			if strings.Contains(strings.ToLower(text), needle) {
				out = append(out, item)
				break
			}
		}
	}
	return out
}

// ByString compares the string field selected by get, case-insensitively.
func ByString[T any](get func(T) string) func(a, b T) int {
	return func(a, b T) int {
		return strings.Compare(strings.ToLower(get(a)), strings.ToLower(get(b)))
	}
}

// ByOrdered compares an ordered field selected by get.
func ByOrdered[T any, K cmp.Ordered](get func(T) K) func(a, b T) int {
	return func(a, b T) int {
		return cmp.Compare(get(a), get(b))
	}
}
