// Package pagination slices ordered listings into fixed-size pages.
package pagination

import (
	"context"
	"strconv"
	"strings"

	"yatube/internal/models"
)

// DefaultPerPage is the number of items on one page.
const DefaultPerPage = 10

// Source is an ordered listing that can be counted and sliced.
type Source[T any] interface {
	Count(ctx context.Context) (int64, error)
	Slice(ctx context.Context, limit, offset int) ([]T, error)
}

// Page is one slice of a listing plus the navigation metadata templates need.
type Page[T any] struct {
	Items       []T   `json:"object_list"`
	Number      int   `json:"number"`
	NumPages    int   `json:"num_pages"`
	Count       int64 `json:"count"`
	PerPage     int   `json:"per_page"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
	NextPage    int   `json:"next_page_number,omitempty"`
	PrevPage    int   `json:"previous_page_number,omitempty"`
}

// StartIndex returns the 1-based index of the first item on the page, or 0 when empty.
func (p *Page[T]) StartIndex() int64 {
	if p.Count == 0 {
		return 0
	}
	return int64(p.PerPage*(p.Number-1)) + 1
}

// Len returns the number of items on the page.
func (p *Page[T]) Len() int {
	return len(p.Items)
}

// ParsePage converts the raw page query value into a page number.
// An empty value means the first page; "last" means numPages.
func ParsePage(raw string, numPages int) (int, error) {
	raw = strings.TrimSpace(raw)
	switch raw {
	case "":
		return 1, nil
	case "last":
		return numPages, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, models.NewNotFoundError("Page", raw)
	}
	if n > numPages {
		return 0, models.NewNotFoundError("Page", n)
	}
	return n, nil
}

// NumPages returns the page count for count items. An empty listing still has one page.
func NumPages(count int64, perPage int) int {
	if count <= 0 {
		return 1
	}
	return int((count + int64(perPage) - 1) / int64(perPage))
}

// Paginate returns the requested page of src. A non-numeric page, a page
// below one or past the last page yields a NotFound error.
func Paginate[T any](ctx context.Context, src Source[T], rawPage string, perPage int) (*Page[T], error) {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}

	count, err := src.Count(ctx)
	if err != nil {
		return nil, err
	}

	numPages := NumPages(count, perPage)
	number, err := ParsePage(rawPage, numPages)
	if err != nil {
		return nil, err
	}

	items := []T{}
	if count > 0 {
		items, err = src.Slice(ctx, perPage, (number-1)*perPage)
		if err != nil {
			return nil, err
		}
	}

	page := &Page[T]{
		Items:       items,
		Number:      number,
		NumPages:    numPages,
		Count:       count,
		PerPage:     perPage,
		HasNext:     number < numPages,
		HasPrevious: number > 1,
	}
	if page.HasNext {
		page.NextPage = number + 1
	}
	if page.HasPrevious {
		page.PrevPage = number - 1
	}
	return page, nil
}

// Empty returns the first page of an empty listing.
func Empty[T any](perPage int) *Page[T] {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	return &Page[T]{Items: []T{}, Number: 1, NumPages: 1, PerPage: perPage}
}

// FromSlice adapts an in-memory slice to a Source.
func FromSlice[T any](items []T) Source[T] {
	return sliceSource[T](items)
}

type sliceSource[T any] []T

func (s sliceSource[T]) Count(context.Context) (int64, error) {
	return int64(len(s)), nil
}

func (s sliceSource[T]) Slice(_ context.Context, limit, offset int) ([]T, error) {
	if offset >= len(s) {
		return []T{}, nil
	}
	end := offset + limit
	if end > len(s) {
		end = len(s)
	}
	return s[offset:end], nil
}
