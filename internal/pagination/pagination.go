// Package pagination holds the shared count+slice math used by every listing
// endpoint. It is pure: callers fetch the slice, this package computes the
// window and the metadata.
package pagination

const (
	// DefaultPerPage is applied when the caller omits per_page.
	DefaultPerPage = 10
	// MaxPerPage caps per_page; larger requests are clamped.
	MaxPerPage = 100
)

// Meta describes one bounded window over an ordered collection.
type Meta struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// Page is a slice of items plus its metadata.
type Page[T any] struct {
	Items []T  `json:"items"`
	Meta  Meta `json:"meta"`
}

// Normalize clamps page and perPage into their allowed ranges: page >= 1,
// perPage in 1..MaxPerPage, with DefaultPerPage when unset.
func Normalize(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}
	return page, perPage
}

// Offset returns the zero-based row offset for the given window.
func Offset(page, perPage int) int {
	return (page - 1) * perPage
}

// NewMeta computes the metadata for a window over total items. Out-of-range
// pages are legal and simply describe an empty window.
func NewMeta(page, perPage int, total int64) Meta {
	totalPages := 1
	if perPage > 0 {
		totalPages = int((total + int64(perPage) - 1) / int64(perPage))
	}

	return Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// NewPage pairs a fetched slice with its metadata. A nil slice becomes an
// empty one so list responses always serialize items as an array.
func NewPage[T any](items []T, page, perPage int, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Meta: NewMeta(page, perPage, total)}
}
