// Package pagination maps display pages onto upstream API pages. The
// metadata API serves 20 items per page while the chat shows 10, so
// every display page is one half of an upstream page.
package pagination

import (
	"fmt"
	"strconv"
)

const (
	// PageSize is how many titles one chat message lists.
	PageSize = 10
	// UpstreamPageSize is the fixed page size of the metadata API.
	UpstreamPageSize = 20
	// TorrentPageSize is how many torrent candidates one message lists.
	TorrentPageSize = 5
	// NavRadius is how many page numbers the navigation row shows on
	// each side of the current page.
	NavRadius = 2
)

// TotalPages converts an item count into full display pages, given the
// per-page size.
func TotalPages(totalItems, pageSize int) int {
	if totalItems <= 0 || pageSize <= 0 {
		return 0
	}
	return (totalItems + pageSize - 1) / pageSize
}

// UpstreamPage returns the 1-based API page a display page lives on.
func UpstreamPage(displayPage int) int {
	if displayPage < 1 {
		displayPage = 1
	}
	return (displayPage-1)/2 + 1
}

// SliceOffset returns the offset of a display page within its upstream
// page: 0 for odd display pages, PageSize for even ones.
func SliceOffset(displayPage int) int {
	if displayPage < 1 {
		displayPage = 1
	}
	return ((displayPage - 1) % 2) * PageSize
}

// PageSlice cuts one display page out of an upstream page's items.
// A partial or empty tail page comes back shortened or empty.
func PageSlice[T any](items []T, displayPage int) []T {
	start := SliceOffset(displayPage)
	if start >= len(items) {
		return nil
	}
	end := start + PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// Slice cuts a plain 1-based page out of a full list. Used for torrent
// lists, which are fetched whole and paged locally.
func Slice[T any](items []T, page, pageSize int) []T {
	if page < 1 || pageSize < 1 {
		return nil
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return nil
	}
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// NavButton is one entry of a page-navigation row. The current page is
// marked and carries no token.
type NavButton struct {
	Page    int
	Label   string
	Current bool
}

// Nav builds the page-number row around the current page: a window of
// NavRadius pages each side, clamped to [1, totalPages]. One page total
// means no row at all.
func Nav(current, totalPages int) []NavButton {
	if totalPages <= 1 {
		return nil
	}
	if current < 1 {
		current = 1
	}
	if current > totalPages {
		current = totalPages
	}

	lo := current - NavRadius
	if lo < 1 {
		lo = 1
	}
	hi := current + NavRadius
	if hi > totalPages {
		hi = totalPages
	}

	row := make([]NavButton, 0, hi-lo+1)
	for p := lo; p <= hi; p++ {
		b := NavButton{Page: p, Label: strconv.Itoa(p)}
		if p == current {
			b.Label = fmt.Sprintf("· %d ·", p)
			b.Current = true
		}
		row = append(row, b)
	}
	return row
}
