// Package pager keeps the paging state of catalog views.
//
// Two modes exist. Fixed prefetches a bounded number of upstream pages and
// serves fixed-size windows over them. Append grows a list one upstream page
// at a time as the user reaches the end of it. Both drop responses that
// arrive after a Reset.
package pager

import (
	"context"

	"github.com/dastanaron/movies/internal/models"
)

// FetchFunc loads one upstream page. It returns an empty slice on failure.
type FetchFunc func(ctx context.Context, page int) []models.Movie

// Mode selects how a listing is paged.
type Mode int

const (
	ModeTable Mode = iota
	ModeInfinite
)

func (m Mode) String() string {
	if m == ModeInfinite {
		return "infinite"
	}
	return "table"
}

// Breakpoints are the widths at which the per-page count changes.
type Breakpoints struct {
	Small  int
	Medium int
}

var (
	// PixelBreakpoints are viewport widths in CSS pixels.
	PixelBreakpoints = Breakpoints{Small: 768, Medium: 1188}
	// CellBreakpoints are terminal widths in columns.
	CellBreakpoints = Breakpoints{Small: 96, Medium: 148}
)

// PerPage returns how many items a fixed page shows at a viewport width.
func PerPage(width int, bp Breakpoints) int {
	switch {
	case width <= bp.Small:
		return 6
	case width <= bp.Medium:
		return 10
	}
	return 14
}

// LastPage is ceil(total/perPage), and at least 1.
func LastPage(total, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 1
	}
	return (total + perPage - 1) / perPage
}

// ClampPage restricts page to [1, LastPage(total, perPage)].
func ClampPage(page, total, perPage int) int {
	last := LastPage(total, perPage)
	if page < 1 {
		return 1
	}
	if page > last {
		return last
	}
	return page
}

// Window returns the items shown on a fixed page and the clamped page index.
func Window(items []models.Movie, page, perPage int) ([]models.Movie, int) {
	page = ClampPage(page, len(items), perPage)
	if perPage <= 0 {
		return nil, page
	}
	start := (page - 1) * perPage
	if start >= len(items) {
		return []models.Movie{}, page
	}
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], page
}

// ShouldLoadMore reports whether the visible bottom edge is within threshold
// of the end of the content.
func ShouldLoadMore(offset, viewport, content, threshold int) bool {
	return offset+viewport >= content-threshold
}

// NearEnd is ShouldLoadMore for a list cursor: true when index is within
// threshold rows of the last item.
func NearEnd(index, count, threshold int) bool {
	if count == 0 {
		return true
	}
	return ShouldLoadMore(index, 1, count, threshold)
}
