package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"github.com/dastanaron/movies/internal/models"
	"github.com/dastanaron/movies/internal/parser"
	"github.com/dastanaron/movies/internal/tmdb"
)

// movieLine is the one-line rendering used by lists.
func movieLine(m models.Movie, wishlisted bool) string {
	mark := "  "
	if wishlisted {
		mark = "[yellow]*[-] "
	}
	title := m.Title
	if title == "" {
		title = "Untitled"
	}
	line := mark + tview.Escape(title)
	if year := m.Year(); year != "" {
		line += fmt.Sprintf(" [::d](%s)[::-]", year)
	}
	if m.VoteAverage > 0 {
		line += fmt.Sprintf("  [::d]%.1f[::-]", m.VoteAverage)
	}
	return line
}

func (a *App) clearDetails() {
	a.detailID = 0
	a.detail.SetText("")
}

// showDetails renders m at once and fills in the full record when it arrives.
func (a *App) showDetails(ctx context.Context, m models.Movie) {
	a.detailID = m.ID
	a.detail.SetText(a.detailText(m, nil))
	a.detail.ScrollToBeginning()

	if !a.catalog.Configured() {
		return
	}
	a.async(ctx, func() func() {
		details, err := a.catalog.Details(ctx, m.ID)
		if err != nil {
			return nil
		}
		return func() {
			if a.detailID == m.ID {
				a.detail.SetText(a.detailText(m, details))
			}
		}
	})
}

func (a *App) detailText(m models.Movie, d *models.MovieDetails) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[::b]Title:[::-]\n%s\n\n", tview.Escape(m.Title))
	if d != nil && d.Tagline != "" {
		fmt.Fprintf(&b, "[::i]%s[::-]\n\n", tview.Escape(d.Tagline))
	}
	if m.ReleaseDate != "" {
		fmt.Fprintf(&b, "[::b]Released:[::-]\n%s\n\n", m.ReleaseDate)
	}
	fmt.Fprintf(&b, "[::b]Rating:[::-]\n%.1f / 10\n\n", m.VoteAverage)
	if d != nil {
		if d.Runtime > 0 {
			fmt.Fprintf(&b, "[::b]Runtime:[::-]\n%d min\n\n", d.Runtime)
		}
		if len(d.Genres) > 0 {
			names := make([]string, 0, len(d.Genres))
			for _, g := range d.Genres {
				names = append(names, g.Name)
			}
			fmt.Fprintf(&b, "[::b]Genres:[::-]\n%s\n\n", tview.Escape(strings.Join(names, ", ")))
		}
	}
	overview := m.Overview
	if overview == "" {
		overview = "No overview available."
	}
	fmt.Fprintf(&b, "[::b]Overview:[::-]\n%s\n\n", tview.Escape(overview))
	if poster := a.catalog.ImageURL(m.PosterPath, tmdb.PosterSize); poster != "" {
		fmt.Fprintf(&b, "[::b]Poster:[::-]\n%s\n\n", poster)
	}
	if a.state.Wishlist.IsWishlisted(m.ID) {
		b.WriteString("[yellow]* In your wishlist[-]\n")
	}
	fmt.Fprintf(&b, "[::d]%s[::-]", parser.MovieURL(m.ID))
	return b.String()
}

// openMovie opens the TMDB page of m.
func (a *App) openMovie(m models.Movie) {
	if err := OpenURL(parser.MovieURL(m.ID)); err != nil {
		a.flash("[red]Cannot open browser: " + tview.Escape(err.Error()))
	}
}
