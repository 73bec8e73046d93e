package ui

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/dastanaron/movies/internal/models"
	"github.com/dastanaron/movies/internal/pager"
)

// popularView lists popular movies either as numbered pages or as an
// endless list.
type popularView struct {
	a       *App
	ctx     context.Context
	pages   *tview.Pages
	table   *tview.Table
	list    *tview.List
	ctrl    *pager.Controller
	page    int
	perPage int
	shown   []models.Movie
	filling bool
}

func newPopularView(a *App) *popularView {
	v := &popularView{
		a:       a,
		ctx:     context.Background(),
		pages:   tview.NewPages(),
		table:   tview.NewTable().SetSelectable(true, false).SetFixed(1, 0),
		list:    tview.NewList().ShowSecondaryText(false),
		page:    1,
		perPage: pager.PerPage(0, pager.CellBreakpoints),
	}
	v.ctrl = pager.NewController(func(ctx context.Context, page int) []models.Movie {
		return a.catalog.FetchPage(ctx, models.CategoryPopular, page, models.DefaultFilters())
	}, a.cfg.MaxTablePages)

	v.table.SetBorder(true)
	v.table.SetSelectionChangedFunc(func(row, _ int) {
		if m, ok := v.tableMovie(row); ok {
			v.a.showDetails(v.ctx, m)
		}
	})

	v.list.SetBorder(true).SetTitle("Popular")
	v.list.SetChangedFunc(func(index int, _, _ string, _ rune) {
		if v.filling {
			return
		}
		items := v.ctrl.Append().Items()
		if index < len(items) {
			v.a.showDetails(v.ctx, items[index])
		}
		if pager.NearEnd(index, len(items), v.a.cfg.ScrollThreshold) {
			v.loadMore()
		}
	})

	v.pages.AddPage(pager.ModeTable.String(), v.table, true, true)
	v.pages.AddPage(pager.ModeInfinite.String(), v.list, true, false)
	return v
}

func (v *popularView) root() tview.Primitive { return v.pages }

func (v *popularView) focus() tview.Primitive {
	if v.ctrl.Mode() == pager.ModeInfinite {
		return v.list
	}
	return v.table
}

func (v *popularView) hints() string {
	if v.ctrl.Mode() == pager.ModeInfinite {
		return "[::b]v[::r] pages  [::b]m[::r] more  [::b]g[::r] top  [::b]Enter[::r] wishlist  [::b]o[::r] open"
	}
	return "[::b]v[::r] scroll  [::b]n/p[::r] page  [::b]Enter[::r] wishlist  [::b]o[::r] open"
}

func (v *popularView) mount(ctx context.Context) {
	v.ctx = ctx
	v.ctrl.Reset()
	v.page = 1
	v.shown = nil
	v.table.Clear()
	v.setList(nil)
	if !v.a.requireCatalog() {
		return
	}
	v.start()
}

// start loads the collection of the current mode from scratch.
func (v *popularView) start() {
	v.pages.SwitchToPage(v.ctrl.Mode().String())
	if v.ctrl.Mode() == pager.ModeInfinite {
		v.list.SetTitle("Popular")
		v.loadMore()
		return
	}

	v.table.SetTitle("Popular  [::d]loading...[::-]")
	fixed := v.ctrl.Fixed()
	ctx := v.ctx
	v.a.async(ctx, func() func() {
		if !fixed.Load(ctx) {
			return nil
		}
		return func() {
			if v.ctrl.Mode() == pager.ModeTable {
				v.renderTable()
			}
		}
	})
}

func (v *popularView) resize(width int) {
	perPage := pager.PerPage(width, pager.CellBreakpoints)
	if perPage == v.perPage {
		return
	}
	// Keep the first visible movie on screen.
	first := (v.page - 1) * v.perPage
	v.perPage = perPage
	v.page = first/perPage + 1
	if v.ctrl.Mode() == pager.ModeTable {
		v.renderTable()
	}
}

func (v *popularView) renderTable() {
	fixed := v.ctrl.Fixed()
	if fixed.Loading() {
		return
	}
	v.shown, v.page = fixed.Window(v.page, v.perPage)
	last := pager.LastPage(fixed.Total(), v.perPage)

	v.table.Clear()
	for col, title := range []string{"#", "Title", "Released", "Rating"} {
		v.table.SetCell(0, col, tview.NewTableCell(title).
			SetAttributes(tcell.AttrBold).
			SetSelectable(false))
	}
	offset := (v.page - 1) * v.perPage
	for i, m := range v.shown {
		row := i + 1
		v.table.SetCell(row, 0, tview.NewTableCell(fmt.Sprint(offset+row)).SetTextColor(tcell.ColorGray))
		mark := ""
		if v.a.state.Wishlist.IsWishlisted(m.ID) {
			mark = "[yellow]*[-] "
		}
		v.table.SetCell(row, 1, tview.NewTableCell(mark+tview.Escape(m.Title)).SetExpansion(1))
		v.table.SetCell(row, 2, tview.NewTableCell(m.ReleaseDate))
		v.table.SetCell(row, 3, tview.NewTableCell(fmt.Sprintf("%.1f", m.VoteAverage)).SetAlign(tview.AlignRight))
	}

	if len(v.shown) == 0 {
		v.table.SetTitle("Popular  [::d]no movies[::-]")
		return
	}
	v.table.SetTitle(fmt.Sprintf("Popular  [::d]page %d/%d[::-]", v.page, last))
	v.table.Select(1, 0)
	v.table.ScrollToBeginning()
}

func (v *popularView) tableMovie(row int) (models.Movie, bool) {
	if row < 1 || row > len(v.shown) {
		return models.Movie{}, false
	}
	return v.shown[row-1], true
}

// turn moves delta pages in table mode.
func (v *popularView) turn(delta int) {
	fixed := v.ctrl.Fixed()
	last := pager.LastPage(fixed.Total(), v.perPage)
	next := v.page + delta
	if next < 1 || next > last {
		return
	}
	v.page = next
	v.renderTable()
}

// loadMore appends the next upstream page. Calls while a page is in flight
// are dropped by the pager.
func (v *popularView) loadMore() {
	appender := v.ctrl.Append()
	if appender.Loading() {
		return
	}
	ctx := v.ctx
	v.list.SetTitle("Popular  [::d]loading...[::-]")
	v.a.async(ctx, func() func() {
		added, ok := appender.Next(ctx)
		if !ok {
			return nil
		}
		return func() {
			if v.ctrl.Mode() != pager.ModeInfinite {
				return
			}
			v.appendList(added)
			v.list.SetTitle(fmt.Sprintf("Popular  [::d]%d movies, page %d[::-]", appender.Len(), appender.Page()))
		}
	})
}

func (v *popularView) appendList(movies []models.Movie) {
	v.filling = true
	defer func() { v.filling = false }()
	for _, m := range movies {
		v.list.AddItem(movieLine(m, v.a.state.Wishlist.IsWishlisted(m.ID)), "", 0, nil)
	}
}

func (v *popularView) setList(movies []models.Movie) {
	current := v.list.GetCurrentItem()
	v.filling = true
	v.list.Clear()
	v.filling = false
	v.appendList(movies)
	if current < v.list.GetItemCount() {
		v.filling = true
		v.list.SetCurrentItem(current)
		v.filling = false
	}
}

func (v *popularView) toggleMode() {
	v.ctrl.Toggle()
	v.page = 1
	v.shown = nil
	v.table.Clear()
	v.setList(nil)
	v.a.clearDetails()
	v.start()
	v.a.app.SetFocus(v.focus())
	v.a.updateStatus()
}

func (v *popularView) current() (models.Movie, bool) {
	if v.ctrl.Mode() == pager.ModeInfinite {
		items := v.ctrl.Append().Items()
		index := v.list.GetCurrentItem()
		if index < 0 || index >= len(items) {
			return models.Movie{}, false
		}
		return items[index], true
	}
	row, _ := v.table.GetSelection()
	return v.tableMovie(row)
}

func (v *popularView) input(event *tcell.EventKey) *tcell.EventKey {
	infinite := v.ctrl.Mode() == pager.ModeInfinite
	switch event.Key() {
	case tcell.KeyEnter:
		if m, ok := v.current(); ok {
			v.a.toggleWishlist(m)
			if infinite {
				v.setList(v.ctrl.Append().Items())
			} else {
				row, _ := v.table.GetSelection()
				v.renderTable()
				v.table.Select(row, 0)
			}
			v.a.showDetails(v.ctx, m)
		}
		return nil
	case tcell.KeyLeft:
		if !infinite {
			v.turn(-1)
			return nil
		}
	case tcell.KeyRight:
		if !infinite {
			v.turn(1)
			return nil
		}
	case tcell.KeyRune:
		switch event.Rune() {
		case 'v':
			v.toggleMode()
			return nil
		case 'o':
			if m, ok := v.current(); ok {
				v.a.openMovie(m)
			}
			return nil
		case 'p':
			if !infinite {
				v.turn(-1)
				return nil
			}
		case 'n':
			if !infinite {
				v.turn(1)
				return nil
			}
		case 'm':
			if infinite {
				v.loadMore()
				return nil
			}
		case 'g':
			if infinite && v.list.GetItemCount() > 0 {
				v.list.SetCurrentItem(0)
				return nil
			}
		}
	}
	return event
}
