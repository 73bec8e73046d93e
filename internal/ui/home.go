package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/dastanaron/movies/internal/models"
	"github.com/dastanaron/movies/internal/service"
)

// homeView shows a rotating banner over one list per home category.
type homeView struct {
	a      *App
	ctx    context.Context
	layout *tview.Flex
	banner *tview.TextView
	lists  []*tview.List
	rows   [][]models.Movie

	bannerMovies []models.Movie
	bannerIndex  int
	focused      int
	filling      bool
}

func newHomeView(a *App) *homeView {
	v := &homeView{
		a:      a,
		ctx:    context.Background(),
		banner: tview.NewTextView().SetDynamicColors(true).SetWrap(true),
	}
	v.banner.SetBorder(true).SetTitle("Now playing")

	columns := tview.NewFlex()
	for i, category := range service.HomeCategories {
		list := tview.NewList().ShowSecondaryText(false)
		list.SetBorder(true).SetTitle(category.Title())
		i := i
		list.SetChangedFunc(func(index int, _, _ string, _ rune) {
			if v.filling {
				return
			}
			if m, ok := v.movieAt(i, index); ok {
				v.a.showDetails(v.ctx, m)
			}
		})
		v.lists = append(v.lists, list)
		columns.AddItem(list, 0, 1, i == 0)
	}
	v.rows = make([][]models.Movie, len(v.lists))

	v.layout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.banner, 7, 0, false).
		AddItem(columns, 0, 1, true)
	return v
}

func (v *homeView) root() tview.Primitive  { return v.layout }
func (v *homeView) focus() tview.Primitive { return v.lists[v.focused] }

func (v *homeView) hints() string {
	return "[::b]Tab[::r] next row  [::b]Enter[::r] wishlist  [::b]o[::r] open  [::b][ ][::r] banner"
}

func (v *homeView) mount(ctx context.Context) {
	v.ctx = ctx
	v.focused = 0
	v.bannerMovies = nil
	v.bannerIndex = 0
	for i, list := range v.lists {
		list.Clear()
		v.rows[i] = nil
	}
	v.banner.SetText("Loading...")

	if !v.a.requireCatalog() {
		v.banner.SetText("")
		return
	}

	v.a.async(ctx, func() func() {
		feed := v.a.state.Catalog.Home(ctx)
		return func() { v.fill(feed) }
	})
	go v.rotate(ctx)
}

func (v *homeView) fill(feed service.HomeFeed) {
	for i, category := range service.HomeCategories {
		v.rows[i] = feed.Rows[category]
		v.renderRow(i)
	}
	v.bannerMovies = feed.Banner
	v.bannerIndex = 0
	v.renderBanner()
}

func (v *homeView) renderRow(i int) {
	list := v.lists[i]
	current := list.GetCurrentItem()
	v.filling = true
	defer func() { v.filling = false }()
	list.Clear()
	for _, m := range v.rows[i] {
		list.AddItem(movieLine(m, v.a.state.Wishlist.IsWishlisted(m.ID)), "", 0, nil)
	}
	if current < list.GetItemCount() {
		list.SetCurrentItem(current)
	}
}

func (v *homeView) renderBanner() {
	if len(v.bannerMovies) == 0 {
		v.banner.SetText("No movies are playing right now.")
		return
	}
	m := v.bannerMovies[v.bannerIndex]
	overview := m.Overview
	if overview == "" {
		overview = "No overview available."
	}
	v.banner.SetText(fmt.Sprintf("[::b]%s[::-]  [::d]%d/%d[::-]\n%s",
		tview.Escape(m.Title), v.bannerIndex+1, len(v.bannerMovies), tview.Escape(overview)))
}

// rotate advances the banner until ctx ends.
func (v *homeView) rotate(ctx context.Context) {
	ticker := time.NewTicker(v.a.cfg.BannerInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			v.a.app.QueueUpdateDraw(func() {
				if ctx.Err() == nil {
					v.step(1)
				}
			})
		}
	}
}

func (v *homeView) step(delta int) {
	n := len(v.bannerMovies)
	if n == 0 {
		return
	}
	v.bannerIndex = ((v.bannerIndex+delta)%n + n) % n
	v.renderBanner()
}

func (v *homeView) movieAt(row, index int) (models.Movie, bool) {
	if index < 0 || index >= len(v.rows[row]) {
		return models.Movie{}, false
	}
	return v.rows[row][index], true
}

func (v *homeView) input(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyTab, tcell.KeyBacktab:
		delta := 1
		if event.Key() == tcell.KeyBacktab {
			delta = len(v.lists) - 1
		}
		v.focused = (v.focused + delta) % len(v.lists)
		v.a.app.SetFocus(v.lists[v.focused])
		return nil
	case tcell.KeyEnter:
		if m, ok := v.movieAt(v.focused, v.lists[v.focused].GetCurrentItem()); ok {
			v.a.toggleWishlist(m)
			for i := range v.lists {
				v.renderRow(i)
			}
			v.a.showDetails(v.ctx, m)
		}
		return nil
	case tcell.KeyRune:
		switch event.Rune() {
		case '[':
			v.step(-1)
			return nil
		case ']':
			v.step(1)
			return nil
		case 'o':
			if m, ok := v.movieAt(v.focused, v.lists[v.focused].GetCurrentItem()); ok {
				v.a.openMovie(m)
			}
			return nil
		}
	}
	return event
}
