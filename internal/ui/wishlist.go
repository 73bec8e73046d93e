package ui

import (
	"context"
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/dastanaron/movies/internal/models"
	"github.com/dastanaron/movies/internal/pager"
)

type wishlistView struct {
	a       *App
	ctx     context.Context
	layout  *tview.Flex
	filter  *tview.InputField
	list    *tview.List
	reveal  *pager.Reveal
	matches []models.Movie
	filling bool
}

func newWishlistView(a *App) *wishlistView {
	v := &wishlistView{
		a:      a,
		ctx:    context.Background(),
		filter: tview.NewInputField().SetLabel("Filter: "),
		list:   tview.NewList().ShowSecondaryText(false),
		reveal: pager.NewReveal(a.cfg.WishlistBatch),
	}
	v.filter.SetChangedFunc(func(string) {
		v.reveal.Reset()
		v.refresh()
	})
	v.filter.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter || key == tcell.KeyEscape {
			v.a.app.SetFocus(v.list)
		}
	})

	v.list.SetBorder(true).SetTitle("Wishlist")
	v.list.SetChangedFunc(func(index int, _, _ string, _ rune) {
		if v.filling {
			return
		}
		if index < len(v.matches) {
			v.a.showDetails(v.ctx, v.matches[index])
		}
		if pager.NearEnd(index, v.list.GetItemCount(), v.a.cfg.ScrollThreshold) && v.reveal.More(len(v.matches)) {
			v.render()
		}
	})

	v.layout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(v.filter, 1, 0, false).
		AddItem(v.list, 0, 1, true)
	return v
}

func (v *wishlistView) root() tview.Primitive  { return v.layout }
func (v *wishlistView) focus() tview.Primitive { return v.list }

func (v *wishlistView) hints() string {
	return "[::b]/[::r] filter  [::b]Enter[::r] remove  [::b]o[::r] open"
}

func (v *wishlistView) mount(ctx context.Context) {
	v.ctx = ctx
	if err := v.a.state.Wishlist.Load(); err != nil {
		v.a.showError(fmt.Sprintf("Error loading wishlist: %v", err))
	}
	v.filter.SetText("")
	v.reveal.Reset()
	v.refresh()
}

// refresh reapplies the filter and redraws the visible batch.
func (v *wishlistView) refresh() {
	v.matches = v.a.state.Wishlist.Filter(v.filter.GetText())
	v.render()
}

func (v *wishlistView) render() {
	current := v.list.GetCurrentItem()
	shown := v.reveal.Shown(len(v.matches))

	v.filling = true
	defer func() { v.filling = false }()
	v.list.Clear()
	for _, m := range v.matches[:shown] {
		v.list.AddItem(movieLine(m, true), "", 0, nil)
	}
	if current >= shown {
		current = shown - 1
	}
	if current >= 0 {
		v.list.SetCurrentItem(current)
	}

	total := len(v.a.state.Wishlist.List())
	switch {
	case total == 0:
		v.list.SetTitle("Wishlist  [::d]empty[::-]")
	case len(v.matches) != total:
		v.list.SetTitle(fmt.Sprintf("Wishlist  [::d]%d of %d match[::-]", len(v.matches), total))
	default:
		v.list.SetTitle(fmt.Sprintf("Wishlist  [::d]%d movies[::-]", total))
	}
}

func (v *wishlistView) current() (models.Movie, bool) {
	index := v.list.GetCurrentItem()
	if index < 0 || index >= v.list.GetItemCount() || index >= len(v.matches) {
		return models.Movie{}, false
	}
	return v.matches[index], true
}

func (v *wishlistView) input(event *tcell.EventKey) *tcell.EventKey {
	if v.a.app.GetFocus() == v.filter {
		return event
	}
	switch event.Key() {
	case tcell.KeyEnter:
		if m, ok := v.current(); ok {
			v.a.toggleWishlist(m)
			v.refresh()
			v.a.clearDetails()
		}
		return nil
	case tcell.KeyRune:
		switch event.Rune() {
		case '/':
			v.a.app.SetFocus(v.filter)
			return nil
		case 'o':
			if m, ok := v.current(); ok {
				v.a.openMovie(m)
			}
			return nil
		}
	}
	return event
}
