package ui

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/dastanaron/movies/internal/models"
	"github.com/dastanaron/movies/internal/pager"
)

// searchView searches by title and filters discover results. Results grow
// as the cursor nears the end.
type searchView struct {
	a       *App
	ctx     context.Context
	layout  *tview.Flex
	query   *tview.InputField
	genre   *tview.DropDown
	rating  *tview.DropDown
	sort    *tview.DropDown
	results *tview.List
	history *tview.List
	focused int

	mu      sync.Mutex
	filters models.Filters

	pages   *pager.Append
	filling bool
	syncing bool
}

func newSearchView(a *App) *searchView {
	v := &searchView{
		a:       a,
		ctx:     context.Background(),
		query:   tview.NewInputField().SetLabel("Search: ").SetPlaceholder("movie title"),
		genre:   tview.NewDropDown(),
		rating:  tview.NewDropDown(),
		sort:    tview.NewDropDown(),
		results: tview.NewList().ShowSecondaryText(false),
		history: tview.NewList().ShowSecondaryText(false),
		filters: models.DefaultFilters(),
	}
	v.pages = pager.NewAppend(func(ctx context.Context, page int) []models.Movie {
		return a.catalog.FetchPage(ctx, models.CategorySearch, page, v.snapshot())
	})

	v.query.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter {
			v.submit(v.query.GetText())
		}
	})

	v.genre.SetOptions(models.OptionLabels(models.GenreOptions), nil)
	v.rating.SetOptions(models.OptionLabels(models.RatingOptions), nil)
	v.sort.SetOptions(models.OptionLabels(models.SortOptions), nil)
	v.syncDropDowns()
	v.genre.SetSelectedFunc(func(_ string, index int) {
		v.setFilter(func(f *models.Filters) { f.Genre = models.GenreOptions[index].Value })
	})
	v.rating.SetSelectedFunc(func(_ string, index int) {
		v.setFilter(func(f *models.Filters) { f.Rating = models.RatingOptions[index].Value })
	})
	v.sort.SetSelectedFunc(func(_ string, index int) {
		v.setFilter(func(f *models.Filters) { f.Sort = models.SortKey(models.SortOptions[index].Value) })
	})

	v.results.SetBorder(true).SetTitle("Results")
	v.results.SetChangedFunc(func(index int, _, _ string, _ rune) {
		if v.filling {
			return
		}
		items := v.pages.Items()
		if index < len(items) {
			v.a.showDetails(v.ctx, items[index])
		}
		if pager.NearEnd(index, len(items), v.a.cfg.ScrollThreshold) {
			v.loadMore()
		}
	})
	v.history.SetBorder(true).SetTitle("Recent searches")

	filters := tview.NewFlex().
		AddItem(v.query, 0, 2, true).
		AddItem(v.genre, 0, 1, false).
		AddItem(v.rating, 0, 1, false).
		AddItem(v.sort, 0, 1, false)
	body := tview.NewFlex().
		AddItem(v.results, 0, 3, false).
		AddItem(v.history, 0, 1, false)
	v.layout = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(filters, 1, 0, true).
		AddItem(body, 0, 1, false)
	return v
}

func (v *searchView) root() tview.Primitive { return v.layout }

func (v *searchView) focusables() []tview.Primitive {
	return []tview.Primitive{v.query, v.genre, v.rating, v.sort, v.results, v.history}
}

func (v *searchView) focus() tview.Primitive { return v.focusables()[v.focused] }

func (v *searchView) hints() string {
	return "[::b]Tab[::r] next  [::b]Enter[::r] search/wishlist  [::b]Ctrl-R[::r] reset filters  [::b]C[::r] clear history"
}

func (v *searchView) mount(ctx context.Context) {
	v.ctx = ctx
	v.focused = 0
	v.renderHistory()
	if !v.a.requireCatalog() {
		return
	}
	v.restart()
}

func (v *searchView) snapshot() models.Filters {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.filters
}

// setFilter applies change and restarts the results if anything changed.
func (v *searchView) setFilter(change func(f *models.Filters)) {
	if v.syncing {
		return
	}
	v.mu.Lock()
	before := v.filters
	change(&v.filters)
	changed := before != v.filters
	v.mu.Unlock()
	if changed {
		v.restart()
	}
}

func (v *searchView) syncDropDowns() {
	f := v.snapshot()
	v.syncing = true
	defer func() { v.syncing = false }()
	v.genre.SetCurrentOption(models.OptionIndex(models.GenreOptions, f.Genre))
	v.rating.SetCurrentOption(models.OptionIndex(models.RatingOptions, f.Rating))
	v.sort.SetCurrentOption(models.OptionIndex(models.SortOptions, string(f.Sort)))
}

// submit runs a title search and remembers the query.
func (v *searchView) submit(query string) {
	query = strings.TrimSpace(query)
	if query != "" {
		if err := v.a.state.History.Record(query); err != nil {
			v.a.flash("[red]Cannot save search history: " + tview.Escape(err.Error()))
		}
		v.renderHistory()
	}
	v.mu.Lock()
	v.filters.Query = query
	v.mu.Unlock()
	v.restart()
}

func (v *searchView) resetFilters() {
	v.mu.Lock()
	v.filters.Reset()
	v.mu.Unlock()
	v.query.SetText("")
	v.syncDropDowns()
	v.restart()
}

// restart drops the current results and fetches page 1 for the current filters.
func (v *searchView) restart() {
	v.pages.Reset()
	v.filling = true
	v.results.Clear()
	v.filling = false
	v.a.clearDetails()
	if !v.a.catalog.Configured() {
		return
	}
	v.loadMore()
}

func (v *searchView) loadMore() {
	if v.pages.Loading() {
		return
	}
	ctx := v.ctx
	pages := v.pages
	v.results.SetTitle("Results  [::d]loading...[::-]")
	v.a.async(ctx, func() func() {
		added, ok := pages.Next(ctx)
		if !ok {
			return nil
		}
		return func() {
			v.appendResults(added)
			if pages.Len() == 0 {
				v.results.SetTitle("Results  [::d]no movies found[::-]")
				return
			}
			v.results.SetTitle(fmt.Sprintf("Results  [::d]%d movies[::-]", pages.Len()))
		}
	})
}

func (v *searchView) appendResults(movies []models.Movie) {
	v.filling = true
	defer func() { v.filling = false }()
	for _, m := range movies {
		v.results.AddItem(movieLine(m, v.a.state.Wishlist.IsWishlisted(m.ID)), "", 0, nil)
	}
}

func (v *searchView) renderResults() {
	current := v.results.GetCurrentItem()
	v.filling = true
	v.results.Clear()
	v.filling = false
	v.appendResults(v.pages.Items())
	if current < v.results.GetItemCount() {
		v.results.SetCurrentItem(current)
	}
}

func (v *searchView) renderHistory() {
	v.history.Clear()
	for _, q := range v.a.state.History.List() {
		v.history.AddItem(tview.Escape(q), "", 0, nil)
	}
}

func (v *searchView) setFocus(i int) {
	n := len(v.focusables())
	v.focused = (i%n + n) % n
	v.a.app.SetFocus(v.focus())
}

func (v *searchView) input(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyTab:
		v.setFocus(v.focused + 1)
		return nil
	case tcell.KeyBacktab:
		v.setFocus(v.focused - 1)
		return nil
	case tcell.KeyCtrlR:
		v.resetFilters()
		return nil
	case tcell.KeyEnter:
		switch v.focus() {
		case v.results:
			items := v.pages.Items()
			if index := v.results.GetCurrentItem(); index >= 0 && index < len(items) {
				v.a.toggleWishlist(items[index])
				v.renderResults()
				v.a.showDetails(v.ctx, items[index])
			}
			return nil
		case v.history:
			queries := v.a.state.History.List()
			if index := v.history.GetCurrentItem(); index >= 0 && index < len(queries) {
				v.query.SetText(queries[index])
				v.submit(queries[index])
				v.setFocus(4)
			}
			return nil
		}
	case tcell.KeyRune:
		if v.a.typing() {
			return event
		}
		switch event.Rune() {
		case 'C':
			if err := v.a.state.History.Clear(); err != nil {
				v.a.showError(fmt.Sprintf("Error clearing history: %v", err))
				return nil
			}
			v.renderHistory()
			v.a.flash("Search history cleared.")
			return nil
		case 'o':
			items := v.pages.Items()
			if index := v.results.GetCurrentItem(); v.focus() == v.results && index >= 0 && index < len(items) {
				v.a.openMovie(items[index])
				return nil
			}
		case '/':
			v.setFocus(0)
			return nil
		}
	}
	return event
}
