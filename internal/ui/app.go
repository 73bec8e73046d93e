package ui

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/dastanaron/movies/internal/config"
	"github.com/dastanaron/movies/internal/models"
	"github.com/dastanaron/movies/internal/notify"
	"github.com/dastanaron/movies/internal/service"
)

const statusTimeout = 4 * time.Second

// Catalog is the part of the TMDB client the views use.
type Catalog interface {
	FetchPage(ctx context.Context, category models.Category, page int, filters models.Filters) []models.Movie
	Details(ctx context.Context, id int) (*models.MovieDetails, error)
	ImageURL(path, size string) string
	Configured() bool
}

// view is one routed screen.
type view interface {
	root() tview.Primitive
	// mount runs on every navigation to the view. ctx ends when the user leaves.
	mount(ctx context.Context)
	focus() tview.Primitive
	// input handles view keys; returning nil consumes the event.
	input(event *tcell.EventKey) *tcell.EventKey
	hints() string
}

// resizer is implemented by views whose layout depends on the terminal width.
type resizer interface {
	resize(width int)
}

// App represents the TUI application
type App struct {
	app     *tview.Application
	pages   *tview.Pages
	header  *tview.TextView
	detail  *tview.TextView
	status  *tview.TextView
	state   *service.State
	catalog Catalog
	cfg     *config.Config

	views      map[models.Route]view
	route      models.Route
	width      int
	ctx        context.Context
	viewCancel context.CancelFunc
	detailID   int

	statusMu  sync.Mutex
	statusSeq int
}

// NewApp creates a new application instance
func NewApp(state *service.State, catalog Catalog, cfg *config.Config) *App {
	a := &App{
		app:     tview.NewApplication(),
		pages:   tview.NewPages(),
		header:  tview.NewTextView().SetDynamicColors(true),
		detail:  tview.NewTextView().SetDynamicColors(true).SetWrap(true),
		status:  tview.NewTextView().SetDynamicColors(true),
		state:   state,
		catalog: catalog,
		cfg:     cfg,
		ctx:     context.Background(),
	}
	a.views = map[models.Route]view{
		models.RouteSignin:   newSigninView(a),
		models.RouteHome:     newHomeView(a),
		models.RoutePopular:  newPopularView(a),
		models.RouteSearch:   newSearchView(a),
		models.RouteWishlist: newWishlistView(a),
	}
	return a
}

// Run starts the application on the route the session allows.
func (a *App) Run(ctx context.Context) error {
	var cancel context.CancelFunc
	a.ctx, cancel = context.WithCancel(ctx)
	defer cancel()

	a.detail.SetBorder(true).SetTitle("Details")
	for route, v := range a.views {
		a.pages.AddPage(string(route), v.root(), true, false)
	}

	body := tview.NewFlex().
		AddItem(a.pages, 0, 3, true).
		AddItem(a.detail, 0, 1, false)

	main := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(a.header, 1, 0, false).
		AddItem(body, 0, 1, true).
		AddItem(a.status, 1, 0, false)

	a.app.SetRoot(main, true)
	a.app.SetInputCapture(a.globalInput)
	a.app.SetBeforeDrawFunc(func(screen tcell.Screen) bool {
		width, _ := screen.Size()
		if width != a.width {
			a.width = width
			if r, ok := a.views[a.route].(resizer); ok {
				r.resize(width)
			}
		}
		return false
	})

	go func() {
		<-a.ctx.Done()
		a.app.Stop()
	}()

	a.navigate(models.RouteHome)
	return a.app.Run()
}

var _ notify.Notifier = (*App)(nil)

// Notify implements notify.Notifier. It is safe to call from any goroutine.
func (a *App) Notify(level notify.Level, message string) {
	a.app.QueueUpdateDraw(func() {
		switch level {
		case notify.Blocking:
			a.showError(message)
		case notify.Error:
			a.flash("[red]" + tview.Escape(message))
		case notify.Success:
			a.flash("[green]" + tview.Escape(message))
		default:
			a.flash(tview.Escape(message))
		}
	})
}

// navigate shows route, or the route the session gate sends the user to.
// Must run on the UI goroutine.
func (a *App) navigate(route models.Route) {
	resolved := a.state.Session.Resolve(route)
	v, ok := a.views[resolved]
	if !ok {
		return
	}

	if a.viewCancel != nil {
		a.viewCancel()
	}
	viewCtx, cancel := context.WithCancel(a.ctx)
	a.viewCancel = cancel
	a.route = resolved

	a.pages.RemovePage("error")
	a.pages.RemovePage("confirm")
	a.pages.SwitchToPage(string(resolved))
	a.clearDetails()
	v.mount(viewCtx)
	if r, ok := v.(resizer); ok && a.width > 0 {
		r.resize(a.width)
	}
	a.app.SetFocus(v.focus())
	a.updateHeader()
	a.updateStatus()
}

func (a *App) updateHeader() {
	if a.route == models.RouteSignin {
		a.header.SetText("[::b]MOVIES[::-]")
		return
	}

	text := "[::b]MOVIES[::-] "
	for i, item := range []struct {
		route models.Route
		title string
	}{
		{models.RouteHome, "Home"},
		{models.RoutePopular, "Popular"},
		{models.RouteSearch, "Search"},
		{models.RouteWishlist, "Wishlist"},
	} {
		if item.route == a.route {
			text += fmt.Sprintf("  [yellow::b]%d %s[-::-]", i+1, item.title)
		} else {
			text += fmt.Sprintf("  %d %s", i+1, item.title)
		}
	}
	if name := a.state.Session.Profile().DisplayName(); name != "" {
		text += fmt.Sprintf("   [::d]%s[::-]", tview.Escape(name))
	}
	a.header.SetText(text)
}

func (a *App) updateStatus() {
	a.statusMu.Lock()
	a.statusSeq++
	a.statusMu.Unlock()

	hints := "[::b]q[::r] quit"
	if v, ok := a.views[a.route]; ok {
		hints = v.hints() + "  " + hints
	}
	if a.route != models.RouteSignin {
		hints = "[::b]1-4[::r] menu  [::b]x[::r] logout  " + hints
	}
	a.status.SetText(hints)
}

// flash shows a transient message in the status line.
func (a *App) flash(text string) {
	a.statusMu.Lock()
	a.statusSeq++
	seq := a.statusSeq
	a.statusMu.Unlock()

	a.status.SetText(text)
	time.AfterFunc(statusTimeout, func() {
		a.app.QueueUpdateDraw(func() {
			a.statusMu.Lock()
			current := a.statusSeq
			a.statusMu.Unlock()
			if current == seq {
				a.updateStatus()
			}
		})
	})
}

// typing reports whether keys should go to a text field.
func (a *App) typing() bool {
	switch a.app.GetFocus().(type) {
	case *tview.InputField, *tview.DropDown:
		return true
	}
	return false
}

func (a *App) globalInput(event *tcell.EventKey) *tcell.EventKey {
	// Modals handle their own keys.
	if a.pages.HasPage("confirm") || a.pages.HasPage("error") {
		return event
	}

	v := a.views[a.route]
	if v != nil {
		if event = v.input(event); event == nil {
			return nil
		}
	}

	if a.typing() || event.Key() != tcell.KeyRune {
		return event
	}

	switch event.Rune() {
	case 'q':
		a.app.Stop()
		return nil
	}
	if a.route == models.RouteSignin {
		return event
	}

	switch event.Rune() {
	case '1':
		a.navigate(models.RouteHome)
	case '2':
		a.navigate(models.RoutePopular)
	case '3':
		a.navigate(models.RouteSearch)
	case '4':
		a.navigate(models.RouteWishlist)
	case 'x':
		a.showConfirm("Sign out?", a.logout)
	default:
		return event
	}
	return nil
}

func (a *App) logout() {
	go func() {
		ctx, cancel := context.WithTimeout(a.ctx, a.cfg.HTTPTimeout)
		defer cancel()
		err := a.state.Session.Logout(ctx)
		a.app.QueueUpdateDraw(func() {
			if err != nil {
				a.showError(fmt.Sprintf("Error signing out: %v", err))
				return
			}
			a.navigate(models.RouteSignin)
		})
	}()
}

// toggleWishlist flips m and reports the result. Must run on the UI goroutine.
func (a *App) toggleWishlist(m models.Movie) bool {
	added, err := a.state.Wishlist.Toggle(m)
	if err != nil {
		a.showError(fmt.Sprintf("Error saving wishlist: %v", err))
		return !added
	}
	if added {
		a.flash(fmt.Sprintf("[green]Added to wishlist:[-] %s", tview.Escape(m.Title)))
	} else {
		a.flash(fmt.Sprintf("Removed from wishlist: %s", tview.Escape(m.Title)))
	}
	return added
}

// requireCatalog shows the missing key error once per mount.
func (a *App) requireCatalog() bool {
	if a.catalog.Configured() {
		return true
	}
	a.showError("TMDB API key is not configured. Set TMDB_API_KEY and restart.")
	return false
}

// async runs fetch off the UI goroutine and applies its result unless ctx
// ended in the meantime.
func (a *App) async(ctx context.Context, fetch func() func()) {
	go func() {
		apply := fetch()
		if apply == nil {
			return
		}
		a.app.QueueUpdateDraw(func() {
			if ctx.Err() != nil {
				return
			}
			apply()
		})
	}()
}

// showError shows a blocking error modal
func (a *App) showError(message string) {
	if a.pages.HasPage("error") {
		return
	}
	modal := tview.NewModal().
		SetText(message).
		AddButtons([]string{"OK"}).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			a.pages.RemovePage("error")
			a.restoreFocus()
		})

	modal.SetBorder(true).SetTitle("Error")
	a.pages.AddPage("error", modal, true, true)
	a.app.SetFocus(modal)
}

func (a *App) showConfirm(message string, onConfirm func()) {
	modal := tview.NewModal().
		SetText(message).
		AddButtons([]string{"Cancel", "OK"}).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			a.pages.RemovePage("confirm")
			a.restoreFocus()
			if buttonIndex == 1 && onConfirm != nil {
				onConfirm()
			}
		})

	modal.SetBorder(true).SetTitle("Confirm")
	a.pages.AddPage("confirm", modal, true, true)
	a.app.SetFocus(modal)
}

func (a *App) restoreFocus() {
	if v, ok := a.views[a.route]; ok {
		a.app.SetFocus(v.focus())
	}
}

// OpenURL opens url in the system browser.
func OpenURL(url string) error {
	var cmd string
	var args []string
	switch runtime.GOOS {
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start"}
	case "darwin":
		cmd = "open"
	default:
		cmd = "xdg-open"
	}
	args = append(args, url)
	return exec.Command(cmd, args...).Start()
}
