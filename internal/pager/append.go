package pager

import (
	"context"
	"sync"

	"github.com/dastanaron/movies/internal/models"
)

// Append grows a list one upstream page at a time.
// The page counter only increases; a failed page is skipped, not retried.
type Append struct {
	mu         sync.Mutex
	fetch      FetchFunc
	page       int
	items      []models.Movie
	loading    bool
	generation uint64
	cancel     context.CancelFunc
}

// NewAppend creates an append-mode pager. The first Next fetches page 1.
func NewAppend(fetch FetchFunc) *Append {
	return &Append{fetch: fetch}
}

// Next fetches the following page and appends it. ok is false when a fetch
// is already in flight or the response was superseded by a Reset.
func (a *Append) Next(ctx context.Context) (added []models.Movie, ok bool) {
	a.mu.Lock()
	if a.loading {
		a.mu.Unlock()
		return nil, false
	}
	a.loading = true
	a.page++
	page := a.page
	gen := a.generation
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.mu.Unlock()
	defer cancel()

	movies := a.fetch(ctx, page)

	a.mu.Lock()
	defer a.mu.Unlock()
	if gen != a.generation {
		return nil, false
	}
	a.loading = false
	a.cancel = nil
	a.items = append(a.items, movies...)
	return movies, true
}

// Page is the last page requested, 0 before the first fetch.
func (a *Append) Page() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.page
}

// Loading reports whether a fetch is in flight.
func (a *Append) Loading() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loading
}

// Items returns a copy of the accumulated list.
func (a *Append) Items() []models.Movie {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]models.Movie, len(a.items))
	copy(out, a.items)
	return out
}

// Len is the number of accumulated items.
func (a *Append) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.items)
}

// Reset discards the list, cancels an in-flight fetch and restarts at page 1.
func (a *Append) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.generation++
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.page = 0
	a.items = nil
	a.loading = false
}
