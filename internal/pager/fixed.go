package pager

import (
	"context"
	"sync"

	"github.com/dastanaron/movies/internal/models"
)

// Fixed materialises up to maxPages upstream pages into one collection.
type Fixed struct {
	mu         sync.Mutex
	fetch      FetchFunc
	maxPages   int
	items      []models.Movie
	loading    bool
	loaded     bool
	generation uint64
	cancel     context.CancelFunc
}

// NewFixed creates a fixed-page loader.
func NewFixed(fetch FetchFunc, maxPages int) *Fixed {
	if maxPages < 1 {
		maxPages = 1
	}
	return &Fixed{fetch: fetch, maxPages: maxPages}
}

// Load fetches pages 1..maxPages in order, stopping at the first empty page.
// Pages already collected are kept when a later page fails. It returns false
// without fetching when a load is in flight or the collection is already loaded.
func (f *Fixed) Load(ctx context.Context) bool {
	f.mu.Lock()
	if f.loading || f.loaded {
		f.mu.Unlock()
		return false
	}
	f.loading = true
	gen := f.generation
	ctx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.mu.Unlock()
	defer cancel()

	for page := 1; page <= f.maxPages; page++ {
		movies := f.fetch(ctx, page)

		f.mu.Lock()
		if gen != f.generation {
			f.mu.Unlock()
			return false
		}
		f.items = append(f.items, movies...)
		f.mu.Unlock()

		if len(movies) == 0 {
			break
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.generation {
		return false
	}
	f.loading = false
	f.loaded = true
	f.cancel = nil
	return true
}

// Items returns a copy of the collection.
func (f *Fixed) Items() []models.Movie {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Movie, len(f.items))
	copy(out, f.items)
	return out
}

// Total is the number of collected items.
func (f *Fixed) Total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

// Loading reports whether a load is in flight.
func (f *Fixed) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

// Window returns the items of a display page and the clamped page index.
func (f *Fixed) Window(page, perPage int) ([]models.Movie, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items, page := Window(f.items, page, perPage)
	out := make([]models.Movie, len(items))
	copy(out, items)
	return out, page
}

// Reset discards the collection and cancels an in-flight load.
func (f *Fixed) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generation++
	if f.cancel != nil {
		f.cancel()
		f.cancel = nil
	}
	f.items = nil
	f.loading = false
	f.loaded = false
}
