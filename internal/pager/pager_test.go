package pager

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dastanaron/movies/internal/models"
)

func moviesFrom(start, n int) []models.Movie {
	out := make([]models.Movie, n)
	for i := range out {
		out[i] = models.Movie{ID: start + i, Title: "m"}
	}
	return out
}

// staticSource serves pageSize items per page up to pages, then empty pages.
type staticSource struct {
	mu       sync.Mutex
	pageSize int
	pages    int
	failOn   map[int]bool
	calls    []int
}

func (s *staticSource) fetch(_ context.Context, page int) []models.Movie {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, page)
	if s.failOn[page] || page > s.pages {
		return []models.Movie{}
	}
	return moviesFrom((page-1)*s.pageSize, s.pageSize)
}

func (s *staticSource) requested() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]int(nil), s.calls...)
}

func TestPerPage(t *testing.T) {
	tests := []struct {
		width int
		bp    Breakpoints
		want  int
	}{
		{320, PixelBreakpoints, 6},
		{768, PixelBreakpoints, 6},
		{769, PixelBreakpoints, 10},
		{1188, PixelBreakpoints, 10},
		{1189, PixelBreakpoints, 14},
		{80, CellBreakpoints, 6},
		{120, CellBreakpoints, 10},
		{200, CellBreakpoints, 14},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PerPage(tt.width, tt.bp), "width %d", tt.width)
	}
}

func TestWindowClamping(t *testing.T) {
	items := moviesFrom(0, 135)

	assert.Equal(t, 10, LastPage(len(items), 14))

	last, page := Window(items, 10, 14)
	assert.Equal(t, 10, page)
	assert.Len(t, last, 9)
	assert.Equal(t, 126, last[0].ID)

	over, page := Window(items, 11, 14)
	assert.Equal(t, 10, page)
	assert.Equal(t, last, over)

	under, page := Window(items, 0, 14)
	assert.Equal(t, 1, page)
	assert.Len(t, under, 14)
	assert.Equal(t, 0, under[0].ID)
}

func TestWindowEmpty(t *testing.T) {
	items, page := Window(nil, 3, 10)
	assert.Equal(t, 1, page)
	assert.Empty(t, items)
	assert.Equal(t, 1, LastPage(0, 10))
}

func TestShouldLoadMore(t *testing.T) {
	assert.True(t, ShouldLoadMore(900, 100, 1050, 100))
	assert.False(t, ShouldLoadMore(500, 100, 1050, 100))

	assert.True(t, NearEnd(17, 20, 3))
	assert.False(t, NearEnd(10, 20, 3))
	assert.True(t, NearEnd(0, 0, 3))
}

func TestFixedLoadStopsAtEmptyPage(t *testing.T) {
	src := &staticSource{pageSize: 20, pages: 3}
	f := NewFixed(src.fetch, 50)

	require.True(t, f.Load(context.Background()))
	assert.Equal(t, 60, f.Total())
	assert.Equal(t, []int{1, 2, 3, 4}, src.requested())
	assert.False(t, f.Loading())

	assert.False(t, f.Load(context.Background()), "second load is a no-op")
	assert.Len(t, src.requested(), 4)
}

func TestFixedLoadRespectsMaxPages(t *testing.T) {
	src := &staticSource{pageSize: 20, pages: 500}
	f := NewFixed(src.fetch, 5)

	require.True(t, f.Load(context.Background()))
	assert.Equal(t, 100, f.Total())
	assert.Equal(t, []int{1, 2, 3, 4, 5}, src.requested())
}

func TestFixedKeepsPagesBeforeFailure(t *testing.T) {
	src := &staticSource{pageSize: 20, pages: 10, failOn: map[int]bool{3: true}}
	f := NewFixed(src.fetch, 50)

	require.True(t, f.Load(context.Background()))
	assert.Equal(t, 40, f.Total())

	items, page := f.Window(7, 14)
	assert.Equal(t, 3, page)
	assert.Len(t, items, 12)
}

func TestAppendAdvancesMonotonically(t *testing.T) {
	src := &staticSource{pageSize: 20, pages: 10, failOn: map[int]bool{2: true}}
	a := NewAppend(src.fetch)

	for i := 0; i < 3; i++ {
		_, ok := a.Next(context.Background())
		require.True(t, ok)
	}

	assert.Equal(t, []int{1, 2, 3}, src.requested(), "failed page 2 is skipped, not retried")
	assert.Equal(t, 3, a.Page())
	assert.Equal(t, 40, a.Len())

	items := a.Items()
	assert.Equal(t, 0, items[0].ID)
	assert.Equal(t, 40, items[20].ID)
}

func TestAppendSingleFlight(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	a := NewAppend(func(_ context.Context, page int) []models.Movie {
		started <- struct{}{}
		<-release
		return moviesFrom(page*100, 20)
	})

	done := make(chan bool)
	go func() {
		_, ok := a.Next(context.Background())
		done <- ok
	}()
	<-started

	assert.True(t, a.Loading())
	_, ok := a.Next(context.Background())
	assert.False(t, ok, "a second trigger while loading is ignored")

	close(release)
	assert.True(t, <-done)
	assert.Equal(t, 1, a.Page())
	assert.Equal(t, 20, a.Len())
	assert.False(t, a.Loading())
}

func TestAppendResetDiscardsStaleResponse(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	var cancelled bool
	a := NewAppend(func(ctx context.Context, page int) []models.Movie {
		started <- struct{}{}
		select {
		case <-release:
		case <-ctx.Done():
			cancelled = true
		}
		return moviesFrom(0, 20)
	})

	done := make(chan bool)
	go func() {
		_, ok := a.Next(context.Background())
		done <- ok
	}()
	<-started

	a.Reset()
	assert.False(t, <-done)
	assert.True(t, cancelled)
	assert.Equal(t, 0, a.Len())
	assert.Equal(t, 0, a.Page())

	close(release)
	_, ok := a.Next(context.Background())
	require.True(t, ok)
	assert.Equal(t, 1, a.Page())
	assert.Equal(t, 20, a.Len())
}

func TestControllerModeSwitchDiscardsCollection(t *testing.T) {
	src := &staticSource{pageSize: 20, pages: 3}
	c := NewController(src.fetch, 50)
	ctx := context.Background()

	require.True(t, c.Fixed().Load(ctx))
	assert.Equal(t, 60, c.Fixed().Total())

	assert.Equal(t, ModeInfinite, c.Toggle())
	assert.Equal(t, 0, c.Fixed().Total())

	_, ok := c.Append().Next(ctx)
	require.True(t, ok)
	_, ok = c.Append().Next(ctx)
	require.True(t, ok)
	assert.Equal(t, 2, c.Append().Page())

	assert.False(t, c.SetMode(ModeInfinite))
	assert.True(t, c.SetMode(ModeTable))
	assert.Equal(t, 0, c.Append().Len())
	assert.Equal(t, 0, c.Append().Page())
	assert.Equal(t, "table", c.Mode().String())

	require.True(t, c.Fixed().Load(ctx), "a discarded fixed collection loads again")
}

func TestReveal(t *testing.T) {
	r := NewReveal(20)
	assert.Equal(t, 20, r.Shown(45))
	assert.Equal(t, 5, r.Shown(5))

	assert.True(t, r.More(45))
	assert.Equal(t, 40, r.Shown(45))
	assert.True(t, r.More(45))
	assert.Equal(t, 45, r.Shown(45))
	assert.False(t, r.More(45))

	r.Reset()
	assert.Equal(t, 20, r.Shown(45))
}

func TestFixedResetCancelsLoad(t *testing.T) {
	started := make(chan struct{}, 1)
	f := NewFixed(func(ctx context.Context, page int) []models.Movie {
		if page == 1 {
			started <- struct{}{}
			<-ctx.Done()
			return []models.Movie{}
		}
		return moviesFrom(0, 20)
	}, 3)

	done := make(chan bool)
	go func() { done <- f.Load(context.Background()) }()
	<-started
	f.Reset()

	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("load was not cancelled")
	}
	assert.Equal(t, 0, f.Total())
}
