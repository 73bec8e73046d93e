package service

import (
	"context"
	"sync"

	"github.com/sourcegraph/conc"

	"github.com/dastanaron/movies/internal/models"
)

// Fetcher loads one page of a catalog listing. It never fails; errors are
// reported by the fetcher and surface as an empty page.
type Fetcher interface {
	FetchPage(ctx context.Context, category models.Category, page int, filters models.Filters) []models.Movie
}

// HomeCategories are the rows of the home view, in display order.
var HomeCategories = []models.Category{
	models.CategoryPopular,
	models.CategoryNowPlaying,
	models.CategoryTopRated,
	models.CategoryUpcoming,
}

// HomeFeed is the content of the home view.
type HomeFeed struct {
	Rows map[models.Category][]models.Movie
	// Banner rotates through the movies now playing.
	Banner []models.Movie
}

// CatalogService composes catalog listings for the views.
type CatalogService struct {
	fetcher Fetcher
}

func NewCatalogService(fetcher Fetcher) *CatalogService {
	return &CatalogService{fetcher: fetcher}
}

// Home fetches the first page of every home row concurrently.
func (s *CatalogService) Home(ctx context.Context) HomeFeed {
	feed := HomeFeed{Rows: make(map[models.Category][]models.Movie, len(HomeCategories))}
	filters := models.DefaultFilters()

	var mu sync.Mutex
	var wg conc.WaitGroup
	for _, category := range HomeCategories {
		category := category
		wg.Go(func() {
			movies := s.fetcher.FetchPage(ctx, category, 1, filters)
			mu.Lock()
			feed.Rows[category] = movies
			mu.Unlock()
		})
	}
	wg.Wait()

	feed.Banner = feed.Rows[models.CategoryNowPlaying]
	return feed
}

// Page fetches one page of category.
func (s *CatalogService) Page(ctx context.Context, category models.Category, page int, filters models.Filters) []models.Movie {
	return s.fetcher.FetchPage(ctx, category, page, filters)
}
