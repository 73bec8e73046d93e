// Package tmdb fetches movie catalogs from The Movie Database API.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/schema"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dastanaron/movies/internal/config"
	"github.com/dastanaron/movies/internal/models"
	"github.com/dastanaron/movies/internal/notify"
)

// Poster and backdrop sizes accepted by the image CDN.
const (
	PosterSize   = "w500"
	BackdropSize = "original"
)

// queryParams is encoded into the request query string.
type queryParams struct {
	APIKey   string `schema:"api_key"`
	Language string `schema:"language,omitempty"`
	Page     int    `schema:"page,omitempty"`
	Query    string `schema:"query,omitempty"`
	Genres   string `schema:"with_genres,omitempty"`
	VoteGTE  string `schema:"vote_average.gte,omitempty"`
	VoteLTE  string `schema:"vote_average.lte,omitempty"`
	SortBy   string `schema:"sort_by,omitempty"`
}

// Client talks to TMDB. FetchPage never returns an error to the caller;
// failures are reported through the notifier.
type Client struct {
	apiKey       string
	baseURL      string
	imageBaseURL string
	language     string
	httpClient   *http.Client
	notifier     notify.Notifier
	metrics      *Metrics
	encoder      *schema.Encoder
	details      *lru.Cache[int, *models.MovieDetails]
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMetrics records request metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a catalog client from configuration.
func NewClient(cfg *config.Config, notifier notify.Notifier, opts ...Option) (*Client, error) {
	if notifier == nil {
		notifier = notify.Log{}
	}
	size := cfg.DetailCacheSize
	if size <= 0 {
		size = 1
	}
	details, err := lru.New[int, *models.MovieDetails](size)
	if err != nil {
		return nil, fmt.Errorf("create detail cache: %w", err)
	}

	c := &Client{
		apiKey:       cfg.TMDBAPIKey,
		baseURL:      strings.TrimRight(cfg.TMDBBaseURL, "/"),
		imageBaseURL: strings.TrimRight(cfg.TMDBImageBaseURL, "/"),
		language:     cfg.LocaleTag(),
		httpClient:   &http.Client{Timeout: cfg.HTTPTimeout},
		notifier:     notifier,
		encoder:      schema.NewEncoder(),
		details:      details,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Configured reports whether an API key is available.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// FetchPage returns the movies of one catalog page. On any failure a single
// notification is emitted and an empty, non-nil slice is returned.
func (c *Client) FetchPage(ctx context.Context, category models.Category, page int, filters models.Filters) []models.Movie {
	p, err := c.Page(ctx, category, page, filters)
	if err != nil {
		c.report(category, err)
		return []models.Movie{}
	}
	return p.Results
}

// Page fetches one catalog page and returns the raw error on failure.
func (c *Client) Page(ctx context.Context, category models.Category, page int, filters models.Filters) (*models.Page, error) {
	if !c.Configured() {
		return nil, ErrMissingAPIKey
	}
	if page < 1 {
		page = 1
	}

	category = resolveCategory(category, filters)
	path, err := endpoint(category)
	if err != nil {
		return nil, err
	}

	params := queryParams{
		APIKey:   c.apiKey,
		Language: c.language,
		Page:     page,
	}
	switch category {
	case models.CategorySearch:
		params.Query = strings.TrimSpace(filters.Query)
	case models.CategoryDiscover:
		params.Genres = filters.GenreID()
		if gte, lte, ok := filters.RatingBounds(); ok {
			params.VoteGTE = gte
			params.VoteLTE = lte
		}
		params.SortBy = string(filters.Sort)
	}

	var result models.Page
	if err := c.get(ctx, string(category), path, params, &result); err != nil {
		return nil, err
	}
	if result.Results == nil {
		result.Results = []models.Movie{}
	}
	return &result, nil
}

// Details returns the full record for a movie. Results are kept in an LRU cache.
func (c *Client) Details(ctx context.Context, id int) (*models.MovieDetails, error) {
	if d, ok := c.details.Get(id); ok {
		c.metrics.IncCacheHit()
		return d, nil
	}
	if !c.Configured() {
		return nil, ErrMissingAPIKey
	}

	params := queryParams{APIKey: c.apiKey, Language: c.language}
	var details models.MovieDetails
	if err := c.get(ctx, "details", "/movie/"+strconv.Itoa(id), params, &details); err != nil {
		return nil, err
	}
	c.details.Add(id, &details)
	return &details, nil
}

// ImageURL builds an image URL from a path fragment, or "" when there is none.
func (c *Client) ImageURL(path, size string) string {
	if path == "" {
		return ""
	}
	return fmt.Sprintf("%s/%s%s", c.imageBaseURL, size, path)
}

func (c *Client) get(ctx context.Context, label, path string, params queryParams, out any) error {
	values := url.Values{}
	if err := c.encoder.Encode(params, values); err != nil {
		return fmt.Errorf("encoding query: %w", err)
	}
	fullURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, values.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	c.metrics.IncRequest(label)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.ObserveDuration(time.Since(start))
	if err != nil {
		return classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, URL: c.baseURL + path}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *Client) report(category models.Category, err error) {
	if errors.Is(err, context.Canceled) {
		slog.Debug("catalog request cancelled", slog.String("category", string(category)))
		return
	}
	label := errorTypeLabel(err)
	c.metrics.IncError(label)
	slog.Error("catalog request failed",
		slog.String("category", string(category)),
		slog.String("error_type", label),
		slog.Any("error", err),
	)
	c.notifier.Notify(notify.Error, userMessage(err))
}

// resolveCategory sends an empty search to discover.
func resolveCategory(category models.Category, filters models.Filters) models.Category {
	if category == models.CategorySearch && strings.TrimSpace(filters.Query) == "" {
		return models.CategoryDiscover
	}
	return category
}

func endpoint(category models.Category) (string, error) {
	switch category {
	case models.CategoryPopular:
		return "/movie/popular", nil
	case models.CategoryNowPlaying:
		return "/movie/now_playing", nil
	case models.CategoryTopRated:
		return "/movie/top_rated", nil
	case models.CategoryUpcoming:
		return "/movie/upcoming", nil
	case models.CategoryDiscover:
		return "/discover/movie", nil
	case models.CategorySearch:
		return "/search/movie", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCategory, category)
}
