package models

import "strconv"

// Movie represents a catalog entry as returned by TMDB list endpoints.
// The JSON shape is also the persisted wishlist format.
type Movie struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Overview     string  `json:"overview,omitempty"`
	PosterPath   string  `json:"poster_path,omitempty"`
	BackdropPath string  `json:"backdrop_path,omitempty"`
	VoteAverage  float64 `json:"vote_average"`
	ReleaseDate  string  `json:"release_date,omitempty"`
	GenreIDs     []int   `json:"genre_ids,omitempty"`
	Popularity   float64 `json:"popularity,omitempty"`
}

// Genre is a TMDB genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MovieDetails is the payload of /movie/{id}.
type MovieDetails struct {
	Movie
	Tagline string  `json:"tagline,omitempty"`
	Runtime int     `json:"runtime,omitempty"`
	Genres  []Genre `json:"genres,omitempty"`
}

// Page is one page of a paginated catalog response.
type Page struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// Year returns the release year or an empty string.
func (m Movie) Year() string {
	if len(m.ReleaseDate) < 4 {
		return ""
	}
	if _, err := strconv.Atoi(m.ReleaseDate[:4]); err != nil {
		return ""
	}
	return m.ReleaseDate[:4]
}

// Category selects a catalog listing.
type Category string

const (
	CategoryPopular    Category = "popular"
	CategoryNowPlaying Category = "now-playing"
	CategoryTopRated   Category = "top-rated"
	CategoryUpcoming   Category = "upcoming"
	CategoryDiscover   Category = "discover"
	CategorySearch     Category = "search"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryPopular, CategoryNowPlaying, CategoryTopRated, CategoryUpcoming,
		CategoryDiscover, CategorySearch:
		return true
	}
	return false
}

// Title is the heading used for a category row.
func (c Category) Title() string {
	switch c {
	case CategoryPopular:
		return "Popular"
	case CategoryNowPlaying:
		return "Now Playing"
	case CategoryTopRated:
		return "Top Rated"
	case CategoryUpcoming:
		return "Upcoming"
	case CategoryDiscover:
		return "Discover"
	case CategorySearch:
		return "Search"
	}
	return string(c)
}
