package models

import (
	"strconv"
	"strings"
)

// All is the "no restriction" value for genre and rating filters.
const All = "all"

// SortKey is a supported discover ordering.
type SortKey string

const (
	SortPopularity  SortKey = "popularity.desc"
	SortReleaseDate SortKey = "release_date.desc"
	SortVoteAverage SortKey = "vote_average.desc"
)

// Option is a selectable filter value with its label.
type Option struct {
	Value string
	Label string
}

// GenreOptions lists the genres offered by the search view.
var GenreOptions = []Option{
	{All, "All genres"},
	{"28", "Action"},
	{"878", "Science Fiction"},
	{"12", "Adventure"},
	{"16", "Animation"},
	{"10751", "Family"},
}

// RatingOptions lists the rating bands. Each band is "min-max".
var RatingOptions = []Option{
	{All, "All ratings"},
	{"9-10", "9 - 10"},
	{"8-9", "8 - 9"},
	{"7-8", "7 - 8"},
	{"6-7", "6 - 7"},
	{"5-6", "5 - 6"},
	{"0-5", "5 and below"},
}

// SortOptions lists the supported orderings.
var SortOptions = []Option{
	{string(SortPopularity), "Most popular"},
	{string(SortReleaseDate), "Newest"},
	{string(SortVoteAverage), "Highest rated"},
}

// Filters holds the search view criteria.
type Filters struct {
	Genre  string
	Rating string
	Sort   SortKey
	Query  string
}

// DefaultFilters returns genre=all, rating=all, sort=popularity, no query.
func DefaultFilters() Filters {
	return Filters{
		Genre:  All,
		Rating: All,
		Sort:   SortPopularity,
	}
}

// Reset restores the defaults.
func (f *Filters) Reset() {
	*f = DefaultFilters()
}

// RatingBounds parses the rating band. ok is false for "all" or a malformed band.
func (f Filters) RatingBounds() (gte, lte string, ok bool) {
	if f.Rating == "" || f.Rating == All {
		return "", "", false
	}
	lo, hi, found := strings.Cut(f.Rating, "-")
	if !found {
		return "", "", false
	}
	if _, err := strconv.ParseFloat(lo, 64); err != nil {
		return "", "", false
	}
	if _, err := strconv.ParseFloat(hi, 64); err != nil {
		return "", "", false
	}
	return lo, hi, true
}

// GenreID returns the genre filter, or "" for all genres.
func (f Filters) GenreID() string {
	if f.Genre == All {
		return ""
	}
	return f.Genre
}

// OptionIndex returns the index of value in opts, or 0.
func OptionIndex(opts []Option, value string) int {
	for i, o := range opts {
		if o.Value == value {
			return i
		}
	}
	return 0
}

// OptionLabels returns the labels of opts in order.
func OptionLabels(opts []Option) []string {
	labels := make([]string, len(opts))
	for i, o := range opts {
		labels[i] = o.Label
	}
	return labels
}
