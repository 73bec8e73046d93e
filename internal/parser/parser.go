package parser

import (
	"io"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/dastanaron/movies/internal/models"
)

// MovieURLPrefix is the public TMDB page of a movie; the ID follows it.
const MovieURLPrefix = "https://www.themoviedb.org/movie/"

// Attributes written on each exported link besides HREF.
const (
	AttrPoster   = "data-poster"
	AttrBackdrop = "data-backdrop"
	AttrRating   = "data-rating"
	AttrRelease  = "data-release"
)

// MovieURL returns the TMDB page of a movie.
func MovieURL(id int) string {
	return MovieURLPrefix + strconv.Itoa(id)
}

// MovieID extracts the movie ID from a TMDB movie page URL such as
// https://www.themoviedb.org/movie/550-fight-club.
func MovieID(rawURL string) (int, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return 0, false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if host != "themoviedb.org" {
		return 0, false
	}
	rest, ok := strings.CutPrefix(u.Path, "/movie/")
	if !ok {
		return 0, false
	}
	end := 0
	for end < len(rest) && rest[end] >= '0' && rest[end] <= '9' {
		end++
	}
	id, err := strconv.Atoi(rest[:end])
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// ParseWishlistHTML reads movies from a Netscape bookmark file. Links that do
// not point at a TMDB movie page are skipped. A <DD> following a link holds
// the overview.
func ParseWishlistHTML(r io.Reader) ([]models.Movie, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var movies []models.Movie
	last := -1

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "a":
				if m, ok := movieFromAnchor(n); ok {
					movies = append(movies, m)
					last = len(movies) - 1
				} else {
					last = -1
				}
			case "dd":
				if last >= 0 && movies[last].Overview == "" {
					movies[last].Overview = strings.TrimSpace(ownText(n))
				}
			case "h3", "dl":
				last = -1
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	walk(doc)
	return movies, nil
}

func movieFromAnchor(n *html.Node) (models.Movie, bool) {
	var m models.Movie
	for _, attr := range n.Attr {
		switch attr.Key {
		case "href":
			id, ok := MovieID(attr.Val)
			if !ok {
				return m, false
			}
			m.ID = id
		case AttrPoster:
			m.PosterPath = attr.Val
		case AttrBackdrop:
			m.BackdropPath = attr.Val
		case AttrRating:
			if v, err := strconv.ParseFloat(attr.Val, 64); err == nil {
				m.VoteAverage = v
			}
		case AttrRelease:
			m.ReleaseDate = attr.Val
		}
	}
	if m.ID == 0 {
		return m, false
	}
	if n.FirstChild != nil {
		m.Title = strings.TrimSpace(n.FirstChild.Data)
	}
	return m, true
}

// ownText concatenates the text children of n, stopping at nested elements.
func ownText(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.TextNode {
			break
		}
		b.WriteString(c.Data)
	}
	return b.String()
}
