package service

import (
	"strings"
	"sync"

	"github.com/mozillazg/go-unidecode"

	"github.com/dastanaron/movies/internal/models"
	"github.com/dastanaron/movies/internal/repository"
)

// WishlistService provides business logic for the wishlist.
// Entries are unique by movie ID and kept in insertion order.
type WishlistService struct {
	mu    sync.Mutex
	store repository.Store
	items []models.Movie
}

// NewWishlistService creates a new wishlist service
func NewWishlistService(store repository.Store) *WishlistService {
	return &WishlistService{store: store}
}

// Load replaces the in-memory wishlist with the stored one.
// A missing or malformed value loads as empty.
func (s *WishlistService) Load() error {
	var stored []models.Movie
	if _, err := repository.GetJSON(s.store, models.KeyWishlist, &stored); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = dedupe(stored)
	return nil
}

// IsWishlisted reports whether id is in the wishlist.
func (s *WishlistService) IsWishlisted(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indexOf(id) >= 0
}

// Toggle removes movie if present and adds it otherwise.
// It returns true when the movie is in the wishlist afterwards.
func (s *WishlistService) Toggle(movie models.Movie) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(movie.ID); i >= 0 {
		s.items = append(s.items[:i:i], s.items[i+1:]...)
		return false, s.save()
	}
	s.items = append(s.items, movie)
	return true, s.save()
}

// Add inserts the movies that are not wishlisted yet and returns how many were added.
func (s *WishlistService) Add(movies ...models.Movie) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, m := range movies {
		if m.ID <= 0 || s.indexOf(m.ID) >= 0 {
			continue
		}
		s.items = append(s.items, m)
		added++
	}
	if added == 0 {
		return 0, nil
	}
	return added, s.save()
}

// Remove deletes id from the wishlist. Removing an absent id is a no-op.
func (s *WishlistService) Remove(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil
	}
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	return s.save()
}

// List returns the wishlist in insertion order.
func (s *WishlistService) List() []models.Movie {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Movie, len(s.items))
	copy(out, s.items)
	return out
}

// Filter returns the entries whose title contains query, ignoring case and
// diacritics.
func (s *WishlistService) Filter(query string) []models.Movie {
	needle := fold(query)
	all := s.List()
	if needle == "" {
		return all
	}

	var filtered []models.Movie
	for _, m := range all {
		if strings.Contains(fold(m.Title), needle) {
			filtered = append(filtered, m)
		}
	}
	return filtered
}

// Replace overwrites the wishlist, dropping duplicate and invalid entries.
func (s *WishlistService) Replace(movies []models.Movie) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = dedupe(movies)
	return s.save()
}

func (s *WishlistService) indexOf(id int) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

// save writes the wishlist; an empty wishlist removes the key.
func (s *WishlistService) save() error {
	if len(s.items) == 0 {
		return s.store.Remove(models.KeyWishlist)
	}
	return repository.SetJSON(s.store, models.KeyWishlist, s.items)
}

func dedupe(movies []models.Movie) []models.Movie {
	seen := make(map[int]bool, len(movies))
	out := make([]models.Movie, 0, len(movies))
	for _, m := range movies {
		if m.ID <= 0 || seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		out = append(out, m)
	}
	return out
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(unidecode.Unidecode(s)))
}
