package service

import (
	"strings"
	"sync"

	"github.com/dastanaron/movies/internal/models"
	"github.com/dastanaron/movies/internal/repository"
)

// HistoryLimit is the number of queries kept in the search history.
const HistoryLimit = 10

// HistoryService keeps recent search queries, most recent first.
type HistoryService struct {
	mu    sync.Mutex
	store repository.Store
	items []string
}

func NewHistoryService(store repository.Store) *HistoryService {
	return &HistoryService{store: store}
}

// Load replaces the in-memory history with the stored one.
func (s *HistoryService) Load() error {
	var stored []string
	if _, err := repository.GetJSON(s.store, models.KeySearchHistory, &stored); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = normalizeHistory(stored)
	return nil
}

// Record moves query to the front of the history. Blank queries are ignored.
func (s *HistoryService) Record(query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = normalizeHistory(append([]string{query}, s.items...))
	return repository.SetJSON(s.store, models.KeySearchHistory, s.items)
}

// List returns the history, most recent first.
func (s *HistoryService) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// Clear forgets every query.
func (s *HistoryService) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	return s.store.Remove(models.KeySearchHistory)
}

// Compact rewrites the stored history in its normalized form.
func (s *HistoryService) Compact() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = normalizeHistory(s.items)
	if len(s.items) == 0 {
		return s.store.Remove(models.KeySearchHistory)
	}
	return repository.SetJSON(s.store, models.KeySearchHistory, s.items)
}

// normalizeHistory drops blanks and later duplicates and caps the length.
func normalizeHistory(queries []string) []string {
	seen := make(map[string]bool, len(queries))
	out := make([]string, 0, HistoryLimit)
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" || seen[q] {
			continue
		}
		seen[q] = true
		out = append(out, q)
		if len(out) == HistoryLimit {
			break
		}
	}
	return out
}
