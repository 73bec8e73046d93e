// Package service holds the application state and the operations the views
// run against it. Every service persists through one repository.Store.
package service

import (
	"errors"
	"log/slog"

	"github.com/dastanaron/movies/internal/auth"
	"github.com/dastanaron/movies/internal/config"
	"github.com/dastanaron/movies/internal/notify"
	"github.com/dastanaron/movies/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrTermsNotAccepted   = errors.New("terms must be accepted")
	ErrWeakPassword       = errors.New("password is too weak")
)

// State is the single application state object. The UI root owns it and
// hands it to each view.
type State struct {
	Store    repository.Store
	Wishlist *WishlistService
	History  *HistoryService
	Session  *SessionGate
	Catalog  *CatalogService
}

// NewState wires the services over store. provider may be nil when no
// external identity provider is configured.
func NewState(store repository.Store, cfg *config.Config, fetcher Fetcher, provider auth.Provider, notifier notify.Notifier) *State {
	if notifier == nil {
		notifier = notify.Log{}
	}
	return &State{
		Store:    store,
		Wishlist: NewWishlistService(store),
		History:  NewHistoryService(store),
		Session:  NewSessionGate(store, cfg, provider, notifier),
		Catalog:  NewCatalogService(fetcher),
	}
}

// Load refreshes the in-memory copies of the persisted collections.
func (s *State) Load() error {
	if err := s.Wishlist.Load(); err != nil {
		return err
	}
	if err := s.History.Load(); err != nil {
		return err
	}
	slog.Debug("state loaded",
		slog.Int("wishlist", len(s.Wishlist.List())),
		slog.Int("history", len(s.History.List())))
	return nil
}
