// Package auth signs users in through an external identity provider.
package auth

import (
	"context"
	"errors"

	"golang.org/x/oauth2"

	"github.com/dastanaron/movies/internal/models"
)

var (
	// ErrNotConfigured is returned when the provider has no client key.
	ErrNotConfigured = errors.New("identity provider is not configured")
	// ErrDenied is returned when the user or the provider rejects the login.
	ErrDenied = errors.New("login was denied by the identity provider")
	// ErrStateMismatch is returned when the callback carries a foreign state value.
	ErrStateMismatch = errors.New("oauth state mismatch")
)

// Provider runs an interactive login and revokes sessions.
type Provider interface {
	// Login blocks until the user finishes the provider flow or ctx ends.
	Login(ctx context.Context) (*models.Profile, *oauth2.Token, error)
	// Logout ends the provider session behind accessToken.
	Logout(ctx context.Context, accessToken string) error
}
