package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/nbutton23/zxcvbn-go"
	"golang.org/x/crypto/bcrypt"

	"github.com/dastanaron/movies/internal/auth"
	"github.com/dastanaron/movies/internal/config"
	"github.com/dastanaron/movies/internal/models"
	"github.com/dastanaron/movies/internal/notify"
	"github.com/dastanaron/movies/internal/repository"
)

// MinPasswordScore is the lowest zxcvbn score accepted at signup.
const MinPasswordScore = 1

// logoutKeys are removed on logout. Everything else survives, including the
// wishlist, the local account and the remember-me fields.
var logoutKeys = []string{
	models.KeySessionFlag,
	models.KeyKakaoUserID,
	models.KeyKakaoUserName,
	models.KeyKakaoUserEmail,
	models.KeyKakaoAccessToken,
	models.KeySearchHistory,
}

// LogoutKeys returns the keys cleared by Logout.
func LogoutKeys() []string {
	return append([]string(nil), logoutKeys...)
}

// SessionGate decides whether protected views may render and runs the
// login and logout flows.
type SessionGate struct {
	mu       sync.Mutex
	store    repository.Store
	mode     config.SessionCheckMode
	authMode config.AuthProvider
	provider auth.Provider
	notifier notify.Notifier
	cost     int
}

func NewSessionGate(store repository.Store, cfg *config.Config, provider auth.Provider, notifier notify.Notifier) *SessionGate {
	return &SessionGate{
		store:    store,
		mode:     cfg.SessionCheck,
		authMode: cfg.AuthProvider,
		provider: provider,
		notifier: notifier,
		cost:     bcrypt.DefaultCost,
	}
}

// Check reports whether a session is active.
func (g *SessionGate) Check() bool {
	value, ok, err := g.store.Get(models.KeySessionFlag)
	if err != nil {
		slog.Warn("session flag unreadable", slog.Any("error", err))
		return false
	}
	if g.mode == config.SessionFlagPresent {
		return ok && value != ""
	}
	return value == "true"
}

// Resolve returns the route to show when route is requested.
// Protected routes fall back to the sign-in view without a session, and an
// active session skips the sign-in view.
func (g *SessionGate) Resolve(route models.Route) models.Route {
	active := g.Check()
	switch {
	case route.Protected() && !active:
		return models.RouteSignin
	case route == models.RouteSignin && active:
		return models.RouteHome
	}
	return route
}

// External reports whether the identity provider login is offered.
func (g *SessionGate) External() bool {
	return g.provider != nil || g.authMode == config.AuthExternal
}

// Signup registers the local account, replacing any previous one.
func (g *SessionGate) Signup(email, password, confirm string, agreed bool) error {
	email = strings.TrimSpace(email)
	if err := validateEmail(email); err != nil {
		return g.fail(err)
	}
	if password != confirm {
		return g.fail(ErrPasswordMismatch)
	}
	if !agreed {
		return g.fail(ErrTermsNotAccepted)
	}
	if zxcvbn.PasswordStrength(password, []string{email}).Score < MinPasswordScore {
		return g.fail(ErrWeakPassword)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), g.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for _, kv := range [][2]string{
		{models.KeyUsername, email},
		{models.KeyPassword, string(hash)},
		{models.KeyUserID, uuid.NewString()},
	} {
		if err := g.store.Set(kv[0], kv[1]); err != nil {
			return fmt.Errorf("store account: %w", err)
		}
	}
	g.notifier.Notify(notify.Success, "Account created. Sign in to continue.")
	return nil
}

// Login checks the credentials against the local account and starts a
// session. On failure nothing is written.
func (g *SessionGate) Login(email, password string, remember bool) (models.Route, error) {
	email = strings.TrimSpace(email)

	g.mu.Lock()
	defer g.mu.Unlock()

	username, ok, err := g.store.Get(models.KeyUsername)
	if err != nil {
		return "", err
	}
	stored, hasPassword, err := g.store.Get(models.KeyPassword)
	if err != nil {
		return "", err
	}
	if !ok || !hasPassword || username != email {
		return "", g.fail(ErrInvalidCredentials)
	}

	legacy, match := checkPassword(stored, password)
	if !match {
		return "", g.fail(ErrInvalidCredentials)
	}

	if legacy {
		if hash, err := bcrypt.GenerateFromPassword([]byte(password), g.cost); err == nil {
			if err := g.store.Set(models.KeyPassword, string(hash)); err != nil {
				slog.Warn("password upgrade failed", slog.Any("error", err))
			}
		}
	}

	if err := g.store.Set(models.KeySessionFlag, "true"); err != nil {
		return "", fmt.Errorf("start session: %w", err)
	}
	if remember {
		err = g.store.Set(models.KeyRememberMe, "true")
		if err == nil {
			err = g.store.Set(models.KeyRememberedEmail, email)
		}
	} else {
		err = repository.RemoveKeys(g.store, models.KeyRememberMe, models.KeyRememberedEmail)
	}
	if err != nil {
		slog.Warn("remember-me not updated", slog.Any("error", err))
	}

	slog.Info("signed in", slog.String("provider", string(config.AuthLocal)))
	g.notifier.Notify(notify.Success, fmt.Sprintf("Welcome, %s!", models.Profile{Email: email}.DisplayName()))
	return models.RouteHome, nil
}

// LoginExternal signs in through the identity provider and stores its profile.
func (g *SessionGate) LoginExternal(ctx context.Context) (models.Route, error) {
	if g.provider == nil {
		return "", g.fail(auth.ErrNotConfigured)
	}

	profile, token, err := g.provider.Login(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", g.fail(err)
	}

	name := profile.Name
	if name == "" {
		name = "Unknown"
	}
	accessToken := ""
	if token != nil {
		accessToken = token.AccessToken
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	for _, kv := range [][2]string{
		{models.KeyKakaoUserID, profile.ID},
		{models.KeyKakaoUserName, name},
		{models.KeyKakaoUserEmail, profile.Email},
		{models.KeyKakaoAccessToken, accessToken},
		{models.KeySessionFlag, "true"},
	} {
		if err := g.store.Set(kv[0], kv[1]); err != nil {
			return "", fmt.Errorf("store profile: %w", err)
		}
	}

	slog.Info("signed in", slog.String("provider", string(config.AuthExternal)), slog.String("user_id", profile.ID))
	g.notifier.Notify(notify.Success, fmt.Sprintf("Welcome, %s!", name))
	return models.RouteHome, nil
}

// Logout ends the session. A provider logout failure is logged and the
// local session is cleared anyway.
func (g *SessionGate) Logout(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	token, _, err := g.store.Get(models.KeyKakaoAccessToken)
	if err != nil {
		return err
	}
	if g.provider != nil && token != "" {
		if err := g.provider.Logout(ctx, token); err != nil {
			slog.Warn("provider logout failed", slog.Any("error", err))
		}
	}

	if err := repository.RemoveKeys(g.store, logoutKeys...); err != nil {
		return err
	}
	slog.Info("signed out")
	return nil
}

// Profile describes the signed-in user.
func (g *SessionGate) Profile() models.Profile {
	get := func(key string) string {
		v, _, _ := g.store.Get(key)
		return v
	}
	if id := get(models.KeyKakaoUserID); id != "" {
		return models.Profile{
			ID:    id,
			Name:  get(models.KeyKakaoUserName),
			Email: get(models.KeyKakaoUserEmail),
		}
	}
	return models.Profile{
		ID:    get(models.KeyUserID),
		Email: get(models.KeyUsername),
	}
}

// RememberedEmail returns the email saved by a remember-me login.
func (g *SessionGate) RememberedEmail() (string, bool) {
	flag, _, _ := g.store.Get(models.KeyRememberMe)
	if flag != "true" {
		return "", false
	}
	email, ok, _ := g.store.Get(models.KeyRememberedEmail)
	return email, ok && email != ""
}

func (g *SessionGate) fail(err error) error {
	g.notifier.Notify(notify.Error, loginMessage(err))
	return err
}

func loginMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return "Login failed: check your email and password."
	case errors.Is(err, auth.ErrNotConfigured):
		return "Kakao login is not available: the client key is not configured."
	case errors.Is(err, auth.ErrDenied):
		return "Kakao login failed."
	}
	return err.Error()
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email, "@") {
		return ErrInvalidEmail
	}
	return nil
}

// checkPassword compares password against a stored bcrypt hash, or against
// a plaintext value written by older versions.
func checkPassword(stored, password string) (legacy, match bool) {
	if isBcrypt(stored) {
		return false, bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	return true, subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
}

func isBcrypt(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
