package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"

	"github.com/dastanaron/movies/internal/auth"
	"github.com/dastanaron/movies/internal/config"
	"github.com/dastanaron/movies/internal/models"
	"github.com/dastanaron/movies/internal/notify"
	"github.com/dastanaron/movies/internal/repository"
)

func stored(t *testing.T, store repository.Store, key string) (string, bool) {
	t.Helper()
	v, ok, err := store.Get(key)
	require.NoError(t, err)
	return v, ok
}

// Wishlist

func TestWishlistToggleTwiceRestoresState(t *testing.T) {
	store := repository.NewMemoryRepository()
	w := NewWishlistService(store)
	_, err := w.Toggle(models.Movie{ID: 7, Title: "Seven"})
	require.NoError(t, err)
	before, _ := stored(t, store, models.KeyWishlist)

	movie := models.Movie{ID: 42, Title: "Answer", VoteAverage: 8.1}
	added, err := w.Toggle(movie)
	require.NoError(t, err)
	assert.True(t, added)
	assert.True(t, w.IsWishlisted(42))

	added, err = w.Toggle(movie)
	require.NoError(t, err)
	assert.False(t, added)
	assert.False(t, w.IsWishlisted(42))

	after, _ := stored(t, store, models.KeyWishlist)
	assert.Equal(t, before, after)
}

func TestWishlistToggleFromEmptyRestoresAbsentKey(t *testing.T) {
	store := repository.NewMemoryRepository()
	w := NewWishlistService(store)
	movie := models.Movie{ID: 42}

	_, err := w.Toggle(movie)
	require.NoError(t, err)
	_, err = w.Toggle(movie)
	require.NoError(t, err)

	_, ok := stored(t, store, models.KeyWishlist)
	assert.False(t, ok)
}

func TestWishlistPersistsAcrossReload(t *testing.T) {
	store := repository.NewMemoryRepository()
	movie := models.Movie{ID: 42, Title: "Answer", PosterPath: "/p.jpg", ReleaseDate: "2020-01-02"}

	_, err := NewWishlistService(store).Toggle(movie)
	require.NoError(t, err)

	fresh := NewWishlistService(store)
	require.NoError(t, fresh.Load())
	require.Len(t, fresh.List(), 1)
	assert.Equal(t, movie, fresh.List()[0])

	_, err = fresh.Toggle(movie)
	require.NoError(t, err)

	again := NewWishlistService(store)
	require.NoError(t, again.Load())
	assert.Empty(t, again.List())
}

func TestWishlistLoadMalformedIsEmpty(t *testing.T) {
	store := repository.NewMemoryRepository()
	require.NoError(t, store.Set(models.KeyWishlist, "{not json"))

	w := NewWishlistService(store)
	require.NoError(t, w.Load())
	assert.Empty(t, w.List())
}

func TestWishlistLoadDropsDuplicates(t *testing.T) {
	store := repository.NewMemoryRepository()
	require.NoError(t, store.Set(models.KeyWishlist, `[{"id":1,"title":"a"},{"id":1,"title":"b"},{"id":0},{"id":2,"title":"c"}]`))

	w := NewWishlistService(store)
	require.NoError(t, w.Load())
	list := w.List()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].Title)
	assert.Equal(t, 2, list[1].ID)
}

func TestWishlistAddAndRemove(t *testing.T) {
	store := repository.NewMemoryRepository()
	w := NewWishlistService(store)

	n, err := w.Add(models.Movie{ID: 1}, models.Movie{ID: 2}, models.Movie{ID: 1}, models.Movie{ID: -3})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = w.Add(models.Movie{ID: 2})
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, w.Remove(1))
	require.NoError(t, w.Remove(99))
	assert.Equal(t, []models.Movie{{ID: 2}}, w.List())
}

func TestWishlistFilter(t *testing.T) {
	w := NewWishlistService(repository.NewMemoryRepository())
	_, err := w.Add(
		models.Movie{ID: 1, Title: "Amélie"},
		models.Movie{ID: 2, Title: "Alien"},
		models.Movie{ID: 3, Title: "AMELIE 2"},
	)
	require.NoError(t, err)

	ids := func(movies []models.Movie) []int {
		var out []int
		for _, m := range movies {
			out = append(out, m.ID)
		}
		return out
	}
	assert.Equal(t, []int{1, 3}, ids(w.Filter("amelie")))
	assert.Equal(t, []int{1, 3}, ids(w.Filter("AMÉL")))
	assert.Equal(t, []int{1, 2, 3}, ids(w.Filter("  ")))
	assert.Empty(t, w.Filter("zzz"))
}

// History

func TestHistoryIgnoresBlank(t *testing.T) {
	store := repository.NewMemoryRepository()
	h := NewHistoryService(store)

	require.NoError(t, h.Record(""))
	require.NoError(t, h.Record("   "))
	assert.Empty(t, h.List())
	_, ok := stored(t, store, models.KeySearchHistory)
	assert.False(t, ok)
}

func TestHistoryCap(t *testing.T) {
	h := NewHistoryService(repository.NewMemoryRepository())
	for i := 1; i <= 13; i++ {
		require.NoError(t, h.Record(fmt.Sprintf("q%d", i)))
	}

	want := []string{"q13", "q12", "q11", "q10", "q9", "q8", "q7", "q6", "q5", "q4"}
	assert.Equal(t, want, h.List())
}

func TestHistoryMovesDuplicateToFront(t *testing.T) {
	store := repository.NewMemoryRepository()
	h := NewHistoryService(store)
	for _, q := range []string{"alien", "heat", "up"} {
		require.NoError(t, h.Record(q))
	}

	require.NoError(t, h.Record("alien"))
	assert.Equal(t, []string{"alien", "up", "heat"}, h.List())

	fresh := NewHistoryService(store)
	require.NoError(t, fresh.Load())
	assert.Equal(t, []string{"alien", "up", "heat"}, fresh.List())
}

func TestHistoryClearAndCompact(t *testing.T) {
	store := repository.NewMemoryRepository()
	var long []string
	for i := 0; i < 15; i++ {
		long = append(long, fmt.Sprintf("q%d", i%12))
	}
	require.NoError(t, repository.SetJSON(store, models.KeySearchHistory, long))

	h := NewHistoryService(store)
	require.NoError(t, h.Load())
	require.NoError(t, h.Compact())

	var persisted []string
	_, err := repository.GetJSON(store, models.KeySearchHistory, &persisted)
	require.NoError(t, err)
	assert.Len(t, persisted, HistoryLimit)
	assert.Equal(t, "q0", persisted[0])

	require.NoError(t, h.Clear())
	assert.Empty(t, h.List())
	_, ok := stored(t, store, models.KeySearchHistory)
	assert.False(t, ok)
}

// Session

type fakeProvider struct {
	profile   *models.Profile
	err       error
	logoutErr error
	loggedOut []string
}

func (p *fakeProvider) Login(context.Context) (*models.Profile, *oauth2.Token, error) {
	if p.err != nil {
		return nil, nil, p.err
	}
	return p.profile, &oauth2.Token{AccessToken: "kakao-token"}, nil
}

func (p *fakeProvider) Logout(_ context.Context, token string) error {
	p.loggedOut = append(p.loggedOut, token)
	return p.logoutErr
}

func newGate(t *testing.T, mutate func(*config.Config), provider auth.Provider) (*SessionGate, repository.Store, *notify.Recorder) {
	t.Helper()
	cfg := config.NewConfig()
	if mutate != nil {
		mutate(cfg)
	}
	store := repository.NewMemoryRepository()
	rec := &notify.Recorder{}
	g := NewSessionGate(store, cfg, provider, rec)
	g.cost = bcrypt.MinCost
	return g, store, rec
}

func TestLoginScenario(t *testing.T) {
	g, store, rec := newGate(t, nil, nil)
	require.NoError(t, store.Set(models.KeyUsername, "a@b.com"))
	require.NoError(t, store.Set(models.KeyPassword, "pw123"))

	route, err := g.Login("a@b.com", "pw124", false)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Empty(t, route)
	assert.False(t, g.Check())
	_, ok := stored(t, store, models.KeySessionFlag)
	assert.False(t, ok)
	assert.Equal(t, 1, rec.Count(notify.Error))
	pw, _ := stored(t, store, models.KeyPassword)
	assert.Equal(t, "pw123", pw, "a failed login writes nothing")

	route, err = g.Login("a@b.com", "pw123", false)
	require.NoError(t, err)
	assert.Equal(t, models.RouteHome, route)
	flag, _ := stored(t, store, models.KeySessionFlag)
	assert.Equal(t, "true", flag)
	assert.True(t, g.Check())
}

func TestLoginUpgradesLegacyPassword(t *testing.T) {
	g, store, _ := newGate(t, nil, nil)
	require.NoError(t, store.Set(models.KeyUsername, "a@b.com"))
	require.NoError(t, store.Set(models.KeyPassword, "pw123"))

	_, err := g.Login("a@b.com", "pw123", false)
	require.NoError(t, err)

	pw, _ := stored(t, store, models.KeyPassword)
	assert.True(t, strings.HasPrefix(pw, "$2"))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(pw), []byte("pw123")))

	_, err = g.Login("a@b.com", "pw123", false)
	assert.NoError(t, err, "the upgraded hash still matches")
}

func TestLoginUnknownUser(t *testing.T) {
	g, _, rec := newGate(t, nil, nil)

	_, err := g.Login("nobody@b.com", "pw", false)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, 1, rec.Count(notify.Error))
}

func TestLoginRememberMe(t *testing.T) {
	g, store, _ := newGate(t, nil, nil)
	require.NoError(t, store.Set(models.KeyUsername, "a@b.com"))
	require.NoError(t, store.Set(models.KeyPassword, "pw123"))

	_, err := g.Login("a@b.com", "pw123", true)
	require.NoError(t, err)
	email, ok := g.RememberedEmail()
	assert.True(t, ok)
	assert.Equal(t, "a@b.com", email)

	_, err = g.Login("a@b.com", "pw123", false)
	require.NoError(t, err)
	_, ok = g.RememberedEmail()
	assert.False(t, ok)
}

func TestSignup(t *testing.T) {
	g, store, rec := newGate(t, nil, nil)

	tests := []struct {
		name     string
		email    string
		password string
		confirm  string
		agreed   bool
		want     error
	}{
		{"bad email", "not-an-email", "Tr0ub4dour&3x", "Tr0ub4dour&3x", true, ErrInvalidEmail},
		{"mismatch", "a@b.com", "Tr0ub4dour&3x", "Tr0ub4dour&3y", true, ErrPasswordMismatch},
		{"terms", "a@b.com", "Tr0ub4dour&3x", "Tr0ub4dour&3x", false, ErrTermsNotAccepted},
		{"weak", "a@b.com", "password", "password", true, ErrWeakPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.Signup(tt.email, tt.password, tt.confirm, tt.agreed)
			assert.ErrorIs(t, err, tt.want)
		})
	}
	_, ok := stored(t, store, models.KeyUsername)
	assert.False(t, ok)
	assert.Equal(t, len(tests), rec.Count(notify.Error))

	require.NoError(t, g.Signup("a@b.com", "correct horse battery staple", "correct horse battery staple", true))
	pw, _ := stored(t, store, models.KeyPassword)
	assert.NotEqual(t, "correct horse battery staple", pw)
	id, ok := stored(t, store, models.KeyUserID)
	assert.True(t, ok)
	assert.Len(t, id, 36)
	assert.False(t, g.Check(), "signup does not start a session")

	route, err := g.Login("a@b.com", "correct horse battery staple", false)
	require.NoError(t, err)
	assert.Equal(t, models.RouteHome, route)
	assert.Equal(t, "a", g.Profile().DisplayName())
}

func TestCheckModes(t *testing.T) {
	equals, store, _ := newGate(t, nil, nil)
	present := NewSessionGate(store, &config.Config{SessionCheck: config.SessionFlagPresent}, nil, &notify.Recorder{})

	assert.False(t, equals.Check())
	assert.False(t, present.Check())

	require.NoError(t, store.Set(models.KeySessionFlag, "yes"))
	assert.False(t, equals.Check())
	assert.True(t, present.Check())

	require.NoError(t, store.Set(models.KeySessionFlag, "true"))
	assert.True(t, equals.Check())
	assert.True(t, present.Check())
}

func TestResolve(t *testing.T) {
	g, store, _ := newGate(t, nil, nil)

	assert.Equal(t, models.RouteSignin, g.Resolve(models.RouteWishlist))
	assert.Equal(t, models.RouteSignin, g.Resolve(models.RouteHome))
	assert.Equal(t, models.RouteSignin, g.Resolve(models.RouteSignin))

	require.NoError(t, store.Set(models.KeySessionFlag, "true"))
	assert.Equal(t, models.RouteWishlist, g.Resolve(models.RouteWishlist))
	assert.Equal(t, models.RouteHome, g.Resolve(models.RouteSignin))
}

func TestLogoutAllowList(t *testing.T) {
	provider := &fakeProvider{}
	g, store, _ := newGate(t, nil, provider)

	keep := map[string]string{
		models.KeyWishlist:        `[{"id":42}]`,
		models.KeyUsername:        "a@b.com",
		models.KeyPassword:        "pw123",
		models.KeyUserID:          "u-1",
		models.KeyRememberMe:      "true",
		models.KeyRememberedEmail: "a@b.com",
	}
	for k, v := range keep {
		require.NoError(t, store.Set(k, v))
	}
	for _, k := range LogoutKeys() {
		require.NoError(t, store.Set(k, "x"))
	}
	require.NoError(t, store.Set(models.KeyKakaoAccessToken, "kakao-token"))

	require.NoError(t, g.Logout(context.Background()))

	for _, k := range LogoutKeys() {
		_, ok := stored(t, store, k)
		assert.False(t, ok, k)
	}
	for k, v := range keep {
		got, _ := stored(t, store, k)
		assert.Equal(t, v, got, k)
	}
	assert.Equal(t, []string{"kakao-token"}, provider.loggedOut)
	assert.False(t, g.Check())
}

func TestLogoutSurvivesProviderFailure(t *testing.T) {
	provider := &fakeProvider{logoutErr: errors.New("network down")}
	g, store, _ := newGate(t, nil, provider)
	require.NoError(t, store.Set(models.KeySessionFlag, "true"))
	require.NoError(t, store.Set(models.KeyKakaoAccessToken, "kakao-token"))

	require.NoError(t, g.Logout(context.Background()))
	assert.False(t, g.Check())
}

func TestLoginExternal(t *testing.T) {
	provider := &fakeProvider{profile: &models.Profile{ID: "987", Name: "무비", Email: "m@kakao.com"}}
	g, store, rec := newGate(t, func(c *config.Config) { c.AuthProvider = config.AuthExternal }, provider)

	assert.True(t, g.External())
	route, err := g.LoginExternal(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.RouteHome, route)
	assert.True(t, g.Check())

	tok, _ := stored(t, store, models.KeyKakaoAccessToken)
	assert.Equal(t, "kakao-token", tok)
	assert.Equal(t, models.Profile{ID: "987", Name: "무비", Email: "m@kakao.com"}, g.Profile())
	assert.Equal(t, "무비", g.Profile().DisplayName())
	assert.Equal(t, 1, rec.Count(notify.Success))
}

func TestLoginExternalFailures(t *testing.T) {
	g, store, rec := newGate(t, nil, nil)
	_, err := g.LoginExternal(context.Background())
	assert.ErrorIs(t, err, auth.ErrNotConfigured)

	denied := NewSessionGate(store, config.NewConfig(), &fakeProvider{err: auth.ErrDenied}, rec)
	_, err = denied.LoginExternal(context.Background())
	assert.ErrorIs(t, err, auth.ErrDenied)

	assert.Equal(t, 2, rec.Count(notify.Error))
	assert.False(t, g.Check())
	keys, err := store.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

// Catalog

type countingFetcher struct {
	calls atomic.Int32
}

func (f *countingFetcher) FetchPage(_ context.Context, category models.Category, page int, _ models.Filters) []models.Movie {
	f.calls.Add(1)
	return []models.Movie{{ID: len(category)*100 + page, Title: string(category)}}
}

func TestHomeFetchesEveryRow(t *testing.T) {
	f := &countingFetcher{}
	feed := NewCatalogService(f).Home(context.Background())

	assert.EqualValues(t, len(HomeCategories), f.calls.Load())
	for _, c := range HomeCategories {
		require.Len(t, feed.Rows[c], 1, c)
		assert.Equal(t, string(c), feed.Rows[c][0].Title)
	}
	assert.Equal(t, feed.Rows[models.CategoryNowPlaying], feed.Banner)
}

func TestStateLoad(t *testing.T) {
	store := repository.NewMemoryRepository()
	require.NoError(t, store.Set(models.KeyWishlist, `[{"id":5,"title":"Five"}]`))
	require.NoError(t, store.Set(models.KeySearchHistory, `["heat"]`))

	st := NewState(store, config.NewConfig(), &countingFetcher{}, nil, nil)
	require.NoError(t, st.Load())
	assert.True(t, st.Wishlist.IsWishlisted(5))
	assert.Equal(t, []string{"heat"}, st.History.List())
}
