package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dastanaron/movies/internal/config"
)

type fakeKakao struct {
	*httptest.Server
	mu         sync.Mutex
	verifier   string
	logoutAuth string
}

func (f *fakeKakao) seen() (verifier, logoutAuth string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.verifier, f.logoutAuth
}

func newFakeKakao(t *testing.T) *fakeKakao {
	t.Helper()
	f := &fakeKakao{}
	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil || r.PostForm.Get("code") != "good-code" {
			http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.verifier = r.PostForm.Get("code_verifier")
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "access-1",
			"token_type":   "bearer",
			"expires_in":   3600,
		})
	})
	mux.HandleFunc("/v2/user/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":987654,"properties":{"nickname":"무비"},"kakao_account":{"email":"movie@kakao.com"}}`))
	})
	mux.HandleFunc("/v1/user/logout", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.logoutAuth = r.Header.Get("Authorization")
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"id":987654}`))
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func newTestProvider(f *fakeKakao, open func(string) error) *KakaoProvider {
	cfg := config.NewConfig()
	cfg.KakaoClientID = "client-key"
	cfg.KakaoRedirectAddr = "127.0.0.1:0"
	return NewKakaoProvider(cfg, open).WithEndpoints(KakaoEndpoints{
		AuthURL:  f.URL + "/oauth/authorize",
		TokenURL: f.URL + "/oauth/token",
		APIURL:   f.URL,
	})
}

// browser follows the authorization URL the way the provider would redirect.
func browser(t *testing.T, code string, mangleState bool) func(string) error {
	return func(authURL string) error {
		u, err := url.Parse(authURL)
		require.NoError(t, err)
		q := u.Query()
		assert.Equal(t, "S256", q.Get("code_challenge_method"))
		assert.NotEmpty(t, q.Get("code_challenge"))
		assert.Equal(t, "client-key", q.Get("client_id"))

		state := q.Get("state")
		if mangleState {
			state += "x"
		}
		cb := q.Get("redirect_uri") + "?" + url.Values{"code": {code}, "state": {state}}.Encode()
		resp, err := http.Get(cb)
		if err != nil {
			return err
		}
		resp.Body.Close()
		return nil
	}
}

func TestKakaoLogin(t *testing.T) {
	f := newFakeKakao(t)
	p := newTestProvider(f, browser(t, "good-code", false))

	profile, token, err := p.Login(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "987654", profile.ID)
	assert.Equal(t, "무비", profile.Name)
	assert.Equal(t, "movie@kakao.com", profile.Email)
	assert.Equal(t, "access-1", token.AccessToken)
	verifier, _ := f.seen()
	assert.NotEmpty(t, verifier, "token exchange carries the PKCE verifier")
}

func TestKakaoLoginStateMismatch(t *testing.T) {
	f := newFakeKakao(t)
	p := newTestProvider(f, browser(t, "good-code", true))

	_, _, err := p.Login(context.Background())
	assert.ErrorIs(t, err, ErrStateMismatch)
}

func TestKakaoLoginDenied(t *testing.T) {
	f := newFakeKakao(t)
	p := newTestProvider(f, func(authURL string) error {
		u, _ := url.Parse(authURL)
		q := u.Query()
		cb := q.Get("redirect_uri") + "?" + url.Values{"error": {"access_denied"}, "state": {q.Get("state")}}.Encode()
		resp, err := http.Get(cb)
		if err == nil {
			resp.Body.Close()
		}
		return err
	})

	_, _, err := p.Login(context.Background())
	assert.ErrorIs(t, err, ErrDenied)
}

func TestKakaoLoginBadCode(t *testing.T) {
	f := newFakeKakao(t)
	p := newTestProvider(f, browser(t, "stale-code", false))

	_, _, err := p.Login(context.Background())
	assert.ErrorContains(t, err, "exchange authorization code")
}

func TestKakaoLoginCancelled(t *testing.T) {
	f := newFakeKakao(t)
	p := newTestProvider(f, func(string) error { return nil })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, err := p.Login(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestKakaoNotConfigured(t *testing.T) {
	p := NewKakaoProvider(config.NewConfig(), nil)

	_, _, err := p.Login(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.ErrorIs(t, p.Logout(context.Background(), "tok"), ErrNotConfigured)
}

func TestKakaoLogout(t *testing.T) {
	f := newFakeKakao(t)
	p := newTestProvider(f, nil)

	require.NoError(t, p.Logout(context.Background(), "access-1"))
	_, logoutAuth := f.seen()
	assert.Equal(t, "Bearer access-1", logoutAuth)
}

func TestKakaoLogoutWithoutToken(t *testing.T) {
	f := newFakeKakao(t)
	p := newTestProvider(f, nil)

	require.NoError(t, p.Logout(context.Background(), ""))
	_, logoutAuth := f.seen()
	assert.Empty(t, logoutAuth)
}
