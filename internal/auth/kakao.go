package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/oauth2"

	"github.com/dastanaron/movies/internal/config"
	"github.com/dastanaron/movies/internal/models"
)

const (
	kakaoAuthURL  = "https://kauth.kakao.com/oauth/authorize"
	kakaoTokenURL = "https://kauth.kakao.com/oauth/token"
	kakaoAPIURL   = "https://kapi.kakao.com"

	callbackPath = "/oauth/callback"
)

// KakaoEndpoints locates the Kakao authorization and API servers.
type KakaoEndpoints struct {
	AuthURL  string
	TokenURL string
	APIURL   string
}

// DefaultKakaoEndpoints are the production Kakao hosts.
var DefaultKakaoEndpoints = KakaoEndpoints{
	AuthURL:  kakaoAuthURL,
	TokenURL: kakaoTokenURL,
	APIURL:   kakaoAPIURL,
}

// KakaoProvider signs in with Kakao using the authorization code flow with
// PKCE. The redirect lands on a loopback server started for each login.
type KakaoProvider struct {
	clientID     string
	clientSecret string
	listenAddr   string
	endpoints    KakaoEndpoints
	httpClient   *http.Client

	// Open presents the authorization URL to the user.
	Open func(authURL string) error
}

// NewKakaoProvider builds a provider from the Kakao settings in cfg.
func NewKakaoProvider(cfg *config.Config, open func(string) error) *KakaoProvider {
	return &KakaoProvider{
		clientID:     cfg.KakaoClientID,
		clientSecret: cfg.KakaoClientSecret,
		listenAddr:   cfg.KakaoRedirectAddr,
		endpoints:    DefaultKakaoEndpoints,
		httpClient:   &http.Client{Timeout: cfg.HTTPTimeout},
		Open:         open,
	}
}

// WithEndpoints points the provider at other servers.
func (p *KakaoProvider) WithEndpoints(e KakaoEndpoints) *KakaoProvider {
	p.endpoints = e
	return p
}

type callbackResult struct {
	code string
	err  error
}

// Login implements Provider.
func (p *KakaoProvider) Login(ctx context.Context) (*models.Profile, *oauth2.Token, error) {
	if p.clientID == "" {
		return nil, nil, ErrNotConfigured
	}

	ln, err := net.Listen("tcp", p.listenAddr)
	if err != nil {
		return nil, nil, fmt.Errorf("listen for oauth callback: %w", err)
	}

	conf := p.oauthConfig("http://" + ln.Addr().String() + callbackPath)
	state := oauth2.GenerateVerifier()
	verifier := oauth2.GenerateVerifier()

	results := make(chan callbackResult, 1)
	srv := &http.Server{
		Handler:           p.callbackRouter(state, results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("oauth callback server failed", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	authURL := conf.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier))
	if p.Open != nil {
		if err := p.Open(authURL); err != nil {
			return nil, nil, fmt.Errorf("open authorization page: %w", err)
		}
	}

	var res callbackResult
	select {
	case res = <-results:
	case <-ctx.Done():
		return nil, nil, ctx.Err()
	}
	if res.err != nil {
		return nil, nil, res.err
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	token, err := conf.Exchange(ctx, res.code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, nil, fmt.Errorf("exchange authorization code: %w", err)
	}

	profile, err := p.fetchProfile(ctx, conf, token)
	if err != nil {
		return nil, nil, err
	}
	return profile, token, nil
}

func (p *KakaoProvider) oauthConfig(redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     p.clientID,
		ClientSecret: p.clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{"profile_nickname", "account_email"},
		Endpoint: oauth2.Endpoint{
			AuthURL:   p.endpoints.AuthURL,
			TokenURL:  p.endpoints.TokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func (p *KakaoProvider) callbackRouter(state string, results chan<- callbackResult) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		var res callbackResult
		switch {
		case q.Get("state") != state:
			res.err = ErrStateMismatch
		case q.Get("error") != "":
			res.err = fmt.Errorf("%w: %s", ErrDenied, q.Get("error"))
		case q.Get("code") == "":
			res.err = fmt.Errorf("%w: no authorization code", ErrDenied)
		default:
			res.code = q.Get("code")
		}

		select {
		case results <- res:
		default:
			http.Error(w, "login already handled", http.StatusConflict)
			return
		}

		if res.err != nil {
			http.Error(w, "Login failed. You can close this window.", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "Login complete. You can return to the terminal.")
	})
	return r
}

type kakaoUser struct {
	ID         int64 `json:"id"`
	Properties struct {
		Nickname string `json:"nickname"`
	} `json:"properties"`
	KakaoAccount struct {
		Email string `json:"email"`
	} `json:"kakao_account"`
}

func (p *KakaoProvider) fetchProfile(ctx context.Context, conf *oauth2.Config, token *oauth2.Token) (*models.Profile, error) {
	client := conf.Client(ctx, token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoints.APIURL+"/v2/user/me", nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch kakao profile: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch kakao profile: unexpected status %d", resp.StatusCode)
	}

	var u kakaoUser
	if err := json.NewDecoder(resp.Body).Decode(&u); err != nil {
		return nil, fmt.Errorf("decode kakao profile: %w", err)
	}
	return &models.Profile{
		ID:    strconv.FormatInt(u.ID, 10),
		Name:  u.Properties.Nickname,
		Email: u.KakaoAccount.Email,
	}, nil
}

// Logout implements Provider.
func (p *KakaoProvider) Logout(ctx context.Context, accessToken string) error {
	if p.clientID == "" {
		return ErrNotConfigured
	}
	if accessToken == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoints.APIURL+"/v1/user/logout", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("kakao logout: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("kakao logout: unexpected status %d", resp.StatusCode)
	}
	return nil
}
