package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"
)

// SessionCheckMode decides how the session flag is interpreted.
type SessionCheckMode string

const (
	// SessionFlagTrue requires the flag to equal "true".
	SessionFlagTrue SessionCheckMode = "flag-equals-true"
	// SessionFlagPresent accepts any stored value.
	SessionFlagPresent SessionCheckMode = "flag-present"
)

// AuthProvider selects the login flow.
type AuthProvider string

const (
	AuthLocal    AuthProvider = "local"
	AuthExternal AuthProvider = "external"
)

// Config holds application configuration
type Config struct {
	DBPath  string
	LogPath string
	Verbose bool

	TMDBAPIKey       string
	TMDBBaseURL      string
	TMDBImageBaseURL string
	Locale           string
	HTTPTimeout      time.Duration
	DetailCacheSize  int

	// MaxTablePages bounds the fixed-page prefetch.
	MaxTablePages int
	// ScrollThreshold is the distance, in rows, from the end of a list
	// at which the next page is requested.
	ScrollThreshold int
	// WishlistBatch is how many wishlist entries are revealed at a time.
	WishlistBatch  int
	BannerInterval time.Duration

	SessionCheck SessionCheckMode
	AuthProvider AuthProvider

	KakaoClientID     string
	KakaoClientSecret string
	KakaoRedirectAddr string

	MetricsAddr string
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	return &Config{
		DBPath:            getDefaultPath("movies.db"),
		LogPath:           getDefaultPath("movies.log"),
		TMDBBaseURL:       "https://api.themoviedb.org/3",
		TMDBImageBaseURL:  "https://image.tmdb.org/t/p",
		Locale:            "ko-KR",
		HTTPTimeout:       30 * time.Second,
		DetailCacheSize:   256,
		MaxTablePages:     50,
		ScrollThreshold:   3,
		WishlistBatch:     20,
		BannerInterval:    5 * time.Second,
		SessionCheck:      SessionFlagTrue,
		AuthProvider:      AuthLocal,
		KakaoRedirectAddr: "127.0.0.1:8765",
	}
}

// WithDBPath sets a custom database path
func (c *Config) WithDBPath(path string) *Config {
	c.DBPath = path
	return c
}

// WithLogPath sets a custom log file path
func (c *Config) WithLogPath(path string) *Config {
	c.LogPath = path
	return c
}

// Load reads envFile (if it exists) and then the process environment.
func (c *Config) Load(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	return c.applyEnv(os.LookupEnv)
}

// LoadFromMap applies settings from env without touching the process environment.
func (c *Config) LoadFromMap(env map[string]string) error {
	return c.applyEnv(func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"TMDB_API_KEY":        &c.TMDBAPIKey,
		"TMDB_BASE_URL":       &c.TMDBBaseURL,
		"TMDB_IMAGE_BASE_URL": &c.TMDBImageBaseURL,
		"MOVIES_LOCALE":       &c.Locale,
		"MOVIES_DB":           &c.DBPath,
		"MOVIES_LOG":          &c.LogPath,
		"KAKAO_CLIENT_ID":     &c.KakaoClientID,
		"KAKAO_CLIENT_SECRET": &c.KakaoClientSecret,
		"KAKAO_REDIRECT_ADDR": &c.KakaoRedirectAddr,
		"MOVIES_METRICS_ADDR": &c.MetricsAddr,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup("MOVIES_AUTH_PROVIDER"); ok && v != "" {
		c.AuthProvider = AuthProvider(v)
	}
	if v, ok := lookup("MOVIES_SESSION_CHECK"); ok && v != "" {
		c.SessionCheck = SessionCheckMode(v)
	}
	if v, ok := lookup("MOVIES_HTTP_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid MOVIES_HTTP_TIMEOUT: %w", err)
		}
		c.HTTPTimeout = d
	}
	if v, ok := lookup("MOVIES_TABLE_PAGES"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid MOVIES_TABLE_PAGES: %w", err)
		}
		c.MaxTablePages = n
	}
	return nil
}

// Validate ensures all configuration values are coherent.
// A missing TMDB key is not an error here; views report it when they mount.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return fmt.Errorf("database path cannot be empty")
	}
	parsed, err := url.Parse(c.TMDBBaseURL)
	if err != nil {
		return fmt.Errorf("invalid TMDB base URL: %w", err)
	}
	if parsed.Host == "" {
		return fmt.Errorf("TMDB base URL must include a host")
	}
	if _, err := language.Parse(c.Locale); err != nil {
		return fmt.Errorf("invalid locale %q: %w", c.Locale, err)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http timeout must be positive")
	}
	if c.MaxTablePages <= 0 {
		return fmt.Errorf("max table pages must be positive")
	}
	if c.ScrollThreshold < 0 {
		return fmt.Errorf("scroll threshold cannot be negative")
	}
	if c.WishlistBatch <= 0 {
		return fmt.Errorf("wishlist batch must be positive")
	}
	if c.BannerInterval <= 0 {
		return fmt.Errorf("banner interval must be positive")
	}
	switch c.SessionCheck {
	case SessionFlagTrue, SessionFlagPresent:
	default:
		return fmt.Errorf("session check must be %s or %s", SessionFlagTrue, SessionFlagPresent)
	}
	switch c.AuthProvider {
	case AuthLocal:
	case AuthExternal:
		if c.KakaoRedirectAddr == "" {
			return fmt.Errorf("kakao redirect address cannot be empty")
		}
	default:
		return fmt.Errorf("auth provider must be %s or %s", AuthLocal, AuthExternal)
	}
	return nil
}

// LocaleTag returns the canonical BCP 47 form of the configured locale.
func (c *Config) LocaleTag() string {
	tag, err := language.Parse(c.Locale)
	if err != nil {
		return c.Locale
	}
	return tag.String()
}

func getDefaultPath(name string) string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return name
	}
	return filepath.Join(homeDir, ".movies", name)
}
