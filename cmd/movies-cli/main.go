package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"

	"github.com/dastanaron/movies/internal/auth"
	"github.com/dastanaron/movies/internal/commands"
	"github.com/dastanaron/movies/internal/config"
	"github.com/dastanaron/movies/internal/logging"
	"github.com/dastanaron/movies/internal/notify"
	"github.com/dastanaron/movies/internal/repository"
	"github.com/dastanaron/movies/internal/service"
	"github.com/dastanaron/movies/internal/tmdb"
	"github.com/dastanaron/movies/internal/ui"
)

func main() {
	importPath := flag.String("import", "", "Path to HTML wishlist file to import")
	exportPath := flag.String("export", "", "Path to HTML wishlist file to export")
	repair := flag.Bool("repair", false, "Remove duplicate or invalid wishlist entries and compact search history")
	logout := flag.Bool("logout", false, "Sign out and forget the stored session")
	dbPath := flag.String("db", "", "Path to database file (default: ~/.movies/movies.db)")
	envFile := flag.String("env", ".env", "Path to an optional .env file")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	cfg := config.NewConfig()
	if err := cfg.Load(*envFile); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *dbPath != "" {
		cfg.WithDBPath(*dbPath)
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}
	cfg.Verbose = cfg.Verbose || *verbose
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Ensure database directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	command := *importPath != "" || *exportPath != "" || *repair || *logout
	opts := logging.Options{Verbose: cfg.Verbose}
	if !command {
		// The terminal belongs to the UI.
		if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0755); err != nil {
			log.Fatalf("Failed to create log directory: %v", err)
		}
		opts.Path = cfg.LogPath
	}
	logger, _, closer := logging.New(opts)
	defer closer.Close()
	slog.SetDefault(logger)

	repo, err := repository.NewSQLiteRepository(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer repo.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	relay := &notify.Relay{}
	metrics := tmdb.NewMetrics()
	catalog, err := tmdb.NewClient(cfg, relay, tmdb.WithMetrics(metrics))
	if err != nil {
		log.Fatalf("Failed to create catalog client: %v", err)
	}

	var provider auth.Provider
	if cfg.KakaoClientID != "" || cfg.AuthProvider == config.AuthExternal {
		provider = auth.NewKakaoProvider(cfg, func(url string) error {
			relay.Notify(notify.Info, "Opening the browser for Kakao login...")
			return ui.OpenURL(url)
		})
	}

	state := service.NewState(repo, cfg, catalog, provider, relay)
	if err := state.Load(); err != nil {
		log.Fatalf("Failed to load stored data: %v", err)
	}

	fs := afero.NewOsFs()

	// Handle import command
	if *importPath != "" {
		if err := commands.NewImportCommand(fs, state.Wishlist, os.Stdout).Execute(*importPath); err != nil {
			log.Fatalf("Import failed: %v", err)
		}
		return
	}

	// Handle export command
	if *exportPath != "" {
		if err := commands.NewExportCommand(fs, state.Wishlist, os.Stdout).Execute(*exportPath); err != nil {
			log.Fatalf("Export failed: %v", err)
		}
		return
	}

	if *repair {
		if err := commands.NewRepairCommand(state, os.Stdout).Execute(); err != nil {
			log.Fatalf("Repair failed: %v", err)
		}
		return
	}

	if *logout {
		logoutCtx, cancel := context.WithTimeout(ctx, cfg.HTTPTimeout)
		defer cancel()
		if err := commands.NewLogoutCommand(state.Session, os.Stdout).Execute(logoutCtx); err != nil {
			log.Fatalf("Logout failed: %v", err)
		}
		return
	}

	if cfg.MetricsAddr != "" {
		server := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		defer server.Close()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	// Run TUI application
	app := ui.NewApp(state, catalog, cfg)
	relay.Set(app)

	if err := app.Run(ctx); err != nil {
		log.Fatal(err)
	}
}
