// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/wikisync/internal/api"
	"github.com/starford/wikisync/internal/index"
	"github.com/starford/wikisync/internal/mcpserver"
	"github.com/starford/wikisync/internal/mediawiki"
	"github.com/starford/wikisync/internal/pathcodec"
	"github.com/starford/wikisync/internal/project"
	"github.com/starford/wikisync/internal/store"
	"github.com/starford/wikisync/internal/syncer"
)

// App holds the wired-up components shared by every command.
type App struct {
	Config *Config
	Logger *slog.Logger
	Layout *project.Layout
	Codec  *pathcodec.Codec
	DB     *store.DB
	Index  *index.Index
	Ledger *syncer.Ledger
	Engine *syncer.Engine
}

// NewApp opens the project directory and database and wires the components.
// The caller must Close it.
func NewApp(cfg *Config) (*App, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(cfg.Project.Root, 0o755); err != nil {
		return nil, fmt.Errorf("create project root: %w", err)
	}
	layout, err := project.NewLayout(cfg.Project.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve project layout: %w", err)
	}
	if err := layout.EnsureDirs(); err != nil {
		return nil, err
	}

	db, err := store.Open(layout.DBPath())
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	ix, err := index.New(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("init index: %w", err)
	}

	// Category overrides stored in the database apply first; the config
	// file can still override those.
	stored, err := ix.TemplateCategories()
	if err != nil {
		db.Close()
		return nil, err
	}
	codec := pathcodec.New(append(stored, cfg.Project.Categories()...))

	ledger := syncer.NewLedger(db)

	return &App{
		Config: cfg,
		Logger: logger,
		Layout: layout,
		Codec:  codec,
		DB:     db,
		Index:  ix,
		Ledger: ledger,
		Engine: syncer.NewEngine(layout, codec, ledger, ix, logger),
	}, nil
}

// Close releases the database handle.
func (a *App) Close() error {
	return a.DB.Close()
}

// Remote builds the API client from the remote config section. Commands that
// need the network fail here when no remote is configured.
func (a *App) Remote() (*mediawiki.Client, error) {
	if a.Config.Remote.APIURL == "" {
		return nil, fmt.Errorf("no remote api_url configured")
	}
	return mediawiki.New(a.Config.Remote.ClientConfig(), a.Logger)
}

// Run starts serve mode with the given options: the read-only HTTP API plus
// a file watcher that keeps the index current.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	a, err := NewApp(app.config)
	if err != nil {
		return err
	}
	defer a.Close()

	cfg := a.Config
	logger := a.Logger
	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("project_root", a.Layout.Root()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	apiRouter := api.NewRouter(a.Index, a.Layout, cfg.Auth.AuthEnabled(), cfg.Auth.Token)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Keep the index in step with on-disk edits.
	g.Go(func() error {
		return index.Watch(gCtx, a.Index, a.Layout, a.Codec, logger, func(report *index.RebuildReport) {
			logger.Info("index rebuilt by watcher",
				slog.Int("pages", report.Pages),
				slog.Int("links", report.Links))
		})
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP starts the stdio MCP server with the given options.
func RunMCP(opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	a, err := NewApp(app.config)
	if err != nil {
		return err
	}
	defer a.Close()

	return mcpserver.New(a.Index, a.Layout).ServeStdio()
}
