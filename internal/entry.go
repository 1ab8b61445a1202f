// Package internal provides the main application initialization and runtime
// logic.
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

	"github.com/starford/tavla/internal/api"
	"github.com/starford/tavla/internal/boardservice"
	"github.com/starford/tavla/internal/events"
	"github.com/starford/tavla/internal/index"
	"github.com/starford/tavla/internal/mcpserver"
	"github.com/starford/tavla/internal/storage"
	"github.com/starford/tavla/internal/template"
)

// Run starts the HTTP server with the given options and blocks until
// shutdown.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("data_path", cfg.Data.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store, tmpl, err := openStorage(cfg, logger)
	if err != nil {
		return err
	}

	// Board index.
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	// Notification bus.
	bus := events.NewBus()
	defer bus.Close()

	// Build board service and router.
	svc := boardservice.NewService(store, tmpl, db, bus)
	apiRouter := api.NewRouter(svc, bus)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints.
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

	// Watch the data dir so out-of-band board edits still reach clients.
	g.Go(func() error {
		return index.Watch(gCtx, db, store, store.Root(), logger, func(kind, id string) {
			ev := events.Event{ID: id}
			switch kind {
			case "created":
				ev.Kind = events.KindCreated
			case "updated":
				ev.Kind = events.KindUpdated
			case "deleted":
				bus.Publish(events.Event{Kind: events.KindDeleted, ID: id})
				return
			default:
				return
			}
			if board, err := store.Read(id); err == nil {
				ev.Board = board
			}
			bus.Publish(ev)
		})
	})

	// Start HTTP server.
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

// RunMCP starts the stdio MCP server instead of the HTTP server.
func RunMCP(_ context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	// MCP speaks JSON-RPC on stdout; keep logs on stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	store, tmpl, err := openStorage(cfg, logger)
	if err != nil {
		return err
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	if err := index.Sync(db, store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	svc := boardservice.NewService(store, tmpl, db, nil)
	return mcpserver.New(svc).ServeStdio()
}

// openStorage prepares the document store and template initializer and runs
// the fail-fast boot checks: read access, write access, and a resolvable
// template prototype.
func openStorage(cfg *Config, logger *slog.Logger) (*storage.FS, *template.Initializer, error) {
	if err := os.MkdirAll(cfg.Data.Path, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create data dir: %w", err)
	}

	store, err := storage.NewFS(cfg.Data.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init storage: %w", err)
	}

	if err := store.CheckRead(); err != nil {
		return nil, nil, fmt.Errorf("storage read check: %w", err)
	}
	logger.Info("storage read check passed", slog.String("path", store.Root()))

	if err := store.CheckWrite(); err != nil {
		return nil, nil, fmt.Errorf("storage write check: %w", err)
	}
	logger.Info("storage write check passed", slog.String("path", store.Root()))

	tmpl := template.NewInitializer(store)
	if err := tmpl.Check(); err != nil {
		return nil, nil, fmt.Errorf("template check: %w", err)
	}

	return store, tmpl, nil
}
