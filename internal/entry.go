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

	"github.com/starford/agentnote/internal/api"
	"github.com/starford/agentnote/internal/docservice"
	"github.com/starford/agentnote/internal/importer"
	"github.com/starford/agentnote/internal/mcpserver"
	"github.com/starford/agentnote/internal/models"
	"github.com/starford/agentnote/internal/sse"
	"github.com/starford/agentnote/internal/storage"
	"github.com/starford/agentnote/internal/store"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev", logOut: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// logger installs a structured JSON logger as the slog default.
func (a *application) logger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(a.logOut, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// newImporter opens the import directory, creating it when missing.
func newImporter(cfg *Config, svc *docservice.Service, db *store.DB, logger *slog.Logger) (*importer.Importer, error) {
	if err := os.MkdirAll(cfg.Import.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create import dir: %w", err)
	}
	fs, err := storage.NewFS(cfg.Import.Dir)
	if err != nil {
		return nil, fmt.Errorf("init import dir: %w", err)
	}
	return importer.New(svc, db, fs, logger), nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger()

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Bool("import_enabled", cfg.Import.Enabled),
		slog.String("import_dir", cfg.Import.Dir),
		slog.String("auth_mode", cfg.Auth.Mode),
		slog.String("log_level", cfg.App.LogLevel.String()))

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	// SSE broker receives every doc and idea change.
	broker := sse.NewBroker(cfg.App.EventsThrottle)
	defer broker.Close()

	svc := docservice.New(db,
		docservice.WithNotifier(broker),
		docservice.WithLogger(logger),
	)

	var imp *importer.Importer
	if cfg.Import.Enabled {
		if imp, err = newImporter(cfg, svc, db, logger); err != nil {
			return err
		}
		st, err := imp.Sync(ctx)
		if err != nil {
			logger.Warn("initial import failed", slog.String("error", err.Error()))
		} else {
			logger.Info("initial import done",
				slog.Int("imported", st.Imported),
				slog.Int("unchanged", st.Unchanged),
				slog.Int("removed", st.Removed),
				slog.Int("failed", st.Failed))
		}
	}

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

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
		if err := svc.Ping(); err != nil {
			logger.Error("readiness check failed", slog.String("error", err.Error()))
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	if imp != nil && cfg.Import.Watch {
		g.Go(func() error {
			if err := imp.Watch(gCtx); err != nil {
				logger.Error("import watcher stopped", slog.String("error", err.Error()))
			}
			return nil
		})
	}

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
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// Open event streams only end when the broker closes.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown cancels the group so the watcher stops with the server.
var errShutdown = errors.New("shutdown")

// RunMCP serves the MCP tools on stdin/stdout. Logs go to stderr because
// stdout carries the protocol.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger()

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	svc := docservice.New(db, docservice.WithLogger(logger))
	logger.Info("MCP server starting", slog.String("sqlite_path", cfg.SQLite.Path))

	errCh := make(chan error, 1)
	go func() { errCh <- mcpserver.New(svc, app.version).ServeStdio() }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return nil
	}
}

// Export writes the stored documents matching f into the import directory
// and returns how many were written.
func Export(ctx context.Context, f models.DocFilter, opts ...Option) (int, error) {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return 0, err
	}
	cfg := app.config
	logger := app.logger()

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		return 0, fmt.Errorf("init store: %w", err)
	}
	defer db.Close()

	svc := docservice.New(db, docservice.WithLogger(logger))
	imp, err := newImporter(cfg, svc, db, logger)
	if err != nil {
		return 0, err
	}
	return imp.Export(ctx, f)
}
