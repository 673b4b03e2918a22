// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/nemorize/restdown/internal/api"
	"github.com/nemorize/restdown/internal/gitmeta"
	"github.com/nemorize/restdown/internal/index"
	"github.com/nemorize/restdown/internal/mcpserver"
	"github.com/nemorize/restdown/internal/postservice"
	"github.com/nemorize/restdown/internal/render"
	"github.com/nemorize/restdown/internal/sse"
	"github.com/nemorize/restdown/internal/storage"
	"github.com/nemorize/restdown/internal/webhook"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{
		version:   "dev",
		logOutput: os.Stdout,
	}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	return logger
}

// core holds the components shared by every entry point.
type core struct {
	corpus  *storage.FS
	db      *index.DB
	git     *gitmeta.Git
	builder *index.Builder
	cached  *render.Cached
	svc     *postservice.Service
}

func newCore(cfg *Config, logger *slog.Logger) (*core, error) {
	corpus, err := storage.NewFS(cfg.Content.Root)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	git := &gitmeta.Git{Binary: cfg.Content.GitBinary}
	cached := render.NewCached(render.New(corpus), corpus, render.NewCache(cfg.Cache.Dir), logger)

	return &core{
		corpus:  corpus,
		db:      db,
		git:     git,
		builder: index.NewBuilder(corpus, git, logger),
		cached:  cached,
		svc:     postservice.NewService(db, cached, logger),
	}, nil
}

func (c *core) pipeline(cfg *Config, notifier webhook.Notifier, logger *slog.Logger) *webhook.Pipeline {
	return webhook.NewPipeline(webhook.Options{
		Secret: cfg.Webhook.Secret,
		Root:   cfg.Content.Root,
		Remote: cfg.Content.Remote,
	}, c.git, c.builder, c.db, c.cached, notifier, logger)
}

func (c *core) close() {
	_ = c.db.Close()
}

// readiness flips to ready after the first successful rebuild and forwards
// every notice to the SSE broker.
type readiness struct {
	ready  atomic.Bool
	broker *sse.Broker
}

func (r *readiness) IndexRebuilt(trigger string, stats index.Stats) {
	r.ready.Store(true)
	r.broker.IndexRebuilt(trigger, stats)
}

func (r *readiness) IndexRebuildFailed(trigger string, err error) {
	r.broker.IndexRebuildFailed(trigger, err)
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = fmt.Fprintf(w, `{"status":%q}`, status)
}

type refresher interface {
	Refresh(ctx context.Context, trigger string) (index.Stats, error)
}

// onContentChange announces local edits on the SSE stream, then rebuilds.
func onContentChange(root string, r refresher, broker *sse.Broker, logger *slog.Logger) storage.ChangeCallback {
	return func(ctx context.Context) {
		broker.Publish(sse.Event{Type: sse.EventContentChanged, Data: sse.ChangeData{
			Root: root,
			At:   time.Now().Unix(),
		}})
		if _, err := r.Refresh(ctx, "watcher"); err != nil {
			logger.Warn("watcher rebuild failed", slog.String("error", err.Error()))
		}
	}
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := newLogger(app.logOutput, cfg.App.LogLevel)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("content_root", cfg.Content.Root),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("cache_dir", cfg.Cache.Dir),
		slog.Bool("webhook_enabled", cfg.Webhook.Enabled()),
		slog.String("log_level", cfg.App.LogLevel.String()))

	c, err := newCore(cfg, logger)
	if err != nil {
		return err
	}
	defer c.close()

	// SSE broker.
	broker := sse.NewBroker()
	defer broker.Close()

	ready := &readiness{broker: broker}
	pipeline := c.pipeline(cfg, ready, logger)

	// Initial build. A missing corpus waits for the first webhook clone.
	if c.corpus.Exists() {
		if _, err := pipeline.Refresh(ctx, "startup"); err != nil {
			logger.Warn("initial build failed", slog.String("error", err.Error()))
		}
	} else {
		logger.Warn("content root does not exist yet", slog.String("root", cfg.Content.Root))
	}

	// Left nil without a secret so /webhook is not routed at all.
	var hook api.Deliverer
	if cfg.Webhook.Enabled() {
		hook = pipeline
	}
	apiRouter := api.NewRouter(c.svc, hook, broker, api.Config{
		Name:  cfg.App.Name,
		URL:   cfg.App.URL,
		Debug: cfg.App.Debug,
	}, logger)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)

	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, "ok")
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		if !ready.ready.Load() {
			writeStatus(w, http.StatusServiceUnavailable, "building")
			return
		}
		writeStatus(w, http.StatusOK, "ok")
	})

	r.Mount("/", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Rebuild on local edits.
	if cfg.Content.Watch && c.corpus.Exists() {
		g.Go(func() error {
			err := storage.Watch(gCtx, c.corpus.Root(), cfg.Content.WatchDebounce, logger,
				onContentChange(c.corpus.Root(), pipeline, broker, logger))
			if err != nil {
				logger.Error("watcher stopped", slog.String("error", err.Error()))
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

		logger.Info("Shutting down server...", slog.Int("sse_clients", broker.ClientCount()))

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

// Reindex rebuilds the index and wipes the render cache once, then returns.
// With WithPull the working copy is cloned or pulled first.
func Reindex(ctx context.Context, opts ...Option) (index.Stats, error) {
	app, err := newApplication(opts)
	if err != nil {
		return index.Stats{}, err
	}
	cfg := app.config
	logger := newLogger(app.logOutput, cfg.App.LogLevel)

	c, err := newCore(cfg, logger)
	if err != nil {
		return index.Stats{}, err
	}
	defer c.close()

	pipeline := c.pipeline(cfg, nil, logger)
	if app.pull {
		if cfg.Content.Remote == "" && !c.corpus.Exists() {
			return index.Stats{}, fmt.Errorf("content.remote is required to clone %s", cfg.Content.Root)
		}
		return pipeline.Update(ctx, "cli")
	}
	return pipeline.Refresh(ctx, "cli")
}

// ServeMCP serves the read-only post tools over stdio. Logs go to stderr
// since stdout carries the protocol.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	cfg := app.config
	logger := newLogger(app.logOutput, cfg.App.LogLevel)

	c, err := newCore(cfg, logger)
	if err != nil {
		return err
	}
	defer c.close()

	if c.corpus.Exists() {
		if _, err := c.pipeline(cfg, nil, logger).Refresh(ctx, "mcp"); err != nil {
			logger.Warn("initial build failed", slog.String("error", err.Error()))
		}
	}

	logger.Info("Serving MCP over stdio", slog.String("version", app.version))
	return mcpserver.New(c.svc, app.version).ServeStdio()
}
