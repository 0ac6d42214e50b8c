package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/searchktools/minihttp/config"
	"github.com/searchktools/minihttp/core"
	"github.com/searchktools/minihttp/core/http"
	"github.com/searchktools/minihttp/core/middleware"
)

// App wires configuration, logging and the engine together and owns the
// server lifecycle.
type App struct {
	cfg    *config.Config
	logger zerolog.Logger
	engine *core.Engine
}

// New creates an application instance logging to stderr
func New(cfg *config.Config) *App {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter creates an application instance logging to w
func NewWithWriter(cfg *config.Config, w io.Writer) *App {
	logger := NewLogger(cfg, w)
	if len(cfg.Overrides) > 0 {
		logger.Debug().Str("file", cfg.File).Interface("overrides", cfg.Overrides).Msg("configuration overrides")
	}

	engine := core.NewEngine(core.Options{
		Logger:          &logger,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		IdleTimeout:     cfg.IdleTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
		MaxConnections:  cfg.MaxConnections,
		Limits: http.Limits{
			MaxHeaderBytes: cfg.MaxHeaderBytes,
			MaxBodyBytes:   cfg.MaxBodyBytes,
		},
		MethodNotAllowedStatus: cfg.MethodNotAllowedStatus,
		ReusePort:              cfg.ReusePort,
	})

	engine.Use(middleware.RequestID(), middleware.Logger(), middleware.Recovery())
	if cfg.CORS {
		engine.Use(middleware.CORS())
	}
	if cfg.RateLimit > 0 {
		engine.Use(middleware.RateLimiter(cfg.RateLimit))
	}
	if cfg.Stats {
		engine.GET("/debug/stats", engine.StatsHandler())
	}

	return &App{
		cfg:    cfg,
		logger: logger,
		engine: engine,
	}
}

// NewLogger builds the root logger: human-readable console output in
// development, JSON lines otherwise.
func NewLogger(cfg *config.Config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	if cfg.Development() {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Str("service", http.ServerName).Logger()
}

// Engine returns the underlying engine for route registration
func (a *App) Engine() *core.Engine {
	return a.engine
}

// Logger returns the root logger
func (a *App) Logger() *zerolog.Logger {
	return &a.logger
}

// Run serves on the configured address until SIGINT or SIGTERM, then shuts
// down gracefully.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := a.engine.Listen(a.cfg.Addr())
	if err != nil {
		return err
	}
	return a.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down within the
// configured shutdown timeout.
func (a *App) Serve(ctx context.Context, ln net.Listener) error {
	a.logger.Info().
		Str("addr", ln.Addr().String()).
		Str("env", a.cfg.Env).
		Msg("mini_http starting")

	served := make(chan error, 1)
	go func() { served <- a.engine.Serve(ln) }()

	select {
	case err := <-served:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info().Dur("timeout", a.cfg.ShutdownTimeout).Msg("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()

	err := a.engine.Shutdown(sctx)
	if serr := <-served; !errors.Is(serr, core.ErrServerClosed) {
		err = errors.Join(err, serr)
	}
	if err != nil {
		a.logger.Error().Err(err).Msg("shutdown incomplete")
		return err
	}
	a.logger.Info().Msg("server stopped")
	return nil
}
