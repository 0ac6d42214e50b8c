package core

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/rs/zerolog"
	"golang.org/x/net/netutil"

	"github.com/searchktools/minihttp/core/http"
	"github.com/searchktools/minihttp/core/middleware"
	"github.com/searchktools/minihttp/core/observability"
	"github.com/searchktools/minihttp/core/pools"
	"github.com/searchktools/minihttp/core/router"
)

// Options configures an Engine. Zero durations select the defaults.
type Options struct {
	Logger *zerolog.Logger

	ReadTimeout     time.Duration // time allowed to read one request after its first byte
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration // time a connection may wait for its next request
	ShutdownTimeout time.Duration

	// MaxConnections bounds concurrently served connections; 0 is unbounded.
	MaxConnections int
	Limits         http.Limits

	// MethodNotAllowedStatus is the status for a path that exists under other
	// methods: 405 (with Allow) or 404.
	MethodNotAllowedStatus int
	ReusePort              bool
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}
	if o.ReadTimeout == 0 {
		o.ReadTimeout = DefaultReadTimeout
	}
	if o.WriteTimeout == 0 {
		o.WriteTimeout = DefaultWriteTimeout
	}
	if o.IdleTimeout == 0 {
		o.IdleTimeout = DefaultIdleTimeout
	}
	if o.ShutdownTimeout == 0 {
		o.ShutdownTimeout = DefaultShutdownTimeout
	}
	if o.MethodNotAllowedStatus != http.StatusNotFound {
		o.MethodNotAllowedStatus = http.StatusMethodNotAllowed
	}
	return o
}

// Engine is an HTTP/1.1 server: a route table, a listener accept loop and one
// goroutine per connection.
type Engine struct {
	opts   Options
	logger zerolog.Logger

	router     *router.Router[http.HandlerFunc]
	pipeline   *middleware.Pipeline
	freezeOnce sync.Once
	frozen     atomic.Bool

	notFound         http.HandlerFunc
	methodNotAllowed http.HandlerFunc

	buffers *pools.BufioPool
	monitor *observability.PerformanceMonitor

	conns      *xsync.MapOf[uint64, *conn]
	nextConnID atomic.Uint64
	accepted   atomic.Uint64
	requests   atomic.Uint64

	mu         sync.Mutex
	listeners  map[*net.Listener]struct{}
	inShutdown atomic.Bool
	done       chan struct{}
	doneOnce   sync.Once
}

// NewEngine creates a new engine instance
func NewEngine(opts Options) *Engine {
	opts = opts.withDefaults()
	e := &Engine{
		opts:     opts,
		logger:   opts.Logger.With().Str("component", "engine").Logger(),
		router:   router.New[http.HandlerFunc](),
		pipeline: middleware.NewPipeline(),
		buffers: pools.NewBufioPool(pools.BufioConfig{
			ReaderSize: readBufferSize,
			WriterSize: writeBufferSize,
			WarmupSize: 64,
		}),
		monitor:   observability.NewPerformanceMonitor(),
		conns:     xsync.NewMapOf[uint64, *conn](),
		listeners: make(map[*net.Listener]struct{}),
		done:      make(chan struct{}),
	}
	return e
}

// Options returns the effective options.
func (e *Engine) Options() Options {
	return e.opts
}

// Logger returns the engine logger.
func (e *Engine) Logger() *zerolog.Logger {
	return &e.logger
}

// Monitor returns the per-route request monitor.
func (e *Engine) Monitor() *observability.PerformanceMonitor {
	return e.monitor
}

// Use appends middlewares applied to every route, including the 404 and 405
// fallbacks. It must be called before serving.
func (e *Engine) Use(m ...middleware.Middleware) {
	if e.frozen.Load() {
		panic(fmt.Errorf("core: Use: %w", ErrRoutesFrozen))
	}
	e.pipeline.Use(m...)
}

// Handle registers a route. Patterns are made of literal segments, ":name"
// parameters and an optional trailing "*name" wildcard.
func (e *Engine) Handle(method, pattern string, handler http.HandlerFunc) {
	if e.frozen.Load() {
		panic(fmt.Errorf("core: Handle %s %s: %w", method, pattern, ErrRoutesFrozen))
	}
	e.router.Add(method, pattern, handler)
}

// GET registers a GET route
func (e *Engine) GET(path string, handler http.HandlerFunc) {
	e.Handle(http.MethodGet, path, handler)
}

// POST registers a POST route
func (e *Engine) POST(path string, handler http.HandlerFunc) {
	e.Handle(http.MethodPost, path, handler)
}

// PUT registers a PUT route
func (e *Engine) PUT(path string, handler http.HandlerFunc) {
	e.Handle(http.MethodPut, path, handler)
}

// DELETE registers a DELETE route
func (e *Engine) DELETE(path string, handler http.HandlerFunc) {
	e.Handle(http.MethodDelete, path, handler)
}

// PATCH registers a PATCH route
func (e *Engine) PATCH(path string, handler http.HandlerFunc) {
	e.Handle(http.MethodPatch, path, handler)
}

// HEAD registers a HEAD route
func (e *Engine) HEAD(path string, handler http.HandlerFunc) {
	e.Handle(http.MethodHead, path, handler)
}

// OPTIONS registers an OPTIONS route
func (e *Engine) OPTIONS(path string, handler http.HandlerFunc) {
	e.Handle(http.MethodOptions, path, handler)
}

// Routes lists the registered routes in registration order.
func (e *Engine) Routes() []*router.Route[http.HandlerFunc] {
	return e.router.Routes()
}

// freeze wraps every handler with the middleware pipeline and makes the
// route table read-only. It runs once, before the first connection.
func (e *Engine) freeze() {
	e.freezeOnce.Do(func() {
		for _, rt := range e.router.Routes() {
			rt.Handler = e.pipeline.Then(rt.Handler)
		}
		e.notFound = e.pipeline.Then(notFoundHandler)
		if e.opts.MethodNotAllowedStatus == http.StatusNotFound {
			e.methodNotAllowed = e.notFound
		} else {
			e.methodNotAllowed = e.pipeline.Then(methodNotAllowedHandler)
		}
		e.router.Freeze()
		e.frozen.Store(true)
	})
}

// Run listens on addr and serves until Shutdown or Close.
func (e *Engine) Run(addr string) error {
	ln, err := e.Listen(addr)
	if err != nil {
		return err
	}
	return e.Serve(ln)
}

// Listen binds a TCP listener with the engine's socket options.
func (e *Engine) Listen(addr string) (net.Listener, error) {
	lc := net.ListenConfig{
		Control:   controlSocket(e.opts.ReusePort),
		KeepAlive: 30 * time.Second,
	}
	ln, err := lc.Listen(context.Background(), "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return ln, nil
}

// Serve accepts connections on ln and serves each on its own goroutine.
// Accept errors are logged and retried with backoff. Serve always returns a
// non-nil error; after Shutdown or Close it is ErrServerClosed.
func (e *Engine) Serve(ln net.Listener) error {
	e.freeze()

	if e.opts.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, e.opts.MaxConnections)
	}
	if !e.trackListener(&ln, true) {
		ln.Close()
		return ErrServerClosed
	}
	defer e.trackListener(&ln, false)

	e.logger.Info().
		Str("addr", ln.Addr().String()).
		Int("routes", len(e.router.Routes())).
		Int("max_connections", e.opts.MaxConnections).
		Msg("server listening")

	var tempDelay time.Duration
	for {
		rwc, err := ln.Accept()
		if err != nil {
			if e.shuttingDown() {
				return ErrServerClosed
			}
			if errors.Is(err, net.ErrClosed) {
				return fmt.Errorf("%w: %w", ErrAcceptFailed, err)
			}

			if tempDelay == 0 {
				tempDelay = 5 * time.Millisecond
			} else {
				tempDelay *= 2
			}
			if tempDelay > time.Second {
				tempDelay = time.Second
			}
			e.logger.Error().
				Err(fmt.Errorf("%w: %w", ErrAcceptFailed, err)).
				Dur("retry_in", tempDelay).
				Msg("accept error")

			select {
			case <-time.After(tempDelay):
			case <-e.done:
				return ErrServerClosed
			}
			continue
		}
		tempDelay = 0

		e.accepted.Add(1)
		c := e.newConn(rwc)
		go c.serve()
	}
}

// Shutdown stops accepting, closes idle connections and waits for in-flight
// requests to finish. If ctx expires first the remaining connections are
// closed and ctx.Err() is returned.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.inShutdown.Store(true)
	e.doneOnce.Do(func() { close(e.done) })
	err := e.closeListeners()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		e.wakeIdleConns()
		if e.conns.Size() == 0 {
			return err
		}
		select {
		case <-ctx.Done():
			e.closeConns()
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Close immediately closes all listeners and connections.
func (e *Engine) Close() error {
	e.inShutdown.Store(true)
	e.doneOnce.Do(func() { close(e.done) })
	err := e.closeListeners()
	e.closeConns()
	return err
}

func (e *Engine) shuttingDown() bool {
	return e.inShutdown.Load()
}

func (e *Engine) trackListener(ln *net.Listener, add bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if add {
		if e.shuttingDown() {
			return false
		}
		e.listeners[ln] = struct{}{}
	} else {
		delete(e.listeners, ln)
	}
	return true
}

func (e *Engine) closeListeners() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var errs []error
	for ln := range e.listeners {
		if err := (*ln).Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// wakeIdleConns expires the read deadline of connections waiting for a
// request so they observe the shutdown and close.
func (e *Engine) wakeIdleConns() {
	e.conns.Range(func(_ uint64, c *conn) bool {
		if c.getState() == StateIdle {
			c.rwc.SetReadDeadline(aLongTimeAgo)
		}
		return true
	})
}

func (e *Engine) closeConns() {
	e.conns.Range(func(_ uint64, c *conn) bool {
		c.rwc.Close()
		return true
	})
}

var aLongTimeAgo = time.Unix(1, 0)
