package middleware

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/http/httpguts"

	"github.com/searchktools/minihttp/core/http"
)

// Middleware wraps a handler with cross-cutting behaviour
type Middleware func(next http.HandlerFunc) http.HandlerFunc

// Pipeline is an ordered middleware chain. The first middleware added is the
// outermost one.
type Pipeline struct {
	middlewares []Middleware
}

// NewPipeline creates a new middleware pipeline
func NewPipeline(m ...Middleware) *Pipeline {
	p := &Pipeline{
		middlewares: make([]Middleware, 0, 8),
	}
	return p.Use(m...)
}

// Use appends middlewares to the pipeline
func (p *Pipeline) Use(m ...Middleware) *Pipeline {
	p.middlewares = append(p.middlewares, m...)
	return p
}

// Len returns the number of middlewares
func (p *Pipeline) Len() int {
	return len(p.middlewares)
}

// Then wraps h with every middleware in the pipeline. Wrapping happens once,
// so the per-request cost is plain function calls.
func (p *Pipeline) Then(h http.HandlerFunc) http.HandlerFunc {
	for i := len(p.middlewares) - 1; i >= 0; i-- {
		h = p.middlewares[i](h)
	}
	return h
}

// Common middleware implementations

// Recovery converts a handler panic into a handler fault.
func Recovery() Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(ctx *http.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					buf := make([]byte, 4<<10)
					buf = buf[:runtime.Stack(buf, false)]
					ctx.Logger().Error().
						Interface("panic", r).
						Bytes("stack", buf).
						Msg("panic recovered")
					err = fmt.Errorf("%w: panic: %v", http.ErrHandlerFault, r)
				}
			}()
			return next(ctx)
		}
	}
}

// Logger logs one event per request. Handler faults are logged at error
// level, 5xx responses at warn level.
func Logger() Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(ctx *http.Context) error {
			start := time.Now()
			err := next(ctx)

			res := ctx.Response()
			status := res.Status
			var ev *zerolog.Event
			switch {
			case err != nil:
				status = http.StatusInternalServerError
				ev = ctx.Logger().Error().Err(err)
			case status >= 500:
				ev = ctx.Logger().Warn()
			default:
				ev = ctx.Logger().Info()
			}
			ev.Str("method", ctx.Method()).
				Str("path", ctx.Path()).
				Str("route", ctx.Route()).
				Int("status", status).
				Int("bytes", len(res.Body)).
				Dur("duration", time.Since(start)).
				Msg("request")
			return err
		}
	}
}

const maxRequestIDLen = 128

// RequestID propagates a valid incoming X-Request-ID or assigns a new one,
// echoes it on the response and adds it to the request logger.
func RequestID() Middleware {
	var counter atomic.Uint64
	prefix := strconv.FormatInt(time.Now().UnixNano(), 36)

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(ctx *http.Context) error {
			id := ctx.Header(http.HeaderRequestID)
			if id == "" || len(id) > maxRequestIDLen || !httpguts.ValidHeaderFieldValue(id) {
				id = prefix + "-" + strconv.FormatUint(counter.Add(1), 10)
			}
			ctx.SetHeader(http.HeaderRequestID, id)
			ctx.SetLogger(ctx.Logger().With().Str("request_id", id).Logger())
			return next(ctx)
		}
	}
}

// CORS adds permissive CORS headers and answers preflight requests.
func CORS() Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(ctx *http.Context) error {
			ctx.SetHeader("Access-Control-Allow-Origin", "*")
			ctx.SetHeader("Access-Control-Allow-Methods", strings.Join([]string{
				http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions,
			}, ", "))
			ctx.SetHeader("Access-Control-Allow-Headers", "Content-Type, Authorization, "+http.HeaderRequestID)

			if ctx.Method() == http.MethodOptions {
				ctx.Response().Header.Del(http.HeaderAllow)
				return ctx.NoContent(http.StatusNoContent)
			}
			return next(ctx)
		}
	}
}

// RateLimiter allows requestsPerSecond requests per one-second window across
// all connections. Requests over the limit get a 429.
func RateLimiter(requestsPerSecond int) Middleware {
	var (
		tokens     = requestsPerSecond
		lastRefill = time.Now()
		mu         sync.Mutex
	)

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(ctx *http.Context) error {
			mu.Lock()
			now := time.Now()
			if now.Sub(lastRefill) >= time.Second {
				tokens = requestsPerSecond
				lastRefill = now
			}
			allowed := tokens > 0
			if allowed {
				tokens--
			}
			mu.Unlock()

			if !allowed {
				return ctx.Error(http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests))
			}
			return next(ctx)
		}
	}
}
