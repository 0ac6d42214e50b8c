package core

import (
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/searchktools/minihttp/core/codec"
	"github.com/searchktools/minihttp/core/http"
	"github.com/searchktools/minihttp/core/router"
)

// Monitor keys for requests that matched no route.
const (
	unmatchedRoute   = "NOT_FOUND"
	wrongMethodRoute = "METHOD_NOT_ALLOWED"
)

// dispatch routes req and runs its handler. It always returns a response:
// routing misses become 404/405 and handler errors or panics become 500.
func (e *Engine) dispatch(req *http.Request, logger zerolog.Logger) (res *http.Response) {
	ctx := http.NewContext(req, logger)
	start := e.monitor.StartTrace()
	key := unmatchedRoute

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Str("method", req.Method).Str("path", req.Path).Msg("handler panic")
			res = internalError()
		}
		e.monitor.EndTrace(key, start, res.Status >= http.StatusInternalServerError)
	}()

	var h http.HandlerFunc
	rt, params, err := e.router.Match(req.Method, req.Path)
	var mna *router.MethodNotAllowedError
	switch {
	case err == nil:
		req.Params = params
		ctx.SetRoute(rt.Pattern)
		key = req.Method + " " + rt.Pattern
		h = rt.Handler
	case errors.As(err, &mna):
		key = wrongMethodRoute
		if e.opts.MethodNotAllowedStatus == http.StatusMethodNotAllowed {
			ctx.SetHeader(http.HeaderAllow, strings.Join(mna.Allowed, ", "))
		}
		h = e.methodNotAllowed
	default:
		h = e.notFound
	}

	if err := h(ctx); err != nil {
		logger.Error().Err(err).Str("method", req.Method).Str("path", req.Path).Msg("handler failed")
		return internalError()
	}
	return ctx.Response()
}

func notFoundHandler(ctx *http.Context) error {
	return ctx.Error(http.StatusNotFound, http.StatusText(http.StatusNotFound))
}

func methodNotAllowedHandler(ctx *http.Context) error {
	return ctx.Error(http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
}

func internalError() *http.Response {
	return errorResponse(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}

// errorResponse builds a JSON {"error": message} response.
func errorResponse(status int, message string) *http.Response {
	res := http.NewResponse(status)
	body, _ := codec.JSON().Encode(http.ErrorBody{Error: message})
	res.Header.Set(http.HeaderContentType, codec.MIMEJSON)
	res.Body = body
	return res
}
