/*
Package minihttp is a small HTTP/1.1 server engine built directly on TCP
sockets, with a sample users and products API on top.

The engine reads requests off a pooled bufio.Reader, routes them by method
and path pattern, runs the handler through a middleware pipeline and writes
the response with exactly one Content-Length. Connections are kept alive per
HTTP/1.1 rules and pipelined requests are answered in order.

Quick Start

	cfg := config.Default()
	application := app.New(cfg)

	engine := application.Engine()
	engine.GET("/hello", func(ctx *http.Context) error {
		return ctx.String(200, "Hello World!")
	})
	engine.GET("/user/:id", func(ctx *http.Context) error {
		return ctx.JSON(200, map[string]string{"id": ctx.Param("id")})
	})

	application.Run()

Modules

  - app: logger construction and the serve/shutdown lifecycle
  - config: flags, JSON file and MINIHTTP_* environment configuration
  - core: listener, connection state machine and dispatch
  - core/http: request parser, context and response writer
  - core/router: method and pattern routing with :param and *wildcard segments
  - core/codec: JSON and protobuf body encodings
  - core/middleware: request id, logging, recovery, CORS and rate limiting
  - core/pools: bufio reader and writer pooling
  - core/observability: per-route latency and error accounting
  - api: the users, products, hello, redirect and echo handlers

The minihttp command in cmd/minihttp serves the sample API.
*/
package minihttp
