package http

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/searchktools/minihttp/core/codec"
)

// HandlerFunc turns a request into a response through its Context. A returned
// error is a handler fault and is answered with a 500.
type HandlerFunc func(ctx *Context) error

// Context is the handler's view of one exchange: the parsed request and the
// response under construction. Handlers never see the connection.
type Context struct {
	req    *Request
	res    *Response
	logger zerolog.Logger
	route  string
}

// NewContext creates a context for req with a 200 response and no body.
func NewContext(req *Request, logger zerolog.Logger) *Context {
	return &Context{
		req:    req,
		res:    NewResponse(StatusOK),
		logger: logger,
	}
}

// Request returns the parsed request.
func (c *Context) Request() *Request { return c.req }

// Response returns the response under construction.
func (c *Context) Response() *Response { return c.res }

// Logger returns the request-scoped logger.
func (c *Context) Logger() *zerolog.Logger { return &c.logger }

// SetLogger replaces the request-scoped logger.
func (c *Context) SetLogger(l zerolog.Logger) { c.logger = l }

// Route returns the pattern of the matched route.
func (c *Context) Route() string { return c.route }

// SetRoute records the matched pattern.
func (c *Context) SetRoute(pattern string) { c.route = pattern }

func (c *Context) Method() string { return c.req.Method }

func (c *Context) Path() string { return c.req.Path }

// Param returns a path parameter captured by the router.
func (c *Context) Param(key string) string { return c.req.Params.Get(key) }

func (c *Context) Params() Params { return c.req.Params }

// Query returns the first value of a query parameter.
func (c *Context) Query(key string) string { return c.req.Query.Get(key) }

// Header returns the last value of a request header.
func (c *Context) Header(key string) string { return c.req.Header.Get(key) }

func (c *Context) Body() []byte { return c.req.Body }

// Bind decodes the request body using the codec selected by Content-Type.
func (c *Context) Bind(v any) error {
	cd, err := codec.ForContentType(c.req.Header.Get(HeaderContentType))
	if err != nil {
		return err
	}
	return cd.Decode(c.req.Body, v)
}

// Status sets the response status without touching the body.
func (c *Context) Status(code int) *Context {
	c.res.Status = code
	return c
}

// SetHeader sets a response header, replacing earlier values.
func (c *Context) SetHeader(key, value string) {
	c.res.Header.Set(key, value)
}

// Close asks for the connection to be closed after this response.
func (c *Context) Close() {
	c.res.Close = true
}

// Data sends data with an explicit content type.
func (c *Context) Data(code int, contentType string, data []byte) error {
	c.res.Status = code
	c.res.Header.Set(HeaderContentType, contentType)
	c.res.Body = data
	return nil
}

// String sends a plain text response.
func (c *Context) String(code int, s string) error {
	return c.Data(code, "text/plain", []byte(s))
}

// JSON sends v encoded as JSON.
func (c *Context) JSON(code int, v any) error {
	return c.encode(code, codec.JSON(), v)
}

// Render sends v in the encoding negotiated from the Accept header.
func (c *Context) Render(code int, v any) error {
	return c.encode(code, codec.Negotiate(c.req.Header.Get(HeaderAccept)), v)
}

func (c *Context) encode(code int, cd codec.Codec, v any) error {
	data, err := cd.Encode(v)
	if err != nil {
		return fmt.Errorf("%w: %s encode: %w", ErrHandlerFault, cd.Name(), err)
	}
	return c.Data(code, cd.ContentType(), data)
}

// Error sends a JSON error body {"error": message}.
func (c *Context) Error(code int, message string) error {
	return c.JSON(code, ErrorBody{Error: message})
}

// NoContent sends a status with an empty body.
func (c *Context) NoContent(code int) error {
	c.res.Status = code
	c.res.Body = nil
	return nil
}

// Redirect sends a redirect to location.
func (c *Context) Redirect(code int, location string) error {
	if code < 300 || code > 399 {
		code = StatusFound
	}
	c.res.Status = code
	c.res.Header.Set(HeaderLocation, location)
	c.res.Body = nil
	return nil
}

// ErrorBody is the structured body of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}
