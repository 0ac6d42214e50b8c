package http

import (
	"net/url"

	"golang.org/x/net/http/httpguts"
)

// Request methods
const (
	MethodGet     = "GET"
	MethodHead    = "HEAD"
	MethodPost    = "POST"
	MethodPut     = "PUT"
	MethodPatch   = "PATCH"
	MethodDelete  = "DELETE"
	MethodOptions = "OPTIONS"
)

// Request is one parsed HTTP/1.x request. It is owned by the connection that
// read it and is not modified after parsing, except for Params which the
// router fills in on a match.
type Request struct {
	Method string
	// Target is the raw request-target from the request line.
	Target   string
	Path     string
	RawQuery string
	Query    url.Values

	Proto      string
	ProtoMajor int
	ProtoMinor int

	Header        Header
	ContentLength int64
	Body          []byte

	Params Params

	RemoteAddr string
}

// ProtoAtLeast reports whether the request version is at least major.minor.
func (r *Request) ProtoAtLeast(major, minor int) bool {
	return r.ProtoMajor > major || r.ProtoMajor == major && r.ProtoMinor >= minor
}

// KeepAlive reports whether the client asked for the connection to stay open
// after this request. HTTP/1.1 persists unless "close" is sent; HTTP/1.0
// persists only with "keep-alive".
func (r *Request) KeepAlive() bool {
	conn := r.Header.Values(HeaderConnection)
	if httpguts.HeaderValuesContainsToken(conn, "close") {
		return false
	}
	if r.ProtoAtLeast(1, 1) {
		return true
	}
	return httpguts.HeaderValuesContainsToken(conn, "keep-alive")
}

// Param is a named value captured from the request path.
type Param struct {
	Key   string
	Value string
}

// Params holds path parameters in pattern order.
type Params []Param

// Get returns the value for key, or "".
func (ps Params) Get(key string) string {
	v, _ := ps.Lookup(key)
	return v
}

// Lookup returns the value for key and whether it was captured.
func (ps Params) Lookup(key string) (string, bool) {
	for _, p := range ps {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}
