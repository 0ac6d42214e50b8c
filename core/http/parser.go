package http

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/http/httpguts"
)

// Default parser limits
const (
	DefaultMaxHeaderBytes = 1 << 20  // 1MB for request line + headers
	DefaultMaxBodyBytes   = 32 << 20 // 32MB
)

// Limits bounds what a Parser accepts. Zero values select the defaults; a
// negative MaxBodyBytes disables the body limit.
type Limits struct {
	MaxHeaderBytes int
	MaxBodyBytes   int64
}

func (l Limits) withDefaults() Limits {
	if l.MaxHeaderBytes <= 0 {
		l.MaxHeaderBytes = DefaultMaxHeaderBytes
	}
	if l.MaxBodyBytes == 0 {
		l.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return l
}

// Parser reads successive requests from one connection's byte stream.
type Parser struct {
	r      *bufio.Reader
	limits Limits
}

// NewParser creates a parser reading from r.
func NewParser(r *bufio.Reader, limits Limits) *Parser {
	return &Parser{r: r, limits: limits.withDefaults()}
}

// ParseRequest parses a single request held entirely in data.
func ParseRequest(data []byte) (*Request, error) {
	return NewParser(bufio.NewReader(bytes.NewReader(data)), Limits{}).ReadRequest()
}

// ReadRequest reads exactly one request, body included. It returns io.EOF
// when the peer closed the stream before sending any byte of a new request,
// and io.ErrUnexpectedEOF when it closed inside the request head.
func (p *Parser) ReadRequest() (*Request, error) {
	budget := p.limits.MaxHeaderBytes

	// Empty lines before the request line are ignored.
	var line []byte
	var err error
	for len(line) == 0 {
		line, err = p.readLine(&budget)
		if err != nil {
			return nil, err
		}
	}

	req := &Request{}
	if err := parseRequestLine(req, string(line)); err != nil {
		return nil, err
	}

	if err := p.readHeaders(req, &budget); err != nil {
		return nil, err
	}

	if err := p.readBody(req); err != nil {
		return nil, err
	}
	return req, nil
}

// readLine returns the next line without its CRLF or LF terminator.
func (p *Parser) readLine(budget *int) ([]byte, error) {
	var line []byte
	for {
		frag, err := p.r.ReadSlice('\n')
		*budget -= len(frag)
		if *budget < 0 {
			return nil, ErrHeaderTooLarge
		}
		line = append(line, frag...)
		if err == nil {
			break
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}

	line = line[:len(line)-1]
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return line, nil
}

// parseRequestLine parses "METHOD SP request-target SP HTTP-version".
func parseRequestLine(req *Request, line string) error {
	method, rest, ok1 := strings.Cut(line, " ")
	target, proto, ok2 := strings.Cut(rest, " ")
	if !ok1 || !ok2 || method == "" || target == "" || proto == "" {
		return fmt.Errorf("%w: %q", ErrMalformedRequestLine, line)
	}
	if !httpguts.ValidHeaderFieldName(method) {
		return fmt.Errorf("%w: invalid method %q", ErrMalformedRequestLine, method)
	}

	major, minor, ok := parseHTTPVersion(proto)
	if !ok {
		return fmt.Errorf("%w: unsupported version %q", ErrMalformedRequestLine, proto)
	}

	if target[0] != '/' && target != "*" {
		return fmt.Errorf("%w: invalid target %q", ErrMalformedRequestLine, target)
	}

	req.Method = method
	req.Target = target
	req.Proto = proto
	req.ProtoMajor = major
	req.ProtoMinor = minor

	req.Path, req.RawQuery, _ = strings.Cut(target, "?")
	if req.RawQuery != "" {
		// Malformed pairs are dropped; what parsed is kept.
		req.Query, _ = url.ParseQuery(req.RawQuery)
	}
	return nil
}

// parseHTTPVersion accepts HTTP/1.x with a single minor digit.
func parseHTTPVersion(proto string) (major, minor int, ok bool) {
	if len(proto) != len("HTTP/1.1") || !strings.HasPrefix(proto, "HTTP/1.") {
		return 0, 0, false
	}
	d := proto[len(proto)-1]
	if d < '0' || d > '9' {
		return 0, 0, false
	}
	return 1, int(d - '0'), true
}

// readHeaders reads "Name: Value" lines up to the empty line.
func (p *Parser) readHeaders(req *Request, budget *int) error {
	for {
		line, err := p.readLine(budget)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return io.ErrUnexpectedEOF
			}
			return err
		}
		if len(line) == 0 {
			return nil
		}

		// Obsolete line folding is rejected.
		if line[0] == ' ' || line[0] == '\t' {
			return fmt.Errorf("%w: folded line %q", ErrMalformedHeader, line)
		}

		name, value, ok := strings.Cut(string(line), ":")
		if !ok {
			return fmt.Errorf("%w: missing colon in %q", ErrMalformedHeader, line)
		}
		name = strings.TrimSpace(name)
		value = strings.Trim(value, " \t")
		if !httpguts.ValidHeaderFieldName(name) {
			return fmt.Errorf("%w: invalid name %q", ErrMalformedHeader, name)
		}
		if !httpguts.ValidHeaderFieldValue(value) {
			return fmt.Errorf("%w: invalid value for %q", ErrMalformedHeader, name)
		}
		req.Header.Add(name, value)
	}
}

// readBody reads exactly Content-Length bytes.
func (p *Parser) readBody(req *Request) error {
	if req.Header.Has(HeaderTransferEncoding) {
		return fmt.Errorf("%w: %q", ErrUnsupportedTransferEncoding, req.Header.Get(HeaderTransferEncoding))
	}

	n, err := contentLength(req.Header.Values(HeaderContentLength))
	if err != nil {
		return err
	}
	if p.limits.MaxBodyBytes > 0 && n > p.limits.MaxBodyBytes {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrBodyTooLarge, n, p.limits.MaxBodyBytes)
	}
	req.ContentLength = n
	if n == 0 {
		return nil
	}

	req.Body = make([]byte, n)
	read, err := io.ReadFull(p.r, req.Body)
	if err != nil {
		req.Body = nil
		return fmt.Errorf("%w: read %d of %d bytes: %w", ErrIncompleteBody, read, n, err)
	}
	return nil
}

// contentLength validates the Content-Length values. Repeated fields must
// agree; absence means zero.
func contentLength(values []string) (int64, error) {
	if len(values) == 0 {
		return 0, nil
	}
	first := values[0]
	for _, v := range values[1:] {
		if v != first {
			return 0, fmt.Errorf("%w: conflicting values %q and %q", ErrInvalidContentLength, first, v)
		}
	}
	if first == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidContentLength)
	}
	for i := 0; i < len(first); i++ {
		if first[i] < '0' || first[i] > '9' {
			return 0, fmt.Errorf("%w: %q", ErrInvalidContentLength, first)
		}
	}
	n, err := strconv.ParseInt(first, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidContentLength, first)
	}
	return n, nil
}
