package http

import (
	"bufio"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/http/httpguts"
)

// TimeFormat is the layout of the Date header.
const TimeFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

// ServerName is sent in the Server header unless a handler sets its own.
const ServerName = "mini_http"

// Response is what a handler produces: a status, ordered headers and a body.
type Response struct {
	Status int
	Header Header
	Body   []byte

	// Close asks the connection handler to close after writing this response.
	Close bool
}

// NewResponse creates an empty response with the given status.
func NewResponse(status int) *Response {
	return &Response{Status: status}
}

// ResponseWriter serializes responses onto one connection's buffered writer.
type ResponseWriter struct {
	w   *bufio.Writer
	now func() time.Time
}

// NewResponseWriter creates a writer flushing into w.
func NewResponseWriter(w *bufio.Writer) *ResponseWriter {
	return &ResponseWriter{w: w, now: time.Now}
}

// Write sends resp in full: status line, headers, then the body. Exactly one
// Content-Length reflecting len(resp.Body) is emitted for statuses that carry
// a body; handler-supplied Content-Length and Connection fields are replaced.
// req may be nil for responses to unparsable requests.
func (rw *ResponseWriter) Write(resp *Response, req *Request, keepAlive bool) error {
	w := rw.w
	status := resp.Status
	if status < 100 || status > 999 {
		status = StatusInternalServerError
	}

	w.WriteString("HTTP/1.1 ")
	w.WriteString(strconv.Itoa(status))
	w.WriteByte(' ')
	w.WriteString(StatusText(status))
	w.WriteString("\r\n")

	var hasType, hasDate, hasServer bool
	for _, f := range resp.Header.Fields() {
		if !httpguts.ValidHeaderFieldName(f.Name) || !httpguts.ValidHeaderFieldValue(f.Value) {
			continue
		}
		switch {
		case strings.EqualFold(f.Name, HeaderContentLength),
			strings.EqualFold(f.Name, HeaderConnection),
			strings.EqualFold(f.Name, HeaderTransferEncoding):
			continue
		case strings.EqualFold(f.Name, HeaderContentType):
			hasType = true
		case strings.EqualFold(f.Name, HeaderDate):
			hasDate = true
		case strings.EqualFold(f.Name, HeaderServer):
			hasServer = true
		}
		writeField(w, f.Name, f.Value)
	}

	withBody := bodyAllowed(status)
	if withBody {
		if !hasType {
			writeField(w, HeaderContentType, "text/plain")
		}
		writeField(w, HeaderContentLength, strconv.Itoa(len(resp.Body)))
	}
	if !hasDate {
		writeField(w, HeaderDate, rw.now().UTC().Format(TimeFormat))
	}
	if !hasServer {
		writeField(w, HeaderServer, ServerName)
	}
	switch {
	case !keepAlive:
		writeField(w, HeaderConnection, "close")
	case req != nil && !req.ProtoAtLeast(1, 1):
		writeField(w, HeaderConnection, "keep-alive")
	}
	w.WriteString("\r\n")

	if withBody && (req == nil || req.Method != MethodHead) {
		w.Write(resp.Body)
	}
	return w.Flush()
}

func writeField(w *bufio.Writer, name, value string) {
	w.WriteString(name)
	w.WriteString(": ")
	w.WriteString(value)
	w.WriteString("\r\n")
}
