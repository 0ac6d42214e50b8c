package http

import "errors"

// Parser errors. Each one is recovered by the connection handler and answered
// with a 4xx/5xx response before the connection is closed.
var (
	ErrMalformedRequestLine        = errors.New("malformed request line")
	ErrMalformedHeader             = errors.New("malformed header")
	ErrInvalidContentLength        = errors.New("invalid Content-Length")
	ErrUnsupportedTransferEncoding = errors.New("unsupported Transfer-Encoding")
	ErrIncompleteBody              = errors.New("incomplete request body")
	ErrHeaderTooLarge              = errors.New("request header too large")
	ErrBodyTooLarge                = errors.New("request body too large")
)

// ErrHandlerFault marks a failure raised by application code. The dispatch
// layer turns it into a 500 response.
var ErrHandlerFault = errors.New("handler fault")

// StatusForError maps a parser error to the status of the synthetic response
// sent before closing. Unknown errors map to 400.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, ErrHeaderTooLarge):
		return StatusRequestHeaderFieldsTooLarge
	case errors.Is(err, ErrBodyTooLarge):
		return StatusRequestEntityTooLarge
	case errors.Is(err, ErrUnsupportedTransferEncoding):
		return StatusNotImplemented
	case errors.Is(err, ErrHandlerFault):
		return StatusInternalServerError
	default:
		return StatusBadRequest
	}
}
