package core

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/searchktools/minihttp/core/http"
)

// conn is one accepted connection. It is served by a single goroutine that
// walks the states Idle, Reading, Dispatching, Writing and finally Closing.
type conn struct {
	id     uint64
	engine *Engine
	rwc    net.Conn
	remote string
	state  atomic.Int32
	logger zerolog.Logger

	br     *bufio.Reader
	bw     *bufio.Writer
	parser *http.Parser
	writer *http.ResponseWriter

	requests int
}

func (e *Engine) newConn(rwc net.Conn) *conn {
	id := e.nextConnID.Add(1)
	remote := rwc.RemoteAddr().String()
	c := &conn{
		id:     id,
		engine: e,
		rwc:    rwc,
		remote: remote,
		logger: e.opts.Logger.With().Uint64("conn_id", id).Str("remote", remote).Logger(),
		br:     e.buffers.GetReader(rwc),
		bw:     e.buffers.GetWriter(rwc),
	}
	c.parser = http.NewParser(c.br, e.opts.Limits)
	c.writer = http.NewResponseWriter(c.bw)
	c.setState(StateIdle)
	e.conns.Store(id, c)
	return c
}

func (c *conn) setState(s ConnState) {
	c.state.Store(int32(s))
}

func (c *conn) getState() ConnState {
	return ConnState(c.state.Load())
}

// serve runs the request loop until the connection closes. Requests on one
// connection are handled strictly in order.
func (c *conn) serve() {
	defer c.close()
	c.logger.Debug().Msg("connection opened")

	e := c.engine
	for {
		// Idle: wait for the first byte of the next request.
		c.setState(StateIdle)
		if e.shuttingDown() {
			return
		}
		c.setReadDeadline(e.opts.IdleTimeout)
		if _, err := c.br.Peek(1); err != nil {
			c.logEnd(err, "idle")
			return
		}

		// Reading
		c.setState(StateReading)
		c.setReadDeadline(e.opts.ReadTimeout)
		req, err := c.parser.ReadRequest()
		if err != nil {
			c.rejectRequest(err)
			return
		}
		req.RemoteAddr = c.remote

		// Dispatching
		c.setState(StateDispatching)
		res := e.dispatch(req, c.logger)
		keepAlive := req.KeepAlive() && !res.Close && !e.shuttingDown()

		// Writing
		c.setState(StateWriting)
		if err := c.write(res, req, keepAlive); err != nil {
			c.logger.Debug().Err(err).Str("method", req.Method).Str("path", req.Path).Msg("response not delivered")
			return
		}
		c.requests++
		e.requests.Add(1)

		if !keepAlive {
			return
		}
	}
}

// rejectRequest answers a request that could not be parsed. Only a peer that
// closed before sending anything, or a broken socket, gets no answer; a
// truncated request after a half-close still receives a 400.
func (c *conn) rejectRequest(err error) {
	var status int
	var ne net.Error
	var opErr *net.OpError
	switch {
	case errors.As(err, &ne) && ne.Timeout():
		status = http.StatusRequestTimeout
	case errors.Is(err, http.ErrIncompleteBody), errors.Is(err, io.ErrUnexpectedEOF):
		status = http.StatusBadRequest
	case errors.Is(err, io.EOF), errors.As(err, &opErr):
		c.logEnd(err, "reading")
		return
	default:
		status = http.StatusForError(err)
	}

	c.logger.Warn().Err(err).Int("status", status).Msg("rejecting request")
	c.setState(StateWriting)
	if werr := c.write(errorResponse(status, http.StatusText(status)), nil, false); werr != nil {
		c.logger.Debug().Err(werr).Msg("error response not delivered")
	}
}

func (c *conn) write(res *http.Response, req *http.Request, keepAlive bool) error {
	if d := c.engine.opts.WriteTimeout; d > 0 {
		c.rwc.SetWriteDeadline(time.Now().Add(d))
	}
	if err := c.writer.Write(res, req, keepAlive); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}

func (c *conn) setReadDeadline(d time.Duration) {
	if d > 0 {
		c.rwc.SetReadDeadline(time.Now().Add(d))
	} else {
		c.rwc.SetReadDeadline(time.Time{})
	}
}

func (c *conn) logEnd(err error, state string) {
	ev := c.logger.Debug()
	var ne net.Error
	switch {
	case errors.Is(err, io.EOF):
		ev.Str("reason", "peer closed")
	case errors.As(err, &ne) && ne.Timeout():
		ev.Str("reason", "timeout")
	default:
		ev.Err(err)
	}
	ev.Str("state", state).Msg("read ended")
}

// close releases every resource owned by the connection.
func (c *conn) close() {
	c.setState(StateClosing)
	c.rwc.Close()
	c.engine.conns.Delete(c.id)
	c.engine.buffers.PutReader(c.br)
	c.engine.buffers.PutWriter(c.bw)
	c.br, c.bw = nil, nil
	c.logger.Debug().Int("requests", c.requests).Msg("connection closed")
}
