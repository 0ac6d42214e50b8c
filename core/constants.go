package core

import (
	"errors"
	"time"
)

// Defaults applied by NewEngine for zero Options fields.
const (
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 10 * time.Second
	DefaultIdleTimeout     = 5 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	readBufferSize  = 4 << 10
	writeBufferSize = 4 << 10
)

// Error definitions
var (
	ErrWriteFailed  = errors.New("write failed")
	ErrAcceptFailed = errors.New("accept failed")
	ErrServerClosed = errors.New("server closed")
	ErrRoutesFrozen = errors.New("route table is frozen")
)

// ConnState is a connection's position in the request/response cycle.
type ConnState int32

// Connection states
const (
	StateIdle ConnState = iota
	StateReading
	StateDispatching
	StateWriting
	StateClosing
)

var connStateNames = [...]string{
	StateIdle:        "idle",
	StateReading:     "reading",
	StateDispatching: "dispatching",
	StateWriting:     "writing",
	StateClosing:     "closing",
}

func (s ConnState) String() string {
	if s < 0 || int(s) >= len(connStateNames) {
		return "unknown"
	}
	return connStateNames[s]
}
