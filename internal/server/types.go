// Package server defines shared transport errors and helpers that are reused
// across client and handler logic.
package server

import (
	"errors"
	"strings"

	"github.com/Tyrowin/walkietalkie/internal/relay"
)

var (
	ErrClientClosed   = errors.New("client closed")
	ErrSendBufferFull = errors.New("send buffer full")
)

// Lifecycle receives the notifications a Client produces over its lifetime.
// *relay.Supervisor implements it.
type Lifecycle interface {
	Opened(conn relay.Connection)
	Message(conn relay.Connection, raw []byte)
	Closed(conn relay.Connection)
	Failed(conn relay.Connection, err error)
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
