// File: api/transport.go
// Author: momentics <momentics@gmail.com>
//
// Connection contract exposed by socket transports to application layers.

package api

import (
	"context"
	"net"
)

// Connection is one transport connection as seen by the application.
type Connection interface {
	// ConnectionID identifies the connection in logs.
	ConnectionID() string

	LocalAddr() net.Addr
	RemoteAddr() net.Addr

	// Transport is the application side of the connection's duplex pipe.
	Transport() DuplexPipe

	// ConnectionClosed is canceled once the receive side has finished.
	ConnectionClosed() context.Context

	// Abort tears the connection down with reason.
	Abort(reason error)

	// Close completes the application side and waits for teardown.
	Close() error
}
