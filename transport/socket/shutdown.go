// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package socket

import (
	"github.com/momentics/hioload-transport/api"
	"github.com/momentics/hioload-transport/internal/sockio"
)

// shutdown records reason and closes the socket on the first call only.
// A nil reason is a graceful completion of the send side.
func (c *Connection) shutdown(reason error) {
	c.shutdownMu.Lock()
	defer c.shutdownMu.Unlock()
	if c.socketDisposed {
		return
	}
	c.socketDisposed = true
	c.shutdownReason = reason
	if reason == nil {
		c.shutdownReason = api.NewConnectionAborted("the send loop completed gracefully")
	}
	c.state.Store(int32(StateShuttingDown))

	if !c.opts.FinOnError && reason != nil {
		c.log.WithError(reason).Debug("connection write RST")
		if err := sockio.SetZeroLinger(c.conn); err != nil {
			c.log.WithError(err).Debug("setting zero linger")
		}
		_ = c.conn.Close()
		return
	}

	c.log.WithError(c.shutdownReason).Debug("connection write FIN")
	_ = sockio.ShutdownBoth(c.conn)
	_ = c.conn.Close()
}

func (c *Connection) isSocketDisposed() bool {
	c.shutdownMu.Lock()
	defer c.shutdownMu.Unlock()
	return c.socketDisposed
}

// reasonOr prefers the recorded shutdown reason over err.
func (c *Connection) reasonOr(err error) error {
	if reason := c.ShutdownReason(); reason != nil {
		return reason
	}
	return err
}
