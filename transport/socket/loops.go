// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package socket

import (
	"context"

	"github.com/momentics/hioload-transport/api"
	"github.com/momentics/hioload-transport/internal/sockerr"
)

func (c *Connection) receiveLoop() {
	var err error
	defer func() {
		c.transport.Writer().Complete(c.reasonOr(err))
		c.fireConnectionClosed()
		<-c.closedDelivered
	}()
	err = c.doReceive()
}

func (c *Connection) doReceive() error {
	input := c.transport.Writer()
	for c.ShutdownReason() == nil {
		if c.opts.WaitForDataBeforeAllocating {
			if _, err := c.receiver.WaitForData(c.conn).Wait(); err != nil {
				return c.receiveError(err)
			}
		}

		buf, err := input.GetBuffer(MinAllocBufferSize)
		if err != nil {
			return err
		}
		n, err := c.receiver.Receive(c.conn, buf).Wait()
		if err != nil {
			return c.receiveError(err)
		}
		if n == 0 {
			c.log.Debug("connection read FIN")
			return nil
		}
		if err := input.Advance(n); err != nil {
			return err
		}

		res, err := input.Flush(context.Background())
		if err != nil && !res.Completed {
			return err
		}
		if res.Completed || res.Canceled {
			return nil
		}
	}
	return nil
}

func (c *Connection) receiveError(err error) error {
	switch sockerr.ClassOf(err) {
	case sockerr.Reset:
		if !c.isSocketDisposed() {
			c.log.WithError(err).Debug("connection reset")
		}
		return &api.ConnectionResetError{Err: err}
	case sockerr.Abort:
		if !c.isSocketDisposed() {
			c.log.WithError(err).Debug("connection read aborted")
		}
		return err
	default:
		c.log.WithError(err).Error("unexpected error in receive loop")
		return err
	}
}

func (c *Connection) sendLoop() {
	var shutdownReason, unexpected error
	defer func() {
		c.shutdown(shutdownReason)
		c.transport.Reader().Complete(unexpected)
		c.transport.Writer().CancelPendingFlush()
	}()
	shutdownReason, unexpected = c.doSend()
}

func (c *Connection) doSend() (shutdownReason, unexpected error) {
	output := c.transport.Reader()
	for {
		res, err := output.Read(context.Background())
		if err != nil {
			c.log.WithError(err).Error("unexpected error in send loop")
			return err, err
		}
		if res.Canceled {
			return nil, nil
		}

		buf := res.Buffer
		if !buf.IsEmpty() {
			c.sender = c.senderPool.Rent()
			if _, err := c.sender.Send(c.conn, buf).Wait(); err != nil {
				return c.sendError(err)
			}
			c.senderPool.Return(c.sender)
			c.sender = nil
		}

		if err := output.AdvanceTo(buf.Len(), buf.Len()); err != nil {
			c.log.WithError(err).Error("unexpected error in send loop")
			return err, err
		}
		if res.Completed {
			return nil, nil
		}
	}
}

// sendError maps a failed send to the shutdown reason and, for unexpected
// failures, the error the output reader completes with.
func (c *Connection) sendError(err error) (shutdownReason, unexpected error) {
	switch sockerr.ClassOf(err) {
	case sockerr.Reset:
		c.log.WithError(err).Debug("connection reset")
		return &api.ConnectionResetError{Err: err}, nil
	case sockerr.Abort:
		return err, nil
	default:
		c.log.WithError(err).Error("unexpected error in send loop")
		return err, err
	}
}
