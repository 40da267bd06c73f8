// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package sockio

import (
	"errors"
	"io"
	"net"

	"github.com/momentics/hioload-transport/api"
	"github.com/momentics/hioload-transport/internal/concurrency"
)

// Receiver reads from a connection into caller supplied buffers.
type Receiver struct {
	op     *Operation
	driver api.Scheduler

	conn     net.Conn
	buf      []byte
	token    uint32
	probe    bool
	run      func()
	disposed bool
}

// NewReceiver creates a receiver; see NewSender for the scheduler roles.
func NewReceiver(continuations, driver api.Scheduler) *Receiver {
	if driver == nil {
		driver = concurrency.Inline
	}
	r := &Receiver{op: NewOperation(continuations), driver: driver}
	r.run = r.execute
	return r
}

// Receive reads into buf. A result of zero bytes with a nil error is the
// peer's FIN.
func (r *Receiver) Receive(conn net.Conn, buf []byte) Awaitable {
	return r.start(conn, buf, false)
}

// WaitForData completes once conn has data, FIN or an error pending without
// consuming anything. Where the platform offers no probe it completes at
// once.
func (r *Receiver) WaitForData(conn net.Conn) Awaitable {
	return r.start(conn, nil, true)
}

func (r *Receiver) start(conn net.Conn, buf []byte, probe bool) Awaitable {
	if r.disposed {
		return failed(api.ErrOperationDisposed)
	}
	token, err := r.op.Begin()
	if err != nil {
		return failed(err)
	}
	r.conn, r.buf, r.probe, r.token = conn, buf, probe, token
	r.driver.Schedule(r.run)
	return Awaitable{op: r.op, token: token}
}

func (r *Receiver) execute() {
	conn, buf, token := r.conn, r.buf, r.token
	r.conn, r.buf = nil, nil
	if r.probe {
		r.op.Complete(token, 0, waitReadable(conn))
		return
	}
	n, err := conn.Read(buf)
	if errors.Is(err, io.EOF) {
		err = nil
	}
	r.op.Complete(token, n, err)
}

// Dispose makes the receiver unusable.
func (r *Receiver) Dispose() { r.disposed = true }
