// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package sockio

import (
	"net"

	"github.com/momentics/hioload-transport/api"
	"github.com/momentics/hioload-transport/internal/concurrency"
)

// Sender writes one request worth of segments to a connection. A sender is
// reused across sends; its segment list is cleared between uses.
type Sender struct {
	op     *Operation
	driver api.Scheduler

	conn   net.Conn
	single []byte
	bufs   net.Buffers
	token  uint32
	run    func()

	disposed bool
}

// NewSender creates a sender. Continuations run on continuations, socket
// calls are dispatched on driver; nil selects inline execution for both.
func NewSender(continuations, driver api.Scheduler) *Sender {
	if driver == nil {
		driver = concurrency.Inline
	}
	s := &Sender{op: NewOperation(continuations), driver: driver}
	s.run = s.execute
	return s
}

// Send writes data to conn. A single segment is written directly, several
// segments are gathered in one writev.
func (s *Sender) Send(conn net.Conn, data api.Sequence) Awaitable {
	if s.disposed {
		return failed(api.ErrOperationDisposed)
	}
	token, err := s.op.Begin()
	if err != nil {
		return failed(err)
	}
	s.conn, s.token = conn, token
	s.single = nil
	if len(data.Segments()) == 1 {
		s.single = data.First()
	} else {
		s.bufs = append(s.bufs[:0], data.Segments()...)
	}
	s.driver.Schedule(s.run)
	return Awaitable{op: s.op, token: token}
}

func (s *Sender) execute() {
	var (
		n   int
		err error
	)
	if s.single != nil {
		n, err = s.conn.Write(s.single)
	} else {
		bufs := s.bufs
		var written int64
		written, err = bufs.WriteTo(s.conn)
		n = int(written)
	}
	s.op.Complete(s.token, n, err)
}

// InFlight reports whether a send is still pending.
func (s *Sender) InFlight() bool { return s.op.InFlight() }

// Reset drops references to the previous send. It returns false while a
// send is in flight.
func (s *Sender) Reset() bool {
	if s.op.InFlight() || s.disposed {
		return false
	}
	s.clear()
	return true
}

// Dispose makes the sender unusable.
func (s *Sender) Dispose() {
	s.disposed = true
	if !s.op.InFlight() {
		s.clear()
	}
}

func (s *Sender) clear() {
	for i := range s.bufs {
		s.bufs[i] = nil
	}
	s.bufs = s.bufs[:0]
	s.single = nil
	s.conn = nil
}
