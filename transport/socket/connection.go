// File: transport/socket/connection.go
// Package socket adapts a net.Conn to a pair of pool-backed pipes driven by
// a receive loop and a send loop.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package socket

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/containerd/log"
	"golang.org/x/sync/errgroup"

	"github.com/momentics/hioload-transport/api"
	"github.com/momentics/hioload-transport/internal/concurrency"
	"github.com/momentics/hioload-transport/internal/sockio"
	"github.com/momentics/hioload-transport/pipe"
	"github.com/momentics/hioload-transport/pool"
)

// MinAllocBufferSize is the smallest receive buffer requested from the
// input pipe.
const MinAllocBufferSize = pool.BlockSize / 2

// State is the lifecycle position of a connection.
type State int32

const (
	StateCreated State = iota
	StateStarted
	StateShuttingDown
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStarted:
		return "started"
	case StateShuttingDown:
		return "shutting-down"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

var connectionSeq atomic.Uint64

func init() {
	connectionSeq.Store(uint64(time.Now().UnixNano()))
}

func nextConnectionID() string {
	return strings.ToUpper(strconv.FormatUint(connectionSeq.Add(1), 32))
}

// Connection is one socket with its transport loops.
type Connection struct {
	id   string
	conn net.Conn
	opts Options
	log  *log.Entry

	pool        api.MemoryPool
	senderPool  *sockio.SenderPool
	ownsPool    bool
	ownsSenders bool

	// transport is the loop-side end: Reader carries application output,
	// Writer feeds application input.
	transport   *pipe.Duplex
	application *pipe.Duplex
	facade      *duplexAdapter

	receiver *sockio.Receiver
	sender   *sockio.Sender // held by the send loop while a send is in flight

	group     errgroup.Group
	startOnce sync.Once
	state     atomic.Int32

	shutdownMu     sync.Mutex
	socketDisposed bool
	shutdownReason error

	closed          context.Context
	cancelClosed    context.CancelFunc
	closedFired     atomic.Bool
	closedDelivered chan struct{}

	closeOnce sync.Once
}

// NewConnection wraps conn. No goroutine runs until Start or the first
// blocking call on Transport.
func NewConnection(conn net.Conn, opts ...Option) *Connection {
	o := buildOptions(opts)
	c := &Connection{
		id:              nextConnectionID(),
		conn:            conn,
		opts:            o,
		closedDelivered: make(chan struct{}),
	}
	c.closed, c.cancelClosed = context.WithCancel(context.Background())

	base := o.Logger
	if base == nil {
		base = log.L
	}
	c.log = base.WithFields(log.Fields{
		"connection": c.id,
		"local":      addrString(conn.LocalAddr()),
		"remote":     addrString(conn.RemoteAddr()),
	})

	if o.IOQueue == nil {
		c.opts.IOQueue = concurrency.Goroutine
	}
	if o.Driver == nil {
		c.opts.Driver = concurrency.Inline
	}
	c.pool = o.Pool
	if c.pool == nil {
		c.pool = pool.NewPinnedBlockPool(pool.WithLogger(c.log))
		c.ownsPool = true
	}
	c.senderPool = o.SenderPool
	if c.senderPool == nil {
		c.senderPool = sockio.NewSenderPool(0, c.opts.IOQueue, c.opts.Driver)
		c.ownsSenders = true
	}

	c.transport, c.application = pipe.NewDuplexPair(
		pipe.WithBufferLimit(c.pool, o.MaxReadBufferSize),
		pipe.WithBufferLimit(c.pool, o.MaxWriteBufferSize),
	)
	c.facade = newDuplexAdapter(c)
	c.receiver = sockio.NewReceiver(c.opts.IOQueue, c.opts.Driver)
	return c
}

func addrString(a net.Addr) string {
	if a == nil {
		return ""
	}
	return a.String()
}

// ConnectionID returns the generated connection identifier.
func (c *Connection) ConnectionID() string { return c.id }

// LocalAddr returns the socket's local address.
func (c *Connection) LocalAddr() net.Addr { return c.conn.LocalAddr() }

// RemoteAddr returns the peer address.
func (c *Connection) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

// State returns the lifecycle state.
func (c *Connection) State() State { return State(c.state.Load()) }

// Transport returns the application-facing duplex pipe. Reading or
// flushing through it starts the connection.
func (c *Connection) Transport() api.DuplexPipe { return c.facade }

// ConnectionClosed is canceled once the receive side has finished.
func (c *Connection) ConnectionClosed() context.Context { return c.closed }

// ShutdownReason returns the first recorded teardown reason, or nil.
func (c *Connection) ShutdownReason() error {
	c.shutdownMu.Lock()
	defer c.shutdownMu.Unlock()
	return c.shutdownReason
}

// Start launches the receive and send loops. Extra calls are no-ops.
func (c *Connection) Start() {
	c.startOnce.Do(func() {
		c.state.CompareAndSwap(int32(StateCreated), int32(StateStarted))
		c.group.Go(c.guard("receive", c.receiveLoop))
		c.group.Go(c.guard("send", c.sendLoop))
	})
}

func (c *Connection) guard(name string, loop func()) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%s loop panic: %v", name, r)
				c.log.WithError(err).Error("unexpected panic in connection loop")
			}
		}()
		loop()
		return nil
	}
}

// Abort tears the connection down with reason. A non-nil reason resets the
// socket unless FinOnError is set; a nil reason closes it with FIN.
func (c *Connection) Abort(reason error) {
	c.shutdown(reason)
	c.transport.Reader().CancelPendingRead()
}

// Close completes the application side, waits for both loops and releases
// connection resources. Teardown errors are logged, never returned.
func (c *Connection) Close() error {
	c.closeOnce.Do(c.dispose)
	return nil
}

func (c *Connection) dispose() {
	c.application.Reader().Complete(nil)
	c.application.Writer().Complete(nil)

	neverStarted := false
	c.startOnce.Do(func() { neverStarted = true })
	if neverStarted {
		c.shutdown(nil)
		c.transport.Writer().Complete(c.ShutdownReason())
		c.transport.Reader().Complete(nil)
		c.fireConnectionClosed()
		<-c.closedDelivered
	}

	if err := c.group.Wait(); err != nil {
		c.log.WithError(err).Warn("connection loop failed")
	}

	c.receiver.Dispose()
	if c.sender != nil {
		c.sender.Dispose()
		c.sender = nil
	}
	if c.ownsSenders {
		c.senderPool.Close()
	}
	if c.ownsPool {
		if err := c.pool.Dispose(); err != nil {
			c.log.WithError(err).Warn("disposing connection pool")
		}
	}
	c.state.Store(int32(StateClosed))
	c.log.Debug("connection closed")
}

// fireConnectionClosed schedules the closed signal exactly once.
func (c *Connection) fireConnectionClosed() {
	if !c.closedFired.CompareAndSwap(false, true) {
		return
	}
	c.opts.IOQueue.Schedule(func() {
		c.cancelClosed()
		close(c.closedDelivered)
	})
}

var _ api.Connection = (*Connection)(nil)
