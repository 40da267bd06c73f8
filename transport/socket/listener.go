// File: transport/socket/listener.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Listener accepts TCP connections and wraps each one in a Connection that
// shares the listener's memory pool, sender pool and IO queues.

package socket

import (
	"context"
	"errors"
	"fmt"
	"net"
	"runtime"

	"github.com/containerd/log"
	"golang.org/x/sync/errgroup"

	"github.com/momentics/hioload-transport/api"
	"github.com/momentics/hioload-transport/internal/concurrency"
	"github.com/momentics/hioload-transport/internal/sockio"
	"github.com/momentics/hioload-transport/pool"
)

// ErrListenerClosed is returned by Accept after Close.
var ErrListenerClosed = fmt.Errorf("listener closed: %w", net.ErrClosed)

// Handler serves one connection. The connection is closed when it returns.
type Handler func(ctx context.Context, c *Connection)

// Listener produces Connections from a net.Listener.
type Listener struct {
	ln     net.Listener
	shared sharedResources
	log    *log.Entry
}

// Listen binds network/address and returns a Listener.
func Listen(ctx context.Context, network, address string, opts ...Option) (*Listener, error) {
	o := buildOptions(opts)
	lc := net.ListenConfig{KeepAlive: o.KeepAlive}
	ln, err := lc.Listen(ctx, network, address)
	if err != nil {
		return nil, fmt.Errorf("listen %s %s: %w", network, address, err)
	}
	return NewListener(ln, opts...), nil
}

// NewListener wraps an existing listener.
func NewListener(ln net.Listener, opts ...Option) *Listener {
	o := buildOptions(opts)
	entry := o.Logger
	if entry == nil {
		entry = log.L
	}
	entry = entry.WithField("listener", ln.Addr().String())
	return &Listener{
		ln:     ln,
		shared: newSharedResources(o, entry),
		log:    entry,
	}
}

// Addr returns the bound address.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// Pool returns the memory pool shared by accepted connections.
func (l *Listener) Pool() api.MemoryPool { return l.shared.pool }

// Accept waits for the next connection. The caller owns the returned
// Connection and must Close it.
func (l *Listener) Accept() (*Connection, error) {
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil, ErrListenerClosed
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				l.log.WithError(err).Warn("accept")
				continue
			}
			return nil, err
		}
		return l.shared.wrap(conn), nil
	}
}

// Serve accepts until ctx is done or the listener fails, running handler
// for every connection. It waits for active handlers before returning.
func (l *Listener) Serve(ctx context.Context, handler Handler) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-ctx.Done()
		_ = l.ln.Close()
	}()

	var handlers errgroup.Group
	defer func() {
		_ = handlers.Wait()
	}()
	for {
		c, err := l.Accept()
		if err != nil {
			if errors.Is(err, ErrListenerClosed) && ctx.Err() != nil {
				return nil
			}
			return err
		}
		handlers.Go(func() error {
			defer c.Close()
			defer func() {
				if r := recover(); r != nil {
					c.log.WithField("panic", r).Error("connection handler panicked")
				}
			}()
			handler(ctx, c)
			return nil
		})
	}
}

// Close stops accepting and releases shared resources once every accepted
// connection has been closed by its owner.
func (l *Listener) Close() error {
	err := l.ln.Close()
	if errors.Is(err, net.ErrClosed) {
		err = nil
	}
	l.shared.close()
	return err
}

// sharedResources are owned by a listener or dialer and handed to every
// connection it creates.
type sharedResources struct {
	opts    Options
	log     *log.Entry
	factory *pool.Factory
	pool    api.MemoryPool
	owned   bool
	senders *sockio.SenderPool
	queues  *concurrency.QueueSet
}

func newSharedResources(o Options, entry *log.Entry) sharedResources {
	s := sharedResources{opts: o, log: entry}
	n := o.IOQueueCount
	if n <= 0 {
		n = min(runtime.NumCPU(), 16)
	}
	s.queues = concurrency.NewQueueSet(n)
	if o.Pool != nil {
		s.pool = o.Pool
	} else {
		s.factory = pool.NewFactory(pool.WithFactoryLogger(entry))
		// a fresh factory is never closed here, so Create cannot fail
		p, _ := s.factory.Create()
		s.pool = p
		s.owned = true
	}
	s.senders = o.SenderPool
	if s.senders == nil {
		s.senders = sockio.NewSenderPool(sockio.DefaultSenderPoolCapacity, concurrency.Goroutine, o.Driver)
	}
	return s
}

func (s *sharedResources) wrap(conn net.Conn) *Connection {
	configureTCP(conn, s.opts, s.log)
	o := s.opts
	o.Pool = s.pool
	o.SenderPool = s.senders
	o.Logger = s.log
	if o.IOQueue == nil {
		o.IOQueue = s.queues.Next()
	}
	return NewConnection(conn, func(dst *Options) { *dst = o })
}

func (s *sharedResources) close() {
	if s.opts.SenderPool == nil {
		s.senders.Close()
	}
	if s.owned {
		_ = s.factory.Close()
	}
}

func configureTCP(conn net.Conn, o Options, entry *log.Entry) {
	tcp, ok := conn.(*net.TCPConn)
	if !ok {
		return
	}
	if err := tcp.SetNoDelay(o.NoDelay); err != nil {
		entry.WithError(err).Debug("setting TCP_NODELAY")
	}
}
