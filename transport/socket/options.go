// File: transport/socket/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Functional options shared by connections, listeners and dialers.

package socket

import (
	"time"

	"github.com/containerd/log"

	"github.com/momentics/hioload-transport/api"
	"github.com/momentics/hioload-transport/internal/sockio"
)

const (
	// DefaultMaxReadBufferSize pauses the receive loop once this many
	// received bytes are unconsumed by the application.
	DefaultMaxReadBufferSize = 1024 * 1024

	// DefaultMaxWriteBufferSize pauses application flushes once this many
	// bytes wait for the send loop.
	DefaultMaxWriteBufferSize = 64 * 1024

	// DefaultKeepAlive is the TCP keep-alive period for accepted and dialed
	// connections.
	DefaultKeepAlive = 15 * time.Second
)

// Options holds connection settings.
type Options struct {
	// Pool backs both pipes. When nil the connection creates and owns one.
	Pool api.MemoryPool

	// SenderPool recycles senders. When nil the connection owns one.
	SenderPool *sockio.SenderPool

	// IOQueue delivers the connection-closed signal and operation
	// continuations. Defaults to a fresh goroutine per callback.
	IOQueue api.Scheduler

	// Driver dispatches socket calls. Defaults to inline.
	Driver api.Scheduler

	Logger *log.Entry

	// MaxReadBufferSize and MaxWriteBufferSize set the pipe pause
	// thresholds; the resume threshold is half. Non-positive disables
	// pausing.
	MaxReadBufferSize  int64
	MaxWriteBufferSize int64

	// WaitForDataBeforeAllocating probes for readable data before renting
	// a receive buffer so idle connections hold no block.
	WaitForDataBeforeAllocating bool

	// FinOnError sends FIN even when the connection is torn down with an
	// error. By default such teardowns reset the connection.
	FinOnError bool

	NoDelay   bool
	KeepAlive time.Duration

	// IOQueueCount is the number of serialized queues a listener spreads
	// its connections over.
	IOQueueCount int
}

// Option mutates Options.
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		MaxReadBufferSize:           DefaultMaxReadBufferSize,
		MaxWriteBufferSize:          DefaultMaxWriteBufferSize,
		WaitForDataBeforeAllocating: true,
		NoDelay:                     true,
		KeepAlive:                   DefaultKeepAlive,
	}
}

func buildOptions(opts []Option) Options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithPool shares a memory pool.
func WithPool(p api.MemoryPool) Option {
	return func(o *Options) { o.Pool = p }
}

// WithSenderPool shares a sender pool.
func WithSenderPool(p *sockio.SenderPool) Option {
	return func(o *Options) { o.SenderPool = p }
}

// WithIOQueue sets the scheduler for connection callbacks.
func WithIOQueue(s api.Scheduler) Option {
	return func(o *Options) { o.IOQueue = s }
}

// WithDriver sets the scheduler socket calls are issued on.
func WithDriver(s api.Scheduler) Option {
	return func(o *Options) { o.Driver = s }
}

// WithLogger sets the base logger; connection fields are added to it.
func WithLogger(entry *log.Entry) Option {
	return func(o *Options) { o.Logger = entry }
}

// WithMaxReadBufferSize sets the inbound pause threshold.
func WithMaxReadBufferSize(n int64) Option {
	return func(o *Options) { o.MaxReadBufferSize = n }
}

// WithMaxWriteBufferSize sets the outbound pause threshold.
func WithMaxWriteBufferSize(n int64) Option {
	return func(o *Options) { o.MaxWriteBufferSize = n }
}

// WithWaitForData toggles the readiness probe before buffer allocation.
func WithWaitForData(enabled bool) Option {
	return func(o *Options) { o.WaitForDataBeforeAllocating = enabled }
}

// WithFinOnError selects FIN instead of RST for error teardowns.
func WithFinOnError(enabled bool) Option {
	return func(o *Options) { o.FinOnError = enabled }
}

// WithNoDelay toggles Nagle's algorithm on TCP sockets.
func WithNoDelay(enabled bool) Option {
	return func(o *Options) { o.NoDelay = enabled }
}

// WithKeepAlive sets the TCP keep-alive period; negative disables it.
func WithKeepAlive(d time.Duration) Option {
	return func(o *Options) { o.KeepAlive = d }
}

// WithIOQueueCount sets how many IO queues a listener creates.
func WithIOQueueCount(n int) Option {
	return func(o *Options) { o.IOQueueCount = n }
}
