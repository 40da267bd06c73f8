// File: pool/diagnostic_pool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Diagnostic pool wrapper: tracks every rented block, detects misuse and
// aggregates the resulting errors.

package pool

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"

	"github.com/containerd/log"
	"go.uber.org/multierr"

	"github.com/momentics/hioload-transport/api"
)

// DiagnosticPool wraps a PinnedBlockPool and hands out guarded blocks that
// reject use after release, double release and release while pinned.
type DiagnosticPool struct {
	inner *PinnedBlockPool

	mu          sync.Mutex
	outstanding map[*diagnosticBlock]struct{}
	errs        error
	disposed    bool

	trackLeaks  bool
	allowLate   bool
	allReturned chan struct{}
	signalOnce  sync.Once
	log         *log.Entry
}

// DiagnosticOption customizes a DiagnosticPool.
type DiagnosticOption func(*DiagnosticPool)

// WithLeakTracking records the renting stack of every block.
func WithLeakTracking() DiagnosticOption {
	return func(d *DiagnosticPool) { d.trackLeaks = true }
}

// WithLateReturns lets Dispose succeed while blocks are still rented.
func WithLateReturns() DiagnosticOption {
	return func(d *DiagnosticPool) { d.allowLate = true }
}

// NewDiagnosticPool wraps inner.
func NewDiagnosticPool(inner *PinnedBlockPool, opts ...DiagnosticOption) *DiagnosticPool {
	d := &DiagnosticPool{
		inner:       inner,
		outstanding: make(map[*diagnosticBlock]struct{}),
		allReturned: make(chan struct{}),
		log:         inner.log,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// BlockSize returns the fixed block length.
func (d *DiagnosticPool) BlockSize() int { return BlockSize }

// Rent returns a guarded block.
func (d *DiagnosticPool) Rent(sizeHint int) (api.Block, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.disposed {
		return nil, api.ErrPoolDisposed
	}
	inner, err := d.inner.Rent(sizeHint)
	if err != nil {
		return nil, err
	}
	b := &diagnosticBlock{pool: d, inner: inner}
	if d.trackLeaks {
		b.stack = string(debug.Stack())
	}
	d.outstanding[b] = struct{}{}
	return b, nil
}

// Stats returns the inner pool stats.
func (d *DiagnosticPool) Stats() api.PoolStats {
	return d.inner.Stats()
}

// Outstanding returns the number of blocks not yet released.
func (d *DiagnosticPool) Outstanding() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.outstanding)
}

// Dispose disposes the inner pool. With blocks still rented it fails unless
// late returns are allowed, in which case AllBlocksReturned fires once the
// last one comes back.
func (d *DiagnosticPool) Dispose() error {
	d.mu.Lock()
	if d.disposed {
		d.mu.Unlock()
		return nil
	}
	d.disposed = true
	n := len(d.outstanding)
	var leaks []string
	if d.trackLeaks {
		for b := range d.outstanding {
			leaks = append(leaks, b.stack)
		}
	}
	d.mu.Unlock()

	_ = d.inner.Dispose()

	if n == 0 {
		d.signal()
		return nil
	}
	if d.allowLate {
		d.log.WithField("outstanding", n).Debug("diagnostic pool disposed with rented blocks")
		return nil
	}
	err := fmt.Errorf("%d blocks outstanding: %w", n, api.ErrOutstandingBlocks)
	if len(leaks) > 0 {
		err = fmt.Errorf("%w\nrented at:\n%s", err, strings.Join(leaks, "\n"))
	}
	d.recordError(err)
	return err
}

// AllBlocksReturned is closed once the pool is disposed and every block
// is back.
func (d *DiagnosticPool) AllBlocksReturned() <-chan struct{} {
	return d.allReturned
}

// WaitForAllBlocks waits for AllBlocksReturned and returns every misuse
// error recorded so far. On ctx expiry the context error is included.
func (d *DiagnosticPool) WaitForAllBlocks(ctx context.Context) error {
	select {
	case <-d.allReturned:
		return d.Errors()
	case <-ctx.Done():
		return multierr.Combine(fmt.Errorf("waiting for %d blocks: %w", d.Outstanding(), ctx.Err()), d.Errors())
	}
}

// Errors returns the aggregated misuse errors.
func (d *DiagnosticPool) Errors() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.errs
}

func (d *DiagnosticPool) recordError(err error) {
	d.mu.Lock()
	d.errs = multierr.Append(d.errs, err)
	d.mu.Unlock()
}

func (d *DiagnosticPool) isDisposed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.disposed
}

func (d *DiagnosticPool) returned(b *diagnosticBlock) {
	d.mu.Lock()
	delete(d.outstanding, b)
	done := d.disposed && len(d.outstanding) == 0
	d.mu.Unlock()
	if done {
		d.signal()
	}
}

func (d *DiagnosticPool) signal() {
	d.signalOnce.Do(func() { close(d.allReturned) })
}

var _ api.MemoryPool = (*DiagnosticPool)(nil)
