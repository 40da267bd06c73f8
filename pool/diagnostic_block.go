// File: pool/diagnostic_block.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import (
	"fmt"
	"sync"

	"github.com/momentics/hioload-transport/api"
)

// diagnosticBlock guards one rent of an inner block. A fresh guard is
// created per rent so stale holders are caught even after the inner block
// was handed out again.
type diagnosticBlock struct {
	pool  *DiagnosticPool
	inner api.Block
	stack string

	mu       sync.Mutex
	disposed bool
	pins     int
}

// Bytes panics when the block or its pool has been disposed.
func (b *diagnosticBlock) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkLocked(); err != nil {
		b.pool.recordError(err)
		panic(err)
	}
	return b.inner.Bytes()
}

func (b *diagnosticBlock) checkLocked() error {
	if b.disposed {
		return fmt.Errorf("access after release: %w", api.ErrBlockDisposed)
	}
	if b.pool.isDisposed() {
		return fmt.Errorf("access after pool dispose: %w", api.ErrBlockDisposed)
	}
	return nil
}

func (b *diagnosticBlock) Pin(offset int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkLocked(); err != nil {
		b.pool.recordError(err)
		return nil, err
	}
	buf, err := b.inner.Pin(offset)
	if err != nil {
		b.pool.recordError(err)
		return nil, err
	}
	b.pins++
	return buf, nil
}

func (b *diagnosticBlock) Unpin() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pins == 0 {
		err := fmt.Errorf("unpin without pin: %w", api.ErrInvalidBlockState)
		b.pool.recordError(err)
		return err
	}
	if err := b.inner.Unpin(); err != nil {
		b.pool.recordError(err)
		return err
	}
	b.pins--
	return nil
}

func (b *diagnosticBlock) Release() error {
	b.mu.Lock()
	if b.disposed {
		b.mu.Unlock()
		err := fmt.Errorf("block released twice: %w", api.ErrInvalidBlockState)
		b.pool.recordError(err)
		return err
	}
	if b.pins > 0 {
		pins := b.pins
		b.mu.Unlock()
		err := fmt.Errorf("release with %d pins held: %w", pins, api.ErrInvalidBlockState)
		b.pool.recordError(err)
		return err
	}
	b.disposed = true
	b.mu.Unlock()

	err := b.inner.Release()
	if err != nil {
		b.pool.recordError(err)
	}
	b.pool.returned(b)
	return err
}
