// File: pool/block.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import (
	"fmt"
	"sync/atomic"

	"github.com/momentics/hioload-transport/api"
)

const (
	blockIdle int32 = iota
	blockRented
)

// block is a pooled BlockSize buffer. It carries no use-after-release
// checks; wrap the pool in a DiagnosticPool for those.
type block struct {
	pool  *PinnedBlockPool
	buf   []byte
	pins  atomic.Int32
	state atomic.Int32
}

func newBlock(p *PinnedBlockPool) *block {
	b := &block{pool: p, buf: make([]byte, BlockSize)}
	b.state.Store(blockRented)
	return b
}

func (b *block) Bytes() []byte { return b.buf }

func (b *block) Pin(offset int) ([]byte, error) {
	if offset < 0 || offset > len(b.buf) {
		return nil, fmt.Errorf("pin at %d of %d bytes: %w", offset, len(b.buf), api.ErrPinOutOfRange)
	}
	b.pins.Add(1)
	return b.buf[offset:], nil
}

func (b *block) Unpin() error {
	for {
		n := b.pins.Load()
		if n == 0 {
			return fmt.Errorf("unpin without pin: %w", api.ErrInvalidBlockState)
		}
		if b.pins.CompareAndSwap(n, n-1) {
			return nil
		}
	}
}

func (b *block) Release() error {
	if n := b.pins.Load(); n != 0 {
		return fmt.Errorf("release with %d pins held: %w", n, api.ErrInvalidBlockState)
	}
	if !b.state.CompareAndSwap(blockRented, blockIdle) {
		return fmt.Errorf("block already released: %w", api.ErrInvalidBlockState)
	}
	b.pool.put(b)
	return nil
}

// Use rents a block, passes its buffer to fn and releases the block on every
// exit path, including panics.
func Use(p api.MemoryPool, sizeHint int, fn func(buf []byte) error) (err error) {
	b, err := p.Rent(sizeHint)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := b.Release(); err == nil {
			err = rerr
		}
	}()
	return fn(b.Bytes())
}
