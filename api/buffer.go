// Package api
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fixed-size pooled memory blocks and the pool contract that backs all
// transport buffering.

package api

// Block is one rented memory region owned exclusively by the renter until
// Release is called. A block must not be touched after Release.
type Block interface {
	// Bytes returns the whole underlying buffer.
	Bytes() []byte

	// Pin marks the block as in use by native I/O and returns the buffer
	// from offset onwards. Pins are reference counted.
	Pin(offset int) ([]byte, error)

	// Unpin drops one pin reference.
	Unpin() error

	// Release hands the block back to its pool. It fails while the block is
	// pinned or when called twice.
	Release() error
}

// MemoryPool hands out fixed-size blocks.
type MemoryPool interface {
	// Rent returns a block of at least sizeHint bytes. A negative hint means
	// "any size up to BlockSize".
	Rent(sizeHint int) (Block, error)

	// BlockSize is the fixed length of every block.
	BlockSize() int

	// Stats exposes accounting counters.
	Stats() PoolStats

	// Dispose releases idle blocks; further rents fail.
	Dispose() error
}

// PoolStats aggregates memory pool accounting.
type PoolStats struct {
	IdleBlocks     int64 // blocks currently queued for reuse
	CurrentMemory  int64 // bytes idle in the pool
	TotalAllocated int64 // bytes ever allocated
	EvictedBlocks  int64
	Rented         int64 // rents served since the pool was created
	Outstanding    int64 // blocks rented and not yet returned
}
