// File: pool/pinned_pool.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Fixed-size block pool with idle-memory eviction.

package pool

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/containerd/log"
	"github.com/eapache/queue"

	"github.com/momentics/hioload-transport/api"
)

const (
	// BlockSize matches the common OS page size.
	BlockSize = 4096

	// DefaultMemoryLimit is the idle memory kept before eviction starts,
	// before applying the conservation ratio.
	DefaultMemoryLimit = 30_000 * BlockSize
)

// PinnedBlockPool hands out BlockSize buffers and keeps returned ones for
// reuse. Idle memory above the limit is evicted on a background pass.
type PinnedBlockPool struct {
	mu   sync.Mutex
	idle *queue.Queue // *block, guarded by mu

	currentMemory    atomic.Int64
	totalAllocated   atomic.Int64
	evicted          atomic.Int64
	rented           atomic.Int64
	outstanding      atomic.Int64
	rentsSinceSample atomic.Int64

	memoryLimit int64
	evicting    atomic.Bool
	disposed    atomic.Bool

	metrics   api.MetricsSink
	tags      []api.Tag
	evictor   api.Scheduler
	log       *log.Entry
	onDispose func(*PinnedBlockPool)
}

// Option customizes a PinnedBlockPool.
type Option func(*PinnedBlockPool)

// WithMemoryLimit sets the idle byte budget. Non-positive values keep the default.
func WithMemoryLimit(bytes int64) Option {
	return func(p *PinnedBlockPool) {
		if bytes > 0 {
			p.memoryLimit = bytes
		}
	}
}

// WithMetrics attaches an instrumentation sink.
func WithMetrics(sink api.MetricsSink, tags ...api.Tag) Option {
	return func(p *PinnedBlockPool) {
		if sink != nil {
			p.metrics = sink
		}
		p.tags = append(p.tags, tags...)
	}
}

// WithEvictionScheduler sets where eviction passes run. Defaults to a new goroutine.
func WithEvictionScheduler(s api.Scheduler) Option {
	return func(p *PinnedBlockPool) {
		if s != nil {
			p.evictor = s
		}
	}
}

// WithLogger sets the pool logger.
func WithLogger(entry *log.Entry) Option {
	return func(p *PinnedBlockPool) {
		if entry != nil {
			p.log = entry
		}
	}
}

// NewPinnedBlockPool creates an empty pool. The memory limit defaults to
// DefaultMemoryLimit scaled by the environment conservation level.
func NewPinnedBlockPool(opts ...Option) *PinnedBlockPool {
	p := &PinnedBlockPool{
		idle:        queue.New(),
		memoryLimit: ScaledMemoryLimit(DefaultMemoryLimit, ConserveMemoryLevel()),
		metrics:     api.NopMetrics{},
		evictor:     api.SchedulerFunc(func(fn func()) { go fn() }),
		log:         log.L,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BlockSize returns the fixed block length.
func (p *PinnedBlockPool) BlockSize() int { return BlockSize }

// MemoryLimit returns the idle byte budget.
func (p *PinnedBlockPool) MemoryLimit() int64 { return p.memoryLimit }

// Rent returns an idle block when one is available, otherwise allocates.
func (p *PinnedBlockPool) Rent(sizeHint int) (api.Block, error) {
	if sizeHint > BlockSize {
		return nil, fmt.Errorf("rent %d bytes from %d byte blocks: %w", sizeHint, BlockSize, api.ErrBufferTooLarge)
	}
	if p.disposed.Load() {
		return nil, api.ErrPoolDisposed
	}
	p.rented.Add(1)
	p.rentsSinceSample.Add(1)
	p.outstanding.Add(1)

	if b := p.dequeue(); b != nil {
		b.state.Store(blockRented)
		p.metrics.Record(api.MetricPoolRented, 1, p.tags...)
		p.metrics.Record(api.MetricPoolPooledBytes, float64(p.currentMemory.Load()), p.tags...)
		return b, nil
	}

	b := newBlock(p)
	total := p.totalAllocated.Add(BlockSize)
	p.metrics.Record(api.MetricPoolAllocated, 1, p.tags...)
	p.metrics.Record(api.MetricPoolAllocatedBytes, float64(total), p.tags...)
	return b, nil
}

func (p *PinnedBlockPool) dequeue() *block {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.idle.Length() == 0 {
		return nil
	}
	b := p.idle.Remove().(*block)
	p.currentMemory.Add(-BlockSize)
	return b
}

// put takes a released block back. Blocks returned after Dispose are dropped.
func (p *PinnedBlockPool) put(b *block) {
	p.outstanding.Add(-1)
	if p.disposed.Load() {
		return
	}
	p.mu.Lock()
	if p.disposed.Load() {
		p.mu.Unlock()
		return
	}
	p.idle.Add(b)
	current := p.currentMemory.Add(BlockSize)
	p.mu.Unlock()

	p.metrics.Record(api.MetricPoolReturned, 1, p.tags...)
	p.metrics.Record(api.MetricPoolPooledBytes, float64(current), p.tags...)
	p.TryScheduleEviction()
}

// TryScheduleEviction starts a background eviction pass when idle memory is
// above the limit and no pass is running. It reports whether a pass was scheduled.
func (p *PinnedBlockPool) TryScheduleEviction() bool {
	if p.disposed.Load() || p.currentMemory.Load() <= p.memoryLimit {
		return false
	}
	if !p.evicting.CompareAndSwap(false, true) {
		return false
	}
	p.metrics.Record(api.MetricPoolEvictionScheduled, 1, p.tags...)
	p.evictor.Schedule(p.evict)
	return true
}

func (p *PinnedBlockPool) evict() {
	defer func() {
		p.evicting.Store(false)
		// Returns racing the flag may have skipped scheduling.
		p.TryScheduleEviction()
	}()

	var n int64
	for p.currentMemory.Load() > p.memoryLimit {
		if p.dequeue() == nil {
			break
		}
		n++
		p.evicted.Add(1)
		p.metrics.Record(api.MetricPoolEvicted, 1, p.tags...)
		p.metrics.Record(api.MetricPoolEvictedBytes, BlockSize, p.tags...)
	}
	if n > 0 {
		p.metrics.Record(api.MetricPoolPooledBytes, float64(p.currentMemory.Load()), p.tags...)
		p.log.WithField("blocks", n).Debug("pool: evicted idle blocks")
	}
}

// Dispose discards idle blocks. Outstanding blocks are not waited for and
// are dropped when released.
func (p *PinnedBlockPool) Dispose() error {
	if !p.disposed.CompareAndSwap(false, true) {
		return nil
	}
	p.mu.Lock()
	for p.idle.Length() > 0 {
		p.idle.Remove()
		p.currentMemory.Add(-BlockSize)
	}
	p.mu.Unlock()

	p.metrics.Record(api.MetricPoolPooledBytes, 0, p.tags...)
	if p.onDispose != nil {
		p.onDispose(p)
	}
	return nil
}

// Disposed reports whether Dispose was called.
func (p *PinnedBlockPool) Disposed() bool { return p.disposed.Load() }

// Stats returns a snapshot of the pool counters.
func (p *PinnedBlockPool) Stats() api.PoolStats {
	p.mu.Lock()
	idle := int64(p.idle.Length())
	p.mu.Unlock()
	return api.PoolStats{
		IdleBlocks:     idle,
		CurrentMemory:  p.currentMemory.Load(),
		TotalAllocated: p.totalAllocated.Load(),
		EvictedBlocks:  p.evicted.Load(),
		Rented:         p.rented.Load(),
		Outstanding:    p.outstanding.Load(),
	}
}

// sampleRents returns rents since the previous sample and resets the counter.
func (p *PinnedBlockPool) sampleRents() int64 {
	return p.rentsSinceSample.Swap(0)
}

var _ api.MemoryPool = (*PinnedBlockPool)(nil)
