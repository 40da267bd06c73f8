// File: pool/factory.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Factory owns a set of pools and their periodic eviction sweep.

package pool

import (
	"context"
	"sync"
	"time"

	"github.com/containerd/log"

	"github.com/momentics/hioload-transport/api"
)

// DefaultEvictionInterval is how often a Factory sweeps its pools.
const DefaultEvictionInterval = 10 * time.Second

// Factory creates pools and proactively evicts idle memory across all of
// them. It replaces a process-wide pool registry; pass it explicitly.
type Factory struct {
	mu     sync.Mutex
	pools  map[*PinnedBlockPool]struct{}
	closed bool

	interval time.Duration
	defaults []Option
	metrics  api.MetricsSink
	log      *log.Entry

	lastSweep time.Time
	cancel    context.CancelFunc
	done      chan struct{}
}

// FactoryOption customizes a Factory.
type FactoryOption func(*Factory)

// WithEvictionInterval sets the sweep period. Non-positive disables the
// background sweep; Sweep can still be called directly.
func WithEvictionInterval(d time.Duration) FactoryOption {
	return func(f *Factory) { f.interval = d }
}

// WithPoolDefaults sets options applied to every pool before per-call options.
func WithPoolDefaults(opts ...Option) FactoryOption {
	return func(f *Factory) { f.defaults = append(f.defaults, opts...) }
}

// WithFactoryMetrics sets the default sink for created pools.
func WithFactoryMetrics(sink api.MetricsSink) FactoryOption {
	return func(f *Factory) {
		if sink != nil {
			f.metrics = sink
		}
	}
}

// WithFactoryLogger sets the factory logger.
func WithFactoryLogger(entry *log.Entry) FactoryOption {
	return func(f *Factory) {
		if entry != nil {
			f.log = entry
		}
	}
}

// NewFactory creates a factory and starts its sweep goroutine.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{
		pools:     make(map[*PinnedBlockPool]struct{}),
		interval:  DefaultEvictionInterval,
		metrics:   api.NopMetrics{},
		log:       log.L,
		lastSweep: time.Now(),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(f)
	}
	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	if f.interval > 0 {
		go f.run(ctx)
	} else {
		close(f.done)
	}
	return f
}

// Create returns a new pool registered for sweeping. It fails once the
// factory is closed.
func (f *Factory) Create(opts ...Option) (*PinnedBlockPool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return nil, api.ErrPoolDisposed
	}
	all := make([]Option, 0, len(f.defaults)+len(opts)+2)
	all = append(all, WithMetrics(f.metrics), WithLogger(f.log))
	all = append(all, f.defaults...)
	all = append(all, opts...)
	p := NewPinnedBlockPool(all...)
	p.onDispose = f.forget
	f.pools[p] = struct{}{}
	return p, nil
}

func (f *Factory) forget(p *PinnedBlockPool) {
	f.mu.Lock()
	delete(f.pools, p)
	f.mu.Unlock()
}

// Len returns the number of live pools.
func (f *Factory) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pools)
}

func (f *Factory) run(ctx context.Context) {
	defer close(f.done)
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.Sweep()
		}
	}
}

// Sweep records each pool's usage rate since the previous sweep and
// schedules eviction where idle memory exceeds the limit.
func (f *Factory) Sweep() {
	f.mu.Lock()
	now := time.Now()
	elapsed := now.Sub(f.lastSweep)
	f.lastSweep = now
	pools := make([]*PinnedBlockPool, 0, len(f.pools))
	for p := range f.pools {
		pools = append(pools, p)
	}
	f.mu.Unlock()

	for _, p := range pools {
		rents := p.sampleRents()
		if secs := elapsed.Seconds(); secs > 0 {
			p.metrics.Record(api.MetricPoolUsageRate, float64(rents)/secs, p.tags...)
		}
		p.TryScheduleEviction()
	}
}

// Close stops the sweep goroutine and disposes every pool still registered.
func (f *Factory) Close() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return nil
	}
	f.closed = true
	pools := make([]*PinnedBlockPool, 0, len(f.pools))
	for p := range f.pools {
		pools = append(pools, p)
	}
	f.mu.Unlock()

	f.cancel()
	<-f.done
	for _, p := range pools {
		_ = p.Dispose()
	}
	f.log.WithField("pools", len(pools)).Debug("pool factory closed")
	return nil
}
