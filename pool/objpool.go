// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pool

import (
	"sync"

	"github.com/momentics/hioload-transport/api"
)

// ObjectPool is a bounded pool of reusable objects. Unlike sync.Pool it
// never drops idle objects on GC and disposes objects it cannot keep.
type ObjectPool[T any] struct {
	mu     sync.RWMutex
	items  chan T
	closed bool

	newFn   func() T
	reset   func(T) bool
	dispose func(T)
}

// ObjectPoolConfig describes the lifecycle hooks of pooled objects.
type ObjectPoolConfig[T any] struct {
	// Capacity bounds the number of idle objects.
	Capacity int
	// New constructs an object when the pool is empty.
	New func() T
	// Reset prepares an object for reuse; returning false discards it.
	Reset func(T) bool
	// Dispose releases an object that is not kept.
	Dispose func(T)
}

// NewObjectPool creates a pool from cfg. Capacity defaults to 1024.
func NewObjectPool[T any](cfg ObjectPoolConfig[T]) *ObjectPool[T] {
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = 1024
	}
	p := &ObjectPool[T]{
		items:   make(chan T, capacity),
		newFn:   cfg.New,
		reset:   cfg.Reset,
		dispose: cfg.Dispose,
	}
	if p.reset == nil {
		p.reset = func(T) bool { return true }
	}
	if p.dispose == nil {
		p.dispose = func(T) {}
	}
	return p
}

// Get returns an idle object or constructs a new one.
func (p *ObjectPool[T]) Get() T {
	select {
	case v := <-p.items:
		return v
	default:
		return p.newFn()
	}
}

// Put resets v and keeps it, or disposes it when the pool is closed, full
// or the reset hook rejects it.
func (p *ObjectPool[T]) Put(v T) {
	if !p.reset(v) {
		p.dispose(v)
		return
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.dispose(v)
		return
	}
	select {
	case p.items <- v:
	default:
		p.dispose(v)
	}
}

// Len returns the number of idle objects.
func (p *ObjectPool[T]) Len() int { return len(p.items) }

// Close disposes idle objects; later Puts dispose immediately.
func (p *ObjectPool[T]) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()
	for {
		select {
		case v := <-p.items:
			p.dispose(v)
		default:
			return
		}
	}
}

var _ api.ObjectPool[*struct{}] = (*ObjectPool[*struct{}])(nil)
