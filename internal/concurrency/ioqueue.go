// File: internal/concurrency/ioqueue.go
// Package concurrency implements serialized work queues for connection I/O.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// IOQueue runs scheduled callbacks one at a time in FIFO order. A drain
// goroutine is started when the queue becomes non-empty and exits when it
// runs dry, so idle queues cost nothing.

package concurrency

import (
	"sync"
	"sync/atomic"

	"github.com/containerd/log"
	"github.com/eapache/queue"

	"github.com/momentics/hioload-transport/api"
)

// IOQueue is a serialized api.Scheduler.
type IOQueue struct {
	mu      sync.Mutex
	work    *queue.Queue // func(), guarded by mu
	running bool

	log *log.Entry

	// statistics
	scheduled atomic.Int64
	completed atomic.Int64
}

// NewIOQueue creates an empty queue.
func NewIOQueue() *IOQueue {
	return &IOQueue{work: queue.New(), log: log.L}
}

// Schedule enqueues fn.
func (q *IOQueue) Schedule(fn func()) {
	q.scheduled.Add(1)
	q.mu.Lock()
	q.work.Add(fn)
	start := !q.running
	q.running = true
	q.mu.Unlock()
	if start {
		go q.drain()
	}
}

func (q *IOQueue) drain() {
	for {
		q.mu.Lock()
		if q.work.Length() == 0 {
			q.running = false
			q.mu.Unlock()
			return
		}
		fn := q.work.Remove().(func())
		q.mu.Unlock()
		q.execute(fn)
	}
}

// execute runs fn, recovering from panics to keep the queue alive.
func (q *IOQueue) execute(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			q.log.WithField("panic", r).Error("ioqueue: scheduled callback panicked")
		}
		q.completed.Add(1)
	}()
	fn()
}

// Stats returns basic queue metrics.
func (q *IOQueue) Stats() map[string]int64 {
	scheduled, completed := q.scheduled.Load(), q.completed.Load()
	return map[string]int64{
		"scheduled_tasks": scheduled,
		"completed_tasks": completed,
		"pending_tasks":   scheduled - completed,
	}
}

// QueueSet distributes work across a fixed number of IOQueues round-robin.
type QueueSet struct {
	queues []*IOQueue
	next   atomic.Uint64
}

// NewQueueSet creates n queues; n < 1 is treated as 1.
func NewQueueSet(n int) *QueueSet {
	n = max(n, 1)
	s := &QueueSet{queues: make([]*IOQueue, n)}
	for i := range s.queues {
		s.queues[i] = NewIOQueue()
	}
	return s
}

// Next returns the next queue in rotation.
func (s *QueueSet) Next() *IOQueue {
	i := s.next.Add(1) - 1
	return s.queues[i%uint64(len(s.queues))]
}

// Len returns the number of queues.
func (s *QueueSet) Len() int { return len(s.queues) }

var _ api.Scheduler = (*IOQueue)(nil)
