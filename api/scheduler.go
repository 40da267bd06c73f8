// Package api
// Author: momentics
//
// Scheduler contract for dispatching continuations and background work.

package api

// Scheduler runs callbacks. Implementations decide the execution context:
// inline, a fresh goroutine or a serialized work queue.
type Scheduler interface {
	// Schedule queues fn for execution. It must not block on fn itself.
	Schedule(fn func())
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(fn func())

// Schedule calls f(fn).
func (f SchedulerFunc) Schedule(fn func()) { f(fn) }
