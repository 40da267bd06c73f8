// File: internal/sockio/operation.go
// Package sockio provides reusable send/receive operations over net.Conn.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// An Operation is a single-shot future that is recycled between socket calls.
// Each run is identified by a version token; callers holding an older token
// observe api.ErrStaleOperation.

package sockio

import (
	"runtime"
	"sync/atomic"

	"github.com/momentics/hioload-transport/api"
	"github.com/momentics/hioload-transport/internal/concurrency"
)

// Status of an operation run.
type Status int32

const (
	StatusIdle Status = iota
	StatusPending
	StatusCompleted

	statusCompleting // result being stored; reported as pending
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending, statusCompleting:
		return "pending"
	case StatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// completed marks the continuation slot once the result is published.
var completed = func() {}

// Operation is a reusable awaitable with one awaiter per run.
type Operation struct {
	state   atomic.Int32
	version atomic.Uint32
	cont    atomic.Pointer[func()]

	n   int
	err error

	scheduler api.Scheduler
	done      chan struct{}
}

// NewOperation creates an idle operation that dispatches continuations on
// scheduler. A nil scheduler runs them inline.
func NewOperation(scheduler api.Scheduler) *Operation {
	if scheduler == nil {
		scheduler = concurrency.Inline
	}
	return &Operation{scheduler: scheduler, done: make(chan struct{}, 1)}
}

// Begin moves the operation from idle to pending and returns the token of
// the new run.
func (o *Operation) Begin() (uint32, error) {
	if !o.state.CompareAndSwap(int32(StatusIdle), int32(StatusPending)) {
		return 0, api.ErrOperationInFlight
	}
	return o.version.Add(1), nil
}

// Complete publishes the result of the run identified by token. It reports
// false when the token is stale or the run already completed.
func (o *Operation) Complete(token uint32, n int, err error) bool {
	if o.version.Load() != token {
		return false
	}
	if !o.state.CompareAndSwap(int32(StatusPending), int32(statusCompleting)) {
		return false
	}
	o.n, o.err = n, err
	// The sentinel goes in before the state flips, so a GetResult that
	// observes Completed never races the swap.
	prev := o.cont.Swap(&completed)
	o.state.Store(int32(StatusCompleted))

	if prev != nil && prev != &completed {
		o.scheduler.Schedule(*prev)
	}
	return true
}

// Status reports the state of the run identified by token.
func (o *Operation) Status(token uint32) (Status, error) {
	if o.version.Load() != token {
		return StatusIdle, api.ErrStaleOperation
	}
	s := Status(o.state.Load())
	if s == statusCompleting {
		s = StatusPending
	}
	return s, nil
}

// OnCompleted registers fn to run once the result is available. When the
// run has already completed fn is scheduled immediately.
func (o *Operation) OnCompleted(token uint32, fn func()) error {
	if o.version.Load() != token {
		return api.ErrStaleOperation
	}
	if o.cont.CompareAndSwap(nil, &fn) {
		return nil
	}
	if o.cont.Load() != &completed {
		return api.ErrOperationInFlight
	}
	o.scheduler.Schedule(fn)
	return nil
}

// GetResult returns the result of a completed run and recycles the
// operation for the next Begin.
func (o *Operation) GetResult(token uint32) (int, error) {
	if o.version.Load() != token {
		return 0, api.ErrStaleOperation
	}
	s := Status(o.state.Load())
	for s == statusCompleting {
		// a continuation may run between the sentinel swap and the state store
		runtime.Gosched()
		s = Status(o.state.Load())
	}
	switch s {
	case StatusCompleted:
	case StatusIdle:
		return 0, api.ErrStaleOperation
	default:
		return 0, api.ErrOperationIncomplete
	}
	n, err := o.n, o.err
	o.n, o.err = 0, nil
	o.cont.Store(nil)
	o.state.Store(int32(StatusIdle))
	return n, err
}

// InFlight reports whether a run is pending.
func (o *Operation) InFlight() bool {
	s := Status(o.state.Load())
	return s == StatusPending || s == statusCompleting
}

// Awaitable is the handle of one operation run.
type Awaitable struct {
	op    *Operation
	token uint32
	err   error
}

// NewAwaitable returns the handle for the run of op identified by token.
func NewAwaitable(op *Operation, token uint32) Awaitable {
	return Awaitable{op: op, token: token}
}

// failed returns an awaitable that is already completed with err.
func failed(err error) Awaitable { return Awaitable{err: err} }

// Token identifies the run.
func (a Awaitable) Token() uint32 { return a.token }

// Status reports the progress of the run.
func (a Awaitable) Status() (Status, error) {
	if a.op == nil {
		return StatusCompleted, nil
	}
	return a.op.Status(a.token)
}

// OnCompleted registers the single continuation of the run.
func (a Awaitable) OnCompleted(fn func()) error {
	if a.op == nil {
		fn()
		return nil
	}
	return a.op.OnCompleted(a.token, fn)
}

// Result returns the outcome of a completed run.
func (a Awaitable) Result() (int, error) {
	if a.op == nil {
		return 0, a.err
	}
	return a.op.GetResult(a.token)
}

// Wait blocks until the run completes and returns its result.
func (a Awaitable) Wait() (int, error) {
	if a.op == nil {
		return 0, a.err
	}
	st, err := a.op.Status(a.token)
	if err != nil {
		return 0, err
	}
	if st != StatusCompleted {
		done := a.op.done
		if err := a.op.OnCompleted(a.token, func() { done <- struct{}{} }); err != nil {
			return 0, err
		}
		<-done
	}
	return a.op.GetResult(a.token)
}
