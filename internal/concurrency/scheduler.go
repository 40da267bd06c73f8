// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Trivial schedulers for continuations and I/O dispatch.

package concurrency

import "github.com/momentics/hioload-transport/api"

// Inline runs callbacks on the calling goroutine.
var Inline api.Scheduler = api.SchedulerFunc(func(fn func()) { fn() })

// Goroutine runs every callback on a fresh goroutine.
var Goroutine api.Scheduler = api.SchedulerFunc(func(fn func()) { go fn() })
