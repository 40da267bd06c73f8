// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Schedulers for callbacks and background work: inline and goroutine
// dispatch, and serialized IO queues shared by connections.
package concurrency
