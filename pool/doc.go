// Package pool
// Author: momentics <momentics@gmail.com>
//
// Memory layer for hioload-transport.
// Implements the fixed-size pinned block pool that backs every transport
// buffer, its diagnostic wrapper, the pool factory with periodic eviction
// and a bounded generic object pool.
// See pinned_pool.go, diagnostic_pool.go, factory.go for implementation details.
package pool
