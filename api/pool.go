// File: api/pool.go
// Author: momentics <momentics@gmail.com>
//
// Generic object pooling contract.

package api

// ObjectPool provides generic pooling of Go objects allocated transiently
type ObjectPool[T any] interface {
	// Get returns an available instance from pool
	Get() T

	// Put returns an instance for reuse
	Put(obj T)
}
