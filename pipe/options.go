// File: pipe/options.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package pipe

import "github.com/momentics/hioload-transport/api"

const (
	// DefaultPauseWriterThreshold is the unconsumed byte count at which
	// Flush starts blocking.
	DefaultPauseWriterThreshold = 64 * 1024

	// DefaultMinimumSegmentSize is used for heap segments when no pool is set.
	DefaultMinimumSegmentSize = 4096
)

// Options configures a Pipe.
type Options struct {
	// Pool supplies segment memory. Requests larger than its block size,
	// or all requests when Pool is nil, use heap segments.
	Pool api.MemoryPool

	// PauseWriterThreshold blocks Flush once this many bytes are flushed
	// but unconsumed. Zero selects the default, negative disables pausing.
	PauseWriterThreshold int64

	// ResumeWriterThreshold unblocks Flush once unconsumed bytes fall to
	// it. Zero selects half of the pause threshold.
	ResumeWriterThreshold int64

	// MinimumSegmentSize is the smallest heap segment.
	MinimumSegmentSize int
}

func (o Options) withDefaults() Options {
	if o.PauseWriterThreshold == 0 {
		o.PauseWriterThreshold = DefaultPauseWriterThreshold
	}
	if o.ResumeWriterThreshold <= 0 || o.ResumeWriterThreshold > o.PauseWriterThreshold {
		o.ResumeWriterThreshold = o.PauseWriterThreshold / 2
	}
	if o.MinimumSegmentSize <= 0 {
		o.MinimumSegmentSize = DefaultMinimumSegmentSize
	}
	return o
}

// WithBufferLimit returns options pausing at limit bytes; limit <= 0
// disables pausing.
func WithBufferLimit(pool api.MemoryPool, limit int64) Options {
	if limit <= 0 {
		return Options{Pool: pool, PauseWriterThreshold: -1}
	}
	return Options{Pool: pool, PauseWriterThreshold: limit, ResumeWriterThreshold: limit / 2}
}
