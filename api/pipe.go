// File: api/pipe.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Duplex byte-stream contracts shared by the transport and the application.

package api

import "context"

// ReadResult is the outcome of a pipe read. Buffer stays valid until the
// next AdvanceTo call.
type ReadResult struct {
	Buffer    Sequence
	Canceled  bool // CancelPendingRead was called
	Completed bool // the writer completed; no more data will arrive
}

// FlushResult is the outcome of a pipe flush.
type FlushResult struct {
	Canceled  bool // CancelPendingFlush was called
	Completed bool // the reader completed; further writes are discarded
}

// PipeReader is the consuming end of a pipe.
type PipeReader interface {
	// Read blocks until data, completion or cancellation is observed.
	// A writer completion error is returned alongside the final result.
	Read(ctx context.Context) (ReadResult, error)

	// TryRead returns immediately; ok reports whether a result was available.
	TryRead() (result ReadResult, ok bool, err error)

	// AdvanceTo marks consumed bytes as released and examined bytes as seen.
	// Offsets are relative to the start of the last returned buffer.
	AdvanceTo(consumed, examined int64) error

	// CancelPendingRead wakes a blocked Read with Canceled set.
	CancelPendingRead()

	// Complete signals that no more data will be read.
	Complete(err error)
}

// PipeWriter is the producing end of a pipe.
type PipeWriter interface {
	// GetBuffer returns writable memory of at least sizeHint bytes
	// (at least one byte when sizeHint is zero).
	GetBuffer(sizeHint int) ([]byte, error)

	// Advance commits n bytes written into the last buffer.
	Advance(n int) error

	// Write copies p into the pipe without flushing.
	Write(p []byte) (int, error)

	// Flush makes committed bytes visible to the reader and applies
	// backpressure once the pause threshold is reached.
	Flush(ctx context.Context) (FlushResult, error)

	// CancelPendingFlush wakes a blocked Flush with Canceled set.
	CancelPendingFlush()

	// Complete signals that no more data will be written. A non-nil err is
	// surfaced to the reader.
	Complete(err error)
}

// DuplexPipe pairs a reader and a writer.
type DuplexPipe interface {
	Input() PipeReader
	Output() PipeWriter
}
