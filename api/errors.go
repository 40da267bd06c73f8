// Package api
// Author: momentics <momentics@gmail.com>
//
// Common error types and error handling utilities for hioload-transport.

package api

import (
	"errors"
	"fmt"

	"github.com/containerd/errdefs"
)

// Pool and block contract errors.
var (
	ErrBufferTooLarge      = fmt.Errorf("requested size exceeds block size: %w", errdefs.ErrInvalidArgument)
	ErrPoolDisposed        = fmt.Errorf("memory pool is disposed: %w", errdefs.ErrUnavailable)
	ErrBlockDisposed       = fmt.Errorf("block is disposed: %w", errdefs.ErrFailedPrecondition)
	ErrInvalidBlockState   = fmt.Errorf("invalid block state: %w", errdefs.ErrFailedPrecondition)
	ErrPinOutOfRange       = fmt.Errorf("pin offset out of range: %w", errdefs.ErrOutOfRange)
	ErrOutstandingBlocks   = fmt.Errorf("blocks still rented at dispose: %w", errdefs.ErrFailedPrecondition)
	ErrStaleOperation      = fmt.Errorf("stale socket operation token: %w", errdefs.ErrFailedPrecondition)
	ErrOperationInFlight   = fmt.Errorf("socket operation already pending: %w", errdefs.ErrFailedPrecondition)
	ErrOperationIncomplete = fmt.Errorf("socket operation not completed: %w", errdefs.ErrFailedPrecondition)
	ErrOperationDisposed   = fmt.Errorf("socket operation is disposed: %w", errdefs.ErrUnavailable)
)

// Pipe errors.
var (
	ErrWriterCompleted = fmt.Errorf("pipe writer is completed: %w", errdefs.ErrFailedPrecondition)
	ErrReaderCompleted = fmt.Errorf("pipe reader is completed: %w", errdefs.ErrFailedPrecondition)
	ErrReadInProgress  = fmt.Errorf("pipe read already in progress: %w", errdefs.ErrFailedPrecondition)
	ErrNoReadToAdvance = fmt.Errorf("no pending read to advance: %w", errdefs.ErrFailedPrecondition)
	ErrAdvanceRange    = fmt.Errorf("advance beyond available data: %w", errdefs.ErrOutOfRange)
)

// Connection teardown classes. Use errors.Is against these.
var (
	ErrConnectionReset   = errors.New("connection reset")
	ErrConnectionAborted = errors.New("connection aborted")
)

// ConnectionResetError reports a peer-initiated or network-level reset.
type ConnectionResetError struct {
	Err error
}

func (e *ConnectionResetError) Error() string {
	if e.Err == nil {
		return ErrConnectionReset.Error()
	}
	return fmt.Sprintf("%s: %v", ErrConnectionReset, e.Err)
}

func (e *ConnectionResetError) Unwrap() error { return e.Err }

// Is matches ErrConnectionReset and errdefs unavailable class.
func (e *ConnectionResetError) Is(target error) bool {
	return target == ErrConnectionReset || target == errdefs.ErrUnavailable
}

// ConnectionAbortedError records a locally decided teardown.
type ConnectionAbortedError struct {
	Reason string
	Err    error
}

// NewConnectionAborted builds an abort reason without a cause.
func NewConnectionAborted(reason string) *ConnectionAbortedError {
	return &ConnectionAbortedError{Reason: reason}
}

func (e *ConnectionAbortedError) Error() string {
	msg := ErrConnectionAborted.Error()
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConnectionAbortedError) Unwrap() error { return e.Err }

// Is matches ErrConnectionAborted and errdefs aborted class.
func (e *ConnectionAbortedError) Is(target error) bool {
	return target == ErrConnectionAborted || target == errdefs.ErrAborted
}
