// File: internal/sockerr/classify.go
// Package sockerr normalizes socket errors and classifies them as reset,
// abort or unexpected.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package sockerr

import (
	"errors"
	"net"
	"runtime"
	"syscall"
)

// Platform selects the classification table row.
type Platform int

const (
	PlatformUnix Platform = iota
	PlatformWindows
)

// CurrentPlatform is the single platform query used by the classifier.
func CurrentPlatform() Platform {
	if runtime.GOOS == "windows" {
		return PlatformWindows
	}
	return PlatformUnix
}

// Code is a platform-neutral socket error code.
type Code int

const (
	CodeUnknown Code = iota
	CodeConnectionReset
	CodeShutdown
	CodeConnectionAborted
	CodeOperationAborted
	CodeInterrupted
	CodeInvalidArgument
)

func (c Code) String() string {
	switch c {
	case CodeConnectionReset:
		return "connection-reset"
	case CodeShutdown:
		return "shutdown"
	case CodeConnectionAborted:
		return "connection-aborted"
	case CodeOperationAborted:
		return "operation-aborted"
	case CodeInterrupted:
		return "interrupted"
	case CodeInvalidArgument:
		return "invalid-argument"
	default:
		return "unknown"
	}
}

// Class is the teardown category of a socket error.
type Class int

const (
	// Unexpected errors are logged at error severity.
	Unexpected Class = iota
	// Reset means the peer or the network terminated the connection.
	Reset
	// Abort is the expected result of local teardown.
	Abort
)

func (c Class) String() string {
	switch c {
	case Reset:
		return "reset"
	case Abort:
		return "abort"
	default:
		return "unexpected"
	}
}

// Classify maps a code to its class on the given platform.
func Classify(platform Platform, code Code) Class {
	switch code {
	case CodeConnectionReset, CodeShutdown:
		return Reset
	case CodeConnectionAborted:
		if platform == PlatformWindows {
			return Reset
		}
	case CodeOperationAborted, CodeInterrupted:
		return Abort
	case CodeInvalidArgument:
		if platform != PlatformWindows {
			return Abort
		}
	}
	return Unexpected
}

// CodeOf extracts the normalized code from err. A locally closed socket
// counts as an aborted operation.
func CodeOf(err error) Code {
	if err == nil {
		return CodeUnknown
	}
	if errors.Is(err, net.ErrClosed) {
		return CodeOperationAborted
	}
	var errno syscall.Errno
	if errors.As(err, &errno) {
		if code, ok := errnoCodes[errno]; ok {
			return code
		}
	}
	return CodeUnknown
}

// ClassOf classifies err for the current platform.
func ClassOf(err error) Class {
	return Classify(CurrentPlatform(), CodeOf(err))
}
